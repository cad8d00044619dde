package sales

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

const (
	// idem:invoice:create:{request_id} -> invoice id, or "pending" while the sale runs
	keyIdemInvoiceCreate = "idem:invoice:create:%s"
	idemPending          = "pending"
)

var TTLIdempotency = 24 * time.Hour

// Idempotency guards invoice creation against client retries
type Idempotency interface {
	// Begin claims requestID. It returns the invoice id of a completed earlier request,
	// ErrDuplicateRequest while another request with the same id is running, or 0.
	Begin(ctx context.Context, requestID string) (int64, error)
	Complete(ctx context.Context, requestID string, invoiceID int64) error
	Abort(ctx context.Context, requestID string)
}

// RedisIdempotency keeps request ids in redis with a 24h TTL
type RedisIdempotency struct {
	rdb *redis.Client
}

func NewRedisIdempotency(rdb *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{rdb: rdb}
}

func (r *RedisIdempotency) Begin(ctx context.Context, requestID string) (int64, error) {
	key := fmt.Sprintf(keyIdemInvoiceCreate, requestID)
	claimed, err := r.rdb.SetNX(ctx, key, idemPending, TTLIdempotency).Result()
	if err != nil {
		return 0, errors.Wrap(err, "claim idempotency key")
	}
	if claimed {
		return 0, nil
	}
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrDuplicateRequest
	}
	if err != nil {
		return 0, errors.Wrap(err, "read idempotency key")
	}
	if v == idemPending {
		return 0, ErrDuplicateRequest
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse idempotency value")
	}
	return id, nil
}

func (r *RedisIdempotency) Complete(ctx context.Context, requestID string, invoiceID int64) error {
	key := fmt.Sprintf(keyIdemInvoiceCreate, requestID)
	return r.rdb.Set(ctx, key, strconv.FormatInt(invoiceID, 10), TTLIdempotency).Err()
}

func (r *RedisIdempotency) Abort(ctx context.Context, requestID string) {
	_ = r.rdb.Del(ctx, fmt.Sprintf(keyIdemInvoiceCreate, requestID)).Err()
}

// DBIdempotency finds earlier invoices by request id. Requests in flight are
// tracked in memory, so it only protects a single process.
type DBIdempotency struct {
	db       *gorm.DB
	inflight sync.Map
}

func NewDBIdempotency(db *gorm.DB) *DBIdempotency {
	return &DBIdempotency{db: db}
}

func (d *DBIdempotency) Begin(ctx context.Context, requestID string) (int64, error) {
	if _, loaded := d.inflight.LoadOrStore(requestID, struct{}{}); loaded {
		return 0, ErrDuplicateRequest
	}
	var inv domain.Invoice
	err := d.db.WithContext(ctx).Select("id").
		Where("request_id = ? AND created_at > ?", requestID, time.Now().Add(-TTLIdempotency)).
		Order("created_at desc").First(&inv).Error
	if err == nil {
		d.inflight.Delete(requestID)
		return inv.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		d.inflight.Delete(requestID)
		return 0, errors.Wrap(err, "lookup request id")
	}
	return 0, nil
}

func (d *DBIdempotency) Complete(_ context.Context, requestID string, _ int64) error {
	d.inflight.Delete(requestID)
	return nil
}

func (d *DBIdempotency) Abort(_ context.Context, requestID string) {
	d.inflight.Delete(requestID)
}
