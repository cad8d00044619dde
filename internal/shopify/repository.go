package shopify

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

// SyncRepository handles database operations for queued store changes
type SyncRepository interface {
	Create(ctx context.Context, rec *domain.ShopifySync) error
	Update(ctx context.Context, rec *domain.ShopifySync) error
	GetByID(ctx context.Context, id int64) (*domain.ShopifySync, error)

	// FindPendingFor returns the queued record for a product and action, if any
	FindPendingFor(ctx context.Context, productID int64, action string) (*domain.ShopifySync, error)

	// RemoteIDFor returns the store product id of the last synced upsert
	RemoteIDFor(ctx context.Context, productID int64) (string, error)

	GetPending(ctx context.Context, limit int) ([]*domain.ShopifySync, error)

	// GetFailed returns failed records that still have retries left
	GetFailed(ctx context.Context, maxRetry, limit int) ([]*domain.ShopifySync, error)

	UpdateStatus(ctx context.Context, id int64, status, errorMsg string) error
	IncrementRetry(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	List(ctx context.Context, filter map[string]interface{}, page, pageSize int) ([]*domain.ShopifySync, int64, error)
}

// SyncLogRepository stores the audit trail of push attempts
type SyncLogRepository interface {
	Create(ctx context.Context, log *domain.ShopifySyncLog) error
	GetBySyncID(ctx context.Context, syncID int64) ([]*domain.ShopifySyncLog, error)
	DeleteOlderThan(ctx context.Context, days int) error
}

type GormSyncRepository struct {
	db *gorm.DB
}

func NewGormSyncRepository(db *gorm.DB) *GormSyncRepository {
	return &GormSyncRepository{db: db}
}

func (r *GormSyncRepository) Create(ctx context.Context, rec *domain.ShopifySync) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *GormSyncRepository) Update(ctx context.Context, rec *domain.ShopifySync) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *GormSyncRepository) GetByID(ctx context.Context, id int64) (*domain.ShopifySync, error) {
	var rec domain.ShopifySync
	err := r.db.WithContext(ctx).First(&rec, id).Error
	return &rec, err
}

func (r *GormSyncRepository) FindPendingFor(ctx context.Context, productID int64, action string) (*domain.ShopifySync, error) {
	var rec domain.ShopifySync
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND action = ? AND status = ?", productID, action, domain.SyncPending).
		First(&rec).Error
	return &rec, err
}

func (r *GormSyncRepository) RemoteIDFor(ctx context.Context, productID int64) (string, error) {
	var rec domain.ShopifySync
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND remote_id <> ''", productID).
		Order("updated_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return rec.RemoteID, err
}

func (r *GormSyncRepository) GetPending(ctx context.Context, limit int) ([]*domain.ShopifySync, error) {
	var recs []*domain.ShopifySync
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.SyncPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (r *GormSyncRepository) GetFailed(ctx context.Context, maxRetry, limit int) ([]*domain.ShopifySync, error) {
	var recs []*domain.ShopifySync
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.SyncFailed).
		Where("retry_count < ?", maxRetry).
		Order("created_at ASC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (r *GormSyncRepository) UpdateStatus(ctx context.Context, id int64, status, errorMsg string) error {
	return r.db.WithContext(ctx).
		Model(&domain.ShopifySync{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMsg,
		}).Error
}

func (r *GormSyncRepository) IncrementRetry(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.ShopifySync{}).
		Where("id = ?", id).
		Update("retry_count", gorm.Expr("retry_count + 1")).Error
}

func (r *GormSyncRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&domain.ShopifySync{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error
	out := map[string]int64{domain.SyncPending: 0, domain.SyncSynced: 0, domain.SyncFailed: 0}
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, err
}

func (r *GormSyncRepository) List(ctx context.Context, filter map[string]interface{}, page, pageSize int) ([]*domain.ShopifySync, int64, error) {
	var recs []*domain.ShopifySync
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.ShopifySync{})
	for key, value := range filter {
		if value != nil && value != "" {
			query = query.Where(key+" = ?", value)
		}
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recs).Error
	return recs, total, err
}

type GormSyncLogRepository struct {
	db *gorm.DB
}

func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

func (r *GormSyncLogRepository) Create(ctx context.Context, log *domain.ShopifySyncLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *GormSyncLogRepository) GetBySyncID(ctx context.Context, syncID int64) ([]*domain.ShopifySyncLog, error) {
	var logs []*domain.ShopifySyncLog
	err := r.db.WithContext(ctx).
		Where("sync_id = ?", syncID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

func (r *GormSyncLogRepository) DeleteOlderThan(ctx context.Context, days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)
	return r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.ShopifySyncLog{}).Error
}
