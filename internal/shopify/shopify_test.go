package shopify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/events"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/testutil"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

type staticSettings struct{}

func (staticSettings) Settings() domain.Settings {
	return domain.Settings{
		Shop:  domain.ShopSettings{Name: "Gems"},
		Rates: domain.RateSettings{Gold22k: 20000},
	}
}

type fakeStore struct {
	mu       sync.Mutex
	fail     bool
	requests []string
}

func (f *fakeStore) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path+" "+string(body))
		fail := f.fail
		f.mu.Unlock()
		assert.Equal(t, "secret", r.Header.Get("X-Shopify-Access-Token"))
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"errors":"boom"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"product":{"id":111}}`))
	}
}

func setup(t *testing.T) (*gorm.DB, *SyncService, *fakeStore) {
	db := testutil.NewDB(t)
	store := &fakeStore{}
	srv := httptest.NewServer(store.handler(t))
	t.Cleanup(srv.Close)
	client := NewRESTClient(srv.URL, "secret", "2024-01")
	svc := NewSyncService(db, NewGormSyncRepository(db), NewGormSyncLogRepository(db), client, staticSettings{}, 2)
	return db, svc, store
}

func addProduct(t *testing.T, db *gorm.DB) domain.Product {
	p := domain.Product{ID: common.UUIDint64(), ProductFields: domain.ProductFields{
		Sku: "RIN-000001", Name: "Ring", MetalType: domain.MetalGold, Karat: domain.Karat22,
		MetalWeightG: 10, WastagePercentage: 5, MakingCharges: 500,
	}}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestRESTClientBaseURL(t *testing.T) {
	c := NewRESTClient("demo.myshopify.com/", "t", "2024-01")
	assert.Equal(t, "https://demo.myshopify.com/admin/api/2024-01", c.BaseURL)
}

func TestListingRoundsGrams(t *testing.T) {
	_, svc, _ := setup(t)
	p := &domain.Product{ProductFields: domain.ProductFields{
		Sku: "RIN-000002", Name: "Band", MetalType: domain.MetalGold, Karat: domain.Karat22, MetalWeightG: 9.99,
	}}
	assert.Equal(t, 10, svc.listing(p).Grams)
	p.MetalWeightG = 4.4
	assert.Equal(t, 4, svc.listing(p).Grams)
}

func TestEnqueueReusesPendingRecord(t *testing.T) {
	db, svc, _ := setup(t)
	p := addProduct(t, db)
	ctx := context.Background()

	a, err := svc.Enqueue(ctx, p, domain.ShopifyActionUpsert)
	require.NoError(t, err)
	b, err := svc.Enqueue(ctx, p, domain.ShopifyActionUpsert)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	counts, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.SyncPending])
}

func TestSyncUpsertThenArchive(t *testing.T) {
	db, svc, store := setup(t)
	p := addProduct(t, db)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, p, domain.ShopifyActionUpsert)
	require.NoError(t, err)
	res, err := svc.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Result{Processed: 1, Synced: 1}, res)
	require.Len(t, store.requests, 1)
	assert.True(t, strings.HasPrefix(store.requests[0], "POST /admin/api/2024-01/products.json"))
	assert.Contains(t, store.requests[0], `"price":"210500.00"`)
	assert.Contains(t, store.requests[0], `"vendor":"Gems"`)

	var rec domain.ShopifySync
	require.NoError(t, db.Where("product_id = ?", p.ID).First(&rec).Error)
	assert.Equal(t, domain.SyncSynced, rec.Status)
	assert.Equal(t, "111", rec.RemoteID)

	_, err = svc.Enqueue(ctx, p, domain.ShopifyActionArchive)
	require.NoError(t, err)
	_, err = svc.SyncNow(ctx)
	require.NoError(t, err)
	require.Len(t, store.requests, 2)
	assert.True(t, strings.HasPrefix(store.requests[1], "PUT /admin/api/2024-01/products/111.json"))
	assert.Contains(t, store.requests[1], `"status":"archived"`)

	logs, err := svc.Logs(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Success)
}

func TestArchiveNeverListedIsSkipped(t *testing.T) {
	db, svc, store := setup(t)
	p := addProduct(t, db)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, p, domain.ShopifyActionArchive)
	require.NoError(t, err)
	res, err := svc.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Empty(t, store.requests)
}

func TestFailedSyncRetriesThreeTimes(t *testing.T) {
	db, svc, store := setup(t)
	store.fail = true
	p := addProduct(t, db)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, p, domain.ShopifyActionUpsert)
	require.NoError(t, err)
	for i := 0; i < MaxRetry; i++ {
		res, err := svc.SyncNow(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
	}
	res, err := svc.SyncNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Processed)

	var rec domain.ShopifySync
	require.NoError(t, db.Where("product_id = ?", p.ID).First(&rec).Error)
	assert.Equal(t, domain.SyncFailed, rec.Status)
	assert.Equal(t, MaxRetry, rec.RetryCount)
	assert.Contains(t, rec.ErrorMessage, "status 500")
}

func TestSubscribeQueuesEvents(t *testing.T) {
	db, svc, _ := setup(t)
	p := addProduct(t, db)
	bus := events.NewBus()
	svc.Subscribe(bus)

	bus.Publish(events.ProductSaved, p)
	bus.Publish(events.ProductSold, p)
	bus.Wait()

	var recs []domain.ShopifySync
	require.NoError(t, db.Where("product_id = ?", p.ID).Order("action").Find(&recs).Error)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.ShopifyActionArchive, recs[0].Action)
	assert.Equal(t, domain.ShopifyActionUpsert, recs[1].Action)
}
