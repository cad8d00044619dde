// Package shopify mirrors in-stock products to a Shopify store.
package shopify

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/events"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/pricing"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

const (
	MaxRetry       = 3
	pendingBatch   = 100
	failedBatch    = 50
	defaultWorkers = 4
)

var ErrSyncRunning = errors.New("shopify sync already running")

// SettingsSource supplies the current rates for listing prices
type SettingsSource interface {
	Settings() domain.Settings
}

// Result summarises one sync pass
type Result struct {
	Processed int `json:"processed"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
}

type SyncService struct {
	db       *gorm.DB
	syncRepo SyncRepository
	logRepo  SyncLogRepository
	client   Client
	settings SettingsSource
	workers  int
	running  int32
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSyncService(
	db *gorm.DB,
	syncRepo SyncRepository,
	logRepo SyncLogRepository,
	client Client,
	settings SettingsSource,
	workers int,
) *SyncService {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &SyncService{
		db:       db,
		syncRepo: syncRepo,
		logRepo:  logRepo,
		client:   client,
		settings: settings,
		workers:  workers,
		stopChan: make(chan struct{}),
	}
}

// Start runs a sync pass every interval until Stop or ctx is done
func (s *SyncService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.ticker = time.NewTicker(interval)
	go s.syncLoop(ctx)
	zap.L().Info("shopify sync service started",
		zap.Duration("sync_interval", interval),
		zap.String("namespace", "shopify"))
}

func (s *SyncService) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopChan)
		zap.L().Info("shopify sync service stopped", zap.String("namespace", "shopify"))
	})
}

func (s *SyncService) syncLoop(ctx context.Context) {
	for {
		select {
		case <-s.ticker.C:
			if _, err := s.SyncNow(ctx); err != nil && !errors.Is(err, ErrSyncRunning) {
				zap.L().Error("shopify sync pass failed", zap.Error(err), zap.String("namespace", "shopify"))
			}
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		}
	}
}

// Subscribe queues store changes for catalog and sales events
func (s *SyncService) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.ProductSaved, func(ev events.Envelope) {
		if p, ok := productOf(ev.Payload); ok {
			s.enqueueLogged(p, domain.ShopifyActionUpsert)
		}
	})
	archive := func(ev events.Envelope) {
		if p, ok := productOf(ev.Payload); ok {
			s.enqueueLogged(p, domain.ShopifyActionArchive)
		}
	}
	bus.Subscribe(events.ProductSold, archive)
	bus.Subscribe(events.ProductDeleted, archive)
}

func productOf(v interface{}) (domain.Product, bool) {
	switch p := v.(type) {
	case domain.Product:
		return p, true
	case *domain.Product:
		if p != nil {
			return *p, true
		}
	}
	return domain.Product{}, false
}

func (s *SyncService) enqueueLogged(p domain.Product, action string) {
	if _, err := s.Enqueue(context.Background(), p, action); err != nil {
		zap.L().Error("shopify enqueue failed",
			zap.String("sku", p.Sku),
			zap.String("action", action),
			zap.Error(err),
			zap.String("namespace", "shopify"))
	}
}

// Enqueue records a pending change. A pending record for the same product and action is reused.
func (s *SyncService) Enqueue(ctx context.Context, p domain.Product, action string) (*domain.ShopifySync, error) {
	rec, err := s.syncRepo.FindPendingFor(ctx, p.ID, action)
	if err == nil {
		rec.Sku = p.Sku
		return rec, s.syncRepo.Update(ctx, rec)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find pending sync")
	}
	rec = &domain.ShopifySync{
		ID:        common.UUIDint64(),
		ProductID: p.ID,
		Sku:       p.Sku,
		Action:    action,
		Status:    domain.SyncPending,
	}
	if err := s.syncRepo.Create(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "create sync record")
	}
	return rec, nil
}

// SyncNow pushes pending records and retries failed ones through a worker pool
func (s *SyncService) SyncNow(ctx context.Context) (*Result, error) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil, ErrSyncRunning
	}
	defer atomic.StoreInt32(&s.running, 0)

	pending, err := s.syncRepo.GetPending(ctx, pendingBatch)
	if err != nil {
		return nil, errors.Wrap(err, "load pending syncs")
	}
	failed, err := s.syncRepo.GetFailed(ctx, MaxRetry, failedBatch)
	if err != nil {
		return nil, errors.Wrap(err, "load failed syncs")
	}
	recs := append(pending, failed...)
	res := &Result{}
	if len(recs) == 0 {
		return res, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var synced, failedCount int32
	for _, rec := range recs {
		rec := rec
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if s.syncRecord(ctx, rec) {
				atomic.AddInt32(&synced, 1)
			} else {
				atomic.AddInt32(&failedCount, 1)
			}
		})
		if err != nil {
			wg.Done()
			atomic.AddInt32(&failedCount, 1)
		}
	}
	wg.Wait()

	res.Processed = len(recs)
	res.Synced = int(synced)
	res.Failed = int(failedCount)
	zap.L().Info("shopify sync pass finished",
		zap.Int("processed", res.Processed),
		zap.Int("synced", res.Synced),
		zap.Int("failed", res.Failed),
		zap.String("namespace", "shopify"))
	return res, nil
}

func (s *SyncService) syncRecord(ctx context.Context, rec *domain.ShopifySync) bool {
	var ex *Exchange
	var err error
	note := ""

	switch rec.Action {
	case domain.ShopifyActionUpsert:
		var p domain.Product
		dbErr := s.db.WithContext(ctx).First(&p, rec.ProductID).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			note = "product no longer in stock"
			break
		}
		if dbErr != nil {
			err = dbErr
			break
		}
		remoteID := rec.RemoteID
		if remoteID == "" {
			if remoteID, err = s.syncRepo.RemoteIDFor(ctx, rec.ProductID); err != nil {
				break
			}
		}
		rec.RemoteID, ex, err = s.client.UpsertProduct(ctx, remoteID, s.listing(&p))
	case domain.ShopifyActionArchive:
		remoteID := rec.RemoteID
		if remoteID == "" {
			if remoteID, err = s.syncRepo.RemoteIDFor(ctx, rec.ProductID); err != nil {
				break
			}
		}
		if remoteID == "" {
			note = "product was never listed"
			break
		}
		rec.RemoteID = remoteID
		ex, err = s.client.ArchiveProduct(ctx, remoteID)
	default:
		err = fmt.Errorf("unknown action %q", rec.Action)
	}

	s.logSync(ctx, rec, ex, err)
	if err != nil {
		if uerr := s.syncRepo.UpdateStatus(ctx, rec.ID, domain.SyncFailed, err.Error()); uerr != nil {
			zap.L().Error("failed to update sync status", zap.Error(uerr))
		}
		if uerr := s.syncRepo.IncrementRetry(ctx, rec.ID); uerr != nil {
			zap.L().Error("failed to increment retry", zap.Error(uerr))
		}
		zap.L().Warn("shopify sync failed",
			zap.String("sku", rec.Sku),
			zap.String("action", rec.Action),
			zap.Error(err),
			zap.String("namespace", "shopify"))
		return false
	}

	now := time.Now()
	rec.Status = domain.SyncSynced
	rec.ErrorMessage = note
	rec.RetryCount = 0
	rec.LastSyncAt = &now
	if err := s.syncRepo.Update(ctx, rec); err != nil {
		zap.L().Error("failed to update sync record", zap.Int64("sync_id", rec.ID), zap.Error(err))
		return false
	}
	return true
}

func (s *SyncService) listing(p *domain.Product) *Listing {
	settings := s.settings.Settings()
	b := pricing.FromSettings(settings).PriceProduct(p.ProductFields)
	tags := []string{p.MetalType}
	if p.Karat != "" {
		tags = append(tags, p.Karat)
	}
	if p.HasDiamonds {
		tags = append(tags, "diamond")
	}
	desc := fmt.Sprintf("<p>%s %s, %sg</p>", p.Karat, p.MetalType, common.FormatGrams(common.Decimal(p.MetalWeightG)))
	if p.StoneDetails != "" {
		desc += fmt.Sprintf("<p>Stones: %s</p>", p.StoneDetails)
	}
	if p.DiamondDetails != "" {
		desc += fmt.Sprintf("<p>Diamonds: %s</p>", p.DiamondDetails)
	}
	return &Listing{
		Title:       common.IfEmptyStr(p.Name, p.Sku),
		BodyHTML:    desc,
		Vendor:      settings.Shop.Name,
		ProductType: p.MetalType,
		Tags:        tags,
		Sku:         p.Sku,
		Price:       b.Total.StringFixed(2),
		Grams:       int(math.Round(p.MetalWeightG)),
		ImageURL:    p.ImageURL,
	}
}

func (s *SyncService) logSync(ctx context.Context, rec *domain.ShopifySync, ex *Exchange, err error) {
	log := &domain.ShopifySyncLog{
		ID:      common.UUIDint64(),
		SyncID:  rec.ID,
		Sku:     rec.Sku,
		Action:  rec.Action,
		Success: err == nil,
	}
	if ex != nil {
		log.Request = ex.Request
		log.Response = ex.Response
	}
	if err != nil {
		log.ErrorMessage = err.Error()
	}
	if err := s.logRepo.Create(ctx, log); err != nil {
		zap.L().Warn("failed to create shopify sync log", zap.Error(err))
	}
}

// Status counts records per status
func (s *SyncService) Status(ctx context.Context) (map[string]int64, error) {
	return s.syncRepo.CountByStatus(ctx)
}

func (s *SyncService) Records(ctx context.Context, status string, page, pageSize int) ([]*domain.ShopifySync, int64, error) {
	return s.syncRepo.List(ctx, map[string]interface{}{"status": status}, page, pageSize)
}

func (s *SyncService) Logs(ctx context.Context, syncID int64) ([]*domain.ShopifySyncLog, error) {
	return s.logRepo.GetBySyncID(ctx, syncID)
}

// PurgeLogs removes audit rows older than days
func (s *SyncService) PurgeLogs(ctx context.Context, days int) error {
	return s.logRepo.DeleteOlderThan(ctx, days)
}
