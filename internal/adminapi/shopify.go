package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/shopify"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
)

// shopifySyncResponse is the outcome of a manual sync run
type shopifySyncResponse struct {
	Processed int       `json:"processed"`
	Synced    int       `json:"synced"`
	Failed    int       `json:"failed"`
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`
}

func registerShopifyRoutes() {
	webserver.ApiGET("/shopify/status", getShopifyStatus)
	webserver.ApiGET("/shopify/records", listShopifyRecords)
	webserver.ApiGET("/shopify/records/:id/logs", listShopifyLogs)
	webserver.ApiPOST("/shopify/sync", triggerShopifySync)
	webserver.ApiPOST("/shopify/products/:sku", enqueueShopifyProduct)
}

// shopifyService writes a 503 when the integration is switched off
func shopifyService(c echo.Context) (*shopify.SyncService, error) {
	svc := GetAppContext(c).Shopify()
	if svc == nil {
		return nil, fail(c, http.StatusServiceUnavailable, "SHOPIFY_DISABLED", "Shopify integration is disabled", nil)
	}
	return svc, nil
}

// getShopifyStatus returns record counts by sync status
// @Summary shopify sync status
// @Tags Shopify
// @Success 200 {object} map[string]int64
// @Router /api/v1/shopify/status [get]
func getShopifyStatus(c echo.Context) error {
	svc, err := shopifyService(c)
	if svc == nil {
		return err
	}
	counts, err := svc.Status(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sync status", err.Error())
	}
	for _, s := range []string{domain.SyncPending, domain.SyncSynced, domain.SyncFailed} {
		if _, ok := counts[s]; !ok {
			counts[s] = 0
		}
	}
	return ok(c, counts)
}

func listShopifyRecords(c echo.Context) error {
	svc, err := shopifyService(c)
	if svc == nil {
		return err
	}
	page, pageSize := parsePagination(c)
	rows, total, err := svc.Records(c.Request().Context(), c.QueryParam("status"), page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sync records", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func listShopifyLogs(c echo.Context) error {
	svc, err := shopifyService(c)
	if svc == nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sync record ID", nil)
	}
	logs, err := svc.Logs(c.Request().Context(), id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sync logs", err.Error())
	}
	return ok(c, logs)
}

// triggerShopifySync runs one sync pass without waiting for the scheduler
// @Summary manually trigger shopify sync
// @Tags Shopify
// @Success 200 {object} shopifySyncResponse
// @Router /api/v1/shopify/sync [post]
func triggerShopifySync(c echo.Context) error {
	svc, err := shopifyService(c)
	if svc == nil {
		return err
	}
	startTime := time.Now()
	res, err := svc.SyncNow(c.Request().Context())
	if errors.Is(err, shopify.ErrSyncRunning) {
		return fail(c, http.StatusConflict, "SYNC_RUNNING", "A sync is already running", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "SYNC_FAILED", "Shopify sync failed", err.Error())
	}
	endTime := time.Now()
	duration := endTime.Sub(startTime)

	zap.L().Info("manual shopify sync",
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", duration),
		zap.String("namespace", "adminapi"))
	logOperation(c, "shopify_sync", fmt.Sprintf("processed %d", res.Processed))

	return ok(c, shopifySyncResponse{
		Processed: res.Processed,
		Synced:    res.Synced,
		Failed:    res.Failed,
		Message:   fmt.Sprintf("Synced %d of %d records", res.Synced, res.Processed),
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration.String(),
	})
}

// enqueueShopifyProduct queues an in-stock product for listing
func enqueueShopifyProduct(c echo.Context) error {
	svc, err := shopifyService(c)
	if svc == nil {
		return err
	}
	p, err := GetAppContext(c).Catalog().FindBySku(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return catalogError(c, err)
	}
	rec, err := svc.Enqueue(c.Request().Context(), *p, domain.ShopifyActionUpsert)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to queue product", err.Error())
	}
	return created(c, rec)
}
