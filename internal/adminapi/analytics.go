package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/pricing"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/reports"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/metrics"
)

func registerAnalyticsRoutes() {
	webserver.ApiGET("/analytics/summary", analyticsSummary)
	webserver.ApiGET("/analytics/summary/export", exportAnalyticsSummary)
	webserver.ApiGET("/analytics/inventory", inventoryValuation)
	webserver.ApiGET("/analytics/system", systemGauges)
}

// parseRange reads from/to; missing bounds default to the last days up to now
func parseRange(c echo.Context, days int) (time.Time, time.Time, error) {
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return from, from, err
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return from, to, err
	}
	if to.IsZero() {
		to = time.Now().Add(time.Second)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -days)
	}
	return from, to, nil
}

// analyticsSummary reports sales for a date range
// @Summary sales summary
// @Tags Analytics
// @Param from query string false "Start date, any common format"
// @Param to query string false "End date (exclusive)"
// @Success 200 {object} Response
// @Router /api/v1/analytics/summary [get]
func analyticsSummary(c echo.Context) error {
	from, to, err := parseRange(c, 30)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date", err.Error())
	}
	sum, err := GetAppContext(c).Analytics().Summary(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to build summary", err.Error())
	}
	return ok(c, sum)
}

func exportAnalyticsSummary(c echo.Context) error {
	from, to, err := parseRange(c, 30)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date", err.Error())
	}
	sum, err := GetAppContext(c).Analytics().Summary(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to build summary", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="sales-`+from.Format("20060102")+`-`+to.Format("20060102")+`.xlsx"`)
	c.Response().WriteHeader(http.StatusOK)
	return reports.WriteSummary(c.Response(), *sum)
}

func inventoryValuation(c echo.Context) error {
	calc := pricing.FromSettings(GetAppContext(c).Settings())
	val, err := GetAppContext(c).Analytics().Inventory(c.Request().Context(), calc)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to value inventory", err.Error())
	}
	return ok(c, val)
}

// systemGauges returns host and process usage recorded by the monitor job over the last hour
func systemGauges(c echo.Context) error {
	to := time.Now().Add(time.Second)
	from := to.Add(-time.Hour)
	out := map[string][]metrics.Point{}
	for _, name := range []string{"system_cpuuse", "system_memuse", "gemstrack_cpuuse", "gemstrack_memuse"} {
		pts, err := metrics.Select(name, from, to)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to read metrics", err.Error())
		}
		out[name] = pts
	}
	return ok(c, out)
}
