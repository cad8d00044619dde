package adminapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/app"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/metrics"
)

type settingItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

func registerSettingsRoutes() {
	webserver.ApiGET("/settings", getSettings)
	webserver.ApiGET("/settings/items", listSettingItems)
	webserver.ApiPUT("/settings", saveSettings, requireSuper)
	webserver.ApiGET("/settings/rates/history", rateHistory)
}

func getSettings(c echo.Context) error {
	return ok(c, GetAppContext(c).Settings())
}

func listSettingItems(c echo.Context) error {
	mgr := GetAppContext(c).ConfigMgr()
	values := mgr.Flatten()
	items := make([]settingItem, 0, len(values))
	for key, schema := range mgr.Schemas() {
		items = append(items, settingItem{
			Key:         key,
			Value:       values[key],
			Default:     schema.Default,
			Description: schema.Description,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return ok(c, items)
}

// saveSettings writes "category.name" values. Negative rates are rejected.
// @Summary update shop settings
// @Tags Settings
// @Param settings body map[string]interface{} true "Values keyed by category.name"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/settings [put]
func saveSettings(c echo.Context) error {
	updates := map[string]interface{}{}
	if err := c.Bind(&updates); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request parameters", err.Error())
	}
	if len(updates) == 0 {
		return fail(c, http.StatusBadRequest, "EMPTY_UPDATE", "No settings given", nil)
	}
	settings, err := GetAppContext(c).SaveSettings(c.Request().Context(), updates)
	switch {
	case errors.Is(err, app.ErrNegativeRate):
		return fail(c, http.StatusBadRequest, "NEGATIVE_RATE", "Rates must not be negative", err.Error())
	case errors.Is(err, app.ErrInvalidSetting):
		return fail(c, http.StatusBadRequest, "INVALID_SETTING", "Invalid setting value", err.Error())
	case errors.Is(err, app.ErrUnknownSetting):
		return fail(c, http.StatusBadRequest, "UNKNOWN_SETTING", "Unknown setting", err.Error())
	case err != nil:
		return fail(c, http.StatusInternalServerError, "SAVE_FAILED", "Failed to save settings", err.Error())
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	logOperation(c, "save_settings", strings.Join(keys, ","))
	return ok(c, settings)
}

// rateHistory returns the recorded metal rate points for a range (default last 30 days)
func rateHistory(c echo.Context) error {
	from, to, err := parseRange(c, 30)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date", err.Error())
	}
	metal := c.QueryParam("metal")
	if metal == "" {
		metal = "gold_22k"
	}
	points, err := metrics.Select("metal_rate", from, to, "metal", metal)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to read rate history", err.Error())
	}
	return ok(c, map[string]interface{}{"metal": metal, "points": points})
}
