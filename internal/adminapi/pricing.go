package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/pricing"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
)

type quoteResponse struct {
	Items  []pricing.Breakdown `json:"items"`
	Totals pricing.Totals      `json:"totals"`
}

func registerPricingRoutes() {
	webserver.ApiPOST("/pricing/quote", quotePrice)
}

// quotePrice prices loosely typed items at the current rates. Unparsable numbers count as zero.
// @Summary price items without saving them
// @Tags Pricing
// @Param quote body map[string]interface{} true "items, discount, amount_paid"
// @Success 200 {object} Response
// @Router /api/v1/pricing/quote [post]
func quotePrice(c echo.Context) error {
	body := map[string]interface{}{}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request parameters", err.Error())
	}
	raw, isList := body["items"].([]interface{})
	if !isList {
		raw = []interface{}{body}
	}
	calc := pricing.FromSettings(GetAppContext(c).Settings())
	items := make([]pricing.Breakdown, 0, len(raw))
	for _, r := range raw {
		m, isMap := r.(map[string]interface{})
		if !isMap {
			return fail(c, http.StatusBadRequest, "INVALID_ITEM", "Each item must be an object", nil)
		}
		items = append(items, calc.Price(pricing.ItemFromMap(m)))
	}
	totals := pricing.CartTotals(items, cast.ToFloat64(body["discount"]), cast.ToFloat64(body["amount_paid"]))
	return ok(c, quoteResponse{Items: items, Totals: totals})
}
