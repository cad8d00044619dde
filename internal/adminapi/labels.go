package adminapi

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/catalog"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/labels"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/pricing"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

const (
	formatZPL = "zpl"
	formatPDF = "pdf"
)

type layoutPayload struct {
	Name       string         `json:"name" validate:"required,min=1,max=100"`
	WidthDots  int            `json:"width_dots" validate:"required,min=1"`
	HeightDots int            `json:"height_dots" validate:"required,min=1"`
	Panels     int            `json:"panels" validate:"omitempty,min=1,max=4"`
	GapDots    int            `json:"gap_dots" validate:"min=0"`
	Fields     []labels.Field `json:"fields" validate:"dive"`
	IsDefault  bool           `json:"is_default"`
}

type renderPayload struct {
	LayoutID int64                  `json:"layout_id,string"`
	Skus     []string               `json:"skus" validate:"required,min=1,dive,required"`
	Format   string                 `json:"format" validate:"omitempty,oneof=zpl pdf"`
	Extra    map[string]interface{} `json:"extra"`
}

type printPayload struct {
	renderPayload
	PrinterID int64 `json:"printer_id,string" validate:"required"`
}

func registerLabelRoutes() {
	webserver.ApiGET("/labels/layouts", listLayouts)
	webserver.ApiGET("/labels/layouts/:id", getLayout)
	webserver.ApiPOST("/labels/layouts", createLayout)
	webserver.ApiPUT("/labels/layouts/:id", updateLayout)
	webserver.ApiDELETE("/labels/layouts/:id", deleteLayout)
	webserver.ApiPOST("/labels/render", renderTags)
	webserver.ApiGET("/labels/render/:sku", renderTag)
}

func listLayouts(c echo.Context) error {
	var rows []domain.LabelLayout
	if err := GetDB(c).Order("is_default DESC, name ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query layouts", err.Error())
	}
	out := make([]labels.Layout, 0, len(rows))
	for _, r := range rows {
		l, err := labels.FromDomain(r)
		if err != nil {
			zap.L().Warn("skip broken layout", zap.String("name", r.Name), zap.Error(err))
			continue
		}
		out = append(out, l)
	}
	return ok(c, map[string]interface{}{"rows": rows, "layouts": out})
}

func getLayout(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid layout ID", nil)
	}
	var row domain.LabelLayout
	if err := GetDB(c).First(&row, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "LAYOUT_NOT_FOUND", "Layout not found", nil)
	}
	l, err := labels.FromDomain(row)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "LAYOUT_BROKEN", "Stored layout cannot be decoded", err.Error())
	}
	return ok(c, map[string]interface{}{"row": row, "layout": l})
}

func (p layoutPayload) toDomain() (domain.LabelLayout, error) {
	l := labels.Layout{
		Name:       strings.TrimSpace(p.Name),
		WidthDots:  p.WidthDots,
		HeightDots: p.HeightDots,
		Panels:     p.Panels,
		GapDots:    p.GapDots,
		Fields:     p.Fields,
	}
	if l.Panels == 0 {
		l.Panels = 1
	}
	row, err := l.ToDomain()
	row.IsDefault = p.IsDefault
	return row, err
}

func clearDefaultLayout(c echo.Context, except int64) {
	GetDB(c).Model(&domain.LabelLayout{}).Where("id <> ?", except).Update("is_default", false)
}

func createLayout(c echo.Context) error {
	var payload layoutPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	row, err := payload.toDomain()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_LAYOUT", err.Error(), nil)
	}
	var n int64
	GetDB(c).Model(&domain.LabelLayout{}).Where("name = ?", row.Name).Count(&n)
	if n > 0 {
		return fail(c, http.StatusConflict, "NAME_EXISTS", "Layout name already exists", nil)
	}
	row.ID = common.UUIDint64()
	if err := GetDB(c).Create(&row).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create layout", err.Error())
	}
	if row.IsDefault {
		clearDefaultLayout(c, row.ID)
	}
	return created(c, row)
}

func updateLayout(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid layout ID", nil)
	}
	var existing domain.LabelLayout
	if err := GetDB(c).First(&existing, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "LAYOUT_NOT_FOUND", "Layout not found", nil)
	}
	var payload layoutPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	row, err := payload.toDomain()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_LAYOUT", err.Error(), nil)
	}
	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&row).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update layout", err.Error())
	}
	if row.IsDefault {
		clearDefaultLayout(c, row.ID)
	}
	return ok(c, row)
}

func deleteLayout(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid layout ID", nil)
	}
	var row domain.LabelLayout
	if err := GetDB(c).First(&row, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "LAYOUT_NOT_FOUND", "Layout not found", nil)
	}
	if row.IsDefault {
		return fail(c, http.StatusConflict, "DEFAULT_LAYOUT", "The default layout cannot be deleted", nil)
	}
	if err := GetDB(c).Delete(&row).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete layout", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// loadLayout returns the stored layout, the default one for id 0, or the built-in layout
func loadLayout(c echo.Context, id int64) (labels.Layout, error) {
	var row domain.LabelLayout
	q := GetDB(c)
	var err error
	if id > 0 {
		err = q.First(&row, id).Error
	} else {
		err = q.Where("is_default = ?", true).First(&row).Error
		if isNotFound(err) {
			return labels.DefaultLayout(), nil
		}
	}
	if err != nil {
		return labels.Layout{}, err
	}
	return labels.FromDomain(row)
}

// tagEntities builds template maps for in-stock SKUs with the current price and shop name
func tagEntities(c echo.Context, skus []string, extra map[string]interface{}) ([]map[string]interface{}, error) {
	settings := GetAppContext(c).Settings()
	calc := pricing.FromSettings(settings)
	out := make([]map[string]interface{}, 0, len(skus))
	for _, sku := range skus {
		p, err := GetAppContext(c).Catalog().FindBySku(c.Request().Context(), sku)
		if err != nil {
			return nil, err
		}
		b := calc.PriceProduct(p.ProductFields)
		vals := map[string]interface{}{
			"price":       common.FormatCurrency(b.Total),
			"shopName":    settings.Shop.Name,
			"shopContact": settings.Shop.Contact,
		}
		for k, v := range extra {
			vals[k] = v
		}
		e, err := labels.ProductEntity(*p, vals)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// fetchLogo downloads the shop logo for PDF tags; failures only drop the logo
func fetchLogo(c echo.Context) []byte {
	logoURL := strings.TrimSpace(GetAppContext(c).Settings().Shop.LogoURL)
	if logoURL == "" {
		return nil
	}
	var body string
	var code int
	err := gout.GET(logoURL).
		WithContext(c.Request().Context()).
		SetTimeout(5 * time.Second).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil || code != http.StatusOK {
		zap.L().Warn("logo download failed", zap.String("url", logoURL), zap.Int("code", code), zap.Error(err))
		return nil
	}
	return []byte(body)
}

func render(c echo.Context, req renderPayload) error {
	layout, err := loadLayout(c, req.LayoutID)
	if err != nil {
		return fail(c, http.StatusNotFound, "LAYOUT_NOT_FOUND", "Layout not found", err.Error())
	}
	entities, err := tagEntities(c, req.Skus, req.Extra)
	if err != nil {
		return catalogError(c, err)
	}
	if req.Format == formatPDF {
		var buf bytes.Buffer
		if err := labels.RenderPDF(&buf, layout, entities, labels.PDFOptions{Logo: fetchLogo(c)}); err != nil {
			return fail(c, http.StatusInternalServerError, "RENDER_FAILED", "Failed to render tags", err.Error())
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="tags.pdf"`)
		return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
	}
	zpl, err := labels.GenerateZPLBatch(layout, entities)
	if err != nil {
		return fail(c, http.StatusBadRequest, "RENDER_FAILED", "Failed to render tags", err.Error())
	}
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(zpl))
}

// renderTags renders tags for many SKUs as one ZPL stream or a PDF
// @Summary render product tags
// @Tags Labels
// @Param request body renderPayload true "SKUs and format"
// @Success 200 {string} string "ZPL or PDF"
// @Router /api/v1/labels/render [post]
func renderTags(c echo.Context) error {
	var req renderPayload
	if okBind, err := bindValid(c, &req); !okBind {
		return err
	}
	return render(c, req)
}

func renderTag(c echo.Context) error {
	layoutID := cast.ToInt64(c.QueryParam("layout_id"))
	format := strings.ToLower(c.QueryParam("format"))
	if format != formatPDF {
		format = formatZPL
	}
	return render(c, renderPayload{
		LayoutID: layoutID,
		Skus:     []string{catalog.NormalizeScan(c.Param("sku"))},
		Format:   format,
	})
}
