package adminapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/catalog"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/pricing"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
)

// pricedProduct is a product with its price at the current rates
type pricedProduct struct {
	domain.Product
	Price pricing.Breakdown `json:"price"`
}

type purgePayload struct {
	IDs    []string `json:"ids"`
	Before string   `json:"before"`
}

// registerProductRoutes registers catalog endpoints
func registerProductRoutes() {
	webserver.ApiGET("/catalog/products", listProducts)
	webserver.ApiGET("/catalog/products/export", exportProducts)
	webserver.ApiPOST("/catalog/products/import", importProducts)
	webserver.ApiGET("/catalog/products/suggest", suggestProducts)
	webserver.ApiGET("/catalog/products/:id", getProduct)
	webserver.ApiPOST("/catalog/products", createProduct)
	webserver.ApiPUT("/catalog/products/:id", updateProduct)
	webserver.ApiDELETE("/catalog/products/:id", deleteProduct)
	webserver.ApiGET("/catalog/scan", scanProduct)

	webserver.ApiGET("/catalog/sold", listSoldProducts)
	webserver.ApiPOST("/catalog/sold/purge", purgeSoldProducts, requireSuper)
}

func priceOf(c echo.Context, p domain.Product) pricedProduct {
	calc := pricing.FromSettings(GetAppContext(c).Settings())
	return pricedProduct{Product: p, Price: calc.PriceProduct(p.ProductFields)}
}

func catalogError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", err.Error())
	case errors.Is(err, catalog.ErrProductSold):
		return fail(c, http.StatusConflict, "PRODUCT_SOLD", "Product already sold", err.Error())
	case errors.Is(err, catalog.ErrDuplicateSku):
		return fail(c, http.StatusConflict, "DUPLICATE_SKU", "SKU already exists", err.Error())
	case errors.Is(err, catalog.ErrInvalidProduct):
		return fail(c, http.StatusBadRequest, "INVALID_PRODUCT", err.Error(), nil)
	}
	return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Catalog operation failed", err.Error())
}

// listProducts lists in-stock products
// @Summary list products
// @Tags Catalog
// @Param page query int false "Page number"
// @Param perPage query int false "Items per page"
// @Param q query string false "SKU or name"
// @Param category_id query string false "Category"
// @Param metal_type query string false "Metal"
// @Param priced query bool false "Include the price breakdown"
// @Success 200 {object} ListResponse
// @Router /api/v1/catalog/products [get]
func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	order := parseSort(c, map[string]string{
		"id":             "id",
		"sku":            "sku",
		"name":           "name",
		"metal_weight_g": "metal_weight_g",
		"created_at":     "created_at",
		"updated_at":     "updated_at",
	}, "created_at")

	db := searchLike(GetDB(c).Model(&domain.Product{}), c.QueryParam("q"), "sku", "name")
	if cid, err := strconv.ParseInt(c.QueryParam("category_id"), 10, 64); err == nil && cid > 0 {
		db = db.Where("category_id = ?", cid)
	}
	if metal := strings.ToLower(strings.TrimSpace(c.QueryParam("metal_type"))); metal != "" {
		db = db.Where("metal_type = ?", metal)
	}
	if karat := strings.ToLower(strings.TrimSpace(c.QueryParam("karat"))); karat != "" {
		db = db.Where("karat = ?", karat)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	var rows []domain.Product
	if err := db.Order(order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	if c.QueryParam("priced") != "true" {
		return paged(c, rows, total, page, pageSize)
	}
	out := make([]pricedProduct, len(rows))
	for i, p := range rows {
		out[i] = priceOf(c, p)
	}
	return paged(c, out, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).First(&p, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}
	return ok(c, priceOf(c, p))
}

func scanProduct(c echo.Context) error {
	p, err := GetAppContext(c).Catalog().Scan(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return catalogError(c, err)
	}
	return ok(c, priceOf(c, *p))
}

func suggestProducts(c echo.Context) error {
	prefix := strings.ToUpper(strings.TrimSpace(c.QueryParam("prefix")))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return ok(c, GetAppContext(c).Catalog().Index().Prefix(prefix, limit))
}

// createProduct adds a product. An empty SKU is allocated from the category prefix.
// @Summary create a product
// @Tags Catalog
// @Param product body domain.ProductFields true "Product"
// @Success 201 {object} Response
// @Router /api/v1/catalog/products [post]
func createProduct(c echo.Context) error {
	var fields domain.ProductFields
	if err := c.Bind(&fields); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	p := domain.Product{ProductFields: fields}
	if err := GetAppContext(c).Catalog().Create(c.Request().Context(), &p); err != nil {
		return catalogError(c, err)
	}
	logOperation(c, "create_product", p.Sku)
	return created(c, priceOf(c, p))
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var fields domain.ProductFields
	if err := c.Bind(&fields); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	p, err := GetAppContext(c).Catalog().Update(c.Request().Context(), id, fields)
	if err != nil {
		return catalogError(c, err)
	}
	logOperation(c, "update_product", p.Sku)
	return ok(c, priceOf(c, *p))
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetAppContext(c).Catalog().Delete(c.Request().Context(), id); err != nil {
		return catalogError(c, err)
	}
	logOperation(c, "delete_product", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func exportProducts(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products-`+time.Now().Format("20060102")+`.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return GetAppContext(c).Catalog().Export(c.Request().Context(), c.Response())
}

func importProducts(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "MISSING_FILE", "CSV file is required", err.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_FILE", "Unable to read upload", err.Error())
	}
	defer f.Close()
	res, err := GetAppContext(c).Catalog().Import(c.Request().Context(), f)
	if err != nil {
		return fail(c, http.StatusBadRequest, "IMPORT_FAILED", "Failed to import products", err.Error())
	}
	logOperation(c, "import_products", fh.Filename)
	return ok(c, res)
}

func listSoldProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := searchLike(GetDB(c).Model(&domain.SoldProduct{}), c.QueryParam("q"), "sku", "name")
	if from, err := parseDate(c.QueryParam("from")); err == nil && !from.IsZero() {
		db = db.Where("sold_at >= ?", from)
	}
	if to, err := parseDate(c.QueryParam("to")); err == nil && !to.IsZero() {
		db = db.Where("sold_at < ?", to)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sold products", err.Error())
	}
	var rows []domain.SoldProduct
	if err := db.Order("sold_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sold products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func purgeSoldProducts(c echo.Context) error {
	var payload purgePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request parameters", err.Error())
	}
	ids := make([]int64, 0, len(payload.IDs))
	for _, s := range payload.IDs {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid sold product ID", s)
		}
		ids = append(ids, id)
	}
	before, err := parseDate(payload.Before)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date", err.Error())
	}
	if len(ids) == 0 && before.IsZero() {
		return fail(c, http.StatusBadRequest, "NOTHING_TO_PURGE", "Provide ids or a before date", nil)
	}
	n, err := GetAppContext(c).Catalog().PurgeSold(c.Request().Context(), ids, before)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "PURGE_FAILED", "Failed to purge sold products", err.Error())
	}
	logOperation(c, "purge_sold", strconv.FormatInt(n, 10)+" rows")
	return ok(c, map[string]int64{"deleted": n})
}
