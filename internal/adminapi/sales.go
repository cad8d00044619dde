package adminapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/catalog"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/sales"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
)

type emailPayload struct {
	To string `json:"to" validate:"required,email"`
}

type statusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

type paymentPayload struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	Method string  `json:"method" validate:"omitempty,max=50"`
}

func registerSalesRoutes() {
	webserver.ApiPOST("/sales/checkout", checkout)
	webserver.ApiGET("/sales/invoices", listInvoices)
	webserver.ApiGET("/sales/invoices/:id", getInvoice)
	webserver.ApiGET("/sales/invoices/:id/receipt", invoiceReceipt)
	webserver.ApiPOST("/sales/invoices/:id/email", emailInvoice)
}

func registerOrderRoutes() {
	webserver.ApiGET("/sales/orders", listOrders)
	webserver.ApiPOST("/sales/orders", createOrder)
	webserver.ApiGET("/sales/orders/:id", getOrder)
	webserver.ApiPUT("/sales/orders/:id/status", updateOrderStatus)
	webserver.ApiPOST("/sales/orders/:id/payments", recordOrderPayment)
}

func salesError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, sales.ErrEmptyCart), errors.Is(err, sales.ErrDuplicateItem),
		errors.Is(err, sales.ErrInvalidPayment), errors.Is(err, sales.ErrNegativeAmount),
		errors.Is(err, catalog.ErrInvalidProduct):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, catalog.ErrProductNotFound):
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, catalog.ErrProductSold):
		return fail(c, http.StatusConflict, "PRODUCT_SOLD", err.Error(), nil)
	case errors.Is(err, sales.ErrDuplicateRequest):
		return fail(c, http.StatusConflict, "DUPLICATE_REQUEST", err.Error(), nil)
	case errors.Is(err, sales.ErrCustomerNotFound):
		return fail(c, http.StatusNotFound, "CUSTOMER_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, sales.ErrInvoiceNotFound):
		return fail(c, http.StatusNotFound, "INVOICE_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, sales.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, sales.ErrInvalidStatus), errors.Is(err, sales.ErrOrderClosed):
		return fail(c, http.StatusConflict, "INVALID_STATUS", err.Error(), nil)
	}
	return fail(c, http.StatusInternalServerError, "SALES_ERROR", "Sales operation failed", err.Error())
}

// checkout turns a cart of SKUs into an invoice
// @Summary checkout a cart
// @Tags Sales
// @Param cart body sales.CheckoutRequest true "Cart"
// @Success 201 {object} Response
// @Success 200 {object} Response "replayed request"
// @Router /api/v1/sales/checkout [post]
func checkout(c echo.Context) error {
	var req sales.CheckoutRequest
	if okBind, err := bindValid(c, &req); !okBind {
		return err
	}
	if req.RequestID == "" {
		req.RequestID = strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	}
	res, err := GetAppContext(c).Sales().Checkout(c.Request().Context(), req)
	if err != nil {
		return salesError(c, err)
	}
	if res.Replayed {
		return ok(c, res)
	}
	logOperation(c, "checkout", "invoice "+strconv.FormatInt(res.Invoice.ID, 10))
	return created(c, res)
}

func listInvoices(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := searchLike(GetDB(c).Model(&domain.Invoice{}), c.QueryParam("q"), "customer_name", "customer_phone")
	if cid, err := strconv.ParseInt(c.QueryParam("customer_id"), 10, 64); err == nil && cid > 0 {
		db = db.Where("customer_id = ?", cid)
	}
	if from, err := parseDate(c.QueryParam("from")); err == nil && !from.IsZero() {
		db = db.Where("created_at >= ?", from)
	}
	if to, err := parseDate(c.QueryParam("to")); err == nil && !to.IsZero() {
		db = db.Where("created_at < ?", to)
	}
	if c.QueryParam("unpaid") == "true" {
		db = db.Where("balance_due > 0")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	var rows []domain.Invoice
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query invoices", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getInvoice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	inv, err := GetAppContext(c).Sales().GetInvoice(c.Request().Context(), id)
	if err != nil {
		return salesError(c, err)
	}
	return ok(c, inv)
}

func invoiceReceipt(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	inv, err := GetAppContext(c).Sales().GetInvoice(c.Request().Context(), id)
	if err != nil {
		return salesError(c, err)
	}
	return c.String(http.StatusOK, sales.InvoiceText(inv, GetAppContext(c).Settings().Shop))
}

func emailInvoice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid invoice ID", nil)
	}
	var payload emailPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	if err := GetAppContext(c).Sales().EmailInvoice(c.Request().Context(), id, payload.To); err != nil {
		if errors.Is(err, sales.ErrInvoiceNotFound) {
			return salesError(c, err)
		}
		return fail(c, http.StatusBadGateway, "MAIL_FAILED", "Failed to send invoice", err.Error())
	}
	logOperation(c, "email_invoice", payload.To)
	return c.NoContent(http.StatusNoContent)
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := searchLike(GetDB(c).Model(&domain.Order{}), c.QueryParam("q"), "customer_name", "customer_phone")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	if cid, err := strconv.ParseInt(c.QueryParam("customer_id"), 10, 64); err == nil && cid > 0 {
		db = db.Where("customer_id = ?", cid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	var rows []domain.Order
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

// createOrder books a custom order priced on estimated weights
// @Summary create a custom order
// @Tags Orders
// @Param order body sales.OrderRequest true "Order"
// @Success 201 {object} Response
// @Router /api/v1/sales/orders [post]
func createOrder(c echo.Context) error {
	var req sales.OrderRequest
	if okBind, err := bindValid(c, &req); !okBind {
		return err
	}
	order, err := GetAppContext(c).Sales().CreateOrder(c.Request().Context(), req)
	if err != nil {
		return salesError(c, err)
	}
	logOperation(c, "create_order", strconv.FormatInt(order.ID, 10))
	return created(c, order)
}

func getOrder(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	order, err := GetAppContext(c).Sales().GetOrder(c.Request().Context(), id)
	if err != nil {
		return salesError(c, err)
	}
	return ok(c, order)
}

func updateOrderStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload statusPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	order, err := GetAppContext(c).Sales().UpdateStatus(c.Request().Context(), id, payload.Status)
	if err != nil {
		return salesError(c, err)
	}
	logOperation(c, "order_status", c.Param("id")+" "+payload.Status)
	return ok(c, order)
}

func recordOrderPayment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload paymentPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	order, err := GetAppContext(c).Sales().RecordPayment(c.Request().Context(), id, payload.Amount, payload.Method)
	if err != nil {
		return salesError(c, err)
	}
	logOperation(c, "order_payment", c.Param("id"))
	return ok(c, order)
}
