package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/labels"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/printer"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

type printerPayload struct {
	Name          string `json:"name" validate:"required,min=1,max=100"`
	Transport     string `json:"transport" validate:"required,oneof=tcp sftp"`
	Host          string `json:"host" validate:"required,max=128"`
	Port          int    `json:"port" validate:"min=0,max=65535"`
	Username      string `json:"username" validate:"max=64"`
	Password      string `json:"password" validate:"max=128"`
	RemoteDir     string `json:"remote_dir" validate:"max=255"`
	SnmpCommunity string `json:"snmp_community" validate:"max=64"`
	Status        string `json:"status" validate:"omitempty,oneof=enabled disabled"`
}

func (p printerPayload) apply(dst *domain.Printer) {
	dst.Name = strings.TrimSpace(p.Name)
	dst.Transport = p.Transport
	dst.Host = strings.TrimSpace(p.Host)
	dst.Port = p.Port
	dst.Username = p.Username
	// an empty password on update keeps the stored one
	if p.Password != "" {
		dst.Password = p.Password
	}
	dst.RemoteDir = p.RemoteDir
	dst.SnmpCommunity = p.SnmpCommunity
	dst.Status = common.IfEmptyStr(p.Status, common.ENABLED)
}

func registerPrinterRoutes() {
	webserver.ApiGET("/printers", listPrinters)
	webserver.ApiGET("/printers/:id", getPrinter)
	webserver.ApiPOST("/printers", createPrinter)
	webserver.ApiPUT("/printers/:id", updatePrinter)
	webserver.ApiDELETE("/printers/:id", deletePrinter)
	webserver.ApiPOST("/printers/:id/probe", probePrinter)

	webserver.ApiPOST("/labels/print", printTags)

	webserver.ApiGET("/printer/jobs", listPrintJobs)
	webserver.ApiGET("/printer/jobs/:id", getPrintJob)
	webserver.ApiPOST("/printer/jobs/:id/retry", retryPrintJob)
	webserver.ApiDELETE("/printer/jobs/:id", deletePrintJob)
}

func printerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, printer.ErrPrinterNotFound):
		return fail(c, http.StatusNotFound, "PRINTER_NOT_FOUND", "Printer not found", nil)
	case errors.Is(err, printer.ErrPrinterDisabled):
		return fail(c, http.StatusConflict, "PRINTER_DISABLED", "Printer is disabled", nil)
	case errors.Is(err, printer.ErrUnknownTransport):
		return fail(c, http.StatusBadRequest, "UNKNOWN_TRANSPORT", err.Error(), nil)
	case errors.Is(err, printer.ErrJobNotFound):
		return fail(c, http.StatusNotFound, "JOB_NOT_FOUND", "Print job not found", nil)
	}
	return fail(c, http.StatusInternalServerError, "PRINTER_ERROR", "Printer operation failed", err.Error())
}

// listPrinters returns configured tag printers
// @Summary list printers
// @Tags Printer
// @Param q query string false "Name or host"
// @Success 200 {object} ListResponse
// @Router /api/v1/printers [get]
func listPrinters(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c).Model(&domain.Printer{})
	db = searchLike(db, c.QueryParam("q"), "name", "host")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query printers", err.Error())
	}
	var rows []domain.Printer
	if err := db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query printers", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getPrinter(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid printer ID", nil)
	}
	var p domain.Printer
	if err := GetDB(c).First(&p, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "PRINTER_NOT_FOUND", "Printer not found", nil)
	}
	return ok(c, p)
}

func createPrinter(c echo.Context) error {
	var payload printerPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	p := domain.Printer{ID: common.UUIDint64()}
	payload.apply(&p)
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create printer", err.Error())
	}
	logOperation(c, "printer_create", "created printer "+p.Name)
	return created(c, p)
}

func updatePrinter(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid printer ID", nil)
	}
	var p domain.Printer
	if err := GetDB(c).First(&p, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "PRINTER_NOT_FOUND", "Printer not found", nil)
	}
	var payload printerPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	payload.apply(&p)
	p.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update printer", err.Error())
	}
	return ok(c, p)
}

func deletePrinter(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid printer ID", nil)
	}
	res := GetDB(c).Where("id = ?", id).Delete(&domain.Printer{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete printer", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "PRINTER_NOT_FOUND", "Printer not found", nil)
	}
	zap.L().Info("printer deleted", zap.Int64("id", id), zap.String("namespace", "adminapi"))
	return c.NoContent(http.StatusNoContent)
}

// probePrinter reads printer status over SNMP
// @Summary probe printer
// @Tags Printer
// @Param id path string true "Printer ID"
// @Success 200 {object} domain.Printer
// @Router /api/v1/printers/{id}/probe [post]
func probePrinter(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid printer ID", nil)
	}
	p, err := GetAppContext(c).Printer().Probe(c.Request().Context(), id)
	if err != nil {
		return printerError(c, err)
	}
	return ok(c, p)
}

// printTags renders tags and queues them on a printer
// @Summary print product tags
// @Tags Printer
// @Param request body printPayload true "Printer, SKUs and layout"
// @Success 201 {object} printer.Job
// @Router /api/v1/labels/print [post]
func printTags(c echo.Context) error {
	var req printPayload
	if okBind, err := bindValid(c, &req); !okBind {
		return err
	}
	layout, err := loadLayout(c, req.LayoutID)
	if err != nil {
		return fail(c, http.StatusNotFound, "LAYOUT_NOT_FOUND", "Layout not found", err.Error())
	}
	entities, err := tagEntities(c, req.Skus, req.Extra)
	if err != nil {
		return catalogError(c, err)
	}
	svc := GetAppContext(c).Printer()
	var job *printer.Job
	if req.Format == formatPDF {
		job, err = submitPDF(c, svc, req.PrinterID, layout, entities)
	} else {
		job, err = svc.PrintTags(c.Request().Context(), req.PrinterID, layout, entities)
	}
	if err != nil {
		return printerError(c, err)
	}
	// a job that failed delivery stays pending in the spool
	logOperation(c, "print_tags", strings.Join(req.Skus, ","))
	return created(c, stripPayload(*job))
}

func submitPDF(c echo.Context, svc *printer.Service, printerID int64, l labels.Layout, entities []map[string]interface{}) (*printer.Job, error) {
	var buf strings.Builder
	if err := labels.RenderPDF(&buf, l, entities, labels.PDFOptions{Logo: fetchLogo(c)}); err != nil {
		return nil, err
	}
	name := "tags-" + time.Now().Format("20060102150405") + ".pdf"
	return svc.Submit(c.Request().Context(), printerID, printer.FormatPDF, name, []byte(buf.String()))
}

func stripPayload(j printer.Job) printer.Job {
	j.Payload = nil
	return j
}

func listPrintJobs(c echo.Context) error {
	jobs, err := GetAppContext(c).Printer().Spool().List(c.QueryParam("status"))
	if err != nil {
		return printerError(c, err)
	}
	for i := range jobs {
		jobs[i].Payload = nil
	}
	return ok(c, jobs)
}

func getPrintJob(c echo.Context) error {
	job, err := GetAppContext(c).Printer().Spool().Get(c.Param("id"))
	if err != nil {
		return printerError(c, err)
	}
	return ok(c, stripPayload(*job))
}

func retryPrintJob(c echo.Context) error {
	job, err := GetAppContext(c).Printer().Retry(c.Request().Context(), c.Param("id"))
	if err != nil {
		return printerError(c, err)
	}
	return ok(c, stripPayload(*job))
}

func deletePrintJob(c echo.Context) error {
	spool := GetAppContext(c).Printer().Spool()
	if _, err := spool.Get(c.Param("id")); err != nil {
		return printerError(c, err)
	}
	if err := spool.Delete(c.Param("id")); err != nil {
		return printerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
