package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

// TableInfo is the row count of one application table
type TableInfo struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

type devicePayload struct {
	DeviceID string `json:"device_id" validate:"required,min=1,max=128"`
	Name     string `json:"name" validate:"max=100"`
	Status   string `json:"status" validate:"omitempty,oneof=enabled disabled"`
}

func registerSystemRoutes() {
	webserver.ApiGET("/health", health)
	webserver.ApiGET("/system/tables", listTables, requireSuper)
	webserver.ApiGET("/system/oprlogs", listOprLogs, requireSuper)

	webserver.ApiGET("/system/devices", listDevices)
	webserver.ApiPOST("/system/devices", createDevice, requireSuper)
	webserver.ApiPUT("/system/devices/:id", updateDevice, requireSuper)
	webserver.ApiDELETE("/system/devices/:id", deleteDevice, requireSuper)
}

// health reports database reachability
// @Summary health check
// @Tags System
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/health [get]
func health(c echo.Context) error {
	status := "ok"
	sqlDB, err := GetDB(c).DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		status = "degraded"
	}
	return ok(c, map[string]interface{}{
		"status":   status,
		"database": GetDB(c).Dialector.Name(),
		"shopify":  GetAppContext(c).Shopify() != nil,
		"time":     time.Now(),
	})
}

func tableName(db *gorm.DB, model interface{}) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return ""
	}
	return stmt.Schema.Table
}

func listTables(c echo.Context) error {
	db := GetDB(c)
	tables := make([]TableInfo, 0, len(domain.Tables))
	for _, t := range domain.Tables {
		var count int64
		if err := db.Model(t).Count(&count).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count rows", err.Error())
		}
		tables = append(tables, TableInfo{Name: tableName(db, t), RowCount: count})
	}
	return ok(c, tables)
}

// listOprLogs pages the operator audit trail
// @Summary list operation logs
// @Tags System
// @Param opr_name query string false "Operator"
// @Param action query string false "Action"
// @Param from query string false "Start date"
// @Param to query string false "End date"
// @Success 200 {object} ListResponse
// @Router /api/v1/system/oprlogs [get]
func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c).Model(&domain.SysOprLog{})
	if name := strings.TrimSpace(c.QueryParam("opr_name")); name != "" {
		db = db.Where("opr_name = ?", name)
	}
	if action := strings.TrimSpace(c.QueryParam("action")); action != "" {
		db = db.Where("opt_action = ?", action)
	}
	from, err := parseDate(c.QueryParam("from"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Invalid from date", err.Error())
	}
	to, err := parseDate(c.QueryParam("to"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Invalid to date", err.Error())
	}
	if !from.IsZero() {
		db = db.Where("opt_time >= ?", from)
	}
	if !to.IsZero() {
		db = db.Where("opt_time < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query logs", err.Error())
	}
	var rows []domain.SysOprLog
	if err := db.Order("opt_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query logs", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func listDevices(c echo.Context) error {
	var rows []domain.SysDevice
	if err := GetDB(c).Order("name ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query devices", err.Error())
	}
	return ok(c, rows)
}

// createDevice registers a terminal on the allow-list
func createDevice(c echo.Context) error {
	var payload devicePayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	deviceID := strings.TrimSpace(payload.DeviceID)
	var n int64
	GetDB(c).Model(&domain.SysDevice{}).Where("device_id = ?", deviceID).Count(&n)
	if n > 0 {
		return fail(c, http.StatusConflict, "DEVICE_EXISTS", "Device already registered", nil)
	}
	d := domain.SysDevice{
		ID:       common.UUIDint64(),
		DeviceID: deviceID,
		Name:     strings.TrimSpace(payload.Name),
		Status:   common.IfEmptyStr(payload.Status, common.ENABLED),
	}
	if err := GetDB(c).Create(&d).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to register device", err.Error())
	}
	logOperation(c, "device_create", "registered device "+d.DeviceID)
	return created(c, d)
}

func updateDevice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid device ID", nil)
	}
	var d domain.SysDevice
	if err := GetDB(c).First(&d, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "DEVICE_NOT_FOUND", "Device not found", nil)
	}
	var payload devicePayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	d.DeviceID = strings.TrimSpace(payload.DeviceID)
	d.Name = strings.TrimSpace(payload.Name)
	d.Status = common.IfEmptyStr(payload.Status, d.Status)
	if err := GetDB(c).Save(&d).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update device", err.Error())
	}
	return ok(c, d)
}

func deleteDevice(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid device ID", nil)
	}
	res := GetDB(c).Where("id = ?", id).Delete(&domain.SysDevice{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete device", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "DEVICE_NOT_FOUND", "Device not found", nil)
	}
	logOperation(c, "device_delete", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
