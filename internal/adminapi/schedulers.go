package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/app"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

// schedulerPayload represents the scheduler request structure
type schedulerPayload struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	TaskType string `json:"task_type" validate:"required,oneof=shopify_sync print_retry printer_probe"`
	Interval int    `json:"interval" validate:"required,min=10"`
	Status   string `json:"status" validate:"omitempty,oneof=enabled disabled"`
	Config   string `json:"config" validate:"omitempty,max=2000"`
	Remark   string `json:"remark" validate:"omitempty,max=500"`
}

// schedulerUpdatePayload relaxes validation rules for partial updates
type schedulerUpdatePayload struct {
	Name     string `json:"name" validate:"omitempty,min=1,max=100"`
	TaskType string `json:"task_type" validate:"omitempty,oneof=shopify_sync print_retry printer_probe"`
	Interval int    `json:"interval" validate:"omitempty,min=10"`
	Status   string `json:"status" validate:"omitempty,oneof=enabled disabled"`
	Config   string `json:"config" validate:"omitempty,max=2000"`
	Remark   string `json:"remark" validate:"omitempty,max=500"`
}

var schedulerSorts = map[string]string{
	"id":          "id",
	"name":        "name",
	"task_type":   "task_type",
	"next_run_at": "next_run_at",
	"last_run_at": "last_run_at",
}

// registerSchedulerRoutes registers scheduler API routes
func registerSchedulerRoutes() {
	webserver.ApiGET("/system/schedulers", ListSchedulers)
	webserver.ApiGET("/system/schedulers/:id", GetScheduler)
	webserver.ApiPOST("/system/schedulers", CreateScheduler, requireSuper)
	webserver.ApiPUT("/system/schedulers/:id", UpdateScheduler, requireSuper)
	webserver.ApiDELETE("/system/schedulers/:id", DeleteScheduler, requireSuper)
	webserver.ApiPOST("/system/schedulers/:id/run", TriggerScheduler)
}

// TriggerScheduler runs the task immediately and returns the refreshed row
// @Summary run a scheduler now
// @Tags Schedulers
// @Param id path string true "Scheduler ID"
// @Success 200 {object} domain.SysScheduler
// @Router /api/v1/system/schedulers/{id}/run [post]
func TriggerScheduler(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}

	if err := GetAppContext(c).RunSchedulerNow(id); err != nil {
		if errors.Is(err, app.ErrSchedulerNotFound) {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Scheduler not found", nil)
		}
		return fail(c, http.StatusInternalServerError, "RUN_FAILED", "Failed to run scheduler", err.Error())
	}

	var scheduler domain.SysScheduler
	GetDB(c).First(&scheduler, id)
	return ok(c, scheduler)
}

// ListSchedulers retrieves the scheduler list
// @Summary get the scheduler list
// @Tags Schedulers
// @Param page query int false "Page number"
// @Param perPage query int false "Items per page"
// @Param sort query string false "Sort field"
// @Param order query string false "Sort direction"
// @Param name query string false "Scheduler name"
// @Param status query string false "Scheduler status"
// @Param task_type query string false "Task type"
// @Success 200 {object} ListResponse
// @Router /api/v1/system/schedulers [get]
func ListSchedulers(c echo.Context) error {
	page, pageSize := parsePagination(c)
	query := GetDB(c).Model(&domain.SysScheduler{})
	query = searchLike(query, c.QueryParam("name"), "name")

	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if taskType := strings.TrimSpace(c.QueryParam("task_type")); taskType != "" {
		query = query.Where("task_type = ?", taskType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query schedulers", err.Error())
	}
	var schedulers []domain.SysScheduler
	err := query.Order(parseSort(c, schedulerSorts, "id DESC")).
		Limit(pageSize).Offset((page - 1) * pageSize).Find(&schedulers).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query schedulers", err.Error())
	}
	return paged(c, schedulers, total, page, pageSize)
}

// GetScheduler fetches a single scheduler
// @Summary get scheduler detail
// @Tags Schedulers
// @Param id path string true "Scheduler ID"
// @Success 200 {object} domain.SysScheduler
// @Router /api/v1/system/schedulers/{id} [get]
func GetScheduler(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}

	var scheduler domain.SysScheduler
	if err := GetDB(c).First(&scheduler, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Scheduler not found", nil)
	}
	return ok(c, scheduler)
}

// CreateScheduler creates a scheduler
// @Summary create a scheduler
// @Tags Schedulers
// @Param scheduler body schedulerPayload true "Scheduler information"
// @Success 201 {object} domain.SysScheduler
// @Router /api/v1/system/schedulers [post]
func CreateScheduler(c echo.Context) error {
	var payload schedulerPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}

	var count int64
	GetDB(c).Model(&domain.SysScheduler{}).Where("name = ?", payload.Name).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "NAME_EXISTS", "Scheduler name already exists", nil)
	}

	scheduler := domain.SysScheduler{
		ID:        common.UUIDint64(),
		Name:      payload.Name,
		TaskType:  payload.TaskType,
		Interval:  payload.Interval,
		Status:    common.IfEmptyStr(payload.Status, common.ENABLED),
		Config:    payload.Config,
		Remark:    payload.Remark,
		NextRunAt: time.Now().Add(time.Duration(payload.Interval) * time.Second),
	}
	if err := GetDB(c).Create(&scheduler).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create scheduler", err.Error())
	}
	return created(c, scheduler)
}

// UpdateScheduler updates a scheduler
// @Summary update a scheduler
// @Tags Schedulers
// @Param id path string true "Scheduler ID"
// @Param scheduler body schedulerUpdatePayload true "Scheduler information"
// @Success 200 {object} domain.SysScheduler
// @Router /api/v1/system/schedulers/{id} [put]
func UpdateScheduler(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}

	var scheduler domain.SysScheduler
	if err := GetDB(c).First(&scheduler, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Scheduler not found", nil)
	}

	var payload schedulerUpdatePayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}

	if payload.Name != "" && payload.Name != scheduler.Name {
		var count int64
		GetDB(c).Model(&domain.SysScheduler{}).Where("name = ? AND id != ?", payload.Name, id).Count(&count)
		if count > 0 {
			return fail(c, http.StatusConflict, "NAME_EXISTS", "Scheduler name already exists", nil)
		}
	}

	updates := make(map[string]interface{})
	if payload.Name != "" {
		updates["name"] = payload.Name
	}
	if payload.TaskType != "" {
		updates["task_type"] = payload.TaskType
	}
	if payload.Interval > 0 {
		updates["interval"] = payload.Interval
		updates["next_run_at"] = time.Now().Add(time.Duration(payload.Interval) * time.Second)
	}
	if payload.Status != "" {
		updates["status"] = payload.Status
	}
	if payload.Config != "" {
		updates["config"] = payload.Config
	}
	if payload.Remark != "" {
		updates["remark"] = payload.Remark
	}

	if len(updates) > 0 {
		if err := GetDB(c).Model(&scheduler).Updates(updates).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update scheduler", err.Error())
		}
	}

	GetDB(c).First(&scheduler, id)
	return ok(c, scheduler)
}

// DeleteScheduler deletes a scheduler
// @Summary delete a scheduler
// @Tags Schedulers
// @Param id path string true "Scheduler ID"
// @Success 204 "No Content"
// @Router /api/v1/system/schedulers/{id} [delete]
func DeleteScheduler(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid scheduler ID", nil)
	}

	var scheduler domain.SysScheduler
	if err := GetDB(c).First(&scheduler, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Scheduler not found", nil)
	}
	if err := GetDB(c).Delete(&scheduler).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete scheduler", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
