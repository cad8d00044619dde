// Package adminapi implements the /api/v1 handlers of the shop back office.
package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/app"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// Response wraps successful payloads
type Response struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta carries pagination details
type Meta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ListResponse documents paged responses
type ListResponse struct {
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Data: data})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Data: data})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, ErrorResponse{Error: code, Message: message, Details: details})
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, Response{Data: data, Meta: &Meta{Total: total, Page: page, PageSize: pageSize}})
}

// parsePagination accepts page with perPage or pageSize
func parsePagination(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("perPage"))
	if size == 0 {
		size, _ = strconv.Atoi(c.QueryParam("pageSize"))
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parseSort returns a whitelisted "column direction" clause
func parseSort(c echo.Context, allowed map[string]string, def string) string {
	col, found := allowed[strings.TrimSpace(c.QueryParam("sort"))]
	if !found {
		col = def
	}
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return col + " " + order
}

// parseDate accepts any common date layout; empty input yields the zero time
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return dateparse.ParseLocal(s)
}

// searchLike adds a case-insensitive substring match over the given columns
func searchLike(db *gorm.DB, q string, columns ...string) *gorm.DB {
	q = strings.TrimSpace(q)
	if q == "" || len(columns) == 0 {
		return db
	}
	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	if strings.EqualFold(db.Name(), "postgres") { //nolint:staticcheck
		for i, col := range columns {
			clauses[i] = col + " ILIKE ?"
			args[i] = "%" + q + "%"
		}
	} else {
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = "%" + strings.ToLower(q) + "%"
		}
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB().WithContext(c.Request().Context())
}

func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", details)
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
}

// bindValid binds and validates the body, writing the error response itself
func bindValid(c echo.Context, v interface{}) (bool, error) {
	if err := c.Bind(v); err != nil {
		return false, fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request parameters", err.Error())
	}
	if err := c.Validate(v); err != nil {
		return false, handleValidationError(c, err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// logOperation appends an operator action to sys_opr_log
func logOperation(c echo.Context, action, desc string) {
	name := ""
	if claims := webserver.CurrentClaims(c); claims != nil {
		name = claims.Username
	}
	entry := domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   name,
		OprIp:     c.RealIP(),
		DeviceID:  c.Request().Header.Get(webserver.HeaderDevice),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := GetDB(c).Create(&entry).Error; err != nil {
		zap.L().Warn("write operation log failed", zap.Error(err), zap.String("namespace", "adminapi"))
	}
}
