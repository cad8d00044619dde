package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

type loginPayload struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type operatorPayload struct {
	Realname string `json:"realname" validate:"omitempty,max=100"`
	Mobile   string `json:"mobile" validate:"omitempty,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"omitempty,min=6,max=128"`
	Level    string `json:"level" validate:"omitempty,oneof=super opr"`
	Status   string `json:"status" validate:"omitempty,oneof=enabled disabled"`
	Remark   string `json:"remark" validate:"omitempty,max=500"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/auth/login", login)
	webserver.ApiPOST("/auth/logout", logout)
	webserver.ApiGET("/auth/me", currentOperator)

	webserver.ApiGET("/system/operators", listOperators, requireSuper)
	webserver.ApiPOST("/system/operators", createOperator, requireSuper)
	webserver.ApiPUT("/system/operators/:id", updateOperator, requireSuper)
	webserver.ApiDELETE("/system/operators/:id", deleteOperator, requireSuper)
}

// requireSuper limits a route to super operators
func requireSuper(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := webserver.CurrentClaims(c)
		if claims == nil || claims.Level != "super" {
			return fail(c, http.StatusForbidden, "FORBIDDEN", "Super operator required", nil)
		}
		return next(c)
	}
}

// login issues a token for valid operator credentials
// @Summary operator login
// @Tags Auth
// @Param credentials body loginPayload true "Credentials"
// @Success 200 {object} Response
// @Router /api/v1/auth/login [post]
func login(c echo.Context) error {
	var payload loginPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}

	var opr domain.SysOpr
	err := GetDB(c).Where("username = ?", strings.TrimSpace(payload.Username)).First(&opr).Error
	if err != nil || !common.CheckPassword(opr.Password, payload.Password) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}
	if opr.Status != common.ENABLED {
		return fail(c, http.StatusForbidden, "OPERATOR_DISABLED", "Operator is disabled", nil)
	}

	cfg := GetAppContext(c).Config()
	token, err := webserver.CreateToken(cfg.Web.JwtSecret, opr.ID, opr.Username, opr.Level, webserver.TokenTTL)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}
	_ = webserver.SaveSession(c, opr.Username, c.Request().Header.Get(webserver.HeaderDevice))
	GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", time.Now())

	entry := domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   opr.Username,
		OprIp:     c.RealIP(),
		DeviceID:  c.Request().Header.Get(webserver.HeaderDevice),
		OptAction: "login",
		OptDesc:   "operator logged in",
		OptTime:   time.Now(),
	}
	GetDB(c).Create(&entry)

	return ok(c, map[string]interface{}{
		"token":      token,
		"expires_in": int(webserver.TokenTTL.Seconds()),
		"operator":   opr,
	})
}

func logout(c echo.Context) error {
	_ = webserver.ClearSession(c)
	logOperation(c, "logout", "operator logged out")
	return c.NoContent(http.StatusNoContent)
}

func currentOperator(c echo.Context) error {
	claims := webserver.CurrentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not logged in", nil)
	}
	var opr domain.SysOpr
	if err := GetDB(c).Where("username = ?", claims.Username).First(&opr).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Operator not found", nil)
	}
	return ok(c, opr)
}

func listOperators(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := searchLike(GetDB(c).Model(&domain.SysOpr{}), c.QueryParam("q"), "username", "realname")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operators", err.Error())
	}
	var rows []domain.SysOpr
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operators", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func createOperator(c echo.Context) error {
	var payload operatorPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	if payload.Password == "" {
		return fail(c, http.StatusBadRequest, "MISSING_PASSWORD", "Password is required", nil)
	}
	var count int64
	GetDB(c).Model(&domain.SysOpr{}).Where("username = ?", payload.Username).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "USERNAME_EXISTS", "Username already exists", nil)
	}
	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", err.Error())
	}
	opr := domain.SysOpr{
		ID:       common.UUIDint64(),
		Realname: payload.Realname,
		Mobile:   payload.Mobile,
		Email:    payload.Email,
		Username: payload.Username,
		Password: hashed,
		Level:    common.IfEmptyStr(payload.Level, "opr"),
		Status:   common.IfEmptyStr(payload.Status, common.ENABLED),
		Remark:   payload.Remark,
	}
	if err := GetDB(c).Create(&opr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create operator", err.Error())
	}
	logOperation(c, "create_operator", opr.Username)
	return created(c, opr)
}

func updateOperator(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid operator ID", nil)
	}
	var opr domain.SysOpr
	if err := GetDB(c).First(&opr, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Operator not found", nil)
	}
	var payload operatorPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	updates := map[string]interface{}{
		"realname":   payload.Realname,
		"mobile":     payload.Mobile,
		"email":      payload.Email,
		"remark":     payload.Remark,
		"updated_at": time.Now(),
	}
	if payload.Level != "" {
		updates["level"] = payload.Level
	}
	if payload.Status != "" {
		updates["status"] = payload.Status
	}
	if payload.Password != "" {
		hashed, err := common.HashPassword(payload.Password)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", err.Error())
		}
		updates["password"] = hashed
	}
	if err := GetDB(c).Model(&opr).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update operator", err.Error())
	}
	GetDB(c).First(&opr, id)
	logOperation(c, "update_operator", opr.Username)
	return ok(c, opr)
}

func deleteOperator(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid operator ID", nil)
	}
	var opr domain.SysOpr
	if err := GetDB(c).First(&opr, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Operator not found", nil)
	}
	if claims := webserver.CurrentClaims(c); claims != nil && claims.Username == opr.Username {
		return fail(c, http.StatusConflict, "SELF_DELETE", "Cannot delete the logged in operator", nil)
	}
	if err := GetDB(c).Delete(&opr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete operator", err.Error())
	}
	logOperation(c, "delete_operator", opr.Username)
	return c.NoContent(http.StatusNoContent)
}
