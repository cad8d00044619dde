package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/catalog"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

type categoryPayload struct {
	Title  string `json:"title" validate:"required,min=1,max=100"`
	Prefix string `json:"prefix" validate:"required,min=1,max=8"`
}

type categoryUpdatePayload struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=100"`
	Prefix *string `json:"prefix" validate:"omitempty,min=1,max=8"`
}

// registerCategoryRoutes registers category CRUD routes
func registerCategoryRoutes() {
	webserver.ApiGET("/catalog/categories", listCategories)
	webserver.ApiGET("/catalog/categories/:id", getCategory)
	webserver.ApiPOST("/catalog/categories", createCategory)
	webserver.ApiPUT("/catalog/categories/:id", updateCategory)
	webserver.ApiDELETE("/catalog/categories/:id", deleteCategory)
	webserver.ApiGET("/catalog/categories/:id/next-sku", nextCategorySku)
}

func listCategories(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := searchLike(GetDB(c).Model(&domain.Category{}), c.QueryParam("q"), "title", "prefix")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	var rows []domain.Category
	if err := db.Order("title ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var cat domain.Category
	if err := GetDB(c).First(&cat, id).Error; isNotFound(err) {
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query category", err.Error())
	}
	return ok(c, cat)
}

func prefixTaken(c echo.Context, prefix string, selfID int64) bool {
	var n int64
	GetDB(c).Model(&domain.Category{}).Where("prefix = ? AND id <> ?", prefix, selfID).Count(&n)
	return n > 0
}

func createCategory(c echo.Context) error {
	var payload categoryPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	prefix, err := catalog.NormalizePrefix(payload.Prefix)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PREFIX", err.Error(), nil)
	}
	if prefixTaken(c, prefix, 0) {
		return fail(c, http.StatusConflict, "PREFIX_EXISTS", "SKU prefix already in use", nil)
	}
	cat := domain.Category{
		ID:     common.UUIDint64(),
		Title:  strings.TrimSpace(payload.Title),
		Prefix: prefix,
	}
	if err := GetDB(c).Create(&cat).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create category", err.Error())
	}
	logOperation(c, "create_category", cat.Title)
	return created(c, cat)
}

func updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var cat domain.Category
	if err := GetDB(c).First(&cat, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found", nil)
	}
	var payload categoryUpdatePayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	if payload.Title != nil {
		cat.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Prefix != nil {
		prefix, err := catalog.NormalizePrefix(*payload.Prefix)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_PREFIX", err.Error(), nil)
		}
		if prefixTaken(c, prefix, cat.ID) {
			return fail(c, http.StatusConflict, "PREFIX_EXISTS", "SKU prefix already in use", nil)
		}
		cat.Prefix = prefix
	}
	cat.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&cat).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update category", err.Error())
	}
	return ok(c, cat)
}

func deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	err = GetAppContext(c).Catalog().DeleteCategory(c.Request().Context(), id)
	if errors.Is(err, catalog.ErrCategoryInUse) {
		return fail(c, http.StatusConflict, "CATEGORY_IN_USE", "Category still has products", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete category", err.Error())
	}
	logOperation(c, "delete_category", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func nextCategorySku(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var cat domain.Category
	if err := GetDB(c).First(&cat, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found", nil)
	}
	sku, err := catalog.GenerateSku(c.Request().Context(), GetAppContext(c).DB(), cat.Prefix)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "SKU_ERROR", "Failed to allocate SKU", err.Error())
	}
	return ok(c, map[string]string{"sku": sku})
}
