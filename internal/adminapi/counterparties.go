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

type partyPayload struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"omitempty,max=500"`
	Notes   string `json:"notes" validate:"omitempty,max=1000"`
}

// party describes one counterparty table. Customers and karigars share a shape.
type party struct {
	entityType string
	label      string
	model      func() interface{}
	rows       func() interface{}
	build      func(id int64, p partyPayload) interface{}
}

var (
	customers = party{
		entityType: domain.EntityCustomer,
		label:      "Customer",
		model:      func() interface{} { return &domain.Customer{} },
		rows:       func() interface{} { return &[]domain.Customer{} },
		build: func(id int64, p partyPayload) interface{} {
			return &domain.Customer{ID: id, Name: p.Name, Phone: p.Phone, Email: p.Email, Address: p.Address, Notes: p.Notes}
		},
	}
	karigars = party{
		entityType: domain.EntityKarigar,
		label:      "Karigar",
		model:      func() interface{} { return &domain.Karigar{} },
		rows:       func() interface{} { return &[]domain.Karigar{} },
		build: func(id int64, p partyPayload) interface{} {
			return &domain.Karigar{ID: id, Name: p.Name, Phone: p.Phone, Email: p.Email, Address: p.Address, Notes: p.Notes}
		},
	}
)

func registerCounterpartyRoutes() {
	for path, p := range map[string]party{"/parties/customers": customers, "/parties/karigars": karigars} {
		webserver.ApiGET(path, p.list)
		webserver.ApiGET(path+"/:id", p.get)
		webserver.ApiPOST(path, p.create)
		webserver.ApiPUT(path+"/:id", p.update)
		webserver.ApiDELETE(path+"/:id", p.delete)
	}
}

func (p party) code() string {
	return strings.ToUpper(p.entityType)
}

func (p party) find(db *gorm.DB, id int64) (interface{}, error) {
	row := p.model()
	if err := db.First(row, id).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (p party) list(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := searchLike(GetDB(c).Model(p.model()), c.QueryParam("q"), "name", "phone")

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query "+p.entityType+"s", err.Error())
	}
	rows := p.rows()
	if err := db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query "+p.entityType+"s", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func (p party) get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+p.entityType+" ID", nil)
	}
	row, err := p.find(GetDB(c), id)
	if isNotFound(err) {
		return fail(c, http.StatusNotFound, p.code()+"_NOT_FOUND", p.label+" not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query "+p.entityType, err.Error())
	}
	return ok(c, row)
}

func (p party) phoneTaken(c echo.Context, phone string, selfID int64) bool {
	if phone == "" {
		return false
	}
	var n int64
	GetDB(c).Model(p.model()).Where("phone = ? AND id <> ?", phone, selfID).Count(&n)
	return n > 0
}

func (p party) create(c echo.Context) error {
	var payload partyPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Phone = strings.TrimSpace(payload.Phone)
	if p.phoneTaken(c, payload.Phone, 0) {
		return fail(c, http.StatusConflict, "DUPLICATE_"+p.code(), p.label+" with this phone already exists", nil)
	}
	row := p.build(common.UUIDint64(), payload)
	if err := GetDB(c).Create(row).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create "+p.entityType, err.Error())
	}
	logOperation(c, "create_"+p.entityType, payload.Name)
	return created(c, row)
}

func (p party) update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+p.entityType+" ID", nil)
	}
	row, err := p.find(GetDB(c), id)
	if err != nil {
		return fail(c, http.StatusNotFound, p.code()+"_NOT_FOUND", p.label+" not found", nil)
	}
	var payload partyPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Phone = strings.TrimSpace(payload.Phone)
	if p.phoneTaken(c, payload.Phone, id) {
		return fail(c, http.StatusConflict, "DUPLICATE_"+p.code(), p.label+" with this phone already exists", nil)
	}
	err = GetDB(c).Model(row).Updates(map[string]interface{}{
		"name":       payload.Name,
		"phone":      payload.Phone,
		"email":      payload.Email,
		"address":    payload.Address,
		"notes":      payload.Notes,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update "+p.entityType, err.Error())
	}
	// ledger rows carry the name for display
	GetDB(c).Model(&domain.HisaabEntry{}).
		Where("entity_type = ? AND entity_id = ?", p.entityType, id).
		Update("entity_name", payload.Name)

	row, _ = p.find(GetDB(c), id)
	return ok(c, row)
}

func (p party) delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+p.entityType+" ID", nil)
	}
	if _, err := p.find(GetDB(c), id); err != nil {
		return fail(c, http.StatusNotFound, p.code()+"_NOT_FOUND", p.label+" not found", nil)
	}
	var n int64
	GetDB(c).Model(&domain.HisaabEntry{}).Where("entity_type = ? AND entity_id = ?", p.entityType, id).Count(&n)
	if n > 0 {
		return fail(c, http.StatusConflict, "HAS_HISAAB", p.label+" has ledger entries", map[string]int64{"entries": n})
	}
	if err := GetDB(c).Where("id = ?", id).Delete(p.model()).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete "+p.entityType, err.Error())
	}
	logOperation(c, "delete_"+p.entityType, c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// lookupParty returns the display name of a counterparty
func lookupParty(db *gorm.DB, entityType string, id int64) (string, error) {
	var name string
	var err error
	switch entityType {
	case domain.EntityCustomer:
		var row domain.Customer
		err = db.First(&row, id).Error
		name = row.Name
	case domain.EntityKarigar:
		var row domain.Karigar
		err = db.First(&row, id).Error
		name = row.Name
	default:
		return "", gorm.ErrRecordNotFound
	}
	return name, err
}
