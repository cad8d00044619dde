package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/hisaab"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/reports"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type hisaabEntryPayload struct {
	Date            string  `json:"date"`
	Description     string  `json:"description" validate:"omitempty,max=500"`
	CashDebit       float64 `json:"cash_debit" validate:"min=0"`
	CashCredit      float64 `json:"cash_credit" validate:"min=0"`
	GoldDebitGrams  float64 `json:"gold_debit_grams" validate:"min=0"`
	GoldCreditGrams float64 `json:"gold_credit_grams" validate:"min=0"`
}

type statementView struct {
	EntityID     int64           `json:"entity_id,string"`
	EntityType   string          `json:"entity_type"`
	EntityName   string          `json:"entity_name"`
	Rows         []hisaab.Row    `json:"rows"`
	FinalCash    decimal.Decimal `json:"final_cash"`
	FinalGold    decimal.Decimal `json:"final_gold"`
	CashPosition string          `json:"cash_position"`
	GoldPosition string          `json:"gold_position"`
}

// entityRef identifies the counterparty of a ledger request
type entityRef struct {
	typ  string
	id   int64
	name string
}

func registerHisaabRoutes() {
	webserver.ApiGET("/hisaab/overview", hisaabOverview)
	webserver.ApiGET("/hisaab/overview/export", exportHisaabOverview)
	webserver.ApiGET("/hisaab/:type/:id", hisaabStatement)
	webserver.ApiGET("/hisaab/:type/:id/export", exportHisaabStatement)
	webserver.ApiPOST("/hisaab/:type/:id/entries", addHisaabEntry)
	webserver.ApiDELETE("/hisaab/entries/:id", deleteHisaabEntry)
}

// entityParams resolves :type and :id. When found is false the error response was written.
func entityParams(c echo.Context) (ref entityRef, found bool, err error) {
	ref.typ = strings.ToLower(strings.TrimSpace(c.Param("type")))
	if ref.typ != domain.EntityCustomer && ref.typ != domain.EntityKarigar {
		return ref, false, fail(c, http.StatusBadRequest, "INVALID_ENTITY_TYPE", "Entity type must be customer or karigar", nil)
	}
	ref.id, err = parseIDParam(c, "id")
	if err != nil {
		return ref, false, fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid entity ID", nil)
	}
	ref.name, err = lookupParty(GetDB(c), ref.typ, ref.id)
	if isNotFound(err) {
		return ref, false, fail(c, http.StatusNotFound, "ENTITY_NOT_FOUND", "Counterparty not found", nil)
	} else if err != nil {
		return ref, false, fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query counterparty", err.Error())
	}
	return ref, true, nil
}

func loadStatement(c echo.Context, ref entityRef) (hisaab.Statement, error) {
	var entries []domain.HisaabEntry
	if err := GetDB(c).Where("entity_type = ? AND entity_id = ?", ref.typ, ref.id).Find(&entries).Error; err != nil {
		return hisaab.Statement{}, err
	}
	return hisaab.Aggregate(entries), nil
}

// hisaabStatement returns the ledger with running balances
// @Summary get a counterparty statement
// @Tags Hisaab
// @Param type path string true "customer or karigar"
// @Param id path string true "Entity ID"
// @Param order query string false "asc or desc (default)"
// @Success 200 {object} Response
// @Router /api/v1/hisaab/{type}/{id} [get]
func hisaabStatement(c echo.Context) error {
	ref, found, err := entityParams(c)
	if !found {
		return err
	}
	st, err := loadStatement(c, ref)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query hisaab", err.Error())
	}
	rows := st.NewestFirst()
	if strings.EqualFold(c.QueryParam("order"), "asc") {
		rows = st.Rows
	}
	return ok(c, statementView{
		EntityID:     ref.id,
		EntityType:   ref.typ,
		EntityName:   ref.name,
		Rows:         rows,
		FinalCash:    st.FinalCash,
		FinalGold:    st.FinalGold,
		CashPosition: hisaab.Position(st.FinalCash),
		GoldPosition: hisaab.Position(st.FinalGold),
	})
}

func exportHisaabStatement(c echo.Context) error {
	ref, found, err := entityParams(c)
	if !found {
		return err
	}
	st, err := loadStatement(c, ref)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query hisaab", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="hisaab-`+ref.typ+`-`+c.Param("id")+`.xlsx"`)
	c.Response().WriteHeader(http.StatusOK)
	return reports.WriteStatement(c.Response(), ref.name, st)
}

func loadOverview(c echo.Context) (hisaab.Overview, error) {
	var entries []domain.HisaabEntry
	if err := GetDB(c).Find(&entries).Error; err != nil {
		return hisaab.Overview{}, err
	}
	return hisaab.BuildOverview(entries), nil
}

func hisaabOverview(c echo.Context) error {
	ov, err := loadOverview(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query hisaab", err.Error())
	}
	return ok(c, ov)
}

func exportHisaabOverview(c echo.Context) error {
	ov, err := loadOverview(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query hisaab", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="hisaab-overview.xlsx"`)
	c.Response().WriteHeader(http.StatusOK)
	return reports.WriteOverview(c.Response(), ov)
}

// addHisaabEntry appends a manual ledger transaction
// @Summary add a hisaab entry
// @Tags Hisaab
// @Param type path string true "customer or karigar"
// @Param id path string true "Entity ID"
// @Param entry body hisaabEntryPayload true "Entry"
// @Success 201 {object} Response
// @Router /api/v1/hisaab/{type}/{id}/entries [post]
func addHisaabEntry(c echo.Context) error {
	ref, found, err := entityParams(c)
	if !found {
		return err
	}
	var payload hisaabEntryPayload
	if okBind, err := bindValid(c, &payload); !okBind {
		return err
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date", err.Error())
	}
	if date.IsZero() {
		date = time.Now()
	}
	entry := domain.HisaabEntry{
		ID:              common.UUIDint64(),
		EntityID:        ref.id,
		EntityType:      ref.typ,
		EntityName:      ref.name,
		Date:            date,
		Description:     strings.TrimSpace(payload.Description),
		CashDebit:       payload.CashDebit,
		CashCredit:      payload.CashCredit,
		GoldDebitGrams:  payload.GoldDebitGrams,
		GoldCreditGrams: payload.GoldCreditGrams,
	}
	if err := GetDB(c).Create(&entry).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to add hisaab entry", err.Error())
	}
	logOperation(c, "add_hisaab", ref.typ+" "+ref.name)
	return created(c, entry)
}

func deleteHisaabEntry(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid entry ID", nil)
	}
	var entry domain.HisaabEntry
	if err := GetDB(c).First(&entry, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "ENTRY_NOT_FOUND", "Hisaab entry not found", nil)
	}
	if err := GetDB(c).Delete(&entry).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete hisaab entry", err.Error())
	}
	logOperation(c, "delete_hisaab", entry.EntityType+" "+entry.EntityName)
	return c.NoContent(http.StatusNoContent)
}
