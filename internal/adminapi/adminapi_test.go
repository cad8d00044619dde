package adminapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar282828/gemstrack-pos-sub002/config"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/app"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/testutil"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/webserver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testEnv struct {
	t     *testing.T
	app   *app.Application
	srv   *webserver.AdminServer
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := new(config.AppConfig)
	*cfg = *config.DefaultAppConfig
	cfg.System.Workdir = dir
	cfg.Printer.SpoolFile = filepath.Join(dir, "spool.db")
	cfg.Redis.Enabled = false
	cfg.Kafka.Brokers = nil
	cfg.Shopify.Enabled = false
	cfg.Web.LoginRate = 100

	a := app.NewApplication(cfg)
	a.OverrideDB(testutil.NewDB(t))
	require.NoError(t, a.Bootstrap())
	t.Cleanup(a.Release)

	srv := webserver.Init(cfg, webserver.Options{AppContext: a, Devices: a})
	Init()

	var opr domain.SysOpr
	require.NoError(t, a.DB().Where("username = ?", "admin").First(&opr).Error)
	token, err := webserver.CreateToken(cfg.Web.JwtSecret, opr.ID, opr.Username, opr.Level, time.Hour)
	require.NoError(t, err)
	return &testEnv{t: t, app: a, srv: srv, token: token}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if e.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.srv.Echo().ServeHTTP(rec, req)
	return rec
}

// data decodes the "data" member of a success response
func data(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp struct {
		Data jsoniter.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func (e *testEnv) createProduct(sku, karat string, weight, making float64) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/catalog/products", map[string]interface{}{
		"sku":            sku,
		"name":           "Ring " + sku,
		"metal_type":     "gold",
		"karat":          karat,
		"metal_weight_g": weight,
		"making_charges": making,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""
	rec := env.do(http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]interface{}
	data(t, rec, &out)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, false, out["shopify"])

	rec = env.do(http.MethodGet, "/api/v1/settings", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	rec := env.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = env.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "gemstrack"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	data(t, rec, &out)
	require.NotEmpty(t, out.Token)

	env.token = out.Token
	rec = env.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var n int64
	env.app.DB().Model(&domain.SysOprLog{}).Where("opt_action = ?", "login").Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestSettingsRejectNegativeRate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/api/v1/settings", map[string]interface{}{"rates.gold_22k": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NEGATIVE_RATE", errorCode(t, rec))

	rec = env.do(http.MethodPut, "/api/v1/settings", map[string]interface{}{"rates.gold_22k": 20000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 20000.0, env.app.Settings().Rates.Gold22k)
}

func TestProductPricingAndCheckout(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPut, "/api/v1/settings", map[string]interface{}{"rates.gold_22k": 20000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env.createProduct("RNG-001", "22k", 10, 1000)

	rec = env.do(http.MethodGet, "/api/v1/catalog/scan?code=rng-001", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var priced struct {
		Sku   string `json:"sku"`
		Price struct {
			Total float64 `json:"total"`
		} `json:"price"`
	}
	data(t, rec, &priced)
	assert.Equal(t, "RNG-001", priced.Sku)
	assert.Equal(t, 201000.0, priced.Price.Total)

	rec = env.do(http.MethodPost, "/api/v1/parties/customers", map[string]string{"name": "Ayesha", "phone": "0300"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer struct {
		ID string `json:"id"`
	}
	data(t, rec, &customer)

	rec = env.do(http.MethodPost, "/api/v1/sales/checkout", map[string]interface{}{
		"skus":        []string{"RNG-001"},
		"customer_id": customer.ID,
		"discount":    -5000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	cart := map[string]interface{}{
		"request_id":  "till-1-0001",
		"skus":        []string{"RNG-001"},
		"customer_id": customer.ID,
		"amount_paid": 100000,
	}
	rec = env.do(http.MethodPost, "/api/v1/sales/checkout", cart)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res struct {
		Invoice struct {
			GrandTotal float64 `json:"grand_total"`
			BalanceDue float64 `json:"balance_due"`
		} `json:"invoice"`
	}
	data(t, rec, &res)
	assert.Equal(t, 201000.0, res.Invoice.GrandTotal)
	assert.Equal(t, 101000.0, res.Invoice.BalanceDue)

	// same request id replays the stored invoice
	rec = env.do(http.MethodPost, "/api/v1/sales/checkout", cart)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/v1/catalog/scan?code=RNG-001", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/hisaab/customer/"+customer.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st struct {
		FinalCash    float64 `json:"final_cash"`
		CashPosition string  `json:"cash_position"`
		Rows         []interface{} `json:"rows"`
	}
	data(t, rec, &st)
	assert.Equal(t, 101000.0, st.FinalCash)
	assert.Equal(t, "receivable", st.CashPosition)
	assert.Len(t, st.Rows, 1)

	rec = env.do(http.MethodDelete, "/api/v1/parties/customers/"+customer.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHisaabEntries(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/v1/parties/karigars", map[string]string{"name": "Bilal"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var karigar struct {
		ID string `json:"id"`
	}
	data(t, rec, &karigar)

	path := "/api/v1/hisaab/karigar/" + karigar.ID
	rec = env.do(http.MethodPost, path+"/entries", map[string]interface{}{
		"date":             "2024-03-01",
		"description":      "Gold given",
		"gold_debit_grams": 50,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(http.MethodPost, path+"/entries", map[string]interface{}{
		"date":              "2024-03-10",
		"description":       "Pieces returned",
		"gold_credit_grams": 48.5,
		"cash_credit":       3000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(http.MethodPost, path+"/entries", map[string]interface{}{"cash_debit": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, path+"?order=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st struct {
		FinalCash    float64 `json:"final_cash"`
		FinalGold    float64 `json:"final_gold"`
		CashPosition string  `json:"cash_position"`
		GoldPosition string  `json:"gold_position"`
	}
	data(t, rec, &st)
	assert.Equal(t, -3000.0, st.FinalCash)
	assert.Equal(t, "payable", st.CashPosition)
	assert.InDelta(t, 1.5, st.FinalGold, 1e-9)
	assert.Equal(t, "receivable", st.GoldPosition)

	rec = env.do(http.MethodGet, "/api/v1/hisaab/vendor/1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLabelRender(t *testing.T) {
	env := newTestEnv(t)
	env.createProduct("NKL-010", "21k", 12.5, 0)

	rec := env.do(http.MethodGet, "/api/v1/labels/render/nkl-010", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	zpl := rec.Body.String()
	assert.True(t, strings.HasPrefix(zpl, "^XA"))
	assert.Contains(t, zpl, "NKL-010")
	assert.Contains(t, zpl, "^XZ")

	rec = env.do(http.MethodPost, "/api/v1/labels/render", map[string]interface{}{
		"skus":   []string{"NKL-010"},
		"format": "pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = env.do(http.MethodPost, "/api/v1/labels/render", map[string]interface{}{"skus": []string{"NOPE-1"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDefaultLayoutCannotBeDeleted(t *testing.T) {
	env := newTestEnv(t)
	var layout domain.LabelLayout
	require.NoError(t, env.app.DB().Where("is_default = ?", true).First(&layout).Error)

	rec := env.do(http.MethodDelete, "/api/v1/labels/layouts/"+formatID(layout.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DEFAULT_LAYOUT", errorCode(t, rec))
}

func TestPrintTagsQueuesJobWhenPrinterIsDown(t *testing.T) {
	env := newTestEnv(t)
	env.createProduct("BNG-100", "18k", 5, 0)

	rec := env.do(http.MethodPost, "/api/v1/printers", map[string]interface{}{
		"name":      "Counter",
		"transport": "tcp",
		"host":      "127.0.0.1",
		"port":      1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p struct {
		ID string `json:"id"`
	}
	data(t, rec, &p)

	rec = env.do(http.MethodPost, "/api/v1/labels/print", map[string]interface{}{
		"printer_id": p.ID,
		"skus":       []string{"BNG-100"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var job struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Attempts int    `json:"attempts"`
	}
	data(t, rec, &job)
	assert.Equal(t, "pending", job.Status)
	assert.Equal(t, 1, job.Attempts)

	rec = env.do(http.MethodGet, "/api/v1/printer/jobs?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []map[string]interface{}
	data(t, rec, &jobs)
	assert.Len(t, jobs, 1)

	rec = env.do(http.MethodDelete, "/api/v1/printer/jobs/"+job.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSchedulersAndShopify(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/system/schedulers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []domain.SysScheduler
	data(t, rec, &rows)
	require.Len(t, rows, 3)

	for _, s := range rows {
		if s.TaskType != domain.TaskShopifySync {
			continue
		}
		rec = env.do(http.MethodPost, "/api/v1/system/schedulers/"+formatID(s.ID)+"/run", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out domain.SysScheduler
		data(t, rec, &out)
		assert.Equal(t, "shopify sync disabled", out.LastMessage)
	}

	rec = env.do(http.MethodPost, "/api/v1/system/schedulers", map[string]interface{}{
		"name": "Backup", "task_type": "backup", "interval": 60,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/shopify/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SHOPIFY_DISABLED", errorCode(t, rec))
}

func TestOperatorRoutesNeedSuper(t *testing.T) {
	env := newTestEnv(t)
	token, err := webserver.CreateToken(env.app.Config().Web.JwtSecret, 7, "clerk", "opr", time.Hour)
	require.NoError(t, err)
	env.token = token

	rec := env.do(http.MethodGet, "/api/v1/system/operators", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/settings", map[string]interface{}{"shop.name": "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
