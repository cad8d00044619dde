package sales

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/catalog"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/events"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/hisaab"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/testutil"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

type staticSettings domain.Settings

func (s staticSettings) Settings() domain.Settings { return domain.Settings(s) }

var shopSettings = staticSettings{
	Shop:  domain.ShopSettings{Name: "Test Jewellers"},
	Rates: domain.RateSettings{Gold18k: 15000, Gold21k: 18000, Gold22k: 20000, Gold24k: 22000, Platinum: 9000},
}

type recorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *recorder) Publish(topic string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

type soldSkus struct{ skus []string }

func (s *soldSkus) MarkSold(skus ...string) { s.skus = append(s.skus, skus...) }

func seedProduct(t *testing.T, db *gorm.DB, sku string, weight, making float64) domain.Product {
	p := domain.Product{ID: common.UUIDint64(), ProductFields: domain.ProductFields{
		Sku: sku, Name: "Item " + sku, MetalType: domain.MetalGold, Karat: domain.Karat22,
		MetalWeightG: weight, WastagePercentage: 5, MakingCharges: making,
	}}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedCustomer(t *testing.T, db *gorm.DB) domain.Customer {
	c := domain.Customer{ID: common.UUIDint64(), Name: "Ayesha", Phone: "0300"}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func ledgerOf(t *testing.T, db *gorm.DB, customerID int64) hisaab.Statement {
	var entries []domain.HisaabEntry
	require.NoError(t, db.Where("entity_id = ?", customerID).Find(&entries).Error)
	return hisaab.Aggregate(entries)
}

func TestCheckoutArchivesAndBooksBalance(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	rec := &recorder{}
	stock := &soldSkus{}
	svc := NewService(db, shopSettings, WithPublisher(rec), WithStockNotifier(stock))

	p1 := seedProduct(t, db, "RIN-000001", 10, 500)
	seedProduct(t, db, "RIN-000002", 2, 100)
	cust := seedCustomer(t, db)

	res, err := svc.Checkout(ctx, CheckoutRequest{
		Skus:       []string{"rin-000001", "RIN-000002"},
		CustomerID: cust.ID,
		Discount:   600,
		AmountPaid: 200000,
	})
	require.NoError(t, err)
	inv := res.Invoice
	assert.False(t, res.Replayed)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, 210500.0, inv.Items[0].ItemTotal)
	assert.Equal(t, 42100.0, inv.Items[1].ItemTotal)
	assert.Equal(t, 252600.0, inv.Subtotal)
	assert.Equal(t, 252000.0, inv.GrandTotal)
	assert.Equal(t, 52000.0, inv.BalanceDue)
	assert.Equal(t, "Ayesha", inv.CustomerName)
	assert.Equal(t, 20000.0, inv.RatesApplied.GoldRate22k)

	var inStock int64
	db.Model(&domain.Product{}).Count(&inStock)
	assert.Zero(t, inStock)
	var archived domain.SoldProduct
	require.NoError(t, db.First(&archived, p1.ID).Error)
	assert.Equal(t, inv.ID, archived.InvoiceID)
	assert.Equal(t, 210500.0, archived.SoldPrice)

	st := ledgerOf(t, db, cust.ID)
	require.Len(t, st.Rows, 1)
	assert.Equal(t, "52000", st.FinalCash.String())
	assert.Equal(t, inv.ID, st.Rows[0].LinkedInvoiceID)

	assert.ElementsMatch(t, []string{"RIN-000001", "RIN-000002"}, stock.skus)
	assert.Contains(t, rec.topics, events.InvoiceCreated)
	assert.Contains(t, rec.topics, events.ProductSold)

	loaded, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 2)
}

func TestCheckoutFullyPaidSkipsLedger(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db, shopSettings)
	seedProduct(t, db, "EAR-000001", 1, 0)
	cust := seedCustomer(t, db)

	_, err := svc.Checkout(ctx, CheckoutRequest{Skus: []string{"EAR-000001"}, CustomerID: cust.ID, AmountPaid: 21000})
	require.NoError(t, err)
	assert.Empty(t, ledgerOf(t, db, cust.ID).Rows)
}

func TestCheckoutRejectsBadCarts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db, shopSettings)
	seedProduct(t, db, "RIN-000001", 1, 0)

	_, err := svc.Checkout(ctx, CheckoutRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.Checkout(ctx, CheckoutRequest{Skus: []string{"RIN-000001", "rin-000001"}})
	assert.ErrorIs(t, err, ErrDuplicateItem)

	_, err = svc.Checkout(ctx, CheckoutRequest{Skus: []string{"RIN-000001", "NOPE-1"}})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	// the failed transaction left stock untouched
	var n int64
	db.Model(&domain.Product{}).Count(&n)
	assert.Equal(t, int64(1), n)

	_, err = svc.Checkout(ctx, CheckoutRequest{Skus: []string{"RIN-000001"}, CustomerID: 42})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.Checkout(ctx, CheckoutRequest{Skus: []string{"RIN-000001"}})
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, CheckoutRequest{Skus: []string{"RIN-000001"}})
	assert.ErrorIs(t, err, catalog.ErrProductSold)
}

func TestCheckoutIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db, shopSettings)
	seedProduct(t, db, "NEC-000001", 3, 0)

	req := CheckoutRequest{RequestID: "req-1", Skus: []string{"NEC-000001"}}
	first, err := svc.Checkout(ctx, req)
	require.NoError(t, err)
	second, err := svc.Checkout(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Invoice.ID, second.Invoice.ID)

	var count int64
	db.Model(&domain.Invoice{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDBIdempotencyInFlight(t *testing.T) {
	ctx := context.Background()
	idem := NewDBIdempotency(testutil.NewDB(t))
	id, err := idem.Begin(ctx, "abc")
	require.NoError(t, err)
	assert.Zero(t, id)
	_, err = idem.Begin(ctx, "abc")
	assert.True(t, errors.Is(err, ErrDuplicateRequest))
	idem.Abort(ctx, "abc")
	_, err = idem.Begin(ctx, "abc")
	assert.NoError(t, err)
}

func TestCheckoutRejectsNegativeAmounts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	cust := seedCustomer(t, db)
	svc := NewService(db, shopSettings)
	seedProduct(t, db, "RIN-000001", 1, 0)

	_, err := svc.Checkout(ctx, CheckoutRequest{Skus: []string{"RIN-000001"}, CustomerID: cust.ID, Discount: -5000})
	assert.ErrorIs(t, err, ErrNegativeAmount)
	_, err = svc.Checkout(ctx, CheckoutRequest{Skus: []string{"RIN-000001"}, CustomerID: cust.ID, AmountPaid: -1})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	var n int64
	require.NoError(t, db.Model(&domain.Product{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, ledgerOf(t, db, cust.ID).Rows)
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db, shopSettings)
	cust := seedCustomer(t, db)

	order, err := svc.CreateOrder(ctx, OrderRequest{
		CustomerID: cust.ID,
		Items: []OrderItemRequest{
			{Description: "Bridal set", Karat: "22k", EstimatedWeightG: 10, WastagePercentage: 5, MakingCharges: 500},
		},
		AdvancePayment: 100000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, 210500.0, order.GrandTotal)
	assert.Equal(t, 110500.0, order.BalanceDue)

	_, err = svc.UpdateStatus(ctx, order.ID, domain.OrderCompleted)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	order, err = svc.UpdateStatus(ctx, order.ID, domain.OrderInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInProgress, order.Status)

	_, err = svc.RecordPayment(ctx, order.ID, 200000, "cash")
	assert.ErrorIs(t, err, ErrInvalidPayment)
	_, err = svc.RecordPayment(ctx, order.ID, -5, "cash")
	assert.ErrorIs(t, err, ErrInvalidPayment)

	order, err = svc.RecordPayment(ctx, order.ID, 110500, "card")
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.BalanceDue)
	assert.Equal(t, 210500.0, order.AmountPaid)

	order, err = svc.UpdateStatus(ctx, order.ID, domain.OrderCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, order.Status)
	_, err = svc.RecordPayment(ctx, order.ID, 1, "cash")
	assert.ErrorIs(t, err, ErrOrderClosed)

	st := ledgerOf(t, db, cust.ID)
	assert.Len(t, st.Rows, 2)
	assert.True(t, st.FinalCash.IsZero())
}

func TestOrderCancelCreditsOutstanding(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db, shopSettings)
	cust := seedCustomer(t, db)

	order, err := svc.CreateOrder(ctx, OrderRequest{
		CustomerID:     cust.ID,
		Items:          []OrderItemRequest{{Description: "Ring", Karat: "18k", EstimatedWeightG: 2}},
		AdvancePayment: 10000,
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, domain.OrderCancelled)
	require.NoError(t, err)
	assert.True(t, ledgerOf(t, db, cust.ID).FinalCash.IsZero())

	_, err = svc.RecordPayment(ctx, order.ID, 1, "cash")
	assert.ErrorIs(t, err, ErrOrderClosed)

	_, err = svc.CreateOrder(ctx, OrderRequest{Items: []OrderItemRequest{{Description: "x", EstimatedWeightG: 1, Karat: "18k"}}, AdvancePayment: 999999})
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(domain.OrderPending, domain.OrderInProgress))
	assert.True(t, CanTransition(domain.OrderPending, domain.OrderCancelled))
	assert.True(t, CanTransition(domain.OrderInProgress, domain.OrderCancelled))
	assert.False(t, CanTransition(domain.OrderCompleted, domain.OrderCancelled))
	assert.False(t, CanTransition(domain.OrderCancelled, domain.OrderPending))
	assert.False(t, CanTransition("bogus", domain.OrderPending))
}

func TestInvoiceText(t *testing.T) {
	inv := &domain.Invoice{ID: 9, GrandTotal: 210500, Subtotal: 210500, BalanceDue: 500, AmountPaid: 210000,
		Items: []domain.InvoiceItem{{Sku: "RIN-000001", Name: "Ring", MetalWeightG: 10, ItemTotal: 210500}}}
	out := InvoiceText(inv, domain.ShopSettings{Name: "Test Jewellers", InvoiceFooter: "Thank you"})
	assert.Contains(t, out, "Test Jewellers")
	assert.Contains(t, out, "210,500.00")
	assert.Contains(t, out, "10.000g")
	assert.Contains(t, out, "Thank you")
}
