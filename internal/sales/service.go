// Package sales turns carts into invoices and tracks custom orders, recording
// customer balances in the hisaab ledger.
package sales

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/catalog"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/events"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/pricing"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/metrics"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrDuplicateItem    = errors.New("sku appears more than once in cart")
	ErrDuplicateRequest = errors.New("request is already being processed")
	ErrInvalidStatus    = errors.New("invalid order status transition")
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInvalidPayment   = errors.New("payment must be positive and not exceed the balance due")
	ErrOrderClosed      = errors.New("order is closed")
	ErrNegativeAmount   = errors.New("discount and amount paid must not be negative")
)

// SettingsSource provides the current settings snapshot
type SettingsSource interface {
	Settings() domain.Settings
}

// StockNotifier is told which SKUs left stock
type StockNotifier interface {
	MarkSold(skus ...string)
}

type Service struct {
	db       *gorm.DB
	settings SettingsSource
	pub      events.Publisher
	idem     Idempotency
	stock    StockNotifier
	mailer   Mailer
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.pub = p } }

func WithIdempotency(i Idempotency) Option { return func(s *Service) { s.idem = i } }

func WithStockNotifier(n StockNotifier) Option { return func(s *Service) { s.stock = n } }

func WithMailer(m Mailer) Option { return func(s *Service) { s.mailer = m } }

func NewService(db *gorm.DB, settings SettingsSource, opts ...Option) *Service {
	s := &Service{db: db, settings: settings, pub: events.Nop{}}
	for _, o := range opts {
		o(s)
	}
	if s.idem == nil {
		s.idem = NewDBIdempotency(db)
	}
	return s
}

// CheckoutRequest is a cart ready to be invoiced
type CheckoutRequest struct {
	RequestID     string   `json:"request_id" validate:"omitempty,max=64"`
	Skus          []string `json:"skus" validate:"required,min=1,dive,required"`
	CustomerID    int64    `json:"customer_id,string"`
	CustomerName  string   `json:"customer_name" validate:"omitempty,max=200"`
	CustomerPhone string   `json:"customer_phone" validate:"omitempty,max=50"`
	Discount      float64  `json:"discount" validate:"min=0"`
	AmountPaid    float64  `json:"amount_paid" validate:"min=0"`
	PaymentMethod string   `json:"payment_method" validate:"omitempty,max=50"`
	Notes         string   `json:"notes" validate:"omitempty,max=500"`
}

// CheckoutResult carries the invoice and whether it is a replay of an earlier request
type CheckoutResult struct {
	Invoice  *domain.Invoice `json:"invoice"`
	Replayed bool            `json:"replayed"`
}

// Checkout prices the cart at current rates and, in one transaction, writes the invoice,
// moves the products to the sold archive and books any balance to the customer's hisaab.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	skus, err := normalizeCart(req.Skus)
	if err != nil {
		return nil, err
	}
	if req.Discount < 0 || req.AmountPaid < 0 || math.IsNaN(req.Discount) || math.IsNaN(req.AmountPaid) {
		return nil, ErrNegativeAmount
	}

	if req.RequestID != "" {
		prior, err := s.idem.Begin(ctx, req.RequestID)
		if err != nil {
			return nil, err
		}
		if prior != 0 {
			inv, err := s.GetInvoice(ctx, prior)
			if err != nil {
				return nil, err
			}
			zap.L().Info("checkout replayed",
				zap.String("namespace", "sales"),
				zap.String("request_id", req.RequestID),
				zap.Int64("invoice_id", prior))
			return &CheckoutResult{Invoice: inv, Replayed: true}, nil
		}
	}

	settings := s.settings.Settings()
	calc := pricing.FromSettings(settings)

	var inv domain.Invoice
	var sold []domain.Product
	var customer *domain.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if req.CustomerID != 0 {
			if customer, err = loadCustomer(tx, req.CustomerID); err != nil {
				return err
			}
		}

		breakdowns := make([]pricing.Breakdown, 0, len(skus))
		items := make([]domain.InvoiceItem, 0, len(skus))
		for _, sku := range skus {
			p, err := catalog.FindBySku(tx, sku)
			if err != nil {
				return err
			}
			b := calc.PriceProduct(p.ProductFields)
			breakdowns = append(breakdowns, b)
			items = append(items, invoiceItem(*p, b))
			sold = append(sold, *p)
		}
		totals := pricing.CartTotals(breakdowns, req.Discount, req.AmountPaid)

		now := time.Now()
		inv = domain.Invoice{
			ID:             common.UUIDint64(),
			RequestID:      req.RequestID,
			CustomerID:     req.CustomerID,
			CustomerName:   strings.TrimSpace(req.CustomerName),
			CustomerPhone:  strings.TrimSpace(req.CustomerPhone),
			Items:          items,
			Subtotal:       pricing.Float(totals.Subtotal),
			DiscountAmount: pricing.Float(totals.Discount),
			GrandTotal:     pricing.Float(totals.GrandTotal),
			AmountPaid:     pricing.Float(totals.AmountPaid),
			BalanceDue:     pricing.Float(totals.BalanceDue),
			PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
			RatesApplied:   settings.Rates.Snapshot(),
			Notes:          req.Notes,
			CreatedAt:      now,
		}
		if customer != nil {
			inv.CustomerName = common.IfEmptyStr(inv.CustomerName, customer.Name)
			inv.CustomerPhone = common.IfEmptyStr(inv.CustomerPhone, customer.Phone)
		}
		for i := range inv.Items {
			inv.Items[i].ID = common.UUIDint64()
			inv.Items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&inv).Error; err != nil {
			return errors.Wrap(err, "create invoice")
		}

		for i, p := range sold {
			archived := domain.SoldProduct{
				ID:            p.ID,
				ProductFields: p.ProductFields,
				InvoiceID:     inv.ID,
				SoldPrice:     inv.Items[i].ItemTotal,
				SoldAt:        now,
				CreatedAt:     now,
			}
			if err := tx.Create(&archived).Error; err != nil {
				return errors.Wrapf(err, "archive %s", p.Sku)
			}
			if err := tx.Delete(&domain.Product{}, p.ID).Error; err != nil {
				return errors.Wrapf(err, "remove %s from stock", p.Sku)
			}
		}

		if customer != nil && !totals.BalanceDue.IsZero() {
			entry := domain.HisaabEntry{
				ID:              common.UUIDint64(),
				EntityID:        customer.ID,
				EntityType:      domain.EntityCustomer,
				EntityName:      customer.Name,
				Date:            now,
				Description:     fmt.Sprintf("Invoice %d", inv.ID),
				CashDebit:       inv.GrandTotal,
				CashCredit:      inv.AmountPaid,
				LinkedInvoiceID: inv.ID,
				CreatedAt:       now,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return errors.Wrap(err, "book invoice to hisaab")
			}
		}
		return nil
	})
	if err != nil {
		if req.RequestID != "" {
			s.idem.Abort(ctx, req.RequestID)
		}
		zap.L().Warn("checkout failed", zap.String("namespace", "sales"), zap.Strings("skus", skus), zap.Error(err))
		return nil, err
	}
	if req.RequestID != "" {
		if err := s.idem.Complete(ctx, req.RequestID, inv.ID); err != nil {
			zap.L().Error("idempotency complete failed", zap.String("namespace", "sales"), zap.Error(err))
		}
	}

	s.afterCheckout(&inv, sold, customer, settings)
	return &CheckoutResult{Invoice: &inv}, nil
}

func (s *Service) afterCheckout(inv *domain.Invoice, sold []domain.Product, customer *domain.Customer, settings domain.Settings) {
	skus := make([]string, 0, len(sold))
	for _, p := range sold {
		skus = append(skus, p.Sku)
		s.pub.Publish(events.ProductSold, p)
	}
	if s.stock != nil {
		s.stock.MarkSold(skus...)
	}
	s.pub.Publish(events.InvoiceCreated, inv)

	_ = metrics.Record("sales_revenue", inv.GrandTotal, inv.CreatedAt)
	_ = metrics.Record("sales_items", float64(len(inv.Items)), inv.CreatedAt)

	zap.L().Info("invoice created",
		zap.String("namespace", "sales"),
		zap.Int64("invoice_id", inv.ID),
		zap.Int("items", len(inv.Items)),
		zap.Float64("grand_total", inv.GrandTotal),
		zap.Float64("balance_due", inv.BalanceDue))

	if s.mailer != nil && customer != nil && customer.Email != "" {
		go func() {
			defer func() {
				if err := recover(); err != nil {
					zap.S().Error(err)
				}
			}()
			if err := s.mailer.SendInvoice(inv, settings.Shop, customer.Email); err != nil {
				zap.L().Warn("invoice mail failed", zap.String("namespace", "sales"), zap.Int64("invoice_id", inv.ID), zap.Error(err))
			}
		}()
	}
}

func normalizeCart(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, ErrEmptyCart
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		sku := catalog.NormalizeScan(raw)
		if sku == "" {
			continue
		}
		if _, ok := seen[sku]; ok {
			return nil, errors.Wrap(ErrDuplicateItem, sku)
		}
		seen[sku] = struct{}{}
		out = append(out, sku)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCart
	}
	return out, nil
}

func invoiceItem(p domain.Product, b pricing.Breakdown) domain.InvoiceItem {
	return domain.InvoiceItem{
		Sku:               p.Sku,
		Name:              p.Name,
		CategoryID:        p.CategoryID,
		MetalType:         p.MetalType,
		Karat:             p.Karat,
		MetalWeightG:      p.MetalWeightG,
		WastagePercentage: p.WastagePercentage,
		RatePerGram:       pricing.Float(b.RatePerGram),
		MetalCost:         pricing.Float(b.MetalCost),
		WastageCost:       pricing.Float(b.WastageCost),
		MakingCharges:     pricing.Float(b.MakingCharges),
		StoneCharges:      pricing.Float(b.StoneCharges),
		DiamondCharges:    pricing.Float(b.DiamondCharges),
		MiscCharges:       pricing.Float(b.MiscCharges),
		ItemTotal:         pricing.Float(b.Total),
	}
}

func loadCustomer(db *gorm.DB, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, errors.Wrap(err, "load customer")
	}
	return &c, nil
}

// GetInvoice loads an invoice with its items
func (s *Service) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := s.db.WithContext(ctx).Preload("Items").First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, errors.Wrap(err, "load invoice")
	}
	return &inv, nil
}

// EmailInvoice sends an existing invoice to an address
func (s *Service) EmailInvoice(ctx context.Context, id int64, to string) error {
	if s.mailer == nil {
		return errors.New("mail is not configured")
	}
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	return s.mailer.SendInvoice(inv, s.settings.Settings().Shop, to)
}
