package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/events"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/pricing"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

// transitions lists the allowed next statuses for each order status
var transitions = map[string][]string{
	domain.OrderPending:    {domain.OrderInProgress, domain.OrderCancelled},
	domain.OrderInProgress: {domain.OrderCompleted, domain.OrderCancelled},
	domain.OrderCompleted:  {},
	domain.OrderCancelled:  {},
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to string) bool {
	return common.InSlice(to, transitions[from])
}

type OrderItemRequest struct {
	Description       string  `json:"description" validate:"required,max=500"`
	MetalType         string  `json:"metal_type" validate:"omitempty,oneof=gold palladium platinum"`
	Karat             string  `json:"karat" validate:"omitempty,oneof=18k 21k 22k 24k"`
	EstimatedWeightG  float64 `json:"estimated_weight_g"`
	WastagePercentage float64 `json:"wastage_percentage"`
	MakingCharges     float64 `json:"making_charges"`
	StoneCharges      float64 `json:"stone_charges"`
	DiamondCharges    float64 `json:"diamond_charges"`
	MiscCharges       float64 `json:"misc_charges"`
	ReferenceSku      string  `json:"reference_sku" validate:"omitempty,max=64"`
	KarigarID         int64   `json:"karigar_id,string"`
}

type OrderRequest struct {
	CustomerID     int64              `json:"customer_id,string"`
	CustomerName   string             `json:"customer_name" validate:"omitempty,max=200"`
	CustomerPhone  string             `json:"customer_phone" validate:"omitempty,max=50"`
	Items          []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	AdvancePayment float64            `json:"advance_payment"`
	Notes          string             `json:"notes" validate:"omitempty,max=500"`
}

// CreateOrder prices the estimated items at current rates and books the order
func (s *Service) CreateOrder(ctx context.Context, req OrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	settings := s.settings.Settings()
	calc := pricing.FromSettings(settings)

	now := time.Now()
	order := domain.Order{
		ID:            common.UUIDint64(),
		CustomerID:    req.CustomerID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Status:        domain.OrderPending,
		RatesApplied:  settings.Rates.Snapshot(),
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	subtotal := decimal.Zero
	for _, it := range req.Items {
		metal := common.IfEmptyStr(it.MetalType, domain.MetalGold)
		b := calc.Price(pricing.Item{
			MetalType:         metal,
			Karat:             it.Karat,
			WeightGrams:       it.EstimatedWeightG,
			WastagePercentage: it.WastagePercentage,
			MakingCharges:     it.MakingCharges,
			StoneCharges:      it.StoneCharges,
			DiamondCharges:    it.DiamondCharges,
			MiscCharges:       it.MiscCharges,
		})
		subtotal = subtotal.Add(b.Total)
		order.Items = append(order.Items, domain.OrderItem{
			ID:                common.UUIDint64(),
			OrderID:           order.ID,
			Description:       strings.TrimSpace(it.Description),
			MetalType:         metal,
			Karat:             it.Karat,
			EstimatedWeightG:  it.EstimatedWeightG,
			WastagePercentage: it.WastagePercentage,
			MakingCharges:     it.MakingCharges,
			StoneCharges:      it.StoneCharges,
			DiamondCharges:    it.DiamondCharges,
			MiscCharges:       it.MiscCharges,
			ReferenceSku:      strings.ToUpper(strings.TrimSpace(it.ReferenceSku)),
			KarigarID:         it.KarigarID,
			TotalEstimate:     pricing.Float(b.Total),
		})
	}
	advance := pricing.Dec(req.AdvancePayment)
	if advance.IsNegative() || advance.GreaterThan(subtotal) {
		return nil, ErrInvalidPayment
	}
	order.Subtotal = pricing.Float(subtotal)
	order.GrandTotal = order.Subtotal
	order.AdvancePayment = pricing.Float(advance)
	order.AmountPaid = order.AdvancePayment
	order.BalanceDue = pricing.Float(subtotal.Sub(advance))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer *domain.Customer
		if req.CustomerID != 0 {
			var err error
			if customer, err = loadCustomer(tx, req.CustomerID); err != nil {
				return err
			}
			order.CustomerName = common.IfEmptyStr(order.CustomerName, customer.Name)
			order.CustomerPhone = common.IfEmptyStr(order.CustomerPhone, customer.Phone)
		}
		if err := tx.Create(&order).Error; err != nil {
			return errors.Wrap(err, "create order")
		}
		if customer != nil && order.GrandTotal != 0 {
			return tx.Create(&domain.HisaabEntry{
				ID:            common.UUIDint64(),
				EntityID:      customer.ID,
				EntityType:    domain.EntityCustomer,
				EntityName:    customer.Name,
				Date:          now,
				Description:   fmt.Sprintf("Order %d", order.ID),
				CashDebit:     order.GrandTotal,
				CashCredit:    order.AdvancePayment,
				LinkedOrderID: order.ID,
				CreatedAt:     now,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(events.OrderUpdated, &order)
	zap.L().Info("order created",
		zap.String("namespace", "sales"),
		zap.Int64("order_id", order.ID),
		zap.Float64("grand_total", order.GrandTotal))
	return &order, nil
}

// GetOrder loads an order with its items
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return getOrder(s.db.WithContext(ctx), id)
}

func getOrder(db *gorm.DB, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := db.Preload("Items").First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "load order")
	}
	return &o, nil
}

// UpdateStatus moves an order through its lifecycle. Cancelling credits the
// outstanding balance back to the customer's hisaab; payments already made stay booked.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = getOrder(tx, id); err != nil {
			return err
		}
		if !CanTransition(order.Status, status) {
			return errors.Wrapf(ErrInvalidStatus, "%s -> %s", order.Status, status)
		}
		now := time.Now()
		if status == domain.OrderCancelled && order.CustomerID != 0 && order.BalanceDue != 0 {
			if err := tx.Create(&domain.HisaabEntry{
				ID:            common.UUIDint64(),
				EntityID:      order.CustomerID,
				EntityType:    domain.EntityCustomer,
				EntityName:    order.CustomerName,
				Date:          now,
				Description:   fmt.Sprintf("Order %d cancelled", order.ID),
				CashCredit:    order.BalanceDue,
				LinkedOrderID: order.ID,
				CreatedAt:     now,
			}).Error; err != nil {
				return errors.Wrap(err, "book cancellation")
			}
		}
		order.Status = status
		order.UpdatedAt = now
		return tx.Model(&domain.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{"status": status, "updated_at": now}).Error
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(events.OrderUpdated, order)
	return order, nil
}

// RecordPayment applies a payment to an order. The balance never goes below zero.
func (s *Service) RecordPayment(ctx context.Context, id int64, amount float64, method string) (*domain.Order, error) {
	pay := pricing.Dec(amount)
	var order *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = getOrder(tx, id); err != nil {
			return err
		}
		if order.Status == domain.OrderCancelled || order.Status == domain.OrderCompleted {
			return errors.Wrap(ErrOrderClosed, order.Status)
		}
		balance := common.Decimal(order.BalanceDue)
		if !pay.IsPositive() || pay.GreaterThan(balance) {
			return errors.Wrapf(ErrInvalidPayment, "balance due %s", balance.StringFixed(2))
		}
		paid := common.Decimal(order.AmountPaid).Add(pay)
		order.AmountPaid = pricing.Float(paid)
		order.BalanceDue = pricing.Float(balance.Sub(pay))
		order.UpdatedAt = time.Now()
		if err := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"amount_paid": order.AmountPaid,
			"balance_due": order.BalanceDue,
			"updated_at":  order.UpdatedAt,
		}).Error; err != nil {
			return errors.Wrap(err, "update order payment")
		}
		if order.CustomerID == 0 {
			return nil
		}
		desc := fmt.Sprintf("Payment for order %d", order.ID)
		if method != "" {
			desc += " (" + method + ")"
		}
		return tx.Create(&domain.HisaabEntry{
			ID:            common.UUIDint64(),
			EntityID:      order.CustomerID,
			EntityType:    domain.EntityCustomer,
			EntityName:    order.CustomerName,
			Date:          order.UpdatedAt,
			Description:   desc,
			CashCredit:    pricing.Float(pay),
			LinkedOrderID: order.ID,
			CreatedAt:     order.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(events.OrderUpdated, order)
	zap.L().Info("order payment recorded",
		zap.String("namespace", "sales"),
		zap.Int64("order_id", order.ID),
		zap.Float64("amount", amount),
		zap.Float64("balance_due", order.BalanceDue))
	return order, nil
}
