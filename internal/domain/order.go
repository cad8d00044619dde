package domain

import "time"

const (
	OrderPending    = "pending"
	OrderInProgress = "in_progress"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// Order is a custom order. Only status and payment progress fields change after creation.
type Order struct {
	ID             int64        `json:"id,string"`
	CustomerID     int64        `gorm:"index" json:"customer_id,string"`
	CustomerName   string       `gorm:"size:200" json:"customer_name"`
	CustomerPhone  string       `gorm:"size:50" json:"customer_phone"`
	Items          []OrderItem  `gorm:"foreignKey:OrderID" json:"items"`
	Subtotal       float64      `json:"subtotal"`
	GrandTotal     float64      `json:"grand_total"`
	AdvancePayment float64      `json:"advance_payment"`
	AmountPaid     float64      `json:"amount_paid"`
	BalanceDue     float64      `json:"balance_due"`
	Status         string       `gorm:"size:20;index" json:"status"`
	RatesApplied   RatesApplied `gorm:"embedded;embeddedPrefix:rate_" json:"rates_applied"`
	Notes          string       `gorm:"size:500" json:"notes"`
	CreatedAt      time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Order) TableName() string {
	return "custom_order"
}

// OrderItem is an estimate for an item still to be made
type OrderItem struct {
	ID                int64   `json:"id,string"`
	OrderID           int64   `gorm:"index" json:"order_id,string"`
	Description       string  `gorm:"size:500" json:"description"`
	MetalType         string  `gorm:"size:16" json:"metal_type"`
	Karat             string  `gorm:"size:8" json:"karat"`
	EstimatedWeightG  float64 `json:"estimated_weight_g"`
	WastagePercentage float64 `json:"wastage_percentage"`
	MakingCharges     float64 `json:"making_charges"`
	StoneCharges      float64 `json:"stone_charges"`
	DiamondCharges    float64 `json:"diamond_charges"`
	MiscCharges       float64 `json:"misc_charges"`
	ReferenceSku      string  `gorm:"size:64" json:"reference_sku"`
	KarigarID         int64   `json:"karigar_id,string"`
	TotalEstimate     float64 `json:"total_estimate"`
}

func (OrderItem) TableName() string {
	return "custom_order_item"
}
