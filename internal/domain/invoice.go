package domain

import "time"

// RatesApplied is the rate snapshot frozen into invoices and orders
type RatesApplied struct {
	GoldRate18k   float64 `json:"gold_rate_18k"`
	GoldRate21k   float64 `json:"gold_rate_21k"`
	GoldRate22k   float64 `json:"gold_rate_22k"`
	GoldRate24k   float64 `json:"gold_rate_24k"`
	PalladiumRate float64 `json:"palladium_rate"`
	PlatinumRate  float64 `json:"platinum_rate"`
}

// Invoice is immutable after creation
type Invoice struct {
	ID             int64         `json:"id,string"`
	RequestID      string        `gorm:"size:64;index" json:"request_id,omitempty"`
	CustomerID     int64         `gorm:"index" json:"customer_id,string"`
	CustomerName   string        `gorm:"size:200" json:"customer_name"`
	CustomerPhone  string        `gorm:"size:50" json:"customer_phone"`
	Items          []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
	Subtotal       float64       `json:"subtotal"`
	DiscountAmount float64       `json:"discount_amount"`
	GrandTotal     float64       `json:"grand_total"`
	AmountPaid     float64       `json:"amount_paid"`
	BalanceDue     float64       `json:"balance_due"`
	PaymentMethod  string        `gorm:"size:50" json:"payment_method"`
	RatesApplied   RatesApplied  `gorm:"embedded;embeddedPrefix:rate_" json:"rates_applied"`
	Notes          string        `gorm:"size:500" json:"notes"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
}

func (Invoice) TableName() string {
	return "invoice"
}

// InvoiceItem is the priced snapshot of one sold product
type InvoiceItem struct {
	ID                int64   `json:"id,string"`
	InvoiceID         int64   `gorm:"index" json:"invoice_id,string"`
	Sku               string  `gorm:"size:64;index" json:"sku"`
	Name              string  `gorm:"size:200" json:"name"`
	CategoryID        int64   `json:"category_id,string"`
	MetalType         string  `gorm:"size:16" json:"metal_type"`
	Karat             string  `gorm:"size:8" json:"karat"`
	MetalWeightG      float64 `json:"metal_weight_g"`
	WastagePercentage float64 `json:"wastage_percentage"`
	RatePerGram       float64 `json:"rate_per_gram"`
	MetalCost         float64 `json:"metal_cost"`
	WastageCost       float64 `json:"wastage_cost"`
	MakingCharges     float64 `json:"making_charges"`
	StoneCharges      float64 `json:"stone_charges"`
	DiamondCharges    float64 `json:"diamond_charges"`
	MiscCharges       float64 `json:"misc_charges"`
	ItemTotal         float64 `json:"item_total"`
}

func (InvoiceItem) TableName() string {
	return "invoice_item"
}
