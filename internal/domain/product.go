package domain

import "time"

const (
	MetalGold      = "gold"
	MetalPalladium = "palladium"
	MetalPlatinum  = "platinum"
)

const (
	Karat18 = "18k"
	Karat21 = "21k"
	Karat22 = "22k"
	Karat24 = "24k"
)

var (
	MetalTypes = []string{MetalGold, MetalPalladium, MetalPlatinum}
	Karats     = []string{Karat18, Karat21, Karat22, Karat24}
)

// ProductFields are the physical and commercial attributes of a jewellery item.
// Shared by the live catalog and the sold archive.
type ProductFields struct {
	Sku               string  `gorm:"size:64;uniqueIndex" json:"sku" mapstructure:"sku"`
	Name              string  `gorm:"size:200;index" json:"name" mapstructure:"name"`
	CategoryID        int64   `gorm:"index" json:"category_id,string" mapstructure:"categoryId"`
	MetalType         string  `gorm:"size:16" json:"metal_type" mapstructure:"metalType"`
	Karat             string  `gorm:"size:8" json:"karat" mapstructure:"karat"`
	MetalWeightG      float64 `json:"metal_weight_g" mapstructure:"metalWeightG"`
	WastagePercentage float64 `json:"wastage_percentage" mapstructure:"wastagePercentage"`
	MakingCharges     float64 `json:"making_charges" mapstructure:"makingCharges"`
	HasDiamonds       bool    `json:"has_diamonds" mapstructure:"hasDiamonds"`
	DiamondCharges    float64 `json:"diamond_charges" mapstructure:"diamondCharges"`
	StoneCharges      float64 `json:"stone_charges" mapstructure:"stoneCharges"`
	MiscCharges       float64 `json:"misc_charges" mapstructure:"miscCharges"`
	IsCustomPrice     bool    `json:"is_custom_price" mapstructure:"isCustomPrice"`
	CustomPrice       float64 `json:"custom_price" mapstructure:"customPrice"`
	StoneDetails      string  `gorm:"size:500" json:"stone_details" mapstructure:"stoneDetails"`
	DiamondDetails    string  `gorm:"size:500" json:"diamond_details" mapstructure:"diamondDetails"`
	ImageURL          string  `gorm:"size:1024" json:"image_url" mapstructure:"imageUrl"`
}

// Product is an in-stock catalog item
type Product struct {
	ID            int64 `gorm:"primaryKey" json:"id,string"`
	ProductFields `gorm:"embedded" mapstructure:",squash"`
	CreatedAt     time.Time `json:"created_at" mapstructure:"-"`
	UpdatedAt     time.Time `json:"updated_at" mapstructure:"-"`
}

func (Product) TableName() string {
	return "product"
}

// SoldProduct is the archive row a product is relocated to when it is sold
type SoldProduct struct {
	ID            int64 `gorm:"primaryKey" json:"id,string"`
	ProductFields `gorm:"embedded"`
	InvoiceID     int64     `gorm:"index" json:"invoice_id,string"`
	SoldPrice     float64   `json:"sold_price"`
	SoldAt        time.Time `gorm:"index" json:"sold_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func (SoldProduct) TableName() string {
	return "sold_product"
}

// Category groups products and carries the SKU prefix
type Category struct {
	ID        int64     `json:"id,string" form:"id"`
	Title     string    `gorm:"size:100" json:"title" form:"title"`
	Prefix    string    `gorm:"size:16;uniqueIndex" json:"prefix" form:"prefix"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "category"
}
