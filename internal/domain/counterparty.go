package domain

import "time"

const (
	EntityCustomer = "customer"
	EntityKarigar  = "karigar"
)

// Customer buys from the shop
type Customer struct {
	ID        int64     `json:"id,string" form:"id"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Phone     string    `gorm:"index" json:"phone" form:"phone"`
	Email     string    `json:"email" form:"email"`
	Address   string    `json:"address" form:"address"`
	Notes     string    `json:"notes" form:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customer"
}

// Karigar is an artisan supplier tracked through a ledger
type Karigar struct {
	ID        int64     `json:"id,string" form:"id"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Phone     string    `gorm:"index" json:"phone" form:"phone"`
	Email     string    `json:"email" form:"email"`
	Address   string    `json:"address" form:"address"`
	Notes     string    `json:"notes" form:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Karigar) TableName() string {
	return "karigar"
}
