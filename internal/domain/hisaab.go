package domain

import "time"

// HisaabEntry is one immutable ledger transaction between the shop and a customer or karigar.
// Debits increase what the counterparty owes; credits decrease it.
type HisaabEntry struct {
	ID              int64     `json:"id,string"`
	EntityID        int64     `gorm:"index:idx_hisaab_entity" json:"entity_id,string"`
	EntityType      string    `gorm:"size:16;index:idx_hisaab_entity" json:"entity_type"`
	EntityName      string    `gorm:"size:200" json:"entity_name"`
	Date            time.Time `gorm:"index" json:"date"`
	Description     string    `gorm:"size:500" json:"description"`
	CashDebit       float64   `json:"cash_debit"`
	CashCredit      float64   `json:"cash_credit"`
	GoldDebitGrams  float64   `json:"gold_debit_grams"`
	GoldCreditGrams float64   `json:"gold_credit_grams"`
	LinkedInvoiceID int64     `gorm:"index" json:"linked_invoice_id,string,omitempty"`
	LinkedOrderID   int64     `gorm:"index" json:"linked_order_id,string,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (HisaabEntry) TableName() string {
	return "hisaab_entry"
}
