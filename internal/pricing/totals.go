package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Totals summarises a cart or an order
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

// CartTotals sums item totals and applies a flat discount and a payment.
// The discount is capped at the subtotal so the grand total never goes negative.
// Negative discounts and payments count as zero.
func CartTotals(items []Breakdown, discount, paid float64) Totals {
	subtotal := decimal.Zero
	for _, b := range items {
		subtotal = subtotal.Add(b.Total)
	}
	d := nonNegative(dec(discount))
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	grand := subtotal.Sub(d)
	p := nonNegative(dec(paid))
	return Totals{
		Subtotal:   subtotal,
		Discount:   d,
		GrandTotal: grand,
		AmountPaid: p,
		BalanceDue: grand.Sub(p),
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ItemFromMap builds an item from loosely typed input such as a decoded JSON body.
// Missing or unparsable numbers become zero.
func ItemFromMap(m map[string]interface{}) Item {
	return Item{
		MetalType:         cast.ToString(m["metal_type"]),
		Karat:             cast.ToString(m["karat"]),
		WeightGrams:       dec(m["metal_weight_g"]).InexactFloat64(),
		WastagePercentage: dec(m["wastage_percentage"]).InexactFloat64(),
		MakingCharges:     dec(m["making_charges"]).InexactFloat64(),
		StoneCharges:      dec(m["stone_charges"]).InexactFloat64(),
		DiamondCharges:    dec(m["diamond_charges"]).InexactFloat64(),
		MiscCharges:       dec(m["misc_charges"]).InexactFloat64(),
		IsCustomPrice:     cast.ToBool(m["is_custom_price"]),
		CustomPrice:       dec(m["custom_price"]).InexactFloat64(),
	}
}

// Float returns a float for persistence columns
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
