// Package pricing computes jewellery item prices from physical attributes and a rate snapshot.
// All arithmetic is decimal; nothing is rounded until presentation.
package pricing

import (
	"strings"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
	"github.com/shopspring/decimal"
)

// Item is the priced attribute set of a product or an order estimate
type Item struct {
	MetalType         string
	Karat             string
	WeightGrams       float64
	WastagePercentage float64
	MakingCharges     float64
	StoneCharges      float64
	DiamondCharges    float64
	MiscCharges       float64
	IsCustomPrice     bool
	CustomPrice       float64
}

// Breakdown is the result of pricing one item
type Breakdown struct {
	RatePerGram    decimal.Decimal `json:"rate_per_gram"`
	MetalCost      decimal.Decimal `json:"metal_cost"`
	WastageCost    decimal.Decimal `json:"wastage_cost"`
	MakingCharges  decimal.Decimal `json:"making_charges"`
	StoneCharges   decimal.Decimal `json:"stone_charges"`
	DiamondCharges decimal.Decimal `json:"diamond_charges"`
	MiscCharges    decimal.Decimal `json:"misc_charges"`
	Total          decimal.Decimal `json:"total"`
	CustomPrice    bool            `json:"custom_price"`
}

// Calculator prices items against one rate snapshot.
// It holds no reference to live settings; callers build one per request.
type Calculator struct {
	rates        domain.RateSettings
	priceNonGold bool
}

func NewCalculator(rates domain.RateSettings, priceNonGoldMetals bool) *Calculator {
	return &Calculator{rates: rates, priceNonGold: priceNonGoldMetals}
}

// FromSettings builds a calculator from a full settings snapshot
func FromSettings(s domain.Settings) *Calculator {
	return NewCalculator(s.Rates, s.Pricing.PriceNonGoldMetals)
}

// RateFor returns the per-gram rate used for metal cost. Non-gold metals resolve to zero
// unless non-gold pricing is enabled.
func (c *Calculator) RateFor(metalType, karat string) decimal.Decimal {
	switch strings.ToLower(strings.TrimSpace(metalType)) {
	case domain.MetalGold:
		return GoldRate(c.rates, karat)
	case domain.MetalPalladium:
		if c.priceNonGold {
			return dec(c.rates.Palladium)
		}
	case domain.MetalPlatinum:
		if c.priceNonGold {
			return dec(c.rates.Platinum)
		}
	}
	return decimal.Zero
}

// GoldRate picks the per-karat gold rate. Unknown karats have no rate.
func GoldRate(r domain.RateSettings, karat string) decimal.Decimal {
	switch strings.ToLower(strings.TrimSpace(karat)) {
	case domain.Karat18:
		return dec(r.Gold18k)
	case domain.Karat21:
		return dec(r.Gold21k)
	case domain.Karat22:
		return dec(r.Gold22k)
	case domain.Karat24:
		return dec(r.Gold24k)
	}
	return decimal.Zero
}

// Price computes the breakdown of one item. A custom price replaces the total
// while the formula components are still reported.
func (c *Calculator) Price(it Item) Breakdown {
	rate := c.RateFor(it.MetalType, it.Karat)
	b := Calculate(Input{
		WeightGrams:       it.WeightGrams,
		RatePerGram:       rate,
		WastagePercentage: it.WastagePercentage,
		MakingCharges:     it.MakingCharges,
		StoneCharges:      it.StoneCharges,
		DiamondCharges:    it.DiamondCharges,
		MiscCharges:       it.MiscCharges,
	})
	if it.IsCustomPrice {
		b.Total = dec(it.CustomPrice)
		b.CustomPrice = true
	}
	return b
}

// PriceProduct prices a catalog product
func (c *Calculator) PriceProduct(p domain.ProductFields) Breakdown {
	return c.Price(ItemOf(p))
}

// ItemOf maps product attributes onto a pricing item
func ItemOf(p domain.ProductFields) Item {
	diamond := p.DiamondCharges
	if !p.HasDiamonds {
		diamond = 0
	}
	return Item{
		MetalType:         p.MetalType,
		Karat:             p.Karat,
		WeightGrams:       p.MetalWeightG,
		WastagePercentage: p.WastagePercentage,
		MakingCharges:     p.MakingCharges,
		StoneCharges:      p.StoneCharges,
		DiamondCharges:    diamond,
		MiscCharges:       p.MiscCharges,
		IsCustomPrice:     p.IsCustomPrice,
		CustomPrice:       p.CustomPrice,
	}
}

// Input is the raw formula contract. RatePerGram is already resolved for the metal.
type Input struct {
	WeightGrams       float64
	RatePerGram       decimal.Decimal
	WastagePercentage float64
	MakingCharges     float64
	StoneCharges      float64
	DiamondCharges    float64
	MiscCharges       float64
}

// Calculate applies the price formula:
//
//	metalCost   = weight * rate
//	wastageCost = metalCost * wastage% / 100
//	total       = metalCost + wastageCost + making + stone + diamond + misc
func Calculate(in Input) Breakdown {
	metal := dec(in.WeightGrams).Mul(in.RatePerGram)
	wastage := metal.Mul(dec(in.WastagePercentage)).Shift(-2)
	b := Breakdown{
		RatePerGram:    in.RatePerGram,
		MetalCost:      metal,
		WastageCost:    wastage,
		MakingCharges:  dec(in.MakingCharges),
		StoneCharges:   dec(in.StoneCharges),
		DiamondCharges: dec(in.DiamondCharges),
		MiscCharges:    dec(in.MiscCharges),
	}
	b.Total = metal.Add(wastage).Add(b.MakingCharges).Add(b.StoneCharges).Add(b.DiamondCharges).Add(b.MiscCharges)
	return b
}

// dec coerces any numeric-like value to a decimal; NaN, Inf and garbage become zero.
func dec(v interface{}) decimal.Decimal {
	return decimal.NewFromFloat(common.ToFloat(v))
}

// Dec is the exported form of the lenient coercion used by callers that carry raw values
func Dec(v interface{}) decimal.Decimal {
	return dec(v)
}
