package pricing

import (
	"math"
	"testing"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRates = domain.RateSettings{
	Gold18k:   16000,
	Gold21k:   18500,
	Gold22k:   20000,
	Gold24k:   21800,
	Palladium: 9000,
	Platinum:  11000,
}

func TestCalculateGoldExample(t *testing.T) {
	calc := NewCalculator(testRates, false)
	b := calc.Price(Item{
		MetalType:         domain.MetalGold,
		Karat:             domain.Karat22,
		WeightGrams:       10,
		WastagePercentage: 5,
		MakingCharges:     500,
	})
	assert.True(t, b.MetalCost.Equal(decimal.NewFromInt(200000)), b.MetalCost.String())
	assert.True(t, b.WastageCost.Equal(decimal.NewFromInt(10000)), b.WastageCost.String())
	assert.True(t, b.Total.Equal(decimal.NewFromInt(210500)), b.Total.String())
}

func TestCalculateDeterministic(t *testing.T) {
	in := Input{
		WeightGrams:       7.385,
		RatePerGram:       decimal.NewFromFloat(18500.75),
		WastagePercentage: 8.5,
		MakingCharges:     1200,
		StoneCharges:      350.5,
		DiamondCharges:    0,
		MiscCharges:       99.99,
	}
	first := Calculate(in)
	second := Calculate(in)
	assert.Equal(t, first, second)
}

func TestCalculateAdditivity(t *testing.T) {
	cases := []Input{
		{},
		{WeightGrams: 1, RatePerGram: decimal.NewFromInt(1)},
		{WeightGrams: 12.345, RatePerGram: decimal.NewFromFloat(20111.11), WastagePercentage: 12.5, MakingCharges: 800, StoneCharges: 40, DiamondCharges: 15000, MiscCharges: 1.01},
		{WeightGrams: 0.333, RatePerGram: decimal.NewFromFloat(0.1), WastagePercentage: 33.3, MiscCharges: 0.2},
		{WeightGrams: -2, RatePerGram: decimal.NewFromInt(100), MakingCharges: -10},
	}
	for _, in := range cases {
		b := Calculate(in)
		sum := b.MetalCost.Add(b.WastageCost).Add(b.MakingCharges).Add(b.StoneCharges).Add(b.DiamondCharges).Add(b.MiscCharges)
		assert.True(t, sum.Equal(b.Total), "expected %s got %s", sum, b.Total)
	}
}

func TestWastageScaling(t *testing.T) {
	for _, pct := range []float64{0, 0.5, 1.25, 5, 7.77, 33.3} {
		base := Calculate(Input{WeightGrams: 9.87, RatePerGram: decimal.NewFromFloat(19999.99), WastagePercentage: pct})
		doubled := Calculate(Input{WeightGrams: 9.87, RatePerGram: decimal.NewFromFloat(19999.99), WastagePercentage: pct * 2})
		require.True(t, base.MetalCost.Equal(doubled.MetalCost))
		assert.True(t, doubled.WastageCost.Equal(base.WastageCost.Mul(decimal.NewFromInt(2))),
			"pct=%v base=%s doubled=%s", pct, base.WastageCost, doubled.WastageCost)
	}
}

func TestGarbageInputsCoerceToZero(t *testing.T) {
	b := Calculate(Input{WeightGrams: math.NaN(), RatePerGram: decimal.NewFromInt(100), MakingCharges: math.Inf(1)})
	assert.True(t, b.Total.IsZero())

	it := ItemFromMap(map[string]interface{}{
		"metal_type":         "gold",
		"karat":              "22k",
		"metal_weight_g":     "10",
		"wastage_percentage": "abc",
		"making_charges":     nil,
		"stone_charges":      "12.5",
	})
	assert.Equal(t, 10.0, it.WeightGrams)
	assert.Equal(t, 0.0, it.WastagePercentage)
	assert.Equal(t, 0.0, it.MakingCharges)
	assert.Equal(t, 12.5, it.StoneCharges)
}

func TestNonGoldMetalsDefaultToZeroMetalCost(t *testing.T) {
	item := Item{MetalType: domain.MetalPlatinum, WeightGrams: 5, WastagePercentage: 10, MakingCharges: 300}

	b := NewCalculator(testRates, false).Price(item)
	assert.True(t, b.MetalCost.IsZero())
	assert.True(t, b.WastageCost.IsZero())
	assert.True(t, b.Total.Equal(decimal.NewFromInt(300)))

	b = NewCalculator(testRates, true).Price(item)
	assert.True(t, b.MetalCost.Equal(decimal.NewFromInt(55000)))
	assert.True(t, b.WastageCost.Equal(decimal.NewFromInt(5500)))
	assert.True(t, b.Total.Equal(decimal.NewFromInt(60800)))
}

func TestRateFor(t *testing.T) {
	calc := NewCalculator(testRates, false)
	assert.True(t, calc.RateFor("gold", "18K").Equal(decimal.NewFromInt(16000)))
	assert.True(t, calc.RateFor(" Gold ", "24k").Equal(decimal.NewFromInt(21800)))
	assert.True(t, calc.RateFor("gold", "14k").IsZero())
	assert.True(t, calc.RateFor("palladium", "").IsZero())
	assert.True(t, NewCalculator(testRates, true).RateFor("palladium", "").Equal(decimal.NewFromInt(9000)))
}

func TestCustomPriceOverride(t *testing.T) {
	calc := FromSettings(domain.Settings{Rates: testRates})
	b := calc.PriceProduct(domain.ProductFields{
		MetalType:     domain.MetalGold,
		Karat:         domain.Karat22,
		MetalWeightG:  10,
		MakingCharges: 500,
		IsCustomPrice: true,
		CustomPrice:   150000,
	})
	assert.True(t, b.CustomPrice)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(150000)))
	assert.True(t, b.MetalCost.Equal(decimal.NewFromInt(200000)))
}

func TestDiamondChargesRequireFlag(t *testing.T) {
	calc := NewCalculator(testRates, false)
	p := domain.ProductFields{MetalType: domain.MetalGold, Karat: domain.Karat18, DiamondCharges: 5000}
	assert.True(t, calc.PriceProduct(p).Total.IsZero())
	p.HasDiamonds = true
	assert.True(t, calc.PriceProduct(p).Total.Equal(decimal.NewFromInt(5000)))
}

func TestCartTotals(t *testing.T) {
	items := []Breakdown{
		{Total: decimal.NewFromInt(210500)},
		{Total: decimal.NewFromFloat(1000.25)},
	}
	tot := CartTotals(items, 500.25, 100000)
	assert.True(t, tot.Subtotal.Equal(decimal.NewFromFloat(211500.25)))
	assert.True(t, tot.GrandTotal.Equal(decimal.NewFromInt(211000)))
	assert.True(t, tot.BalanceDue.Equal(decimal.NewFromInt(111000)))

	capped := CartTotals(items[:1], 999999, 0)
	assert.True(t, capped.GrandTotal.IsZero())
	assert.True(t, capped.Discount.Equal(decimal.NewFromInt(210500)))

	negative := CartTotals(items[:1], -5000, -100)
	assert.True(t, negative.Discount.IsZero())
	assert.True(t, negative.AmountPaid.IsZero())
	assert.True(t, negative.GrandTotal.Equal(decimal.NewFromInt(210500)))
	assert.True(t, negative.BalanceDue.Equal(decimal.NewFromInt(210500)))
}
