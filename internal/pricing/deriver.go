// Package pricing derives the full price block of a product from its
// purchase and regular nett prices, the tax rate and an optional discount.
// Derived values are never authoritative: any edit touching price, discount
// or tax must run Derive again and overwrite the stored block.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/nuvora/catalog-service/internal/model"
)

type Input struct {
	PurchaseNett float64
	RegularNett  float64
	DiscountPct  float64
	TaxRate      float64
}

type Output struct {
	PurchaseNett  float64
	PurchaseGross float64
	RegularNett   float64
	RegularGross  float64
	DiscountNett  float64
	DiscountGross float64
	FinalNett     float64
	FinalGross    float64
	IsDiscounted  bool
}

var hundred = decimal.NewFromInt(100)

// Derive is pure and idempotent: equal inputs always yield equal outputs.
// Gross values are rounded to 2 decimals; nett values keep full precision
// until persisted.
func Derive(in Input) Output {
	purchaseNett := decimal.NewFromFloat(in.PurchaseNett)
	regularNett := decimal.NewFromFloat(in.RegularNett)
	discount := decimal.NewFromFloat(in.DiscountPct)
	taxMultiplier := decimal.NewFromInt(1).Add(decimal.NewFromFloat(in.TaxRate).Div(hundred))

	out := Output{
		PurchaseNett:  in.PurchaseNett,
		PurchaseGross: purchaseNett.Mul(taxMultiplier).Round(2).InexactFloat64(),
		RegularNett:   in.RegularNett,
		RegularGross:  regularNett.Mul(taxMultiplier).Round(2).InexactFloat64(),
		DiscountNett:  in.DiscountPct,
		DiscountGross: in.DiscountPct,
	}

	if in.DiscountPct > 0 {
		finalNett := regularNett.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
		out.IsDiscounted = true
		out.FinalNett = finalNett.InexactFloat64()
		out.FinalGross = finalNett.Mul(taxMultiplier).Round(2).InexactFloat64()
		return out
	}

	// discount 0 resets a previously discounted product.
	out.IsDiscounted = false
	out.FinalNett = out.RegularNett
	out.FinalGross = out.RegularGross
	return out
}

// Apply writes a derived block onto the product.
func Apply(p *model.Product, out Output) {
	p.PurchasePriceNett = out.PurchaseNett
	p.PurchasePriceGross = out.PurchaseGross
	p.RegularPriceNett = out.RegularNett
	p.RegularPriceGross = out.RegularGross
	p.DiscountPctNett = out.DiscountNett
	p.DiscountPctGross = out.DiscountGross
	p.FinalPriceNett = out.FinalNett
	p.FinalPriceGross = out.FinalGross
	p.IsDiscounted = out.IsDiscounted
}

// ValueDelta is the effective price change of one selected option value.
func ValueDelta(basePrice, modifier float64, modifierType model.ModifierType) float64 {
	if modifierType == model.ModifierPercentage {
		return decimal.NewFromFloat(basePrice).
			Mul(decimal.NewFromFloat(modifier)).
			Div(hundred).
			Round(2).
			InexactFloat64()
	}
	return modifier
}

// DisplayPrice is the product's final price with the selected option value
// deltas applied. It is computed at serving time and never stored.
func DisplayPrice(finalPrice float64, values []model.CustomOptionValue) float64 {
	total := decimal.NewFromFloat(finalPrice)
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(ValueDelta(finalPrice, v.PriceModifier, v.ModifierType)))
	}
	return total.Round(2).InexactFloat64()
}
