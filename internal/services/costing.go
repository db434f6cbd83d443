package services

import (
	"github.com/shopspring/decimal"
)

// ScaledQuantity converts a recipe line quantity, expressed against the
// recipe's nominal yield, to the quantity needed for the actually produced
// amount. Scaling is linear; a non-positive nominal yield cannot be scaled
// and returns zero.
func ScaledQuantity(lineQuantity, nominalYield, producedQuantity float64) float64 {
	if nominalYield <= 0 {
		return 0
	}
	return lineQuantity / nominalYield * producedQuantity
}

// LineCost prices a quantity at a frozen per-unit price. An unknown price
// contributes zero to the batch total rather than blocking it.
func LineCost(quantity float64, pricePerUnit decimal.Decimal, priceKnown bool) decimal.Decimal {
	if !priceKnown {
		return decimal.Zero
	}
	return pricePerUnit.Mul(decimal.NewFromFloat(quantity))
}

// BatchTotals sums line costs, applies an optional overhead percentage, and
// derives the per-unit cost. A zero produced quantity yields a zero unit cost
// instead of a division.
func BatchTotals(lineCosts []decimal.Decimal, overheadPercent *float64, producedQuantity float64) (total, unitCost decimal.Decimal) {
	total = decimal.Zero
	for _, c := range lineCosts {
		total = total.Add(c)
	}
	if overheadPercent != nil && *overheadPercent > 0 {
		factor := decimal.NewFromFloat(1 + *overheadPercent/100)
		total = total.Mul(factor)
	}
	total = total.Round(4)
	if producedQuantity > 0 {
		unitCost = total.Div(decimal.NewFromFloat(producedQuantity)).Round(4)
	} else {
		unitCost = decimal.Zero
	}
	return total, unitCost
}
