package order

import "github.com/shopspring/decimal"

// Quote holds the derived monetary fields computed for an order.
type Quote struct {
	MaterialCost decimal.Decimal
	LaborCost    decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Price computes the cost breakdown for an order. Every step rounds half-up
// to 2 decimal places before the next step uses it; the intermediate
// rounding is part of the contract and can shift the total by a cent versus
// unrounded arithmetic. Deterministic, never fails for finite non-negative
// inputs.
func Price(area, costPerSquareFoot, laborCostPerSquareFoot, taxRatePercent decimal.Decimal) Quote {
	materialCost := area.Mul(costPerSquareFoot).Round(2)
	laborCost := area.Mul(laborCostPerSquareFoot).Round(2)
	tax := materialCost.Add(laborCost).Mul(taxRatePercent.Div(oneHundred)).Round(2)
	total := materialCost.Add(laborCost).Add(tax).Round(2)

	return Quote{
		MaterialCost: materialCost,
		LaborCost:    laborCost,
		Tax:          tax,
		Total:        total,
	}
}
