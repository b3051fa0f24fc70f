// Package costing holds the money math for ingredients, recipes and sales.
// All monetary amounts are integer minor units; intermediate per-unit
// values use decimals so fractional unit costs do not lose precision.
package costing

import (
	"github.com/shopspring/decimal"

	"fyra/backend/internal/domain"
)

// standard conversion tables, value = how many base units one unit equals.
// Mass base is the gram, volume base is the millilitre.
var massFactors = map[string]float64{
	"mg": 0.001,
	"g":  1,
	"kg": 1000,
}

var volumeFactors = map[string]float64{
	"ml":    1,
	"cl":    10,
	"l":     1000,
	"liter": 1000,
}

// ConvertUnit converts amount from one unit to another. Custom entries map
// a unit name to how many target units one of that unit equals; they take
// precedence over the standard tables. Returns false when no conversion
// path exists.
func ConvertUnit(amount float64, from string, to string, custom map[string]float64) (float64, bool) {
	if from == to {
		return amount, true
	}
	if factor, ok := custom[from]; ok {
		return amount * factor, true
	}
	if fromF, ok := massFactors[from]; ok {
		if toF, ok := massFactors[to]; ok {
			return amount * fromF / toF, true
		}
		return 0, false
	}
	if fromF, ok := volumeFactors[from]; ok {
		if toF, ok := volumeFactors[to]; ok {
			return amount * fromF / toF, true
		}
		return 0, false
	}
	return 0, false
}

// ToUsageUnit converts amount in the given unit into the ingredient's
// usage unit.
func ToUsageUnit(amount float64, unit string, ing domain.Ingredient) (float64, bool) {
	return ConvertUnit(amount, unit, ing.Unit, ing.CustomConversions)
}

// PerUsageUnitCost returns the cost of one usage unit of the ingredient.
// The conversion rate defaults to 1 when unset so a zero rate never
// divides the cost away.
func PerUsageUnitCost(ing domain.Ingredient) decimal.Decimal {
	rate := ing.ConversionRate
	if rate == 0 {
		rate = 1
	}
	return decimal.NewFromInt(ing.CostPerUnit).Div(decimal.NewFromFloat(rate))
}

// InventoryValue sums current stock times per-usage-unit cost across all
// non-deleted ingredients, rounded to whole minor units.
func InventoryValue(ings []domain.Ingredient) int64 {
	total := decimal.Zero
	for _, ing := range ings {
		if ing.Deleted {
			continue
		}
		total = total.Add(PerUsageUnitCost(ing).Mul(decimal.NewFromFloat(ing.CurrentStock)))
	}
	return total.Round(0).IntPart()
}

// WasteLoss is the value destroyed by deducting the given number of usage
// units of an ingredient.
func WasteLoss(ing domain.Ingredient, usageUnits float64) int64 {
	return PerUsageUnitCost(ing).Mul(decimal.NewFromFloat(usageUnits)).Round(0).IntPart()
}

// RecipeCost computes the cost of one portion of a recipe. Inventory lines
// price at the ingredient's per-usage-unit cost; prep lines price at the
// prep item's unit cost, which itself derives from its recipe and batch
// size. Cycles between prep recipes resolve to zero for the repeated node.
// Lines whose unit cannot be converted to the ingredient's usage unit
// contribute nothing, matching the deduction plan.
func RecipeCost(recipe []domain.RecipeLine, ingredients map[string]domain.Ingredient, preps map[string]domain.PrepTask) int64 {
	return recipeCost(recipe, ingredients, preps, map[string]bool{}).Round(0).IntPart()
}

// PrepUnitCost is the cost of one usage unit of a prep item: its recipe
// cost spread over its batch size. A prep with no recipe or a zero batch
// size falls back to its stored unit cost.
func PrepUnitCost(prep domain.PrepTask, ingredients map[string]domain.Ingredient, preps map[string]domain.PrepTask) int64 {
	return prepUnitCost(prep, ingredients, preps, map[string]bool{}).Round(0).IntPart()
}

func recipeCost(recipe []domain.RecipeLine, ingredients map[string]domain.Ingredient, preps map[string]domain.PrepTask, seen map[string]bool) decimal.Decimal {
	total := decimal.Zero
	for _, line := range recipe {
		switch line.Source {
		case domain.SourcePrep:
			prep, ok := preps[line.ComponentID]
			if !ok || seen[line.ComponentID] {
				continue
			}
			seen[line.ComponentID] = true
			unitCost := prepUnitCost(prep, ingredients, preps, seen)
			delete(seen, line.ComponentID)
			amount := line.Amount
			if conv, ok := ConvertUnit(line.Amount, line.Unit, prep.Unit, nil); ok {
				amount = conv
			}
			total = total.Add(unitCost.Mul(decimal.NewFromFloat(amount)))
		default:
			ing, ok := ingredients[line.ComponentID]
			if !ok {
				continue
			}
			amount, ok := ToUsageUnit(line.Amount, line.Unit, ing)
			if !ok {
				continue
			}
			total = total.Add(PerUsageUnitCost(ing).Mul(decimal.NewFromFloat(amount)))
		}
	}
	return total
}

func prepUnitCost(prep domain.PrepTask, ingredients map[string]domain.Ingredient, preps map[string]domain.PrepTask, seen map[string]bool) decimal.Decimal {
	if len(prep.Recipe) == 0 || prep.BatchSize <= 0 {
		return decimal.NewFromInt(prep.CostPerUnit)
	}
	batchCost := recipeCost(prep.Recipe, ingredients, preps, seen)
	return batchCost.Div(decimal.NewFromFloat(prep.BatchSize))
}

// SaleTotal applies tax to the subtotal and then subtracts the discount.
// Tax rounds half away from zero to the nearest minor unit.
func SaleTotal(subtotal int64, taxPercent float64, discount int64) int64 {
	taxed := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromFloat(1 + taxPercent/100)).
		Round(0).IntPart()
	return taxed - discount
}
