// Package deduction expands a cart into the stock movements it implies
// and checks them against what is on hand.
package deduction

import (
	"fyra/backend/internal/costing"
	"fyra/backend/internal/domain"
)

// Plan maps component IDs to the usage units a sale will consume.
// Inventory lines draw on raw ingredient stock; prep lines draw on the
// prepared item's on-hand buffer, not its underlying ingredients.
type Plan struct {
	Inventory map[string]float64
	Prep      map[string]float64
}

func NewPlan() Plan {
	return Plan{Inventory: map[string]float64{}, Prep: map[string]float64{}}
}

// Build expands every cart line's recipe, scaled by quantity, into a
// deduction plan. Recipe lines whose unit cannot be converted to the
// component's usage unit contribute nothing.
func Build(cart []domain.CartLine, menu map[string]domain.MenuItem, ingredients map[string]domain.Ingredient, preps map[string]domain.PrepTask) Plan {
	plan := NewPlan()
	for _, line := range cart {
		item, ok := menu[line.MenuItemID]
		if !ok || line.Qty <= 0 {
			continue
		}
		addRecipe(&plan, item.Recipe, float64(line.Qty), ingredients, preps)
	}
	return plan
}

// BuildForBatch plans the ingredient draw for making prep batches, e.g.
// when a prep task is marked done and stock moves from raw to prepared.
func BuildForBatch(prep domain.PrepTask, batches float64, ingredients map[string]domain.Ingredient) Plan {
	plan := NewPlan()
	for _, line := range prep.Recipe {
		if line.Source == domain.SourcePrep {
			plan.Prep[line.ComponentID] += line.Amount * batches
			continue
		}
		ing, ok := ingredients[line.ComponentID]
		if !ok {
			continue
		}
		amount, ok := costing.ToUsageUnit(line.Amount, line.Unit, ing)
		if !ok {
			continue
		}
		plan.Inventory[line.ComponentID] += amount * batches
	}
	return plan
}

func addRecipe(plan *Plan, recipe []domain.RecipeLine, factor float64, ingredients map[string]domain.Ingredient, preps map[string]domain.PrepTask) {
	for _, line := range recipe {
		switch line.Source {
		case domain.SourcePrep:
			prep, ok := preps[line.ComponentID]
			if !ok {
				continue
			}
			amount := line.Amount
			if conv, ok := costing.ConvertUnit(line.Amount, line.Unit, prep.Unit, nil); ok {
				amount = conv
			}
			plan.Prep[line.ComponentID] += amount * factor
		default:
			ing, ok := ingredients[line.ComponentID]
			if !ok {
				continue
			}
			amount, ok := costing.ToUsageUnit(line.Amount, line.Unit, ing)
			if !ok {
				continue
			}
			plan.Inventory[line.ComponentID] += amount * factor
		}
	}
}

// Check compares a plan against current stock levels and returns one
// shortage entry per component that cannot cover its share.
func Check(plan Plan, ingredients map[string]domain.Ingredient, preps map[string]domain.PrepTask) []domain.Shortage {
	var shortages []domain.Shortage
	for id, required := range plan.Inventory {
		ing, ok := ingredients[id]
		if !ok {
			continue
		}
		if ing.CurrentStock < required {
			shortages = append(shortages, domain.Shortage{
				ComponentID: id,
				Name:        ing.Name,
				Source:      domain.SourceInventory,
				Required:    required,
				Available:   ing.CurrentStock,
				Shortfall:   required - ing.CurrentStock,
			})
		}
	}
	for id, required := range plan.Prep {
		prep, ok := preps[id]
		if !ok {
			continue
		}
		if prep.OnHand < required {
			shortages = append(shortages, domain.Shortage{
				ComponentID: id,
				Name:        prep.Name,
				Source:      domain.SourcePrep,
				Required:    required,
				Available:   prep.OnHand,
				Shortfall:   required - prep.OnHand,
			})
		}
	}
	return shortages
}
