package costing

import (
	"testing"

	"fyra/backend/internal/domain"
)

func TestPerUsageUnitCost(t *testing.T) {
	ing := domain.Ingredient{CostPerUnit: 120000, ConversionRate: 1000}
	got := PerUsageUnitCost(ing)
	if got.String() != "120" {
		t.Fatalf("expected 120 per usage unit, got %s", got)
	}
}

func TestPerUsageUnitCostZeroRateDefaultsToOne(t *testing.T) {
	ing := domain.Ingredient{CostPerUnit: 500, ConversionRate: 0}
	if got := PerUsageUnitCost(ing); got.String() != "500" {
		t.Fatalf("expected 500, got %s", got)
	}
}

func TestConvertUnitSameUnit(t *testing.T) {
	got, ok := ConvertUnit(42, "pcs", "pcs", nil)
	if !ok || got != 42 {
		t.Fatalf("expected identity conversion, got %v ok=%v", got, ok)
	}
}

func TestConvertUnitMass(t *testing.T) {
	got, ok := ConvertUnit(2.5, "kg", "g", nil)
	if !ok || got != 2500 {
		t.Fatalf("expected 2500 g, got %v ok=%v", got, ok)
	}
	got, ok = ConvertUnit(500, "g", "kg", nil)
	if !ok || got != 0.5 {
		t.Fatalf("expected 0.5 kg, got %v ok=%v", got, ok)
	}
}

func TestConvertUnitVolume(t *testing.T) {
	got, ok := ConvertUnit(1.5, "l", "ml", nil)
	if !ok || got != 1500 {
		t.Fatalf("expected 1500 ml, got %v ok=%v", got, ok)
	}
}

func TestConvertUnitCustomTakesPrecedence(t *testing.T) {
	custom := map[string]float64{"tray": 30}
	got, ok := ConvertUnit(2, "tray", "pcs", custom)
	if !ok || got != 60 {
		t.Fatalf("expected 60 pcs from 2 trays, got %v ok=%v", got, ok)
	}
}

func TestConvertUnitIncompatible(t *testing.T) {
	if _, ok := ConvertUnit(1, "kg", "ml", nil); ok {
		t.Fatal("expected mass to volume conversion to fail")
	}
	if _, ok := ConvertUnit(1, "box", "pcs", nil); ok {
		t.Fatal("expected unknown unit conversion to fail")
	}
}

func TestInventoryValueSkipsDeleted(t *testing.T) {
	ings := []domain.Ingredient{
		{CurrentStock: 10, CostPerUnit: 2000, ConversionRate: 1},
		{CurrentStock: 5, CostPerUnit: 1000, ConversionRate: 1, Deleted: true},
	}
	if got := InventoryValue(ings); got != 20000 {
		t.Fatalf("expected 20000, got %d", got)
	}
}

func TestWasteLossFractionalUnitCost(t *testing.T) {
	// 10000 per purchase unit, 3 usage units each: 3333.33.. per usage unit.
	ing := domain.Ingredient{CostPerUnit: 10000, ConversionRate: 3}
	if got := WasteLoss(ing, 3); got != 10000 {
		t.Fatalf("expected full purchase unit value 10000, got %d", got)
	}
}

func TestRecipeCostInventoryAndPrep(t *testing.T) {
	ingredients := map[string]domain.Ingredient{
		"ing-rice": {ID: "ing-rice", Unit: "g", CostPerUnit: 15000, ConversionRate: 1000},
	}
	preps := map[string]domain.PrepTask{
		"prep-sauce": {
			ID: "prep-sauce", Unit: "ml", BatchSize: 500,
			Recipe: []domain.RecipeLine{
				{ComponentID: "ing-rice", Amount: 1, Unit: "kg", Source: domain.SourceInventory},
			},
		},
	}
	recipe := []domain.RecipeLine{
		{ComponentID: "ing-rice", Amount: 200, Unit: "g", Source: domain.SourceInventory},
		{ComponentID: "prep-sauce", Amount: 50, Unit: "ml", Source: domain.SourcePrep},
	}
	// rice: 200g at 15/g = 3000; sauce batch costs 15000 over 500ml = 30/ml,
	// 50ml = 1500.
	if got := RecipeCost(recipe, ingredients, preps); got != 4500 {
		t.Fatalf("expected 4500, got %d", got)
	}
}

func TestRecipeCostSkipsUnconvertibleUnits(t *testing.T) {
	ingredients := map[string]domain.Ingredient{
		"ing-rice": {ID: "ing-rice", Unit: "g", CostPerUnit: 15000, ConversionRate: 1000},
	}
	recipe := []domain.RecipeLine{
		{ComponentID: "ing-rice", Amount: 200, Unit: "g", Source: domain.SourceInventory},
		{ComponentID: "ing-rice", Amount: 100, Unit: "ml", Source: domain.SourceInventory},
	}
	// The ml line has no path to grams, so only the 200g line counts: a
	// line that deducts nothing must also cost nothing.
	if got := RecipeCost(recipe, ingredients, nil); got != 3000 {
		t.Fatalf("expected 3000, got %d", got)
	}
}

func TestPrepUnitCostFallsBackWithoutRecipe(t *testing.T) {
	prep := domain.PrepTask{CostPerUnit: 250}
	if got := PrepUnitCost(prep, nil, nil); got != 250 {
		t.Fatalf("expected stored cost 250, got %d", got)
	}
}

func TestRecipeCostSurvivesPrepCycle(t *testing.T) {
	preps := map[string]domain.PrepTask{
		"prep-a": {ID: "prep-a", Unit: "ml", BatchSize: 100, Recipe: []domain.RecipeLine{
			{ComponentID: "prep-b", Amount: 10, Unit: "ml", Source: domain.SourcePrep},
		}},
		"prep-b": {ID: "prep-b", Unit: "ml", BatchSize: 100, Recipe: []domain.RecipeLine{
			{ComponentID: "prep-a", Amount: 10, Unit: "ml", Source: domain.SourcePrep},
		}},
	}
	recipe := []domain.RecipeLine{{ComponentID: "prep-a", Amount: 10, Unit: "ml", Source: domain.SourcePrep}}
	if got := RecipeCost(recipe, nil, preps); got != 0 {
		t.Fatalf("expected cycle to cost 0, got %d", got)
	}
}

func TestSaleTotal(t *testing.T) {
	// 10000 subtotal, 11% tax, 1000 discount: 11100 - 1000.
	if got := SaleTotal(10000, 11, 1000); got != 10100 {
		t.Fatalf("expected 10100, got %d", got)
	}
}

func TestSaleTotalRoundsTax(t *testing.T) {
	// 333 * 1.10 = 366.3 rounds to 366.
	if got := SaleTotal(333, 10, 0); got != 366 {
		t.Fatalf("expected 366, got %d", got)
	}
}
