package file

import (
	"context"
	"path/filepath"
	"testing"

	"fyra/backend/internal/domain"
	"fyra/backend/internal/store"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, err := New(filepath.Join(t.TempDir(), "state", "snapshot.json"))
	if err != nil {
		t.Fatal(err)
	}

	if snap, err := backend.Load(ctx); err != nil || snap != nil {
		t.Fatalf("fresh backend must load nil, got %v err %v", snap, err)
	}

	want := store.Snapshot{
		SchemaVersion:  store.SchemaVersion,
		InvoiceCounter: 42,
		Settings:       store.DefaultSettings(),
		Ingredients: []domain.Ingredient{
			{ID: "ing-1", Name: "Beras", Unit: "g", ConversionRate: 1000, CurrentStock: 2500.5, CostPerUnit: 14000},
		},
	}
	if err := backend.Save(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := backend.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.InvoiceCounter != 42 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].CurrentStock != 2500.5 {
		t.Fatalf("ingredients did not round-trip: %+v", got.Ingredients)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	backend, err := New(filepath.Join(t.TempDir(), "snapshot.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := backend.Save(ctx, store.Snapshot{SchemaVersion: store.SchemaVersion}); err != nil {
		t.Fatal(err)
	}
	if err := backend.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if snap, err := backend.Load(ctx); err != nil || snap != nil {
		t.Fatalf("cleared backend must load nil, got %v err %v", snap, err)
	}
	// Clearing twice is fine.
	if err := backend.Clear(ctx); err != nil {
		t.Fatal(err)
	}
}
