package main

import (
	"context"
	"path/filepath"
	"testing"

	"fyra/backend/internal/config"
	"fyra/backend/internal/domain"
	filepersist "fyra/backend/internal/persist/file"
	"fyra/backend/internal/store"
	"fyra/backend/internal/store/memory"
)

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestLoadStateFallsBackToSeedAndRestoresSnapshots(t *testing.T) {
	ctx := context.Background()
	backend, err := filepersist.New(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}

	// No snapshot on disk yet: seed data.
	repo, fresh := loadState(ctx, backend)
	if !fresh {
		t.Fatalf("expected a fresh start without a snapshot")
	}
	ingredients, err := repo.ListIngredients(ctx, false)
	if err != nil {
		t.Fatalf("list ingredients: %v", err)
	}
	if len(ingredients) == 0 {
		t.Fatalf("expected seeded ingredients")
	}

	snap, err := repo.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if snap.SchemaVersion != store.SchemaVersion {
		t.Fatalf("expected schema v%d, got %d", store.SchemaVersion, snap.SchemaVersion)
	}
	if err := backend.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Second boot restores from the snapshot instead of reseeding.
	restored, fresh := loadState(ctx, backend)
	if fresh {
		t.Fatalf("expected a restore, not a fresh start")
	}
	got, err := restored.ListIngredients(ctx, false)
	if err != nil {
		t.Fatalf("list restored ingredients: %v", err)
	}
	if len(got) != len(ingredients) {
		t.Fatalf("expected %d ingredients after restore, got %d", len(ingredients), len(got))
	}
}

func TestApplySettingsOverrides(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	tax := 11.0
	enabled := true
	rate := int64(20_000)
	applySettingsOverrides(ctx, repo, config.Config{
		StockDeductionPolicy: domain.PolicyBlockIfInsufficient,
		TaxPercent:           &tax,
		LoyaltyEnabled:       &enabled,
		LoyaltyProgram:       domain.LoyaltyProgramPoints,
		LoyaltyPointsRate:    &rate,
	})

	settings, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.StockDeductionPolicy != domain.PolicyBlockIfInsufficient {
		t.Fatalf("expected policy override, got %s", settings.StockDeductionPolicy)
	}
	if settings.TaxPercent != 11 {
		t.Fatalf("expected tax 11, got %v", settings.TaxPercent)
	}
	if settings.Loyalty.ProgramType != domain.LoyaltyProgramPoints || settings.Loyalty.PointsRate != 20_000 {
		t.Fatalf("unexpected loyalty settings %+v", settings.Loyalty)
	}

	// An invalid override is rejected as a whole and defaults remain.
	repo = memory.New()
	applySettingsOverrides(ctx, repo, config.Config{StockDeductionPolicy: "YOLO"})
	settings, err = repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.StockDeductionPolicy != store.DefaultSettings().StockDeductionPolicy {
		t.Fatalf("invalid policy must not stick, got %s", settings.StockDeductionPolicy)
	}
}
