// Package persist defines the snapshot persistence contract and the
// forward migrations applied to snapshots written by older versions.
package persist

import (
	"context"

	"fyra/backend/internal/domain"
	"fyra/backend/internal/store"
)

// Backend round-trips the full snapshot losslessly. Load returns nil when
// no snapshot has ever been saved.
type Backend interface {
	Load(ctx context.Context) (*store.Snapshot, error)
	Save(ctx context.Context, snap store.Snapshot) error
	Clear(ctx context.Context) error
	Close() error
}

// Migrate upgrades a loaded snapshot to the current schema version in
// place and reports whether anything changed. Unknown future versions are
// left untouched.
func Migrate(snap *store.Snapshot) bool {
	if snap == nil || snap.SchemaVersion >= store.SchemaVersion {
		return false
	}

	if snap.SchemaVersion < 1 {
		// v0 snapshots predate the settings block.
		if snap.Settings.StockDeductionPolicy == "" {
			defaults := store.DefaultSettings()
			snap.Settings.StockDeductionPolicy = defaults.StockDeductionPolicy
			snap.Settings.TaxPercent = defaults.TaxPercent
		}
	}
	if snap.SchemaVersion < 2 {
		// v1 snapshots predate the loyalty program.
		if snap.Settings.Loyalty.ProgramType == "" {
			snap.Settings.Loyalty = store.DefaultSettings().Loyalty
		}
		for i := range snap.Customers {
			if snap.Customers[i].Segment == "" {
				snap.Customers[i].Segment = domain.SegmentNew
			}
		}
	}

	snap.SchemaVersion = store.SchemaVersion
	return true
}
