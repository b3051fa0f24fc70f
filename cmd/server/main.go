package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyra/backend/internal/cache"
	"fyra/backend/internal/config"
	"fyra/backend/internal/httpapi"
	"fyra/backend/internal/ocr"
	"fyra/backend/internal/persist"
	filepersist "fyra/backend/internal/persist/file"
	pgpersist "fyra/backend/internal/persist/postgres"
	"fyra/backend/internal/service"
	"fyra/backend/internal/store/memory"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	var backend persist.Backend
	if cfg.DatabaseURL != "" {
		pg, err := pgpersist.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start without it", err)
		}
		backend = pg
		log.Println("persistence: postgres")
	} else {
		fb, err := filepersist.New(cfg.SnapshotFile)
		if err != nil {
			log.Fatalf("snapshot file %s: %v", cfg.SnapshotFile, err)
		}
		backend = fb
		log.Printf("persistence: file %s", cfg.SnapshotFile)
	}
	closers = append(closers, backend.Close)

	repo, fresh := loadState(ctx, backend)
	repo.SetSink(backend)
	if fresh {
		applySettingsOverrides(ctx, repo, cfg)
	}

	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("report cache: redis")
		}
	} else {
		log.Println("report cache: noop")
	}

	var ocrClient *ocr.Client
	if cfg.OCRServiceURL != "" {
		ocrClient = ocr.NewClient(cfg.OCRServiceURL, cfg.OCRAPIKey, 0)
		log.Println("invoice ocr: enabled")
	} else {
		log.Println("invoice ocr: disabled")
	}

	svc := service.New(repo, reportCache, ocrClient, time.Duration(cfg.ReportTTLSeconds)*time.Second)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// loadState restores the last snapshot from the persistence backend, running
// schema migrations first. A missing or unreadable snapshot starts the store
// with seed data instead; the second return reports that fresh start.
func loadState(ctx context.Context, backend persist.Backend) (*memory.Store, bool) {
	snap, err := backend.Load(ctx)
	if err != nil {
		log.Printf("snapshot load failed (%v), starting from seed data", err)
		return memory.NewSeeded(), true
	}
	if snap == nil {
		log.Println("no snapshot found, starting from seed data")
		return memory.NewSeeded(), true
	}

	if persist.Migrate(snap) {
		log.Printf("snapshot migrated to schema v%d", snap.SchemaVersion)
	}

	repo := memory.New()
	if err := repo.Import(ctx, *snap); err != nil {
		log.Printf("snapshot import failed (%v), starting from seed data", err)
		return memory.NewSeeded(), true
	}
	log.Printf("state restored from snapshot saved at %s", snap.SavedAt.Format(time.RFC3339))
	return repo, false
}

// applySettingsOverrides seeds a fresh install's settings from the
// environment. Persisted installs keep whatever the settings endpoint
// last wrote.
func applySettingsOverrides(ctx context.Context, repo *memory.Store, cfg config.Config) {
	settings, err := repo.GetSettings(ctx)
	if err != nil {
		log.Printf("settings override skipped: %v", err)
		return
	}

	changed := false
	if cfg.StockDeductionPolicy != "" {
		settings.StockDeductionPolicy = cfg.StockDeductionPolicy
		changed = true
	}
	if cfg.TaxPercent != nil {
		settings.TaxPercent = *cfg.TaxPercent
		changed = true
	}
	if cfg.LoyaltyEnabled != nil {
		settings.Loyalty.Enabled = *cfg.LoyaltyEnabled
		changed = true
	}
	if cfg.LoyaltyProgram != "" {
		settings.Loyalty.ProgramType = cfg.LoyaltyProgram
		changed = true
	}
	if cfg.LoyaltyCashbackPercent != nil {
		settings.Loyalty.CashbackPercent = *cfg.LoyaltyCashbackPercent
		changed = true
	}
	if cfg.LoyaltyPointsRate != nil {
		settings.Loyalty.PointsRate = *cfg.LoyaltyPointsRate
		changed = true
	}
	if !changed {
		return
	}

	if _, err := repo.UpdateSettings(ctx, settings); err != nil {
		log.Printf("settings override rejected: %v", err)
		return
	}
	log.Println("settings: environment overrides applied")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
