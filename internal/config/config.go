package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	SnapshotFile          string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	ReportTTLSeconds      int
	AuthSecret            string
	AccessTokenTTLMinutes int
	OCRServiceURL         string
	OCRAPIKey             string

	// First-boot settings overrides. They seed a fresh install only; once
	// a snapshot exists the persisted settings win. Nil/empty means keep
	// the built-in defaults.
	StockDeductionPolicy   string
	TaxPercent             *float64
	LoyaltyEnabled         *bool
	LoyaltyProgram         string
	LoyaltyCashbackPercent *float64
	LoyaltyPointsRate      *int64
}

func Load() Config {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("REPORT_TTL_SECONDS", "45"))
	if err != nil || ttl < 1 {
		ttl = 45
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SnapshotFile:          getEnv("SNAPSHOT_FILE", "data/fyra-state.json"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		ReportTTLSeconds:      ttl,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		OCRServiceURL:         strings.TrimSpace(os.Getenv("OCR_SERVICE_URL")),
		OCRAPIKey:             strings.TrimSpace(os.Getenv("OCR_API_KEY")),

		StockDeductionPolicy:   strings.TrimSpace(os.Getenv("STOCK_DEDUCTION_POLICY")),
		TaxPercent:             envFloat("TAX_PERCENT"),
		LoyaltyEnabled:         envBool("LOYALTY_ENABLED"),
		LoyaltyProgram:         strings.TrimSpace(os.Getenv("LOYALTY_PROGRAM")),
		LoyaltyCashbackPercent: envFloat("LOYALTY_CASHBACK_PERCENT"),
		LoyaltyPointsRate:      envInt64("LOYALTY_POINTS_RATE"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envFloat(key string) *float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &val
}

func envBool(key string) *bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &val
}

func envInt64(key string) *int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &val
}
