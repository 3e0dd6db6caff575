package testutil

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/MelvinDY/SGM/internal/config"
	"github.com/MelvinDY/SGM/internal/db"
)

// SetupPool connects to the integration-test database and applies the schema.
// Connection details come from TEST_DATABASE_URL or the DB_* variables.
// The test is skipped when no database answers.
func SetupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		port, err := strconv.Atoi(EnvOr("DB_PORT", "5432"))
		if err != nil {
			t.Fatalf("DB_PORT: %v", err)
		}
		cfg := config.Config{
			DBHost:     EnvOr("DB_HOST", "localhost"),
			DBPort:     port,
			DBName:     EnvOr("DB_NAME", "toko_mas_sugema"),
			DBUser:     EnvOr("DB_USER", "postgres"),
			DBPassword: EnvOr("DB_PASSWORD", ""),
		}
		dsn = cfg.DSN()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
