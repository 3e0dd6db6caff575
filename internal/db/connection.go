package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return p, nil
}

// Now returns the database clock, as a cheap end-to-end connectivity check.
func Now(ctx context.Context, p *pgxpool.Pool) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var now time.Time
	if err := p.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("test query: %w", err)
	}
	return now, nil
}

// Migrate creates the tables the repositories use. Safe to run repeatedly.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS gold_price_history (
		id              BIGSERIAL PRIMARY KEY,
		observed_at     TIMESTAMPTZ NOT NULL,
		price_per_gram  DOUBLE PRECISION NOT NULL CHECK (price_per_gram >= 0),
		price_per_ounce DOUBLE PRECISION NOT NULL CHECK (price_per_ounce >= 0),
		currency        TEXT NOT NULL,
		change          DOUBLE PRECISION NOT NULL DEFAULT 0,
		change_percent  DOUBLE PRECISION NOT NULL DEFAULT 0,
		market_day      DATE NOT NULL,
		source          TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS gold_price_history_day_idx ON gold_price_history (market_day, observed_at)`,

	`CREATE TABLE IF NOT EXISTS products (
		id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name                TEXT NOT NULL,
		category            TEXT NOT NULL CHECK (category IN ('Cincin','Kalung','Gelang','Anting')),
		weight              TEXT NOT NULL DEFAULT '',
		karat               TEXT NOT NULL DEFAULT '',
		price               DOUBLE PRECISION,
		description         TEXT,
		image_url           TEXT NOT NULL DEFAULT '',
		instagram_post_id   TEXT UNIQUE,
		instagram_permalink TEXT,
		is_featured         BOOLEAN NOT NULL DEFAULT FALSE,
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS instagram_sync_log (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		synced_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		posts_added INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL CHECK (status IN ('success','failed','partial'))
	)`,
}
