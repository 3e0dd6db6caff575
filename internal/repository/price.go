package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/models"
)

const priceColumns = `id, observed_at, price_per_gram, price_per_ounce, currency,
	change, change_percent, market_day, source, created_at`

type PriceRepo struct {
	pool *pgxpool.Pool
}

func NewPriceRepo(pool *pgxpool.Pool) *PriceRepo {
	return &PriceRepo{pool: pool}
}

func (r *PriceRepo) Record(ctx context.Context, p gold.SpotPrice) (*models.PricePoint, error) {
	ts := p.ObservedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO gold_price_history
		 (observed_at, price_per_gram, price_per_ounce, currency, change, change_percent, market_day, source)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING `+priceColumns,
		ts, p.PricePerGram, p.PricePerOunce, p.Currency, p.Change, p.ChangePercent,
		MarketDay(ts), string(p.Kind),
	)
	return scanPrice(row)
}

func (r *PriceRepo) GetByDay(ctx context.Context, marketDay string) ([]models.PricePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+priceColumns+` FROM gold_price_history WHERE market_day = $1 ORDER BY observed_at ASC`,
		marketDay,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPrices(rows)
}

// GetRange returns observations in [from, to), oldest first.
func (r *PriceRepo) GetRange(ctx context.Context, from, to time.Time) ([]models.PricePoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+priceColumns+` FROM gold_price_history
		 WHERE observed_at >= $1 AND observed_at < $2 ORDER BY observed_at ASC`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPrices(rows)
}

// GetAvailableDays lists the 30 most recent market days with data, newest first.
func (r *PriceRepo) GetAvailableDays(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT market_day FROM gold_price_history ORDER BY market_day DESC LIMIT 30`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d.Format(time.DateOnly))
	}
	return days, rows.Err()
}

// GetLatest returns the newest observation, or nil when the table is empty.
func (r *PriceRepo) GetLatest(ctx context.Context) (*models.PricePoint, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+priceColumns+` FROM gold_price_history ORDER BY observed_at DESC LIMIT 1`,
	)
	p, err := scanPrice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanPrice(row scannable) (*models.PricePoint, error) {
	var p models.PricePoint
	var day time.Time
	err := row.Scan(&p.ID, &p.ObservedAt, &p.PricePerGram, &p.PricePerOunce, &p.Currency,
		&p.Change, &p.ChangePercent, &day, &p.Source, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.MarketDay = day.Format(time.DateOnly)
	return &p, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectPrices(rows rowsIter) ([]models.PricePoint, error) {
	var out []models.PricePoint
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
