package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MelvinDY/SGM/internal/models"
)

type SyncLogRepo struct {
	pool *pgxpool.Pool
}

func NewSyncLogRepo(pool *pgxpool.Pool) *SyncLogRepo {
	return &SyncLogRepo{pool: pool}
}

func (r *SyncLogRepo) Record(ctx context.Context, postsAdded int, status models.SyncStatus) (*models.InstagramSyncLog, error) {
	var l models.InstagramSyncLog
	var s string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO instagram_sync_log (posts_added, status) VALUES ($1, $2)
		 RETURNING id::text, synced_at, posts_added, status`,
		postsAdded, string(status),
	).Scan(&l.ID, &l.SyncedAt, &l.PostsAdded, &s)
	if err != nil {
		return nil, err
	}
	l.Status = models.SyncStatus(s)
	return &l, nil
}

// Recent returns the latest sync runs, newest first.
func (r *SyncLogRepo) Recent(ctx context.Context, limit int) ([]models.InstagramSyncLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, synced_at, posts_added, status FROM instagram_sync_log
		 ORDER BY synced_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.InstagramSyncLog{}
	for rows.Next() {
		var l models.InstagramSyncLog
		var s string
		if err := rows.Scan(&l.ID, &l.SyncedAt, &l.PostsAdded, &s); err != nil {
			return nil, err
		}
		l.Status = models.SyncStatus(s)
		out = append(out, l)
	}
	return out, rows.Err()
}
