package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MelvinDY/SGM/internal/models"
)

// ErrNotFound is returned when a row addressed by id does not exist.
// Malformed ids are compared as text, so they also report ErrNotFound.
var ErrNotFound = errors.New("not found")

const productColumns = `id::text, name, category, weight, karat, price, description, image_url,
	instagram_post_id, instagram_permalink, is_featured, is_active, created_at, updated_at`

// FeaturedLimit caps the storefront's featured strip.
const FeaturedLimit = 8

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// ListActive returns the public catalog, newest first.
func (r *ProductRepo) ListActive(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx, `WHERE is_active = TRUE ORDER BY created_at DESC`)
}

func (r *ProductRepo) ListByCategory(ctx context.Context, c models.Category) ([]models.Product, error) {
	return r.list(ctx, `WHERE is_active = TRUE AND category = $1 ORDER BY created_at DESC`, string(c))
}

func (r *ProductRepo) ListFeatured(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx,
		`WHERE is_active = TRUE AND is_featured = TRUE ORDER BY created_at DESC LIMIT $1`,
		FeaturedLimit,
	)
}

// ListAll includes inactive drafts; used by the admin panel.
func (r *ProductRepo) ListAll(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx, `ORDER BY created_at DESC`)
}

// GetByID returns ErrNotFound when no product has the id. Inactive products are returned.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id::text = $1`, id)
	return notFound(scanProduct(row))
}

func (r *ProductRepo) Create(ctx context.Context, p *models.ProductInsert) (*models.Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products
		 (name, category, weight, karat, price, description, image_url,
		  instagram_post_id, instagram_permalink, is_featured, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 RETURNING `+productColumns,
		p.Name, string(p.Category), p.Weight, p.Karat, p.Price, p.Description, p.ImageURL,
		p.InstagramPostID, p.InstagramPermalink, p.IsFeatured, p.IsActive,
	)
	return scanProduct(row)
}

// Update applies the non-nil fields of u and bumps updated_at.
func (r *ProductRepo) Update(ctx context.Context, id string, u *models.ProductUpdate) (*models.Product, error) {
	sets, args := buildUpdate(u)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id::text = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), productColumns)

	return notFound(scanProduct(r.pool.QueryRow(ctx, query, args...)))
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) (*models.Product, error) {
	return r.Update(ctx, id, &models.ProductUpdate{IsActive: &active})
}

func (r *ProductRepo) SetFeatured(ctx context.Context, id string, featured bool) (*models.Product, error) {
	return r.Update(ctx, id, &models.ProductUpdate{IsFeatured: &featured})
}

// ExistsByInstagramID reports whether a post has already been imported.
func (r *ProductRepo) ExistsByInstagramID(ctx context.Context, postID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE instagram_post_id = $1)`, postID,
	).Scan(&exists)
	return exists, err
}

func (r *ProductRepo) list(ctx context.Context, clause string, args ...any) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// buildUpdate turns the set fields of u into "col = $n" fragments.
// updated_at is always touched so an empty update still returns the row.
func buildUpdate(u *models.ProductUpdate) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Category != nil {
		add("category", string(*u.Category))
	}
	if u.Weight != nil {
		add("weight", *u.Weight)
	}
	if u.Karat != nil {
		add("karat", *u.Karat)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.ImageURL != nil {
		add("image_url", *u.ImageURL)
	}
	if u.IsFeatured != nil {
		add("is_featured", *u.IsFeatured)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	sets = append(sets, "updated_at = NOW()")
	return sets, args
}

func scanProduct(row scannable) (*models.Product, error) {
	var p models.Product
	var category string
	err := row.Scan(&p.ID, &p.Name, &category, &p.Weight, &p.Karat, &p.Price, &p.Description,
		&p.ImageURL, &p.InstagramPostID, &p.InstagramPermalink, &p.IsFeatured, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Category = models.Category(category)
	return &p, nil
}

func notFound(p *models.Product, err error) (*models.Product, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}
