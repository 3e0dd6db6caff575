package models

import (
	"fmt"
	"strings"
	"time"
)

// Category is the fixed set of jewelry product categories.
type Category string

const (
	CategoryRing     Category = "Cincin"
	CategoryNecklace Category = "Kalung"
	CategoryBracelet Category = "Gelang"
	CategoryEarring  Category = "Anting"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryRing, CategoryNecklace, CategoryBracelet, CategoryEarring}

// ParseCategory matches s against the category names, ignoring case.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

type Product struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Category           Category  `json:"category"`
	Weight             string    `json:"weight"`
	Karat              string    `json:"karat"`
	Price              *float64  `json:"price"`
	Description        *string   `json:"description"`
	ImageURL           string    `json:"image_url"`
	InstagramPostID    *string   `json:"instagram_post_id"`
	InstagramPermalink *string   `json:"instagram_permalink"`
	IsFeatured         bool      `json:"is_featured"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProductInsert is a new catalog row. Identity and timestamps are assigned by the database.
type ProductInsert struct {
	Name               string   `json:"name"`
	Category           Category `json:"category"`
	Weight             string   `json:"weight"`
	Karat              string   `json:"karat"`
	Price              *float64 `json:"price"`
	Description        *string  `json:"description"`
	ImageURL           string   `json:"image_url"`
	InstagramPostID    *string  `json:"instagram_post_id"`
	InstagramPermalink *string  `json:"instagram_permalink"`
	IsFeatured         bool     `json:"is_featured"`
	IsActive           bool     `json:"is_active"`
}

func (p *ProductInsert) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return err
	}
	if p.Price != nil && *p.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

// ProductUpdate is a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string   `json:"name,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Weight      *string   `json:"weight,omitempty"`
	Karat       *string   `json:"karat,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsFeatured  *bool     `json:"is_featured,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

func (u *ProductUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	if u.Category != nil {
		if _, err := ParseCategory(string(*u.Category)); err != nil {
			return err
		}
	}
	if u.Price != nil && *u.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

// SyncStatus is the outcome of one Instagram import run.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncFailed  SyncStatus = "failed"
	SyncPartial SyncStatus = "partial"
)

type InstagramSyncLog struct {
	ID         string     `json:"id"`
	SyncedAt   time.Time  `json:"synced_at"`
	PostsAdded int        `json:"posts_added"`
	Status     SyncStatus `json:"status"`
}
