package models

import "time"

// PricePoint is a persisted gold spot-price observation.
type PricePoint struct {
	ID            int64     `json:"id"`
	ObservedAt    time.Time `json:"observedAt"`
	PricePerGram  float64   `json:"pricePerGram"`
	PricePerOunce float64   `json:"pricePerOunce"`
	Currency      string    `json:"currency"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	MarketDay     string    `json:"marketDay"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"createdAt"`
}
