package model

import "time"

// Package is a static catalog row. A limit of 0 means unlimited.
type Package struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	WebsiteLimit  int       `json:"website_limit"`
	DatabaseLimit int       `json:"database_limit"`
	DiskQuotaMB   int       `json:"disk_quota_mb"`
	PriceCents    int       `json:"price_cents"`
	CreatedAt     time.Time `json:"created_at"`
}
