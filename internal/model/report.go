package model

import "time"

// Sale is one purchased user package with its catalog price.
type Sale struct {
	UserPackageID string    `json:"user_package_id"`
	UserID        string    `json:"user_id"`
	UserEmail     string    `json:"user_email"`
	PackageID     string    `json:"package_id"`
	PackageName   string    `json:"package_name"`
	PriceCents    int64     `json:"price_cents"`
	PurchasedAt   time.Time `json:"purchased_at"`
}

// Page is a slice of results plus paging metadata.
type Page[T any] struct {
	Items       []T `json:"content"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
}

// NewPage computes the page count for total items split into perPage chunks.
func NewPage[T any](items []T, page, perPage, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Page[T]{Items: items, CurrentPage: page, TotalPages: pages, TotalItems: total}
}
