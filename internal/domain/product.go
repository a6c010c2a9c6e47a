package domain

import "time"

// Product is a catalog entry with its available stock.
type Product struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Quantity    int       `json:"quantity"`
	MadeToOrder bool      `json:"isMadeToOrder"`
	Active      bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
