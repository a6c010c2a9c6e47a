package domain

import "time"

// Customer is a registered shopper or back-office user.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Address belongs to exactly one customer.
type Address struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	FirstName  string    `json:"firstName,omitempty"`
	LastName   string    `json:"lastName,omitempty"`
	StreetName string    `json:"streetName,omitempty"`
	City       string    `json:"city,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	Country    string    `json:"country,omitempty"`
	IsBilling  bool      `json:"isBilling"`
	CreatedAt  time.Time `json:"createdAt"`
}
