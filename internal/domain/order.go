package domain

import "time"

// Order is the immutable result of a committed checkout. Only the fulfillment
// fields change after commit.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customerId"`
	AddressID       string      `json:"addressId"`
	PaymentIntentID string      `json:"paymentIntentId,omitempty"`
	IsShipped       bool        `json:"isShipped"`
	IsComplete      bool        `json:"isComplete"`
	ShippedOn       *time.Time  `json:"shippedOn,omitempty"`
	CompletedOn     *time.Time  `json:"completedOn,omitempty"`
	TrackingNumber  string      `json:"trackingNumber,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	Lines           []OrderLine `json:"lines"`
}

// OrderLine stores the price the product had when the order was committed.
type OrderLine struct {
	OrderID      string `json:"orderId"`
	ProductID    string `json:"productId"`
	ProductTitle string `json:"productTitle,omitempty"`
	Count        int    `json:"count"`
	PriceCents   int64  `json:"priceCents"`
}

// TotalCents is recomputed from the lines on every read.
func (o Order) TotalCents() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.PriceCents * int64(l.Count)
	}
	return total
}
