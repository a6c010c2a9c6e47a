package domain

// CartLine is one (product, count) pair of a cart, joined with the current product row.
type CartLine struct {
	Product Product `json:"product"`
	Count   int     `json:"count"`
}

// LineTotalCents is the live price of the line.
func (l CartLine) LineTotalCents() int64 {
	return l.Product.PriceCents * int64(l.Count)
}
