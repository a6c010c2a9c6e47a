package domain

// Identity is the caller resolved by the transport layer. The zero value is an
// anonymous caller.
type Identity struct {
	CustomerID string
	Admin      bool
}

func (i Identity) Authenticated() bool {
	return i.CustomerID != ""
}

// Owns reports whether the caller may read a resource owned by customerID.
func (i Identity) Owns(customerID string) bool {
	return i.Admin || (i.Authenticated() && i.CustomerID == customerID)
}
