package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
)

// memStore is a transactional in-memory store. A transaction holds the store
// lock for its whole duration and works on a copy that replaces the state only
// on success.
type memStore struct {
	mu    sync.Mutex
	state memState
	seq   int

	// failOnLine makes the n-th InsertOrderLine of a transaction fail.
	failOnLine int
}

type memState struct {
	products  map[string]domain.Product
	carts     map[string]map[string]int
	addresses map[string]string
	orders    map[string]domain.Order
	refs      map[string]string
}

var errInjected = errors.New("injected failure")

func newMemStore() *memStore {
	return &memStore{state: memState{
		products:  map[string]domain.Product{},
		carts:     map[string]map[string]int{},
		addresses: map[string]string{},
		orders:    map[string]domain.Order{},
		refs:      map[string]string{},
	}}
}

func (s memState) clone() memState {
	out := memState{
		products:  make(map[string]domain.Product, len(s.products)),
		carts:     make(map[string]map[string]int, len(s.carts)),
		addresses: make(map[string]string, len(s.addresses)),
		orders:    make(map[string]domain.Order, len(s.orders)),
		refs:      make(map[string]string, len(s.refs)),
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.carts {
		items := make(map[string]int, len(v))
		for p, n := range v {
			items[p] = n
		}
		out.carts[k] = items
	}
	for k, v := range s.addresses {
		out.addresses[k] = v
	}
	for k, v := range s.orders {
		v.Lines = append([]domain.OrderLine(nil), v.Lines...)
		out.orders[k] = v
	}
	for k, v := range s.refs {
		out.refs[k] = v
	}
	return out
}

func (m *memStore) addProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.products[p.ID] = p
}

func (m *memStore) setPrice(id string, cents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.state.products[id]
	p.PriceCents = cents
	m.state.products[id] = p
}

func (m *memStore) product(id string) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.products[id]
}

func (m *memStore) addAddress(addressID, customerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.addresses[addressID] = customerID
}

func (m *memStore) addToCart(customerID, productID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.carts[customerID] == nil {
		m.state.carts[customerID] = map[string]int{}
	}
	m.state.carts[customerID][productID] += count
}

func (m *memStore) cart(customerID string) map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for p, n := range m.state.carts[customerID] {
		out[p] = n
	}
	return out
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.orders)
}

func (m *memStore) WithTx(ctx context.Context, fn func(tx orderrepo.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	tx := &memTx{store: m, state: &work}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.state.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListAll(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, 0, len(m.state.orders))
	for _, o := range m.state.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Get(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (m *memStore) UpdateFulfillment(_ context.Context, id string, f orderrepo.Fulfillment) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if f.ShippedOn != nil {
		o.ShippedOn, o.IsShipped = f.ShippedOn, true
	}
	if f.CompletedOn != nil {
		o.CompletedOn, o.IsComplete = f.CompletedOn, true
	}
	if f.TrackingNumber != nil {
		o.TrackingNumber = *f.TrackingNumber
	}
	if f.Notes != nil {
		o.Notes = *f.Notes
	}
	m.state.orders[id] = o
	return &o, nil
}

// List implements the cart reader with products joined.
func (m *memStore) List(_ context.Context, customerID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CartLine
	for pid, n := range m.state.carts[customerID] {
		out = append(out, domain.CartLine{Product: m.state.products[pid], Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
	return out, nil
}

type memTx struct {
	store *memStore
	state *memState
	lines int
}

func (t *memTx) LockProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := t.state.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (t *memTx) SetProductQuantity(_ context.Context, id string, qty int) error {
	if qty < 0 {
		return fmt.Errorf("quantity check violated for %s", id)
	}
	p := t.state.products[id]
	p.Quantity = qty
	t.state.products[id] = p
	return nil
}

func (t *memTx) AddressOwned(_ context.Context, customerID, addressID string) (bool, error) {
	return t.state.addresses[addressID] == customerID, nil
}

func (t *memTx) InsertOrder(_ context.Context, o *domain.Order) error {
	if o.PaymentIntentID != "" {
		if _, used := t.state.refs[o.PaymentIntentID]; used {
			return domain.ErrDuplicateOrder
		}
	}
	t.store.seq++
	o.ID = fmt.Sprintf("order-%03d", t.store.seq)
	o.CreatedAt = time.Now()
	t.state.orders[o.ID] = *o
	if o.PaymentIntentID != "" {
		t.state.refs[o.PaymentIntentID] = o.ID
	}
	return nil
}

func (t *memTx) CartLinesForUpdate(_ context.Context, customerID string) ([]domain.CartLine, error) {
	var out []domain.CartLine
	for pid, n := range t.state.carts[customerID] {
		out = append(out, domain.CartLine{Product: domain.Product{ID: pid}, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
	return out, nil
}

func (t *memTx) InsertOrderLine(_ context.Context, line domain.OrderLine) error {
	t.lines++
	if t.store.failOnLine > 0 && t.lines == t.store.failOnLine {
		return errInjected
	}
	o := t.state.orders[line.OrderID]
	o.Lines = append(o.Lines, line)
	t.state.orders[line.OrderID] = o
	return nil
}

func (t *memTx) DeleteCartItem(_ context.Context, customerID, productID string) error {
	delete(t.state.carts[customerID], productID)
	return nil
}
