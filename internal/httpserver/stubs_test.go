package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	addresssvc "storefront/internal/service/address"
	"storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
)

func logDiscard() *zap.Logger {
	return zap.NewNop()
}

type stubCustomerService struct {
	customer  *domain.Customer
	signupErr error
	loginErr  error
	// tokens maps bearer tokens to identities; anything else is rejected.
	tokens map[string]domain.Identity
}

func (s *stubCustomerService) Signup(_ context.Context, in customersvc.SignupInput) (*domain.Customer, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return &domain.Customer{ID: "cust-new", Email: in.Email}, nil
}

func (s *stubCustomerService) Login(_ context.Context, _, _ string) (*customersvc.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &customersvc.Session{Customer: s.customer, AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (s *stubCustomerService) Identify(_ context.Context, token string) (domain.Identity, error) {
	id, ok := s.tokens[token]
	if !ok {
		return domain.Identity{}, customersvc.ErrInvalidToken
	}
	return id, nil
}

type stubAnonymousService struct {
	sessions map[string]string
}

func (s *stubAnonymousService) Issue(context.Context) (string, string, error) {
	return "anon-token", "anon-1", nil
}

func (s *stubAnonymousService) LookupByToken(_ context.Context, token string) (string, error) {
	id, ok := s.sessions[token]
	if !ok {
		return "", anonymous.ErrInvalidToken
	}
	return id, nil
}

func (s *stubAnonymousService) AccessTTLSeconds() int { return 600 }

type stubCatalog struct {
	products []domain.Product
	lastID   domain.Identity
}

func (s *stubCatalog) List(_ context.Context, id domain.Identity) ([]domain.Product, error) {
	s.lastID = id
	return s.products, nil
}

func (s *stubCatalog) Get(_ context.Context, id domain.Identity, productID string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == productID && (p.Active || id.Admin) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCart struct {
	lines  []domain.CartLine
	addErr  error
	added   []string
	cleared int
}

func (c *stubCart) Add(_ context.Context, productID string) error {
	if c.addErr != nil {
		return c.addErr
	}
	c.added = append(c.added, productID)
	return nil
}

func (c *stubCart) Remove(context.Context, string) error { return nil }

func (c *stubCart) Lines(context.Context) ([]domain.CartLine, error) { return c.lines, nil }

func (c *stubCart) Clear(context.Context) error {
	c.lines = nil
	c.cleared++
	return nil
}

type stubCartService struct {
	cart      *stubCart
	lastOwner string
	merged    [][2]string
}

func (s *stubCartService) For(id domain.Identity, anonymousID string) (cartsvc.CartProvider, error) {
	switch {
	case id.Authenticated():
		s.lastOwner = id.CustomerID
	case anonymousID != "":
		s.lastOwner = anonymousID
	default:
		return nil, domain.ErrAuthenticationRequired
	}
	if s.cart == nil {
		s.cart = &stubCart{}
	}
	return s.cart, nil
}

func (s *stubCartService) MergeInto(_ context.Context, anonymousID, customerID string) error {
	s.merged = append(s.merged, [2]string{anonymousID, customerID})
	return nil
}

type stubOrderService struct {
	result   ordersvc.Result
	placeErr error
	lastIn   ordersvc.PlaceInput
	orders   []domain.Order
	intent   payment.Intent
}

func (s *stubOrderService) PlaceOrder(_ context.Context, _ domain.Identity, in ordersvc.PlaceInput) (ordersvc.Result, error) {
	s.lastIn = in
	return s.result, s.placeErr
}

func (s *stubOrderService) QuotePrice(context.Context, domain.Identity) (pricing.Quote, error) {
	return pricing.Price([]pricing.Line{{PriceCents: 1000, Count: 1}}), nil
}

func (s *stubOrderService) QuotePayment(_ context.Context, _ domain.Identity, _ string) (payment.Intent, pricing.Quote, error) {
	return s.intent, pricing.Price([]pricing.Line{{PriceCents: 1000, Count: 1}}), nil
}

func (s *stubOrderService) ListOrders(context.Context, domain.Identity) ([]domain.Order, error) {
	return s.orders, nil
}

func (s *stubOrderService) ListAllOrders(_ context.Context, id domain.Identity) ([]domain.Order, error) {
	if !id.Admin {
		return nil, domain.ErrAuthorizationDenied
	}
	return s.orders, nil
}

func (s *stubOrderService) GetOrder(_ context.Context, id domain.Identity, orderID string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID != orderID {
			continue
		}
		if !id.Owns(o.CustomerID) {
			return nil, domain.ErrAuthorizationDenied
		}
		return &o, nil
	}
	return nil, domain.ErrInvalidReference
}

func (s *stubOrderService) UpdateFulfillment(_ context.Context, id domain.Identity, orderID string, in ordersvc.FulfillmentInput) (*domain.Order, error) {
	if !id.Admin {
		return nil, domain.ErrAuthorizationDenied
	}
	o := domain.Order{ID: orderID, IsShipped: in.ShippedOn != nil}
	if in.TrackingNumber != nil {
		o.TrackingNumber = *in.TrackingNumber
	}
	return &o, nil
}

type stubAddressService struct {
	addresses []domain.Address
}

func (s *stubAddressService) Create(_ context.Context, id domain.Identity, in addresssvc.CreateInput) (*domain.Address, error) {
	if in.Country == "" {
		return nil, domain.ErrInvalidInput
	}
	return &domain.Address{ID: "addr-new", CustomerID: id.CustomerID, Country: in.Country, IsBilling: in.IsBilling}, nil
}

func (s *stubAddressService) List(context.Context, domain.Identity) ([]domain.Address, error) {
	return s.addresses, nil
}

func (s *stubAddressService) SetBilling(_ context.Context, id domain.Identity, addressID string) (*domain.Address, error) {
	return &domain.Address{ID: addressID, CustomerID: id.CustomerID, IsBilling: true}, nil
}

// testDeps has one customer ("customer-token") and one admin ("admin-token").
func testDeps() Deps {
	return Deps{
		CustomerSvc: &stubCustomerService{
			customer: &domain.Customer{ID: "cust-1", Email: "me@example.com"},
			tokens: map[string]domain.Identity{
				"customer-token": {CustomerID: "cust-1"},
				"admin-token":    {CustomerID: "admin-1", Admin: true},
			},
		},
		AnonymousSvc: &stubAnonymousService{sessions: map[string]string{"anon-token": "anon-1"}},
		Catalog:      &stubCatalog{},
		CartSvc:      &stubCartService{},
		OrderSvc:     &stubOrderService{},
		AddressSvc:   &stubAddressService{},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	router, err := buildRouter(logDiscard(), nil, deps, nil)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doRequestWithHeader(router *gin.Engine, method, path, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(header, value)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
