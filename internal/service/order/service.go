// Package order turns a customer's cart into an order. A checkout is priced and
// validated in a dry run, paid through the payment processor, then committed
// in one database transaction that also takes the stock and empties the cart.
package order

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/inventory"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	orderrepo "storefront/internal/repository/order"
)

// State is where a checkout attempt ended up.
type State string

const (
	StateQuoting         State = "quoting"
	StateDryRunValidated State = "dry_run_validated"
	StateCommitted       State = "committed"
	StateRolledBack      State = "rolled_back"
	StateFailed          State = "failed"
)

// errDryRun rolls back a transaction that validated successfully.
var errDryRun = errors.New("dry run")

type store interface {
	WithTx(ctx context.Context, fn func(tx orderrepo.Tx) error) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateFulfillment(ctx context.Context, id string, f orderrepo.Fulfillment) (*domain.Order, error)
}

type cartReader interface {
	List(ctx context.Context, customerID string) ([]domain.CartLine, error)
}

type payments interface {
	Quote(ctx context.Context, totalCents int64, existingID, customerID string) (payment.Intent, error)
	Lookup(ctx context.Context, id string) (payment.Intent, error)
}

type Service struct {
	store    store
	carts    cartReader
	payments payments
	logger   *zap.Logger
}

func New(store orderrepo.Repository, carts cartReader, payments payments, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, carts: carts, payments: payments, logger: logger.Named("order")}
}

type PlaceInput struct {
	AddressID       string `json:"addressId"`
	PaymentIntentID string `json:"paymentIntentId"`
	DryRun          bool   `json:"dryRun"`
}

// Result describes a checkout attempt. Order is the committed order, or the
// unsaved preview for a dry run.
type Result struct {
	Order *domain.Order `json:"order,omitempty"`
	Quote pricing.Quote `json:"quote"`
	State State         `json:"state"`
}

// PlaceOrder converts the caller's cart into an order. A dry run performs every
// check and returns the priced preview without changing anything. A real run
// requires a succeeded payment intent whose amount matches the order total.
func (s *Service) PlaceOrder(ctx context.Context, id domain.Identity, in PlaceInput) (Result, error) {
	res := Result{State: StateQuoting}
	if !id.Authenticated() {
		res.State = StateFailed
		return res, domain.ErrAuthenticationRequired
	}
	if in.AddressID == "" {
		res.State = StateFailed
		return res, fmt.Errorf("%w: addressId is required", domain.ErrInvalidInput)
	}

	var intent payment.Intent
	if !in.DryRun {
		if in.PaymentIntentID == "" {
			res.State = StateFailed
			return res, fmt.Errorf("%w: paymentIntentId is required", domain.ErrInvalidInput)
		}
		var err error
		intent, err = s.payments.Lookup(ctx, in.PaymentIntentID)
		if err != nil {
			res.State = StateFailed
			return res, err
		}
		if !intent.OwnedBy(id.CustomerID) {
			s.logger.Warn("checkout with another customer's payment intent",
				zap.String("customer", id.CustomerID),
				zap.String("intent", intent.ID))
			res.State = StateFailed
			return res, fmt.Errorf("payment intent %s: %w", intent.ID, domain.ErrInvalidReference)
		}
		if !intent.Succeeded() {
			res.State = StateFailed
			return res, fmt.Errorf("intent %s status %q: %w", intent.ID, intent.Status, domain.ErrPaymentNotConfirmed)
		}
	}

	var placed *domain.Order
	var quote pricing.Quote
	err := s.store.WithTx(ctx, func(tx orderrepo.Tx) error {
		var err error
		placed, quote, err = commit(ctx, tx, id.CustomerID, in)
		if err != nil {
			return err
		}
		if in.DryRun {
			return errDryRun
		}
		if intent.AmountCents != quote.TotalCents {
			return fmt.Errorf("intent %s amount %d, order total %d: %w",
				intent.ID, intent.AmountCents, quote.TotalCents, domain.ErrPaymentAmountMismatch)
		}
		return nil
	})

	switch {
	case errors.Is(err, errDryRun):
		placed.ID = ""
		for i := range placed.Lines {
			placed.Lines[i].OrderID = ""
		}
		res.Order, res.Quote, res.State = placed, quote, StateDryRunValidated
		return res, nil
	case err != nil:
		res.State = StateRolledBack
		s.logger.Info("checkout rolled back",
			zap.String("customer", id.CustomerID),
			zap.Bool("dryRun", in.DryRun),
			zap.Error(err))
		return res, fmt.Errorf("%w: %w", domain.ErrTransactionAborted, err)
	}

	res.Order, res.Quote, res.State = placed, quote, StateCommitted
	s.logger.Info("order committed",
		zap.String("order", placed.ID),
		zap.String("customer", id.CustomerID),
		zap.String("intent", placed.PaymentIntentID),
		zap.Int64("total", quote.TotalCents),
		zap.Int("lines", len(placed.Lines)))
	return res, nil
}

// commit runs every write of a checkout on tx. The caller decides whether the
// transaction is kept.
func commit(ctx context.Context, tx orderrepo.Tx, customerID string, in PlaceInput) (*domain.Order, pricing.Quote, error) {
	owned, err := tx.AddressOwned(ctx, customerID, in.AddressID)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	if !owned {
		return nil, pricing.Quote{}, fmt.Errorf("address %s: %w", in.AddressID, domain.ErrInvalidReference)
	}

	o := &domain.Order{
		CustomerID:      customerID,
		AddressID:       in.AddressID,
		PaymentIntentID: in.PaymentIntentID,
	}
	if err := tx.InsertOrder(ctx, o); err != nil {
		return nil, pricing.Quote{}, err
	}

	cart, err := tx.CartLinesForUpdate(ctx, customerID)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	if len(cart) == 0 {
		return nil, pricing.Quote{}, domain.ErrEmptyCart
	}

	for _, item := range cart {
		p, err := inventory.Reserve(ctx, tx, item.Product.ID, item.Count)
		if err != nil {
			return nil, pricing.Quote{}, err
		}
		line := domain.OrderLine{
			OrderID:      o.ID,
			ProductID:    p.ID,
			ProductTitle: p.Title,
			Count:        item.Count,
			PriceCents:   p.PriceCents,
		}
		if err := tx.InsertOrderLine(ctx, line); err != nil {
			return nil, pricing.Quote{}, err
		}
		if err := tx.DeleteCartItem(ctx, customerID, p.ID); err != nil {
			return nil, pricing.Quote{}, err
		}
		o.Lines = append(o.Lines, line)
	}
	return o, pricing.Price(pricing.FromOrder(o.Lines)), nil
}

// QuotePrice prices the caller's cart at current product prices.
func (s *Service) QuotePrice(ctx context.Context, id domain.Identity) (pricing.Quote, error) {
	_, quote, err := s.priceCart(ctx, id)
	return quote, err
}

// QuotePayment prices the cart and creates or re-quotes the payment intent for
// the total. A cart of free products is not empty, the processor rejects its
// zero total instead.
func (s *Service) QuotePayment(ctx context.Context, id domain.Identity, existingIntentID string) (payment.Intent, pricing.Quote, error) {
	lines, quote, err := s.priceCart(ctx, id)
	if err != nil {
		return payment.Intent{}, pricing.Quote{}, err
	}
	if len(lines) == 0 {
		return payment.Intent{}, quote, domain.ErrEmptyCart
	}
	intent, err := s.payments.Quote(ctx, quote.TotalCents, existingIntentID, id.CustomerID)
	if err != nil {
		return payment.Intent{}, quote, err
	}
	return intent, quote, nil
}

func (s *Service) priceCart(ctx context.Context, id domain.Identity) ([]domain.CartLine, pricing.Quote, error) {
	if !id.Authenticated() {
		return nil, pricing.Quote{}, domain.ErrAuthenticationRequired
	}
	lines, err := s.carts.List(ctx, id.CustomerID)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	return lines, pricing.Price(pricing.FromCart(lines)), nil
}

func (s *Service) ListOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrAuthenticationRequired
	}
	return s.store.ListByCustomer(ctx, id.CustomerID)
}

func (s *Service) ListAllOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.store.ListAll(ctx)
}

// GetOrder returns the order when the caller owns it or is an admin.
func (s *Service) GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrAuthenticationRequired
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrInvalidReference)
		}
		return nil, err
	}
	if !id.Owns(o.CustomerID) {
		return nil, domain.ErrAuthorizationDenied
	}
	return o, nil
}

type FulfillmentInput = orderrepo.Fulfillment

// UpdateFulfillment changes shipping and completion metadata. Lines and prices
// are never touched.
func (s *Service) UpdateFulfillment(ctx context.Context, id domain.Identity, orderID string, in FulfillmentInput) (*domain.Order, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	o, err := s.store.UpdateFulfillment(ctx, orderID, in)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrInvalidReference)
		}
		return nil, err
	}
	s.logger.Info("fulfillment updated", zap.String("order", orderID), zap.Bool("shipped", o.IsShipped), zap.Bool("complete", o.IsComplete))
	return o, nil
}

func requireAdmin(id domain.Identity) error {
	if !id.Authenticated() {
		return domain.ErrAuthenticationRequired
	}
	if !id.Admin {
		return domain.ErrAuthorizationDenied
	}
	return nil
}
