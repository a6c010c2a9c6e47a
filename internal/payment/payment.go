// Package payment keeps the payment processor's intent in step with the order total.
package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// StatusSucceeded is the processor status of a confirmed payment.
const StatusSucceeded = "succeeded"

// Intent is the processor-side record of a pending or completed charge.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amount"`
	Status       string `json:"status"`
	// CustomerID is the customer the intent was created for. It travels in
	// the processor's metadata and is never sent to clients.
	CustomerID string `json:"-"`
}

// Succeeded reports whether the customer has confirmed the payment.
func (i Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// OwnedBy reports whether the intent was created for customerID.
func (i Intent) OwnedBy(customerID string) bool {
	return customerID != "" && i.CustomerID == customerID
}

// Processor is an external payment provider.
type Processor interface {
	// Create opens an intent and records customerID in its metadata.
	Create(ctx context.Context, amountCents int64, customerID string) (Intent, error)
	Retrieve(ctx context.Context, id string) (Intent, error)
	UpdateAmount(ctx context.Context, id string, amountCents int64) (Intent, error)
}

// Coordinator creates or re-quotes intents and answers whether one is paid.
type Coordinator struct {
	processor Processor
	logger    *zap.Logger
}

func NewCoordinator(processor Processor, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{processor: processor, logger: logger}
}

// Quote returns an intent of customerID for totalCents. Without existingID a
// new intent is created. An existing intent must belong to customerID. A
// succeeded intent is returned unchanged since it can no longer be re-priced;
// otherwise its amount is updated when it differs.
func (c *Coordinator) Quote(ctx context.Context, totalCents int64, existingID, customerID string) (Intent, error) {
	if totalCents <= 0 {
		return Intent{}, fmt.Errorf("%w: payment amount must be positive", domain.ErrInvalidInput)
	}
	if existingID == "" {
		intent, err := c.processor.Create(ctx, totalCents, customerID)
		if err != nil {
			return Intent{}, c.providerErr("create", err)
		}
		c.logger.Info("payment intent created", zap.String("intent", intent.ID), zap.Int64("amount", totalCents))
		return intent, nil
	}

	intent, err := c.Lookup(ctx, existingID)
	if err != nil {
		return Intent{}, err
	}
	if !intent.OwnedBy(customerID) {
		c.logger.Warn("payment intent belongs to another customer",
			zap.String("intent", existingID),
			zap.String("customer", customerID))
		return Intent{}, fmt.Errorf("payment intent %s: %w", existingID, domain.ErrInvalidReference)
	}
	if intent.Succeeded() || intent.AmountCents == totalCents {
		return intent, nil
	}
	updated, err := c.processor.UpdateAmount(ctx, existingID, totalCents)
	if err != nil {
		return Intent{}, c.providerErr("update", err)
	}
	c.logger.Info("payment intent re-quoted",
		zap.String("intent", existingID),
		zap.Int64("from", intent.AmountCents),
		zap.Int64("to", totalCents))
	return updated, nil
}

// Lookup fetches the intent as the processor currently sees it.
func (c *Coordinator) Lookup(ctx context.Context, id string) (Intent, error) {
	if id == "" {
		return Intent{}, fmt.Errorf("%w: payment intent id is required", domain.ErrInvalidInput)
	}
	intent, err := c.processor.Retrieve(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Intent{}, fmt.Errorf("payment intent %s: %w", id, domain.ErrInvalidReference)
		}
		return Intent{}, c.providerErr("retrieve", err)
	}
	return intent, nil
}

// Confirmed reports whether the intent has succeeded.
func (c *Coordinator) Confirmed(ctx context.Context, id string) (bool, error) {
	intent, err := c.Lookup(ctx, id)
	if err != nil {
		return false, err
	}
	return intent.Succeeded(), nil
}

func (c *Coordinator) providerErr(op string, err error) error {
	c.logger.Warn("payment processor call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", domain.ErrPaymentProvider, op, err)
}
