package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"storefront/internal/domain"
)

// StripeProcessor talks to Stripe's PaymentIntents API.
type StripeProcessor struct {
	api      *client.API
	currency string
}

func NewStripe(secretKey, currency string) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProcessor{api: api, currency: currency}
}

// metadataCustomer is the intent metadata key holding the customer id.
const metadataCustomer = "customer_id"

func (s *StripeProcessor) Create(ctx context.Context, amountCents int64, customerID string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataCustomer, customerID)
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, err
	}
	return fromStripe(pi), nil
}

func (s *StripeProcessor) Retrieve(ctx context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return Intent{}, mapStripeErr(err)
	}
	return fromStripe(pi), nil
}

func (s *StripeProcessor) UpdateAmount(ctx context.Context, id string, amountCents int64) (Intent, error) {
	params := &stripe.PaymentIntentParams{Amount: stripe.Int64(amountCents)}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Update(id, params)
	if err != nil {
		return Intent{}, mapStripeErr(err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Status:       string(pi.Status),
		CustomerID:   pi.Metadata[metadataCustomer],
	}
}

func mapStripeErr(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
		return domain.ErrNotFound
	}
	return err
}
