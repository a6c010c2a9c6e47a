package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// MemoryProcessor is an in-process Processor used when no provider key is
// configured. Intents only succeed through Succeed.
type MemoryProcessor struct {
	mu      sync.Mutex
	intents map[string]Intent
	creates int
	updates int
}

func NewMemoryProcessor() *MemoryProcessor {
	return &MemoryProcessor{intents: make(map[string]Intent)}
}

func (m *MemoryProcessor) Create(_ context.Context, amountCents int64, customerID string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "pi_" + uuid.NewString()
	intent := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		AmountCents:  amountCents,
		Status:       "requires_payment_method",
		CustomerID:   customerID,
	}
	m.intents[id] = intent
	m.creates++
	return intent, nil
}

func (m *MemoryProcessor) Retrieve(_ context.Context, id string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return Intent{}, domain.ErrNotFound
	}
	return intent, nil
}

func (m *MemoryProcessor) UpdateAmount(_ context.Context, id string, amountCents int64) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return Intent{}, domain.ErrNotFound
	}
	intent.AmountCents = amountCents
	m.intents[id] = intent
	m.updates++
	return intent, nil
}

// Succeed marks an intent as paid, standing in for the customer confirming it.
func (m *MemoryProcessor) Succeed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return domain.ErrNotFound
	}
	intent.Status = StatusSucceeded
	m.intents[id] = intent
	return nil
}

// Calls returns how many intents were created and updated.
func (m *MemoryProcessor) Calls() (creates, updates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.updates
}
