package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockProvider is a test double that records calls and returns
// configurable results.
type MockProvider struct {
	mu sync.Mutex

	// CreatedSessions collects the params of every created session.
	CreatedSessions []CheckoutParams
	// Sessions maps session ID -> details returned by GetCheckoutSession.
	Sessions map[string]*SessionDetails
	// Events maps signature -> event returned by VerifyWebhook.
	Events map[string]Event

	// Error fields allow tests to inject failures.
	CreateErr error
	GetErr    error
	VerifyErr error

	nextSessionSeq int
}

// NewMockProvider creates a MockProvider ready for use
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*SessionDetails),
		Events:   make(map[string]Event),
	}
}

// CreateCheckoutSession records the params and returns a mock session
func (m *MockProvider) CreateCheckoutSession(_ context.Context, params CheckoutParams) (*CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.nextSessionSeq++
	id := fmt.Sprintf("cs_mock_%d", m.nextSessionSeq)
	m.CreatedSessions = append(m.CreatedSessions, params)

	return &CheckoutSession{
		ID:  id,
		URL: "https://checkout.example.com/" + id,
	}, nil
}

// GetCheckoutSession returns a pre-seeded session
func (m *MockProvider) GetCheckoutSession(_ context.Context, sessionID string) (*SessionDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}

	details, ok := m.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("billing: session %s not found", sessionID)
	}
	return details, nil
}

// VerifyWebhook returns a pre-seeded event keyed by signature
func (m *MockProvider) VerifyWebhook(payload []byte, signature string) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.VerifyErr != nil {
		return Event{}, m.VerifyErr
	}

	if event, ok := m.Events[signature]; ok {
		return event, nil
	}

	// Unseeded signatures pass the payload through as-is so tests can
	// exercise the processor without constructing real signatures.
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Event{}, fmt.Errorf("billing: invalid payload: %w", err)
	}
	return Event{Type: envelope.Type, Data: envelope.Data}, nil
}
