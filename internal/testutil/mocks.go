package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/dafibh/piflow/piflow-backend/internal/domain"
	"github.com/dafibh/piflow/piflow-backend/internal/websocket"
)

// MockHorizonClient is a mock implementation of domain.HorizonClient.
// It is safe for concurrent use, since the transfer engine calls it from
// many goroutines at once.
type MockHorizonClient struct {
	mu sync.Mutex

	// Accounts maps account id to the record GetAccount returns.
	// Missing ids yield domain.ErrAccountNotFound.
	Accounts map[string]*domain.Account

	// BaseFee is returned by FetchBaseFee (default 100 when zero)
	BaseFee int64

	// Optional overrides; when set they replace the default behavior
	GetAccountFn   func(ctx context.Context, accountID string) (*domain.Account, error)
	FetchBaseFeeFn func(ctx context.Context) (int64, error)
	SubmitFn       func(ctx context.Context, xdr string) (*domain.SubmissionResponse, error)

	// Call records
	GetAccountCalls int
	SubmittedXDRs   []string
}

// NewMockHorizonClient creates a new MockHorizonClient
func NewMockHorizonClient() *MockHorizonClient {
	return &MockHorizonClient{
		Accounts: make(map[string]*domain.Account),
	}
}

// AddAccount registers an account with the given native balance and sequence
func (m *MockHorizonClient) AddAccount(accountID, nativeBalance string, sequence int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accounts[accountID] = &domain.Account{
		AccountID: accountID,
		Sequence:  sequence,
		Balances: []domain.Balance{
			{AssetType: "native", Balance: nativeBalance},
		},
	}
}

// GetAccount returns the registered account or domain.ErrAccountNotFound
func (m *MockHorizonClient) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if m.GetAccountFn != nil {
		return m.GetAccountFn(ctx, accountID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetAccountCalls++
	if account, ok := m.Accounts[accountID]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

// FetchBaseFee returns the configured base fee
func (m *MockHorizonClient) FetchBaseFee(ctx context.Context) (int64, error) {
	if m.FetchBaseFeeFn != nil {
		return m.FetchBaseFeeFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BaseFee == 0 {
		return 100, nil
	}
	return m.BaseFee, nil
}

// SubmitTransaction records the submission and reports success
func (m *MockHorizonClient) SubmitTransaction(ctx context.Context, xdr string) (*domain.SubmissionResponse, error) {
	if m.SubmitFn != nil {
		m.mu.Lock()
		m.SubmittedXDRs = append(m.SubmittedXDRs, xdr)
		m.mu.Unlock()
		return m.SubmitFn(ctx, xdr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmittedXDRs = append(m.SubmittedXDRs, xdr)
	return &domain.SubmissionResponse{
		StatusCode: 200,
		Hash:       fmt.Sprintf("hash-%d", len(m.SubmittedXDRs)),
	}, nil
}

// SubmissionCount returns how many transactions were submitted
func (m *MockHorizonClient) SubmissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SubmittedXDRs)
}

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []websocket.Event
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// EventTypes returns the types of all recorded events in order
func (m *MockEventPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Type)
	}
	return types
}
