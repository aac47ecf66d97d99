package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/shopdock/reepay-sync.go/db/models"
	"github.com/shopdock/reepay-sync.go/reepay"
	"github.com/ziflex/lecho/v3"
)

// memStore is an in-memory Store used by the unit tests. It shares the
// lookup semantics of the bun-backed store, including sql.ErrNoRows on
// missing rows and compare-and-swap lock acquisition.
type memStore struct {
	mu            sync.Mutex
	orders        map[int64]*models.Order
	lines         map[int64]*models.OrderLine
	refunds       []*models.Refund
	subscriptions map[string]*models.Subscription
	tokens        map[int64]*models.PaymentToken
	customers     map[string]*models.Customer
	nextID        int64

	// spies: rejected webhooks must never touch the store, and token
	// links must reach an explicit subscription write
	orderLookups        int
	subscriptionUpdates int
}

func newMemStore() *memStore {
	return &memStore{
		orders:        make(map[int64]*models.Order),
		lines:         make(map[int64]*models.OrderLine),
		subscriptions: make(map[string]*models.Subscription),
		tokens:        make(map[int64]*models.PaymentToken),
		customers:     make(map[string]*models.Customer),
	}
}

func (s *memStore) addOrder(order *models.Order) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == 0 {
		s.nextID++
		order.ID = s.nextID
	}
	s.orders[order.ID] = order
	for _, line := range order.Lines {
		if line.ID == 0 {
			s.nextID++
			line.ID = s.nextID
		}
		line.OrderID = order.ID
		s.lines[line.ID] = line
	}
	return order
}

func (s *memStore) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderLookups++
	order, ok := s.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return order, nil
}

func (s *memStore) OrderByHandle(ctx context.Context, handle string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderLookups++
	for _, order := range s.orders {
		if order.Handle == handle && handle != "" {
			return order, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memStore) OrderBySubscriptionHandle(ctx context.Context, handle string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderLookups++
	for _, order := range s.orders {
		if order.SubscriptionHandle == handle && handle != "" {
			return order, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memStore) OrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderLookups++
	for _, order := range s.orders {
		if order.SessionID == sessionID && sessionID != "" {
			return order, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return sql.ErrNoRows
	}
	s.orders[order.ID] = order
	return nil
}

func (s *memStore) InsertOrderLine(ctx context.Context, line *models.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	line.ID = s.nextID
	s.lines[line.ID] = line
	return nil
}

func (s *memStore) UpdateOrderLine(ctx context.Context, line *models.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[line.ID]; !ok {
		return sql.ErrNoRows
	}
	s.lines[line.ID] = line
	return nil
}

func (s *memStore) TryLockOrder(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	if order.Locked {
		return false, nil
	}
	order.Locked = true
	return true, nil
}

func (s *memStore) UnlockOrder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return sql.ErrNoRows
	}
	order.Locked = false
	return nil
}

func (s *memStore) CreateRefund(ctx context.Context, refund *models.Refund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.refunds {
		if existing.CreditNoteID == refund.CreditNoteID {
			return errors.New("duplicate credit note id")
		}
	}
	s.nextID++
	refund.ID = s.nextID
	s.refunds = append(s.refunds, refund)
	return nil
}

func (s *memStore) SubscriptionByHandle(ctx context.Context, handle string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subscription, ok := s.subscriptions[handle]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return subscription, nil
}

func (s *memStore) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[subscription.Handle]; !ok {
		return sql.ErrNoRows
	}
	s.subscriptionUpdates++
	s.subscriptions[subscription.Handle] = subscription
	return nil
}

func (s *memStore) PaymentTokenByID(ctx context.Context, id int64) (*models.PaymentToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return token, nil
}

func (s *memStore) CreatePaymentToken(ctx context.Context, token *models.PaymentToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tokens {
		if existing.Token == token.Token {
			return errors.New("duplicate token")
		}
	}
	s.nextID++
	token.ID = s.nextID
	s.tokens[token.ID] = token
	return nil
}

func (s *memStore) CustomerByHandle(ctx context.Context, handle string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customers[handle]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return customer, nil
}

func (s *memStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	customer.ID = s.nextID
	s.customers[customer.Handle] = customer
	return nil
}

var _ Store = (*memStore)(nil)

// mockReepayClient stubs the processor with per-call function fields.
// Calls without a configured function fail loudly so a test cannot hit the
// processor by accident.
type mockReepayClient struct {
	getInvoiceFunc         func(ctx context.Context, handle string) (*reepay.Invoice, error)
	createChargeFunc       func(ctx context.Context, req *reepay.ChargeRequest) (*reepay.Charge, error)
	settleChargeFunc       func(ctx context.Context, handle string, req *reepay.SettleRequest) (*reepay.SettleResult, error)
	cancelChargeFunc       func(ctx context.Context, handle string) (*reepay.Charge, error)
	createRefundFunc       func(ctx context.Context, req *reepay.RefundRequest) (*reepay.RefundResult, error)
	getTransactionFunc     func(ctx context.Context, invoiceHandle, transactionID string) (*reepay.Transaction, error)
	getSubscriptionFunc    func(ctx context.Context, handle string) (*reepay.Subscription, error)
	getWebhookSettingsFunc func(ctx context.Context) (*reepay.WebhookSettings, error)
}

var errUnexpectedCall = errors.New("unexpected processor call")

func (m *mockReepayClient) GetInvoice(ctx context.Context, handle string) (*reepay.Invoice, error) {
	if m.getInvoiceFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.getInvoiceFunc(ctx, handle)
}

func (m *mockReepayClient) CreateCharge(ctx context.Context, req *reepay.ChargeRequest) (*reepay.Charge, error) {
	if m.createChargeFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.createChargeFunc(ctx, req)
}

func (m *mockReepayClient) SettleCharge(ctx context.Context, handle string, req *reepay.SettleRequest) (*reepay.SettleResult, error) {
	if m.settleChargeFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.settleChargeFunc(ctx, handle, req)
}

func (m *mockReepayClient) CancelCharge(ctx context.Context, handle string) (*reepay.Charge, error) {
	if m.cancelChargeFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.cancelChargeFunc(ctx, handle)
}

func (m *mockReepayClient) CreateRefund(ctx context.Context, req *reepay.RefundRequest) (*reepay.RefundResult, error) {
	if m.createRefundFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.createRefundFunc(ctx, req)
}

func (m *mockReepayClient) GetTransaction(ctx context.Context, invoiceHandle, transactionID string) (*reepay.Transaction, error) {
	if m.getTransactionFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.getTransactionFunc(ctx, invoiceHandle, transactionID)
}

func (m *mockReepayClient) GetSubscription(ctx context.Context, handle string) (*reepay.Subscription, error) {
	if m.getSubscriptionFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.getSubscriptionFunc(ctx, handle)
}

func (m *mockReepayClient) GetWebhookSettings(ctx context.Context) (*reepay.WebhookSettings, error) {
	if m.getWebhookSettingsFunc == nil {
		return nil, errUnexpectedCall
	}
	return m.getWebhookSettingsFunc(ctx)
}

var _ reepay.Client = (*mockReepayClient)(nil)

func testConfig() *Config {
	return &Config{
		SyncEnabled:       true,
		StatusCreated:     "pending",
		StatusAuthorized:  "on-hold",
		StatusSettled:     "processing",
		StatusCancelled:   "cancelled",
		StatusFailed:      "failed",
		SettleTypes:       []string{"physical", "virtual"},
		OrderLockAttempts: 3,
		OrderLockWaitMs:   1,
		WebhookSecretTTL:  3600,
	}
}

func newTestService() (*SyncService, *memStore, *mockReepayClient) {
	store := newMemStore()
	client := &mockReepayClient{}
	svc := New(testConfig(), store, client, lecho.New(io.Discard))
	return svc, store, client
}

// fixedClock pins svc.now for deterministic handles and cache TTLs.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
