package services_test

import (
	"context"
	"sync"

	"github.com/brianfeister/rawelegancecreations/models"

	"github.com/stretchr/testify/mock"
)

// --- Mock Payment Provider ---

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockPaymentProvider) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*models.Customer, error) {
	args := m.Called(ctx, email, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockPaymentProvider) CreateCheckoutSession(ctx context.Context, opts models.SessionOptions) (*models.CheckoutSession, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) FirstLineItemProductID(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) GetProduct(ctx context.Context, productID string) (*models.ProductSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductSummary), args.Error(1)
}

func (m *MockPaymentProvider) CreatePromotionCode(ctx context.Context, couponID, customerID, code string) (*models.PromotionCode, error) {
	args := m.Called(ctx, couponID, customerID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromotionCode), args.Error(1)
}

// --- In-memory Mailing List ---

type memoryMailingList struct {
	mu          sync.Mutex
	subscribers map[string]models.Subscriber
	upserts     int
	lastUpsert  models.Subscriber
	getErr      error
	upsertErr   error
}

func newMemoryMailingList() *memoryMailingList {
	return &memoryMailingList{subscribers: make(map[string]models.Subscriber)}
}

func (l *memoryMailingList) GetSubscriber(_ context.Context, email string) (*models.Subscriber, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.getErr != nil {
		return nil, l.getErr
	}
	sub, ok := l.subscribers[email]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (l *memoryMailingList) UpsertSubscriber(_ context.Context, sub models.Subscriber) (*models.Subscriber, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.upsertErr != nil {
		return nil, l.upsertErr
	}
	l.upserts++
	l.lastUpsert = sub
	if sub.ID == "" {
		sub.ID = "sub_" + sub.Email
	}
	// Like both providers, fields that are not sent keep their value.
	if prev, ok := l.subscribers[sub.Email]; ok && len(prev.Fields) > 0 {
		merged := make(map[string]string, len(prev.Fields)+len(sub.Fields))
		for k, v := range prev.Fields {
			merged[k] = v
		}
		for k, v := range sub.Fields {
			merged[k] = v
		}
		sub.Fields = merged
	}
	l.subscribers[sub.Email] = sub
	return &sub, nil
}

// --- Mock SNS Publisher ---

type mockSNSPublisher struct {
	topics     []string
	eventTypes []string
	messages   [][]byte
	err        error
}

func (m *mockSNSPublisher) PublishEvent(_ context.Context, topicArn, eventType string, message []byte) error {
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topicArn)
	m.eventTypes = append(m.eventTypes, eventType)
	m.messages = append(m.messages, message)
	return nil
}

// --- Mock Metrics ---

type mockMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{counts: make(map[string]int)}
}

func (m *mockMetrics) RecordCount(_ context.Context, metricName string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metricName]++
	return nil
}
