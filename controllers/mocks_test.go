package controllers

import (
	"context"
	"sync"

	"github.com/brianfeister/rawelegancecreations/models"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/stretchr/testify/mock"
)

// --- Mock Services ---

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) CreateSession(ctx context.Context, req *models.CheckoutSessionRequest) (*models.CheckoutSessionResponse, *services.ServiceError) {
	args := m.Called(ctx, req)
	var resp *models.CheckoutSessionResponse
	if v := args.Get(0); v != nil {
		resp = v.(*models.CheckoutSessionResponse)
	}
	var svcErr *services.ServiceError
	if v := args.Get(1); v != nil {
		svcErr = v.(*services.ServiceError)
	}
	return resp, svcErr
}

type MockPromoService struct {
	mock.Mock
}

func (m *MockPromoService) IssueNewCustomerCode(ctx context.Context, customerID string) (*models.PromotionCode, *services.ServiceError) {
	args := m.Called(ctx, customerID)
	var promo *models.PromotionCode
	if v := args.Get(0); v != nil {
		promo = v.(*models.PromotionCode)
	}
	var svcErr *services.ServiceError
	if v := args.Get(1); v != nil {
		svcErr = v.(*services.ServiceError)
	}
	return promo, svcErr
}

type MockFulfillmentService struct {
	mock.Mock
}

func (m *MockFulfillmentService) Handle(ctx context.Context, event *models.WebhookEvent) *services.ServiceError {
	args := m.Called(ctx, event)
	if v := args.Get(0); v != nil {
		return v.(*services.ServiceError)
	}
	return nil
}

// --- Metrics recorder ---

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: make(map[string]int)}
}

func (m *countingMetrics) RecordCount(_ context.Context, metricName string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metricName]++
	return nil
}

func (m *countingMetrics) count(metricName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[metricName]
}
