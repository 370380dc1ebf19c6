package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianfeister/rawelegancecreations/models"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateCheckoutController(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success - 200 OK", func(t *testing.T) {
		mockService := new(MockCheckoutService)
		router := gin.New()
		router.POST("/checkout", NewCheckoutController(mockService).CreateCheckout)

		mockService.On("CreateSession", mock.Anything, mock.MatchedBy(func(req *models.CheckoutSessionRequest) bool {
			return len(req.Cart) == 1 && req.Cart[0].PriceID == "price_1" && req.Email == "jane@example.com" && req.Consent
		})).Return(&models.CheckoutSessionResponse{SessionID: "cs_test_1", PublishableKey: "pk_test_123"}, nil).Once()

		payload := `{"cart":[{"name":"Ring","unit_amount":1000,"quantity":1,"price_id":"price_1"}],"email":"jane@example.com","consent":true}`
		req, _ := http.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"sessionId":"cs_test_1","publishableKey":"pk_test_123"}`, recorder.Body.String())
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - Malformed JSON - 400 Bad Request", func(t *testing.T) {
		mockService := new(MockCheckoutService)
		router := gin.New()
		router.POST("/checkout", NewCheckoutController(mockService).CreateCheckout)

		req, _ := http.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(`{"cart":`))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockService.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Provider Error - 500", func(t *testing.T) {
		mockService := new(MockCheckoutService)
		router := gin.New()
		router.POST("/checkout", NewCheckoutController(mockService).CreateCheckout)

		mockService.On("CreateSession", mock.Anything, mock.Anything).
			Return(nil, &services.ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to create checkout session: card declined"}).Once()

		req, _ := http.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(`{"cart":[]}`))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.JSONEq(t, `{"error":"Failed to create checkout session: card declined"}`, recorder.Body.String())
	})
}

func TestCreateNewCustomerPromoController(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success - 200 OK", func(t *testing.T) {
		mockService := new(MockPromoService)
		router := gin.New()
		router.POST("/promotions/new-customer", NewPromoController(mockService).CreateNewCustomerPromo)

		mockService.On("IssueNewCustomerCode", mock.Anything, "cus_123").
			Return(&models.PromotionCode{ID: "promo_1", Code: "RECVIP10", CustomerID: "cus_123", MaxRedemptions: 1}, nil).Once()

		req, _ := http.NewRequest(http.MethodPost, "/promotions/new-customer", bytes.NewBufferString(`{"customer":{"id":"cus_123"}}`))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"promotionCode":{"id":"promo_1"`)
		mockService.AssertExpectations(t)
	})

	t.Run("Failure - Missing Customer - 400", func(t *testing.T) {
		mockService := new(MockPromoService)
		router := gin.New()
		router.POST("/promotions/new-customer", NewPromoController(mockService).CreateNewCustomerPromo)

		mockService.On("IssueNewCustomerCode", mock.Anything, "").
			Return(nil, &services.ServiceError{StatusCode: http.StatusBadRequest, Message: "customer.id is required"}).Once()

		req, _ := http.NewRequest(http.MethodPost, "/promotions/new-customer", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.JSONEq(t, `{"error":"customer.id is required"}`, recorder.Body.String())
	})
}
