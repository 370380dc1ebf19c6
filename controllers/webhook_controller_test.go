package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianfeister/rawelegancecreations/models"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

const webhookSecret = "whsec_controller_test"

func sign(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

const expiredWithoutEmail = `{"id":"evt_1","object":"event","type":"checkout.session.expired",
"data":{"object":{"id":"cs_test_1","object":"checkout.session","customer_details":null}}}`

func newWebhookRouter(fulfillment services.FulfillmentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	wc := NewWebhookController(fulfillment, nil, zap.NewNop())
	router.POST("/webhooks/abandoned-checkout", wc.Handle("abandoned-checkout", services.NewWebhookVerifier(webhookSecret)))
	return router
}

func TestWebhookController_EchoesObject(t *testing.T) {
	fulfillment := new(MockFulfillmentService)
	router := newWebhookRouter(fulfillment)

	fulfillment.On("Handle", mock.Anything, mock.MatchedBy(func(e *models.WebhookEvent) bool {
		return e.ID == "evt_1" && e.SessionExpired != nil && e.SessionExpired.Email == ""
	})).Return(nil).Once()

	payload := []byte(expiredWithoutEmail)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/abandoned-checkout", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sign(payload))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"id":"cs_test_1","object":"checkout.session","customer_details":null}`, recorder.Body.String())
	fulfillment.AssertExpectations(t)
}

func TestWebhookController_RejectsBeforeProcessing(t *testing.T) {
	fulfillment := new(MockFulfillmentService)
	router := newWebhookRouter(fulfillment)

	payload := []byte(expiredWithoutEmail)
	tampered := []byte(strings.Replace(expiredWithoutEmail, "cs_test_1", "cs_test_2", 1))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/abandoned-checkout", bytes.NewReader(tampered))
	req.Header.Set("Stripe-Signature", sign(payload))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Webhook Error:")
	fulfillment.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestWebhookController_TooLarge(t *testing.T) {
	fulfillment := new(MockFulfillmentService)
	router := newWebhookRouter(fulfillment)

	payload := []byte(strings.Repeat("x", services.MaxWebhookBodyBytes+10))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/abandoned-checkout", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sign(payload))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
	fulfillment.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestWebhookController_UpstreamFailure(t *testing.T) {
	fulfillment := new(MockFulfillmentService)
	router := newWebhookRouter(fulfillment)

	fulfillment.On("Handle", mock.Anything, mock.Anything).
		Return(&services.ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to upsert subscriber: timeout"}).Once()

	payload := []byte(expiredWithoutEmail)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/abandoned-checkout", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", sign(payload))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"Failed to upsert subscriber: timeout"}`, recorder.Body.String())
}
