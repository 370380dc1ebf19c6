package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianfeister/rawelegancecreations/cart"
	"github.com/brianfeister/rawelegancecreations/models"
	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"
	"github.com/brianfeister/rawelegancecreations/repository"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cartBody struct {
	Cart      []models.CartProduct `json:"cart"`
	Subtotal  int64                `json:"subtotal"`
	ItemCount int                  `json:"item_count"`
}

func newCartRouter(t *testing.T, checkout *MockCheckoutService) *gin.Engine {
	return newCartRouterWithMetrics(t, checkout, nil)
}

func newCartRouterWithMetrics(t *testing.T, checkout *MockCheckoutService, metrics services.MetricsRecorder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := cart.NewStore(repository.NewCartRepository(client, time.Hour))
	cc := NewCartController(store, checkout, metrics, zap.NewNop())

	router := gin.New()
	router.GET("/cart/:id", cc.GetCart)
	router.DELETE("/cart/:id", cc.ClearCart)
	router.POST("/cart/:id/items", cc.AddItem)
	router.PATCH("/cart/:id/items/:priceID", cc.SetQuantity)
	router.DELETE("/cart/:id/items/:itemID", cc.RemoveItem)
	router.POST("/cart/:id/checkout", cc.Checkout)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeCart(t *testing.T, recorder *httptest.ResponseRecorder) cartBody {
	t.Helper()
	var body cartBody
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

const braceletJSON = `{"id":"prod_bracelet","name":"Bracelet","prices":[
	{"id":"price_small","nickname":"Small","unit_amount":1500,"active":true},
	{"id":"price_large","nickname":"Large","unit_amount":3000,"active":true}]}`

func TestCartController_Lifecycle(t *testing.T) {
	router := newCartRouter(t, new(MockCheckoutService))

	recorder := doJSON(t, router, http.MethodGet, "/cart/abc", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"cart":[],"subtotal":0,"item_count":0}`, recorder.Body.String())

	recorder = doJSON(t, router, http.MethodPost, "/cart/abc/items", `{"product":`+braceletJSON+`,"price_id":"price_small","quantity":2}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, int64(3000), decodeCart(t, recorder).Subtotal)

	recorder = doJSON(t, router, http.MethodPost, "/cart/abc/items", `{"product":`+braceletJSON+`,"price_id":"price_large","quantity":1}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeCart(t, recorder)
	assert.Equal(t, int64(6000), body.Subtotal)
	assert.Equal(t, 3, body.ItemCount)

	recorder = doJSON(t, router, http.MethodPatch, "/cart/abc/items/price_small", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, int64(3000), decodeCart(t, recorder).Subtotal)

	recorder = doJSON(t, router, http.MethodGet, "/cart/abc", "")
	assert.Equal(t, int64(3000), decodeCart(t, recorder).Subtotal)

	recorder = doJSON(t, router, http.MethodDelete, "/cart/abc/items/prod_bracelet", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, decodeCart(t, recorder).Cart)

	recorder = doJSON(t, router, http.MethodDelete, "/cart/abc", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestCartController_AddItemValidation(t *testing.T) {
	router := newCartRouter(t, new(MockCheckoutService))

	tests := []struct {
		name string
		body string
	}{
		{"unknown price", `{"product":` + braceletJSON + `,"price_id":"price_missing","quantity":1}`},
		{"zero quantity", `{"product":` + braceletJSON + `,"price_id":"price_small","quantity":0}`},
		{"missing price id", `{"product":` + braceletJSON + `,"quantity":1}`},
		{"malformed", `{"product":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doJSON(t, router, http.MethodPost, "/cart/abc/items", tt.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestCartController_Checkout(t *testing.T) {
	checkout := new(MockCheckoutService)
	router := newCartRouter(t, checkout)

	doJSON(t, router, http.MethodPost, "/cart/abc/items", `{"product":`+braceletJSON+`,"price_id":"price_large","quantity":2}`)

	checkout.On("CreateSession", mock.Anything, mock.MatchedBy(func(req *models.CheckoutSessionRequest) bool {
		return len(req.Cart) == 1 &&
			req.Cart[0].Name == "Bracelet (Large)" &&
			req.Cart[0].Quantity == 2 &&
			req.Cart[0].PriceID == "price_large" &&
			req.Email == "jane@example.com" && req.Consent
	})).Return(&models.CheckoutSessionResponse{SessionID: "cs_test_9", PublishableKey: "pk"}, nil).Once()

	recorder := doJSON(t, router, http.MethodPost, "/cart/abc/checkout", `{"email":"jane@example.com","consent":true}`)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "cs_test_9")
	checkout.AssertExpectations(t)

	recorder = doJSON(t, router, http.MethodGet, "/cart/abc", "")
	assert.Equal(t, int64(6000), decodeCart(t, recorder).Subtotal)
}

func TestCartController_RecordsUpdates(t *testing.T) {
	metrics := newCountingMetrics()
	router := newCartRouterWithMetrics(t, new(MockCheckoutService), metrics)

	doJSON(t, router, http.MethodPost, "/cart/abc/items", `{"product":`+braceletJSON+`,"price_id":"price_small","quantity":1}`)
	doJSON(t, router, http.MethodPatch, "/cart/abc/items/price_small", `{"quantity":3}`)
	doJSON(t, router, http.MethodDelete, "/cart/abc/items/price_small", "")
	doJSON(t, router, http.MethodGet, "/cart/abc", "")
	doJSON(t, router, http.MethodPost, "/cart/abc/items", `{"product":`+braceletJSON+`,"price_id":"price_missing","quantity":1}`)

	assert.Equal(t, 3, metrics.count(aws_pkg.MetricCartUpdates))
}

func TestCartController_AddIgnoresOtherPriceQuantities(t *testing.T) {
	router := newCartRouter(t, new(MockCheckoutService))

	product := `{"id":"prod_bracelet","name":"Bracelet","prices":[
		{"id":"price_small","unit_amount":1500,"active":true,"quantity":99},
		{"id":"price_large","unit_amount":3000,"active":true}]}`
	recorder := doJSON(t, router, http.MethodPost, "/cart/abc/items", `{"product":`+product+`,"price_id":"price_large","quantity":1}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeCart(t, recorder)
	assert.Equal(t, 1, body.ItemCount)
	assert.Equal(t, int64(3000), body.Subtotal)
}
