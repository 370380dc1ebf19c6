package routes

import (
	"github.com/brianfeister/rawelegancecreations/controllers"

	"github.com/gin-gonic/gin"
)

// Webhook route paths. Each is verified with its own signing secret.
const (
	AbandonedCheckoutWebhookPath = "/webhooks/abandoned-checkout"
	CustomerCreatedWebhookPath   = "/webhooks/customer-created"
)

// Controllers groups the handlers the router needs.
type Controllers struct {
	Checkout *controllers.CheckoutController
	Promo    *controllers.PromoController
	Webhook  *controllers.WebhookController
	// Cart is optional; without it the cart routes are not registered.
	Cart *controllers.CartController

	AbandonedCheckoutParser controllers.WebhookParser
	CustomerCreatedParser   controllers.WebhookParser
}

// RegisterRoutes sets up the storefront API. browser middleware (rate
// limiting) applies to storefront routes only; provider webhooks bypass it.
func RegisterRoutes(r *gin.Engine, ctrl Controllers, browser ...gin.HandlerFunc) {
	r.POST(AbandonedCheckoutWebhookPath, ctrl.Webhook.Handle("abandoned-checkout", ctrl.AbandonedCheckoutParser))
	r.POST(CustomerCreatedWebhookPath, ctrl.Webhook.Handle("customer-created", ctrl.CustomerCreatedParser))

	api := r.Group("")
	api.Use(browser...)

	api.POST("/checkout", ctrl.Checkout.CreateCheckout)
	api.POST("/promotions/new-customer", ctrl.Promo.CreateNewCustomerPromo)

	if ctrl.Cart != nil {
		cartRoutes := api.Group("/cart/:id")
		cartRoutes.GET("", ctrl.Cart.GetCart)
		cartRoutes.DELETE("", ctrl.Cart.ClearCart)
		cartRoutes.POST("/items", ctrl.Cart.AddItem)
		cartRoutes.PATCH("/items/:priceID", ctrl.Cart.SetQuantity)
		cartRoutes.DELETE("/items/:itemID", ctrl.Cart.RemoveItem)
		cartRoutes.POST("/checkout", ctrl.Cart.Checkout)
	}
}
