package controllers

import (
	"context"
	"net/http"

	"github.com/brianfeister/rawelegancecreations/cart"
	"github.com/brianfeister/rawelegancecreations/models"
	aws_pkg "github.com/brianfeister/rawelegancecreations/pkg/aws"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CartStore is the cart persistence the controller needs.
type CartStore interface {
	Get(ctx context.Context, key string) (cart.Cart, error)
	Update(ctx context.Context, key string, fn func(cart.Cart) cart.Cart) (cart.Cart, error)
	Clear(ctx context.Context, key string) error
}

// CartController serves the server-side copy of a storefront cart.
type CartController struct {
	store           CartStore
	checkoutService services.CheckoutService
	metrics         services.MetricsRecorder
	logger          *zap.Logger
}

func NewCartController(store CartStore, checkoutService services.CheckoutService, metrics services.MetricsRecorder, logger *zap.Logger) *CartController {
	return &CartController{store: store, checkoutService: checkoutService, metrics: metrics, logger: logger}
}

type cartCheckoutRequest struct {
	Email   string `json:"email"`
	Consent bool   `json:"consent"`
}

func cartResponse(c cart.Cart) gin.H {
	products := c.Products
	if products == nil {
		products = []models.CartProduct{}
	}
	return gin.H{
		"cart":       products,
		"subtotal":   c.Subtotal(),
		"item_count": c.ItemCount(),
	}
}

// GetCart handles GET /cart/:id.
func (cc *CartController) GetCart(ctx *gin.Context) {
	c, err := cc.store.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		cc.fail(ctx, "get_cart", err)
		return
	}
	ctx.JSON(http.StatusOK, cartResponse(c))
}

// AddItem handles POST /cart/:id/items.
func (cc *CartController) AddItem(ctx *gin.Context) {
	var req models.AddCartItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.Product.ID == "" || !hasPrice(req.Product, req.PriceID) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "price_id must be one of the product's prices"})
		return
	}

	c, err := cc.store.Update(ctx.Request.Context(), ctx.Param("id"), func(c cart.Cart) cart.Cart {
		return c.Add(req.Product, req.PriceID, req.Quantity)
	})
	if err != nil {
		cc.fail(ctx, "add_cart_item", err)
		return
	}
	cc.recordUpdate(ctx, "add_cart_item")
	ctx.JSON(http.StatusOK, cartResponse(c))
}

// SetQuantity handles PATCH /cart/:id/items/:priceID.
func (cc *CartController) SetQuantity(ctx *gin.Context) {
	var req models.SetQuantityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	priceID := ctx.Param("priceID")
	c, err := cc.store.Update(ctx.Request.Context(), ctx.Param("id"), func(c cart.Cart) cart.Cart {
		return c.SetQuantity(priceID, *req.Quantity)
	})
	if err != nil {
		cc.fail(ctx, "set_cart_quantity", err)
		return
	}
	cc.recordUpdate(ctx, "set_cart_quantity")
	ctx.JSON(http.StatusOK, cartResponse(c))
}

// RemoveItem handles DELETE /cart/:id/items/:itemID. A product id removes
// the whole product; a price id zeroes that variant.
func (cc *CartController) RemoveItem(ctx *gin.Context) {
	itemID := ctx.Param("itemID")
	c, err := cc.store.Update(ctx.Request.Context(), ctx.Param("id"), func(c cart.Cart) cart.Cart {
		return c.Remove(itemID)
	})
	if err != nil {
		cc.fail(ctx, "remove_cart_item", err)
		return
	}
	cc.recordUpdate(ctx, "remove_cart_item")
	ctx.JSON(http.StatusOK, cartResponse(c))
}

// ClearCart handles DELETE /cart/:id.
func (cc *CartController) ClearCart(ctx *gin.Context) {
	if err := cc.store.Clear(ctx.Request.Context(), ctx.Param("id")); err != nil {
		cc.fail(ctx, "clear_cart", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Checkout handles POST /cart/:id/checkout by creating a session from the
// stored cart. The cart is kept so an expired session can be retried.
func (cc *CartController) Checkout(ctx *gin.Context) {
	var req cartCheckoutRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
			return
		}
	}

	c, err := cc.store.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		cc.fail(ctx, "get_cart", err)
		return
	}

	resp, svcErr := cc.checkoutService.CreateSession(ctx.Request.Context(), &models.CheckoutSessionRequest{
		Cart:    c.LineItems(),
		Email:   req.Email,
		Consent: req.Consent,
	})
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (cc *CartController) fail(ctx *gin.Context, operation string, err error) {
	cc.logger.Error("Cart operation failed",
		zap.String("operation", operation),
		zap.String("cart_id", ctx.Param("id")),
		zap.Error(err),
	)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
}

func (cc *CartController) recordUpdate(ctx *gin.Context, operation string) {
	if cc.metrics == nil {
		return
	}
	dims := map[string]string{"Service": "storefront-service", "Operation": operation}
	if err := cc.metrics.RecordCount(ctx.Request.Context(), aws_pkg.MetricCartUpdates, dims); err != nil {
		cc.logger.Warn("Failed to record metric", zap.String("metric", aws_pkg.MetricCartUpdates), zap.Error(err))
	}
}

func hasPrice(p models.CartProduct, priceID string) bool {
	for _, price := range p.Prices {
		if price.ID == priceID {
			return true
		}
	}
	return false
}
