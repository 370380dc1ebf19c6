package controllers

import (
	"net/http"

	"github.com/brianfeister/rawelegancecreations/models"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/gin-gonic/gin"
)

// CheckoutController handles checkout session requests from the storefront.
type CheckoutController struct {
	checkoutService services.CheckoutService
}

func NewCheckoutController(checkoutService services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// CreateCheckout handles POST /checkout.
func (cc *CheckoutController) CreateCheckout(ctx *gin.Context) {
	var req models.CheckoutSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := cc.checkoutService.CreateSession(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
