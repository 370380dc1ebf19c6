package controllers

import (
	"net/http"

	"github.com/brianfeister/rawelegancecreations/models"
	"github.com/brianfeister/rawelegancecreations/services"

	"github.com/gin-gonic/gin"
)

type PromoController struct {
	promoService services.PromoService
}

func NewPromoController(promoService services.PromoService) *PromoController {
	return &PromoController{promoService: promoService}
}

// CreateNewCustomerPromo handles POST /promotions/new-customer.
func (pc *PromoController) CreateNewCustomerPromo(ctx *gin.Context) {
	var req models.CreatePromotionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	promo, svcErr := pc.promoService.IssueNewCustomerCode(ctx.Request.Context(), req.Customer.ID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"promotionCode": promo})
}
