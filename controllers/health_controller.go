package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles GET /health. The cart store is reported but does not
// fail the check, since checkout and webhooks work without it.
func Health(serviceName string, cartStore Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{"status": "OK", "service": serviceName}
		if cartStore != nil {
			if err := cartStore.Ping(c.Request.Context()); err != nil {
				resp["cart_store"] = "unavailable"
			} else {
				resp["cart_store"] = "ok"
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
