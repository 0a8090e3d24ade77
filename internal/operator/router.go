package operator

import (
	"github.com/gin-gonic/gin"

	"concertticket/internal/shared/config"
	"concertticket/internal/shared/middleware"
)

// SetupOperatorRoutes registers the operator routes
func SetupOperatorRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	op := rg.Group("/operator")
	{
		op.POST("/login", controller.Login) // POST /api/v1/operator/login
		op.GET("/faucet", controller.FaucetInfo)

		protected := op.Group("")
		protected.Use(middleware.JWTAuth(cfg), middleware.RequireOperator())
		{
			protected.POST("/faucet", controller.Faucet) // POST /api/v1/operator/faucet
		}
	}
}
