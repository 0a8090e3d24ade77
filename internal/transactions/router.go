package transactions

import "github.com/gin-gonic/gin"

func SetupTransactionRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.POST("/transactions", controller.Submit)                    // POST /api/v1/transactions
	rg.GET("/transactions/:signature", controller.GetTransaction)  // GET /api/v1/transactions/:signature
	rg.GET("/accounts/:address", controller.GetAccount)            // GET /api/v1/accounts/:address
	rg.GET("/token-accounts/:address", controller.GetTokenAccount) // GET /api/v1/token-accounts/:address
	rg.GET("/programs", controller.GetPrograms)                    // GET /api/v1/programs
}
