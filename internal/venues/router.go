package venues

import "github.com/gin-gonic/gin"

func SetupVenueRoutes(rg *gin.RouterGroup, controller *Controller) {
	venues := rg.Group("/venues")
	{
		venues.GET("/:venueId", controller.GetVenue)                   // GET /api/v1/venues/:venueId
		venues.GET("/:venueId/receipts/:buyer", controller.GetReceipt) // GET /api/v1/venues/:venueId/receipts/:buyer
	}
}
