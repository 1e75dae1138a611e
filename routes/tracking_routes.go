package routes

import (
	"swiftserve/internal/handlers/shared"
	"swiftserve/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTrackingRoutes wires courier location ingest and the tracking reads.
func SetupTrackingRoutes(r *gin.RouterGroup, trackingHandler *handlers.TrackingHandler) {
	// Courier position ingest
	driver := r.Group("/driver")
	driver.Use(middleware.AuthRequired(), middleware.DriverRequired())
	{
		driver.POST("/location", trackingHandler.UpdateLocation)
	}

	// Tracking reads, authorized per delivery inside the service
	tracking := r.Group("")
	tracking.Use(middleware.AuthRequired())
	{
		tracking.GET("/deliveries/:id/tracking", trackingHandler.GetDeliveryTracking)
		tracking.GET("/orders/:id/tracking", trackingHandler.GetOrderTracking)
	}

	admin := r.Group("/admin/deliveries")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/active-count", trackingHandler.GetActiveDeliveryCount)
	}
}
