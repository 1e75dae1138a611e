package routes

import (
	"swiftserve/internal/handlers/shared"
	"swiftserve/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupDeliveryRoutes wires proof-of-delivery, completion and issue
// endpoints. Tracking reads live in SetupTrackingRoutes.
func SetupDeliveryRoutes(r *gin.RouterGroup, podHandler *handlers.PODHandler, issueHandler *handlers.IssueHandler) {
	// Courier proof and completion flow
	driver := r.Group("/deliveries")
	driver.Use(middleware.AuthRequired(), middleware.DriverRequired())
	{
		driver.GET("/:id/proof-requirements", podHandler.GetProofRequirements)
		driver.POST("/:id/otp", podHandler.RequestOTP)
		driver.POST("/:id/otp/verify", podHandler.VerifyOTP)
		driver.POST("/:id/proof/photo", podHandler.SubmitPhotoProof)
		driver.POST("/:id/proof/signature", podHandler.SubmitSignatureProof)
		driver.POST("/:id/complete", podHandler.CompleteDelivery)
	}

	// Customer acknowledgement
	customer := r.Group("/deliveries")
	customer.Use(middleware.AuthRequired(), middleware.CustomerRequired())
	{
		customer.POST("/:id/confirm", podHandler.ConfirmDelivery)
	}

	// Issues can come from either side; the service checks who may report
	issues := r.Group("/deliveries")
	issues.Use(middleware.AuthRequired())
	{
		issues.POST("/:id/issues", issueHandler.ReportIssue)
		issues.GET("/:id/issues", issueHandler.ListIssues)
	}

	admin := r.Group("/admin/deliveries")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/issues", issueHandler.ListDeliveriesWithIssues)
	}
}
