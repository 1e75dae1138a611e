package routes

import (
	"swiftserve/internal/handlers/shared"
	"swiftserve/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPayoutRoutes wires earnings reads, the courier payout surface and
// the admin payout state machine.
func SetupPayoutRoutes(r *gin.RouterGroup, earningsHandler *handlers.EarningsHandler, payoutHandler *handlers.PayoutHandler, adminHandler *handlers.AdminPayoutHandler) {
	driver := r.Group("/driver")
	driver.Use(middleware.AuthRequired(), middleware.DriverRequired())
	{
		driver.GET("/earnings", earningsHandler.GetEarningsSummary)
		driver.GET("/earnings/daily", earningsHandler.GetDailyBreakdown)

		driver.GET("/payouts", payoutHandler.GetPayoutHistory)
		driver.GET("/payouts/:id", payoutHandler.GetPayout)
		driver.POST("/payouts/instant", payoutHandler.RequestInstantPayout)
		driver.PUT("/bank-account", payoutHandler.UpdateBankAccount)
	}

	admin := r.Group("/admin/payouts")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("", adminHandler.ListPayouts)
		admin.GET("/summary", adminHandler.GetPendingSummary)
		admin.GET("/statistics", adminHandler.GetStatistics)
		admin.POST("/generate-weekly", adminHandler.GenerateWeeklyPayouts)

		admin.POST("/:id/process", adminHandler.ProcessPayout)
		admin.POST("/:id/complete", adminHandler.CompletePayout)
		admin.POST("/:id/fail", adminHandler.FailPayout)
		admin.POST("/:id/retry", adminHandler.RetryPayout)
		admin.POST("/:id/cancel", adminHandler.CancelPayout)
		admin.POST("/:id/adjustments", adminHandler.AddAdjustment)
	}
}
