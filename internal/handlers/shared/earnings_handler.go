package handlers

import (
	"strconv"

	"swiftserve/internal/services"
	"swiftserve/internal/utils"

	"github.com/gin-gonic/gin"
)

type EarningsHandler struct {
	earningsService services.EarningsService
}

func NewEarningsHandler(earningsService services.EarningsService) *EarningsHandler {
	return &EarningsHandler{
		earningsService: earningsService,
	}
}

// GetEarningsSummary returns the courier's earnings for a period
// (today, week, month, all)
func (h *EarningsHandler) GetEarningsSummary(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	period := c.DefaultQuery("period", "week")

	summary, err := h.earningsService.GetDriverEarnings(c.Request.Context(), driverID, period)
	if err != nil {
		handleServiceError(c, err, "EARNINGS_FETCH_FAILED")
		return
	}

	utils.SuccessResponse(c, "Earnings retrieved", summary)
}

// GetDailyBreakdown returns per-day earnings buckets for the last N days
func (h *EarningsHandler) GetDailyBreakdown(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > 90 {
		utils.BadRequestResponse(c, "days must be between 1 and 90")
		return
	}

	breakdown, err := h.earningsService.GetDailyBreakdown(c.Request.Context(), driverID, days)
	if err != nil {
		handleServiceError(c, err, "EARNINGS_FETCH_FAILED")
		return
	}

	utils.SuccessResponse(c, "Daily earnings retrieved", breakdown)
}
