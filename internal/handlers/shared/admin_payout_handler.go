package handlers

import (
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminPayoutHandler drives the payout state machine from the back office.
type AdminPayoutHandler struct {
	payoutService services.PayoutService
}

func NewAdminPayoutHandler(payoutService services.PayoutService) *AdminPayoutHandler {
	return &AdminPayoutHandler{
		payoutService: payoutService,
	}
}

// ListPayouts returns payouts filtered by driver, status, type and date range
func (h *AdminPayoutHandler) ListPayouts(c *gin.Context) {
	filter := &interfaces.PayoutFilter{}

	if driverHex := c.Query("driver_id"); driverHex != "" {
		driverID, err := primitive.ObjectIDFromHex(driverHex)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid driver_id")
			return
		}
		filter.DriverID = &driverID
	}
	filter.Status = models.PayoutStatus(c.Query("status"))
	filter.Type = models.PayoutType(c.Query("type"))
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid from date, use YYYY-MM-DD")
			return
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid to date, use YYYY-MM-DD")
			return
		}
		filter.To = &t
	}

	params := utils.GetPaginationParams(c)
	payouts, total, err := h.payoutService.ListPayouts(c.Request.Context(), filter, params)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_LIST_FAILED")
		return
	}

	utils.SuccessResponseWithMeta(c, "Payouts retrieved", payouts, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// GetPendingSummary reports funds currently held across the fleet
func (h *AdminPayoutHandler) GetPendingSummary(c *gin.Context) {
	summary, err := h.payoutService.PendingSummary(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "PAYOUT_SUMMARY_FAILED")
		return
	}

	utils.SuccessResponse(c, "Pending payout summary retrieved", summary)
}

// GetStatistics aggregates payout outcomes over a date range
func (h *AdminPayoutHandler) GetStatistics(c *gin.Context) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)

	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid from date, use YYYY-MM-DD")
			return
		}
		startDate = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid to date, use YYYY-MM-DD")
			return
		}
		endDate = utils.EndOfDay(t)
	}

	stats, err := h.payoutService.GetPayoutStatistics(c.Request.Context(), startDate, endDate)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_STATS_FAILED")
		return
	}

	utils.SuccessResponse(c, "Payout statistics retrieved", stats)
}

// ProcessPayout moves a pending payout into processing
func (h *AdminPayoutHandler) ProcessPayout(c *gin.Context) {
	payoutID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	payout, err := h.payoutService.ProcessPayout(c.Request.Context(), payoutID)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_PROCESS_FAILED")
		return
	}

	utils.SuccessResponse(c, "Payout processing", payout)
}

// CompletePayout records a settled disbursement
func (h *AdminPayoutHandler) CompletePayout(c *gin.Context) {
	payoutID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request validators.CompletePayoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCompletePayout(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	payout, err := h.payoutService.CompletePayout(c.Request.Context(), payoutID, request.TransactionID, request.ProviderRef)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_COMPLETE_FAILED")
		return
	}

	utils.SuccessResponse(c, "Payout completed", payout)
}

// FailPayout marks a payout failed and returns the held funds
func (h *AdminPayoutHandler) FailPayout(c *gin.Context) {
	payoutID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request validators.FailPayoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateFailPayout(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	payout, err := h.payoutService.FailPayout(c.Request.Context(), payoutID, request.Reason)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_FAIL_FAILED")
		return
	}

	utils.SuccessResponse(c, "Payout failed, funds returned to driver balance", payout)
}

// RetryPayout re-queues a failed payout
func (h *AdminPayoutHandler) RetryPayout(c *gin.Context) {
	payoutID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	payout, err := h.payoutService.RetryPayout(c.Request.Context(), payoutID)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_RETRY_FAILED")
		return
	}

	utils.SuccessResponse(c, "Payout queued for retry", payout)
}

// CancelPayout withdraws a payout and returns any held funds
func (h *AdminPayoutHandler) CancelPayout(c *gin.Context) {
	payoutID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	var request validators.CancelPayoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCancelPayout(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	payout, err := h.payoutService.CancelPayout(c.Request.Context(), payoutID, request.Reason)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_CANCEL_FAILED")
		return
	}

	utils.SuccessResponse(c, "Payout cancelled", payout)
}

// AddAdjustment corrects a pending payout's amount
func (h *AdminPayoutHandler) AddAdjustment(c *gin.Context) {
	payoutID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.PayoutAdjustmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidatePayoutAdjustment(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	payout, err := h.payoutService.AddAdjustment(c.Request.Context(), payoutID, request.Reason, request.Amount, adminID)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_ADJUSTMENT_FAILED")
		return
	}

	utils.SuccessResponse(c, "Adjustment added", payout)
}

// GenerateWeeklyPayouts runs a settlement pass for an explicit window. The
// scheduled job covers the normal cadence; this backs manual re-runs.
func (h *AdminPayoutHandler) GenerateWeeklyPayouts(c *gin.Context) {
	var request validators.GenerateWeeklyPayoutsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateGenerateWeeklyPayouts(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	run, err := h.payoutService.GenerateWeeklyPayouts(c.Request.Context(), request.PeriodStart, request.PeriodEnd)
	if err != nil {
		handleServiceError(c, err, "WEEKLY_PAYOUTS_FAILED")
		return
	}

	utils.SuccessResponse(c, "Weekly payout run finished", run)
}
