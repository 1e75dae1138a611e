package handlers

import (
	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/internal/validators"

	"github.com/gin-gonic/gin"
)

// PayoutHandler serves the courier-facing payout endpoints. The admin
// surface lives in AdminPayoutHandler.
type PayoutHandler struct {
	payoutService services.PayoutService
}

func NewPayoutHandler(payoutService services.PayoutService) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
	}
}

// RequestInstantPayout creates a fee-bearing on-demand payout
func (h *PayoutHandler) RequestInstantPayout(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.InstantPayoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateInstantPayout(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	payout, err := h.payoutService.RequestInstantPayout(c.Request.Context(), driverID, request.Amount)
	if err != nil {
		handleServiceError(c, err, "INSTANT_PAYOUT_FAILED")
		return
	}

	utils.CreatedResponse(c, "Instant payout requested", payout)
}

// UpdateBankAccount replaces the courier's payout destination
func (h *PayoutHandler) UpdateBankAccount(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.BankAccountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateBankAccount(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	account, err := h.payoutService.UpdateBankAccount(c.Request.Context(), driverID, &request)
	if err != nil {
		handleServiceError(c, err, "BANK_ACCOUNT_UPDATE_FAILED")
		return
	}

	utils.SuccessResponse(c, "Bank account updated, verification pending", account)
}

// GetPayoutHistory lists the courier's payouts, newest first
func (h *PayoutHandler) GetPayoutHistory(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	payouts, total, err := h.payoutService.GetDriverPayouts(c.Request.Context(), driverID, params)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_HISTORY_FAILED")
		return
	}

	utils.SuccessResponseWithMeta(c, "Payouts retrieved", payouts, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// GetPayout returns one payout; couriers can only see their own
func (h *PayoutHandler) GetPayout(c *gin.Context) {
	payoutID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	payout, err := h.payoutService.GetPayout(c.Request.Context(), payoutID)
	if err != nil {
		handleServiceError(c, err, "PAYOUT_FETCH_FAILED")
		return
	}
	if payout.DriverID != driverID && currentUserRole(c) != utils.UserTypeAdmin {
		utils.ForbiddenResponse(c)
		return
	}

	utils.SuccessResponse(c, "Payout retrieved", payout)
}
