package handlers

import (
	"swiftserve/internal/models"
	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/internal/validators"

	"github.com/gin-gonic/gin"
)

type IssueHandler struct {
	issueService services.IssueService
}

func NewIssueHandler(issueService services.IssueService) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
	}
}

// ReportIssue files a problem against a delivery. The reporter role is
// taken from the authenticated user, not the request body.
func (h *IssueHandler) ReportIssue(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	reporterID, ok := currentUserID(c)
	if !ok {
		return
	}

	var reportedBy models.IssueReporter
	switch currentUserRole(c) {
	case utils.UserTypeDriver:
		reportedBy = models.IssueReporterDriver
	case utils.UserTypeCustomer:
		reportedBy = models.IssueReporterCustomer
	case utils.UserTypeAdmin:
		reportedBy = models.IssueReporterSystem
	default:
		utils.ForbiddenResponse(c)
		return
	}

	var request validators.ReportIssueRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateReportIssue(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	issue, err := h.issueService.ReportDeliveryIssue(c.Request.Context(), deliveryID, reporterID,
		reportedBy, models.IssueType(request.Type), request.Description, request.Photos)
	if err != nil {
		handleServiceError(c, err, "ISSUE_REPORT_FAILED")
		return
	}

	utils.CreatedResponse(c, "Issue reported", issue)
}

// ListIssues returns the issues filed against a delivery
func (h *IssueHandler) ListIssues(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	issues, err := h.issueService.ListDeliveryIssues(c.Request.Context(), deliveryID)
	if err != nil {
		handleServiceError(c, err, "ISSUE_LIST_FAILED")
		return
	}

	utils.SuccessResponse(c, "Issues retrieved", issues)
}

// ListDeliveriesWithIssues is the ops view of deliveries carrying open
// issues, optionally urgent only
func (h *IssueHandler) ListDeliveriesWithIssues(c *gin.Context) {
	urgentOnly := c.Query("urgent") == "true"

	params := utils.GetPaginationParams(c)
	deliveries, total, err := h.issueService.GetDeliveriesWithOpenIssues(c.Request.Context(), urgentOnly, params)
	if err != nil {
		handleServiceError(c, err, "ISSUE_LIST_FAILED")
		return
	}

	utils.SuccessResponseWithMeta(c, "Deliveries with issues retrieved", deliveries, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}
