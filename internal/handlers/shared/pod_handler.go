package handlers

import (
	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/internal/validators"

	"github.com/gin-gonic/gin"
)

// maxProofUploadSize caps proof photo and signature uploads at 10 MB.
const maxProofUploadSize = 10 << 20

type PODHandler struct {
	podService        services.PODService
	completionService services.CompletionService
}

func NewPODHandler(podService services.PODService, completionService services.CompletionService) *PODHandler {
	return &PODHandler{
		podService:        podService,
		completionService: completionService,
	}
}

// GetProofRequirements tells the courier app which proof methods this
// delivery needs before it can be completed
func (h *PODHandler) GetProofRequirements(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	requirements, err := h.podService.GetProofRequirements(c.Request.Context(), deliveryID, requesterID, currentUserRole(c))
	if err != nil {
		handleServiceError(c, err, "PROOF_REQUIREMENTS_FAILED")
		return
	}

	utils.SuccessResponse(c, "Proof requirements retrieved", requirements)
}

// RequestOTP sends a fresh delivery code to the customer
func (h *PODHandler) RequestOTP(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	response, err := h.podService.GenerateDeliveryOTP(c.Request.Context(), deliveryID, driverID)
	if err != nil {
		handleServiceError(c, err, "OTP_REQUEST_FAILED")
		return
	}

	utils.SuccessResponse(c, "Delivery code sent to customer", response)
}

// VerifyOTP checks the code the courier read back from the customer
func (h *PODHandler) VerifyOTP(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.VerifyOTPRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateVerifyOTP(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	if err := h.podService.VerifyDeliveryOTP(c.Request.Context(), deliveryID, driverID, request.Code); err != nil {
		handleServiceError(c, err, "OTP_VERIFY_FAILED")
		return
	}

	utils.SuccessResponse(c, "Delivery code verified", nil)
}

// SubmitPhotoProof accepts the proof photo as a multipart upload
func (h *PODHandler) SubmitPhotoProof(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(maxProofUploadSize); err != nil {
		utils.BadRequestResponse(c, "Invalid upload: "+err.Error())
		return
	}
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		utils.BadRequestResponse(c, "Photo file is required")
		return
	}
	defer file.Close()

	response, err := h.completionService.SubmitPhotoProof(c.Request.Context(), deliveryID, driverID, file, header.Filename)
	if err != nil {
		handleServiceError(c, err, "PHOTO_PROOF_FAILED")
		return
	}

	utils.SuccessResponse(c, "Proof photo uploaded", response)
}

// SubmitSignatureProof accepts the recipient's signature image
func (h *PODHandler) SubmitSignatureProof(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(maxProofUploadSize); err != nil {
		utils.BadRequestResponse(c, "Invalid upload: "+err.Error())
		return
	}
	file, header, err := c.Request.FormFile("signature")
	if err != nil {
		utils.BadRequestResponse(c, "Signature file is required")
		return
	}
	defer file.Close()

	recipientName := c.PostForm("recipient_name")

	response, err := h.completionService.SubmitSignatureProof(c.Request.Context(), deliveryID, driverID, file, header.Filename, recipientName)
	if err != nil {
		handleServiceError(c, err, "SIGNATURE_PROOF_FAILED")
		return
	}

	utils.SuccessResponse(c, "Signature uploaded", response)
}

// CompleteDelivery finishes the delivery with the submitted proof
func (h *PODHandler) CompleteDelivery(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.CompleteDeliveryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCompleteDelivery(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	delivery, err := h.completionService.CompleteDeliveryWithProof(c.Request.Context(), deliveryID, driverID, &request)
	if err != nil {
		handleServiceError(c, err, "DELIVERY_COMPLETION_FAILED")
		return
	}

	utils.SuccessResponse(c, "Delivery completed", delivery)
}

// ConfirmDelivery lets the customer acknowledge receipt when no stronger
// proof method applies
func (h *PODHandler) ConfirmDelivery(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	customerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateConfirmDelivery(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	delivery, err := h.completionService.CustomerConfirmDelivery(c.Request.Context(), deliveryID, customerID, request.Notes)
	if err != nil {
		handleServiceError(c, err, "DELIVERY_CONFIRM_FAILED")
		return
	}

	utils.SuccessResponse(c, "Delivery confirmed", delivery)
}
