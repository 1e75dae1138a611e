package handlers

import (
	"errors"
	"net/http"

	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID returns the authenticated user's id from the context set by
// the auth middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	id, ok := raw.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid user ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

func currentUserRole(c *gin.Context) string {
	if role, exists := c.Get("user_type"); exists {
		if s, ok := role.(string); ok {
			return s
		}
	}
	return ""
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// handleServiceError maps the service sentinel errors onto HTTP responses.
// Anything unrecognized is an internal error and the original message is
// not leaked to the client.
func handleServiceError(c *gin.Context, err error, code string) {
	var validationErrs validators.ValidationErrors
	if errors.As(err, &validationErrs) {
		utils.ValidationErrorResponse(c, validationErrs.ToFieldMap())
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "Resource")
	case errors.Is(err, services.ErrUnauthorized):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrAlreadyExists):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrPrecondition):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrOTPAttemptsExhausted):
		utils.ErrorResponse(c, http.StatusTooManyRequests, "OTP_ATTEMPTS_EXHAUSTED", err.Error())
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrOTPNotFound),
		errors.Is(err, services.ErrOTPMismatch),
		errors.Is(err, services.ErrProofRequired),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrBankAccountMissing):
		utils.BadRequestResponse(c, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		utils.ServiceUnavailableResponse(c, "Service temporarily unavailable, try again shortly")
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, code, "Something went wrong")
	}
}
