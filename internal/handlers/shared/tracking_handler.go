package handlers

import (
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/internal/validators"

	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	trackingService services.TrackingService
}

func NewTrackingHandler(trackingService services.TrackingService) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
	}
}

// UpdateLocation ingests a courier position report
func (h *TrackingHandler) UpdateLocation(c *gin.Context) {
	driverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request validators.LocationUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateLocationUpdate(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToFieldMap())
		return
	}

	location := &models.DriverLocation{
		DriverID:  driverID,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
		Heading:   request.Heading,
		Speed:     request.Speed,
		Accuracy:  request.Accuracy,
	}
	if request.Timestamp != nil {
		location.Timestamp = *request.Timestamp
	} else {
		location.Timestamp = time.Now()
	}

	if err := h.trackingService.UpdateDriverLocation(c.Request.Context(), location); err != nil {
		handleServiceError(c, err, "LOCATION_UPDATE_FAILED")
		return
	}

	utils.SuccessResponse(c, "Location updated", nil)
}

// GetDeliveryTracking returns the live tracking snapshot for a delivery
func (h *TrackingHandler) GetDeliveryTracking(c *gin.Context) {
	deliveryID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	tracking, err := h.trackingService.GetDeliveryTracking(c.Request.Context(), deliveryID, requesterID, currentUserRole(c))
	if err != nil {
		handleServiceError(c, err, "TRACKING_FETCH_FAILED")
		return
	}

	utils.SuccessResponse(c, "Tracking retrieved", tracking)
}

// GetOrderTracking returns the tracking snapshot looked up by order
func (h *TrackingHandler) GetOrderTracking(c *gin.Context) {
	orderID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	tracking, err := h.trackingService.GetOrderTracking(c.Request.Context(), orderID, requesterID, currentUserRole(c))
	if err != nil {
		handleServiceError(c, err, "TRACKING_FETCH_FAILED")
		return
	}

	utils.SuccessResponse(c, "Tracking retrieved", tracking)
}

// GetActiveDeliveryCount reports how many deliveries are currently live
func (h *TrackingHandler) GetActiveDeliveryCount(c *gin.Context) {
	count, err := h.trackingService.GetActiveDeliveryCount(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "ACTIVE_COUNT_FAILED")
		return
	}

	utils.SuccessResponse(c, "Active delivery count retrieved", gin.H{"count": count})
}
