package validators

import (
	"strings"
	"time"
)

// LocationUpdateRequest is one position push from the courier app.
type LocationUpdateRequest struct {
	Latitude  float64    `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64    `json:"longitude" validate:"required,min=-180,max=180"`
	Heading   *float64   `json:"heading" validate:"omitempty,min=0,max=360"`
	Speed     *float64   `json:"speed" validate:"omitempty,min=0,max=300"`
	Accuracy  *float64   `json:"accuracy" validate:"omitempty,min=0"`
	Timestamp *time.Time `json:"timestamp"`
}

type VerifyOTPRequest struct {
	Code string `json:"code" validate:"required,len=4,otp_code"`
}

// CompleteDeliveryRequest carries the proof fields submitted with the final
// completion call. Previously staged proof (photo, signature, verified OTP)
// is merged in by the service; everything here is optional on its own.
type CompleteDeliveryRequest struct {
	OTPCode        string    `json:"otp_code" validate:"omitempty,len=4,otp_code"`
	PhotoURL       string    `json:"photo_url" validate:"omitempty,url"`
	SignatureURL   string    `json:"signature_url" validate:"omitempty,url"`
	RecipientName  string    `json:"recipient_name" validate:"omitempty,min=2,max=100"`
	DeliveryNotes  string    `json:"delivery_notes" validate:"omitempty,max=500"`
	GPSCoordinates []float64 `json:"gps_coordinates" validate:"omitempty,coordinates"`
}

type ConfirmDeliveryRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=500"`
}

type ReportIssueRequest struct {
	Type        string   `json:"type" validate:"required,oneof=customer_unavailable wrong_address order_damaged missing_items restaurant_delay vehicle_breakdown accident other"`
	Description string   `json:"description" validate:"required,min=10,max=1000"`
	Photos      []string `json:"photos" validate:"omitempty,max=5,dive,url"`
}

func ValidateLocationUpdate(req *LocationUpdateRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateVerifyOTP(req *VerifyOTPRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateCompleteDelivery(req *CompleteDeliveryRequest) ValidationErrors {
	errors := ValidateStruct(req)

	// A bare completion call with no proof at all is never useful; at
	// minimum the courier's position should accompany it.
	if req.OTPCode == "" && req.PhotoURL == "" && req.SignatureURL == "" && len(req.GPSCoordinates) == 0 {
		errors = append(errors, ValidationError{
			Field:   "gps_coordinates",
			Message: "At least one proof field or the drop-off coordinates are required",
		})
	}

	return errors
}

func ValidateConfirmDelivery(req *ConfirmDeliveryRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateReportIssue(req *ReportIssueRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if strings.TrimSpace(req.Description) == "" {
		errors = append(errors, ValidationError{
			Field:   "description",
			Message: "Description cannot be blank",
		})
	}

	return errors
}
