package validators

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validation functions
	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("coordinates", validateCoordinates)
	validate.RegisterValidation("currency_code", validateCurrencyCode)
	validate.RegisterValidation("otp_code", validateOTPCode)
	validate.RegisterValidation("routing_number", validateRoutingNumber)
	validate.RegisterValidation("account_number", validateAccountNumber)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ToFieldMap flattens the errors for the HTTP validation-error envelope.
func (v ValidationErrors) ToFieldMap() map[string]string {
	fields := make(map[string]string, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return fields
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			validationError := ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			}
			validationErrors = append(validationErrors, validationError)
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "phone_number":
		return "Invalid phone number format"
	case "coordinates":
		return "Invalid GPS coordinates"
	case "currency_code":
		return "Invalid currency code"
	case "otp_code":
		return "Delivery code must be numeric"
	case "routing_number":
		return "Invalid routing number"
	case "account_number":
		return "Invalid account number"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Custom validation functions
func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}

	// E.164 format validation
	phoneRegex := regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	return phoneRegex.MatchString(phone)
}

func validateCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok || len(coords) != 2 {
		return false
	}

	lng, lat := coords[0], coords[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if code == "" {
		return true
	}
	validCurrencies := []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CNY", "INR", "BRL", "MXN"}

	for _, currency := range validCurrencies {
		if code == currency {
			return true
		}
	}
	return false
}

var otpCodeRegex = regexp.MustCompile(`^\d+$`)

func validateOTPCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if code == "" {
		return true
	}
	return otpCodeRegex.MatchString(code)
}

// US ABA routing numbers are nine digits with a mod-10 checksum.
func validateRoutingNumber(fl validator.FieldLevel) bool {
	routing := fl.Field().String()
	if routing == "" {
		return true
	}
	if len(routing) != 9 || !otpCodeRegex.MatchString(routing) {
		return false
	}

	sum := 0
	weights := []int{3, 7, 1, 3, 7, 1, 3, 7, 1}
	for i, weight := range weights {
		sum += weight * int(routing[i]-'0')
	}
	return sum%10 == 0
}

func validateAccountNumber(fl validator.FieldLevel) bool {
	account := fl.Field().String()
	if account == "" {
		return true
	}
	return len(account) >= 4 && len(account) <= 17 && otpCodeRegex.MatchString(account)
}
