package utils

import "time"

// Application Constants
const (
	AppName    = "SwiftServe"
	AppVersion = "1.0.0"

	// Default values
	DefaultLanguage    = "en"
	DefaultCurrency    = "USD"
	DefaultCountryCode = "+1"
	DefaultTimeZone    = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour

	// Delivery verification
	DeliveryOTPLength      = 4
	DeliveryOTPExpiry      = 10 * time.Minute
	DeliveryOTPMaxAttempts = 3

	// Tracking
	DriverLocationTTL            = 90 * time.Second
	DeliveryTrackingTTL          = 2 * time.Hour
	ActiveAssignmentTTL          = 4 * time.Hour
	DriverLocationUpdateInterval = 15 * time.Second
	DefaultDriverSpeedKMH        = 30.0
	ETATrafficBuffer             = 0.20

	// Proof of delivery
	HighValueOrderThreshold = 50.0

	// Payouts
	MinInstantPayoutAmount = 10.0
	InstantPayoutFee       = 0.99
	MaxPayoutRetries       = 3

	// File Upload
	MaxImageSize        = 5 * 1024 * 1024  // 5MB
	MaxSignatureSize    = 1 * 1024 * 1024  // 1MB
	MaxIssuePhotoSize   = 5 * 1024 * 1024  // 5MB
	ProofThumbnailWidth = 320

	// Rate Limiting
	DefaultRateLimit = 100
	OTPRateLimit     = 3

	// Notification
	NotificationRetryAttempts = 3
	NotificationTimeout       = 30 * time.Second
)

// User Types
const (
	UserTypeCustomer = "customer"
	UserTypeDriver   = "driver"
	UserTypeAdmin    = "admin"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Error Messages
const (
	ErrInvalidToken        = "invalid token"
	ErrTokenExpired        = "token expired"
	ErrInvalidInput        = "invalid input"
	ErrInternalServer      = "internal server error"
	ErrUnauthorized        = "unauthorized"
	ErrForbidden           = "forbidden"
	ErrNotFoundMsg         = "not found"
	ErrConflict            = "conflict"
	ErrValidationFailed    = "validation failed"
	ErrFileUploadFailed    = "file upload failed"
	ErrDeliveryNotFound    = "delivery not found"
	ErrOrderNotFound       = "order not found"
	ErrDriverNotFound      = "driver not found"
	ErrPayoutNotFound      = "payout not found"
	ErrTrackingUnavailable = "tracking unavailable"
)

// Cache Keys
const (
	CacheDriverPrefix           = "driver:"
	CacheDriverLocationPrefix   = "driver_location:"
	CacheActiveDeliveryPrefix   = "driver_active_delivery:"
	CacheDeliveryTrackingPrefix = "delivery_tracking:"
	CacheDeliveryOTPPrefix      = "delivery_otp:"
	CacheRateLimitPrefix        = "rate_limit:"
	CacheLockPrefix             = "lock:"
	ActiveDeliveriesSetKey      = "active_deliveries"
)

// Event Types
const (
	EventLocationUpdate    = "location_update"
	EventDeliveryAssigned  = "delivery_assigned"
	EventDeliveryPickedUp  = "delivery_picked_up"
	EventDeliveryArrived   = "delivery_arrived"
	EventDeliveryCompleted = "delivery_completed"
	EventDeliveryCancelled = "delivery_cancelled"
	EventDeliveryOTP       = "delivery_otp"
	EventDeliveryIssue     = "delivery_issue"
	EventPayoutCreated     = "payout_created"
	EventPayoutCompleted   = "payout_completed"
	EventPayoutFailed      = "payout_failed"
)

// Notification Types
const (
	NotificationPush  = "push"
	NotificationSMS   = "sms"
	NotificationInApp = "in_app"
)

// File Types
var (
	AllowedImageTypes     = []string{"jpg", "jpeg", "png", "gif", "webp"}
	AllowedSignatureTypes = []string{"jpg", "jpeg", "png", "svg"}
)

// Contactless delivery instruction keywords, matched case-insensitively
// against order delivery instructions in any supported language.
var ContactlessKeywords = []string{
	"contactless",
	"leave at",
	"leave it at",
	"at the door",
	"no contact",
	"don't knock",
	"sans contact",
	"déposer",
	"deja en",
	"sin contacto",
	"kontaktlos",
}

// Geographic Constants
const (
	EarthRadiusKM    = 6371.0
	EarthRadiusMiles = 3959.0
)
