package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryStatus string
type ProofType string
type IssueType string
type IssueReporter string

const (
	DeliveryStatusAssigned           DeliveryStatus = "assigned"
	DeliveryStatusArrivingRestaurant DeliveryStatus = "arriving_restaurant"
	DeliveryStatusAtRestaurant       DeliveryStatus = "at_restaurant"
	DeliveryStatusPickedUp           DeliveryStatus = "picked_up"
	DeliveryStatusInTransit          DeliveryStatus = "in_transit"
	DeliveryStatusArrived            DeliveryStatus = "arrived"
	DeliveryStatusDelivered          DeliveryStatus = "delivered"
	DeliveryStatusCancelled          DeliveryStatus = "cancelled"

	ProofTypePhoto           ProofType = "photo"
	ProofTypeSignature       ProofType = "signature"
	ProofTypeOTP             ProofType = "otp"
	ProofTypeCustomerConfirm ProofType = "customer_confirm"
	ProofTypeGPS             ProofType = "gps"

	IssueTypeCustomerUnavailable IssueType = "customer_unavailable"
	IssueTypeWrongAddress        IssueType = "wrong_address"
	IssueTypeOrderDamaged        IssueType = "order_damaged"
	IssueTypeMissingItems        IssueType = "missing_items"
	IssueTypeRestaurantDelay     IssueType = "restaurant_delay"
	IssueTypeVehicleBreakdown    IssueType = "vehicle_breakdown"
	IssueTypeAccident            IssueType = "accident"
	IssueTypeOther               IssueType = "other"

	IssueReporterDriver     IssueReporter = "driver"
	IssueReporterCustomer   IssueReporter = "customer"
	IssueReporterRestaurant IssueReporter = "restaurant"
	IssueReporterSystem     IssueReporter = "system"
)

type Delivery struct {
	ID                    primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID               primitive.ObjectID `json:"order_id" bson:"order_id" validate:"required"`
	DriverID              primitive.ObjectID `json:"driver_id" bson:"driver_id" validate:"required"`
	CustomerID            primitive.ObjectID `json:"customer_id" bson:"customer_id" validate:"required"`
	Status                DeliveryStatus     `json:"status" bson:"status" default:"assigned"`
	PickupLocation        Location           `json:"pickup_location" bson:"pickup_location" validate:"required"`
	DropoffLocation       Location           `json:"dropoff_location" bson:"dropoff_location" validate:"required"`
	Distance              float64            `json:"distance" bson:"distance"` // kilometers, pickup to dropoff
	EstimatedPickupTime   *time.Time         `json:"estimated_pickup_time" bson:"estimated_pickup_time"`
	EstimatedDeliveryTime *time.Time         `json:"estimated_delivery_time" bson:"estimated_delivery_time"`
	ActualPickupTime      *time.Time         `json:"actual_pickup_time" bson:"actual_pickup_time"`
	ActualDeliveryTime    *time.Time         `json:"actual_delivery_time" bson:"actual_delivery_time"`
	ArrivedAt             *time.Time         `json:"arrived_at" bson:"arrived_at"`
	Proof                 *ProofOfDelivery   `json:"proof" bson:"proof"`
	Earnings              *DeliveryEarnings  `json:"earnings" bson:"earnings"`
	Issues                []DeliveryIssue    `json:"issues" bson:"issues"`
	CancellationReason    string             `json:"cancellation_reason" bson:"cancellation_reason"`
	CancelledBy           string             `json:"cancelled_by" bson:"cancelled_by"`
	CancelledAt           *time.Time         `json:"cancelled_at" bson:"cancelled_at"`
	AssignedAt            time.Time          `json:"assigned_at" bson:"assigned_at"`
	CreatedAt             time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" bson:"updated_at"`
}

// ProofOfDelivery is written exactly once, when the delivery completes.
type ProofOfDelivery struct {
	Type           ProofType `json:"type" bson:"type" validate:"required"`
	PhotoURL       string    `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	ThumbnailURL   string    `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	PhotoChecksum  string    `json:"-" bson:"photo_checksum,omitempty"`
	SignatureURL   string    `json:"signature_url,omitempty" bson:"signature_url,omitempty"`
	RecipientName  string    `json:"recipient_name,omitempty" bson:"recipient_name,omitempty"`
	OTPVerified    bool      `json:"otp_verified" bson:"otp_verified"`
	GPSCoordinates []float64 `json:"gps_coordinates,omitempty" bson:"gps_coordinates,omitempty"`
	DeliveryNotes  string    `json:"delivery_notes,omitempty" bson:"delivery_notes,omitempty"`
	CompletedAt    time.Time `json:"completed_at" bson:"completed_at"`
}

type DeliveryEarnings struct {
	BaseFee       float64 `json:"base_fee" bson:"base_fee"`
	DistanceBonus float64 `json:"distance_bonus" bson:"distance_bonus"`
	WaitTimeBonus float64 `json:"wait_time_bonus" bson:"wait_time_bonus"`
	PeakHourBonus float64 `json:"peak_hour_bonus" bson:"peak_hour_bonus"`
	Tip           float64 `json:"tip" bson:"tip"`
	Adjustments   float64 `json:"adjustments" bson:"adjustments"`
	Total         float64 `json:"total" bson:"total"`
	Currency      string  `json:"currency" bson:"currency" default:"USD"`
}

type DeliveryIssue struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type        IssueType          `json:"type" bson:"type" validate:"required"`
	Description string             `json:"description" bson:"description" validate:"required"`
	ReportedBy  IssueReporter      `json:"reported_by" bson:"reported_by" validate:"required"`
	ReporterID  primitive.ObjectID `json:"reporter_id" bson:"reporter_id"`
	Photos      []string           `json:"photos" bson:"photos"`
	Urgent      bool               `json:"urgent" bson:"urgent"`
	ReportedAt  time.Time          `json:"reported_at" bson:"reported_at"`
}

var deliveryStatusRank = map[DeliveryStatus]int{
	DeliveryStatusAssigned:           1,
	DeliveryStatusArrivingRestaurant: 2,
	DeliveryStatusAtRestaurant:       3,
	DeliveryStatusPickedUp:           4,
	DeliveryStatusInTransit:          5,
	DeliveryStatusArrived:            6,
	DeliveryStatusDelivered:          7,
}

func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusCancelled
}

// CanTransitionTo allows forward movement through the delivery lifecycle,
// skipping intermediate stages, plus cancellation from any live status.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if s.IsTerminal() || s == next {
		return false
	}
	if next == DeliveryStatusCancelled {
		return true
	}
	currentRank, ok := deliveryStatusRank[s]
	if !ok {
		return false
	}
	nextRank, ok := deliveryStatusRank[next]
	if !ok {
		return false
	}
	return nextRank > currentRank
}

// HeadingToPickup reports whether the courier is still on the restaurant leg.
func (s DeliveryStatus) HeadingToPickup() bool {
	switch s {
	case DeliveryStatusAssigned, DeliveryStatusArrivingRestaurant, DeliveryStatusAtRestaurant:
		return true
	default:
		return false
	}
}

// ActiveDeliveryStatuses lists every non-terminal status, in lifecycle order.
func ActiveDeliveryStatuses() []DeliveryStatus {
	return []DeliveryStatus{
		DeliveryStatusAssigned,
		DeliveryStatusArrivingRestaurant,
		DeliveryStatusAtRestaurant,
		DeliveryStatusPickedUp,
		DeliveryStatusInTransit,
		DeliveryStatusArrived,
	}
}
