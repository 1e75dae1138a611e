package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swiftserve/internal/config"
	"swiftserve/internal/models"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/utils"
	"swiftserve/pkg/logger"
	"swiftserve/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TrackingService interface {
	// Location ingest
	UpdateDriverLocation(ctx context.Context, location *models.DriverLocation) error

	// Reads
	GetDriverLocation(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error)
	GetDriverLocations(ctx context.Context, driverIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.DriverLocation, error)
	GetDeliveryTracking(ctx context.Context, deliveryID, requesterID primitive.ObjectID, requesterRole string) (*models.DeliveryTracking, error)
	GetOrderTracking(ctx context.Context, orderID, requesterID primitive.ObjectID, requesterRole string) (*models.DeliveryTracking, error)
	GetActiveDeliveryCount(ctx context.Context) (int64, error)

	// Assignment mapping maintenance
	SetDriverActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID) error
	ClearDriverActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID) error
}

type trackingService struct {
	cache        CacheService
	deliveryRepo interfaces.DeliveryRepository
	orderRepo    interfaces.OrderRepository
	driverRepo   interfaces.DriverRepository
	wsHub        *websocket.Hub
	logger       *logger.Logger

	locationTTL   time.Duration
	trackingTTL   time.Duration
	assignmentTTL time.Duration
	defaultSpeed  float64
}

func NewTrackingService(
	cfg *config.Config,
	cache CacheService,
	deliveryRepo interfaces.DeliveryRepository,
	orderRepo interfaces.OrderRepository,
	driverRepo interfaces.DriverRepository,
	wsHub *websocket.Hub,
	logger *logger.Logger,
) TrackingService {
	return &trackingService{
		cache:         cache,
		deliveryRepo:  deliveryRepo,
		orderRepo:     orderRepo,
		driverRepo:    driverRepo,
		wsHub:         wsHub,
		logger:        logger,
		locationTTL:   cfg.Delivery.LocationTTL,
		trackingTTL:   cfg.Delivery.TrackingTTL,
		assignmentTTL: cfg.Delivery.AssignmentTTL,
		defaultSpeed:  cfg.Delivery.DefaultSpeedKMH,
	}
}

// UpdateDriverLocation stores the courier's position with a freshness TTL
// and fans it out to anyone watching the active delivery. The fan-out runs
// asynchronously; the ingest path only validates and writes the cache.
func (s *trackingService) UpdateDriverLocation(ctx context.Context, location *models.DriverLocation) error {
	if location == nil || location.DriverID.IsZero() {
		return fmt.Errorf("driver id is required: %w", ErrValidation)
	}
	if !utils.IsValidCoordinates(location.Latitude, location.Longitude) {
		return fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}
	if location.Timestamp.IsZero() {
		location.Timestamp = time.Now()
	}

	if err := s.cache.SetDriverLocation(ctx, location, s.locationTTL); err != nil {
		// Position updates arrive every few seconds; losing one to an
		// unreachable cache is not worth failing the courier app for.
		s.logger.WithDriverID(location.DriverID).WithError(err).Warn("Failed to store driver location")
		return nil
	}

	go s.persistDriverLocation(location)
	go s.broadcastLocation(location)

	return nil
}

func (s *trackingService) GetDriverLocation(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	location, err := s.cache.GetDriverLocation(ctx, driverID)
	if err != nil {
		if IsCacheMiss(err) {
			return nil, fmt.Errorf("no recent location for driver %s: %w", driverID.Hex(), ErrNotFound)
		}
		return nil, fmt.Errorf("location store unreachable: %w", ErrUnavailable)
	}
	return location, nil
}

func (s *trackingService) GetDriverLocations(ctx context.Context, driverIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.DriverLocation, error) {
	locations, err := s.cache.GetDriverLocations(ctx, driverIDs)
	if err != nil {
		return nil, fmt.Errorf("location store unreachable: %w", ErrUnavailable)
	}
	return locations, nil
}

func (s *trackingService) GetDeliveryTracking(ctx context.Context, deliveryID, requesterID primitive.ObjectID, requesterRole string) (*models.DeliveryTracking, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if err := authorizeDeliveryAccess(delivery, requesterID, requesterRole); err != nil {
		return nil, err
	}
	return s.trackingForDelivery(ctx, delivery)
}

func (s *trackingService) GetOrderTracking(ctx context.Context, orderID, requesterID primitive.ObjectID, requesterRole string) (*models.DeliveryTracking, error) {
	delivery, err := s.deliveryRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeDeliveryAccess(delivery, requesterID, requesterRole); err != nil {
		return nil, err
	}
	return s.trackingForDelivery(ctx, delivery)
}

func (s *trackingService) GetActiveDeliveryCount(ctx context.Context) (int64, error) {
	count, err := s.cache.SCard(ctx, utils.ActiveDeliveriesSetKey)
	if err != nil {
		return 0, fmt.Errorf("failed to count active deliveries: %w", err)
	}
	return count, nil
}

// SetDriverActiveDelivery records which delivery the courier is working on
// so incoming positions can be routed without a database lookup.
func (s *trackingService) SetDriverActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID) error {
	if err := s.cache.SetActiveDelivery(ctx, driverID, deliveryID, s.assignmentTTL); err != nil {
		return fmt.Errorf("failed to map driver to delivery: %w", err)
	}
	if err := s.cache.AddActiveDeliverySet(ctx, deliveryID); err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to register delivery in active set")
	}
	return nil
}

func (s *trackingService) ClearDriverActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID) error {
	if err := s.cache.ClearActiveDelivery(ctx, driverID); err != nil {
		return fmt.Errorf("failed to clear driver delivery mapping: %w", err)
	}
	if err := s.cache.RemoveActiveDeliverySet(ctx, deliveryID); err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to remove delivery from active set")
	}
	if err := s.cache.ClearDeliveryTracking(ctx, deliveryID); err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to clear tracking snapshot")
	}
	return nil
}

// persistDriverLocation mirrors the position onto the driver record so it
// survives a cache flush. Runs off the request context.
func (s *trackingService) persistDriverLocation(location *models.DriverLocation) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	point := &models.Location{
		Type:        "Point",
		Coordinates: []float64{location.Longitude, location.Latitude},
		Timestamp:   location.Timestamp,
	}
	if err := s.driverRepo.UpdateLocation(ctx, location.DriverID, point); err != nil {
		s.logger.WithDriverID(location.DriverID).WithError(err).Warn("Failed to persist driver location")
	}
}

// broadcastLocation resolves the courier's active delivery, recomputes the
// ETA toward the current leg's destination and pushes the update to the
// delivery and order rooms. Every failure degrades to a warn log.
func (s *trackingService) broadcastLocation(location *models.DriverLocation) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deliveryID, ok := s.resolveActiveDelivery(ctx, location.DriverID)
	if !ok {
		return
	}

	snapshot := s.loadTrackingSnapshot(ctx, deliveryID)
	if snapshot == nil {
		return
	}

	// Which endpoint the courier is heading to depends on the leg.
	var destination models.Location
	switch snapshot.Status {
	case models.DeliveryStatusAssigned, models.DeliveryStatusArrivingRestaurant, models.DeliveryStatusAtRestaurant:
		destination = snapshot.PickupLocation
	case models.DeliveryStatusPickedUp, models.DeliveryStatusInTransit, models.DeliveryStatusArrived:
		destination = snapshot.DropoffLocation
	default:
		// Terminal statuses have no destination left to announce.
		return
	}

	speed := s.defaultSpeed
	if location.Speed != nil && *location.Speed > 0 {
		speed = *location.Speed
	}
	eta := utils.CalculateETA(location.Latitude, location.Longitude, destination.Latitude(), destination.Longitude(), speed)

	now := time.Now()
	etaData := map[string]interface{}{
		"minutes":         eta.Minutes,
		"distance_meters": eta.DistanceMeters,
		"updated_at":      now,
	}

	s.wsHub.SendDeliveryUpdate(deliveryID, websocket.Message{
		Type: utils.EventLocationUpdate,
		Data: map[string]interface{}{
			"delivery_id": deliveryID.Hex(),
			"location": map[string]interface{}{
				"latitude":  location.Latitude,
				"longitude": location.Longitude,
				"heading":   location.Heading,
				"speed":     location.Speed,
				"timestamp": location.Timestamp,
			},
			"eta": etaData,
		},
	})

	// Customers get position and ETA only, not courier telemetry.
	s.wsHub.SendOrderUpdate(snapshot.OrderID, websocket.Message{
		Type: utils.EventLocationUpdate,
		Data: map[string]interface{}{
			"order_id": snapshot.OrderID.Hex(),
			"location": map[string]interface{}{
				"latitude":  location.Latitude,
				"longitude": location.Longitude,
			},
			"eta": etaData,
		},
	})

	snapshot.ETAMinutes = eta.Minutes
	snapshot.DistanceMeters = eta.DistanceMeters
	snapshot.UpdatedAt = now
	if err := s.cache.SetDeliveryTracking(ctx, snapshot, s.trackingTTL); err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to refresh tracking snapshot")
	}
}

// resolveActiveDelivery looks up which delivery the courier is on, falling
// back to the database when the cached mapping has expired.
func (s *trackingService) resolveActiveDelivery(ctx context.Context, driverID primitive.ObjectID) (primitive.ObjectID, bool) {
	deliveryID, err := s.cache.GetActiveDelivery(ctx, driverID)
	if err == nil {
		return deliveryID, true
	}
	if !IsCacheMiss(err) {
		s.logger.WithDriverID(driverID).WithError(err).Warn("Failed to resolve active delivery")
		return primitive.NilObjectID, false
	}

	delivery, err := s.deliveryRepo.GetActiveByDriver(ctx, driverID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WithDriverID(driverID).WithError(err).Warn("Failed to load active delivery")
		}
		return primitive.NilObjectID, false
	}

	if err := s.cache.SetActiveDelivery(ctx, driverID, delivery.ID, s.assignmentTTL); err != nil {
		s.logger.WithDriverID(driverID).WithError(err).Warn("Failed to re-cache active delivery mapping")
	}
	return delivery.ID, true
}

// loadTrackingSnapshot returns the cached snapshot, rebuilding it from the
// delivery record on a miss.
func (s *trackingService) loadTrackingSnapshot(ctx context.Context, deliveryID primitive.ObjectID) *models.DeliveryTracking {
	snapshot, err := s.cache.GetDeliveryTracking(ctx, deliveryID)
	if err == nil {
		return snapshot
	}
	if !IsCacheMiss(err) {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to read tracking snapshot")
	}

	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to load delivery for tracking")
		return nil
	}

	snapshot = snapshotFromDelivery(delivery)
	if err := s.cache.SetDeliveryTracking(ctx, snapshot, s.trackingTTL); err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to cache tracking snapshot")
	}
	return snapshot
}

// trackingForDelivery serves the read API. The cached snapshot may lag a
// status transition, so the status always comes from the delivery record.
func (s *trackingService) trackingForDelivery(ctx context.Context, delivery *models.Delivery) (*models.DeliveryTracking, error) {
	snapshot := s.loadTrackingSnapshot(ctx, delivery.ID)
	if snapshot == nil {
		snapshot = snapshotFromDelivery(delivery)
	}
	snapshot.Status = delivery.Status

	if location, err := s.cache.GetDriverLocation(ctx, delivery.DriverID); err == nil {
		snapshot.DriverLocation = location
	} else if !IsCacheMiss(err) {
		s.logger.WithDriverID(delivery.DriverID).WithError(err).Warn("Failed to read driver location")
	}

	return snapshot, nil
}

func snapshotFromDelivery(delivery *models.Delivery) *models.DeliveryTracking {
	return &models.DeliveryTracking{
		DeliveryID:      delivery.ID,
		OrderID:         delivery.OrderID,
		DriverID:        delivery.DriverID,
		Status:          delivery.Status,
		PickupLocation:  delivery.PickupLocation,
		DropoffLocation: delivery.DropoffLocation,
		UpdatedAt:       time.Now(),
	}
}

func authorizeDeliveryAccess(delivery *models.Delivery, requesterID primitive.ObjectID, requesterRole string) error {
	switch requesterRole {
	case utils.UserTypeAdmin:
		return nil
	case utils.UserTypeDriver:
		if delivery.DriverID == requesterID {
			return nil
		}
	case utils.UserTypeCustomer:
		if delivery.CustomerID == requesterID {
			return nil
		}
	}
	return fmt.Errorf("delivery %s does not belong to requester: %w", delivery.ID.Hex(), ErrUnauthorized)
}
