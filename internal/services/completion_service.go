package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"swiftserve/internal/config"
	"swiftserve/internal/models"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/utils"
	"swiftserve/internal/validators"
	"swiftserve/pkg/logger"
	"swiftserve/pkg/storage"
	"swiftserve/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CompletionService turns staged proof into a final, immutable
// proof-of-delivery record and settles the delivery: status cascade,
// earnings credit, driver release, notifications.
type CompletionService interface {
	SubmitPhotoProof(ctx context.Context, deliveryID, driverID primitive.ObjectID, file multipart.File, filename string) (*ProofUploadResponse, error)
	SubmitSignatureProof(ctx context.Context, deliveryID, driverID primitive.ObjectID, file multipart.File, filename, recipientName string) (*ProofUploadResponse, error)
	CompleteDeliveryWithProof(ctx context.Context, deliveryID, driverID primitive.ObjectID, request *validators.CompleteDeliveryRequest) (*models.Delivery, error)
	CustomerConfirmDelivery(ctx context.Context, deliveryID, customerID primitive.ObjectID, notes string) (*models.Delivery, error)
}

type ProofUploadResponse struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// completableStatuses gates driver-initiated completion. Everything earlier
// in the lifecycle is too soon; delivered/cancelled make repeat calls fail,
// which is what keeps completedAt single-shot.
var completableStatuses = []models.DeliveryStatus{
	models.DeliveryStatusInTransit,
	models.DeliveryStatusArrived,
}

type completionService struct {
	tx           TxRunner
	deliveryRepo interfaces.DeliveryRepository
	orderRepo    interfaces.OrderRepository
	driverRepo   interfaces.DriverRepository
	customerRepo interfaces.CustomerRepository
	policy       *PODPolicy
	podService   PODService
	tracking     TrackingService
	storage      storage.StorageProvider
	pushService  PushService
	wsHub        *websocket.Hub
	logger       *logger.Logger

	peakHourBonus   float64
	peakHourWindows []string
	maxProofBytes   int64
}

func NewCompletionService(
	cfg *config.Config,
	tx TxRunner,
	deliveryRepo interfaces.DeliveryRepository,
	orderRepo interfaces.OrderRepository,
	driverRepo interfaces.DriverRepository,
	customerRepo interfaces.CustomerRepository,
	policy *PODPolicy,
	podService PODService,
	tracking TrackingService,
	storageProvider storage.StorageProvider,
	pushService PushService,
	wsHub *websocket.Hub,
	logger *logger.Logger,
) CompletionService {
	return &completionService{
		tx:              tx,
		deliveryRepo:    deliveryRepo,
		orderRepo:       orderRepo,
		driverRepo:      driverRepo,
		customerRepo:    customerRepo,
		policy:          policy,
		podService:      podService,
		tracking:        tracking,
		storage:         storageProvider,
		pushService:     pushService,
		wsHub:           wsHub,
		logger:          logger,
		peakHourBonus:   cfg.Delivery.PeakHourBonus,
		peakHourWindows: cfg.Delivery.PeakHourWindows,
		maxProofBytes:   int64(cfg.Delivery.MaxProofFileSizeMB) * 1024 * 1024,
	}
}

// SubmitPhotoProof uploads a drop-off photo and stages it on the delivery
// without finalizing.
func (s *completionService) SubmitPhotoProof(ctx context.Context, deliveryID, driverID primitive.ObjectID, file multipart.File, filename string) (*ProofUploadResponse, error) {
	delivery, err := s.assignedActiveDelivery(ctx, deliveryID, driverID)
	if err != nil {
		return nil, err
	}

	if !utils.IsImageFile(filename) {
		return nil, fmt.Errorf("unsupported photo format %q: %w", utils.GetFileExtension(filename), ErrValidation)
	}
	if err := utils.ValidateFileSize(file, s.maxProofBytes); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	checksum, err := utils.GetFileMD5(file)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum photo: %w", err)
	}

	uploaded, err := s.uploadProofFile(ctx, delivery.ID, "photo", file, filename)
	if err != nil {
		return nil, err
	}

	response := &ProofUploadResponse{URL: uploaded.URL}
	response.ThumbnailURL = s.uploadThumbnail(ctx, delivery.ID, file, filename)

	fields := map[string]interface{}{
		"photo_url":      uploaded.URL,
		"photo_checksum": checksum,
	}
	if response.ThumbnailURL != "" {
		fields["thumbnail_url"] = response.ThumbnailURL
	}
	if err := s.deliveryRepo.SetProofFields(ctx, delivery.ID, fields); err != nil {
		return nil, err
	}

	s.logger.LogDeliveryEvent(delivery.ID, "proof_photo_submitted", map[string]interface{}{
		"driver_id": driverID.Hex(),
		"checksum":  checksum,
	})

	return response, nil
}

// SubmitSignatureProof uploads a recipient signature image and stages it on
// the delivery without finalizing.
func (s *completionService) SubmitSignatureProof(ctx context.Context, deliveryID, driverID primitive.ObjectID, file multipart.File, filename, recipientName string) (*ProofUploadResponse, error) {
	delivery, err := s.assignedActiveDelivery(ctx, deliveryID, driverID)
	if err != nil {
		return nil, err
	}

	if !utils.IsSignatureFile(filename) {
		return nil, fmt.Errorf("unsupported signature format %q: %w", utils.GetFileExtension(filename), ErrValidation)
	}
	if err := utils.ValidateFileSize(file, utils.MaxSignatureSize); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	uploaded, err := s.uploadProofFile(ctx, delivery.ID, "signature", file, filename)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"signature_url": uploaded.URL,
	}
	if recipientName != "" {
		fields["recipient_name"] = recipientName
	}
	if err := s.deliveryRepo.SetProofFields(ctx, delivery.ID, fields); err != nil {
		return nil, err
	}

	s.logger.LogDeliveryEvent(delivery.ID, "proof_signature_submitted", map[string]interface{}{
		"driver_id": driverID.Hex(),
	})

	return &ProofUploadResponse{URL: uploaded.URL}, nil
}

func (s *completionService) CompleteDeliveryWithProof(ctx context.Context, deliveryID, driverID primitive.ObjectID, request *validators.CompleteDeliveryRequest) (*models.Delivery, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, delivery.OrderID)
	if err != nil {
		return nil, err
	}

	if delivery.DriverID != driverID {
		return nil, fmt.Errorf("delivery %s is not assigned to driver %s: %w", deliveryID.Hex(), driverID.Hex(), ErrUnauthorized)
	}
	if delivery.Status != models.DeliveryStatusArrived && delivery.Status != models.DeliveryStatusInTransit {
		return nil, fmt.Errorf("delivery %s is not ready for completion (status %s): %w", deliveryID.Hex(), delivery.Status, ErrPrecondition)
	}

	requirements := s.policy.Requirements(order)

	otpVerified := delivery.Proof != nil && delivery.Proof.OTPVerified
	if requirements.OTPRequired {
		if request.OTPCode != "" {
			if err := s.podService.VerifyDeliveryOTP(ctx, deliveryID, driverID, request.OTPCode); err != nil {
				return nil, err
			}
			otpVerified = true
		}
		if !otpVerified {
			return nil, fmt.Errorf("OTP verification required: %w", ErrValidation)
		}
	}

	proof := models.ProofOfDelivery{}
	if delivery.Proof != nil {
		proof = *delivery.Proof
	}
	proof.OTPVerified = otpVerified
	if request.PhotoURL != "" {
		proof.PhotoURL = request.PhotoURL
	}
	if request.SignatureURL != "" {
		proof.SignatureURL = request.SignatureURL
	}
	if request.RecipientName != "" {
		proof.RecipientName = request.RecipientName
	}
	if request.DeliveryNotes != "" {
		proof.DeliveryNotes = request.DeliveryNotes
	}
	if len(request.GPSCoordinates) == 2 {
		proof.GPSCoordinates = request.GPSCoordinates
	}

	if requirements.PhotoRequired && proof.PhotoURL == "" {
		return nil, fmt.Errorf("photo proof required: %w", ErrValidation)
	}
	if requirements.SignatureRequired && proof.SignatureURL == "" {
		return nil, fmt.Errorf("signature proof required: %w", ErrValidation)
	}

	proof.Type = resolveProofType(&proof)

	return s.finalize(ctx, delivery, order, &proof, completableStatuses)
}

// CustomerConfirmDelivery lets the order's customer confirm receipt
// directly. It finalizes from any live status; the customer holding the
// order is evidence enough.
func (s *completionService) CustomerConfirmDelivery(ctx context.Context, deliveryID, customerID primitive.ObjectID, notes string) (*models.Delivery, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, delivery.OrderID)
	if err != nil {
		return nil, err
	}

	if delivery.CustomerID != customerID {
		return nil, fmt.Errorf("delivery %s does not belong to customer %s: %w", deliveryID.Hex(), customerID.Hex(), ErrUnauthorized)
	}
	if delivery.Status.IsTerminal() {
		return nil, fmt.Errorf("delivery %s is already %s: %w", deliveryID.Hex(), delivery.Status, ErrPrecondition)
	}

	proof := models.ProofOfDelivery{}
	if delivery.Proof != nil {
		proof = *delivery.Proof
	}
	proof.Type = models.ProofTypeCustomerConfirm
	if notes != "" {
		proof.DeliveryNotes = notes
	}

	return s.finalize(ctx, delivery, order, &proof, models.ActiveDeliveryStatuses())
}

// finalize writes proof, earnings and the status flip in one conditional
// update, credits the driver in the same transaction, then runs the
// cascades and notifications that may fail independently.
func (s *completionService) finalize(ctx context.Context, delivery *models.Delivery, order *models.Order, proof *models.ProofOfDelivery, allowedFrom []models.DeliveryStatus) (*models.Delivery, error) {
	now := time.Now()
	if proof.CompletedAt.IsZero() {
		proof.CompletedAt = now
	}

	earnings := s.finalizeEarnings(delivery, order, now)

	_, err := s.tx.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := s.deliveryRepo.CompleteWithProof(sessCtx, delivery.ID, proof, earnings, allowedFrom); err != nil {
			return nil, err
		}
		if err := s.driverRepo.CreditEarnings(sessCtx, delivery.DriverID, earnings.Total); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.MarkDelivered(ctx, order.ID, now); err != nil {
		s.logger.WithDeliveryID(delivery.ID).WithError(err).Error("Failed to cascade order delivery status")
	}

	if err := s.driverRepo.SetCurrentDelivery(ctx, delivery.DriverID, nil); err != nil {
		s.logger.WithDriverID(delivery.DriverID).WithError(err).Warn("Failed to clear current delivery")
	}
	if err := s.driverRepo.SetAvailability(ctx, delivery.DriverID, true); err != nil {
		s.logger.WithDriverID(delivery.DriverID).WithError(err).Warn("Failed to restore driver availability")
	}
	if err := s.driverRepo.IncrementDeliveryCounters(ctx, delivery.DriverID, true); err != nil {
		s.logger.WithDriverID(delivery.DriverID).WithError(err).Warn("Failed to bump delivery counters")
	}
	if err := s.tracking.ClearDriverActiveDelivery(ctx, delivery.DriverID, delivery.ID); err != nil {
		s.logger.WithDriverID(delivery.DriverID).WithError(err).Warn("Failed to clear live tracking state")
	}

	s.notifyCompleted(ctx, delivery, order, proof, now)

	s.logger.LogDeliveryEvent(delivery.ID, "delivery_completed", map[string]interface{}{
		"driver_id":  delivery.DriverID.Hex(),
		"proof_type": string(proof.Type),
		"earnings":   earnings.Total,
	})

	updated, err := s.deliveryRepo.GetByID(ctx, delivery.ID)
	if err != nil {
		// The write committed; reconstruct the result locally.
		delivery.Status = models.DeliveryStatusDelivered
		delivery.Proof = proof
		delivery.Earnings = earnings
		delivery.ActualDeliveryTime = &now
		return delivery, nil
	}
	return updated, nil
}

// finalizeEarnings settles the quote made at assignment: the tip is copied
// from the order, the peak-hour bonus applies when completion lands inside
// a configured window, and the total is recomputed from the parts.
func (s *completionService) finalizeEarnings(delivery *models.Delivery, order *models.Order, completedAt time.Time) *models.DeliveryEarnings {
	earnings := models.DeliveryEarnings{Currency: utils.DefaultCurrency}
	if delivery.Earnings != nil {
		earnings = *delivery.Earnings
	}
	if earnings.Currency == "" {
		earnings.Currency = utils.DefaultCurrency
	}

	earnings.Tip = order.Tip
	if earnings.PeakHourBonus == 0 && s.peakHourBonus > 0 && utils.InClockWindows(completedAt, s.peakHourWindows) {
		earnings.PeakHourBonus = s.peakHourBonus
	}
	earnings.Total = utils.RoundCurrency(
		earnings.BaseFee+earnings.DistanceBonus+earnings.WaitTimeBonus+earnings.PeakHourBonus+earnings.Tip+earnings.Adjustments,
		earnings.Currency,
	)

	return &earnings
}

func (s *completionService) notifyCompleted(ctx context.Context, delivery *models.Delivery, order *models.Order, proof *models.ProofOfDelivery, completedAt time.Time) {
	data := map[string]interface{}{
		"delivery_id":   delivery.ID.Hex(),
		"order_id":      order.ID.Hex(),
		"proof_type":    string(proof.Type),
		"has_photo":     proof.PhotoURL != "",
		"has_signature": proof.SignatureURL != "",
		"otp_verified":  proof.OTPVerified,
		"completed_at":  completedAt,
	}

	s.wsHub.SendDeliveryUpdate(delivery.ID, websocket.Message{
		Type: utils.EventDeliveryCompleted,
		Data: data,
	})
	s.wsHub.SendOrderUpdate(order.ID, websocket.Message{
		Type: utils.EventDeliveryCompleted,
		Data: data,
	})

	customer, err := s.customerRepo.GetByID(ctx, delivery.CustomerID)
	if err != nil {
		s.logger.WithDeliveryID(delivery.ID).WithError(err).Warn("Failed to load customer for completion push")
		return
	}
	if len(customer.DeviceTokens) == 0 {
		return
	}

	body := "Your order has been delivered. Enjoy!"
	if order.RestaurantName != "" {
		body = fmt.Sprintf("Your order from %s has been delivered. Enjoy!", order.RestaurantName)
	}
	if err := s.pushService.SendToTokens(ctx, customer.DeviceTokens, "Order delivered", body, map[string]string{
		"type":        utils.EventDeliveryCompleted,
		"delivery_id": delivery.ID.Hex(),
		"order_id":    order.ID.Hex(),
	}); err != nil {
		s.logger.WithDeliveryID(delivery.ID).WithError(err).Warn("Failed to push completion notification")
	}
}

func (s *completionService) assignedActiveDelivery(ctx context.Context, deliveryID, driverID primitive.ObjectID) (*models.Delivery, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if delivery.DriverID != driverID {
		return nil, fmt.Errorf("delivery %s is not assigned to driver %s: %w", deliveryID.Hex(), driverID.Hex(), ErrUnauthorized)
	}
	if delivery.Status.IsTerminal() {
		return nil, fmt.Errorf("delivery %s is already %s: %w", deliveryID.Hex(), delivery.Status, ErrPrecondition)
	}
	return delivery, nil
}

func (s *completionService) uploadProofFile(ctx context.Context, deliveryID primitive.ObjectID, kind string, file multipart.File, filename string) (*storage.UploadResponse, error) {
	size, err := utils.GetFileSizeFromHeader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to size %s upload: %w", kind, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %s upload: %w", kind, err)
	}

	key := fmt.Sprintf("proofs/%s/%s_%s", deliveryID.Hex(), kind, utils.GenerateUniqueFilename(filename))
	uploaded, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:         key,
		Reader:      file,
		ContentType: utils.GetContentType(filename),
		Size:        size,
		ACL:         "private",
		Metadata: map[string]string{
			"delivery_id": deliveryID.Hex(),
			"kind":        kind,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s proof: %w", kind, err)
	}

	return uploaded, nil
}

// uploadThumbnail is best-effort; the full-size photo is the proof.
func (s *completionService) uploadThumbnail(ctx context.Context, deliveryID primitive.ObjectID, file multipart.File, filename string) string {
	thumbnail, err := utils.GenerateThumbnail(file, filename)
	if err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to generate proof thumbnail")
		return ""
	}

	var buffer bytes.Buffer
	format := strings.TrimPrefix(strings.ToLower(utils.GetFileExtension(filename)), ".")
	if err := utils.EncodeImage(thumbnail, format, &buffer, 80); err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to encode proof thumbnail")
		return ""
	}

	key := fmt.Sprintf("proofs/%s/thumb_%s", deliveryID.Hex(), utils.GenerateUniqueFilename(filename))
	uploaded, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:         key,
		Reader:      &buffer,
		ContentType: utils.GetContentType(filename),
		Size:        int64(buffer.Len()),
		ACL:         "private",
	})
	if err != nil {
		s.logger.WithDeliveryID(deliveryID).WithError(err).Warn("Failed to upload proof thumbnail")
		return ""
	}

	return uploaded.URL
}

// resolveProofType picks the strongest evidence present: photo, then
// signature, then a verified OTP, with bare GPS coordinates as the last
// resort.
func resolveProofType(proof *models.ProofOfDelivery) models.ProofType {
	switch {
	case proof.PhotoURL != "":
		return models.ProofTypePhoto
	case proof.SignatureURL != "":
		return models.ProofTypeSignature
	case proof.OTPVerified:
		return models.ProofTypeOTP
	default:
		return models.ProofTypeGPS
	}
}
