package services

import (
	"context"
	"fmt"

	"swiftserve/internal/models"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/utils"
	"swiftserve/pkg/logger"
	"swiftserve/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueService records problems raised against a delivery. Issues never move
// the delivery's status; they are an audit trail for ops, who resolve them
// out of band.
type IssueService interface {
	ReportDeliveryIssue(ctx context.Context, deliveryID, reporterID primitive.ObjectID, reportedBy models.IssueReporter, issueType models.IssueType, description string, photos []string) (*models.DeliveryIssue, error)
	ListDeliveryIssues(ctx context.Context, deliveryID primitive.ObjectID) ([]models.DeliveryIssue, error)
	GetDeliveriesWithOpenIssues(ctx context.Context, urgentOnly bool, params *utils.PaginationParams) ([]*models.Delivery, int64, error)
}

type issueService struct {
	deliveryRepo interfaces.DeliveryRepository
	wsHub        *websocket.Hub
	logger       *logger.Logger
}

func NewIssueService(deliveryRepo interfaces.DeliveryRepository, wsHub *websocket.Hub, logger *logger.Logger) IssueService {
	return &issueService{
		deliveryRepo: deliveryRepo,
		wsHub:        wsHub,
		logger:       logger,
	}
}

// ReportDeliveryIssue appends the issue to the delivery and alerts the ops
// room. Only the assigned driver or the delivery's customer may report;
// system-raised issues skip that check.
func (s *issueService) ReportDeliveryIssue(ctx context.Context, deliveryID, reporterID primitive.ObjectID, reportedBy models.IssueReporter, issueType models.IssueType, description string, photos []string) (*models.DeliveryIssue, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	switch reportedBy {
	case models.IssueReporterDriver:
		if delivery.DriverID != reporterID {
			return nil, fmt.Errorf("driver %s is not assigned to delivery %s: %w",
				reporterID.Hex(), deliveryID.Hex(), ErrUnauthorized)
		}
	case models.IssueReporterCustomer:
		if delivery.CustomerID != reporterID {
			return nil, fmt.Errorf("customer %s does not own delivery %s: %w",
				reporterID.Hex(), deliveryID.Hex(), ErrUnauthorized)
		}
	case models.IssueReporterSystem, models.IssueReporterRestaurant:
		// trusted reporters
	default:
		return nil, fmt.Errorf("unknown issue reporter %q: %w", reportedBy, ErrValidation)
	}

	issue := &models.DeliveryIssue{
		ID:          primitive.NewObjectID(),
		Type:        issueType,
		Description: description,
		ReportedBy:  reportedBy,
		ReporterID:  reporterID,
		Photos:      photos,
		Urgent:      issueType == models.IssueTypeOrderDamaged || issueType == models.IssueTypeAccident,
	}

	if err := s.deliveryRepo.AddIssue(ctx, deliveryID, issue); err != nil {
		return nil, err
	}

	s.wsHub.SendOpsAlert(websocket.Message{
		Type: utils.EventDeliveryIssue,
		Data: map[string]interface{}{
			"delivery_id": deliveryID.Hex(),
			"order_id":    delivery.OrderID.Hex(),
			"issue_id":    issue.ID.Hex(),
			"issue_type":  string(issueType),
			"reported_by": string(reportedBy),
			"urgent":      issue.Urgent,
			"description": description,
		},
	})

	s.logger.WithDeliveryID(deliveryID).WithFields(map[string]interface{}{
		"issue_type":  string(issueType),
		"reported_by": string(reportedBy),
		"urgent":      issue.Urgent,
	}).Warn("Delivery issue reported")

	return issue, nil
}

func (s *issueService) ListDeliveryIssues(ctx context.Context, deliveryID primitive.ObjectID) ([]models.DeliveryIssue, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	return delivery.Issues, nil
}

func (s *issueService) GetDeliveriesWithOpenIssues(ctx context.Context, urgentOnly bool, params *utils.PaginationParams) ([]*models.Delivery, int64, error) {
	return s.deliveryRepo.GetWithOpenIssues(ctx, urgentOnly, params)
}
