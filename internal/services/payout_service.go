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
	"swiftserve/internal/validators"
	"swiftserve/pkg/logger"
	"swiftserve/pkg/payout"
	"swiftserve/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PayoutService moves settled earnings out of driver balances. Funds are
// debited when a payout is created, held while it is pending or processing,
// and credited back if it fails or is cancelled; CompletePayout never
// touches the balance. The same policy applies to instant and weekly
// payouts so the held-funds invariant is uniform.
type PayoutService interface {
	// Driver surface
	RequestInstantPayout(ctx context.Context, driverID primitive.ObjectID, amount float64) (*models.Payout, error)
	UpdateBankAccount(ctx context.Context, driverID primitive.ObjectID, request *validators.BankAccountRequest) (*models.BankAccount, error)
	GetPayout(ctx context.Context, payoutID primitive.ObjectID) (*models.Payout, error)
	GetDriverPayouts(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error)

	// Admin state machine
	ProcessPayout(ctx context.Context, payoutID primitive.ObjectID) (*models.Payout, error)
	CompletePayout(ctx context.Context, payoutID primitive.ObjectID, transactionID, providerRef string) (*models.Payout, error)
	FailPayout(ctx context.Context, payoutID primitive.ObjectID, reason string) (*models.Payout, error)
	RetryPayout(ctx context.Context, payoutID primitive.ObjectID) (*models.Payout, error)
	CancelPayout(ctx context.Context, payoutID primitive.ObjectID, reason string) (*models.Payout, error)
	AddAdjustment(ctx context.Context, payoutID primitive.ObjectID, reason string, amount float64, addedBy primitive.ObjectID) (*models.Payout, error)

	// Batch settlement
	GenerateWeeklyPayouts(ctx context.Context, periodStart, periodEnd time.Time) (*WeeklyPayoutRun, error)

	// Reporting
	ListPayouts(ctx context.Context, filter *interfaces.PayoutFilter, params *utils.PaginationParams) ([]*models.Payout, int64, error)
	PendingSummary(ctx context.Context) (*models.PayoutSummary, error)
	GetPayoutStatistics(ctx context.Context, startDate, endDate time.Time) (map[string]interface{}, error)
}

// WeeklyPayoutRun reports what one settlement pass did.
type WeeklyPayoutRun struct {
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	DriversExamined int       `json:"drivers_examined"`
	PayoutsCreated  int       `json:"payouts_created"`
	SkippedExisting int       `json:"skipped_existing"`
	SkippedNoBank   int       `json:"skipped_no_bank"`
	TotalAmount     float64   `json:"total_amount"`
}

type payoutService struct {
	tx           TxRunner
	payoutRepo   interfaces.PayoutRepository
	driverRepo   interfaces.DriverRepository
	deliveryRepo interfaces.DeliveryRepository
	disburser    payout.DisbursementProvider
	pushService  PushService
	wsHub        *websocket.Hub
	logger       *logger.Logger

	minInstantAmount float64
	instantFee       float64
	maxRetries       int
	encryptionKey    string
}

func NewPayoutService(
	cfg *config.Config,
	tx TxRunner,
	payoutRepo interfaces.PayoutRepository,
	driverRepo interfaces.DriverRepository,
	deliveryRepo interfaces.DeliveryRepository,
	disburser payout.DisbursementProvider,
	pushService PushService,
	wsHub *websocket.Hub,
	logger *logger.Logger,
) PayoutService {
	return &payoutService{
		tx:               tx,
		payoutRepo:       payoutRepo,
		driverRepo:       driverRepo,
		deliveryRepo:     deliveryRepo,
		disburser:        disburser,
		pushService:      pushService,
		wsHub:            wsHub,
		logger:           logger,
		minInstantAmount: cfg.Delivery.MinInstantPayoutAmount,
		instantFee:       cfg.Delivery.InstantPayoutFee,
		maxRetries:       cfg.Delivery.MaxPayoutRetries,
		encryptionKey:    cfg.Security.EncryptionKey,
	}
}

// RequestInstantPayout creates a fee-bearing on-demand payout. The balance
// debit and the payout insert commit together; the debit is conditional on
// the balance still covering the amount, so two concurrent requests cannot
// both drain the same funds.
func (s *payoutService) RequestInstantPayout(ctx context.Context, driverID primitive.ObjectID, amount float64) (*models.Payout, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.HasVerifiedBankAccount() {
		return nil, fmt.Errorf("instant payout needs a verified bank account: %w", ErrBankAccountMissing)
	}
	if amount < s.minInstantAmount {
		return nil, fmt.Errorf("minimum instant payout is %s: %w",
			utils.FormatCurrency(s.minInstantAmount, driver.Balance.Currency), ErrValidation)
	}
	if amount <= s.instantFee {
		return nil, fmt.Errorf("amount does not cover the %s instant fee: %w",
			utils.FormatCurrency(s.instantFee, driver.Balance.Currency), ErrValidation)
	}
	if amount > driver.Balance.CurrentBalance {
		return nil, fmt.Errorf("requested %.2f exceeds balance %.2f: %w",
			amount, driver.Balance.CurrentBalance, ErrInsufficientBalance)
	}

	now := time.Now()
	p := &models.Payout{
		ID:          primitive.NewObjectID(),
		DriverID:    driverID,
		Reference:   utils.GeneratePayoutReference(),
		Type:        models.PayoutTypeInstant,
		Status:      models.PayoutStatusPending,
		PeriodStart: now,
		PeriodEnd:   now,
		GrossAmount: amount,
		InstantFee:  s.instantFee,
		NetAmount:   utils.RoundCurrency(amount-s.instantFee, driver.Balance.Currency),
		Currency:    driver.Balance.Currency,
		BankAccount: driver.BankAccount,
		MaxRetries:  s.maxRetries,
	}

	_, err = s.tx.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		debited, err := s.driverRepo.DebitBalanceIfAvailable(sessCtx, driverID, amount)
		if err != nil {
			return nil, err
		}
		if !debited {
			return nil, fmt.Errorf("balance changed while requesting payout: %w", ErrInsufficientBalance)
		}
		if err := s.payoutRepo.Create(sessCtx, p); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyPayout(ctx, p, utils.EventPayoutCreated, "Instant payout requested",
		fmt.Sprintf("Your instant payout of %s is on its way.", utils.FormatCurrency(p.NetAmount, p.Currency)))
	s.logger.LogPayoutEvent(p.ID, "instant_payout_requested", p.GrossAmount, p.Currency)

	return p, nil
}

// UpdateBankAccount replaces the payout destination. The fresh account is
// always unverified; verification is a separate back-office step.
func (s *payoutService) UpdateBankAccount(ctx context.Context, driverID primitive.ObjectID, request *validators.BankAccountRequest) (*models.BankAccount, error) {
	if _, err := s.driverRepo.GetByID(ctx, driverID); err != nil {
		return nil, err
	}

	encrypted, err := utils.EncryptString(request.AccountNumber, s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to protect account number: %w", err)
	}

	account := &models.BankAccount{
		AccountName:            request.AccountName,
		BankName:               request.BankName,
		RoutingNumber:          request.RoutingNumber,
		AccountNumberEncrypted: encrypted,
		AccountNumberLast4:     request.AccountNumber[len(request.AccountNumber)-4:],
		IsVerified:             false,
		UpdatedAt:              time.Now(),
	}

	if err := s.driverRepo.UpdateBankAccount(ctx, driverID, account); err != nil {
		return nil, err
	}

	s.logger.WithDriverID(driverID).WithField("bank", account.BankName).Info("Bank account replaced, verification reset")

	return account, nil
}

func (s *payoutService) GetPayout(ctx context.Context, payoutID primitive.ObjectID) (*models.Payout, error) {
	return s.payoutRepo.GetByID(ctx, payoutID)
}

func (s *payoutService) GetDriverPayouts(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	return s.payoutRepo.GetByDriver(ctx, driverID, params)
}

// ProcessPayout moves a pending payout into processing and, when a
// disbursement gateway is configured, initiates the provider transfer.
func (s *payoutService) ProcessPayout(ctx context.Context, payoutID primitive.ObjectID) (*models.Payout, error) {
	p, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(models.PayoutStatusProcessing) {
		return nil, fmt.Errorf("payout %s is %s, only pending payouts can be processed: %w",
			payoutID.Hex(), p.Status, ErrPrecondition)
	}

	updates := map[string]interface{}{}

	if s.disburser != nil {
		transfer, err := s.disburser.CreateTransfer(ctx, &payout.TransferRequest{
			Reference:   p.Reference,
			Destination: p.BankAccount.AccountNumberLast4,
			Amount:      p.NetAmount,
			Currency:    p.Currency,
			Description: fmt.Sprintf("%s payout %s", p.Type, p.Reference),
			Metadata: map[string]interface{}{
				"payout_id": p.ID.Hex(),
				"driver_id": p.DriverID.Hex(),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("disbursement initiation failed: %w", err)
		}
		updates["transaction_id"] = transfer.TransferID
	}

	if err := s.payoutRepo.UpdateStatusIf(ctx, payoutID,
		[]models.PayoutStatus{models.PayoutStatusPending}, models.PayoutStatusProcessing, updates); err != nil {
		return nil, err
	}

	s.logger.LogPayoutEvent(payoutID, "payout_processing", p.GrossAmount, p.Currency)
	return s.payoutRepo.GetByID(ctx, payoutID)
}

// CompletePayout records a settled disbursement. The funds already left the
// balance when the payout was created, so no balance change happens here.
func (s *payoutService) CompletePayout(ctx context.Context, payoutID primitive.ObjectID, transactionID, providerRef string) (*models.Payout, error) {
	p, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(models.PayoutStatusCompleted) {
		return nil, fmt.Errorf("payout %s is %s and cannot be completed: %w", payoutID.Hex(), p.Status, ErrPrecondition)
	}

	updates := map[string]interface{}{
		"transaction_id": transactionID,
	}
	if providerRef != "" {
		updates["provider"] = providerRef
	}

	if err := s.payoutRepo.UpdateStatusIf(ctx, payoutID,
		[]models.PayoutStatus{models.PayoutStatusPending, models.PayoutStatusProcessing},
		models.PayoutStatusCompleted, updates); err != nil {
		return nil, err
	}

	completed, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}

	s.notifyPayout(ctx, completed, utils.EventPayoutCompleted, "Payout completed",
		fmt.Sprintf("%s has been sent to your bank account ending in %s.",
			utils.FormatCurrency(completed.NetAmount, completed.Currency), bankLast4(completed)))
	s.logger.LogPayoutEvent(payoutID, "payout_completed", completed.NetAmount, completed.Currency)

	return completed, nil
}

// FailPayout marks a non-terminal payout failed and returns the held gross
// amount to the driver balance. The credit-back commits with the status
// flip so a crash cannot strand the funds.
func (s *payoutService) FailPayout(ctx context.Context, payoutID primitive.ObjectID, reason string) (*models.Payout, error) {
	p, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(models.PayoutStatusFailed) {
		return nil, fmt.Errorf("payout %s is %s and cannot fail: %w", payoutID.Hex(), p.Status, ErrPrecondition)
	}

	_, err = s.tx.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := s.payoutRepo.UpdateStatusIf(sessCtx, payoutID,
			[]models.PayoutStatus{models.PayoutStatusPending, models.PayoutStatusProcessing},
			models.PayoutStatusFailed, map[string]interface{}{
				"failure_reason": reason,
				"retry_count":    p.RetryCount + 1,
			}); err != nil {
			return nil, err
		}
		if err := s.driverRepo.CreditBalance(sessCtx, p.DriverID, p.GrossAmount); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	failed, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}

	s.notifyPayout(ctx, failed, utils.EventPayoutFailed, "Payout failed",
		fmt.Sprintf("Your payout of %s could not be completed and the funds are back in your balance.",
			utils.FormatCurrency(failed.GrossAmount, failed.Currency)))
	s.logger.WithPayoutID(payoutID).WithField("reason", reason).Warn("Payout failed, funds credited back")

	return failed, nil
}

// RetryPayout re-queues a failed payout. The gross amount is debited again,
// conditional on the balance still covering it, so the held-funds invariant
// is restored before the payout goes back to pending.
func (s *payoutService) RetryPayout(ctx context.Context, payoutID primitive.ObjectID) (*models.Payout, error) {
	p, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PayoutStatusFailed {
		return nil, fmt.Errorf("payout %s is %s, only failed payouts can be retried: %w", payoutID.Hex(), p.Status, ErrPrecondition)
	}
	if !p.CanRetry() {
		return nil, fmt.Errorf("payout %s exhausted its %d retries: %w", payoutID.Hex(), p.MaxRetries, ErrValidation)
	}

	_, err = s.tx.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		debited, err := s.driverRepo.DebitBalanceIfAvailable(sessCtx, p.DriverID, p.GrossAmount)
		if err != nil {
			return nil, err
		}
		if !debited {
			return nil, fmt.Errorf("balance no longer covers %.2f: %w", p.GrossAmount, ErrInsufficientBalance)
		}
		if err := s.payoutRepo.UpdateStatusIf(sessCtx, payoutID,
			[]models.PayoutStatus{models.PayoutStatusFailed}, models.PayoutStatusPending,
			map[string]interface{}{"failure_reason": "", "transaction_id": ""}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogPayoutEvent(payoutID, "payout_retried", p.GrossAmount, p.Currency)
	return s.payoutRepo.GetByID(ctx, payoutID)
}

// CancelPayout withdraws a non-terminal payout and returns the held funds.
func (s *payoutService) CancelPayout(ctx context.Context, payoutID primitive.ObjectID, reason string) (*models.Payout, error) {
	p, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(models.PayoutStatusCancelled) {
		return nil, fmt.Errorf("payout %s is %s and cannot be cancelled: %w", payoutID.Hex(), p.Status, ErrPrecondition)
	}

	_, err = s.tx.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := s.payoutRepo.UpdateStatusIf(sessCtx, payoutID,
			[]models.PayoutStatus{models.PayoutStatusPending, models.PayoutStatusProcessing, models.PayoutStatusFailed},
			models.PayoutStatusCancelled, map[string]interface{}{
				"failure_reason": reason,
			}); err != nil {
			return nil, err
		}
		// A failed payout was already credited back; only held funds return.
		if p.Status.FundsHeld() {
			if err := s.driverRepo.CreditBalance(sessCtx, p.DriverID, p.GrossAmount); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPayoutID(payoutID).WithField("reason", reason).Info("Payout cancelled")
	return s.payoutRepo.GetByID(ctx, payoutID)
}

// AddAdjustment corrects a pending payout's amount before it is processed.
// The balance hold moves by the same delta so held funds stay equal to the
// payout gross.
func (s *payoutService) AddAdjustment(ctx context.Context, payoutID primitive.ObjectID, reason string, amount float64, addedBy primitive.ObjectID) (*models.Payout, error) {
	p, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PayoutStatusPending {
		return nil, fmt.Errorf("payout %s is %s, adjustments only apply to pending payouts: %w",
			payoutID.Hex(), p.Status, ErrPrecondition)
	}
	if amount < 0 && p.NetAmount+amount < 0 {
		return nil, fmt.Errorf("adjustment of %.2f would make payout %s negative: %w", amount, payoutID.Hex(), ErrValidation)
	}

	adjustment := &models.PayoutAdjustment{
		Reason:  reason,
		Amount:  amount,
		AddedBy: addedBy,
		AddedAt: time.Now(),
	}

	_, err = s.tx.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := s.payoutRepo.AddAdjustment(sessCtx, payoutID, adjustment); err != nil {
			return nil, err
		}
		if amount > 0 {
			if err := s.driverRepo.DecrementBalanceClamped(sessCtx, p.DriverID, amount); err != nil {
				return nil, err
			}
		} else if amount < 0 {
			if err := s.driverRepo.CreditBalance(sessCtx, p.DriverID, -amount); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogPayoutEvent(payoutID, "payout_adjusted", amount, p.Currency)
	return s.payoutRepo.GetByID(ctx, payoutID)
}

// GenerateWeeklyPayouts aggregates each driver's delivered earnings in the
// window into one pending payout. Safe under at-least-once invocation: the
// existence check skips drivers already settled, and the unique index on
// (driver, type, period) turns a concurrent duplicate insert into a skip.
func (s *payoutService) GenerateWeeklyPayouts(ctx context.Context, periodStart, periodEnd time.Time) (*WeeklyPayoutRun, error) {
	driverIDs, err := s.deliveryRepo.DriverIDsWithEarnings(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to find drivers with earnings: %w", err)
	}

	run := &WeeklyPayoutRun{
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		DriversExamined: len(driverIDs),
	}

	for _, driverID := range driverIDs {
		created, amount, err := s.generateDriverWeeklyPayout(ctx, driverID, periodStart, periodEnd)
		switch {
		case errors.Is(err, ErrAlreadyExists):
			run.SkippedExisting++
		case errors.Is(err, ErrBankAccountMissing):
			run.SkippedNoBank++
		case err != nil:
			// One driver's failure must not abort the batch.
			s.logger.WithDriverID(driverID).WithError(err).Error("Weekly payout generation failed for driver")
		case created:
			run.PayoutsCreated++
			run.TotalAmount += amount
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"period_start": periodStart.Format("2006-01-02"),
		"period_end":   periodEnd.Format("2006-01-02"),
		"created":      run.PayoutsCreated,
		"skipped":      run.SkippedExisting + run.SkippedNoBank,
		"total":        run.TotalAmount,
	}).Info("Weekly payout run finished")

	return run, nil
}

func (s *payoutService) generateDriverWeeklyPayout(ctx context.Context, driverID primitive.ObjectID, periodStart, periodEnd time.Time) (bool, float64, error) {
	exists, err := s.payoutRepo.ExistsForPeriod(ctx, driverID, models.PayoutTypeWeekly, periodStart, periodEnd)
	if err != nil {
		return false, 0, err
	}
	if exists {
		return false, 0, ErrAlreadyExists
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return false, 0, err
	}
	if !driver.HasVerifiedBankAccount() {
		return false, 0, ErrBankAccountMissing
	}

	deliveries, err := s.deliveryRepo.GetDeliveredInPeriod(ctx, driverID, periodStart, periodEnd)
	if err != nil {
		return false, 0, err
	}
	if len(deliveries) == 0 {
		return false, 0, nil
	}

	breakdown := models.PayoutBreakdown{}
	deliveryIDs := make([]primitive.ObjectID, 0, len(deliveries))
	total := 0.0
	for _, delivery := range deliveries {
		if delivery.Earnings == nil {
			continue
		}
		breakdown.BaseFees += delivery.Earnings.BaseFee
		breakdown.DistanceBonuses += delivery.Earnings.DistanceBonus
		breakdown.WaitTimeBonuses += delivery.Earnings.WaitTimeBonus
		breakdown.PeakHourBonuses += delivery.Earnings.PeakHourBonus
		breakdown.Tips += delivery.Earnings.Tip
		breakdown.AdjustmentsTotal += delivery.Earnings.Adjustments
		total += delivery.Earnings.Total
		deliveryIDs = append(deliveryIDs, delivery.ID)
	}
	total = utils.RoundCurrency(total, driver.Balance.Currency)
	if total <= 0 {
		return false, 0, nil
	}

	p := &models.Payout{
		ID:          primitive.NewObjectID(),
		DriverID:    driverID,
		Reference:   utils.GeneratePayoutReference(),
		Type:        models.PayoutTypeWeekly,
		Status:      models.PayoutStatusPending,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		GrossAmount: total,
		NetAmount:   total,
		Currency:    driver.Balance.Currency,
		Breakdown:   breakdown,
		BankAccount: driver.BankAccount,
		DeliveryIDs: deliveryIDs,
		MaxRetries:  s.maxRetries,
	}

	_, err = s.tx.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := s.payoutRepo.Create(sessCtx, p); err != nil {
			return nil, err
		}
		// Completed earnings were credited as they landed; the weekly
		// settlement moves them out of the withdrawable balance. The
		// clamp covers balances already reduced by instant payouts.
		if err := s.driverRepo.DecrementBalanceClamped(sessCtx, driverID, total); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return false, 0, ErrAlreadyExists
		}
		return false, 0, err
	}

	s.logger.LogPayoutEvent(p.ID, "weekly_payout_created", p.GrossAmount, p.Currency)
	return true, total, nil
}

func (s *payoutService) ListPayouts(ctx context.Context, filter *interfaces.PayoutFilter, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	return s.payoutRepo.List(ctx, filter, params)
}

func (s *payoutService) PendingSummary(ctx context.Context) (*models.PayoutSummary, error) {
	return s.payoutRepo.PendingSummary(ctx, primitive.NilObjectID)
}

func (s *payoutService) GetPayoutStatistics(ctx context.Context, startDate, endDate time.Time) (map[string]interface{}, error) {
	return s.payoutRepo.GetStatistics(ctx, startDate, endDate)
}

func (s *payoutService) notifyPayout(ctx context.Context, p *models.Payout, event, title, body string) {
	s.wsHub.SendToUser(p.DriverID, websocket.Message{
		Type: event,
		Data: map[string]interface{}{
			"payout_id":  p.ID.Hex(),
			"reference":  p.Reference,
			"type":       string(p.Type),
			"status":     string(p.Status),
			"net_amount": p.NetAmount,
			"currency":   p.Currency,
		},
	})

	driver, err := s.driverRepo.GetByID(ctx, p.DriverID)
	if err != nil || len(driver.DeviceTokens) == 0 {
		return
	}
	if err := s.pushService.SendToTokens(ctx, driver.DeviceTokens, title, body, map[string]string{
		"type":      event,
		"payout_id": p.ID.Hex(),
	}); err != nil {
		s.logger.WithPayoutID(p.ID).WithError(err).Warn("Failed to push payout notification")
	}
}

func bankLast4(p *models.Payout) string {
	if p.BankAccount == nil {
		return "----"
	}
	return p.BankAccount.AccountNumberLast4
}
