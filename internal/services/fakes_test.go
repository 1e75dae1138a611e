package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/repositories/interfaces"
	"swiftserve/internal/services"
	"swiftserve/internal/utils"
	"swiftserve/pkg/logger"
	"swiftserve/pkg/payout"
	"swiftserve/pkg/websocket"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newTestLogger() *logger.Logger {
	l, err := logger.NewLogger(&logger.Config{Level: "error", Format: "text", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

// newTestHub returns a hub that is never started; with no registered
// clients every send is a no-op under a read lock.
func newTestHub() *websocket.Hub {
	return websocket.NewHub(54*time.Second, 60*time.Second)
}

func notFoundErr(what string) error {
	return fmt.Errorf("%s not found: %w", what, services.ErrNotFound)
}

// fakeTx runs the callback outside any session. The services under test
// only ever pass the session context through to repositories.
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	f.calls++
	return fn(nil)
}

// fakeDriverRepo keeps drivers in memory and applies balance mutations the
// way the Mongo repository's atomic updates do.
type fakeDriverRepo struct {
	mu      sync.Mutex
	drivers map[primitive.ObjectID]*models.Driver
}

func newFakeDriverRepo(drivers ...*models.Driver) *fakeDriverRepo {
	r := &fakeDriverRepo{drivers: make(map[primitive.ObjectID]*models.Driver)}
	for _, d := range drivers {
		r.drivers[d.ID] = d
	}
	return r
}

func (r *fakeDriverRepo) Create(ctx context.Context, driver *models.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[driver.ID] = driver
	return nil
}

func (r *fakeDriverRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return nil, notFoundErr("driver")
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDriverRepo) GetByPhone(ctx context.Context, phone string) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drivers {
		if d.Phone == phone {
			copied := *d
			return &copied, nil
		}
	}
	return nil, notFoundErr("driver")
}

func (r *fakeDriverRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeDriverRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DriverStatus) error {
	return nil
}

func (r *fakeDriverRepo) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drivers[id]; ok {
		d.IsAvailable = available
	}
	return nil
}

func (r *fakeDriverRepo) SetCurrentDelivery(ctx context.Context, id primitive.ObjectID, deliveryID *primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drivers[id]; ok {
		d.CurrentDeliveryID = deliveryID
	}
	return nil
}

func (r *fakeDriverRepo) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location) error {
	return nil
}

func (r *fakeDriverRepo) CreditEarnings(ctx context.Context, id primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return notFoundErr("driver")
	}
	d.Balance.CurrentBalance += amount
	d.Balance.LifetimeEarnings += amount
	return nil
}

func (r *fakeDriverRepo) CreditBalance(ctx context.Context, id primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return notFoundErr("driver")
	}
	d.Balance.CurrentBalance += amount
	return nil
}

func (r *fakeDriverRepo) DebitBalanceIfAvailable(ctx context.Context, id primitive.ObjectID, amount float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return false, notFoundErr("driver")
	}
	if d.Balance.CurrentBalance < amount {
		return false, nil
	}
	d.Balance.CurrentBalance -= amount
	return true, nil
}

func (r *fakeDriverRepo) DecrementBalanceClamped(ctx context.Context, id primitive.ObjectID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return notFoundErr("driver")
	}
	d.Balance.CurrentBalance -= amount
	if d.Balance.CurrentBalance < 0 {
		d.Balance.CurrentBalance = 0
	}
	return nil
}

func (r *fakeDriverRepo) IncrementDeliveryCounters(ctx context.Context, id primitive.ObjectID, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.drivers[id]; ok {
		d.TotalDeliveries++
		if completed {
			d.CompletedDeliveries++
		}
	}
	return nil
}

func (r *fakeDriverRepo) UpdateBankAccount(ctx context.Context, id primitive.ObjectID, account *models.BankAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return notFoundErr("driver")
	}
	d.BankAccount = account
	return nil
}

func (r *fakeDriverRepo) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return nil
}

func (r *fakeDriverRepo) RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return nil
}

func (r *fakeDriverRepo) GetByStatus(ctx context.Context, status models.DriverStatus, params *utils.PaginationParams) ([]*models.Driver, int64, error) {
	return nil, 0, nil
}

func (r *fakeDriverRepo) balance(id primitive.ObjectID) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drivers[id].Balance.CurrentBalance
}

// fakeDeliveryRepo keeps deliveries in memory. CompleteWithProof enforces
// the allowed-from gate the way the conditional Mongo update does.
type fakeDeliveryRepo struct {
	mu         sync.Mutex
	deliveries map[primitive.ObjectID]*models.Delivery

	// deliveredByDriver backs the earnings aggregation methods.
	deliveredByDriver map[primitive.ObjectID][]*models.Delivery

	// earningsTotals, when set, is what AggregateEarnings reports.
	earningsTotals *models.EarningsTotals
}

func newFakeDeliveryRepo(deliveries ...*models.Delivery) *fakeDeliveryRepo {
	r := &fakeDeliveryRepo{
		deliveries:        make(map[primitive.ObjectID]*models.Delivery),
		deliveredByDriver: make(map[primitive.ObjectID][]*models.Delivery),
	}
	for _, d := range deliveries {
		r.deliveries[d.ID] = d
	}
	return r
}

func (r *fakeDeliveryRepo) Create(ctx context.Context, delivery *models.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries[delivery.ID] = delivery
	return nil
}

func (r *fakeDeliveryRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[id]
	if !ok {
		return nil, notFoundErr("delivery")
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDeliveryRepo) GetByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deliveries {
		if d.OrderID == orderID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, notFoundErr("delivery")
}

func (r *fakeDeliveryRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeDeliveryRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.DeliveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[id]
	if !ok {
		return notFoundErr("delivery")
	}
	d.Status = status
	return nil
}

func (r *fakeDeliveryRepo) CompleteWithProof(ctx context.Context, id primitive.ObjectID, proof *models.ProofOfDelivery, earnings *models.DeliveryEarnings, allowedFrom []models.DeliveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[id]
	if !ok {
		return notFoundErr("delivery")
	}
	allowed := false
	for _, status := range allowedFrom {
		if d.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("delivery %s is %s: %w", id.Hex(), d.Status, services.ErrPrecondition)
	}
	now := proof.CompletedAt
	d.Status = models.DeliveryStatusDelivered
	d.Proof = proof
	d.Earnings = earnings
	d.ActualDeliveryTime = &now
	return nil
}

func (r *fakeDeliveryRepo) Cancel(ctx context.Context, id primitive.ObjectID, reason, cancelledBy string) error {
	return nil
}

func (r *fakeDeliveryRepo) SetProofFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[id]
	if !ok {
		return notFoundErr("delivery")
	}
	if d.Proof == nil {
		d.Proof = &models.ProofOfDelivery{}
	}
	if v, ok := fields["photo_url"].(string); ok {
		d.Proof.PhotoURL = v
	}
	if v, ok := fields["thumbnail_url"].(string); ok {
		d.Proof.ThumbnailURL = v
	}
	if v, ok := fields["photo_checksum"].(string); ok {
		d.Proof.PhotoChecksum = v
	}
	if v, ok := fields["signature_url"].(string); ok {
		d.Proof.SignatureURL = v
	}
	if v, ok := fields["recipient_name"].(string); ok {
		d.Proof.RecipientName = v
	}
	return nil
}

func (r *fakeDeliveryRepo) MarkOTPVerified(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[id]
	if !ok {
		return notFoundErr("delivery")
	}
	if d.Proof == nil {
		d.Proof = &models.ProofOfDelivery{}
	}
	d.Proof.OTPVerified = true
	return nil
}

func (r *fakeDeliveryRepo) AddIssue(ctx context.Context, id primitive.ObjectID, issue *models.DeliveryIssue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[id]
	if !ok {
		return notFoundErr("delivery")
	}
	d.Issues = append(d.Issues, *issue)
	return nil
}

func (r *fakeDeliveryRepo) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Delivery, int64, error) {
	return nil, 0, nil
}

func (r *fakeDeliveryRepo) GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Delivery, int64, error) {
	return nil, 0, nil
}

func (r *fakeDeliveryRepo) GetActiveByDriver(ctx context.Context, driverID primitive.ObjectID) (*models.Delivery, error) {
	return nil, notFoundErr("delivery")
}

func (r *fakeDeliveryRepo) GetWithOpenIssues(ctx context.Context, urgentOnly bool, params *utils.PaginationParams) ([]*models.Delivery, int64, error) {
	return nil, 0, nil
}

func (r *fakeDeliveryRepo) GetDeliveredInPeriod(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deliveredByDriver[driverID], nil
}

func (r *fakeDeliveryRepo) AggregateEarnings(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) (*models.EarningsTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.earningsTotals != nil {
		copied := *r.earningsTotals
		return &copied, nil
	}
	return &models.EarningsTotals{}, nil
}

func (r *fakeDeliveryRepo) AggregateEarningsDaily(ctx context.Context, driverID primitive.ObjectID, start, end time.Time) ([]*models.DailyEarnings, error) {
	return nil, nil
}

func (r *fakeDeliveryRepo) DriverIDsWithEarnings(ctx context.Context, start, end time.Time) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(r.deliveredByDriver))
	for id := range r.deliveredByDriver {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeDeliveryRepo) GetDeliveryStats(ctx context.Context, startDate, endDate time.Time) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

// fakePayoutRepo keeps payouts in memory. UpdateStatusIf and Create mirror
// the conditional update and the unique period index.
type fakePayoutRepo struct {
	mu      sync.Mutex
	payouts map[primitive.ObjectID]*models.Payout
}

func newFakePayoutRepo(payouts ...*models.Payout) *fakePayoutRepo {
	r := &fakePayoutRepo{payouts: make(map[primitive.ObjectID]*models.Payout)}
	for _, p := range payouts {
		r.payouts[p.ID] = p
	}
	return r
}

func (r *fakePayoutRepo) Create(ctx context.Context, p *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payouts {
		if existing.DriverID == p.DriverID && existing.Type == p.Type &&
			existing.Type == models.PayoutTypeWeekly &&
			existing.PeriodStart.Equal(p.PeriodStart) && existing.PeriodEnd.Equal(p.PeriodEnd) {
			return fmt.Errorf("payout for period already exists: %w", services.ErrAlreadyExists)
		}
	}
	r.payouts[p.ID] = p
	return nil
}

func (r *fakePayoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return nil, notFoundErr("payout")
	}
	copied := *p
	return &copied, nil
}

func (r *fakePayoutRepo) GetByReference(ctx context.Context, reference string) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payouts {
		if p.Reference == reference {
			copied := *p
			return &copied, nil
		}
	}
	return nil, notFoundErr("payout")
}

func (r *fakePayoutRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakePayoutRepo) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from []models.PayoutStatus, to models.PayoutStatus, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return notFoundErr("payout")
	}
	allowed := false
	for _, status := range from {
		if p.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("payout %s is %s: %w", id.Hex(), p.Status, services.ErrPrecondition)
	}
	p.Status = to
	if v, ok := updates["failure_reason"].(string); ok {
		p.FailureReason = v
	}
	if v, ok := updates["retry_count"].(int); ok {
		p.RetryCount = v
	}
	if v, ok := updates["transaction_id"].(string); ok {
		p.TransactionID = v
	}
	if v, ok := updates["provider"].(string); ok {
		p.Provider = v
	}
	return nil
}

func (r *fakePayoutRepo) AddAdjustment(ctx context.Context, id primitive.ObjectID, adjustment *models.PayoutAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return notFoundErr("payout")
	}
	p.Adjustments = append(p.Adjustments, *adjustment)
	p.GrossAmount += adjustment.Amount
	p.NetAmount += adjustment.Amount
	p.Breakdown.AdjustmentsTotal += adjustment.Amount
	return nil
}

func (r *fakePayoutRepo) ExistsForPeriod(ctx context.Context, driverID primitive.ObjectID, payoutType models.PayoutType, periodStart, periodEnd time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payouts {
		if p.DriverID == driverID && p.Type == payoutType &&
			p.PeriodStart.Equal(periodStart) && p.PeriodEnd.Equal(periodEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePayoutRepo) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	return nil, 0, nil
}

func (r *fakePayoutRepo) List(ctx context.Context, filter *interfaces.PayoutFilter, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	return nil, 0, nil
}

func (r *fakePayoutRepo) GetPending(ctx context.Context, limit int) ([]*models.Payout, error) {
	return nil, nil
}

func (r *fakePayoutRepo) PendingSummary(ctx context.Context, driverID primitive.ObjectID) (*models.PayoutSummary, error) {
	return &models.PayoutSummary{}, nil
}

func (r *fakePayoutRepo) GetStatistics(ctx context.Context, startDate, endDate time.Time) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (r *fakePayoutRepo) byDriver(driverID primitive.ObjectID) []*models.Payout {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payout
	for _, p := range r.payouts {
		if p.DriverID == driverID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func newFakeOrderRepo(orders ...*models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[primitive.ObjectID]*models.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, notFoundErr("order")
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return nil, notFoundErr("order")
}

func (r *fakeOrderRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error {
	return nil
}

func (r *fakeOrderRepo) MarkDelivered(ctx context.Context, id primitive.ObjectID, deliveredAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return notFoundErr("order")
	}
	o.DeliveredAt = &deliveredAt
	return nil
}

func (r *fakeOrderRepo) GetByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	return nil, 0, nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[primitive.ObjectID]*models.Customer
}

func newFakeCustomerRepo(customers ...*models.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: make(map[primitive.ObjectID]*models.Customer)}
	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return r
}

func (r *fakeCustomerRepo) Create(ctx context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, notFoundErr("customer")
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCustomerRepo) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return nil, notFoundErr("customer")
}

func (r *fakeCustomerRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *fakeCustomerRepo) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return nil
}

func (r *fakeCustomerRepo) RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return nil
}

// fakeCache stores values as JSON so reads decode into the caller's type,
// the same contract the Redis-backed service provides. Misses wrap
// redis.Nil so IsCacheMiss recognizes them.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	locks  map[string]bool
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		data:  make(map[string][]byte),
		locks: make(map[string]bool),
	}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return fmt.Errorf("cache key %s: %w", key, redis.Nil)
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *fakeCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.data[key] = raw
	return true, nil
}

func (c *fakeCache) Increment(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error) {
	return delta, nil
}

func (c *fakeCache) SetExpire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}

func (c *fakeCache) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

func (c *fakeCache) SAdd(ctx context.Context, key string, members ...interface{}) error {
	return nil
}

func (c *fakeCache) SMembers(ctx context.Context, key string) ([]string, error) {
	return nil, nil
}

func (c *fakeCache) SRem(ctx context.Context, key string, members ...interface{}) error {
	return nil
}

func (c *fakeCache) SCard(ctx context.Context, key string) (int64, error) {
	return 0, nil
}

func (c *fakeCache) Lock(ctx context.Context, key string, expiration time.Duration) (*services.DistributedLock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] {
		return nil, fmt.Errorf("lock %s already held: %w", key, services.ErrPrecondition)
	}
	c.locks[key] = true
	return &services.DistributedLock{Key: key, Expiration: expiration, CreatedAt: time.Now()}, nil
}

func (c *fakeCache) Unlock(ctx context.Context, lock *services.DistributedLock) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, lock.Key)
	return nil
}

func (c *fakeCache) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

func (c *fakeCache) SetDriverLocation(ctx context.Context, location *models.DriverLocation, expiration time.Duration) error {
	return nil
}

func (c *fakeCache) GetDriverLocation(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	return nil, fmt.Errorf("driver location: %w", redis.Nil)
}

func (c *fakeCache) GetDriverLocations(ctx context.Context, driverIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.DriverLocation, error) {
	return map[primitive.ObjectID]*models.DriverLocation{}, nil
}

func (c *fakeCache) DeleteDriverLocation(ctx context.Context, driverID primitive.ObjectID) error {
	return nil
}

func (c *fakeCache) SetActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID, expiration time.Duration) error {
	return nil
}

func (c *fakeCache) GetActiveDelivery(ctx context.Context, driverID primitive.ObjectID) (primitive.ObjectID, error) {
	return primitive.NilObjectID, fmt.Errorf("active delivery: %w", redis.Nil)
}

func (c *fakeCache) ClearActiveDelivery(ctx context.Context, driverID primitive.ObjectID) error {
	return nil
}

func (c *fakeCache) SetDeliveryTracking(ctx context.Context, tracking *models.DeliveryTracking, expiration time.Duration) error {
	return nil
}

func (c *fakeCache) GetDeliveryTracking(ctx context.Context, deliveryID primitive.ObjectID) (*models.DeliveryTracking, error) {
	return nil, fmt.Errorf("delivery tracking: %w", redis.Nil)
}

func (c *fakeCache) ClearDeliveryTracking(ctx context.Context, deliveryID primitive.ObjectID) error {
	return nil
}

func (c *fakeCache) AddActiveDeliverySet(ctx context.Context, deliveryID primitive.ObjectID) error {
	return nil
}

func (c *fakeCache) RemoveActiveDeliverySet(ctx context.Context, deliveryID primitive.ObjectID) error {
	return nil
}

func (c *fakeCache) ActiveDeliveryIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	return nil, nil
}

func (c *fakeCache) Ping(ctx context.Context) error {
	return nil
}

type sentSMS struct {
	phone   string
	message string
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (s *fakeSMS) SendSMS(ctx context.Context, phone, message string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentSMS{phone: phone, message: message})
	return nil
}

type sentPush struct {
	tokens []string
	title  string
	body   string
	data   map[string]string
}

type fakePush struct {
	mu   sync.Mutex
	sent []sentPush
	err  error
}

func (p *fakePush) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentPush{tokens: tokens, title: title, body: body, data: data})
	return nil
}

// fakeTracking records the live-state teardown calls the completion flow
// makes.
type fakeTracking struct {
	mu      sync.Mutex
	cleared []primitive.ObjectID
}

func (t *fakeTracking) UpdateDriverLocation(ctx context.Context, location *models.DriverLocation) error {
	return nil
}

func (t *fakeTracking) GetDriverLocation(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	return nil, notFoundErr("location")
}

func (t *fakeTracking) GetDriverLocations(ctx context.Context, driverIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.DriverLocation, error) {
	return map[primitive.ObjectID]*models.DriverLocation{}, nil
}

func (t *fakeTracking) GetDeliveryTracking(ctx context.Context, deliveryID, requesterID primitive.ObjectID, requesterRole string) (*models.DeliveryTracking, error) {
	return nil, notFoundErr("tracking")
}

func (t *fakeTracking) GetOrderTracking(ctx context.Context, orderID, requesterID primitive.ObjectID, requesterRole string) (*models.DeliveryTracking, error) {
	return nil, notFoundErr("tracking")
}

func (t *fakeTracking) GetActiveDeliveryCount(ctx context.Context) (int64, error) {
	return 0, nil
}

func (t *fakeTracking) SetDriverActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID) error {
	return nil
}

func (t *fakeTracking) ClearDriverActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleared = append(t.cleared, deliveryID)
	return nil
}

type fakeDisburser struct {
	mu        sync.Mutex
	transfers []*payout.TransferRequest
	err       error
}

func (d *fakeDisburser) CreateTransfer(ctx context.Context, request *payout.TransferRequest) (*payout.TransferResponse, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transfers = append(d.transfers, request)
	return &payout.TransferResponse{TransferID: "tr_test_1", Status: "pending", Amount: request.Amount, Currency: request.Currency}, nil
}

func (d *fakeDisburser) GetTransfer(ctx context.Context, transferID string) (*payout.TransferResponse, error) {
	return &payout.TransferResponse{TransferID: transferID, Status: "pending"}, nil
}

func (d *fakeDisburser) ReverseTransfer(ctx context.Context, request *payout.ReversalRequest) (*payout.ReversalResponse, error) {
	return &payout.ReversalResponse{ReversalID: "rev_test_1", Status: "reversed"}, nil
}

func (d *fakeDisburser) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*payout.WebhookEvent, error) {
	return &payout.WebhookEvent{}, nil
}
