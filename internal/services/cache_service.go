package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"swiftserve/internal/models"
	"swiftserve/internal/utils"
	"swiftserve/pkg/cache"
	"swiftserve/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CacheService interface {
	// Basic cache operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Advanced operations
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Increment(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error)
	SetExpire(ctx context.Context, key string, expiration time.Duration) error
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Set operations
	SAdd(ctx context.Context, key string, members ...interface{}) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...interface{}) error
	SCard(ctx context.Context, key string) (int64, error)

	// Lock operations
	Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error)
	Unlock(ctx context.Context, lock *DistributedLock) error

	// Pub/Sub
	Publish(ctx context.Context, channel string, message interface{}) error

	// Live courier positions
	SetDriverLocation(ctx context.Context, location *models.DriverLocation, expiration time.Duration) error
	GetDriverLocation(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error)
	GetDriverLocations(ctx context.Context, driverIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.DriverLocation, error)
	DeleteDriverLocation(ctx context.Context, driverID primitive.ObjectID) error

	// Active delivery assignment per driver
	SetActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID, expiration time.Duration) error
	GetActiveDelivery(ctx context.Context, driverID primitive.ObjectID) (primitive.ObjectID, error)
	ClearActiveDelivery(ctx context.Context, driverID primitive.ObjectID) error

	// Delivery tracking snapshots
	SetDeliveryTracking(ctx context.Context, tracking *models.DeliveryTracking, expiration time.Duration) error
	GetDeliveryTracking(ctx context.Context, deliveryID primitive.ObjectID) (*models.DeliveryTracking, error)
	ClearDeliveryTracking(ctx context.Context, deliveryID primitive.ObjectID) error

	// Set of deliveries currently in flight, for dashboards and sweeps
	AddActiveDeliverySet(ctx context.Context, deliveryID primitive.ObjectID) error
	RemoveActiveDeliverySet(ctx context.Context, deliveryID primitive.ObjectID) error
	ActiveDeliveryIDs(ctx context.Context) ([]primitive.ObjectID, error)

	Ping(ctx context.Context) error
}

type DistributedLock struct {
	Key        string        `json:"key"`
	Value      string        `json:"value"`
	Expiration time.Duration `json:"expiration"`
	CreatedAt  time.Time     `json:"created_at"`
}

type cacheService struct {
	redis      *cache.RedisCache
	logger     *logger.Logger
	keyPrefix  string
	defaultTTL time.Duration
}

func NewCacheService(redisCache *cache.RedisCache, logger *logger.Logger, keyPrefix string, defaultTTL time.Duration) CacheService {
	return &cacheService{
		redis:      redisCache,
		logger:     logger,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultTTL,
	}
}

// IsCacheMiss reports whether err means the key was absent, as opposed to
// the cache being unreachable.
func IsCacheMiss(err error) bool {
	return cache.IsNotFound(err)
}

// Basic cache operations
func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	fullKey := s.buildKey(key)

	if err := s.redis.Get(ctx, fullKey, dest); err != nil {
		if cache.IsNotFound(err) {
			return fmt.Errorf("cache key %s: %w", key, err)
		}
		return fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	s.logger.WithField("cache_key", key).Debug("Cache hit")
	return nil
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	fullKey := s.buildKey(key)

	if expiration == 0 {
		expiration = s.defaultTTL
	}

	if err := s.redis.Set(ctx, fullKey, value, expiration); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}

	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = s.buildKey(key)
	}

	if err := s.redis.Delete(ctx, fullKeys...); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	return nil
}

func (s *cacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := s.redis.Exists(ctx, s.buildKey(key))
	if err != nil {
		return false, fmt.Errorf("failed to check cache key existence: %w", err)
	}
	return exists, nil
}

// Advanced operations
func (s *cacheService) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.buildKey(key), value, expiration)
	if err != nil {
		return false, fmt.Errorf("failed to setnx cache key %s: %w", key, err)
	}
	return ok, nil
}

func (s *cacheService) Increment(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error) {
	fullKey := s.buildKey(key)

	value, err := s.redis.IncrementBy(ctx, fullKey, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to increment cache key %s: %w", key, err)
	}

	// First write establishes the window
	if value == delta && expiration > 0 {
		if err := s.redis.SetExpire(ctx, fullKey, expiration); err != nil {
			return value, fmt.Errorf("failed to set expiry on cache key %s: %w", key, err)
		}
	}

	return value, nil
}

func (s *cacheService) SetExpire(ctx context.Context, key string, expiration time.Duration) error {
	return s.redis.SetExpire(ctx, s.buildKey(key), expiration)
}

func (s *cacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return s.redis.GetTTL(ctx, s.buildKey(key))
}

// Set operations
func (s *cacheService) SAdd(ctx context.Context, key string, members ...interface{}) error {
	return s.redis.SAdd(ctx, s.buildKey(key), members...)
}

func (s *cacheService) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.redis.SMembers(ctx, s.buildKey(key))
}

func (s *cacheService) SRem(ctx context.Context, key string, members ...interface{}) error {
	return s.redis.SRem(ctx, s.buildKey(key), members...)
}

func (s *cacheService) SCard(ctx context.Context, key string) (int64, error) {
	return s.redis.SCard(ctx, s.buildKey(key))
}

// Lock operations
func (s *cacheService) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	lockKey := utils.CacheLockPrefix + key
	lockValue := utils.GenerateLockToken()

	success, err := s.SetNX(ctx, lockKey, lockValue, expiration)
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, fmt.Errorf("lock %s already held: %w", key, ErrPrecondition)
	}

	return &DistributedLock{
		Key:        lockKey,
		Value:      lockValue,
		Expiration: expiration,
		CreatedAt:  time.Now(),
	}, nil
}

func (s *cacheService) Unlock(ctx context.Context, lock *DistributedLock) error {
	// Only release a lock we still own. TOCTOU window is bounded by the
	// lock expiration.
	var current string
	if err := s.Get(ctx, lock.Key, &current); err != nil {
		if cache.IsNotFound(err) {
			return nil
		}
		return err
	}
	if current != lock.Value {
		return nil
	}
	return s.Delete(ctx, lock.Key)
}

// Pub/Sub
func (s *cacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if err := s.redis.Publish(ctx, channel, message); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", channel, err)
	}
	return nil
}

// Live courier positions
func (s *cacheService) SetDriverLocation(ctx context.Context, location *models.DriverLocation, expiration time.Duration) error {
	key := utils.CacheDriverLocationPrefix + location.DriverID.Hex()
	return s.Set(ctx, key, location, expiration)
}

func (s *cacheService) GetDriverLocation(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	key := utils.CacheDriverLocationPrefix + driverID.Hex()

	var location models.DriverLocation
	if err := s.Get(ctx, key, &location); err != nil {
		return nil, err
	}

	return &location, nil
}

// GetDriverLocations fetches many positions in one round trip. Drivers
// without a live position are simply absent from the result.
func (s *cacheService) GetDriverLocations(ctx context.Context, driverIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.DriverLocation, error) {
	if len(driverIDs) == 0 {
		return map[primitive.ObjectID]*models.DriverLocation{}, nil
	}

	keys := make([]string, len(driverIDs))
	for i, id := range driverIDs {
		keys[i] = s.buildKey(utils.CacheDriverLocationPrefix + id.Hex())
	}

	values, err := s.redis.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to mget driver locations: %w", err)
	}

	locations := make(map[primitive.ObjectID]*models.DriverLocation, len(driverIDs))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var location models.DriverLocation
		if err := json.Unmarshal([]byte(raw), &location); err != nil {
			s.logger.WithDriverID(driverIDs[i]).Warn("Skipping corrupt cached driver location")
			continue
		}
		locations[driverIDs[i]] = &location
	}

	return locations, nil
}

func (s *cacheService) DeleteDriverLocation(ctx context.Context, driverID primitive.ObjectID) error {
	return s.Delete(ctx, utils.CacheDriverLocationPrefix+driverID.Hex())
}

// Active delivery assignment per driver
func (s *cacheService) SetActiveDelivery(ctx context.Context, driverID, deliveryID primitive.ObjectID, expiration time.Duration) error {
	key := utils.CacheActiveDeliveryPrefix + driverID.Hex()
	return s.Set(ctx, key, deliveryID.Hex(), expiration)
}

func (s *cacheService) GetActiveDelivery(ctx context.Context, driverID primitive.ObjectID) (primitive.ObjectID, error) {
	key := utils.CacheActiveDeliveryPrefix + driverID.Hex()

	var deliveryIDHex string
	if err := s.Get(ctx, key, &deliveryIDHex); err != nil {
		return primitive.NilObjectID, err
	}

	deliveryID, err := primitive.ObjectIDFromHex(deliveryIDHex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("corrupt active delivery entry for driver %s: %w", driverID.Hex(), err)
	}

	return deliveryID, nil
}

func (s *cacheService) ClearActiveDelivery(ctx context.Context, driverID primitive.ObjectID) error {
	return s.Delete(ctx, utils.CacheActiveDeliveryPrefix+driverID.Hex())
}

// Delivery tracking snapshots
func (s *cacheService) SetDeliveryTracking(ctx context.Context, tracking *models.DeliveryTracking, expiration time.Duration) error {
	key := utils.CacheDeliveryTrackingPrefix + tracking.DeliveryID.Hex()
	return s.Set(ctx, key, tracking, expiration)
}

func (s *cacheService) GetDeliveryTracking(ctx context.Context, deliveryID primitive.ObjectID) (*models.DeliveryTracking, error) {
	key := utils.CacheDeliveryTrackingPrefix + deliveryID.Hex()

	var tracking models.DeliveryTracking
	if err := s.Get(ctx, key, &tracking); err != nil {
		return nil, err
	}

	return &tracking, nil
}

func (s *cacheService) ClearDeliveryTracking(ctx context.Context, deliveryID primitive.ObjectID) error {
	return s.Delete(ctx, utils.CacheDeliveryTrackingPrefix+deliveryID.Hex())
}

// Set of deliveries currently in flight
func (s *cacheService) AddActiveDeliverySet(ctx context.Context, deliveryID primitive.ObjectID) error {
	return s.SAdd(ctx, utils.ActiveDeliveriesSetKey, deliveryID.Hex())
}

func (s *cacheService) RemoveActiveDeliverySet(ctx context.Context, deliveryID primitive.ObjectID) error {
	return s.SRem(ctx, utils.ActiveDeliveriesSetKey, deliveryID.Hex())
}

func (s *cacheService) ActiveDeliveryIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	members, err := s.SMembers(ctx, utils.ActiveDeliveriesSetKey)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(members))
	for _, member := range members {
		id, err := primitive.ObjectIDFromHex(member)
		if err != nil {
			s.logger.WithField("member", member).Warn("Skipping corrupt active delivery member")
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (s *cacheService) Ping(ctx context.Context) error {
	_, err := s.redis.Exists(ctx, s.buildKey("ping"))
	return err
}

func (s *cacheService) buildKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}
