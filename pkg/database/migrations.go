package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	// Create migrations collection if it doesn't exist
	err := m.createMigrationsCollection()
	if err != nil {
		return err
	}

	// Get current version
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	// Run migrations
	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d completed successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) Down(targetVersion int) error {
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version <= currentVersion && migration.Version > targetVersion {
			log.Printf("Reverting migration %d: %s", migration.Version, migration.Description)

			err := migration.Down(m.db)
			if err != nil {
				return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
			}

			previousVersion := targetVersion
			if i > 0 {
				previousVersion = m.migrations[i-1].Version
			}

			err = m.updateVersion(previousVersion)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d reverted successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collections, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}

	for _, name := range collections {
		if name == "migrations" {
			return nil
		}
	}

	return m.db.CreateCollection(ctx, "migrations")
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create drivers collection with indexes",
			Up: func(db *mongo.Database) error {
				return createDriversIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("drivers").Drop(context.Background())
			},
		},
		{
			Version:     2,
			Description: "Create customers collection with indexes",
			Up: func(db *mongo.Database) error {
				return createCustomersIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("customers").Drop(context.Background())
			},
		},
		{
			Version:     3,
			Description: "Create orders collection with indexes",
			Up: func(db *mongo.Database) error {
				return createOrdersIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("orders").Drop(context.Background())
			},
		},
		{
			Version:     4,
			Description: "Create deliveries collection with indexes",
			Up: func(db *mongo.Database) error {
				return createDeliveriesIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("deliveries").Drop(context.Background())
			},
		},
		{
			Version:     5,
			Description: "Create payouts collection with uniqueness guards",
			Up: func(db *mongo.Database) error {
				return createPayoutsIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("payouts").Drop(context.Background())
			},
		},
	}
}

func createDriversIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("drivers")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "is_available", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "current_delivery_id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createCustomersIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("customers")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createOrdersIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("orders")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createDeliveriesIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("deliveries")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "actual_delivery_time", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "pickup_location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "dropoff_location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createPayoutsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("payouts")

	indexes := []mongo.IndexModel{
		{
			// One weekly payout per driver per period. The insert-time
			// existence check is advisory; this index is the backstop
			// under concurrent generation.
			Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "type", Value: 1}, {Key: "period_start", Value: 1}, {Key: "period_end", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"type": "weekly"}),
		},
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
