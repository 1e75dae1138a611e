package services

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner pairs a balance mutation with its record write so a failed
// transition never leaves money half-moved. Production wires
// *database.MongoDB; tests substitute a sequential runner.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) (interface{}, error)) (interface{}, error)
}
