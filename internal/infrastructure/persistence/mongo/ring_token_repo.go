package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ringbridge/internal/domain/models"
	"ringbridge/internal/domain/repository"
	"ringbridge/pkg/constants"
	"ringbridge/pkg/logger"
)

// ringTokenRepo is the Mongo implementation of RingTokenRepository. One
// document per account, keyed uniquely by email.
type ringTokenRepo struct {
	collection *mongo.Collection
	logger     logger.Logger
}

// NewRingTokenRepository creates the repository and ensures the unique index
// on email.
func NewRingTokenRepository(db *DB, log logger.Logger) (repository.RingTokenRepository, error) {
	coll := db.Collection(constants.RingTokensCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure ring_tokens email index: %w", err)
	}

	return &ringTokenRepo{
		collection: coll,
		logger:     log.WithComponent("ring_token_repo"),
	}, nil
}

// LoadAll returns every persisted credential record.
func (r *ringTokenRepo) LoadAll(ctx context.Context) ([]models.RingToken, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to load ring tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var tokens []models.RingToken
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode ring tokens: %w", err)
	}
	return tokens, nil
}

// Upsert inserts or updates the credential for an email. CreatedAt is set
// only on insert; UpdatedAt always moves forward.
func (r *ringTokenRepo) Upsert(ctx context.Context, email, refreshToken string) error {
	now := time.Now().UTC()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{
				"email":        email,
				"refreshToken": refreshToken,
				"updatedAt":    now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ring token for %s: %w", email, err)
	}

	r.logger.Info(ctx, "Refresh credential persisted", logger.String("email", email))
	return nil
}

// Delete removes the credential record for an email.
func (r *ringTokenRepo) Delete(ctx context.Context, email string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return fmt.Errorf("failed to delete ring token for %s: %w", email, err)
	}

	r.logger.Info(ctx, "Refresh credential deleted", logger.String("email", email))
	return nil
}
