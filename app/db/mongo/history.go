package mongo

import (
	"context"
	"fmt"
	"konspektbot/m/v2/app/models"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (c *Client) AppendHistory(ctx context.Context, record *models.MongoHistory) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := c.collection(MongoHistoryCollection).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("AppendHistory: failed to insert history for user %s: %w", record.UserID, err)
	}
	return nil
}

// GetHistory returns the newest records first.
func (c *Client) GetHistory(ctx context.Context, userID string, limit int64) ([]models.MongoHistory, error) {
	cursor, err := c.collection(MongoHistoryCollection).Find(
		ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("GetHistory: failed to query history: %w", err)
	}
	history := []models.MongoHistory{}
	if err := cursor.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("GetHistory: failed to decode history: %w", err)
	}
	return history, nil
}
