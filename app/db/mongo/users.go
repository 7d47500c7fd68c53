package mongo

import (
	"context"
	"errors"
	"fmt"
	"konspektbot/m/v2/app/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (c *Client) GetUser(ctx context.Context, userID string) (*models.MongoUser, error) {
	var user models.MongoUser
	err := c.collection(MongoUserCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("GetUser: user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: failed to find user: %w", err)
	}
	return &user, nil
}

// PutUser replaces the whole user record, creating it when missing.
func (c *Client) PutUser(ctx context.Context, user *models.MongoUser) error {
	user.UpdatedAt = time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = user.UpdatedAt
	}
	_, err := c.collection(MongoUserCollection).ReplaceOne(ctx, bson.M{"_id": user.ID}, user, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("PutUser: failed to save user %s: %w", user.ID, err)
	}
	return nil
}

func (c *Client) GetUsersCount(ctx context.Context) (int64, error) {
	count, err := c.collection(MongoUserCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("GetUsersCount: failed to get users count: %w", err)
	}
	return count, nil
}
