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

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// nextSequence atomically increments the named counter and returns the new value.
func (c *Client) nextSequence(ctx context.Context, name string) (int64, error) {
	var result counter
	err := c.collection(MongoCounterCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&result)
	if err != nil {
		return 0, fmt.Errorf("nextSequence: %s: %w", name, err)
	}
	return result.Seq, nil
}

// AppendPayment stores a new pending payment and returns its id.
func (c *Client) AppendPayment(ctx context.Context, payment *models.MongoPayment) (int64, error) {
	id, err := c.nextSequence(ctx, MongoPaymentCollection)
	if err != nil {
		return 0, fmt.Errorf("AppendPayment: %w", err)
	}
	payment.ID = id
	payment.Status = models.PaymentPending
	if payment.SubmittedAt.IsZero() {
		payment.SubmittedAt = time.Now().UTC()
	}
	_, err = c.collection(MongoPaymentCollection).InsertOne(ctx, payment)
	if err != nil {
		return 0, fmt.Errorf("AppendPayment: failed to insert payment: %w", err)
	}
	return id, nil
}

func (c *Client) GetPayment(ctx context.Context, id int64) (*models.MongoPayment, error) {
	var payment models.MongoPayment
	err := c.collection(MongoPaymentCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("GetPayment: payment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetPayment: failed to find payment: %w", err)
	}
	return &payment, nil
}

// UpdatePaymentStatus moves a pending payment to a terminal status. A payment that is
// no longer pending is left untouched and ErrConflict is returned.
func (c *Client) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, decidedBy string) error {
	result, err := c.collection(MongoPaymentCollection).UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.PaymentPending},
		bson.M{"$set": bson.M{
			"status":     status,
			"decided_by": decidedBy,
			"decided_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("UpdatePaymentStatus: failed to update payment %d: %w", id, err)
	}
	if result.MatchedCount == 1 {
		return nil
	}
	if _, err := c.GetPayment(ctx, id); err != nil {
		return fmt.Errorf("UpdatePaymentStatus: %w", err)
	}
	return fmt.Errorf("UpdatePaymentStatus: payment %d: %w", id, ErrConflict)
}

func (c *Client) ListPending(ctx context.Context) ([]models.MongoPayment, error) {
	cursor, err := c.collection(MongoPaymentCollection).Find(
		ctx,
		bson.M{"status": models.PaymentPending},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("ListPending: failed to query payments: %w", err)
	}
	payments := []models.MongoPayment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("ListPending: failed to decode payments: %w", err)
	}
	return payments, nil
}
