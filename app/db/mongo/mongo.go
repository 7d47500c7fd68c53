package mongo

import (
	"context"
	"errors"
	"konspektbot/m/v2/app/models"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MongoUserCollection    = "users"
	MongoPaymentCollection = "payments"
	MongoHistoryCollection = "history"
	MongoCounterCollection = "counters"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Client is a mongo client
type Client struct {
	*mongo.Client
	dbName string
}

// MongoClient is the record store consumed by the bot: users, payment ledger and history.
// All writes are single-record upserts.
type MongoClient interface {
	AppendHistory(ctx context.Context, record *models.MongoHistory) error
	AppendPayment(ctx context.Context, payment *models.MongoPayment) (int64, error)
	Disconnect(ctx context.Context) error
	GetHistory(ctx context.Context, userID string, limit int64) ([]models.MongoHistory, error)
	GetPayment(ctx context.Context, id int64) (*models.MongoPayment, error)
	GetUser(ctx context.Context, userID string) (*models.MongoUser, error)
	GetUsersCount(ctx context.Context) (int64, error)
	ListPending(ctx context.Context) ([]models.MongoPayment, error)
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	PutUser(ctx context.Context, user *models.MongoUser) error
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, decidedBy string) error
}

var MongoDBClient MongoClient

// NewClient creates a new mongo client
func NewClient(connection string, dbName string) *Client {
	return &Client{
		Client: mustConnect(connection),
		dbName: dbName,
	}
}

// mustConnect connects to mongo and panics on error
func mustConnect(connection string) *mongo.Client {
	client, err := mongo.NewClient(options.Client().ApplyURI(connection).SetMaxConnecting(25))
	if err != nil {
		logrus.WithError(err).Panic("failed to create mongo client")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = client.Connect(ctx)
	if err != nil {
		logrus.WithError(err).Panic("failed to connect to mongo")
	}

	return client
}

func (c *Client) collection(name string) *mongo.Collection {
	return c.Database(c.dbName).Collection(name)
}
