package mongo

import (
	"context"
	"fmt"
	"konspektbot/m/v2/app/models"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MockMongoDBClient is an in-memory MongoClient for tests.
type MockMongoDBClient struct {
	mu       sync.Mutex
	users    map[string]models.MongoUser
	payments map[int64]models.MongoPayment
	history  []models.MongoHistory
	seq      int64

	// PutUserErr, when set, is returned by every PutUser call.
	PutUserErr   error
	PutUserCalls int
}

func NewMockMongoDBClient(users ...models.MongoUser) *MockMongoDBClient {
	m := &MockMongoDBClient{
		users:    make(map[string]models.MongoUser),
		payments: make(map[int64]models.MongoPayment),
	}
	for _, user := range users {
		m.users[user.ID] = user
	}
	return m
}

func (m *MockMongoDBClient) Disconnect(ctx context.Context) error {
	return nil
}

func (m *MockMongoDBClient) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	return nil
}

func (m *MockMongoDBClient) GetUser(ctx context.Context, userID string) (*models.MongoUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("GetUser: user %s: %w", userID, ErrNotFound)
	}
	return &user, nil
}

func (m *MockMongoDBClient) PutUser(ctx context.Context, user *models.MongoUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutUserCalls++
	if m.PutUserErr != nil {
		return m.PutUserErr
	}
	user.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = *user
	return nil
}

func (m *MockMongoDBClient) GetUsersCount(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *MockMongoDBClient) AppendPayment(ctx context.Context, payment *models.MongoPayment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	payment.ID = m.seq
	payment.Status = models.PaymentPending
	if payment.SubmittedAt.IsZero() {
		payment.SubmittedAt = time.Now().UTC()
	}
	m.payments[payment.ID] = *payment
	return payment.ID, nil
}

func (m *MockMongoDBClient) GetPayment(ctx context.Context, id int64) (*models.MongoPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("GetPayment: payment %d: %w", id, ErrNotFound)
	}
	return &payment, nil
}

func (m *MockMongoDBClient) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, decidedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return fmt.Errorf("UpdatePaymentStatus: payment %d: %w", id, ErrNotFound)
	}
	if payment.Status != models.PaymentPending {
		return fmt.Errorf("UpdatePaymentStatus: payment %d: %w", id, ErrConflict)
	}
	payment.Status = status
	payment.DecidedBy = decidedBy
	payment.DecidedAt = time.Now().UTC()
	m.payments[id] = payment
	return nil
}

func (m *MockMongoDBClient) ListPending(ctx context.Context) ([]models.MongoPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending := []models.MongoPayment{}
	for _, payment := range m.payments {
		if payment.Status == models.PaymentPending {
			pending = append(pending, payment)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

func (m *MockMongoDBClient) AppendHistory(ctx context.Context, record *models.MongoHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	m.history = append(m.history, *record)
	return nil
}

func (m *MockMongoDBClient) GetHistory(ctx context.Context, userID string, limit int64) ([]models.MongoHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := []models.MongoHistory{}
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].UserID == userID {
			history = append(history, m.history[i])
		}
		if limit > 0 && int64(len(history)) == limit {
			break
		}
	}
	return history, nil
}
