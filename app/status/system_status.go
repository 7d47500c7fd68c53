package status

import (
	"context"
	"konspektbot/m/v2/app/db/mongo"
	"konspektbot/m/v2/app/db/redis"
	"time"

	"github.com/sirupsen/logrus"
)

type SystemStatus struct {
	MongoDB *Status     `json:"mongodb"`
	Redis   *Status     `json:"redis"`
	OpenAI  *Status     `json:"openai"`
	Time    time.Time   `json:"time"`
	Usage   SystemUsage `json:"usage"`
}

type SystemUsage struct {
	TotalUsers       int64 `json:"total_users"`
	TotalGenerations int64 `json:"total_generations"`
	PendingPayments  int64 `json:"pending_payments"`
}

// Status
type Status struct {
	Available bool `json:"available"`
}

// AvailabilityChecker is satisfied by the generation invoker.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

// SystemStatusHandler is a handler for system status
type SystemStatusHandler struct {
	MongoDB mongo.MongoClient
	Redis   redis.Client
	AI      AvailabilityChecker
}

// New creates a new instance of SystemStatusHandler
func New(mongoDB mongo.MongoClient, redis redis.Client, ai AvailabilityChecker) *SystemStatusHandler {
	return &SystemStatusHandler{
		MongoDB: mongoDB,
		Redis:   redis,
		AI:      ai,
	}
}

// GetSystemStatus gets a status of the system
func (h *SystemStatusHandler) GetSystemStatus(ctx context.Context) SystemStatus {
	mongoAvailable := false
	ctxPing, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	defer cancelPing()
	err := h.MongoDB.Ping(ctxPing, nil)
	if err != nil {
		logrus.WithError(err).Warn("GetSystemStatus: failed to ping MongoDB")
	} else {
		mongoAvailable = true
	}
	status := SystemStatus{
		MongoDB: &Status{
			Available: mongoAvailable,
		},
		Redis: &Status{
			Available: h.Redis != nil && h.Redis.Ping(ctx).Err() == nil,
		},
		OpenAI: &Status{
			Available: h.AI != nil && h.AI.IsAvailable(ctx),
		},
		Time: time.Now(),
	}
	if status.Redis.Available {
		status.Usage.TotalGenerations = redis.GetGenerations(ctx, h.Redis)
	}
	if status.MongoDB.Available {
		users, err := h.MongoDB.GetUsersCount(ctx)
		if err != nil {
			logrus.WithError(err).Warn("GetSystemStatus: failed to count users")
		}
		status.Usage.TotalUsers = users
		pending, err := h.MongoDB.ListPending(ctx)
		if err != nil {
			logrus.WithError(err).Warn("GetSystemStatus: failed to list pending payments")
		}
		status.Usage.PendingPayments = int64(len(pending))
	}
	return status
}
