package lib

import (
	"context"
	"fmt"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/db/mongo"
	"konspektbot/m/v2/app/models"

	log "github.com/sirupsen/logrus"
)

type Decision int

const (
	Allow Decision = iota
	DenyBlocked
	DenyQuotaExhausted
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyBlocked:
		return "deny_blocked"
	case DenyQuotaExhausted:
		return "deny_quota_exhausted"
	}
	return "unknown"
}

// Gate decides whether a user may start a generation and charges the free
// quota when it lets a non-premium user through.
type Gate struct {
	store     mongo.MongoClient
	locks     *UserLocks
	freeQuota int
}

func NewGate(store mongo.MongoClient, locks *UserLocks, freeQuota int) *Gate {
	return &Gate{store: store, locks: locks, freeQuota: freeQuota}
}

func (g *Gate) FreeQuota() int {
	return g.freeQuota
}

func (g *Gate) CheckAndConsume(ctx context.Context, userID string, isPrivileged bool) (Decision, error) {
	unlock := g.locks.Lock(userID)
	defer unlock()

	user, err := LoadOrCreateUser(ctx, g.store, userID, "")
	if err != nil {
		return DenyBlocked, fmt.Errorf("CheckAndConsume: %w", err)
	}
	return g.ConsumeLocked(ctx, user, isPrivileged)
}

// ConsumeLocked applies the gate to an already loaded record. The caller must
// hold the user's lock. On persistence failure the in-memory counter is
// restored and the error is returned, nothing is allowed.
func (g *Gate) ConsumeLocked(ctx context.Context, user *models.MongoUser, isPrivileged bool) (Decision, error) {
	decision, err := g.consume(ctx, user, isPrivileged)
	if err != nil {
		config.CONFIG.DataDogClient.Incr("gate.error", nil, 1)
		return decision, err
	}
	config.CONFIG.DataDogClient.Incr("gate.decision", []string{"decision:" + decision.String()}, 1)
	return decision, nil
}

func (g *Gate) consume(ctx context.Context, user *models.MongoUser, isPrivileged bool) (Decision, error) {
	if user.Blocked {
		return DenyBlocked, nil
	}
	if isPrivileged || user.Premium {
		return Allow, nil
	}
	if user.FreeUsesConsumed >= g.freeQuota {
		log.Infof("ConsumeLocked: user %s exhausted free quota (%d/%d)", user.ID, user.FreeUsesConsumed, g.freeQuota)
		return DenyQuotaExhausted, nil
	}

	user.FreeUsesConsumed++
	if err := g.store.PutUser(ctx, user); err != nil {
		user.FreeUsesConsumed--
		return DenyQuotaExhausted, fmt.Errorf("ConsumeLocked: persist free use for user %s: %w", user.ID, err)
	}
	log.Infof("ConsumeLocked: user %s used free generation %d/%d", user.ID, user.FreeUsesConsumed, g.freeQuota)
	return Allow, nil
}
