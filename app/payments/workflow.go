package payments

import (
	"context"
	"errors"
	"fmt"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/db/mongo"
	"konspektbot/m/v2/app/lib"
	"konspektbot/m/v2/app/models"

	log "github.com/sirupsen/logrus"
)

type Result int

const (
	Approved Result = iota
	Rejected
	AlreadyDecided
	DenyUnauthorized
	NotFound
	Applied
)

func (r Result) String() string {
	switch r {
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	case AlreadyDecided:
		return "already_decided"
	case DenyUnauthorized:
		return "deny_unauthorized"
	case NotFound:
		return "not_found"
	case Applied:
		return "applied"
	}
	return "unknown"
}

var ErrUserBlocked = errors.New("user is blocked")

// Alerter receives a plain-text copy of events admins should know about.
type Alerter interface {
	Alert(ctx context.Context, text string)
}

type Workflow struct {
	store     mongo.MongoClient
	locks     *lib.UserLocks
	admins    lib.AdminSet
	freeQuota int
	alerter   Alerter
}

func NewWorkflow(store mongo.MongoClient, locks *lib.UserLocks, admins lib.AdminSet, freeQuota int, alerter Alerter) *Workflow {
	return &Workflow{
		store:     store,
		locks:     locks,
		admins:    admins,
		freeQuota: freeQuota,
		alerter:   alerter,
	}
}

func (w *Workflow) IsAdmin(userID string) bool {
	return w.admins.Contains(userID)
}

func (w *Workflow) alert(ctx context.Context, text string) {
	if w.alerter != nil {
		w.alerter.Alert(ctx, text)
	}
}

// Submit records a payment proof and notifies every admin.
func (w *Workflow) Submit(ctx context.Context, userID string, username string, proofReference string) (*models.MongoPayment, models.OutboundEffects, error) {
	unlock := w.locks.Lock(userID)
	defer unlock()

	user, err := lib.LoadOrCreateUser(ctx, w.store, userID, username)
	if err != nil {
		return nil, nil, fmt.Errorf("Submit: %w", err)
	}
	if user.Blocked {
		log.Infof("Submit: blocked user %s tried to submit a payment proof", userID)
		return nil, models.OutboundEffects{{Recipient: userID, Content: MessageBlocked}}, ErrUserBlocked
	}

	payment := &models.MongoPayment{
		UserID:         userID,
		Username:       username,
		ProofReference: proofReference,
	}
	if _, err := w.store.AppendPayment(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("Submit: append payment for user %s: %w", userID, err)
	}
	config.CONFIG.DataDogClient.Incr("payments.submitted", nil, 1)
	log.Infof("Submit: user %s submitted payment %d", userID, payment.ID)

	effects := models.OutboundEffects{{Recipient: userID, Content: MessageProofReceived}}
	for _, adminID := range w.admins.IDs() {
		effects = append(effects, ProofCard(adminID, *payment))
	}
	w.alert(ctx, fmt.Sprintf("💳 New payment proof #%d from %s (%s)", payment.ID, displayUser(*payment), userID))
	return payment, effects, nil
}

// Decide applies an admin's verdict to a pending payment exactly once.
// Approval grants premium and resets an exhausted free quota before the
// payment leaves the pending state.
func (w *Workflow) Decide(ctx context.Context, requestID int64, decidedBy string, outcome models.Outcome) (Result, *models.MongoPayment, models.OutboundEffects, error) {
	result, payment, err := w.decide(ctx, requestID, decidedBy, outcome)
	if err != nil {
		config.CONFIG.DataDogClient.Incr("payments.decision_error", nil, 1)
		return result, payment, nil, err
	}
	config.CONFIG.DataDogClient.Incr("payments.decided", []string{"result:" + result.String()}, 1)
	log.Infof("Decide: payment %d by %s: %s", requestID, decidedBy, result)

	effects := models.OutboundEffects{{Recipient: decidedBy, Content: decisionConfirmation(result, payment)}}
	switch result {
	case Approved:
		effects = append(effects, models.Effect{Recipient: payment.UserID, Content: MessagePremiumGranted})
	case Rejected:
		effects = append(effects, models.Effect{Recipient: payment.UserID, Content: MessageProofRejected})
	}
	return result, payment, effects, nil
}

func (w *Workflow) decide(ctx context.Context, requestID int64, decidedBy string, outcome models.Outcome) (Result, *models.MongoPayment, error) {
	if !w.admins.Contains(decidedBy) {
		log.Warnf("Decide: %s is not an admin", decidedBy)
		return DenyUnauthorized, nil, nil
	}
	payment, err := w.store.GetPayment(ctx, requestID)
	if errors.Is(err, mongo.ErrNotFound) {
		return NotFound, nil, nil
	}
	if err != nil {
		return NotFound, nil, fmt.Errorf("Decide: %w", err)
	}

	unlock := w.locks.Lock(payment.UserID)
	defer unlock()

	// re-read under the lock, a concurrent decision may have landed
	payment, err = w.store.GetPayment(ctx, requestID)
	if err != nil {
		return NotFound, nil, fmt.Errorf("Decide: %w", err)
	}
	if payment.Status.IsTerminal() {
		return AlreadyDecided, payment, nil
	}

	if outcome == models.OutcomeApprove {
		user, err := lib.LoadOrCreateUser(ctx, w.store, payment.UserID, payment.Username)
		if err != nil {
			return NotFound, payment, fmt.Errorf("Decide: %w", err)
		}
		user.Premium = true
		if user.FreeUsesConsumed >= w.freeQuota {
			user.FreeUsesConsumed = 0
		}
		if err := w.store.PutUser(ctx, user); err != nil {
			return NotFound, payment, fmt.Errorf("Decide: grant premium to %s: %w", user.ID, err)
		}
	}

	err = w.store.UpdatePaymentStatus(ctx, requestID, outcome.Status(), decidedBy)
	if errors.Is(err, mongo.ErrConflict) {
		return AlreadyDecided, payment, nil
	}
	if err != nil {
		return NotFound, payment, fmt.Errorf("Decide: %w", err)
	}
	payment.Status = outcome.Status()
	payment.DecidedBy = decidedBy
	if outcome == models.OutcomeApprove {
		return Approved, payment, nil
	}
	return Rejected, payment, nil
}

// SetBlocked flips a user's block flag. Only admins may do it.
func (w *Workflow) SetBlocked(ctx context.Context, userID string, blocked bool, decidedBy string) (Result, models.OutboundEffects, error) {
	if !w.admins.Contains(decidedBy) {
		log.Warnf("SetBlocked: %s is not an admin", decidedBy)
		return DenyUnauthorized, models.OutboundEffects{{Recipient: decidedBy, Content: MessageNotAdmin}}, nil
	}

	unlock := w.locks.Lock(userID)
	defer unlock()

	user, err := w.store.GetUser(ctx, userID)
	if errors.Is(err, mongo.ErrNotFound) {
		return NotFound, models.OutboundEffects{{Recipient: decidedBy, Content: MessageUserNotFound}}, nil
	}
	if err != nil {
		return NotFound, nil, fmt.Errorf("SetBlocked: %w", err)
	}
	user.Blocked = blocked
	if blocked {
		user.ClearScratch()
	}
	if err := w.store.PutUser(ctx, user); err != nil {
		return NotFound, nil, fmt.Errorf("SetBlocked: %w", err)
	}
	config.CONFIG.DataDogClient.Incr("payments.block", []string{fmt.Sprintf("blocked:%t", blocked)}, 1)
	log.Infof("SetBlocked: user %s blocked=%t by %s", userID, blocked, decidedBy)

	confirmation := fmt.Sprintf("⛔ Foydalanuvchi %s bloklandi.", userID)
	notice := MessageUserBlocked
	if !blocked {
		confirmation = fmt.Sprintf("✅ Foydalanuvchi %s blokdan chiqarildi.", userID)
		notice = MessageUserUnblocked
	}
	w.alert(ctx, confirmation)
	return Applied, models.OutboundEffects{
		{Recipient: decidedBy, Content: confirmation},
		{Recipient: userID, Content: notice},
	}, nil
}

func (w *Workflow) ListPending(ctx context.Context) ([]models.MongoPayment, error) {
	pending, err := w.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	return pending, nil
}

// PendingCards renders every pending payment for one admin.
func (w *Workflow) PendingCards(ctx context.Context, adminID string) (models.OutboundEffects, error) {
	pending, err := w.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return models.OutboundEffects{{Recipient: adminID, Content: "✅ Hozircha kutilayotgan to‘lovlar yo‘q."}}, nil
	}
	effects := models.OutboundEffects{}
	for _, payment := range pending {
		effects = append(effects, ProofCard(adminID, payment))
	}
	return effects, nil
}

func (w *Workflow) Admins() []string {
	return w.admins.IDs()
}
