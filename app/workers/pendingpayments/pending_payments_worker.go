// Run regularly to remind admins about payment proofs waiting for a decision
package pendingpayments

import (
	"context"
	"fmt"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/models"
	"konspektbot/m/v2/app/payments"
	"konspektbot/m/v2/app/workers"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// MIN_AGE keeps freshly submitted proofs out of reminders, admins were
// notified about them on submission.
const MIN_AGE = 10 * time.Minute

type Runner struct {
	Alerter   workers.Alerter
	Deliverer workers.Deliverer
	Workflow  *payments.Workflow
	Now       func() time.Time
}

func (r *Runner) Run(ctx context.Context) {
	pending, err := r.Workflow.ListPending(ctx)
	if err != nil {
		log.Errorf("[pendingpayments] failed to list pending payments: %s", err)
		return
	}
	stale := r.stale(pending)
	config.CONFIG.DataDogClient.Gauge("pending_payments_worker.stale", float64(len(stale)), nil, 1)
	if len(stale) == 0 {
		log.Debug("[pendingpayments] nothing to remind about")
		return
	}

	message := reminder(stale)
	log.Infof("[pendingpayments] reminding admins about %d payments", len(stale))
	if r.Alerter != nil {
		r.Alerter.Alert(ctx, message)
	}
	admins := r.Workflow.Admins()
	effects := make(models.OutboundEffects, 0, len(admins))
	for _, admin := range admins {
		effects = append(effects, models.Effect{Recipient: admin, Content: message})
	}
	r.Deliverer.Deliver(effects)
}

func (r *Runner) stale(pending []models.MongoPayment) []models.MongoPayment {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	var stale []models.MongoPayment
	for _, payment := range pending {
		if now.Sub(payment.SubmittedAt) >= MIN_AGE {
			stale = append(stale, payment)
		}
	}
	return stale
}

func reminder(stale []models.MongoPayment) string {
	ids := make([]string, 0, len(stale))
	for _, payment := range stale {
		ids = append(ids, fmt.Sprintf("#%d", payment.ID))
	}
	return fmt.Sprintf("⏳ %d ta to'lov tasdiqlanishini kutmoqda: %s\nKo'rish uchun /payments", len(stale), strings.Join(ids, ", "))
}
