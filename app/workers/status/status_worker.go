// Run regularly to check status of the system and persist it to the redis
package status

import (
	"context"
	"encoding/json"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/db/redis"
	"konspektbot/m/v2/app/models"
	"konspektbot/m/v2/app/status"
	"konspektbot/m/v2/app/workers"
	"time"

	log "github.com/sirupsen/logrus"
)

const STATUS_KEY = "system-status"

type Runner struct {
	Admins      []string
	Alerter     workers.Alerter
	Cache       redis.Client
	Deliverer   workers.Deliverer
	Handler     *status.SystemStatusHandler
	Interval    time.Duration
	MainBotName string
}

func (r *Runner) Run(ctx context.Context) {
	systemStatus := r.Handler.GetSystemStatus(ctx)
	config.CONFIG.DataDogClient.Gauge("status_worker.mongo_db_available", boolToFloat64(systemStatus.MongoDB.Available), nil, 1)
	config.CONFIG.DataDogClient.Gauge("status_worker.redis_available", boolToFloat64(systemStatus.Redis.Available), nil, 1)
	config.CONFIG.DataDogClient.Gauge("status_worker.open_ai_available", boolToFloat64(systemStatus.OpenAI.Available), nil, 1)
	config.CONFIG.DataDogClient.Gauge("status_worker.total_users", float64(systemStatus.Usage.TotalUsers), nil, 1)
	config.CONFIG.DataDogClient.Gauge("status_worker.total_generations", float64(systemStatus.Usage.TotalGenerations), nil, 1)
	config.CONFIG.DataDogClient.Gauge("status_worker.pending_payments", float64(systemStatus.Usage.PendingPayments), nil, 1)

	if !systemStatus.MongoDB.Available {
		r.reportUnavailableStatus(ctx, "MongoDB")
	}
	if !systemStatus.Redis.Available {
		r.reportUnavailableStatus(ctx, "Redis")
	}
	if !systemStatus.OpenAI.Available {
		r.reportUnavailableStatus(ctx, "OpenAI")
	}

	if !systemStatus.Redis.Available {
		return
	}
	statusBytes, _ := json.Marshal(systemStatus)
	err := r.Cache.Set(ctx, STATUS_KEY, string(statusBytes), r.Interval*10).Err()
	if err != nil {
		log.Errorf("failed to persist system status: %s", err)
		return
	}
	log.Debugf("system status: %s", statusBytes)
}

func (r *Runner) reportUnavailableStatus(ctx context.Context, systemName string) {
	message := "🔥 " + r.MainBotName + ": " + systemName + " is down 🔥"
	log.Error(message)
	if r.Alerter != nil {
		r.Alerter.Alert(ctx, message)
	}
	if r.Deliverer == nil {
		return
	}
	effects := make(models.OutboundEffects, 0, len(r.Admins))
	for _, admin := range r.Admins {
		effects = append(effects, models.Effect{Recipient: admin, Content: message})
	}
	r.Deliverer.Deliver(effects)
}

func boolToFloat64(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
