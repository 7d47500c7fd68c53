package workers

import (
	"context"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/models"
	"time"

	log "github.com/sirupsen/logrus"
)

// Alerter mirrors worker reports outside telegram.
type Alerter interface {
	Alert(ctx context.Context, text string)
}

// Deliverer sends effects to telegram users.
type Deliverer interface {
	Deliver(effects models.OutboundEffects)
}

type Worker struct {
	Interval    time.Duration
	MainBotName string
	Name        string
	Run         func(ctx context.Context)
	Stop        chan struct{}
}

func NewWorker(cfg *config.Config, name string, interval time.Duration, run func(ctx context.Context)) *Worker {
	return &Worker{
		Interval:    interval,
		MainBotName: cfg.BotName,
		Name:        name,
		Run:         run,
		Stop:        make(chan struct{}),
	}
}

func (w *Worker) Start() {
	w.runOnce()
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runOnce()
		case <-w.Stop:
			log.Infof("[%s] worker stopped", w.Name)
			return
		}
	}
}

func (w *Worker) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.Interval)
	defer cancel()
	started := time.Now()
	w.Run(ctx)
	config.CONFIG.DataDogClient.Timing("worker.run_duration", time.Since(started), []string{"worker:" + w.Name}, 1)
}

func (w *Worker) StopWorker() {
	w.Stop <- struct{}{}
}
