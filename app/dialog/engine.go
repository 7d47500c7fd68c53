package dialog

import (
	"context"
	"io"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/converters"
	"konspektbot/m/v2/app/db/mongo"
	"konspektbot/m/v2/app/db/redis"
	"konspektbot/m/v2/app/lib"
	"konspektbot/m/v2/app/models"
	"konspektbot/m/v2/app/payments"
	"time"

	log "github.com/sirupsen/logrus"
)

type Generator interface {
	Generate(ctx context.Context, request models.GenerationRequest) (string, error)
}

// FileFetcher opens an uploaded file by its transport handle.
type FileFetcher interface {
	Open(ctx context.Context, fileHandle string) (io.ReadCloser, error)
}

type Settings struct {
	BulkTopicLimit int
	CardNumber     string
	HistoryLimit   int64
	PendingTTL     time.Duration
	PremiumPrice   string
	PreviewPercent int
}

type Options struct {
	Admins    lib.AdminSet
	Alerter   payments.Alerter
	Cache     redis.Client
	Files     FileFetcher
	Gate      *lib.Gate
	Generator Generator
	Locks     *lib.UserLocks
	Payments  *payments.Workflow
	Renderer  converters.Renderer
	Settings  Settings
	Store     mongo.MongoClient
}

// Engine turns inbound events into state transitions and outbound effects.
// It never talks to the transport.
type Engine struct {
	admins    lib.AdminSet
	alerter   payments.Alerter
	cache     redis.Client
	files     FileFetcher
	gate      *lib.Gate
	generator Generator
	locks     *lib.UserLocks
	payments  *payments.Workflow
	renderer  converters.Renderer
	settings  Settings
	store     mongo.MongoClient
}

func NewEngine(opts Options) *Engine {
	if opts.Settings.HistoryLimit <= 0 {
		opts.Settings.HistoryLimit = 10
	}
	if opts.Settings.PreviewPercent <= 0 {
		opts.Settings.PreviewPercent = config.DEFAULT_PREVIEW_PERCENT
	}
	if opts.Settings.PendingTTL <= 0 {
		opts.Settings.PendingTTL = config.DEFAULT_PENDING_TTL
	}
	if opts.Settings.BulkTopicLimit <= 0 {
		opts.Settings.BulkTopicLimit = config.DEFAULT_BULK_TOPIC_LIMIT
	}
	return &Engine{
		admins:    opts.Admins,
		alerter:   opts.Alerter,
		cache:     opts.Cache,
		files:     opts.Files,
		gate:      opts.Gate,
		generator: opts.Generator,
		locks:     opts.Locks,
		payments:  opts.Payments,
		renderer:  opts.Renderer,
		settings:  opts.Settings,
		store:     opts.Store,
	}
}

// Dispatch handles one inbound event and returns what should be sent, in order.
func (e *Engine) Dispatch(ctx context.Context, event any) models.OutboundEffects {
	switch ev := event.(type) {
	case models.TextEvent:
		e.count("text")
		return e.withUser(ctx, ev.UserID, ev.Username, func(user *models.MongoUser) (models.OutboundEffects, *job) {
			return e.handleText(ctx, user, ev.Text)
		})
	case models.ActionEvent:
		e.count("action")
		return e.withUser(ctx, ev.UserID, ev.Username, func(user *models.MongoUser) (models.OutboundEffects, *job) {
			return e.handleAction(ctx, user, ev.Action)
		})
	case models.CommandEvent:
		e.count("command")
		return e.handleCommand(ctx, ev)
	case models.FileEvent:
		e.count("file")
		return e.withUser(ctx, ev.UserID, ev.Username, func(user *models.MongoUser) (models.OutboundEffects, *job) {
			return e.handleFile(ctx, user, ev)
		})
	case models.PhotoEvent:
		e.count("photo")
		return e.handlePhoto(ctx, ev)
	case models.AdminDecisionEvent:
		e.count("admin_decision")
		return e.handleDecision(ctx, ev)
	case models.AdminBlockEvent:
		e.count("admin_block")
		return e.handleBlock(ctx, ev)
	}
	log.Warnf("Dispatch: unsupported event %T", event)
	return nil
}

func (e *Engine) count(kind string) {
	config.CONFIG.DataDogClient.Incr("dialog.event", []string{"kind:" + kind}, 1)
}

func (e *Engine) isPrivileged(userID string) bool {
	return e.admins.Contains(userID)
}

// withUser runs fn under the user's lock and then, outside of it, the
// generation fn may have scheduled.
func (e *Engine) withUser(ctx context.Context, userID string, username string, fn func(user *models.MongoUser) (models.OutboundEffects, *job)) models.OutboundEffects {
	unlock := e.locks.Lock(userID)
	user, err := lib.LoadOrCreateUser(ctx, e.store, userID, username)
	if err != nil {
		unlock()
		log.Errorf("withUser: %v", err)
		return models.OutboundEffects{reply(userID, msgInternalError, nil)}
	}
	if user.Blocked {
		unlock()
		return models.OutboundEffects{reply(userID, msgBlocked, removeKeyboard())}
	}
	before := user.Dialog
	effects, pending := fn(user)
	if user.Dialog != before {
		config.CONFIG.DataDogClient.Incr("dialog.transition", []string{"from:" + before.String(), "to:" + user.Dialog.String()}, 1)
	}
	unlock()

	if pending != nil {
		effects = append(effects, e.run(ctx, pending)...)
	}
	return effects
}

// save persists the user and turns a failure into the generic error reply.
func (e *Engine) save(ctx context.Context, user *models.MongoUser) error {
	if err := e.store.PutUser(ctx, user); err != nil {
		log.Errorf("save: user %s: %v", user.ID, err)
		return err
	}
	return nil
}

func (e *Engine) transition(ctx context.Context, user *models.MongoUser, state models.DialogState, content string) models.OutboundEffects {
	previous := user.Dialog
	user.Dialog = state
	if err := e.save(ctx, user); err != nil {
		user.Dialog = previous
		return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}
	}
	return models.OutboundEffects{reply(user.ID, content, menuFor(state))}
}

func (e *Engine) toIdle(ctx context.Context, user *models.MongoUser, content string) models.OutboundEffects {
	user.ClearScratch()
	if err := e.save(ctx, user); err != nil {
		return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}
	}
	return models.OutboundEffects{reply(user.ID, content, mainMenu())}
}

func (e *Engine) handleAction(ctx context.Context, user *models.MongoUser, action models.Action) (models.OutboundEffects, *job) {
	switch action {
	case models.ActionCancel:
		return e.cancel(ctx, user), nil
	case models.ActionHistory:
		return e.openHistory(ctx, user), nil
	}
	mode, ok := actionModes[action]
	if !ok {
		log.Warnf("handleAction: unknown action %s from user %s", action, user.ID)
		return models.OutboundEffects{reply(user.ID, msgChooseFromMenu, mainMenu())}, nil
	}
	return e.start(ctx, user, mode), nil
}

// start passes the gate and opens a new flow. The free use is charged here,
// so a retry after a failed generation costs nothing.
func (e *Engine) start(ctx context.Context, user *models.MongoUser, mode models.DialogMode) models.OutboundEffects {
	if e.generating(user) {
		return models.OutboundEffects{reply(user.ID, msgStillGenerating, nil)}
	}
	decision, err := e.gate.ConsumeLocked(ctx, user, e.isPrivileged(user.ID))
	if err != nil {
		log.Errorf("start: gate for user %s: %v", user.ID, err)
		return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}
	}
	switch decision {
	case lib.DenyBlocked:
		return models.OutboundEffects{reply(user.ID, msgBlocked, removeKeyboard())}
	case lib.DenyQuotaExhausted:
		return models.OutboundEffects{reply(user.ID, e.quotaExhaustedMessage(), mainMenu())}
	}

	user.ClearScratch()
	return e.transition(ctx, user, models.Awaiting(models.StepAwaitingSubject, mode), msgChooseSubject)
}

func (e *Engine) cancel(ctx context.Context, user *models.MongoUser) models.OutboundEffects {
	if user.Dialog.IsIdle() {
		return models.OutboundEffects{reply(user.ID, msgChooseFromMenu, mainMenu())}
	}
	log.Infof("cancel: user %s left %s", user.ID, user.Dialog)
	return e.toIdle(ctx, user, msgCancelled)
}
