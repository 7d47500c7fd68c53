package dialog

import (
	"context"
	"fmt"
	"konspektbot/m/v2/app/ai"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/converters"
	"konspektbot/m/v2/app/db/redis"
	"konspektbot/m/v2/app/lib"
	"konspektbot/m/v2/app/models"
	"time"

	log "github.com/sirupsen/logrus"
)

// job is a generation scheduled under the user's lock and run after it is
// released. state is the dialog it was submitted from, the result is applied
// only if the user is still there.
type job struct {
	userID  string
	request models.GenerationRequest
	state   models.DialogState
	since   time.Time
}

// submit marks the request as in flight. A second submission while one is
// running is refused rather than queued.
func (e *Engine) submit(ctx context.Context, user *models.MongoUser, request models.GenerationRequest) (models.OutboundEffects, *job) {
	if e.generating(user) {
		return models.OutboundEffects{reply(user.ID, msgStillGenerating, nil)}, nil
	}
	user.PendingTopic = request.Topic
	// mongo keeps milliseconds, the reload in run must compare equal
	user.PendingSince = time.Now().UTC().Truncate(time.Millisecond)
	if err := e.save(ctx, user); err != nil {
		user.PendingTopic = ""
		user.PendingSince = time.Time{}
		return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}, nil
	}
	log.Infof("submit: user %s requested %s: %s / %s / %q", user.ID, request.Mode, request.Subject, request.Grade, request.Topic)
	return nil, &job{userID: user.ID, request: request, state: user.Dialog, since: user.PendingSince}
}

// generating is true while an earlier submission may still deliver. A
// pending topic older than the TTL is dropped so the user is not stuck.
func (e *Engine) generating(user *models.MongoUser) bool {
	if user.Generating(time.Now(), e.settings.PendingTTL) {
		return true
	}
	if user.PendingTopic != "" {
		log.Warnf("generating: dropping pending %q of user %s submitted at %s", user.PendingTopic, user.ID, user.PendingSince)
		config.CONFIG.DataDogClient.Incr("dialog.pending_expired", nil, 1)
		user.PendingTopic = ""
		user.PendingSince = time.Time{}
	}
	return false
}

func (e *Engine) run(ctx context.Context, pending *job) models.OutboundEffects {
	start := time.Now()
	text, genErr := e.generator.Generate(ctx, pending.request)
	config.CONFIG.DataDogClient.Timing("dialog.generation", time.Since(start), []string{"mode:" + string(pending.request.Mode)}, 1)

	unlock := e.locks.Lock(pending.userID)
	defer unlock()

	user, err := e.store.GetUser(ctx, pending.userID)
	if err != nil {
		// the pending topic stays behind and expires after the TTL
		log.Errorf("run: reload user %s: %v", pending.userID, err)
		return models.OutboundEffects{reply(pending.userID, msgInternalError+msgRetryHint, nil)}
	}
	if user.Dialog != pending.state || user.PendingTopic != pending.request.Topic || !user.PendingSince.Equal(pending.since) {
		log.Infof("run: discarding stale %s result for user %s (now %s)", pending.request.Mode, user.ID, user.Dialog)
		config.CONFIG.DataDogClient.Incr("dialog.stale_result", nil, 1)
		return nil
	}

	if genErr != nil {
		log.Errorf("run: generation for user %s failed: %v", user.ID, genErr)
		user.PendingTopic = ""
		user.PendingSince = time.Time{}
		if err := e.save(ctx, user); err != nil {
			return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}
		}
		effects := models.OutboundEffects{reply(user.ID, ai.UserMessage(genErr)+msgRetryHint, menuFor(user.Dialog))}
		return append(effects, e.reportMisconfiguration(ctx, user.ID, genErr)...)
	}

	effects, err := e.deliver(ctx, user, pending.request, text)
	if err != nil {
		log.Errorf("run: deliver to user %s: %v", user.ID, err)
		user.PendingTopic = ""
		user.PendingSince = time.Time{}
		if err := e.save(ctx, user); err != nil {
			return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}
		}
		return models.OutboundEffects{reply(user.ID, msgInternalError+msgRetryHint, menuFor(user.Dialog))}
	}
	user.ClearScratch()
	if err := e.save(ctx, user); err != nil {
		log.Errorf("run: user %s got the result but stays in %s", user.ID, pending.state)
	}
	return effects
}

// reportMisconfiguration alerts the admins when the generation service
// rejected our credentials. Other failures are only logged.
func (e *Engine) reportMisconfiguration(ctx context.Context, userID string, err error) models.OutboundEffects {
	if !ai.IsMisconfigured(err) {
		return nil
	}
	text := fmt.Sprintf("🔑 Generatsiya xizmati kalitni rad etdi (foydalanuvchi %s): %v", userID, err)
	config.CONFIG.DataDogClient.Incr("dialog.misconfigured", nil, 1)
	if e.alerter != nil {
		e.alerter.Alert(ctx, text)
	}
	effects := models.OutboundEffects{}
	for _, adminID := range e.admins.IDs() {
		effects = append(effects, reply(adminID, text, nil))
	}
	return effects
}

// deliver sends the full artifact to premium and privileged users and a
// preview with payment instructions to everyone else.
func (e *Engine) deliver(ctx context.Context, user *models.MongoUser, request models.GenerationRequest, text string) (models.OutboundEffects, error) {
	if e.cache != nil {
		redis.IncrGenerations(ctx, e.cache, request.Mode)
	}
	if request.Mode == models.GenerationAdvisoryText {
		return models.OutboundEffects{reply(user.ID, "💡 "+text, mainMenu())}, nil
	}

	if !user.Premium && !e.isPrivileged(user.ID) {
		config.CONFIG.DataDogClient.Incr("dialog.delivered", []string{"kind:preview", "mode:" + string(request.Mode)}, 1)
		if e.cache != nil {
			if err := redis.SaveLastRequest(ctx, e.cache, user.ID, request); err != nil {
				log.Warnf("deliver: %v", err)
			}
		}
		return models.OutboundEffects{reply(user.ID, e.previewMessage(lib.Preview(text, e.settings.PreviewPercent)), mainMenu())}, nil
	}

	effect, err := e.document(ctx, user.ID, request, text, readyCaptions[request.Mode])
	if err != nil {
		return nil, err
	}
	config.CONFIG.DataDogClient.Incr("dialog.delivered", []string{"kind:full", "mode:" + string(request.Mode)}, 1)
	return models.OutboundEffects{effect}, nil
}

// document renders the text, records it in the user's history and returns
// the effect carrying the file.
func (e *Engine) document(ctx context.Context, userID string, request models.GenerationRequest, text string, caption string) (models.Effect, error) {
	handle, err := e.renderer.Render(text, documentTitle(request), converters.DocumentMeta{
		UserID:  userID,
		Subject: request.Subject,
		Topic:   request.Topic,
		Mode:    request.Mode,
	})
	if err != nil {
		return models.Effect{}, err
	}
	if err := e.store.AppendHistory(ctx, &models.MongoHistory{
		UserID:     userID,
		Subject:    request.Subject,
		Grade:      request.Grade,
		Topic:      request.Topic,
		Mode:       request.Mode,
		FileHandle: handle,
	}); err != nil {
		log.Errorf("document: append history for user %s: %v", userID, err)
	}
	return models.Effect{
		Recipient:  userID,
		Content:    caption,
		Attachment: &models.Attachment{Kind: models.AttachmentDocument, Handle: handle},
		Markup:     mainMenu(),
	}, nil
}
