package dialog

import (
	"context"
	"errors"
	"fmt"
	"konspektbot/m/v2/app/ai"
	"konspektbot/m/v2/app/db/redis"
	"konspektbot/m/v2/app/lib"
	"konspektbot/m/v2/app/models"
	"konspektbot/m/v2/app/payments"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

func (e *Engine) handleCommand(ctx context.Context, event models.CommandEvent) models.OutboundEffects {
	command := strings.ToLower(strings.TrimPrefix(event.Command, "/"))
	switch command {
	case "start":
		return e.startCommand(ctx, event)
	case "help":
		return e.withUser(ctx, event.UserID, event.Username, func(user *models.MongoUser) (models.OutboundEffects, *job) {
			return models.OutboundEffects{reply(user.ID, msgHelp, menuFor(user.Dialog))}, nil
		})
	case "cancel":
		return e.withUser(ctx, event.UserID, event.Username, func(user *models.MongoUser) (models.OutboundEffects, *job) {
			return e.cancel(ctx, user), nil
		})
	case "admin", "payments", "users", "block", "unblock":
		if !e.isPrivileged(event.UserID) {
			return models.OutboundEffects{reply(event.UserID, msgNotAdmin, nil)}
		}
		return e.adminCommand(ctx, command, event)
	}
	return models.OutboundEffects{reply(event.UserID, msgUnknownCommand, nil)}
}

// startCommand registers the user and shows the main menu. A flow in
// progress is abandoned unless its generation is still running.
func (e *Engine) startCommand(ctx context.Context, event models.CommandEvent) models.OutboundEffects {
	unlock := e.locks.Lock(event.UserID)
	defer unlock()

	user, err := lib.LoadOrCreateUser(ctx, e.store, event.UserID, event.Username)
	if err != nil {
		log.Errorf("startCommand: %v", err)
		return models.OutboundEffects{reply(event.UserID, msgInternalError, nil)}
	}
	if user.Blocked {
		return models.OutboundEffects{reply(user.ID, msgBlocked, removeKeyboard())}
	}
	if !e.generating(user) {
		user.ClearScratch()
	}
	if err := e.save(ctx, user); err != nil {
		return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}
	}
	return models.OutboundEffects{reply(user.ID, msgWelcome, mainMenu())}
}

func (e *Engine) adminCommand(ctx context.Context, command string, event models.CommandEvent) models.OutboundEffects {
	adminID := event.UserID
	switch command {
	case "payments":
		effects, err := e.payments.PendingCards(ctx, adminID)
		if err != nil {
			log.Errorf("adminCommand: %v", err)
			return models.OutboundEffects{reply(adminID, msgInternalError, nil)}
		}
		return effects
	case "users":
		count, err := e.store.GetUsersCount(ctx)
		if err != nil {
			log.Errorf("adminCommand: %v", err)
			return models.OutboundEffects{reply(adminID, msgInternalError, nil)}
		}
		content := fmt.Sprintf("👥 Foydalanuvchilar soni: %d", count)
		if e.cache != nil {
			content += fmt.Sprintf("\n📄 Yaratilgan hujjatlar: %d", redis.GetGenerations(ctx, e.cache))
		}
		return models.OutboundEffects{reply(adminID, content, nil)}
	case "block", "unblock":
		// users are stored by their numeric chat id, usernames cannot be looked up
		if len(event.Args) != 1 || !isUserID(event.Args[0]) {
			return models.OutboundEffects{reply(adminID, fmt.Sprintf("Foydalanish: /%s <user id>\nID raqamlardan iborat bo‘lishi kerak.", command), nil)}
		}
		return e.handleBlock(ctx, models.AdminBlockEvent{
			AdminID:      adminID,
			TargetUserID: event.Args[0],
			Blocked:      command == "block",
		})
	}
	return models.OutboundEffects{reply(adminID, msgAdminHelp, nil)}
}

func isUserID(arg string) bool {
	id, err := strconv.ParseInt(arg, 10, 64)
	return err == nil && id > 0 && strconv.FormatInt(id, 10) == arg
}

func (e *Engine) handlePhoto(ctx context.Context, event models.PhotoEvent) models.OutboundEffects {
	_, effects, err := e.payments.Submit(ctx, event.UserID, event.Username, event.FileHandle)
	if errors.Is(err, payments.ErrUserBlocked) {
		return effects
	}
	if err != nil {
		log.Errorf("handlePhoto: %v", err)
		return models.OutboundEffects{reply(event.UserID, msgInternalError, nil)}
	}
	return effects
}

func (e *Engine) handleBlock(ctx context.Context, event models.AdminBlockEvent) models.OutboundEffects {
	_, effects, err := e.payments.SetBlocked(ctx, event.TargetUserID, event.Blocked, event.AdminID)
	if err != nil {
		log.Errorf("handleBlock: %v", err)
		return models.OutboundEffects{reply(event.AdminID, msgInternalError, nil)}
	}
	return effects
}

func (e *Engine) handleDecision(ctx context.Context, event models.AdminDecisionEvent) models.OutboundEffects {
	result, payment, effects, err := e.payments.Decide(ctx, event.RequestID, event.AdminID, event.Outcome)
	if err != nil {
		log.Errorf("handleDecision: %v", err)
		return models.OutboundEffects{reply(event.AdminID, msgInternalError, nil)}
	}
	if result == payments.Approved {
		effects = append(effects, e.redeliver(ctx, payment.UserID)...)
	}
	return effects
}

// redeliver sends the full version of the last request the user only saw a
// preview of.
func (e *Engine) redeliver(ctx context.Context, userID string) models.OutboundEffects {
	if e.cache == nil {
		return nil
	}
	request, err := redis.GetLastRequest(ctx, e.cache, userID)
	if err != nil {
		log.Warnf("redeliver: %v", err)
		return nil
	}
	if request == nil {
		return nil
	}

	text, err := e.generator.Generate(ctx, *request)
	if err != nil {
		log.Errorf("redeliver: generation for user %s failed: %v", userID, err)
		effects := models.OutboundEffects{reply(userID, ai.UserMessage(err), nil)}
		return append(effects, e.reportMisconfiguration(ctx, userID, err)...)
	}
	caption := fmt.Sprintf("♻️ Sizning oxirgi konspektingiz qayta yuborildi:\n\n📘 %s, %s-sinf\n📝 %s", request.Subject, request.Grade, request.Topic)
	effect, err := e.document(ctx, userID, *request, text, caption)
	if err != nil {
		log.Errorf("redeliver: render for user %s: %v", userID, err)
		return nil
	}
	redis.ClearLastRequest(ctx, e.cache, userID)
	redis.IncrGenerations(ctx, e.cache, request.Mode)
	return models.OutboundEffects{effect}
}
