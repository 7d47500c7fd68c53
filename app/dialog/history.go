package dialog

import (
	"context"
	"fmt"
	"konspektbot/m/v2/app/models"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

func (e *Engine) openHistory(ctx context.Context, user *models.MongoUser) models.OutboundEffects {
	if !user.Premium && !e.isPrivileged(user.ID) {
		return models.OutboundEffects{reply(user.ID, msgHistoryPremium, mainMenu())}
	}
	history, err := e.store.GetHistory(ctx, user.ID, e.settings.HistoryLimit)
	if err != nil {
		log.Errorf("openHistory: user %s: %v", user.ID, err)
		return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}
	}
	if len(history) == 0 {
		return models.OutboundEffects{reply(user.ID, msgHistoryEmpty, mainMenu())}
	}

	var b strings.Builder
	b.WriteString("📂 Sizning konspektlaringiz:\n\n")
	for i, item := range history {
		topic := strings.ReplaceAll(item.Topic, "\n", ", ")
		fmt.Fprintf(&b, "%d. %s / %s-sinf: %s\n", i+1, item.Subject, item.Grade, topic)
	}
	b.WriteString("\nQayta yuklab olish uchun raqam yuboring. Masalan: 2")

	user.ClearScratch()
	return e.transition(ctx, user, models.Awaiting(models.StepSelectingHistory, ""), b.String())
}

func (e *Engine) selectHistory(ctx context.Context, user *models.MongoUser, text string) models.OutboundEffects {
	index, err := strconv.Atoi(text)
	if err != nil {
		return models.OutboundEffects{reply(user.ID, msgHistoryInvalid, backMenu())}
	}
	history, err := e.store.GetHistory(ctx, user.ID, e.settings.HistoryLimit)
	if err != nil {
		log.Errorf("selectHistory: user %s: %v", user.ID, err)
		return models.OutboundEffects{reply(user.ID, msgInternalError, nil)}
	}
	if index < 1 || index > len(history) {
		return models.OutboundEffects{reply(user.ID, msgHistoryInvalid, backMenu())}
	}

	item := history[index-1]
	if !e.renderer.Exists(item.FileHandle) {
		return e.toIdle(ctx, user, msgHistoryMissing)
	}
	effects := e.toIdle(ctx, user, msgHistoryResent)
	if effects[0].Content == msgHistoryResent {
		effects[0].Attachment = &models.Attachment{Kind: models.AttachmentDocument, Handle: item.FileHandle}
	}
	return effects
}
