package dialog

import (
	"context"
	"errors"
	"konspektbot/m/v2/app/converters"
	"konspektbot/m/v2/app/models"
	"strings"

	log "github.com/sirupsen/logrus"
)

func (e *Engine) handleFile(ctx context.Context, user *models.MongoUser, event models.FileEvent) (models.OutboundEffects, *job) {
	if user.Dialog.Step != models.StepAwaitingBulkFile {
		return models.OutboundEffects{reply(user.ID, msgFileNotExpected, menuFor(user.Dialog))}, nil
	}
	if e.generating(user) {
		return models.OutboundEffects{reply(user.ID, msgStillGenerating, nil)}, nil
	}

	kind := event.DeclaredKind
	if kind == "" || kind == models.FileKindOther {
		kind = converters.KindFromName(event.FileName)
	}
	if kind == models.FileKindOther {
		return models.OutboundEffects{reply(user.ID, msgUnsupportedFile, cancelMenu())}, nil
	}

	topics, err := e.readTopics(ctx, event.FileHandle, kind)
	if err != nil || len(topics) == 0 {
		log.Infof("handleFile: user %s sent %s without topics: %v", user.ID, event.FileName, err)
		return e.toIdle(ctx, user, msgNoTopicColumn), nil
	}

	if !user.Premium && !e.isPrivileged(user.ID) && len(topics) > e.settings.BulkTopicLimit {
		log.Infof("handleFile: user %s sent %d topics over the free limit %d", user.ID, len(topics), e.settings.BulkTopicLimit)
		return e.toIdle(ctx, user, e.bulkLimitMessage(len(topics))), nil
	}

	return e.submit(ctx, user, models.GenerationRequest{
		Subject: user.PendingSubject,
		Grade:   user.PendingGrade,
		Topic:   strings.Join(topics, "\n"),
		Mode:    models.GenerationBulkTopics,
	})
}

func (e *Engine) readTopics(ctx context.Context, handle string, kind models.FileKind) ([]string, error) {
	if e.files == nil {
		return nil, errors.New("readTopics: no file fetcher configured")
	}
	body, err := e.files.Open(ctx, handle)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return converters.ParseTopics(body, kind)
}
