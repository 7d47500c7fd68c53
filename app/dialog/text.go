package dialog

import (
	"context"
	"konspektbot/m/v2/app/models"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxSubjectLength = 100

func (e *Engine) handleText(ctx context.Context, user *models.MongoUser, text string) (models.OutboundEffects, *job) {
	text = strings.TrimSpace(text)
	if action, ok := ActionForText(text); ok {
		return e.handleAction(ctx, user, action)
	}

	state := user.Dialog
	switch state.Step {
	case models.StepAwaitingSubject:
		return e.onSubject(ctx, user, text), nil
	case models.StepAwaitingGrade:
		return e.onGrade(ctx, user, text), nil
	case models.StepAwaitingTopic:
		if text == "" {
			return models.OutboundEffects{reply(user.ID, msgEmptyInput, cancelMenu())}, nil
		}
		return e.submit(ctx, user, models.GenerationRequest{
			Subject: user.PendingSubject,
			Grade:   user.PendingGrade,
			Topic:   text,
			Mode:    state.Mode.GenerationMode(),
		})
	case models.StepAwaitingProblemText:
		if text == "" {
			return models.OutboundEffects{reply(user.ID, msgEmptyInput, cancelMenu())}, nil
		}
		return e.submit(ctx, user, models.GenerationRequest{
			Subject: user.PendingSubject,
			Grade:   user.PendingGrade,
			Topic:   text,
			Mode:    models.GenerationAdvisoryText,
		})
	case models.StepAwaitingBulkFile:
		return models.OutboundEffects{reply(user.ID, msgSendBulkFile, cancelMenu())}, nil
	case models.StepSelectingHistory:
		return e.selectHistory(ctx, user, text), nil
	}
	return models.OutboundEffects{reply(user.ID, msgChooseFromMenu, mainMenu())}, nil
}

func (e *Engine) onSubject(ctx context.Context, user *models.MongoUser, text string) models.OutboundEffects {
	if text == ButtonOtherSubject {
		return models.OutboundEffects{reply(user.ID, msgEnterSubject, cancelMenu())}
	}
	if text == "" || utf8.RuneCountInString(text) > maxSubjectLength {
		return models.OutboundEffects{reply(user.ID, msgEnterSubject, cancelMenu())}
	}
	// menu subjects and custom names are stored the same way
	user.PendingSubject = text
	return e.transition(ctx, user, models.Awaiting(models.StepAwaitingGrade, user.Dialog.Mode), msgChooseGrade)
}

// ParseGrade accepts only a plain decimal integer from 1 to 11.
func ParseGrade(text string) (int, bool) {
	if text == "" || len(text) > 2 {
		return 0, false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	grade, err := strconv.Atoi(text)
	if err != nil || grade < 1 || grade > 11 {
		return 0, false
	}
	return grade, true
}

func (e *Engine) onGrade(ctx context.Context, user *models.MongoUser, text string) models.OutboundEffects {
	grade, ok := ParseGrade(text)
	if !ok {
		return models.OutboundEffects{reply(user.ID, msgInvalidGrade, gradeMenu())}
	}
	user.PendingGrade = strconv.Itoa(grade)

	mode := user.Dialog.Mode
	switch mode {
	case models.ModeAdvice:
		return e.transition(ctx, user, models.Awaiting(models.StepAwaitingProblemText, mode), msgEnterProblem)
	case models.ModeBulk:
		return e.transition(ctx, user, models.Awaiting(models.StepAwaitingBulkFile, mode), msgSendBulkFile)
	}
	return e.transition(ctx, user, models.Awaiting(models.StepAwaitingTopic, mode), msgEnterTopic)
}
