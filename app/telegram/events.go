package telegram

import (
	"fmt"
	"konspektbot/m/v2/app/converters"
	"konspektbot/m/v2/app/dialog"
	"konspektbot/m/v2/app/models"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
)

const (
	CALLBACK_APPROVE = "approve_"
	CALLBACK_REJECT  = "reject_"
	CALLBACK_BLOCK   = "block_"
	CALLBACK_UNBLOCK = "unblock_"
)

// eventFromMessage maps a private message onto an engine event, the second
// value is the message kind used for metrics.
func eventFromMessage(message telego.Message) (any, string) {
	userID := fmt.Sprint(message.Chat.ID)
	username := ""
	if message.From != nil {
		username = message.From.Username
	}

	switch {
	case len(message.Photo) > 0:
		// sizes come in ascending order, keep the largest
		largest := message.Photo[len(message.Photo)-1]
		return models.PhotoEvent{UserID: userID, Username: username, FileHandle: largest.FileID}, "photo"
	case message.Document != nil:
		return models.FileEvent{
			UserID:       userID,
			Username:     username,
			FileHandle:   message.Document.FileID,
			FileName:     message.Document.FileName,
			DeclaredKind: documentKind(message.Document),
		}, "document"
	case strings.HasPrefix(message.Text, "/"):
		command, args := parseCommand(message.Text)
		return models.CommandEvent{UserID: userID, Username: username, Command: command, Args: args}, "command"
	case message.Text != "":
		if action, ok := dialog.ActionForText(message.Text); ok {
			return models.ActionEvent{UserID: userID, Username: username, Action: action}, "action"
		}
		return models.TextEvent{UserID: userID, Username: username, Text: message.Text}, "text"
	}
	return nil, ""
}

// parseCommand splits "/block@konspektbot 42" into "block" and ["42"].
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	command := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), fields[1:]
}

func documentKind(document *telego.Document) models.FileKind {
	if kind := converters.KindFromName(document.FileName); kind != models.FileKindOther {
		return kind
	}
	switch document.MimeType {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return models.FileKindXLSX
	case "text/csv", "text/comma-separated-values":
		return models.FileKindCSV
	}
	return models.FileKindOther
}

func eventFromCallback(callbackQuery telego.CallbackQuery) (any, error) {
	adminID := fmt.Sprint(callbackQuery.From.ID)
	data := callbackQuery.Data
	switch {
	case strings.HasPrefix(data, CALLBACK_APPROVE), strings.HasPrefix(data, CALLBACK_REJECT):
		outcome := models.OutcomeApprove
		raw := strings.TrimPrefix(data, CALLBACK_APPROVE)
		if strings.HasPrefix(data, CALLBACK_REJECT) {
			outcome = models.OutcomeReject
			raw = strings.TrimPrefix(data, CALLBACK_REJECT)
		}
		requestID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("eventFromCallback: bad payment id in %q: %w", data, err)
		}
		return models.AdminDecisionEvent{AdminID: adminID, RequestID: requestID, Outcome: outcome}, nil
	case strings.HasPrefix(data, CALLBACK_UNBLOCK):
		return models.AdminBlockEvent{AdminID: adminID, TargetUserID: strings.TrimPrefix(data, CALLBACK_UNBLOCK), Blocked: false}, nil
	case strings.HasPrefix(data, CALLBACK_BLOCK):
		return models.AdminBlockEvent{AdminID: adminID, TargetUserID: strings.TrimPrefix(data, CALLBACK_BLOCK), Blocked: true}, nil
	}
	return nil, fmt.Errorf("eventFromCallback: unknown callback data %q", data)
}

func callbackAction(data string) string {
	if i := strings.Index(data, "_"); i > 0 {
		return data[:i]
	}
	return "unknown"
}
