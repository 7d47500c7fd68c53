package telegram

import (
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/models"
	"konspektbot/m/v2/app/util"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

const (
	MESSAGE_CHUNK_SIZE = 4000
	CAPTION_LIMIT      = 1024
)

// Deliver sends effects in order. A failed effect is logged and skipped so
// the rest still reach their recipients.
func (b *Bot) Deliver(effects models.OutboundEffects) {
	for _, effect := range effects {
		chatID, err := strconv.ParseInt(effect.Recipient, 10, 64)
		if err != nil {
			log.Errorf("Deliver: bad recipient %q: %v", effect.Recipient, err)
			continue
		}
		if effect.Attachment != nil {
			b.sendAttachment(tu.ID(chatID), effect)
		} else {
			b.sendText(tu.ID(chatID), effect.Content, replyMarkup(effect.Markup))
		}
	}
}

func (b *Bot) sendText(chatID telego.ChatID, text string, markup telego.ReplyMarkup) {
	chunks := util.ChunkString(text, MESSAGE_CHUNK_SIZE)
	for i, chunk := range chunks {
		params := tu.Message(chatID, chunk)
		if i == len(chunks)-1 && markup != nil {
			params = params.WithReplyMarkup(markup)
		}
		_, err := b.SendMessage(params)
		if err != nil {
			log.Errorf("sendText: failed to send message to %d: %v", chatID.ID, err)
			config.CONFIG.DataDogClient.Incr("telegram.send_failed", []string{"type:text"}, 1)
			return
		}
	}
}

func (b *Bot) sendAttachment(chatID telego.ChatID, effect models.Effect) {
	markup := replyMarkup(effect.Markup)
	caption := effect.Content
	overflow := ""
	if utf8.RuneCountInString(caption) > CAPTION_LIMIT {
		caption, overflow = "", caption
	}
	// an overflowing caption goes out as text, which then carries the markup
	attachmentMarkup := markup
	if overflow != "" {
		attachmentMarkup = nil
	}

	var err error
	switch effect.Attachment.Kind {
	case models.AttachmentPhoto:
		params := tu.Photo(chatID, tu.FileFromID(effect.Attachment.Handle)).WithCaption(caption)
		if attachmentMarkup != nil {
			params = params.WithReplyMarkup(attachmentMarkup)
		}
		_, err = b.SendPhoto(params)
	default:
		file, closeFile := documentFile(effect.Attachment.Handle)
		params := tu.Document(chatID, file).WithCaption(caption)
		if attachmentMarkup != nil {
			params = params.WithReplyMarkup(attachmentMarkup)
		}
		_, err = b.SendDocument(params)
		closeFile()
	}
	if err != nil {
		log.Errorf("sendAttachment: failed to send %s to %d: %v", effect.Attachment.Kind, chatID.ID, err)
		config.CONFIG.DataDogClient.Incr("telegram.send_failed", []string{"type:" + string(effect.Attachment.Kind)}, 1)
		return
	}
	if overflow != "" {
		b.sendText(chatID, overflow, markup)
	}
}

// documentFile uploads local files and treats anything else as a telegram
// file id.
func documentFile(handle string) (telego.InputFile, func()) {
	file, err := os.Open(handle)
	if err != nil {
		return tu.FileFromID(handle), func() {}
	}
	return tu.File(file), func() {
		if err := file.Close(); err != nil {
			log.Errorf("documentFile: failed to close %s: %v", handle, err)
		}
	}
}

func replyMarkup(markup *models.Markup) telego.ReplyMarkup {
	switch {
	case markup == nil:
		return nil
	case markup.RemoveKeyboard:
		return tu.ReplyKeyboardRemove()
	case len(markup.Inline) > 0:
		rows := make([][]telego.InlineKeyboardButton, 0, len(markup.Inline))
		for _, row := range markup.Inline {
			buttons := make([]telego.InlineKeyboardButton, 0, len(row))
			for _, button := range row {
				inline := tu.InlineKeyboardButton(button.Text)
				if button.URL != "" {
					inline = inline.WithURL(button.URL)
				} else {
					inline = inline.WithCallbackData(button.Data)
				}
				buttons = append(buttons, inline)
			}
			rows = append(rows, tu.InlineKeyboardRow(buttons...))
		}
		return tu.InlineKeyboard(rows...)
	case len(markup.Keyboard) > 0:
		rows := make([][]telego.KeyboardButton, 0, len(markup.Keyboard))
		for _, row := range markup.Keyboard {
			buttons := make([]telego.KeyboardButton, 0, len(row))
			for _, text := range row {
				buttons = append(buttons, tu.KeyboardButton(text))
			}
			rows = append(rows, tu.KeyboardRow(buttons...))
		}
		return tu.Keyboard(rows...).WithResizeKeyboard()
	}
	return nil
}
