// slack mirrors admin alerts into a channel
package slack

import (
	"context"
	"konspektbot/m/v2/app/config"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

const TIMEOUT = 10 * time.Second

type Bot struct {
	*slack.Client
	Channel string
}

func NewBot(cfg *config.Config, options ...slack.Option) *Bot {
	return &Bot{
		Client:  slack.New(cfg.SlackBotToken, options...),
		Channel: cfg.SlackAdminChannel,
	}
}

// Alert posts text to the admin channel. Failures are logged only, an alert
// never blocks the flow that raised it.
func (b *Bot) Alert(ctx context.Context, text string) {
	ctx, cancel := context.WithTimeout(ctx, TIMEOUT)
	defer cancel()

	_, _, err := b.PostMessageContext(ctx, b.Channel, slack.MsgOptionText(text, false))
	if err != nil {
		log.Errorf("Alert: failed to post to slack channel %s: %v", b.Channel, err)
		config.CONFIG.DataDogClient.Incr("slack.alert_failed", nil, 1)
		return
	}
	config.CONFIG.DataDogClient.Incr("slack.alert_sent", nil, 1)
}
