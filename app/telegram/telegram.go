// telegram adapter: turns updates into engine events and delivers the effects
package telegram

import (
	"context"
	"fmt"
	"io"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/models"
	"konspektbot/m/v2/app/util"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const (
	DISPATCH_TIMEOUT = 5 * time.Minute
	FILE_URL_FORMAT  = "https://api.telegram.org/file/bot%s/%s"
)

// Dispatcher is the dialog engine as seen by the transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, event any) models.OutboundEffects
}

type Bot struct {
	*telego.Bot
	*th.BotHandler
	Name       string
	dispatcher Dispatcher
	fileURL    string
	httpClient *http.Client
	webhook    bool
}

// NewBot creates the bot without subscribing to updates, the engine needs
// the bot as its file fetcher before Start can hand updates to it.
func NewBot(cfg *config.Config) (*Bot, error) {
	bot, err := telego.NewBot(cfg.TelegramBotToken, telego.WithHealthCheck(), util.GetBotLoggerOption(cfg))
	if err != nil {
		return nil, fmt.Errorf("NewBot: failed to create bot: %w", err)
	}

	botInfo, err := bot.GetMe()
	if err != nil {
		return nil, fmt.Errorf("NewBot: failed to get bot info: %w", err)
	}
	log.Infof("Bot info: %+v", botInfo)
	cfg.BotName = botInfo.Username

	return &Bot{
		Bot:        bot,
		Name:       cfg.BotName,
		fileURL:    FILE_URL_FORMAT,
		httpClient: &http.Client{Timeout: time.Minute},
	}, nil
}

// Start subscribes for updates, through the webhook when BACKEND_BASE_URL is
// configured and through long polling otherwise.
func (b *Bot) Start(rtr *router.Router, cfg *config.Config, dispatcher Dispatcher) error {
	b.dispatcher = dispatcher
	updates, err := b.signBotForUpdates(rtr, cfg)
	if err != nil {
		return fmt.Errorf("Start: failed to sign bot for updates: %w", err)
	}
	bh, err := th.NewBotHandler(b.Bot, updates, th.WithStopTimeout(time.Second*10))
	if err != nil {
		return fmt.Errorf("Start: failed to setup bot handler: %w", err)
	}
	bh.HandleMessage(b.handleMessage)
	bh.HandleCallbackQuery(b.handleCallbackQuery)
	b.BotHandler = bh
	go bh.Start()
	return nil
}

func (b *Bot) signBotForUpdates(rtr *router.Router, cfg *config.Config) (<-chan telego.Update, error) {
	if cfg.BackendBaseURL == "" {
		log.Info("BACKEND_BASE_URL is empty, using long polling")
		return b.UpdatesViaLongPolling(nil)
	}
	b.webhook = true
	return b.UpdatesViaWebhook(
		"/bot"+b.Token(),
		telego.WithWebhookSet(&telego.SetWebhookParams{
			URL:            cfg.BackendBaseURL + "/bot" + b.Token(),
			AllowedUpdates: []string{"message", "callback_query"},
		}),
		telego.WithWebhookServer(telego.FastHTTPWebhookServer{
			Logger: log.StandardLogger(),
			Server: &fasthttp.Server{},
			Router: rtr,
		}),
	)
}

// Serve listens on address. In webhook mode the webhook server owns the
// router, otherwise the router is served directly.
func (b *Bot) Serve(address string, rtr *router.Router) error {
	if b.webhook {
		return b.StartWebhook(address)
	}
	return fasthttp.ListenAndServe(address, rtr.Handler)
}

func (b *Bot) Shutdown() {
	if b.BotHandler != nil {
		b.BotHandler.Stop()
	}
	if b.webhook {
		b.StopWebhook()
		return
	}
	b.StopLongPolling()
}

func (b *Bot) handleMessage(bot *telego.Bot, message telego.Message) {
	if message.Chat.Type != telego.ChatTypePrivate {
		log.Infof("handleMessage: ignoring message in non-private chat %d", message.Chat.ID)
		config.CONFIG.DataDogClient.Incr("telegram.ignored_message", []string{"channel_type:" + message.Chat.Type}, 1)
		return
	}

	event, kind := eventFromMessage(message)
	if event == nil {
		log.Infof("handleMessage: unsupported message %d in chat %d", message.MessageID, message.Chat.ID)
		config.CONFIG.DataDogClient.Incr("telegram.unsupported_message", nil, 1)
		return
	}
	config.CONFIG.DataDogClient.Incr("telegram.message_received", []string{"type:" + kind}, 1)

	sendTypingAction(bot, message.Chat.ID)
	b.dispatch(event)
}

func (b *Bot) handleCallbackQuery(bot *telego.Bot, callbackQuery telego.CallbackQuery) {
	log.Infof("Received callback query: %s, from user: %d", callbackQuery.Data, callbackQuery.From.ID)
	config.CONFIG.DataDogClient.Incr("telegram.callback_query", []string{"action:" + callbackAction(callbackQuery.Data)}, 1)

	event, err := eventFromCallback(callbackQuery)
	if err != nil {
		log.Errorf("handleCallbackQuery: %v", err)
		answerCallbackQuery(bot, callbackQuery.ID, "Noma'lum amal")
		return
	}
	answerCallbackQuery(bot, callbackQuery.ID, "Qabul qilindi")
	b.dispatch(event)
}

func (b *Bot) dispatch(event any) {
	ctx, cancel := context.WithTimeout(context.Background(), DISPATCH_TIMEOUT)
	defer cancel()
	b.Deliver(b.dispatcher.Dispatch(ctx, event))
}

// Open downloads an uploaded file by its telegram file id.
func (b *Bot) Open(ctx context.Context, fileHandle string) (io.ReadCloser, error) {
	fileData, err := b.GetFile(&telego.GetFileParams{FileID: fileHandle})
	if err != nil {
		return nil, fmt.Errorf("Open: failed to get file data: %w", err)
	}
	log.Debugf("Open: file data: %+v", fileData)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(b.fileURL, b.Token(), fileData.FilePath), nil)
	if err != nil {
		return nil, fmt.Errorf("Open: failed to build request: %w", err)
	}
	response, err := b.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("Open: failed to download file: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		return nil, fmt.Errorf("Open: unexpected status %d downloading file", response.StatusCode)
	}
	return response.Body, nil
}

func sendTypingAction(bot *telego.Bot, chatID int64) {
	err := bot.SendChatAction(&telego.SendChatActionParams{ChatID: telego.ChatID{ID: chatID}, Action: telego.ChatActionTyping})
	if err != nil {
		log.Errorf("Failed to send chat action: %v", err)
	}
}

func answerCallbackQuery(bot *telego.Bot, callbackQueryID string, text string) {
	err := bot.AnswerCallbackQuery(&telego.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	})
	if err != nil {
		log.Errorf("Failed to answer callback query: %v", err)
	}
}

// NewStubBot creates a bot whose API calls all go through transport.
func NewStubBot(cfg *config.Config, transport http.RoundTripper) *Bot {
	client := &http.Client{Transport: transport}
	stubBot, err := telego.NewBot(generateStubToken(), telego.WithHTTPClient(client), util.GetBotLoggerOption(cfg))
	if err != nil {
		log.Fatalf("Failed to create stub bot: %v", err)
	}
	return &Bot{
		Bot:        stubBot,
		Name:       "stub",
		fileURL:    FILE_URL_FORMAT,
		httpClient: client,
	}
}

// stub token that matches the pattern ^\d{9,10}:[\w-]{35}$
func generateStubToken() string {
	const digits = "0123456789"
	const alphaNum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

	tokenBuilder := strings.Builder{}
	for i := 0; i < 9; i++ {
		tokenBuilder.WriteByte(digits[rand.Intn(len(digits))])
	}
	tokenBuilder.WriteString(":")
	for i := 0; i < 35; i++ {
		tokenBuilder.WriteByte(alphaNum[rand.Intn(len(alphaNum))])
	}
	return tokenBuilder.String()
}
