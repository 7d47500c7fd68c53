package main

import (
	"context"
	"fmt"
	"konspektbot/m/v2/app/ai"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/converters"
	"konspektbot/m/v2/app/db/mongo"
	"konspektbot/m/v2/app/db/redis"
	"konspektbot/m/v2/app/dialog"
	"konspektbot/m/v2/app/lib"
	"konspektbot/m/v2/app/payments"
	"konspektbot/m/v2/app/slack"
	"konspektbot/m/v2/app/status"
	"konspektbot/m/v2/app/telegram"
	"konspektbot/m/v2/app/util"
	"konspektbot/m/v2/app/workers"
	"konspektbot/m/v2/app/workers/pendingpayments"
	statusworker "konspektbot/m/v2/app/workers/status"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

func main() {
	done := make(chan struct{}, 1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	if err := godotenv.Load(); err != nil {
		log.Infof("no .env file loaded: %v", err)
	}

	env := util.Env("ENV", "dev")
	dataDogClient, err := statsd.New(util.Env("DATADOG_ADDRESS", "datadog-agent.default.svc.cluster.local:8125"), statsd.WithNamespace("konspektbot."))
	if err != nil {
		if env == "production" {
			log.Fatalf("error creating main DataDog client: %v", err)
		}
		log.Warnf("DataDog client unavailable, metrics are disabled: %v", err)
	}

	config.CONFIG = &config.Config{
		AdminIDs:       util.EnvList("ADMIN_IDS"),
		BackendBaseURL: util.Env("BACKEND_BASE_URL", ""),
		BulkTopicLimit: util.EnvInt("BULK_TOPIC_LIMIT", config.DEFAULT_BULK_TOPIC_LIMIT),
		CardNumber:     util.Env("CARD_NUMBER"),
		DataDogClient:  dataDogClient,
		DocumentsDir:   util.Env("DOCUMENTS_DIR", "/data/documents"),
		Environment:    env,
		FreeQuota:      util.EnvInt("FREE_QUOTA", config.DEFAULT_FREE_QUOTA),
		Generation: config.Generation{
			APIKey:                   util.Env("OPENAI_API_KEY"),
			BaseBackoff:              config.DEFAULT_BASE_BACKOFF,
			FallbackModel:            util.Env("FALLBACK_MODEL", config.DEFAULT_FALLBACK_MODEL),
			MaxAttempts:              config.DEFAULT_MAX_ATTEMPTS,
			MaxConcurrentGenerations: config.DEFAULT_MAX_CONCURRENT_GENERATIONS,
			MaxTokens:                util.EnvInt("MAX_TOKENS", config.DEFAULT_MAX_TOKENS),
			PrimaryModel:             util.Env("PRIMARY_MODEL", config.DEFAULT_PRIMARY_MODEL),
			Temperature:              float32(util.EnvFloat("TEMPERATURE", config.DEFAULT_TEMPERATURE)),
			Timeout:                  config.DEFAULT_GENERATION_TIMEOUT,
		},
		ListenAddress:           util.Env("BACKEND_LISTEN_ADDRESS", ":8080"),
		MongoDBConnection:       util.Env("MONGO_DB_CONNECTION_STRING"),
		MongoDBName:             util.Env("MONGO_DB_NAME", "konspektbot"),
		PendingReminderInterval: 30 * time.Minute,
		PremiumPrice:            util.Env("PREMIUM_PRICE", "50 000 so'm"),
		PreviewPercent:          config.DEFAULT_PREVIEW_PERCENT,
		Redis: config.Redis{
			Host:     util.Env("REDIS_HOST"),
			Port:     "6379",
			Password: util.Env("REDIS_PASSWORD", ""),
		},
		SlackAdminChannel: util.Env("SLACK_ADMIN_CHANNEL", ""),
		SlackBotToken:     util.Env("SLACK_BOT_TOKEN", ""),
		TelegramBotToken:  util.Env("TELEGRAM_BOT_TOKEN"),
	}
	if dataDogClient == nil {
		config.CONFIG.DataDogClient = &statsd.NoOpClient{}
	}

	err = config.CONFIG.DataDogClient.Count("main.start", 1, []string{"env:" + config.CONFIG.Environment}, 1)
	if err != nil {
		log.Errorf("error sending metric: %v", err)
	}
	if config.CONFIG.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{
			DisableTimestamp: true,
		})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
			DisableColors: false,
		})
		log.SetLevel(log.TraceLevel)
	}

	redis.RedisClient = redis.NewClient(config.CONFIG.Redis)
	mongo.MongoDBClient = mongo.NewClient(config.CONFIG.MongoDBConnection, config.CONFIG.MongoDBName)

	err = os.MkdirAll(config.CONFIG.DocumentsDir, 0o755)
	util.Assert(err == nil, "Documents dir:", err)

	telegramBot, err := telegram.NewBot(config.CONFIG)
	if err != nil {
		log.Fatalf("ERROR creating bot: %v", err)
	}

	var alerter payments.Alerter
	if config.CONFIG.SlackBotToken != "" {
		alerter = slack.NewBot(config.CONFIG)
	}

	admins := lib.NewAdminSet(config.CONFIG.AdminIDs)
	locks := lib.NewUserLocks()
	invoker := ai.NewInvoker(ai.NewOpenAIClient(config.CONFIG.Generation.APIKey), config.CONFIG.Generation)
	workflow := payments.NewWorkflow(mongo.MongoDBClient, locks, admins, config.CONFIG.FreeQuota, alerter)
	engine := dialog.NewEngine(dialog.Options{
		Admins:    admins,
		Alerter:   alerter,
		Cache:     redis.RedisClient,
		Files:     telegramBot,
		Gate:      lib.NewGate(mongo.MongoDBClient, locks, config.CONFIG.FreeQuota),
		Generator: invoker,
		Locks:     locks,
		Payments:  workflow,
		Renderer:  converters.NewDocxRenderer(config.CONFIG.DocumentsDir),
		Settings: dialog.Settings{
			BulkTopicLimit: config.CONFIG.BulkTopicLimit,
			CardNumber:     config.CONFIG.CardNumber,
			PendingTTL:     config.CONFIG.Generation.Timeout*time.Duration(config.CONFIG.Generation.MaxAttempts) + 30*time.Second,
			PremiumPrice:   config.CONFIG.PremiumPrice,
			PreviewPercent: config.CONFIG.PreviewPercent,
		},
		Store: mongo.MongoDBClient,
	})

	rtr := router.New()
	rtr.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		_, _ = ctx.WriteString("📚 konspektbot is up")
	})

	err = telegramBot.Start(rtr, config.CONFIG, engine)
	if err != nil {
		log.Fatalf("ERROR starting bot: %v", err)
	}

	statusRunner := &statusworker.Runner{
		Admins:      workflow.Admins(),
		Alerter:     alerter,
		Cache:       redis.RedisClient,
		Deliverer:   telegramBot,
		Handler:     status.New(mongo.MongoDBClient, redis.RedisClient, invoker),
		Interval:    10 * time.Minute,
		MainBotName: config.CONFIG.BotName,
	}
	statusWorker := workers.NewWorker(config.CONFIG, "status", statusRunner.Interval, statusRunner.Run)
	go statusWorker.Start()

	pendingRunner := &pendingpayments.Runner{
		Alerter:   alerter,
		Deliverer: telegramBot,
		Workflow:  workflow,
	}
	pendingWorker := workers.NewWorker(config.CONFIG, "pendingpayments", config.CONFIG.PendingReminderInterval, pendingRunner.Run)
	go pendingWorker.Start()

	go TearDown(sigs, done, telegramBot, statusWorker, pendingWorker)

	go func() {
		err := telegramBot.Serve(config.CONFIG.ListenAddress, rtr)
		util.Assert(err == nil, "ListenAndServe:", err)
	}()

	startMessage := fmt.Sprintf("🤖 %s started successfully 🚀 inside %s", config.CONFIG.BotName, util.Env("POD_NAME", "unknown"))
	if alerter != nil {
		alerter.Alert(context.Background(), startMessage)
	}
	log.Info(startMessage)

	<-done
	log.Info("Done")
}

func TearDown(sigs chan os.Signal, done chan struct{}, telegramBot *telegram.Bot, stoppable ...*workers.Worker) {
	<-sigs
	log.Infof("🤖 %s bids farewell ❌ inside %s", config.CONFIG.BotName, util.Env("POD_NAME", "unknown"))
	for _, worker := range stoppable {
		worker.StopWorker()
	}
	telegramBot.Shutdown()

	err := mongo.MongoDBClient.Disconnect(context.Background())
	if err != nil {
		log.Errorf("TearDown: Disconnecting from MongoDB: %v", err)
	}
	done <- struct{}{}
}
