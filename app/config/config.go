package config

import (
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

var CONFIG *Config

const (
	DEFAULT_FREE_QUOTA                 = 3
	DEFAULT_BULK_TOPIC_LIMIT           = 5
	DEFAULT_PREVIEW_PERCENT            = 20
	DEFAULT_MAX_ATTEMPTS               = 3
	DEFAULT_BASE_BACKOFF               = time.Second
	DEFAULT_GENERATION_TIMEOUT         = 90 * time.Second
	DEFAULT_MAX_CONCURRENT_GENERATIONS = 4
	DEFAULT_PRIMARY_MODEL              = "gpt-4o-mini"
	DEFAULT_FALLBACK_MODEL             = "gpt-3.5-turbo"
	DEFAULT_TEMPERATURE                = 0.4
	DEFAULT_MAX_TOKENS                 = 1500
	DEFAULT_PENDING_TTL                = DEFAULT_GENERATION_TIMEOUT*DEFAULT_MAX_ATTEMPTS + 30*time.Second
)

type Config struct {
	AdminIDs                []string
	BackendBaseURL          string
	BotName                 string
	BulkTopicLimit          int
	CardNumber              string
	DataDogClient           statsd.ClientInterface
	DocumentsDir            string
	Environment             string
	FreeQuota               int
	Generation              Generation
	ListenAddress           string
	MongoDBConnection       string
	MongoDBName             string
	PendingReminderInterval time.Duration
	PremiumPrice            string
	PreviewPercent          int
	Redis                   Redis
	SlackAdminChannel       string
	SlackBotToken           string
	TelegramBotToken        string
}

type Generation struct {
	APIKey                   string
	BaseBackoff              time.Duration
	FallbackModel            string
	MaxAttempts              int
	MaxConcurrentGenerations int64
	MaxTokens                int
	PrimaryModel             string
	Temperature              float32
	Timeout                  time.Duration
}

type Redis struct {
	Host     string
	Port     string
	Password string
}
