package status

import (
	"context"
	"encoding/json"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/db/mongo"
	"konspektbot/m/v2/app/db/redis"
	"konspektbot/m/v2/app/models"
	"konspektbot/m/v2/app/status"
	"os"
	"testing"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.CONFIG = &config.Config{DataDogClient: &statsd.NoOpClient{}}
	os.Exit(m.Run())
}

type staticChecker bool

func (c staticChecker) IsAvailable(ctx context.Context) bool {
	return bool(c)
}

type recordingAlerter struct {
	alerts []string
}

func (r *recordingAlerter) Alert(ctx context.Context, text string) {
	r.alerts = append(r.alerts, text)
}

type recordingDeliverer struct {
	effects models.OutboundEffects
}

func (r *recordingDeliverer) Deliver(effects models.OutboundEffects) {
	r.effects = append(r.effects, effects...)
}

func TestStatusIsCachedAndOutagesReported(t *testing.T) {
	store := mongo.NewMockMongoDBClient(models.MongoUser{ID: "1"}, models.MongoUser{ID: "2"})
	cache := redis.NewMockRedisClient()
	redis.IncrGenerations(context.Background(), cache, models.GenerationSummaryDocument)
	alerter := &recordingAlerter{}
	deliverer := &recordingDeliverer{}
	runner := &Runner{
		Admins:      []string{"100"},
		Alerter:     alerter,
		Cache:       cache,
		Deliverer:   deliverer,
		Handler:     status.New(store, cache, staticChecker(false)),
		Interval:    time.Minute,
		MainBotName: "konspektbot",
	}

	runner.Run(context.Background())

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, "🔥 konspektbot: OpenAI is down 🔥", alerter.alerts[0])
	require.Len(t, deliverer.effects, 1)
	assert.Equal(t, "100", deliverer.effects[0].Recipient)

	raw, err := cache.Get(context.Background(), STATUS_KEY).Result()
	require.NoError(t, err)
	var cached status.SystemStatus
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.True(t, cached.MongoDB.Available)
	assert.False(t, cached.OpenAI.Available)
	assert.Equal(t, int64(2), cached.Usage.TotalUsers)
	assert.Equal(t, int64(1), cached.Usage.TotalGenerations)
}

func TestStatusWithoutRedisIsNotCached(t *testing.T) {
	alerter := &recordingAlerter{}
	runner := &Runner{
		Alerter:     alerter,
		Handler:     status.New(mongo.NewMockMongoDBClient(), nil, staticChecker(true)),
		Interval:    time.Minute,
		MainBotName: "konspektbot",
	}

	runner.Run(context.Background())

	require.Len(t, alerter.alerts, 1)
	assert.Contains(t, alerter.alerts[0], "Redis is down")
}
