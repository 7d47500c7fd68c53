package redis

import (
	"context"
	"konspektbot/m/v2/app/models"
	"testing"

	"github.com/alicebob/miniredis/v2"
	r "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return r.NewClient(&r.Options{Addr: mr.Addr()}), mr
}

func TestLastRequestRoundTrip(t *testing.T) {
	ctx := context.Background()
	clients := map[string]Client{"mock": NewMockRedisClient()}
	clients["miniredis"], _ = setupTestRedis(t)

	for name, client := range clients {
		t.Run(name, func(t *testing.T) {
			request, err := GetLastRequest(ctx, client, "42")
			require.NoError(t, err)
			assert.Nil(t, request)

			saved := models.GenerationRequest{Subject: "Tarix", Grade: "7", Topic: "Renaissance", Mode: models.GenerationSummaryDocument}
			require.NoError(t, SaveLastRequest(ctx, client, "42", saved))

			request, err = GetLastRequest(ctx, client, "42")
			require.NoError(t, err)
			require.NotNil(t, request)
			assert.Equal(t, saved, *request)

			ClearLastRequest(ctx, client, "42")
			request, err = GetLastRequest(ctx, client, "42")
			require.NoError(t, err)
			assert.Nil(t, request)
		})
	}
}

func TestLastRequestExpires(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	require.NoError(t, SaveLastRequest(ctx, client, "42", models.GenerationRequest{Topic: "Kasrlar"}))
	mr.FastForward(LAST_REQUEST_TTL + 1)

	request, err := GetLastRequest(ctx, client, "42")
	require.NoError(t, err)
	assert.Nil(t, request)
}

func TestIncrGenerations(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	IncrGenerations(ctx, client, models.GenerationLessonPlan)
	IncrGenerations(ctx, client, models.GenerationSummaryDocument)

	assert.Equal(t, int64(2), GetGenerations(ctx, client))
	value, err := mr.Get(GENERATIONS_KEY + ":lesson-plan")
	require.NoError(t, err)
	assert.Equal(t, "1", value)

	mock := NewMockRedisClient()
	IncrGenerations(ctx, mock, models.GenerationAdvisoryText)
	assert.Equal(t, int64(1), GetGenerations(ctx, mock))
}
