package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"konspektbot/m/v2/app/models"
	"time"

	r "github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	LAST_REQUEST_TTL   = 30 * 24 * time.Hour
	GENERATIONS_KEY    = "system_totals:generations"
	lastRequestKeyTmpl = "%s:last_request"
)

func lastRequestKey(userID string) string {
	return fmt.Sprintf(lastRequestKeyTmpl, userID)
}

// SaveLastRequest remembers the most recent request a user got a preview for,
// so it can be delivered in full once the user is upgraded.
func SaveLastRequest(ctx context.Context, c Client, userID string, request models.GenerationRequest) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("SaveLastRequest: marshal: %w", err)
	}
	if err := c.Set(ctx, lastRequestKey(userID), string(data), LAST_REQUEST_TTL).Err(); err != nil {
		return fmt.Errorf("SaveLastRequest: %w", err)
	}
	return nil
}

// GetLastRequest returns nil without error when nothing was saved.
func GetLastRequest(ctx context.Context, c Client, userID string) (*models.GenerationRequest, error) {
	data, err := c.Get(ctx, lastRequestKey(userID)).Result()
	if errors.Is(err, r.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetLastRequest: %w", err)
	}
	var request models.GenerationRequest
	if err := json.Unmarshal([]byte(data), &request); err != nil {
		return nil, fmt.Errorf("GetLastRequest: unmarshal: %w", err)
	}
	return &request, nil
}

func ClearLastRequest(ctx context.Context, c Client, userID string) {
	if err := c.Del(ctx, lastRequestKey(userID)).Err(); err != nil {
		log.Warnf("ClearLastRequest: user %s: %v", userID, err)
	}
}

// IncrGenerations bumps the global and per-mode generation counters.
func IncrGenerations(ctx context.Context, c Client, mode models.GenerationMode) {
	if err := c.IncrBy(ctx, GENERATIONS_KEY, 1).Err(); err != nil {
		log.Warnf("IncrGenerations: %v", err)
	}
	if err := c.IncrBy(ctx, GENERATIONS_KEY+":"+string(mode), 1).Err(); err != nil {
		log.Warnf("IncrGenerations: %s: %v", mode, err)
	}
}

func GetGenerations(ctx context.Context, c Client) int64 {
	total, err := c.Get(ctx, GENERATIONS_KEY).Int64()
	if err != nil {
		return 0
	}
	return total
}
