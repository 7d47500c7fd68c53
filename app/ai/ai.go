// package to generate educational documents with the OpenAI chat API
package ai

import (
	"context"
	"errors"
	"fmt"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/models"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"gopkg.in/cenkalti/backoff.v1"
)

// Completer is the part of the go-openai client the invoker needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type SleepFunc func(ctx context.Context, d time.Duration) error

type Invoker struct {
	client Completer
	cfg    config.Generation
	sem    *semaphore.Weighted
	sleep  SleepFunc
}

func NewOpenAIClient(apiKey string) *openai.Client {
	return openai.NewClient(apiKey)
}

func NewInvoker(client Completer, cfg config.Generation) *Invoker {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = config.DEFAULT_MAX_ATTEMPTS
	}
	if cfg.MaxConcurrentGenerations < 1 {
		cfg.MaxConcurrentGenerations = config.DEFAULT_MAX_CONCURRENT_GENERATIONS
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DEFAULT_GENERATION_TIMEOUT
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = config.DEFAULT_BASE_BACKOFF
	}
	return &Invoker{
		client: client,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrentGenerations),
		sleep:  sleepContext,
	}
}

// WithSleep replaces the backoff sleeper, tests use it to record delays.
func (a *Invoker) WithSleep(sleep SleepFunc) *Invoker {
	a.sleep = sleep
	return a
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Invoker) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.BaseBackoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Generate produces normalized text for the request. Rate limits and server
// errors are retried with exponential backoff, an unavailable model is
// swapped for the fallback once. Both count against MaxAttempts. Every returned error is a *GenerationError.
func (a *Invoker) Generate(ctx context.Context, request models.GenerationRequest) (string, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", newGenerationError(ClassServerError, fmt.Errorf("Generate: waiting for a free slot: %w", err))
	}
	defer a.sem.Release(1)

	messages := BuildMessages(request)
	model := a.cfg.PrimaryModel
	substituted := false
	schedule := a.newBackOff()

	for attempt := 1; ; {
		text, err := a.complete(ctx, model, messages)
		if err == nil {
			config.CONFIG.DataDogClient.Incr("generation.outcome", []string{"class:ok", "model:" + model}, 1)
			return NormalizeText(text), nil
		}

		class := classify(err)
		log.Warnf("Generate: attempt %d with %s for %s failed (%s): %v", attempt, model, request.Mode, class, err)

		switch {
		case class == ClassModelUnavailable && !substituted && a.cfg.FallbackModel != "" && a.cfg.FallbackModel != model && attempt < a.cfg.MaxAttempts:
			// the substitution uses up an attempt but skips the backoff
			log.Infof("Generate: model %s unavailable, switching to %s", model, a.cfg.FallbackModel)
			model = a.cfg.FallbackModel
			substituted = true
			attempt++
			continue
		case class.Retryable() && attempt < a.cfg.MaxAttempts && ctx.Err() == nil:
			delay := schedule.NextBackOff()
			if sleepErr := a.sleep(ctx, delay); sleepErr != nil {
				return "", a.fail(ClassServerError, err)
			}
			attempt++
			continue
		}
		return "", a.fail(class, err)
	}
}

func (a *Invoker) fail(class Class, err error) error {
	config.CONFIG.DataDogClient.Incr("generation.outcome", []string{"class:" + string(class)}, 1)
	return newGenerationError(class, err)
}

func (a *Invoker) complete(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	config.CONFIG.DataDogClient.Incr("generation.attempt", []string{"model:" + model}, 1)
	start := time.Now()
	resp, err := a.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	config.CONFIG.DataDogClient.Timing("generation.latency", time.Since(start), []string{"model:" + model}, 1)
	if err != nil {
		if callCtx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices in chat completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// IsAvailable checks whether the primary model answers at all.
func (a *Invoker) IsAvailable(ctx context.Context) bool {
	if a.cfg.APIKey == "" {
		log.Errorf("PING: OpenAI API key is not set")
		return false
	}
	_, err := a.complete(ctx, a.cfg.PrimaryModel, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "Reply only \"OK\" or \"Not OK\""},
		{Role: openai.ChatMessageRoleUser, Content: "test"},
	})
	if err != nil {
		log.Errorf("PING: OpenAI API error: %+v", err)
		return false
	}
	return true
}
