package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

const DIAGNOSTIC_LIMIT = 300

type Class string

const (
	ClassAuth             Class = "auth"
	ClassModelUnavailable Class = "model_unavailable"
	ClassRateLimited      Class = "rate_limited"
	ClassServerError      Class = "server_error"
	ClassOther            Class = "other"
)

func (c Class) Retryable() bool {
	return c == ClassRateLimited || c == ClassServerError
}

const (
	MessageGenerationFailed = "❌ Konspekt yaratishda xatolik yuz berdi. Birozdan so‘ng qayta urinib ko‘ring."
	// only sent after the admins have actually been alerted
	MessageMisconfigured = "⚠️ Xizmat vaqtincha ishlamayapti. Administrator xabardor qilindi."
)

func userMessage(class Class) string {
	if class == ClassAuth {
		return MessageMisconfigured
	}
	return MessageGenerationFailed
}

// GenerationError carries a message safe to show to the user and a
// diagnostic meant for logs only.
type GenerationError struct {
	Class       Class
	UserMessage string
	Diagnostic  string
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %s", e.Class, e.Diagnostic)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newGenerationError(class Class, err error) *GenerationError {
	diagnostic := ""
	if err != nil {
		diagnostic = truncate(err.Error(), DIAGNOSTIC_LIMIT)
	}
	return &GenerationError{
		Class:       class,
		UserMessage: userMessage(class),
		Diagnostic:  diagnostic,
		Err:         err,
	}
}

// UserMessage returns what the user should see for any error out of Generate.
func UserMessage(err error) string {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.UserMessage
	}
	return MessageGenerationFailed
}

// IsMisconfigured reports whether err means the service credentials were
// rejected, which no retry by the user can fix.
func IsMisconfigured(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Class == ClassAuth
}

func classify(err error) Class {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok {
			switch code {
			case "model_not_found":
				return ClassModelUnavailable
			case "insufficient_quota":
				return ClassOther
			}
		}
		return classifyStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassServerError
	}
	return ClassOther
}

func classifyStatus(status int) Class {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ClassAuth
	case status == http.StatusNotFound:
		return ClassModelUnavailable
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status == http.StatusRequestTimeout, status >= http.StatusInternalServerError:
		return ClassServerError
	}
	return ClassOther
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
