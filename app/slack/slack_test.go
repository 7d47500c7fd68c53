package slack

import (
	"context"
	"io"
	"konspektbot/m/v2/app/config"
	"konspektbot/m/v2/app/models"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.CONFIG = &config.Config{DataDogClient: &statsd.NoOpClient{}}
	os.Exit(m.Run())
}

func stubBot(t *testing.T, status int, response string) (*Bot, *url.Values) {
	posted := &url.Values{}
	client := &http.Client{Transport: models.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		values, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		*posted = values
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(response)),
		}, nil
	})}
	cfg := &config.Config{SlackBotToken: "xoxb-test", SlackAdminChannel: "C0PAYMENTS"}
	return NewBot(cfg, slack.OptionHTTPClient(client)), posted
}

func TestAlertPostsToAdminChannel(t *testing.T) {
	bot, posted := stubBot(t, http.StatusOK, `{"ok": true, "channel": "C0PAYMENTS", "ts": "1700000000.000100"}`)

	bot.Alert(context.Background(), "Yangi to'lov #3 foydalanuvchi 42 dan")

	assert.Equal(t, "C0PAYMENTS", posted.Get("channel"))
	assert.Equal(t, "Yangi to'lov #3 foydalanuvchi 42 dan", posted.Get("text"))
}

func TestAlertSwallowsSlackErrors(t *testing.T) {
	bot, posted := stubBot(t, http.StatusOK, `{"ok": false, "error": "channel_not_found"}`)

	assert.NotPanics(t, func() {
		bot.Alert(context.Background(), "reminder")
	})
	assert.Equal(t, "reminder", posted.Get("text"))
}
