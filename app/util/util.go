package util

import (
	"konspektbot/m/v2/app/config"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

func Env(name string, defaultValue ...string) string {
	value, ok := os.LookupEnv(name)
	if !ok && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	Assert(ok, "Environment variable "+name+" not found")
	return value
}

func EnvInt(name string, defaultValue int) int {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	Assert(err == nil, "Environment variable "+name+" is not an integer:", value)
	return parsed
}

func EnvFloat(name string, defaultValue float64) float64 {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	Assert(err == nil, "Environment variable "+name+" is not a number:", value)
	return parsed
}

// EnvList splits a comma separated variable, skipping blanks.
func EnvList(name string) []string {
	value, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func GetBotLoggerOption(cfg *config.Config) telego.BotOption {
	if cfg.Environment == "production" {
		return telego.WithDefaultLogger(false, true)
	}
	return telego.WithDefaultDebugLogger()
}

func Assert(ok bool, args ...any) {
	if !ok {
		log.Fatal("Assertion failed, killing app!!!", append([]any{"FATAL:"}, args...))
		os.Exit(1)
	}
}

// ChunkString splits s into pieces of at most chunkSize runes, preferring line
// boundaries, then word boundaries.
func ChunkString(s string, chunkSize int) []string {
	chunks := []string{}
	if s == "" || chunkSize <= 0 {
		return chunks
	}

	current := ""
	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}
	add := func(piece, separator string) {
		if current == "" {
			current = piece
			return
		}
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(separator)+utf8.RuneCountInString(piece) > chunkSize {
			flush()
			current = piece
			return
		}
		current += separator + piece
	}

	for _, line := range strings.Split(s, "\n") {
		if utf8.RuneCountInString(line) <= chunkSize {
			add(line, "\n")
			continue
		}
		flush()
		for _, word := range strings.Fields(line) {
			for utf8.RuneCountInString(word) > chunkSize {
				flush()
				runes := []rune(word)
				chunks = append(chunks, string(runes[:chunkSize]))
				word = string(runes[chunkSize:])
			}
			add(word, " ")
		}
		flush()
	}
	flush()
	return chunks
}
