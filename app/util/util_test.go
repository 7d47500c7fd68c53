package util

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkString(t *testing.T) {
	tests := []struct {
		name      string
		s         string
		chunkSize int
		want      []string
	}{
		{
			name:      "Empty",
			s:         "",
			chunkSize: 10,
			want:      []string{},
		},
		{
			name:      "Fits",
			s:         "1. Mavzu\n2. Maqsad",
			chunkSize: 100,
			want:      []string{"1. Mavzu\n2. Maqsad"},
		},
		{
			name:      "Lines packed",
			s:         "aaaa\nbbbb\ncccc",
			chunkSize: 9,
			want:      []string{"aaaa\nbbbb", "cccc"},
		},
		{
			name:      "Long line split by words",
			s:         "This is a long line that will be split by words",
			chunkSize: 10,
			want:      []string{"This is a", "long line", "that will", "be split", "by words"},
		},
		{
			name:      "Long word split by runes",
			s:         "o‘quvchilarimizga",
			chunkSize: 5,
			want:      []string{"o‘quv", "chila", "rimiz", "ga"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChunkString(tt.s, tt.chunkSize))
		})
	}
}

func TestChunkStringKeepsEverything(t *testing.T) {
	text := strings.Repeat("Fotosintez yashil o‘simliklarda boradi.\n", 300)
	chunks := ChunkString(text, 4096)
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 4096)
	}
	assert.Equal(t, strings.Count(text, "Fotosintez"), strings.Count(strings.Join(chunks, "\n"), "Fotosintez"))
}

func TestEnvList(t *testing.T) {
	os.Setenv("TEST_ADMIN_IDS", " 1, 2,,3 ")
	defer os.Unsetenv("TEST_ADMIN_IDS")
	assert.Equal(t, []string{"1", "2", "3"}, EnvList("TEST_ADMIN_IDS"))
	assert.Nil(t, EnvList("TEST_ADMIN_IDS_MISSING"))
}

func TestEnvIntDefault(t *testing.T) {
	assert.Equal(t, 3, EnvInt("TEST_FREE_QUOTA_MISSING", 3))
	os.Setenv("TEST_FREE_QUOTA", "5")
	defer os.Unsetenv("TEST_FREE_QUOTA")
	assert.Equal(t, 5, EnvInt("TEST_FREE_QUOTA", 3))
}
