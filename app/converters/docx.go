package converters

import (
	"fmt"
	"konspektbot/m/v2/app/models"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DocumentMeta is what ends up in the exported file's name.
type DocumentMeta struct {
	UserID  string
	Subject string
	Topic   string
	Mode    models.GenerationMode
}

type Renderer interface {
	Render(text string, title string, meta DocumentMeta) (string, error)
	Exists(handle string) bool
}

// DocxRenderer writes .docx files into a directory and returns the file path
// as the document handle.
type DocxRenderer struct {
	dir string
}

func NewDocxRenderer(dir string) *DocxRenderer {
	return &DocxRenderer{dir: dir}
}

var (
	unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\- ]+`)
	numberedHeading = regexp.MustCompile(`^\d+[\.\)]\s`)
	headingPrefixes = []string{"Mavzu", "Maqsad", "Kutilayotgan", "Jihoz", "Asosiy", "Yangi mavzu", "Qo‘shimcha", "Baholash", "Uyga vazifa", "Darsning"}
)

func SanitizeFileName(text string, fallback string) string {
	safe := strings.TrimSpace(unsafeNameChars.ReplaceAllString(text, ""))
	safe = strings.ReplaceAll(safe, " ", "_")
	if safe == "" {
		return fallback
	}
	if runes := []rune(safe); len(runes) > 50 {
		safe = string(runes[:50])
	}
	return safe
}

func (r *DocxRenderer) fileName(meta DocumentMeta) string {
	topic := "Kop_mavzular"
	if !strings.Contains(meta.Topic, "\n") && len([]rune(meta.Topic)) <= 50 {
		topic = SanitizeFileName(meta.Topic, "mavzu")
	}
	return fmt.Sprintf("%s_%s_%s_%s_%s.docx",
		meta.UserID,
		SanitizeFileName(meta.Subject, "fan"),
		topic,
		meta.Mode,
		uuid.New().String()[:8],
	)
}

func (r *DocxRenderer) Render(text string, title string, meta DocumentMeta) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("Render: create %s: %w", r.dir, err)
	}
	path := filepath.Join(r.dir, r.fileName(meta))
	if err := writeDocx(path, text, title); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("Render: %w", err)
	}
	log.Infof("Render: wrote %s", path)
	return path, nil
}

func (r *DocxRenderer) Exists(handle string) bool {
	info, err := os.Stat(handle)
	return err == nil && !info.IsDir()
}

// writeDocx saves the title as the document title, section headings as
// level 2 headings and every other line as a plain paragraph.
func writeDocx(path string, text string, title string) error {
	document, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("writeDocx: new document: %w", err)
	}
	if title != "" {
		if _, err := document.AddHeading(title, 0); err != nil {
			return fmt.Errorf("writeDocx: title: %w", err)
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if !IsHeading(line) {
			document.AddParagraph(line)
			continue
		}
		if _, err := document.AddHeading(line, 2); err != nil {
			return fmt.Errorf("writeDocx: heading %q: %w", line, err)
		}
	}
	if err := document.SaveTo(path); err != nil {
		return fmt.Errorf("writeDocx: save %s: %w", path, err)
	}
	return nil
}

func IsHeading(line string) bool {
	if line == "" {
		return false
	}
	if numberedHeading.MatchString(line) || strings.HasSuffix(line, ":") {
		return true
	}
	for _, prefix := range headingPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
