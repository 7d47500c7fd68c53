package converters

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"konspektbot/m/v2/app/models"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoTopicColumn   = errors.New("topic column not found")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

var topicHeaders = map[string]bool{
	"mavzu":    true,
	"mavzular": true,
	"topic":    true,
	"topics":   true,
	"тема":     true,
	"темы":     true,
}

// KindFromName guesses the structured file kind from its extension.
func KindFromName(name string) models.FileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return models.FileKindXLSX
	case ".csv":
		return models.FileKindCSV
	}
	return models.FileKindOther
}

// ParseTopics reads the topic column of the first sheet (or the csv body) and
// returns its non-empty cells in order.
func ParseTopics(r io.Reader, kind models.FileKind) ([]string, error) {
	var rows [][]string
	switch kind {
	case models.FileKindXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("ParseTopics: open xlsx: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoTopicColumn
		}
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("ParseTopics: read sheet %s: %w", sheets[0], err)
		}
	case models.FileKindCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		var err error
		rows, err = reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("ParseTopics: read csv: %w", err)
		}
	default:
		return nil, ErrUnsupportedFile
	}
	return topicColumn(rows)
}

func topicColumn(rows [][]string) ([]string, error) {
	if len(rows) == 0 {
		return nil, ErrNoTopicColumn
	}
	column := -1
	for i, cell := range rows[0] {
		header := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		if topicHeaders[header] {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, ErrNoTopicColumn
	}

	topics := []string{}
	for _, row := range rows[1:] {
		if column >= len(row) {
			continue
		}
		if topic := strings.TrimSpace(row[column]); topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics, nil
}
