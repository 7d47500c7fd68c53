package lib

import "strings"

// Preview keeps the first percent of the text's lines, never less than one line.
func Preview(text string, percent int) string {
	lines := strings.Split(strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), "\n")
	n := len(lines) * percent / 100
	if n < 1 {
		n = 1
	}
	if n > len(lines) {
		n = len(lines)
	}
	return strings.Join(lines[:n], "\n")
}
