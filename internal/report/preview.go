// Package report turns the security report artifact into the preview shown
// alongside a completed replay.
package report

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPreviewChars caps the report text kept for preview.
	MaxPreviewChars = 12000
	// PanelLines is the number of lines shown in the summary panel.
	PanelLines = 40

	truncationMarker = "\n\n[Preview truncated.]"
)

// ErrReportUnavailable indicates the report artifact could not be loaded.
var ErrReportUnavailable = errors.New("report unavailable")

var (
	headingPrefix = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	bulletPrefix  = regexp.MustCompile(`(?m)^[ \t]*-[ \t]+`)
)

// Preview is the readable form of a report.
type Preview struct {
	Chars     int    `json:"chars"`
	Truncated bool   `json:"truncated"`
	Text      string `json:"text"`
	Lines     []Line `json:"lines"`
	Full      string `json:"-"`
}

// Line is one preview line. Headline lines are rendered with emphasis.
type Line struct {
	Text     string `json:"text"`
	Headline bool   `json:"headline"`
}

// Truncate caps text at MaxPreviewChars runes and appends a marker when it cut.
func Truncate(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= MaxPreviewChars {
		return text, false
	}
	n := 0
	for i := range text {
		if n == MaxPreviewChars {
			return text[:i] + truncationMarker, true
		}
		n++
	}
	return text, false
}

// Readable strips markdown emphasis, inline code and heading markers, and
// normalises list bullets.
func Readable(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "`", "")
	text = headingPrefix.ReplaceAllString(text, "")
	return bulletPrefix.ReplaceAllString(text, "- ")
}

// IsHeadline reports whether a preview line is a key: value line.
func IsHeadline(line string) bool {
	return strings.Contains(line, ":")
}

// Lines returns at most n lines of text.
func Lines(text string, n int) []Line {
	if text == "" || n <= 0 {
		return nil
	}
	raw := strings.Split(text, "\n")
	if len(raw) > n {
		raw = raw[:n]
	}
	lines := make([]Line, len(raw))
	for i, l := range raw {
		lines[i] = Line{Text: l, Headline: IsHeadline(l)}
	}
	return lines
}

// Build produces the preview for a raw report.
func Build(raw string) Preview {
	visible, truncated := Truncate(raw)
	readable := Readable(visible)
	return Preview{
		Chars:     utf8.RuneCountInString(raw),
		Truncated: truncated,
		Text:      readable,
		Lines:     Lines(readable, PanelLines),
		Full:      raw,
	}
}
