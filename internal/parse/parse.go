// Package parse converts between human-entered text and canonical values.
// The same parsers are used for chat input and for spreadsheet cells, so they
// accept the storage layouts and the loose user-entry layouts interchangeably.
package parse

import (
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout     = "02.01.2006"
	DateTimeLayout = "02.01.2006 15:04"
)

// dateLayouts is tried in order; the datetime layout goes first so that a
// stored "25.03.2024 09:30" cell is not truncated by the plain date layout.
var dateLayouts = []string{
	DateTimeLayout,
	"02.01.2006",
	"2006-01-02",
	"02-01-2006",
	"2006.01.02",
}

// Date parses a date in any of the supported layouts. The time portion, if
// any, is discarded.
func Date(text string) (time.Time, bool) {
	t, ok := DateTime(text)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), true
}

// DateTime parses a date or datetime in any of the supported layouts.
func DateTime(text string) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// Hours parses a non-negative hour count. A decimal comma is accepted in
// place of a decimal point. Negative and non-numeric input is rejected.
func Hours(text string) (float64, bool) {
	normalized := strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// ID parses a loosely formatted shift identifier: a leading "#" and
// float-looking values ("12.0") are tolerated, everything non-numeric or
// non-positive is rejected.
func ID(text string) (int, bool) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "#"))
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	id := int(value)
	if id <= 0 {
		return 0, false
	}
	return id, true
}

// Float leniently parses a spreadsheet cell, defaulting to 0 on junk.
func Float(text string) float64 {
	normalized := strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0
	}
	return value
}

// Int leniently parses a spreadsheet cell holding an integer id.
func Int(text string) (int, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return int(value), true
}
