package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"notable/internal/types"
)

const (
	MaxTitleLen   = 200
	MaxContentLen = 10000
)

// Report is the outcome of checking a draft. Errors holds one message per
// failing field; First returns them in field order for single-line surfacing.
type Report struct {
	Valid  bool
	Errors FieldErrors
}

type FieldErrors struct {
	Title   string
	Content string
}

func (r Report) First() string {
	if r.Errors.Title != "" {
		return r.Errors.Title
	}
	return r.Errors.Content
}

// Sanitize trims whitespace and strips terminal control characters from both
// fields. Titles are forced onto a single line; content keeps newlines and
// tabs.
func Sanitize(draft types.NoteDraft) types.NoteDraft {
	return types.NoteDraft{
		Title:   strings.TrimSpace(stripControl(draft.Title, false)),
		Content: strings.TrimSpace(stripControl(draft.Content, true)),
	}
}

// Check enforces the field rules on an already-sanitized draft: title is
// required and at most MaxTitleLen characters, content is optional and at
// most MaxContentLen characters.
func Check(draft types.NoteDraft) Report {
	report := Report{Valid: true}
	if strings.TrimSpace(draft.Title) == "" {
		report.Valid = false
		report.Errors.Title = "title is required"
	} else if utf8.RuneCountInString(draft.Title) > MaxTitleLen {
		report.Valid = false
		report.Errors.Title = fmt.Sprintf("title must be at most %d characters", MaxTitleLen)
	}
	if utf8.RuneCountInString(draft.Content) > MaxContentLen {
		report.Valid = false
		report.Errors.Content = fmt.Sprintf("content must be at most %d characters", MaxContentLen)
	}
	return report
}

func stripControl(input string, multiline bool) string {
	if input == "" {
		return input
	}
	var out []rune
	for _, r := range input {
		switch {
		case r == '\n':
			if multiline {
				out = append(out, r)
			} else {
				out = append(out, ' ')
			}
		case r == '\t':
			if multiline {
				out = append(out, r)
			}
		case r == '\r':
		case r < 32 || r == 127:
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
