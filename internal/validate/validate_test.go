package validate

import (
	"strings"
	"testing"

	"notable/internal/types"
)

func TestSanitizeThenCheckAcceptsValidDrafts(t *testing.T) {
	drafts := []types.NoteDraft{
		{Title: "a"},
		{Title: "  padded title  ", Content: "body"},
		{Title: strings.Repeat("x", MaxTitleLen)},
		{Title: "t", Content: strings.Repeat("y", MaxContentLen)},
		{Title: "multi\nline", Content: "keeps\nnewlines\tand tabs"},
	}
	for _, draft := range drafts {
		report := Check(Sanitize(draft))
		if !report.Valid {
			t.Fatalf("expected %+v to validate, got %q", draft, report.First())
		}
	}
}

func TestCheckRequiresTitle(t *testing.T) {
	report := Check(Sanitize(types.NoteDraft{Title: "   ", Content: "body"}))
	if report.Valid {
		t.Fatalf("expected blank title to fail")
	}
	if report.Errors.Title != "title is required" {
		t.Fatalf("unexpected title error: %q", report.Errors.Title)
	}
	if report.First() != "title is required" {
		t.Fatalf("expected title error first, got %q", report.First())
	}
}

func TestCheckRejectsOverlongFields(t *testing.T) {
	report := Check(types.NoteDraft{Title: strings.Repeat("x", MaxTitleLen+1)})
	if report.Valid || !strings.Contains(report.Errors.Title, "at most") {
		t.Fatalf("expected max-length title error, got %+v", report)
	}

	report = Check(types.NoteDraft{Title: "t", Content: strings.Repeat("y", MaxContentLen+1)})
	if report.Valid || !strings.Contains(report.Errors.Content, "at most") {
		t.Fatalf("expected max-length content error, got %+v", report)
	}
}

func TestSanitizeStripsControlCharacters(t *testing.T) {
	draft := Sanitize(types.NoteDraft{
		Title:   "title\x1b[31mwith\x00escape\nsecond",
		Content: "line1\r\nline2\x07",
	})
	if draft.Title != "title[31mwithescape second" {
		t.Fatalf("unexpected title: %q", draft.Title)
	}
	if draft.Content != "line1\nline2" {
		t.Fatalf("unexpected content: %q", draft.Content)
	}
}

func TestSanitizeCountsRunesNotBytes(t *testing.T) {
	title := strings.Repeat("é", MaxTitleLen)
	report := Check(types.NoteDraft{Title: title})
	if !report.Valid {
		t.Fatalf("expected %d-rune title to validate", MaxTitleLen)
	}
}
