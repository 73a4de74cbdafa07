package models

import (
	"strings"
	"testing"
)

func TestSanitizeBoundsDescriptionAndTags(t *testing.T) {
	draft := &ContentDraft{
		ExternalAgentID: "  github:alice  ",
		Type:            ContentTypePost,
		Title:           "  A title  ",
		Description:     strings.Repeat("x", MaxDescriptionLen+100),
		Tags:            []string{"a", "", "b", "a", " c "},
	}
	draft.Sanitize()

	if draft.ExternalAgentID != "github:alice" {
		t.Errorf("ExternalAgentID = %q, want trimmed", draft.ExternalAgentID)
	}
	if draft.Title != "A title" {
		t.Errorf("Title = %q, want trimmed", draft.Title)
	}
	if len(draft.Description) != MaxDescriptionLen {
		t.Errorf("Description length = %d, want %d", len(draft.Description), MaxDescriptionLen)
	}
	want := []string{"a", "b", "c"}
	if len(draft.Tags) != len(want) {
		t.Fatalf("Tags = %v, want %v", draft.Tags, want)
	}
	for i := range want {
		if draft.Tags[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q", i, draft.Tags[i], want[i])
		}
	}
}

func TestSanitizeCapsTagCount(t *testing.T) {
	tags := make([]string, MaxTags+5)
	for i := range tags {
		tags[i] = strings.Repeat("t", i+1)
	}
	draft := &ContentDraft{Tags: tags}
	draft.Sanitize()

	if len(draft.Tags) != MaxTags {
		t.Errorf("len(Tags) = %d, want %d", len(draft.Tags), MaxTags)
	}
}

func TestValid(t *testing.T) {
	draft := &ContentDraft{ExternalAgentID: "a", Title: "t", Type: ContentTypePost}
	if !draft.Valid() {
		t.Error("Valid() = false for complete draft")
	}

	incomplete := []ContentDraft{
		{Title: "t", Type: ContentTypePost},
		{ExternalAgentID: "a", Type: ContentTypePost},
		{ExternalAgentID: "a", Title: "t"},
	}
	for i, d := range incomplete {
		if d.Valid() {
			t.Errorf("Valid() = true for incomplete draft %d", i)
		}
	}
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	s := "héllo wörld"
	for n := 0; n <= len(s); n++ {
		out := Truncate(s, n)
		if len(out) > n {
			t.Errorf("Truncate(%q, %d) = %q, longer than limit", s, n, out)
		}
		for _, r := range out {
			if r == '�' {
				t.Errorf("Truncate(%q, %d) = %q, split a rune", s, n, out)
			}
		}
	}
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate(short, 100) = %q", got)
	}
}
