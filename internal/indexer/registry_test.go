package indexer

import (
	"testing"

	"github.com/agentverse/agentverse/internal/config"
)

func TestBuildCollectorsWithoutCredentials(t *testing.T) {
	collectors := BuildCollectors(config.Credentials{}, discardLogger())

	got := make(map[string]bool, len(collectors))
	for _, c := range collectors {
		got[c.PlatformID()] = true
	}
	want := []string{
		"github", "huggingface", "civitai", "arxiv", "reddit",
		"websearch", "feeds", "youtube", "moltbook",
	}
	for _, id := range want {
		if !got[id] {
			t.Errorf("BuildCollectors() missing %s", id)
		}
	}
	if len(collectors) != len(want) {
		t.Errorf("BuildCollectors() returned %d collectors, want %d", len(collectors), len(want))
	}
}

func TestMoltbookDefaultBaseURL(t *testing.T) {
	c := NewMoltbookCollector("", discardLogger())
	if c.apiURL != "https://moltbook.com/api" {
		t.Errorf("apiURL = %q, want the moltbook.com default", c.apiURL)
	}
}
