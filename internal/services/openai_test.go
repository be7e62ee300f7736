package services

import (
	"context"
	"strings"
	"testing"
)

func TestFallbackSplitPairsSentences(t *testing.T) {
	text := "One. Two! Three? Four. Five."

	blocks := fallbackSplit(text)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks (2+2+1 sentences), got %d", len(blocks))
	}

	if blocks[0].Text != "One. Two!" {
		t.Errorf("block 1 text = %q", blocks[0].Text)
	}
	if blocks[2].Text != "Five." {
		t.Errorf("block 3 text = %q", blocks[2].Text)
	}

	for i, b := range blocks {
		if b.ID != i+1 {
			t.Errorf("block %d has id %d", i, b.ID)
		}
		if b.ImagePrompt == "" {
			t.Errorf("block %d has no image prompt", i)
		}
		if b.OriginalText != b.Text {
			t.Errorf("block %d originalText diverged", i)
		}
	}
}

func TestFallbackSplitNoPunctuation(t *testing.T) {
	blocks := fallbackSplit("just one long unpunctuated thought")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "just one long unpunctuated thought" {
		t.Errorf("unexpected block text: %q", blocks[0].Text)
	}
}

func TestFallbackSplitTruncatesPromptSummaryByRunes(t *testing.T) {
	// Cyrillic text must not be cut mid-rune.
	text := strings.Repeat("б", 80) + "."
	blocks := fallbackSplit(text)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if strings.Contains(blocks[0].ImagePrompt, "�") {
		t.Errorf("image prompt contains a broken rune: %q", blocks[0].ImagePrompt)
	}
}

func TestParseSplitResponse(t *testing.T) {
	raw := "```json\n" + `{
		"blocks": [
			{"text": "A castle stood.", "originalText": "A castle stood.", "imagePrompt": "An old castle at dusk"},
			{"text": "", "imagePrompt": "should be dropped"},
			{"text": "It fell.", "imagePrompt": "Ruins under a grey sky"}
		]
	}` + "\n```"

	blocks, err := parseSplitResponse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 valid blocks, got %d", len(blocks))
	}
	if blocks[0].ID != 1 || blocks[1].ID != 2 {
		t.Errorf("blocks not renumbered: %d, %d", blocks[0].ID, blocks[1].ID)
	}
	if blocks[1].Text != "It fell." {
		t.Errorf("block 2 text = %q", blocks[1].Text)
	}
	if blocks[1].OriginalText != "It fell." {
		t.Errorf("missing originalText should default to text, got %q", blocks[1].OriginalText)
	}
}

func TestParseSplitResponseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"blocks": []}`, `{"blocks": [{"text": "x"}]}`} {
		if _, err := parseSplitResponse(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestSplitTextWithoutKeyUsesFallback(t *testing.T) {
	s := NewOpenAIService("")

	blocks, err := s.SplitText(context.Background(), "First. Second. Third.", "en")
	if err != nil {
		t.Fatalf("SplitText failed: %v", err)
	}
	if len(blocks) == 0 {
		t.Fatal("expected fallback blocks")
	}
}

func TestRewriteTextWithoutKeyFails(t *testing.T) {
	s := NewOpenAIService("")
	if _, err := s.RewriteText(context.Background(), "anything"); err == nil {
		t.Error("expected error without an API key")
	}
}
