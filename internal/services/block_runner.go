package services

import (
	"context"
	"fmt"
	"strings"

	"blockmart/backend/pkg/models"
)

// RunBlock executes a marketplace block against the supplied inputs and
// returns its outputs. Entitlement checks happen at the API layer before this
// is called. The implementations here are deliberately simple stand-ins; the
// catalog contract (inputs in, outputs out) is what matters to callers.
func RunBlock(ctx context.Context, block *models.Block, inputs map[string]string) (map[string]any, error) {
	switch block.ID {
	case "echo":
		return map[string]any{"text": inputs["text"]}, nil
	case "uppercase":
		return map[string]any{"text": strings.ToUpper(inputs["text"])}, nil
	case "summarizer":
		return map[string]any{"summary": summarize(inputs["text"])}, nil
	case "sentiment":
		return map[string]any{"sentiment": classifySentiment(inputs["text"])}, nil
	case "translator":
		target := inputs["target_language"]
		if target == "" {
			target = "en"
		}
		return map[string]any{"translation": fmt.Sprintf("[%s] %s", target, inputs["text"])}, nil
	default:
		return nil, fmt.Errorf("block %q has no runner", block.ID)
	}
}

// summarize keeps the first sentence, truncating long ones.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		text = text[:i+1]
	}
	const maxLen = 200
	if len(text) > maxLen {
		text = text[:maxLen] + "…"
	}
	return text
}

func classifySentiment(text string) string {
	lower := strings.ToLower(text)
	positive := strings.Contains(lower, "good") || strings.Contains(lower, "great") || strings.Contains(lower, "love")
	negative := strings.Contains(lower, "bad") || strings.Contains(lower, "terrible") || strings.Contains(lower, "hate")
	switch {
	case positive && !negative:
		return "positive"
	case negative && !positive:
		return "negative"
	default:
		return "neutral"
	}
}
