// Package oracle defines the LLM oracle collaborator used as a fallback when
// heuristic extraction is inconclusive, plus its Anthropic-backed
// implementation. The oracle answers with a single value, or the literal
// string "none" for a clean negative; any other failure is an error the
// caller treats as "no oracle answer available".
package oracle

import (
	"context"
	"strings"
)

// NoAnswer is the literal (case-insensitive) reply signalling a clean
// negative result.
const NoAnswer = "none"

// Client asks a task-specific question about a text excerpt.
type Client interface {
	// Ask sends an instruction and up to ~4000 characters of text, returning
	// the oracle's single-value answer. The answer may be NoAnswer.
	Ask(ctx context.Context, instruction, text string) (string, error)
}

// IsNoAnswer reports whether an oracle reply is the clean negative.
func IsNoAnswer(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), NoAnswer)
}
