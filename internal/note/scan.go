package note

import (
	"context"

	"github.com/mdombrov-33/go-promptguard/detector"
)

// contentGuard screens note content handed back to the model. Initialized
// once at import time with all pattern-matching and statistical detectors
// enabled, no LLM judge, so every read stays sub-millisecond.
var contentGuard = detector.New(
	detector.WithThreshold(0.6),
	detector.WithAllDetectors(),
	detector.WithMaxInputLength(4000),
)

// Suspicious reports whether text looks like a prompt-injection attempt.
// Vault notes are untrusted input once they flow into a model conversation,
// so callers flag (not redact) suspicious content.
func Suspicious(text string) bool {
	if len(text) == 0 {
		return false
	}
	result := contentGuard.Detect(context.Background(), text)
	return !result.Safe
}
