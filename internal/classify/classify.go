// Package classify implements the error classifier: every failure is
// sorted into Retryable, NonRetryable, or ContextOverflow so the retry
// executor and the agent boundary know how to react.
package classify

import (
	"strings"

	"github.com/agentcore/runtime/pkg/canon"
)

// Classification is the result of classifying a failure.
type Classification string

const (
	Retryable       Classification = "retryable"
	NonRetryable    Classification = "non_retryable"
	ContextOverflow Classification = "context_overflow"
)

// contextOverflowSubstrings is the fixed, case-insensitive substring list
// which reclassify a ValidationError as ContextOverflow.
var contextOverflowSubstrings = []string{
	"input is too long for requested model",
	"input length and `max_tokens` exceed context limit",
	"too many total text bytes",
	"input is too long",
	"input length exceeds context window",
	"input and output tokens exceed your context limit",
}

// IsContextOverflowMessage reports whether msg matches one of the known
// phrases, case-insensitively.
func IsContextOverflowMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, phrase := range contextOverflowSubstrings {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Classify maps err to its Classification. A nil err
// classifies as NonRetryable (callers should never call Classify on a nil
// error, but a safe default avoids a surprising panic).
func Classify(err error) Classification {
	if err == nil {
		return NonRetryable
	}
	ce, ok := canon.GetCanonError(err)
	if !ok {
		return NonRetryable
	}
	switch ce.Kind() {
	case canon.KindThrottling, canon.KindServiceUnavail, canon.KindNetwork, canon.KindTimeout:
		return Retryable
	case canon.KindQuotaExceeded:
		msg := strings.ToLower(ce.Error())
		if strings.Contains(msg, "context") || strings.Contains(msg, "token") {
			return ContextOverflow
		}
		return NonRetryable
	case canon.KindInvalidInput:
		msg := strings.ToLower(ce.Error())
		if strings.Contains(msg, "too long") || strings.Contains(msg, "context") {
			return ContextOverflow
		}
		return NonRetryable
	case canon.KindValidation:
		if IsContextOverflowMessage(ce.Error()) {
			return ContextOverflow
		}
		return NonRetryable
	case canon.KindConfiguration, canon.KindAccessDenied, canon.KindResourceNotFound, canon.KindSerialization:
		return NonRetryable
	default:
		return NonRetryable
	}
}
