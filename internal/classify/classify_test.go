package classify

import (
	"testing"

	"github.com/agentcore/runtime/pkg/canon"
)

func TestClassifyContextOverflowPhrases(t *testing.T) {
	phrases := []string{
		"Input is too long for requested model",
		"Input length and `max_tokens` exceed context limit",
		"Too many total text bytes",
		"input is too long",
		"Input length exceeds context window",
		"Input and output tokens exceed your context limit",
	}
	for _, phrase := range phrases {
		t.Run(phrase, func(t *testing.T) {
			err := canon.NewAgentError(canon.KindValidation, phrase, nil)
			if got := Classify(err); got != ContextOverflow {
				t.Errorf("Classify(%q) = %v, want ContextOverflow", phrase, got)
			}
		})
	}
}

func TestClassifyValidationNonRetryable(t *testing.T) {
	err := canon.NewAgentError(canon.KindValidation, "Invalid parameter value", nil)
	if got := Classify(err); got != NonRetryable {
		t.Errorf("Classify(generic validation) = %v, want NonRetryable", got)
	}
}

func TestClassifyEveryKindMapsToExactlyOne(t *testing.T) {
	cases := []struct {
		kind canon.ErrorKind
		want Classification
	}{
		{canon.KindThrottling, Retryable},
		{canon.KindServiceUnavail, Retryable},
		{canon.KindNetwork, Retryable},
		{canon.KindTimeout, Retryable},
		{canon.KindConfiguration, NonRetryable},
		{canon.KindAccessDenied, NonRetryable},
		{canon.KindResourceNotFound, NonRetryable},
		{canon.KindSerialization, NonRetryable},
		{canon.KindModelError, NonRetryable},
	}
	for _, tt := range cases {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := canon.NewAgentError(tt.kind, "message", nil)
			if got := Classify(err); got != tt.want {
				t.Errorf("Classify(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestClassifyQuotaExceededContextFraming(t *testing.T) {
	contextFramed := canon.NewAgentError(canon.KindQuotaExceeded, "token quota for this context exceeded", nil)
	if got := Classify(contextFramed); got != ContextOverflow {
		t.Errorf("Classify(quota/context) = %v, want ContextOverflow", got)
	}

	plain := canon.NewAgentError(canon.KindQuotaExceeded, "monthly spend limit reached", nil)
	if got := Classify(plain); got != NonRetryable {
		t.Errorf("Classify(quota/plain) = %v, want NonRetryable", got)
	}
}

func TestIsContextOverflowMessageCaseInsensitive(t *testing.T) {
	if !IsContextOverflowMessage("INPUT IS TOO LONG") {
		t.Error("expected case-insensitive match")
	}
	if IsContextOverflowMessage("everything is fine") {
		t.Error("expected no match for unrelated message")
	}
}
