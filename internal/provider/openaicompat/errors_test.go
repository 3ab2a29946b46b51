package openaicompat

import (
	"errors"
	"testing"

	"github.com/agentcore/runtime/internal/classify"
	"github.com/agentcore/runtime/pkg/canon"
)

func TestWrapHTTPErrorServiceUnavailableIsRetryable(t *testing.T) {
	err := wrapHTTPError(503, []byte(`{"error":{"message":"service unavailable"}}`))
	if classify.Classify(err) != classify.Retryable {
		t.Errorf("classification = %v, want Retryable for 503", classify.Classify(err))
	}
}

func TestWrapHTTPErrorBadGatewayIsRetryable(t *testing.T) {
	err := wrapHTTPError(502, []byte(`bad gateway`))
	if classify.Classify(err) != classify.Retryable {
		t.Errorf("classification = %v, want Retryable for 502", classify.Classify(err))
	}
}

func TestWrapHTTPErrorMessageMatchRetryableWithoutMatchingStatus(t *testing.T) {
	err := wrapHTTPError(500, []byte(`{"error":{"message":"connection reset by peer"}}`))
	if classify.Classify(err) != classify.Retryable {
		t.Errorf("classification = %v, want Retryable for connection-reset message", classify.Classify(err))
	}
}

func TestWrapHTTPErrorOtherStatusIsNonRetryable(t *testing.T) {
	err := wrapHTTPError(400, []byte(`{"error":{"message":"invalid request body"}}`))
	if classify.Classify(err) != classify.NonRetryable {
		t.Errorf("classification = %v, want NonRetryable for 400", classify.Classify(err))
	}
}

func TestWrapTransportErrorIsRetryableNetworkError(t *testing.T) {
	err := wrapTransportError(errors.New("dial tcp: connection refused"))
	if classify.Classify(err) != classify.Retryable {
		t.Errorf("classification = %v, want Retryable for transport failure", classify.Classify(err))
	}
	ce, ok := canon.GetCanonError(err)
	if !ok || ce.Kind() != canon.KindNetwork {
		t.Errorf("Kind = %v, want network_error", ce)
	}
}
