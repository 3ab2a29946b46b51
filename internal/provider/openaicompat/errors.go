package openaicompat

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/agentcore/runtime/pkg/canon"
)

// retryableMessage: any of these substrings in an error message marks the
// failure retryable even when the status code itself isn't 502/503.
var retryableMessage = regexp.MustCompile(`(?i)connection refused|connection reset|timeout|service unavailable|bad gateway|502|503`)

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// wrapTransportError normalizes a net/http.Client.Do failure. Transport
// failures are unconditionally retryable network errors.
func wrapTransportError(err error) error {
	if err == nil {
		return nil
	}
	if canon.IsCanonError(err) {
		return err
	}
	return canon.NewNetworkError("openai-compat request failed", err)
}

// wrapHTTPError normalizes an HTTP error response. Statuses 502/503 map to
// ServiceUnavailable (retryable); 401/403, 429 and 404 map to authentication,
// rate-limit and resource-not-found errors. Any other status whose body
// message matches retryableMessage maps to ServiceUnavailable; the rest
// map to ValidationError (non-retryable).
func wrapHTTPError(status int, body []byte) error {
	message := extractMessage(body)

	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return canon.NewAgentError(canon.KindServiceUnavail, message, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return canon.NewAuthenticationError("openai_compat", nil)
	case http.StatusTooManyRequests:
		return canon.NewRateLimitError("openai_compat", nil, nil)
	case http.StatusNotFound:
		return canon.NewAgentError(canon.KindResourceNotFound, message, nil)
	}

	if retryableMessage.MatchString(message) {
		return canon.NewAgentError(canon.KindServiceUnavail, message, nil)
	}
	return canon.NewAgentError(canon.KindValidation, message, nil)
}

func extractMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(body))
}
