package canon

import "fmt"

// ErrorKind identifies a variant of the canonical error taxonomy.
type ErrorKind string

const (
	KindProviderError      ErrorKind = "provider_error"
	KindModelNotFound      ErrorKind = "model_not_found"
	KindAuthentication     ErrorKind = "authentication_error"
	KindRateLimit          ErrorKind = "rate_limit_error"
	KindConfiguration      ErrorKind = "configuration_error"
	KindNetwork            ErrorKind = "network_error"
	KindSerialization      ErrorKind = "serialization_error"
	KindUnsupportedFeature ErrorKind = "unsupported_feature"

	// Agent-layer kinds.
	KindThrottling       ErrorKind = "throttling_error"
	KindServiceUnavail   ErrorKind = "service_unavailable"
	KindTimeout          ErrorKind = "timeout_error"
	KindQuotaExceeded    ErrorKind = "quota_exceeded"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindValidation       ErrorKind = "validation_error"
	KindAccessDenied     ErrorKind = "access_denied"
	KindResourceNotFound ErrorKind = "resource_not_found"
	KindModelError       ErrorKind = "model_error"
)

// CanonError is implemented by every concrete error variant in the taxonomy.
type CanonError interface {
	error
	Kind() ErrorKind
	Unwrap() error
}

type baseErr struct {
	kind    ErrorKind
	message string
	cause   error
}

func (e *baseErr) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *baseErr) Kind() ErrorKind { return e.kind }
func (e *baseErr) Unwrap() error   { return e.cause }

// ProviderError wraps a backend failure attributed to a specific provider.
type ProviderError struct {
	*baseErr
	Provider string
}

func NewProviderError(provider, message string, cause error) *ProviderError {
	return &ProviderError{baseErr: &baseErr{kind: KindProviderError, message: message, cause: cause}, Provider: provider}
}

// ModelNotFound indicates model_id did not resolve to any known model family.
type ModelNotFound struct {
	*baseErr
	ModelID  string
	Provider string
}

func NewModelNotFound(modelID, provider string) *ModelNotFound {
	return &ModelNotFound{
		baseErr:  &baseErr{kind: KindModelNotFound, message: fmt.Sprintf("model %q not found for provider %q", modelID, provider)},
		ModelID:  modelID,
		Provider: provider,
	}
}

// AuthenticationError indicates the provider rejected credentials.
type AuthenticationError struct {
	*baseErr
	Provider string
}

func NewAuthenticationError(provider string, cause error) *AuthenticationError {
	return &AuthenticationError{baseErr: &baseErr{kind: KindAuthentication, message: "authentication failed", cause: cause}, Provider: provider}
}

// RateLimitError indicates the provider is throttling the caller.
type RateLimitError struct {
	*baseErr
	Provider   string
	RetryAfter *int
}

func NewRateLimitError(provider string, retryAfter *int, cause error) *RateLimitError {
	return &RateLimitError{baseErr: &baseErr{kind: KindRateLimit, message: "rate limit exceeded", cause: cause}, Provider: provider, RetryAfter: retryAfter}
}

// ConfigurationError indicates operator misconfiguration.
type ConfigurationError struct{ *baseErr }

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{&baseErr{kind: KindConfiguration, message: message}}
}

// NetworkError indicates a transport-level failure.
type NetworkError struct{ *baseErr }

func NewNetworkError(message string, cause error) *NetworkError {
	return &NetworkError{&baseErr{kind: KindNetwork, message: message, cause: cause}}
}

// SerializationError indicates a wire-format encode/decode failure.
type SerializationError struct{ *baseErr }

func NewSerializationError(message string, cause error) *SerializationError {
	return &SerializationError{&baseErr{kind: KindSerialization, message: message, cause: cause}}
}

// UnsupportedFeature indicates a provider does not implement a capability
// the caller requested.
type UnsupportedFeature struct {
	*baseErr
	Feature  string
	Provider string
}

func NewUnsupportedFeature(feature, provider string) *UnsupportedFeature {
	return &UnsupportedFeature{
		baseErr:  &baseErr{kind: KindUnsupportedFeature, message: fmt.Sprintf("%s is not supported by %s", feature, provider)},
		Feature:  feature,
		Provider: provider,
	}
}

// AgentError carries one of the agent-layer kinds (ThrottlingError,
// ServiceUnavailable, TimeoutError, QuotaExceeded, InvalidInput,
// ValidationError, AccessDenied, ResourceNotFound, ModelError), each
// distinguished only by Kind() and an attached message.
type AgentError struct{ *baseErr }

func NewAgentError(kind ErrorKind, message string, cause error) *AgentError {
	return &AgentError{&baseErr{kind: kind, message: message, cause: cause}}
}

// IsCanonError reports whether err (or any error it wraps) is a CanonError.
func IsCanonError(err error) bool {
	_, ok := GetCanonError(err)
	return ok
}

// GetCanonError unwraps err looking for a CanonError.
func GetCanonError(err error) (CanonError, bool) {
	for err != nil {
		if ce, ok := err.(CanonError); ok {
			return ce, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return nil, false
}
