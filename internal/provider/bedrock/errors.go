package bedrock

import (
	"errors"

	"github.com/aws/smithy-go"

	"github.com/agentcore/runtime/pkg/canon"
)

// wrapError normalizes an AWS SDK/smithy service error into the canonical
// taxonomy. Backend-specific error codes are preserved in the
// message for diagnostics, never for programmatic branching.
func wrapError(err error, modelID string) error {
	if err == nil {
		return nil
	}
	if canon.IsCanonError(err) {
		return err
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return canon.NewNetworkError("bedrock request failed", err)
	}

	code := apiErr.ErrorCode()
	message := apiErr.ErrorMessage()

	switch code {
	case "ThrottlingException", "TooManyRequestsException":
		return canon.NewAgentError(canon.KindThrottling, message, err)
	case "AccessDeniedException":
		return canon.NewAgentError(canon.KindAccessDenied, message, err)
	case "ResourceNotFoundException":
		return canon.NewAgentError(canon.KindResourceNotFound, message, err)
	case "ServiceUnavailableException", "ModelNotReadyException", "InternalServerException":
		return canon.NewAgentError(canon.KindServiceUnavail, message, err)
	case "ModelTimeoutException":
		return canon.NewAgentError(canon.KindTimeout, message, err)
	case "ValidationException":
		return canon.NewAgentError(canon.KindValidation, message, err)
	case "UnrecognizedClientException", "ExpiredTokenException":
		return canon.NewAuthenticationError("bedrock", err)
	default:
		return canon.NewProviderError("bedrock", message, err)
	}
}
