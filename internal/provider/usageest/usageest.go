// Package usageest provides the shared streaming-usage estimation heuristic
// used by both providers when a backend omits usage from a stream.
// These estimates are advisory; callers must not use them for billing.
package usageest

import "github.com/agentcore/runtime/pkg/canon"

// Estimate computes output_tokens = max(1, len(totalText)/4) and
// input_tokens = 50 (no tools) or 100 (tools present).
func Estimate(totalText string, toolsPresent bool) canon.Usage {
	output := len(totalText) / 4
	if output < 1 {
		output = 1
	}
	input := 50
	if toolsPresent {
		input = 100
	}
	return canon.Usage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
	}
}
