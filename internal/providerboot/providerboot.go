// Package providerboot wires the concrete provider implementations into a
// provider.Registry, layering the decoded config.ProvidersConfig over
// environment variables for whichever fields the config file left
// blank. It lives above internal/provider/bedrock and
// internal/provider/openaicompat so the registry package itself stays free
// of a dependency on any concrete backend.
package providerboot

import (
	"context"
	"os"
	"time"

	"github.com/agentcore/runtime/internal/config"
	"github.com/agentcore/runtime/internal/obslog"
	"github.com/agentcore/runtime/internal/provider"
	"github.com/agentcore/runtime/internal/provider/bedrock"
	"github.com/agentcore/runtime/internal/provider/openaicompat"
)

// Configure registers factories for every provider this build supports into
// r. It is idempotent and safe to call concurrently: Register only installs
// a factory, and construction itself happens lazily and race-free inside
// Registry.GetProvider.
func Configure(r *provider.Registry, cfg config.ProvidersConfig, logger *obslog.Logger) {
	r.Register(provider.TypeBedrock, func() (provider.Provider, error) {
		bc := cfg.Bedrock.ToProviderConfig(logger)
		bc.Region = firstNonEmpty(bc.Region, os.Getenv("AWS_REGION"))
		bc.AccessKeyID = firstNonEmpty(bc.AccessKeyID, os.Getenv("AWS_ACCESS_KEY_ID"))
		bc.SecretAccessKey = firstNonEmpty(bc.SecretAccessKey, os.Getenv("AWS_SECRET_ACCESS_KEY"))
		bc.SessionToken = firstNonEmpty(bc.SessionToken, os.Getenv("AWS_SESSION_TOKEN"))
		return bedrock.New(context.Background(), bc)
	})

	r.Register(provider.TypeOpenAICompat, func() (provider.Provider, error) {
		oc := cfg.OpenAICompat.ToProviderConfig(logger)
		oc.BaseURL = firstNonEmpty(oc.BaseURL, os.Getenv("LM_STUDIO_BASE_URL"), "http://localhost:1234")
		oc.APIKey = firstNonEmpty(oc.APIKey, os.Getenv("LM_STUDIO_API_KEY"))
		oc.DefaultModel = firstNonEmpty(oc.DefaultModel, os.Getenv("LM_STUDIO_DEFAULT_MODEL"))
		if oc.Timeout <= 0 {
			oc.Timeout = 2 * time.Minute
		}
		return openaicompat.New(oc), nil
	})
}

// firstNonEmpty returns the first non-empty candidate, or "" if all are.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
