package provider

import (
	"context"
	"sync"
	"testing"

	"github.com/agentcore/runtime/pkg/canon"
)

type stubProvider struct{ id int }

func (s *stubProvider) Chat(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	return canon.ChatResponse{}, nil
}
func (s *stubProvider) ChatWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (canon.ChatResponse, error) {
	return canon.ChatResponse{}, nil
}
func (s *stubProvider) ChatStreaming(ctx context.Context, modelID string, messages []canon.Message, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error) {
	return nil, nil
}
func (s *stubProvider) ChatStreamingWithTools(ctx context.Context, modelID string, messages []canon.Message, tools []canon.ToolSpec, cfg canon.ChatConfig) (<-chan canon.StreamEvent, error) {
	return nil, nil
}
func (s *stubProvider) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{Healthy: true}
}
func (s *stubProvider) ProviderType() Type         { return TypeBedrock }
func (s *stubProvider) SupportedModels() []string  { return nil }
func (s *stubProvider) Capabilities() Capabilities { return Capabilities{} }

func TestGetProviderConstructsOnce(t *testing.T) {
	r := NewRegistry()
	constructions := 0
	r.Register(TypeBedrock, func() (Provider, error) {
		constructions++
		return &stubProvider{id: constructions}, nil
	})

	var wg sync.WaitGroup
	results := make([]Provider, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			p, err := r.GetProvider(TypeBedrock)
			if err != nil {
				t.Error(err)
			}
			results[idx] = p
		}(i)
	}
	wg.Wait()

	if constructions != 1 {
		t.Fatalf("expected exactly 1 construction, got %d", constructions)
	}
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("expected every concurrent GetProvider call to return the same shared instance")
		}
	}
}

func TestGetProviderUnregisteredReturnsError(t *testing.T) {
	r := NewRegistry()
	if _, err := r.GetProvider(TypeOpenAICompat); err == nil {
		t.Fatal("expected an error for an unregistered provider kind")
	}
}

func TestOverrideIsDependencyInjectionPoint(t *testing.T) {
	r := NewRegistry()
	fake := &stubProvider{id: 99}
	r.Override(TypeBedrock, fake)

	p, err := r.GetProvider(TypeBedrock)
	if err != nil {
		t.Fatal(err)
	}
	if p != fake {
		t.Fatal("expected Override to take effect without requiring a factory")
	}
}
