// Package dispatch forwards user messages to LLM vendor APIs.
//
// DESIGN: Each configured (provider, model) pair gets one Generator —
// a client bound to a vendor endpoint, API key, and model id — registered at
// startup from the static configuration. Callers never key vendors by ad-hoc
// strings at call sites; the registry is the single lookup point. Dispatch
// calls are plain synchronous HTTP with a caller-supplied context; they must
// happen strictly outside any ledger transaction.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/kenyap/quotabot/internal/config"
)

// Generator produces a model reply for one user message.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// Registry maps (provider, model) to its generator. Populated once at
// startup, read-only afterwards; the lock exists for tests that register
// fakes concurrently.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

func key(provider, modelID string) string {
	return provider + "/" + modelID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register adds a generator for a provider+model pair.
func (r *Registry) Register(provider, modelID string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[key(provider, modelID)] = g
}

// Get returns the generator for a provider+model pair.
func (r *Registry) Get(provider, modelID string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[key(provider, modelID)]
	return g, ok
}

// Dispatch forwards text to the registered model and returns the reply.
func (r *Registry) Dispatch(ctx context.Context, provider, modelID, text string) (string, error) {
	g, ok := r.Get(provider, modelID)
	if !ok {
		return "", fmt.Errorf("no model registered for %s/%s", provider, modelID)
	}
	return g.Generate(ctx, text)
}

// FromConfig builds the registry from the provider configuration.
func FromConfig(cfg *config.Config) (*Registry, error) {
	r := NewRegistry()
	for name, p := range cfg.Providers {
		for _, m := range p.Models {
			var g Generator
			switch p.API {
			case "anthropic":
				g = NewAnthropic(p.APIKey, p.Endpoint, m.ID, cfg.Dispatch.MaxTokens, cfg.Dispatch.Timeout)
			case "openai":
				g = NewOpenAI(p.APIKey, p.Endpoint, m.ID, cfg.Dispatch.MaxTokens, cfg.Dispatch.Timeout)
			default:
				return nil, fmt.Errorf("provider %s: unsupported api %q", name, p.API)
			}
			r.Register(name, m.ID, g)
		}
	}
	return r, nil
}
