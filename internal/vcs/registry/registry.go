// Package registry maps provider names to git host adapter factories.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Tomas-vilte/MateReview/internal/config"
	apperrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/ports"
)

// AdapterFactory builds a provider adapter from its config section.
type AdapterFactory interface {
	// Name returns the provider key this factory serves, e.g. "github".
	Name() string
	// ValidateConfig checks the provider section before any adapter is built.
	ValidateConfig(cfg *config.VCSConfig) error
	// CreateAdapter builds an unconnected adapter. The caller is responsible
	// for calling Connect and, eventually, Close.
	CreateAdapter(cfg *config.VCSConfig) (ports.GitHostAdapter, error)
}

// Registry holds the known adapter factories. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]AdapterFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]AdapterFactory)}
}

// Register adds a factory under its own name, replacing any previous one.
func (r *Registry) Register(factory AdapterFactory) error {
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factory.Name()] = factory
	return nil
}

// Get returns the factory for a provider name.
func (r *Registry) Get(name string) (AdapterFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	if !ok {
		return nil, apperrors.ErrProviderNotSupported.WithContext("provider", name)
	}
	return factory, nil
}

// List returns registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}
