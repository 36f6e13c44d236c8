// Package di wires configuration, provider factories, analyzers and the
// review agent together for the CLI.
package di

import (
	"context"

	"github.com/Tomas-vilte/MateReview/internal/agent"
	aianalyzer "github.com/Tomas-vilte/MateReview/internal/analyzers/ai"
	"github.com/Tomas-vilte/MateReview/internal/analyzers/quality"
	"github.com/Tomas-vilte/MateReview/internal/analyzers/security"
	"github.com/Tomas-vilte/MateReview/internal/analyzers/style"
	"github.com/Tomas-vilte/MateReview/internal/cache"
	"github.com/Tomas-vilte/MateReview/internal/config"
	domainErrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/Tomas-vilte/MateReview/internal/logger"
	"github.com/Tomas-vilte/MateReview/internal/ports"
	"github.com/Tomas-vilte/MateReview/internal/vcs/bitbucket"
	"github.com/Tomas-vilte/MateReview/internal/vcs/github"
	"github.com/Tomas-vilte/MateReview/internal/vcs/gitlab"
	"github.com/Tomas-vilte/MateReview/internal/vcs/registry"
)

// Container manages the application dependencies.
type Container struct {
	config       *config.Config
	translations *i18n.Translations

	vcsRegistry *registry.Registry

	// lazy initialized
	reviewAgent *agent.PRAgent
}

// NewContainer builds the container with every known provider factory
// registered.
func NewContainer(cfg *config.Config, trans *i18n.Translations) (*Container, error) {
	reg := registry.NewRegistry()
	for _, factory := range []registry.AdapterFactory{
		&github.Factory{},
		&gitlab.Factory{},
		&bitbucket.Factory{},
	} {
		if err := reg.Register(factory); err != nil {
			return nil, err
		}
	}

	return &Container{
		config:       cfg,
		translations: trans,
		vcsRegistry:  reg,
	}, nil
}

// Agent returns the PR review agent, building it on first use.
func (c *Container) Agent(ctx context.Context) (*agent.PRAgent, error) {
	if c.reviewAgent != nil {
		return c.reviewAgent, nil
	}

	analyzers, err := c.buildAnalyzers(ctx)
	if err != nil {
		return nil, err
	}

	c.reviewAgent = agent.New(c.config, c.vcsRegistry, analyzers)
	return c.reviewAgent, nil
}

// Close releases the agent's provider sessions. Safe to call when the agent
// was never built.
func (c *Container) Close() error {
	if c.reviewAgent == nil {
		return nil
	}
	return c.reviewAgent.Close()
}

func (c *Container) buildAnalyzers(ctx context.Context) ([]ports.Analyzer, error) {
	analyzers := []ports.Analyzer{
		quality.New(c.config.Analysis),
		security.New(c.config.Analysis),
		style.New(c.config.Analysis),
	}

	if c.config.AI.Enabled {
		provider, err := c.buildAIProvider(ctx)
		if err != nil {
			return nil, err
		}

		var aiCache *cache.Cache
		aiCache, err = cache.NewCache(c.config.AI.CacheTTL())
		if err != nil {
			// Cache failures only cost extra API calls.
			logger.Warn(ctx, "AI cache unavailable", "error", err)
			aiCache = nil
		}

		analyzers = append(analyzers, aianalyzer.New(c.config.AI, provider, aiCache))
	}

	return analyzers, nil
}

func (c *Container) buildAIProvider(ctx context.Context) (ports.AIProvider, error) {
	switch c.config.AI.Provider {
	case "gemini", "":
		return aianalyzer.NewGeminiProvider(ctx, c.config.AI)
	default:
		return nil, domainErrors.ErrProviderNotSupported.WithContext("provider", c.config.AI.Provider)
	}
}

// VCSRegistry returns the provider registry.
func (c *Container) VCSRegistry() *registry.Registry {
	return c.vcsRegistry
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Translations returns the translations.
func (c *Container) Translations() *i18n.Translations {
	return c.translations
}
