// Package analyze hosts the analyze and analyze-prs commands.
package analyze

import (
	"context"

	"github.com/Tomas-vilte/MateReview/internal/models"
)

// Service is the slice of the review agent the commands need.
type Service interface {
	AnalyzePR(ctx context.Context, provider, repo string, number int) (models.Analysis, error)
	AnalyzePRs(ctx context.Context, provider, repo, state string, limit int) ([]models.Analysis, error)
	PostReview(ctx context.Context, provider, repo string, number int, analysis models.Analysis) (string, error)
}

// ServiceProvider builds the service lazily so construction errors surface
// when a command actually runs, not at CLI startup.
type ServiceProvider func(ctx context.Context) (Service, error)
