package ports

import (
	"context"

	"github.com/Tomas-vilte/MateReview/internal/models"
)

// Analyzer inspects one file's content and reports issues. Implementations
// must not panic on malformed input: a parse failure inside the analyzer
// becomes a synthetic low-severity issue in the result. An analyzer disabled
// by its own configuration still returns a result (empty issues, score 100,
// explanatory summary) so the orchestrator can record its neutrality.
type Analyzer interface {
	// Name identifies the analyzer in logs and metrics namespaces.
	Name() string

	// Analyze produces the analyzer's result for one file.
	Analyze(ctx context.Context, filePath string, content string) (models.AnalysisResult, error)

	// SupportedExtensions lists the file extensions this analyzer applies
	// to. Matching is case-sensitive on the leaf suffix (e.g. ".py").
	SupportedExtensions() []string
}

// AIProvider generates a structured review for a prompt. Implementations
// wrap one AI backend; calls are bounded by the caller's context.
type AIProvider interface {
	GenerateReview(ctx context.Context, prompt string) (string, error)
	ProviderName() string
	ModelName() string
}
