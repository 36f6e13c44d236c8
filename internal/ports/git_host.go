package ports

import (
	"context"

	"github.com/Tomas-vilte/MateReview/internal/models"
)

// GitHostAdapter translates between the orchestrator's provider-agnostic
// model and one git hosting provider's API. The orchestrator never branches
// on provider identity beyond adapter selection.
type GitHostAdapter interface {
	// Connect establishes and validates a session. Calling it on an already
	// connected adapter is a no-op.
	Connect(ctx context.Context) error

	// FetchPR fetches one pull request with its file changes.
	FetchPR(ctx context.Context, repo string, number int) (models.PRInfo, error)

	// FetchPRs fetches up to limit pull requests in the given
	// provider-normalized state (open/closed/merged/all). limit bounds the
	// result count, it is not a pagination contract.
	FetchPRs(ctx context.Context, repo string, state string, limit int) ([]models.PRInfo, error)

	// PostComment posts a comment to a PR and returns its URL. When filePath
	// and lineNumber are both set the comment is inline, otherwise general.
	PostComment(ctx context.Context, repo string, number int, body string, filePath string, lineNumber int) (string, error)

	// GetFileContent returns the file's text content at a specific ref.
	GetFileContent(ctx context.Context, repo string, path string, ref string) (string, error)

	// CreateReview posts a batch of inline comments as a review. Providers
	// without a native review concept emulate it as individual comments and
	// return an aggregate summary instead of a URL.
	CreateReview(ctx context.Context, repo string, number int, comments []models.ReviewComment, event string) (string, error)

	// Close releases any held session. Safe to call multiple times.
	Close() error
}
