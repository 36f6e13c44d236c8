package analyze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) AnalyzePR(ctx context.Context, provider, repo string, number int) (models.Analysis, error) {
	args := m.Called(ctx, provider, repo, number)
	return args.Get(0).(models.Analysis), args.Error(1)
}

func (m *MockService) AnalyzePRs(ctx context.Context, provider, repo, state string, limit int) ([]models.Analysis, error) {
	args := m.Called(ctx, provider, repo, state, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Analysis), args.Error(1)
}

func (m *MockService) PostReview(ctx context.Context, provider, repo string, number int, analysis models.Analysis) (string, error) {
	args := m.Called(ctx, provider, repo, number, analysis)
	return args.String(0), args.Error(1)
}

func setupTest(t *testing.T) (*i18n.Translations, *config.Config) {
	t.Helper()
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	return translations, config.Default()
}

func sampleAnalysis(id string) models.Analysis {
	pr := models.PRInfo{
		ID:           id,
		Title:        "Add retry logic",
		Author:       "octocat",
		Status:       models.PRStatusOpen,
		SourceBranch: "feature/retry",
		TargetBranch: "main",
		CreatedAt:    time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC),
	}
	files := map[string]models.FileAnalysis{
		"app.py": {Issues: nil, Score: 100},
	}
	return models.Analysis{
		PR:           pr,
		Files:        files,
		OverallScore: 100,
		Report:       report.Generate(pr, files, nil, 100),
	}
}

func TestAnalyzeCommandRunsService(t *testing.T) {
	translations, cfg := setupTest(t)
	service := new(MockService)
	service.On("AnalyzePR", mock.Anything, "github", "owner/repo", 7).
		Return(sampleAnalysis("7"), nil).Once()

	cmd := NewAnalyzeCommand(func(ctx context.Context) (Service, error) {
		return service, nil
	}).CreateCommand(translations, cfg)

	app := &cli.Command{Commands: []*cli.Command{cmd}}
	err := app.Run(context.Background(), []string{"matereview", "analyze", "--provider", "github", "--repo", "owner/repo", "--pr", "7"})

	require.NoError(t, err)
	service.AssertExpectations(t)
}

func TestAnalyzeCommandSavesReport(t *testing.T) {
	translations, cfg := setupTest(t)
	output := filepath.Join(t.TempDir(), "report.json")

	service := new(MockService)
	service.On("AnalyzePR", mock.Anything, "", "owner/repo", 7).
		Return(sampleAnalysis("7"), nil).Once()

	cmd := NewAnalyzeCommand(func(ctx context.Context) (Service, error) {
		return service, nil
	}).CreateCommand(translations, cfg)

	app := &cli.Command{Commands: []*cli.Command{cmd}}
	err := app.Run(context.Background(), []string{"matereview", "analyze", "--repo", "owner/repo", "--pr", "7", "--output", output})

	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pr_id": "7"`)
}

func TestAnalyzeCommandPostsComments(t *testing.T) {
	translations, cfg := setupTest(t)
	analysis := sampleAnalysis("7")

	service := new(MockService)
	service.On("AnalyzePR", mock.Anything, "", "owner/repo", 7).
		Return(analysis, nil).Once()
	service.On("PostReview", mock.Anything, "", "owner/repo", 7, mock.Anything).
		Return("https://github.com/owner/repo/pull/7#review-1", nil).Once()

	cmd := NewAnalyzeCommand(func(ctx context.Context) (Service, error) {
		return service, nil
	}).CreateCommand(translations, cfg)

	app := &cli.Command{Commands: []*cli.Command{cmd}}
	err := app.Run(context.Background(), []string{"matereview", "analyze", "--repo", "owner/repo", "--pr", "7", "--post-comments"})

	require.NoError(t, err)
	service.AssertExpectations(t)
}

func TestAnalyzeCommandServiceError(t *testing.T) {
	translations, cfg := setupTest(t)

	service := new(MockService)
	service.On("AnalyzePR", mock.Anything, "", "owner/repo", 7).
		Return(models.Analysis{}, errors.New("fetch failed")).Once()

	cmd := NewAnalyzeCommand(func(ctx context.Context) (Service, error) {
		return service, nil
	}).CreateCommand(translations, cfg)

	app := &cli.Command{Commands: []*cli.Command{cmd}}
	err := app.Run(context.Background(), []string{"matereview", "analyze", "--repo", "owner/repo", "--pr", "7"})

	assert.ErrorContains(t, err, "fetch failed")
}

func TestAnalyzeCommandProviderFailure(t *testing.T) {
	translations, cfg := setupTest(t)

	cmd := NewAnalyzeCommand(func(ctx context.Context) (Service, error) {
		return nil, errors.New("no providers configured")
	}).CreateCommand(translations, cfg)

	app := &cli.Command{Commands: []*cli.Command{cmd}}
	err := app.Run(context.Background(), []string{"matereview", "analyze", "--repo", "owner/repo", "--pr", "7"})

	assert.ErrorContains(t, err, "no providers configured")
}

func TestAnalyzePRsCommand(t *testing.T) {
	translations, cfg := setupTest(t)

	service := new(MockService)
	service.On("AnalyzePRs", mock.Anything, "gitlab", "group/proj", "merged", 5).
		Return([]models.Analysis{sampleAnalysis("1"), sampleAnalysis("2")}, nil).Once()

	cmd := NewAnalyzePRsCommand(func(ctx context.Context) (Service, error) {
		return service, nil
	}).CreateCommand(translations, cfg)

	app := &cli.Command{Commands: []*cli.Command{cmd}}
	err := app.Run(context.Background(), []string{"matereview", "analyze-prs", "--provider", "gitlab", "--repo", "group/proj", "--state", "merged", "--limit", "5"})

	require.NoError(t, err)
	service.AssertExpectations(t)
}

func TestAnalyzePRsCommandDefaults(t *testing.T) {
	translations, cfg := setupTest(t)

	service := new(MockService)
	service.On("AnalyzePRs", mock.Anything, "", "owner/repo", "open", 10).
		Return([]models.Analysis{}, nil).Once()

	cmd := NewAnalyzePRsCommand(func(ctx context.Context) (Service, error) {
		return service, nil
	}).CreateCommand(translations, cfg)

	app := &cli.Command{Commands: []*cli.Command{cmd}}
	err := app.Run(context.Background(), []string{"matereview", "analyze-prs", "--repo", "owner/repo"})

	require.NoError(t, err)
	service.AssertExpectations(t)
}

func TestAnalyzePRsCommandWritesReports(t *testing.T) {
	translations, cfg := setupTest(t)
	dir := t.TempDir()

	service := new(MockService)
	service.On("AnalyzePRs", mock.Anything, "", "owner/repo", "open", 10).
		Return([]models.Analysis{sampleAnalysis("42")}, nil).Once()

	cmd := NewAnalyzePRsCommand(func(ctx context.Context) (Service, error) {
		return service, nil
	}).CreateCommand(translations, cfg)

	app := &cli.Command{Commands: []*cli.Command{cmd}}
	err := app.Run(context.Background(), []string{"matereview", "analyze-prs", "--repo", "owner/repo", "--output-dir", dir})

	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "pr-42.json"))
	assert.NoError(t, statErr)
}
