package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Tomas-vilte/MateReview/internal/config"
	apperrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/ports"
	"github.com/Tomas-vilte/MateReview/internal/vcs/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAdapter) FetchPR(ctx context.Context, repo string, number int) (models.PRInfo, error) {
	args := m.Called(ctx, repo, number)
	return args.Get(0).(models.PRInfo), args.Error(1)
}

func (m *MockAdapter) FetchPRs(ctx context.Context, repo, state string, limit int) ([]models.PRInfo, error) {
	args := m.Called(ctx, repo, state, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PRInfo), args.Error(1)
}

func (m *MockAdapter) PostComment(ctx context.Context, repo string, number int, body, filePath string, lineNumber int) (string, error) {
	args := m.Called(ctx, repo, number, body, filePath, lineNumber)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) GetFileContent(ctx context.Context, repo, path, ref string) (string, error) {
	args := m.Called(ctx, repo, path, ref)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) CreateReview(ctx context.Context, repo string, number int, comments []models.ReviewComment, event string) (string, error) {
	args := m.Called(ctx, repo, number, comments, event)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) Close() error {
	args := m.Called()
	return args.Error(0)
}

type stubFactory struct {
	name    string
	adapter ports.GitHostAdapter
}

func (f *stubFactory) Name() string                                  { return f.name }
func (f *stubFactory) ValidateConfig(cfg *config.VCSConfig) error    { return nil }
func (f *stubFactory) CreateAdapter(cfg *config.VCSConfig) (ports.GitHostAdapter, error) {
	return f.adapter, nil
}

type stubAnalyzer struct {
	name   string
	exts   []string
	issues []models.Issue
	err    error
	panics bool
	calls  int
}

func (s *stubAnalyzer) Name() string                  { return s.name }
func (s *stubAnalyzer) SupportedExtensions() []string { return s.exts }

func (s *stubAnalyzer) Analyze(ctx context.Context, filePath, content string) (models.AnalysisResult, error) {
	s.calls++
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return models.AnalysisResult{}, s.err
	}
	issues := make([]models.Issue, len(s.issues))
	copy(issues, s.issues)
	for i := range issues {
		issues[i].FilePath = filePath
	}
	return models.AnalysisResult{
		FilePath: filePath,
		Issues:   issues,
		Metrics:  map[string]any{"ran": true},
	}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ActiveVCSProvider = "github"
	cfg.VCSConfigs = map[string]config.VCSConfig{
		"github": {Token: "tok"},
	}
	return cfg
}

func newTestAgent(t *testing.T, adapter ports.GitHostAdapter, analyzers ...ports.Analyzer) *PRAgent {
	t.Helper()
	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(&stubFactory{name: "github", adapter: adapter}))
	return New(testConfig(), reg, analyzers)
}

func openPR(files ...models.FileChange) models.PRInfo {
	return models.PRInfo{
		ID:           "7",
		Title:        "test pr",
		Author:       "dev",
		Status:       models.PRStatusOpen,
		SourceBranch: "feature",
		TargetBranch: "main",
		FileChanges:  files,
	}
}

func TestAnalyzePRHappyPath(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil)
	pr := openPR(
		models.FileChange{Path: "app.py", ChangeType: models.ChangeModified},
		models.FileChange{Path: "old.py", ChangeType: models.ChangeDeleted},
	)
	adapter.On("FetchPR", mock.Anything, "org/repo", 7).Return(pr, nil)
	adapter.On("GetFileContent", mock.Anything, "org/repo", "app.py", "feature").Return("print('hi')\n", nil)

	analyzer := &stubAnalyzer{
		name: "quality",
		exts: []string{".py"},
		issues: []models.Issue{
			{LineNumber: 1, Severity: models.SeverityLow, IssueType: models.IssueStyle, Message: "nit"},
		},
	}

	a := newTestAgent(t, adapter, analyzer)
	analysis, err := a.AnalyzePR(context.Background(), "", "org/repo", 7)
	require.NoError(t, err)

	// deleted file excluded, modified file analyzed
	assert.Len(t, analysis.Files, 1)
	assert.Contains(t, analysis.Files, "app.py")
	assert.Equal(t, 1, analysis.TotalIssues)
	assert.Equal(t, 93.33, analysis.OverallScore)
	assert.Equal(t, true, analysis.Files["app.py"].Metrics["quality.ran"])
	assert.NotEmpty(t, analysis.Feedback.Summary)
	assert.Equal(t, "7", analysis.Report.Metadata.PRID)
	adapter.AssertNotCalled(t, "GetFileContent", mock.Anything, "org/repo", "old.py", mock.Anything)
}

func TestAnalyzePRAdapterReused(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil).Once()
	adapter.On("FetchPR", mock.Anything, "org/repo", mock.Anything).Return(openPR(), nil)

	a := newTestAgent(t, adapter)
	_, err := a.AnalyzePR(context.Background(), "github", "org/repo", 1)
	require.NoError(t, err)
	_, err = a.AnalyzePR(context.Background(), "github", "org/repo", 2)
	require.NoError(t, err)

	adapter.AssertNumberOfCalls(t, "Connect", 1)
}

func TestAnalyzePRUnconfiguredProvider(t *testing.T) {
	a := newTestAgent(t, new(MockAdapter))

	_, err := a.AnalyzePR(context.Background(), "gitlab", "org/repo", 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestAnalyzeFileAnalyzerFailureIsolated(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil)
	pr := openPR(models.FileChange{Path: "app.py", ChangeType: models.ChangeModified})
	adapter.On("FetchPR", mock.Anything, "org/repo", 7).Return(pr, nil)
	adapter.On("GetFileContent", mock.Anything, "org/repo", "app.py", "feature").Return("x = 1\n", nil)

	broken := &stubAnalyzer{name: "broken", exts: []string{".py"}, err: errors.New("tool exploded")}
	panicky := &stubAnalyzer{name: "panicky", exts: []string{".py"}, panics: true}
	healthy := &stubAnalyzer{
		name:   "healthy",
		exts:   []string{".py"},
		issues: []models.Issue{{LineNumber: 1, Severity: models.SeverityMedium, Message: "found"}},
	}

	a := newTestAgent(t, adapter, broken, panicky, healthy)
	analysis, err := a.AnalyzePR(context.Background(), "", "org/repo", 7)
	require.NoError(t, err)

	require.Equal(t, 1, analysis.TotalIssues)
	assert.Equal(t, "found", analysis.Files["app.py"].Issues[0].Message)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, panicky.calls)
}

func TestAnalyzeFileContentFetchFailureSkipsFile(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil)
	pr := openPR(
		models.FileChange{Path: "good.py", ChangeType: models.ChangeModified},
		models.FileChange{Path: "gone.py", ChangeType: models.ChangeModified},
	)
	adapter.On("FetchPR", mock.Anything, "org/repo", 7).Return(pr, nil)
	adapter.On("GetFileContent", mock.Anything, "org/repo", "good.py", "feature").Return("ok\n", nil)
	adapter.On("GetFileContent", mock.Anything, "org/repo", "gone.py", "feature").Return("", errors.New("404"))

	a := newTestAgent(t, adapter, &stubAnalyzer{name: "quality", exts: []string{".py"}})
	analysis, err := a.AnalyzePR(context.Background(), "", "org/repo", 7)
	require.NoError(t, err)

	assert.Len(t, analysis.Files, 1)
	assert.Contains(t, analysis.Files, "good.py")
}

func TestAnalyzePRCancellationAborts(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil)
	pr := openPR(models.FileChange{Path: "app.py", ChangeType: models.ChangeModified})
	adapter.On("FetchPR", mock.Anything, "org/repo", 7).Return(pr, nil)
	adapter.On("GetFileContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newTestAgent(t, adapter, &stubAnalyzer{name: "quality", exts: []string{".py"}})
	_, err := a.AnalyzePR(ctx, "", "org/repo", 7)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzePRsBatch(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil)
	prs := []models.PRInfo{
		openPR(models.FileChange{Path: "a.py", ChangeType: models.ChangeModified}),
		openPR(),
	}
	prs[0].ID = "1"
	prs[1].ID = "2"
	adapter.On("FetchPRs", mock.Anything, "org/repo", "open", 10).Return(prs, nil)
	adapter.On("GetFileContent", mock.Anything, "org/repo", "a.py", "feature").Return("x\n", nil)

	a := newTestAgent(t, adapter, &stubAnalyzer{name: "quality", exts: []string{".py"}})
	analyses, err := a.AnalyzePRs(context.Background(), "", "org/repo", "open", 10)
	require.NoError(t, err)

	assert.Len(t, analyses, 2)
	assert.Equal(t, "1", analyses[0].PR.ID)
	assert.Equal(t, "2", analyses[1].PR.ID)
}

func TestPostReviewInlineForHighSeverity(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil)

	analysis := models.Analysis{
		Report: models.Report{
			Issues: []models.Issue{
				{FilePath: "app.py", LineNumber: 3, Severity: models.SeverityCritical, Message: "secret", Suggestion: "rotate it"},
				{FilePath: "app.py", LineNumber: 9, Severity: models.SeverityLow, Message: "nit"},
			},
		},
	}

	adapter.On("CreateReview", mock.Anything, "org/repo", 7,
		mock.MatchedBy(func(comments []models.ReviewComment) bool {
			return len(comments) == 1 &&
				comments[0].LineNumber == 3 &&
				comments[0].Body == "**CRITICAL**: secret\n\nrotate it"
		}), "COMMENT").Return("https://example.com/review/1", nil)

	a := newTestAgent(t, adapter)
	url, err := a.PostReview(context.Background(), "", "org/repo", 7, analysis)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/review/1", url)
	adapter.AssertNotCalled(t, "PostComment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostReviewFallsBackToSummaryComment(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil)

	analysis := models.Analysis{
		Feedback: models.Feedback{Summary: "all good"},
		Report: models.Report{
			Issues: []models.Issue{
				{FilePath: "app.py", LineNumber: 9, Severity: models.SeverityMedium, Message: "meh"},
			},
		},
	}

	adapter.On("PostComment", mock.Anything, "org/repo", 7, "all good", "", 0).
		Return("https://example.com/comment/1", nil)

	a := newTestAgent(t, adapter)
	url, err := a.PostReview(context.Background(), "", "org/repo", 7, analysis)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/comment/1", url)
	adapter.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCloseReleasesAdapters(t *testing.T) {
	adapter := new(MockAdapter)
	adapter.On("Connect", mock.Anything).Return(nil)
	adapter.On("FetchPR", mock.Anything, mock.Anything, mock.Anything).Return(openPR(), nil)
	adapter.On("Close").Return(nil).Once()

	a := newTestAgent(t, adapter)
	_, err := a.AnalyzePR(context.Background(), "", "org/repo", 1)
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	adapter.AssertNumberOfCalls(t, "Close", 1)
}

func TestBuildAnalysisIssueOrderStableAcrossRuns(t *testing.T) {
	a := newTestAgent(t, new(MockAdapter))

	// Many files whose issues all tie on severity and line, so ordering
	// falls through to the file-path merge order.
	files := make(map[string]models.FileAnalysis)
	var wantPaths []string
	for i := 0; i < 8; i++ {
		path := fmt.Sprintf("f%d.py", i)
		wantPaths = append(wantPaths, path)
		files[path] = models.FileAnalysis{
			Issues: []models.Issue{{
				FilePath:   path,
				LineNumber: 1,
				Severity:   models.SeverityLow,
				IssueType:  models.IssueStyle,
				Message:    "mixed tabs and spaces",
				RuleID:     "mixed-indentation",
			}},
			Score: 90,
		}
	}

	first := a.buildAnalysis(openPR(), files)
	gotPaths := make([]string, 0, len(first.Report.Issues))
	for _, issue := range first.Report.Issues {
		gotPaths = append(gotPaths, issue.FilePath)
	}
	assert.Equal(t, wantPaths, gotPaths)

	for i := 0; i < 20; i++ {
		again := a.buildAnalysis(openPR(), files)
		require.Equal(t, first.Report.Issues, again.Report.Issues)
	}
}
