// Package agent orchestrates a full PR review: fetch the PR from its
// provider, fan analyzers out over the changed files, aggregate scores and
// produce feedback and a structured report.
package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Tomas-vilte/MateReview/internal/config"
	apperrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/feedback"
	"github.com/Tomas-vilte/MateReview/internal/logger"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/ports"
	"github.com/Tomas-vilte/MateReview/internal/report"
	"github.com/Tomas-vilte/MateReview/internal/scoring"
	"github.com/Tomas-vilte/MateReview/internal/vcs/registry"
)

// PRAgent coordinates adapters and analyzers for review runs. Adapters are
// created lazily per provider and reused until Close.
type PRAgent struct {
	cfg       *config.Config
	registry  *registry.Registry
	analyzers []ports.Analyzer

	mu       sync.Mutex
	adapters map[string]ports.GitHostAdapter
}

func New(cfg *config.Config, reg *registry.Registry, analyzers []ports.Analyzer) *PRAgent {
	return &PRAgent{
		cfg:       cfg,
		registry:  reg,
		analyzers: analyzers,
		adapters:  make(map[string]ports.GitHostAdapter),
	}
}

// Analyzers returns the analyzers this agent runs, in execution order.
func (a *PRAgent) Analyzers() []ports.Analyzer {
	return a.analyzers
}

// adapter returns a connected adapter for provider, building it on first
// use. An empty provider falls back to the configured active one.
func (a *PRAgent) adapter(ctx context.Context, provider string) (ports.GitHostAdapter, error) {
	if provider == "" {
		provider = a.cfg.ActiveVCSProvider
	}
	if provider == "" {
		return nil, apperrors.ErrProviderNotConfigured.
			WithSuggestion("Name a provider with --provider or set active_vcs_provider in the config")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if adapter, ok := a.adapters[provider]; ok {
		return adapter, nil
	}

	vcsCfg, ok := a.cfg.VCSConfigs[provider]
	if !ok {
		return nil, apperrors.ErrProviderNotConfigured.WithContext("provider", provider)
	}

	factory, err := a.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	if err := factory.ValidateConfig(&vcsCfg); err != nil {
		return nil, err
	}

	adapter, err := factory.CreateAdapter(&vcsCfg)
	if err != nil {
		return nil, err
	}
	if err := adapter.Connect(ctx); err != nil {
		return nil, err
	}

	a.adapters[provider] = adapter
	logger.Debug(ctx, "connected provider adapter", "provider", provider)
	return adapter, nil
}

// AnalyzePR runs the full review pipeline for one pull request.
func (a *PRAgent) AnalyzePR(ctx context.Context, provider, repo string, number int) (models.Analysis, error) {
	adapter, err := a.adapter(ctx, provider)
	if err != nil {
		return models.Analysis{}, err
	}

	pr, err := adapter.FetchPR(ctx, repo, number)
	if err != nil {
		return models.Analysis{}, err
	}
	logger.Info(ctx, "fetched pull request",
		"repo", repo, "pr", pr.ID, "files", len(pr.FileChanges))

	files, err := a.analyzeFiles(ctx, adapter, repo, pr)
	if err != nil {
		return models.Analysis{}, err
	}

	return a.buildAnalysis(pr, files), nil
}

// AnalyzePRs reviews up to limit PRs in the given state. A failing PR is
// logged and skipped so one bad PR does not abort the batch; cancellation
// still aborts everything.
func (a *PRAgent) AnalyzePRs(ctx context.Context, provider, repo, state string, limit int) ([]models.Analysis, error) {
	adapter, err := a.adapter(ctx, provider)
	if err != nil {
		return nil, err
	}

	prs, err := adapter.FetchPRs(ctx, repo, state, limit)
	if err != nil {
		return nil, err
	}

	analyses := make([]models.Analysis, 0, len(prs))
	for _, pr := range prs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		files, err := a.analyzeFiles(ctx, adapter, repo, pr)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Warn(ctx, "skipping PR after analysis failure", "pr", pr.ID, "error", err)
			continue
		}
		analyses = append(analyses, a.buildAnalysis(pr, files))
	}
	return analyses, nil
}

type fileResult struct {
	path     string
	analysis models.FileAnalysis
	skipped  bool
}

// analyzeFiles fans the analyzers out over the PR's non-deleted files.
// Results land in an indexed slice so merge order is deterministic
// regardless of completion order.
func (a *PRAgent) analyzeFiles(ctx context.Context, adapter ports.GitHostAdapter, repo string, pr models.PRInfo) (map[string]models.FileAnalysis, error) {
	var targets []models.FileChange
	for _, fc := range pr.FileChanges {
		if fc.ChangeType == models.ChangeDeleted {
			logger.Debug(ctx, "skipping deleted file", "file", fc.Path)
			continue
		}
		targets = append(targets, fc)
	}

	results := make([]fileResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Analysis.MaxConcurrentFiles)

	for i, fc := range targets {
		g.Go(func() error {
			content, err := adapter.GetFileContent(gctx, repo, fc.Path, pr.SourceBranch)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn(gctx, "skipping file, content unavailable", "file", fc.Path, "error", err)
				results[i] = fileResult{path: fc.Path, skipped: true}
				return nil
			}
			results[i] = fileResult{
				path:     fc.Path,
				analysis: a.analyzeFile(gctx, fc.Path, content),
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make(map[string]models.FileAnalysis, len(results))
	for _, res := range results {
		if res.skipped {
			continue
		}
		files[res.path] = res.analysis
	}
	return files, nil
}

// analyzeFile runs every applicable analyzer over one file and merges their
// output. A failing or panicking analyzer is logged and dropped; the other
// analyzers' findings for the file survive.
func (a *PRAgent) analyzeFile(ctx context.Context, path, content string) models.FileAnalysis {
	var issues []models.Issue
	metrics := make(map[string]any)

	for _, analyzer := range a.analyzers {
		if !supportsFile(analyzer, path) {
			continue
		}
		result, err := a.runAnalyzer(ctx, analyzer, path, content)
		if err != nil {
			logger.Warn(ctx, "analyzer failed", "analyzer", analyzer.Name(), "file", path, "error", err)
			continue
		}
		issues = append(issues, result.Issues...)
		for key, value := range result.Metrics {
			metrics[analyzer.Name()+"."+key] = value
		}
	}

	return models.FileAnalysis{
		Issues:  issues,
		Metrics: metrics,
		Score:   scoring.Score(issues, scoring.GenericWeights()),
	}
}

// runAnalyzer bounds one analyzer call by the tool timeout and converts a
// panic into an error so a misbehaving analyzer cannot take the run down.
func (a *PRAgent) runAnalyzer(ctx context.Context, analyzer ports.Analyzer, path, content string) (result models.AnalysisResult, err error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Analysis.ToolTimeout())
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer %s panicked: %v", analyzer.Name(), r)
		}
	}()
	return analyzer.Analyze(callCtx, path, content)
}

func supportsFile(analyzer ports.Analyzer, path string) bool {
	ext := filepath.Ext(path)
	for _, supported := range analyzer.SupportedExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}

func (a *PRAgent) buildAnalysis(pr models.PRInfo, files map[string]models.FileAnalysis) models.Analysis {
	// Merge per-file issues in path order so the report's issue list is
	// identical across runs even when issues tie on severity and line.
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var allIssues []models.Issue
	for _, path := range paths {
		allIssues = append(allIssues, files[path].Issues...)
	}

	overall := scoring.Score(allIssues, scoring.GenericWeights())

	return models.Analysis{
		PR:               pr,
		Files:            files,
		OverallScore:     overall,
		TotalIssues:      len(allIssues),
		IssuesBySeverity: scoring.GroupBySeverity(allIssues),
		Feedback:         feedback.Generate(pr, files, allIssues, overall),
		Report:           report.Generate(pr, files, allIssues, overall),
	}
}

// PostReview publishes the analysis back to the PR. High and critical
// issues become inline comments in one review; when there are none a single
// general comment with the summary is posted instead.
func (a *PRAgent) PostReview(ctx context.Context, provider, repo string, number int, analysis models.Analysis) (string, error) {
	adapter, err := a.adapter(ctx, provider)
	if err != nil {
		return "", err
	}

	var comments []models.ReviewComment
	for _, issue := range analysis.Report.Issues {
		if issue.Severity != models.SeverityCritical && issue.Severity != models.SeverityHigh {
			continue
		}
		comments = append(comments, models.ReviewComment{
			FilePath:   issue.FilePath,
			LineNumber: issue.LineNumber,
			Body:       formatIssueComment(issue),
		})
	}

	if len(comments) > 0 {
		logger.Info(ctx, "posting review", "repo", repo, "pr", number, "comments", len(comments))
		return adapter.CreateReview(ctx, repo, number, comments, "COMMENT")
	}

	logger.Info(ctx, "posting summary comment", "repo", repo, "pr", number)
	return adapter.PostComment(ctx, repo, number, analysis.Feedback.Summary, "", 0)
}

func formatIssueComment(issue models.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**: %s", strings.ToUpper(string(issue.Severity)), issue.Message)
	if issue.Suggestion != "" {
		fmt.Fprintf(&b, "\n\n%s", issue.Suggestion)
	}
	return b.String()
}

// Close releases every adapter the agent connected. Safe to call more than
// once.
func (a *PRAgent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for name, adapter := range a.adapters {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(a.adapters, name)
	}
	return errors.Join(errs...)
}
