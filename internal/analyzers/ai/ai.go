// Package ai runs an AI-backed review of changed files and turns the
// model's structured answer into issues.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Tomas-vilte/MateReview/internal/cache"
	"github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/logger"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/ports"
	"github.com/Tomas-vilte/MateReview/internal/scoring"
)

var _ ports.Analyzer = (*Analyzer)(nil)

type Analyzer struct {
	cfg      config.AIConfig
	provider ports.AIProvider
	cache    *cache.Cache
	weights  scoring.WeightTable
}

// New builds the AI analyzer. Both provider and cache may be nil: without a
// provider the analyzer reports itself as disabled, without a cache every
// call goes to the API.
func New(cfg config.AIConfig, provider ports.AIProvider, c *cache.Cache) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		provider: provider,
		cache:    c,
		weights:  scoring.GenericWeights(),
	}
}

func (a *Analyzer) Name() string { return "ai" }

func (a *Analyzer) SupportedExtensions() []string {
	return []string{".py", ".js", ".ts", ".java", ".go", ".php", ".rb", ".cpp", ".c", ".h", ".cs", ".swift", ".kt"}
}

func (a *Analyzer) Analyze(ctx context.Context, filePath, content string) (models.AnalysisResult, error) {
	if !a.cfg.Enabled || a.provider == nil {
		return models.AnalysisResult{
			FilePath: filePath,
			Issues:   []models.Issue{},
			Metrics:  map[string]any{},
			Score:    100.0,
			Summary:  "AI analysis disabled",
		}, nil
	}

	prompt := a.buildPrompt(filePath, content)

	response, err := a.generate(ctx, prompt)
	if err != nil {
		// A provider failure must not sink the whole review.
		logger.Warn(ctx, "AI analysis failed", "file", filePath, "error", err)
		return models.AnalysisResult{
			FilePath: filePath,
			Issues:   []models.Issue{},
			Metrics:  map[string]any{"ai_error": err.Error()},
			Score:    100.0,
			Summary:  fmt.Sprintf("AI analysis failed: %v", err),
		}, nil
	}

	issues := a.parseResponse(response, filePath)
	metrics := calculateMetrics(issues)
	score := scoring.Score(issues, a.weights)

	return models.AnalysisResult{
		FilePath: filePath,
		Issues:   issues,
		Metrics:  metrics,
		Score:    score,
		Summary:  summarize(issues, metrics),
	}, nil
}

// generate fetches the review response, consulting the cache keyed by the
// full prompt (path, focus areas and content all feed the key).
func (a *Analyzer) generate(ctx context.Context, prompt string) (string, error) {
	var hash string
	if a.cache != nil {
		hash = a.cache.GenerateHash(a.provider.ProviderName() + ":" + a.provider.ModelName() + ":" + prompt)
		if raw, found, err := a.cache.Get(hash); err == nil && found {
			var cached string
			if err := json.Unmarshal(raw, &cached); err == nil {
				logger.Debug(ctx, "AI response served from cache", "hash", hash)
				return cached, nil
			}
		}
	}

	response, err := a.provider.GenerateReview(ctx, prompt)
	if err != nil {
		return "", err
	}

	if a.cache != nil {
		if err := a.cache.Set(hash, response); err != nil {
			logger.Debug(ctx, "failed to cache AI response", "error", err)
		}
	}

	return response, nil
}

func (a *Analyzer) buildPrompt(filePath, content string) string {
	var features []string
	if a.cfg.EnablePerformanceSuggestions {
		features = append(features, "performance optimization")
	}
	if a.cfg.EnableSecurityAnalysis {
		features = append(features, "security vulnerabilities")
	}
	if a.cfg.EnableReadabilityImprovements {
		features = append(features, "code readability and maintainability")
	}

	return fmt.Sprintf(`Analyze the following code file: %s

Focus on: %s

Code:
`+"```"+`
%s
`+"```"+`

Please provide your analysis in the following JSON format:
{
    "issues": [
        {
            "line_number": 1,
            "severity": "low|medium|high|critical",
            "issue_type": "bug|security|performance|maintainability|style",
            "message": "Description of the issue",
            "suggestion": "How to fix or improve",
            "rule_id": "unique-rule-id"
        }
    ],
    "summary": "Overall assessment of the code"
}

Be thorough but concise. Focus on actionable improvements.`, filePath, strings.Join(features, ", "), content)
}

type aiIssue struct {
	LineNumber int    `json:"line_number"`
	Severity   string `json:"severity"`
	IssueType  string `json:"issue_type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
	RuleID     string `json:"rule_id"`
}

type aiResponse struct {
	Issues  []aiIssue `json:"issues"`
	Summary string    `json:"summary"`
}

var severityNames = map[string]models.Severity{
	"low":      models.SeverityLow,
	"medium":   models.SeverityMedium,
	"high":     models.SeverityHigh,
	"critical": models.SeverityCritical,
}

var issueTypeNames = map[string]models.IssueType{
	"bug":             models.IssueBug,
	"security":        models.IssueSecurity,
	"performance":     models.IssuePerformance,
	"maintainability": models.IssueMaintainability,
	"style":           models.IssueStyle,
}

// parseResponse extracts the JSON object from the model's answer. Anything
// outside the outermost braces (markdown fences, prose) is discarded. An
// unparseable answer degrades to one low-severity marker issue.
func (a *Analyzer) parseResponse(response, filePath string) []models.Issue {
	parseError := []models.Issue{{
		FilePath:   filePath,
		LineNumber: 1,
		Severity:   models.SeverityLow,
		IssueType:  models.IssueMaintainability,
		Message:    "AI analysis completed but response format was unexpected",
		RuleID:     "ai-parse-error",
		Suggestion: "Check AI response format",
	}}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return parseError
	}

	var parsed aiResponse
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return parseError
	}

	issues := make([]models.Issue, 0, len(parsed.Issues))
	for _, raw := range parsed.Issues {
		severity, ok := severityNames[raw.Severity]
		if !ok {
			severity = models.SeverityMedium
		}
		issueType, ok := issueTypeNames[raw.IssueType]
		if !ok {
			issueType = models.IssueMaintainability
		}

		lineNumber := raw.LineNumber
		if lineNumber < 1 {
			lineNumber = 1
		}
		message := raw.Message
		if message == "" {
			message = "AI detected issue"
		}
		ruleID := raw.RuleID
		if ruleID == "" {
			ruleID = "ai-analysis"
		}

		issues = append(issues, models.Issue{
			FilePath:   filePath,
			LineNumber: lineNumber,
			Severity:   severity,
			IssueType:  issueType,
			Message:    message,
			RuleID:     ruleID,
			Suggestion: raw.Suggestion,
		})
	}

	return issues
}

// calculateMetrics reports a confidence figure based on severity spread and
// a coarse quality label based on issue count.
func calculateMetrics(issues []models.Issue) map[string]any {
	metrics := map[string]any{}

	if len(issues) == 0 {
		metrics["ai_confidence"] = 100.0
		metrics["ai_analysis_quality"] = "excellent"
		return metrics
	}

	counts := scoring.GroupBySeverity(issues)
	diversity := float64(len(counts)) / 4.0
	confidence := diversity * 100
	if confidence > 100 {
		confidence = 100
	}
	metrics["ai_confidence"] = confidence

	switch {
	case len(issues) <= 3:
		metrics["ai_analysis_quality"] = "good"
	case len(issues) <= 7:
		metrics["ai_analysis_quality"] = "fair"
	default:
		metrics["ai_analysis_quality"] = "needs_improvement"
	}

	return metrics
}

func summarize(issues []models.Issue, metrics map[string]any) string {
	if len(issues) == 0 {
		return "AI analysis found no issues. Code appears to be well-written!"
	}

	counts := scoring.GroupBySeverity(issues)
	var parts []string
	for _, severity := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if counts[severity] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s issues", counts[severity], severity))
		}
	}

	summary := fmt.Sprintf("AI analysis found %d issues: %s", len(issues), strings.Join(parts, ", "))
	if confidence, ok := metrics["ai_confidence"].(float64); ok {
		summary += fmt.Sprintf(". AI confidence: %.1f%%", confidence)
	}
	if quality, ok := metrics["ai_analysis_quality"].(string); ok {
		summary += ". Analysis quality: " + quality
	}
	return summary
}
