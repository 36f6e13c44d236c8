// Package security scans changed files for vulnerabilities with bandit plus
// pattern-based checks that work across languages.
package security

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Tomas-vilte/MateReview/internal/analyzers/toolexec"
	"github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/logger"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/ports"
	"github.com/Tomas-vilte/MateReview/internal/scoring"
)

var _ ports.Analyzer = (*Analyzer)(nil)

type Analyzer struct {
	cfg     config.AnalysisConfig
	weights scoring.WeightTable
}

func New(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{
		cfg:     cfg,
		weights: scoring.SecurityWeights(),
	}
}

func (a *Analyzer) Name() string { return "security" }

func (a *Analyzer) SupportedExtensions() []string {
	return []string{".py", ".js", ".ts", ".java", ".go", ".php", ".rb"}
}

func (a *Analyzer) Analyze(ctx context.Context, filePath, content string) (models.AnalysisResult, error) {
	var issues []models.Issue

	if a.cfg.EnableSecurityScan && strings.HasSuffix(filePath, ".py") {
		issues = append(issues, a.runScanner(ctx, filePath, content)...)
	}

	issues = append(issues, patternChecks(filePath, content)...)

	score := scoring.Score(issues, a.weights)
	metrics := map[string]any{"security_score": score}

	return models.AnalysisResult{
		FilePath: filePath,
		Issues:   issues,
		Metrics:  metrics,
		Score:    score,
		Summary:  summarize(issues, score),
	}, nil
}

type banditResult struct {
	LineNumber    int    `json:"line_number"`
	IssueSeverity string `json:"issue_severity"`
	IssueText     string `json:"issue_text"`
	TestID        string `json:"test_id"`
	Confidence    string `json:"issue_confidence"`
}

var banditSeverity = map[string]models.Severity{
	"HIGH":   models.SeverityHigh,
	"MEDIUM": models.SeverityMedium,
	"LOW":    models.SeverityLow,
}

// runScanner shells out to bandit. Tool failures degrade to zero scanner
// findings, the pattern checks still run.
func (a *Analyzer) runScanner(ctx context.Context, filePath, content string) []models.Issue {
	if !toolexec.Available(a.cfg.SecurityCommand) {
		logger.Debug(ctx, "security scanner not found, skipping", "command", a.cfg.SecurityCommand)
		return nil
	}

	output, err := toolexec.Run(ctx, a.cfg.SecurityCommand, []string{"-f", "json", "-q"}, filePath, content)
	if err != nil {
		logger.Debug(ctx, "security scan failed", "command", a.cfg.SecurityCommand, "error", err)
		return nil
	}

	var payload struct {
		Results []banditResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		logger.Debug(ctx, "unparseable scanner output", "command", a.cfg.SecurityCommand, "error", err)
		return nil
	}

	issues := make([]models.Issue, 0, len(payload.Results))
	for _, r := range payload.Results {
		severity, ok := banditSeverity[r.IssueSeverity]
		if !ok {
			severity = models.SeverityMedium
		}
		issues = append(issues, models.Issue{
			FilePath:   filePath,
			LineNumber: r.LineNumber,
			Severity:   severity,
			IssueType:  models.IssueSecurity,
			Message:    r.IssueText,
			RuleID:     r.TestID,
			Suggestion: r.Confidence,
		})
	}
	return issues
}

type patternRule struct {
	pattern    *regexp.Regexp
	message    string
	severity   models.Severity
	ruleID     string
	suggestion string
}

var patternRules = []patternRule{
	{regexp.MustCompile(`(?i)password\s*=\s*["'][^"']+["']`), "Hardcoded password", models.SeverityHigh, "hardcoded-secret", "Use environment variables or secure configuration management"},
	{regexp.MustCompile(`(?i)api_key\s*=\s*["'][^"']+["']`), "Hardcoded API key", models.SeverityHigh, "hardcoded-secret", "Use environment variables or secure configuration management"},
	{regexp.MustCompile(`(?i)secret\s*=\s*["'][^"']+["']`), "Hardcoded secret", models.SeverityHigh, "hardcoded-secret", "Use environment variables or secure configuration management"},
	{regexp.MustCompile(`(?i)token\s*=\s*["'][^"']+["']`), "Hardcoded token", models.SeverityHigh, "hardcoded-secret", "Use environment variables or secure configuration management"},
	{regexp.MustCompile(`(?i)private_key\s*=\s*["'][^"']+["']`), "Hardcoded private key", models.SeverityHigh, "hardcoded-secret", "Use environment variables or secure configuration management"},
	{regexp.MustCompile(`(?i)execute\s*\(\s*["'].*%s.*["']`), "Potential SQL injection", models.SeverityHigh, "sql-injection", "Use parameterized queries or ORM methods"},
	{regexp.MustCompile(`(?i)query\s*\(\s*["'].*\+.*["']`), "String concatenation in SQL query", models.SeverityHigh, "sql-injection", "Use parameterized queries or ORM methods"},
	{regexp.MustCompile(`os\.system\s*\(`), "Unsafe system call", models.SeverityMedium, "unsafe-operation", "Use safer alternatives and validate inputs"},
	{regexp.MustCompile(`\beval\s*\(`), "Unsafe eval usage", models.SeverityMedium, "unsafe-operation", "Use safer alternatives and validate inputs"},
	{regexp.MustCompile(`\bexec\s*\(`), "Unsafe exec usage", models.SeverityMedium, "unsafe-operation", "Use safer alternatives and validate inputs"},
	{regexp.MustCompile(`request\.args\[`), "Direct access to request arguments", models.SeverityMedium, "missing-validation", "Add input validation and sanitization"},
	{regexp.MustCompile(`request\.form\[`), "Direct access to form data", models.SeverityMedium, "missing-validation", "Add input validation and sanitization"},
	{regexp.MustCompile(`request\.json\[`), "Direct access to JSON data", models.SeverityMedium, "missing-validation", "Add input validation and sanitization"},
}

func patternChecks(filePath, content string) []models.Issue {
	var issues []models.Issue
	for i, line := range strings.Split(content, "\n") {
		for _, rule := range patternRules {
			if rule.pattern.MatchString(line) {
				issues = append(issues, models.Issue{
					FilePath:    filePath,
					LineNumber:  i + 1,
					Severity:    rule.severity,
					IssueType:   models.IssueSecurity,
					Message:     rule.message,
					RuleID:      rule.ruleID,
					Suggestion:  rule.suggestion,
					CodeSnippet: strings.TrimSpace(line),
				})
			}
		}
	}
	return issues
}

func summarize(issues []models.Issue, score float64) string {
	if len(issues) == 0 {
		return "No security issues found. Code appears secure!"
	}
	counts := scoring.GroupBySeverity(issues)
	var parts []string
	for _, severity := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if counts[severity] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s security issues", counts[severity], severity))
		}
	}
	return fmt.Sprintf("Found %d security issues: %s. Security score: %g/100", len(issues), strings.Join(parts, ", "), score)
}
