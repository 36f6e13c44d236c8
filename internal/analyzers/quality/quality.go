// Package quality analyzes Python code quality with pylint plus a set of
// built-in heuristics that need no external tooling.
package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
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
		weights: scoring.GenericWeights(),
	}
}

func (a *Analyzer) Name() string { return "quality" }

func (a *Analyzer) SupportedExtensions() []string { return []string{".py"} }

func (a *Analyzer) Analyze(ctx context.Context, filePath, content string) (models.AnalysisResult, error) {
	var issues []models.Issue
	metrics := make(map[string]any)

	if a.cfg.EnableLint {
		issues = append(issues, a.runLinter(ctx, filePath, content)...)
	}

	complexity := estimateComplexity(content)
	metrics["cyclomatic_complexity"] = complexity
	if complexity > a.cfg.MinComplexityScore {
		issues = append(issues, models.Issue{
			FilePath:   filePath,
			LineNumber: 1,
			Severity:   models.SeverityMedium,
			IssueType:  models.IssueMaintainability,
			Message:    fmt.Sprintf("High cyclomatic complexity: %d", complexity),
			RuleID:     "high-complexity",
			Suggestion: fmt.Sprintf("Consider breaking down this function. Current complexity: %d", complexity),
		})
	}

	issues = append(issues, a.checkLongFunctions(filePath, content)...)
	issues = append(issues, a.checkDuplicateCalls(filePath, content)...)
	issues = append(issues, a.checkLineLengths(filePath, content)...)

	metrics["lines_of_code"] = len(strings.Split(content, "\n"))

	return models.AnalysisResult{
		FilePath: filePath,
		Issues:   issues,
		Metrics:  metrics,
		Score:    scoring.Score(issues, a.weights),
		Summary:  summarize(issues, complexity),
	}, nil
}

type pylintMessage struct {
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	MessageID string `json:"message-id"`
}

var pylintSeverity = map[string]models.Severity{
	"error":      models.SeverityHigh,
	"warning":    models.SeverityMedium,
	"info":       models.SeverityLow,
	"refactor":   models.SeverityLow,
	"convention": models.SeverityLow,
}

// runLinter shells out to pylint. Any tool failure degrades to zero lint
// findings, the heuristic checks still run.
func (a *Analyzer) runLinter(ctx context.Context, filePath, content string) []models.Issue {
	if !toolexec.Available(a.cfg.LintCommand) {
		logger.Debug(ctx, "lint command not found, skipping", "command", a.cfg.LintCommand)
		return nil
	}

	output, err := toolexec.Run(ctx, a.cfg.LintCommand, []string{"--output-format=json"}, filePath, content)
	if err != nil {
		logger.Debug(ctx, "lint run failed", "command", a.cfg.LintCommand, "error", err)
		return nil
	}

	var messages []pylintMessage
	if err := json.Unmarshal([]byte(output), &messages); err != nil {
		logger.Debug(ctx, "unparseable lint output", "command", a.cfg.LintCommand, "error", err)
		return nil
	}

	issues := make([]models.Issue, 0, len(messages))
	for _, msg := range messages {
		severity, ok := pylintSeverity[msg.Type]
		if !ok {
			severity = models.SeverityMedium
		}
		issues = append(issues, models.Issue{
			FilePath:     filePath,
			LineNumber:   msg.Line,
			ColumnNumber: msg.Column,
			Severity:     severity,
			IssueType:    models.IssueMaintainability,
			Message:      msg.Message,
			RuleID:       msg.MessageID,
		})
	}
	return issues
}

var branchPattern = regexp.MustCompile(`(?m)^\s*(if |elif |while |for |except[ :])|( and | or )`)

// estimateComplexity approximates cyclomatic complexity by counting branch
// points in the source text.
func estimateComplexity(content string) int {
	return 1 + len(branchPattern.FindAllString(content, -1))
}

var defPattern = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)`)

// checkLongFunctions walks def blocks by indentation and flags bodies longer
// than the configured limit.
func (a *Analyzer) checkLongFunctions(filePath, content string) []models.Issue {
	var issues []models.Issue
	lines := strings.Split(content, "\n")

	for i := 0; i < len(lines); i++ {
		match := defPattern.FindStringSubmatch(lines[i])
		if match == nil {
			continue
		}
		indent := len(match[1])
		name := match[2]

		length := 1
		for j := i + 1; j < len(lines); j++ {
			trimmed := strings.TrimSpace(lines[j])
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				length++
				continue
			}
			if indentOf(lines[j]) <= indent {
				break
			}
			length++
		}

		if length > a.cfg.MaxFunctionLines {
			issues = append(issues, models.Issue{
				FilePath:   filePath,
				LineNumber: i + 1,
				Severity:   models.SeverityLow,
				IssueType:  models.IssueMaintainability,
				Message:    fmt.Sprintf("Long function '%s': %d lines", name, length),
				RuleID:     "long-function",
				Suggestion: "Consider breaking this function into smaller functions",
			})
		}
	}
	return issues
}

var callPattern = regexp.MustCompile(`\b([a-zA-Z_]\w*)\(`)

var callKeywords = map[string]bool{
	"if": true, "elif": true, "while": true, "for": true,
	"def": true, "class": true, "return": true, "print": true,
}

// checkDuplicateCalls counts repeated call targets as a cheap duplication
// signal.
func (a *Analyzer) checkDuplicateCalls(filePath, content string) []models.Issue {
	counts := make(map[string]int)
	for _, match := range callPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if callKeywords[name] {
			continue
		}
		counts[name]++
	}

	names := make([]string, 0, len(counts))
	for name, count := range counts {
		if count > a.cfg.DuplicateCallThreshold {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	issues := make([]models.Issue, 0, len(names))
	for _, name := range names {
		issues = append(issues, models.Issue{
			FilePath:   filePath,
			LineNumber: 1,
			Severity:   models.SeverityLow,
			IssueType:  models.IssueMaintainability,
			Message:    fmt.Sprintf("Potential code duplication: call:%s appears %d times", name, counts[name]),
			RuleID:     "duplicate-code",
			Suggestion: "Consider extracting common code into a function",
		})
	}
	return issues
}

func (a *Analyzer) checkLineLengths(filePath, content string) []models.Issue {
	var issues []models.Issue
	for i, line := range strings.Split(content, "\n") {
		if len(line) > a.cfg.MaxLineLength {
			issues = append(issues, models.Issue{
				FilePath:   filePath,
				LineNumber: i + 1,
				Severity:   models.SeverityLow,
				IssueType:  models.IssueStyle,
				Message:    fmt.Sprintf("Line too long: %d characters", len(line)),
				RuleID:     "line-too-long",
				Suggestion: fmt.Sprintf("Break this line into multiple lines (max %d characters)", a.cfg.MaxLineLength),
			})
		}
	}
	return issues
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func summarize(issues []models.Issue, complexity int) string {
	if len(issues) == 0 {
		return "No quality issues found. Code looks good!"
	}
	counts := scoring.GroupBySeverity(issues)
	var parts []string
	for _, severity := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if counts[severity] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s issues", counts[severity], severity))
		}
	}
	return fmt.Sprintf("Found %d issues: %s. Complexity: %d", len(issues), strings.Join(parts, ", "), complexity)
}
