// Package style checks formatting conventions with black plus custom checks
// that apply to any language.
package style

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
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
		weights: scoring.StyleWeights(),
	}
}

func (a *Analyzer) Name() string { return "style" }

func (a *Analyzer) SupportedExtensions() []string {
	return []string{".py", ".js", ".ts", ".java", ".go", ".php", ".rb", ".cpp", ".c", ".h"}
}

func (a *Analyzer) Analyze(ctx context.Context, filePath, content string) (models.AnalysisResult, error) {
	var issues []models.Issue

	if a.cfg.EnableFormatCheck && strings.HasSuffix(filePath, ".py") {
		issues = append(issues, a.runFormatter(ctx, filePath, content)...)
	}

	issues = append(issues, a.checkTrailingWhitespace(filePath, content)...)
	issues = append(issues, checkMixedIndentation(filePath, content)...)
	if a.cfg.RequireDocComments && strings.HasSuffix(filePath, ".py") {
		issues = append(issues, checkDocstrings(filePath, content)...)
	}
	issues = append(issues, a.checkLineLengths(filePath, content)...)

	score := scoring.Score(issues, a.weights)
	metrics := map[string]any{"style_score": score}

	return models.AnalysisResult{
		FilePath: filePath,
		Issues:   issues,
		Metrics:  metrics,
		Score:    score,
		Summary:  summarize(issues, score),
	}, nil
}

var hunkPattern = regexp.MustCompile(`\+(\d+)`)

// runFormatter shells out to black in check mode and converts each added
// diff line into a formatting issue. Tool failures degrade to zero findings.
func (a *Analyzer) runFormatter(ctx context.Context, filePath, content string) []models.Issue {
	if !toolexec.Available(a.cfg.FormatCommand) {
		logger.Debug(ctx, "format command not found, skipping", "command", a.cfg.FormatCommand)
		return nil
	}

	output, err := toolexec.Run(ctx, a.cfg.FormatCommand, []string{"--check", "--diff"}, filePath, content)
	if err != nil {
		logger.Debug(ctx, "format check failed", "command", a.cfg.FormatCommand, "error", err)
		return nil
	}

	var issues []models.Issue
	currentLine := 0
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			if match := hunkPattern.FindStringSubmatch(line); match != nil {
				currentLine, _ = strconv.Atoi(match[1])
			}
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			issues = append(issues, models.Issue{
				FilePath:    filePath,
				LineNumber:  currentLine,
				Severity:    models.SeverityLow,
				IssueType:   models.IssueStyle,
				Message:     "Code formatting issue detected by " + a.cfg.FormatCommand,
				RuleID:      "formatting",
				Suggestion:  fmt.Sprintf("Run '%s' to format this code", a.cfg.FormatCommand),
				CodeSnippet: strings.TrimSpace(line[1:]),
			})
			currentLine++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			currentLine++
		}
	}
	return issues
}

func (a *Analyzer) checkTrailingWhitespace(filePath, content string) []models.Issue {
	var issues []models.Issue
	for i, line := range strings.Split(content, "\n") {
		if strings.TrimRight(line, " \t") != line {
			issues = append(issues, models.Issue{
				FilePath:    filePath,
				LineNumber:  i + 1,
				Severity:    models.SeverityLow,
				IssueType:   models.IssueStyle,
				Message:     "Trailing whitespace",
				RuleID:      "trailing-whitespace",
				Suggestion:  "Remove trailing whitespace",
				CodeSnippet: line,
			})
		}
	}
	return issues
}

// checkMixedIndentation flags a file that indents with both tabs and
// spaces. A single file-level issue, not one per line.
func checkMixedIndentation(filePath, content string) []models.Issue {
	hasTabs := false
	hasSpaces := false
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "\t"):
			hasTabs = true
		case strings.HasPrefix(line, " "):
			hasSpaces = true
		}
	}

	if hasTabs && hasSpaces {
		return []models.Issue{{
			FilePath:   filePath,
			LineNumber: 1,
			Severity:   models.SeverityMedium,
			IssueType:  models.IssueStyle,
			Message:    "Mixed tabs and spaces for indentation",
			RuleID:     "mixed-indentation",
			Suggestion: "Use consistent indentation (preferably spaces)",
		}}
	}
	return nil
}

var (
	defLine   = regexp.MustCompile(`^(?:async\s+)?def\s+\w+`)
	classLine = regexp.MustCompile(`^class\s+\w+`)
)

// checkDocstrings flags def and class statements whose first body line is
// not a docstring.
func checkDocstrings(filePath, content string) []models.Issue {
	var issues []models.Issue
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		isDef := defLine.MatchString(stripped)
		isClass := classLine.MatchString(stripped)
		if !isDef && !isClass {
			continue
		}

		kind := "Function"
		if isClass {
			kind = "Class"
		}

		body := ""
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) != "" {
				body = strings.TrimSpace(lines[j])
				break
			}
		}
		if strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, "'''") {
			continue
		}

		issues = append(issues, models.Issue{
			FilePath:   filePath,
			LineNumber: i + 1,
			Severity:   models.SeverityLow,
			IssueType:  models.IssueDocumentation,
			Message:    kind + " missing docstring",
			RuleID:     "missing-docstring",
			Suggestion: fmt.Sprintf("Add a docstring to describe what this %s does", strings.ToLower(kind)),
		})
	}
	return issues
}

func (a *Analyzer) checkLineLengths(filePath, content string) []models.Issue {
	var issues []models.Issue
	for i, line := range strings.Split(content, "\n") {
		if len(line) > a.cfg.MaxLineLength {
			issues = append(issues, models.Issue{
				FilePath:    filePath,
				LineNumber:  i + 1,
				Severity:    models.SeverityLow,
				IssueType:   models.IssueStyle,
				Message:     fmt.Sprintf("Line too long: %d characters", len(line)),
				RuleID:      "line-too-long",
				Suggestion:  fmt.Sprintf("Break this line into multiple lines (max %d characters)", a.cfg.MaxLineLength),
				CodeSnippet: strings.TrimSpace(line),
			})
		}
	}
	return issues
}

func summarize(issues []models.Issue, score float64) string {
	if len(issues) == 0 {
		return "No style issues found. Code follows good style practices!"
	}
	counts := scoring.GroupBySeverity(issues)
	var parts []string
	for _, severity := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if counts[severity] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s style issues", counts[severity], severity))
		}
	}
	return fmt.Sprintf("Found %d style issues: %s. Style score: %g/100", len(issues), strings.Join(parts, ", "), score)
}
