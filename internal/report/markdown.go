package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Tomas-vilte/MateReview/internal/models"
)

// ToMarkdown renders a report as a Markdown document suitable for posting
// or saving alongside the JSON form.
func ToMarkdown(r models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# PR Review Report: %s\n\n", r.Metadata.Title)
	fmt.Fprintf(&b, "- **PR**: %s ([link](%s))\n", r.Metadata.PRID, r.Metadata.URL)
	fmt.Fprintf(&b, "- **Author**: %s\n", r.Metadata.Author)
	fmt.Fprintf(&b, "- **Branches**: `%s` → `%s`\n", r.Metadata.SourceBranch, r.Metadata.TargetBranch)
	fmt.Fprintf(&b, "- **Status**: %s\n", r.Metadata.Status)
	fmt.Fprintf(&b, "- **Files Changed**: %d\n", r.Metadata.FilesChanged)
	fmt.Fprintf(&b, "- **Generated**: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Overall Score | Total Issues | Quality |\n")
	fmt.Fprintf(&b, "|---|---|---|\n")
	fmt.Fprintf(&b, "| %g/100 | %d | %s |\n\n", r.Summary.OverallScore, r.Summary.TotalIssues, r.Summary.QualityRating)

	if r.Summary.TotalIssues > 0 {
		b.WriteString("**By severity**: ")
		b.WriteString(formatCounts(severityCounts(r.Summary.IssuesBySeverity)))
		b.WriteString("\n\n")
	}

	writeFileSection(&b, r.FileAnalyses)
	writeIssueSection(&b, r.Issues)
	writeRecommendationSection(&b, r.Recommendations)

	return b.String()
}

func writeFileSection(b *strings.Builder, files map[string]models.FileReport) {
	if len(files) == 0 {
		return
	}
	b.WriteString("## Files\n\n")
	b.WriteString("| File | Score | Issues | Quality |\n")
	b.WriteString("|---|---|---|---|\n")

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fr := files[path]
		fmt.Fprintf(b, "| `%s` | %g | %d | %s |\n", path, fr.Score, fr.TotalIssues, fr.QualityRating)
	}
	b.WriteString("\n")
}

func writeIssueSection(b *strings.Builder, issues []models.Issue) {
	if len(issues) == 0 {
		return
	}
	b.WriteString("## Issues\n\n")
	for _, issue := range issues {
		fmt.Fprintf(b, "### %s `%s:%d`\n\n", severityBadge(issue.Severity), issue.FilePath, issue.LineNumber)
		fmt.Fprintf(b, "%s\n\n", issue.Message)
		if issue.RuleID != "" {
			fmt.Fprintf(b, "- Rule: `%s`\n", issue.RuleID)
		}
		fmt.Fprintf(b, "- Type: %s\n", issue.IssueType)
		if issue.Suggestion != "" {
			fmt.Fprintf(b, "- Suggestion: %s\n", issue.Suggestion)
		}
		if issue.CodeSnippet != "" {
			fmt.Fprintf(b, "\n```\n%s\n```\n", issue.CodeSnippet)
		}
		b.WriteString("\n")
	}
}

func writeRecommendationSection(b *strings.Builder, recs []models.Recommendation) {
	if len(recs) == 0 {
		return
	}
	b.WriteString("## Recommendations\n\n")
	for _, rec := range recs {
		fmt.Fprintf(b, "- **[%s] %s**: %s (%s)\n", strings.ToUpper(rec.Priority), rec.Title, rec.Description, rec.Action)
	}
	b.WriteString("\n")
}

func severityBadge(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "🔴 CRITICAL"
	case models.SeverityHigh:
		return "🟠 HIGH"
	case models.SeverityMedium:
		return "🟡 MEDIUM"
	default:
		return "🟢 LOW"
	}
}

func severityCounts(counts map[models.Severity]int) []string {
	order := []models.Severity{
		models.SeverityCritical,
		models.SeverityHigh,
		models.SeverityMedium,
		models.SeverityLow,
	}
	var parts []string
	for _, s := range order {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", s, counts[s]))
		}
	}
	return parts
}

func formatCounts(parts []string) string {
	return strings.Join(parts, ", ")
}
