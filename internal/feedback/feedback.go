// Package feedback renders analysis results into human-readable summaries
// and recommendations. Everything here is a pure function of its inputs so
// the same analysis always produces the same feedback.
package feedback

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/scoring"
)

// Score bands used for the qualitative summary and the closing
// recommendation. Boundaries are inclusive at the lower edge of each band.
const (
	BandExcellent = 90.0
	BandGood      = 75.0
	BandFair      = 60.0
)

// Generate builds the full feedback for one analyzed PR.
func Generate(pr models.PRInfo, files map[string]models.FileAnalysis, totalIssues []models.Issue, overallScore float64) models.Feedback {
	return models.Feedback{
		Summary:         generateSummary(pr, totalIssues, overallScore),
		FileFeedback:    generateFileFeedback(files),
		Recommendations: generateRecommendations(totalIssues, overallScore),
		Scores:          generateScoreBreakdown(files, overallScore),
	}
}

func statusBand(score float64) (string, string) {
	switch {
	case score >= BandExcellent:
		return "excellent", "🎉"
	case score >= BandGood:
		return "good", "✅"
	case score >= BandFair:
		return "fair", "⚠️"
	default:
		return "needs improvement", "❌"
	}
}

// severityOrder lists severities most urgent first for display.
var severityOrder = []models.Severity{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityLow,
}

func generateSummary(pr models.PRInfo, totalIssues []models.Issue, overallScore float64) string {
	status, emoji := statusBand(overallScore)

	var b strings.Builder
	fmt.Fprintf(&b, "%s **PR Analysis Summary**\n\n", emoji)
	fmt.Fprintf(&b, "**Overall Score**: %g/100 (%s)\n", overallScore, status)
	fmt.Fprintf(&b, "**Total Issues**: %d\n", len(totalIssues))
	fmt.Fprintf(&b, "**Files Changed**: %d\n", len(pr.FileChanges))
	fmt.Fprintf(&b, "**Author**: %s\n\n", pr.Author)

	if len(totalIssues) == 0 {
		b.WriteString("**No issues found! Great work!** 🎉\n")
		return b.String()
	}

	counts := scoring.GroupBySeverity(totalIssues)
	b.WriteString("**Issues by Severity**:\n")
	for _, severity := range severityOrder {
		if count := counts[severity]; count > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", capitalize(string(severity)), count)
		}
	}
	return b.String()
}

func generateFileFeedback(files map[string]models.FileAnalysis) map[string]string {
	fileFeedback := make(map[string]string, len(files))

	for path, analysis := range files {
		if len(analysis.Issues) == 0 {
			fileFeedback[path] = fmt.Sprintf("✅ **%s**: No issues found (Score: %g/100)", path, analysis.Score)
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "⚠️ **%s**: %d issues (Score: %g/100)\n", path, len(analysis.Issues), analysis.Score)
		counts := scoring.GroupBySeverity(analysis.Issues)
		for _, severity := range severityOrder {
			if count := counts[severity]; count > 0 {
				fmt.Fprintf(&b, "  - %s: %d\n", capitalize(string(severity)), count)
			}
		}
		fileFeedback[path] = b.String()
	}

	return fileFeedback
}

func generateRecommendations(totalIssues []models.Issue, overallScore float64) []string {
	var recommendations []string

	if overallScore < BandFair {
		recommendations = append(recommendations, "🔧 **Priority**: Address critical and high severity issues immediately")
	}

	byType := scoring.GroupByType(totalIssues)
	if byType[models.IssueSecurity] > 0 {
		recommendations = append(recommendations, "🔒 **Security**: Review and fix security vulnerabilities")
	}
	if byType[models.IssuePerformance] > 0 {
		recommendations = append(recommendations, "⚡ **Performance**: Optimize code for better performance")
	}
	if byType[models.IssueMaintainability] > 0 {
		recommendations = append(recommendations, "🔧 **Maintainability**: Improve code structure and documentation")
	}
	if byType[models.IssueStyle] > 0 {
		recommendations = append(recommendations, "🎨 **Style**: Run code formatters to fix style issues")
	}
	if byType[models.IssueBug] > 0 {
		recommendations = append(recommendations, "🐛 **Bugs**: Fix identified bugs before merging")
	}

	switch {
	case overallScore >= BandExcellent:
		recommendations = append(recommendations, "🎉 **Great job!** This PR is ready to merge")
	case overallScore >= BandGood:
		recommendations = append(recommendations, "✅ **Good work!** Address minor issues and you're good to go")
	default:
		recommendations = append(recommendations, "⚠️ **Needs work**: Please address the identified issues before merging")
	}

	return recommendations
}

func generateScoreBreakdown(files map[string]models.FileAnalysis, overallScore float64) models.ScoreBreakdown {
	breakdown := models.ScoreBreakdown{
		Overall:     overallScore,
		Files:       make(map[string]float64, len(files)),
		LowestScore: 100,
	}

	if len(files) == 0 {
		return breakdown
	}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var sum float64
	for _, path := range paths {
		score := files[path].Score
		breakdown.Files[path] = score
		sum += score
		if score < breakdown.LowestScore {
			breakdown.LowestScore = score
		}
		if score > breakdown.HighestScore {
			breakdown.HighestScore = score
		}
	}
	breakdown.AverageFileScore = round2(sum / float64(len(files)))

	return breakdown
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
