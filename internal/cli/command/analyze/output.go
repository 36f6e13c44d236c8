package analyze

import (
	"fmt"
	"sort"

	"github.com/Tomas-vilte/MateReview/internal/i18n"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/ui"
)

func printAnalysis(t *i18n.Translations, analysis models.Analysis) {
	ui.PrintSectionBanner(analysis.PR.Title)

	ui.PrintScore(t.GetMessage("overall_score_label", 0, nil), analysis.OverallScore)
	fmt.Println(t.GetMessage("total_issues", analysis.TotalIssues, map[string]interface{}{
		"Count": analysis.TotalIssues,
	}))
	fmt.Println(t.GetMessage("files_analyzed", len(analysis.Files), map[string]interface{}{
		"Count": len(analysis.Files),
	}))

	if analysis.TotalIssues > 0 {
		fmt.Println()
		fmt.Println(t.GetMessage("issues_by_severity", 0, nil))
		for _, severity := range []models.Severity{
			models.SeverityCritical,
			models.SeverityHigh,
			models.SeverityMedium,
			models.SeverityLow,
		} {
			if count := analysis.IssuesBySeverity[severity]; count > 0 {
				label := ui.SeverityColor(severity).Sprint(string(severity))
				fmt.Printf("   %s: %d\n", label, count)
			}
		}
	}

	if len(analysis.Files) > 0 {
		fmt.Println()
		paths := make([]string, 0, len(analysis.Files))
		for path := range analysis.Files {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			fa := analysis.Files[path]
			score := ui.ScoreColor(fa.Score).Sprintf("%g/100", fa.Score)
			fmt.Printf("   %s %s (%d issues)\n", ui.Dim.Sprint(path), score, len(fa.Issues))
		}
	}

	if len(analysis.Feedback.Recommendations) > 0 {
		fmt.Println()
		fmt.Println(t.GetMessage("recommendations_header", 0, nil))
		for _, rec := range analysis.Feedback.Recommendations {
			fmt.Printf("   • %s\n", rec)
		}
	}
	fmt.Println()
}

func printBatchSummary(t *i18n.Translations, analyses []models.Analysis) {
	ui.PrintInfo(t.GetMessage("prs_analyzed", len(analyses), map[string]interface{}{
		"Count": len(analyses),
	}))

	if len(analyses) == 0 {
		return
	}

	var totalScore float64
	totalIssues := 0
	for _, analysis := range analyses {
		totalScore += analysis.OverallScore
		totalIssues += analysis.TotalIssues
		score := ui.ScoreColor(analysis.OverallScore).Sprintf("%g/100", analysis.OverallScore)
		fmt.Printf("   #%s %s %s (%d issues)\n",
			analysis.PR.ID, ui.Dim.Sprint(analysis.PR.Title), score, analysis.TotalIssues)
	}

	average := totalScore / float64(len(analyses))
	fmt.Println()
	fmt.Println(t.GetMessage("batch_stats", 0, map[string]interface{}{
		"Average": fmt.Sprintf("%.2f", average),
		"Issues":  totalIssues,
	}))
}
