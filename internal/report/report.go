// Package report builds and serializes structured review reports.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/scoring"
)

// Generate assembles the structured report for one analyzed PR. Apart from
// GeneratedAt the output is a deterministic function of its inputs.
func Generate(pr models.PRInfo, files map[string]models.FileAnalysis, totalIssues []models.Issue, overallScore float64) models.Report {
	sorted := make([]models.Issue, len(totalIssues))
	copy(sorted, totalIssues)
	scoring.Sort(sorted)

	return models.Report{
		Metadata:        buildMetadata(pr),
		Summary:         buildSummary(totalIssues, overallScore),
		FileAnalyses:    buildFileReports(files),
		Issues:          sorted,
		Metrics:         aggregateMetrics(files),
		Recommendations: buildRecommendations(totalIssues, overallScore),
		GeneratedAt:     time.Now().UTC(),
	}
}

func buildMetadata(pr models.PRInfo) models.ReportMetadata {
	return models.ReportMetadata{
		PRID:         pr.ID,
		Title:        pr.Title,
		Author:       pr.Author,
		Status:       pr.Status,
		SourceBranch: pr.SourceBranch,
		TargetBranch: pr.TargetBranch,
		CreatedAt:    pr.CreatedAt,
		UpdatedAt:    pr.UpdatedAt,
		URL:          pr.URL,
		FilesChanged: len(pr.FileChanges),
	}
}

func buildSummary(totalIssues []models.Issue, overallScore float64) models.ReportSummary {
	return models.ReportSummary{
		OverallScore:     overallScore,
		TotalIssues:      len(totalIssues),
		IssuesBySeverity: scoring.GroupBySeverity(totalIssues),
		IssuesByType:     scoring.GroupByType(totalIssues),
		QualityRating:    scoring.QualityRating(overallScore),
	}
}

func buildFileReports(files map[string]models.FileAnalysis) map[string]models.FileReport {
	reports := make(map[string]models.FileReport, len(files))
	for path, analysis := range files {
		reports[path] = models.FileReport{
			Score:            analysis.Score,
			TotalIssues:      len(analysis.Issues),
			IssuesBySeverity: scoring.GroupBySeverity(analysis.Issues),
			Metrics:          analysis.Metrics,
			QualityRating:    scoring.QualityRating(analysis.Score),
		}
	}
	return reports
}

func aggregateMetrics(files map[string]models.FileAnalysis) map[string]any {
	filesWithIssues := 0
	for _, analysis := range files {
		if len(analysis.Issues) > 0 {
			filesWithIssues++
		}
	}
	return map[string]any{
		"files_analyzed":    len(files),
		"files_with_issues": filesWithIssues,
	}
}

func buildRecommendations(totalIssues []models.Issue, overallScore float64) []models.Recommendation {
	var recs []models.Recommendation

	bySeverity := scoring.GroupBySeverity(totalIssues)
	if bySeverity[models.SeverityCritical] > 0 {
		recs = append(recs, models.Recommendation{
			Priority:    "critical",
			Category:    "blocking",
			Title:       "Fix critical issues",
			Description: fmt.Sprintf("%d critical issues must be resolved before merging", bySeverity[models.SeverityCritical]),
			Action:      "Review each critical issue and apply the suggested fix",
		})
	}
	if bySeverity[models.SeverityHigh] > 0 {
		recs = append(recs, models.Recommendation{
			Priority:    "high",
			Category:    "blocking",
			Title:       "Fix high severity issues",
			Description: fmt.Sprintf("%d high severity issues should be resolved before merging", bySeverity[models.SeverityHigh]),
			Action:      "Review each high severity issue and apply the suggested fix",
		})
	}

	byType := scoring.GroupByType(totalIssues)
	if byType[models.IssueSecurity] > 0 {
		recs = append(recs, models.Recommendation{
			Priority:    "high",
			Category:    "security",
			Title:       "Review security findings",
			Description: fmt.Sprintf("%d security issues were detected", byType[models.IssueSecurity]),
			Action:      "Audit the flagged lines for vulnerabilities and rotate any exposed credentials",
		})
	}
	if byType[models.IssueStyle] > 0 {
		recs = append(recs, models.Recommendation{
			Priority:    "low",
			Category:    "style",
			Title:       "Clean up style issues",
			Description: fmt.Sprintf("%d style issues were detected", byType[models.IssueStyle]),
			Action:      "Run the configured formatter to fix style issues automatically",
		})
	}

	if overallScore >= 90 && len(recs) == 0 {
		recs = append(recs, models.Recommendation{
			Priority:    "info",
			Category:    "general",
			Title:       "Ready to merge",
			Description: "No significant issues were found in this PR",
			Action:      "Proceed with the merge",
		})
	}

	return recs
}

// ToJSON renders a report as indented JSON.
func ToJSON(r models.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.TypeReport, "failed to serialize report", err)
	}
	return data, nil
}

// Save writes a report to path in the given format ("json" or "markdown"),
// creating parent directories as needed.
func Save(r models.Report, path, format string) error {
	var data []byte
	var err error

	switch format {
	case "json":
		data, err = ToJSON(r)
	case "markdown":
		data = []byte(ToMarkdown(r))
	default:
		return apperrors.ErrUnsupportedFormat.WithContext("format", format)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewAppError(apperrors.TypeReport, "failed to create report directory", err).
				WithContext("path", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewAppError(apperrors.TypeReport, "failed to write report file", err).
			WithContext("path", path)
	}
	return nil
}
