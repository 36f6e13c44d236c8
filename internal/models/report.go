package models

import "time"

type (
	// FileAnalysis aggregates all analyzer output for one file.
	FileAnalysis struct {
		Issues  []Issue        `json:"issues"`
		Metrics map[string]any `json:"metrics,omitempty"`
		Score   float64        `json:"score"`
	}

	// Analysis is the complete result of analyzing one pull request.
	Analysis struct {
		PR               PRInfo                  `json:"pr_info"`
		Files            map[string]FileAnalysis `json:"file_analyses"`
		OverallScore     float64                 `json:"overall_score"`
		TotalIssues      int                     `json:"total_issues"`
		IssuesBySeverity map[Severity]int        `json:"issues_by_severity"`
		Feedback         Feedback                `json:"feedback"`
		Report           Report                  `json:"report"`
	}

	// Feedback is the human-readable projection of an analysis. It carries no
	// timestamps so identical inputs always produce identical feedback.
	Feedback struct {
		Summary         string            `json:"summary"`
		FileFeedback    map[string]string `json:"file_feedback"`
		Recommendations []string          `json:"recommendations"`
		Scores          ScoreBreakdown    `json:"scores"`
	}

	ScoreBreakdown struct {
		Overall          float64            `json:"overall"`
		Files            map[string]float64 `json:"files"`
		AverageFileScore float64            `json:"average_file_score"`
		LowestScore      float64            `json:"lowest_score"`
		HighestScore     float64            `json:"highest_score"`
	}

	// Report is the structured output contract. GeneratedAt is its only
	// non-deterministic field.
	Report struct {
		Metadata        ReportMetadata        `json:"metadata"`
		Summary         ReportSummary         `json:"summary"`
		FileAnalyses    map[string]FileReport `json:"file_analyses"`
		Issues          []Issue               `json:"issues"`
		Metrics         map[string]any        `json:"metrics,omitempty"`
		Recommendations []Recommendation      `json:"recommendations"`
		GeneratedAt     time.Time             `json:"generated_at"`
	}

	ReportMetadata struct {
		PRID         string    `json:"pr_id"`
		Title        string    `json:"title"`
		Author       string    `json:"author"`
		Status       PRStatus  `json:"status"`
		SourceBranch string    `json:"source_branch"`
		TargetBranch string    `json:"target_branch"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
		URL          string    `json:"url"`
		FilesChanged int       `json:"files_changed"`
	}

	ReportSummary struct {
		OverallScore     float64           `json:"overall_score"`
		TotalIssues      int               `json:"total_issues"`
		IssuesBySeverity map[Severity]int  `json:"issues_by_severity"`
		IssuesByType     map[IssueType]int `json:"issues_by_type"`
		QualityRating    string            `json:"quality_rating"`
	}

	FileReport struct {
		Score            float64          `json:"score"`
		TotalIssues      int              `json:"total_issues"`
		IssuesBySeverity map[Severity]int `json:"issues_by_severity"`
		Metrics          map[string]any   `json:"metrics,omitempty"`
		QualityRating    string           `json:"quality_rating"`
	}

	// Recommendation is one prioritized, actionable suggestion in a report.
	Recommendation struct {
		Priority    string `json:"priority"`
		Category    string `json:"category"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Action      string `json:"action"`
	}
)
