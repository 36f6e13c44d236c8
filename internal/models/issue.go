package models

// Severity classifies how urgent an issue is. The ordering that scoring and
// report sorting rely on lives in severityRank, not in declaration order.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities by urgency, most urgent first.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the sort rank of a severity (critical first). Unknown
// severities sort after every known one.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// IssueType categorizes what kind of problem an issue describes.
type IssueType string

const (
	IssueBug             IssueType = "bug"
	IssueSecurity        IssueType = "security"
	IssueStyle           IssueType = "style"
	IssuePerformance     IssueType = "performance"
	IssueMaintainability IssueType = "maintainability"
	IssueDocumentation   IssueType = "documentation"
)

type (
	// Issue is one finding at a specific location. Produced exactly once by
	// one analyzer and immutable afterwards.
	Issue struct {
		FilePath     string    `json:"file_path"`
		LineNumber   int       `json:"line_number"`
		ColumnNumber int       `json:"column_number,omitempty"`
		Severity     Severity  `json:"severity"`
		IssueType    IssueType `json:"issue_type"`
		Message      string    `json:"message"`
		RuleID       string    `json:"rule_id"`
		Suggestion   string    `json:"suggestion,omitempty"`
		CodeSnippet  string    `json:"code_snippet,omitempty"`
	}

	// AnalysisResult is the output of one analyzer run over one file.
	AnalysisResult struct {
		FilePath string         `json:"file_path"`
		Issues   []Issue        `json:"issues"`
		Metrics  map[string]any `json:"metrics,omitempty"`
		Score    float64        `json:"score"`
		Summary  string         `json:"summary"`
	}
)
