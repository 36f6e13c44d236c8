package scoring

import (
	"math"
	"sort"

	"github.com/Tomas-vilte/MateReview/internal/models"
)

// Score computes a quality score in [0,100] for an issue list under a weight
// table. An empty list scores 100. The denominator scales with the issue
// count, so many low-severity issues approach but never reach the penalty an
// equal count of critical issues would cause; that dampening is part of the
// contract.
func Score(issues []models.Issue, table WeightTable) float64 {
	if len(issues) == 0 {
		return 100.0
	}

	var total float64
	for _, issue := range issues {
		total += table.Weight(issue.Severity)
	}

	maxPossible := float64(len(issues)) * table.Critical()
	if maxPossible == 0 {
		return 100.0
	}

	score := 100 - (total/maxPossible)*100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return round2(score)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GroupBySeverity counts issues per severity.
func GroupBySeverity(issues []models.Issue) map[models.Severity]int {
	groups := make(map[models.Severity]int)
	for _, issue := range issues {
		groups[issue.Severity]++
	}
	return groups
}

// GroupByType counts issues per issue type.
func GroupByType(issues []models.Issue) map[models.IssueType]int {
	groups := make(map[models.IssueType]int)
	for _, issue := range issues {
		groups[issue.IssueType]++
	}
	return groups
}

// Sort orders issues by severity urgency (critical first) then line number.
// Reports expose merged issues in exactly this order no matter how the
// concurrent analyzers finished.
func Sort(issues []models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity.Rank() != issues[j].Severity.Rank() {
			return issues[i].Severity.Rank() < issues[j].Severity.Rank()
		}
		return issues[i].LineNumber < issues[j].LineNumber
	})
}

// QualityRating bands a score: excellent >=90, good >=75, fair >=60, else
// poor. Band edges are inclusive at their lower bound.
func QualityRating(score float64) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "good"
	case score >= 60:
		return "fair"
	default:
		return "poor"
	}
}
