package security

import (
	"context"
	"testing"

	"github.com/Tomas-vilte/MateReview/internal/config"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnalyzer() *Analyzer {
	cfg := config.Default().Analysis
	cfg.EnableSecurityScan = false // no external tools in unit tests
	return New(cfg)
}

func analyze(t *testing.T, path, content string) models.AnalysisResult {
	t.Helper()
	result, err := testAnalyzer().Analyze(context.Background(), path, content)
	require.NoError(t, err)
	return result
}

func TestCleanFile(t *testing.T) {
	result := analyze(t, "app.py", "x = compute()\n")

	assert.Empty(t, result.Issues)
	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, "No security issues found. Code appears secure!", result.Summary)
}

func TestHardcodedSecrets(t *testing.T) {
	content := "password = \"hunter2\"\napi_key = 'abc123'\nuser = get_user()\n"
	result := analyze(t, "app.py", content)

	require.Len(t, result.Issues, 2)
	assert.Equal(t, "Hardcoded password", result.Issues[0].Message)
	assert.Equal(t, 1, result.Issues[0].LineNumber)
	assert.Equal(t, models.SeverityHigh, result.Issues[0].Severity)
	assert.Equal(t, "hardcoded-secret", result.Issues[0].RuleID)
	assert.Equal(t, `password = "hunter2"`, result.Issues[0].CodeSnippet)
	assert.Equal(t, "Hardcoded API key", result.Issues[1].Message)
}

func TestSecretDetectionIsCaseInsensitive(t *testing.T) {
	result := analyze(t, "app.py", "PASSWORD = \"x\"\n")
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "hardcoded-secret", result.Issues[0].RuleID)
}

func TestSQLInjection(t *testing.T) {
	content := "cursor.execute(\"SELECT * FROM users WHERE id = %s\" % uid)\n"
	result := analyze(t, "app.py", content)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, "Potential SQL injection", result.Issues[0].Message)
	assert.Equal(t, "sql-injection", result.Issues[0].RuleID)
}

func TestUnsafeOperations(t *testing.T) {
	content := "eval(user_input)\nos.system(cmd)\n"
	result := analyze(t, "app.py", content)

	require.Len(t, result.Issues, 2)
	assert.Equal(t, "Unsafe eval usage", result.Issues[0].Message)
	assert.Equal(t, models.SeverityMedium, result.Issues[0].Severity)
	assert.Equal(t, "Unsafe system call", result.Issues[1].Message)
}

func TestRequestAccessChecks(t *testing.T) {
	content := "name = request.args['name']\n"
	result := analyze(t, "app.py", content)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, "missing-validation", result.Issues[0].RuleID)
}

func TestSecurityWeightedScore(t *testing.T) {
	// one high severity issue: 100 - 10/20*100 = 50
	result := analyze(t, "app.py", "password = \"x\"\n")
	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, 50.0, result.Metrics["security_score"])
}

func TestWorksOnOtherLanguages(t *testing.T) {
	result := analyze(t, "app.js", "const password = \"hunter2\"\n")
	require.Len(t, result.Issues, 1)

	exts := testAnalyzer().SupportedExtensions()
	assert.Contains(t, exts, ".go")
	assert.Contains(t, exts, ".rb")
}
