package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMessage(t *testing.T) {
	trans, err := NewTranslations("en", t.TempDir())
	require.NoError(t, err)

	t.Run("plain message", func(t *testing.T) {
		msg := trans.GetMessage("analysis_complete", 0, nil)
		assert.Equal(t, "PR analysis complete", msg)
	})

	t.Run("template data", func(t *testing.T) {
		msg := trans.GetMessage("overall_score", 0, map[string]interface{}{"Score": 87.5})
		assert.Equal(t, "Overall score: 87.5/100", msg)
	})

	t.Run("pluralization", func(t *testing.T) {
		one := trans.GetMessage("total_issues", 1, map[string]interface{}{"Count": 1})
		many := trans.GetMessage("total_issues", 4, map[string]interface{}{"Count": 4})
		assert.Equal(t, "1 issue found", one)
		assert.Equal(t, "4 issues found", many)
	})

	t.Run("missing message", func(t *testing.T) {
		msg := trans.GetMessage("does_not_exist", 0, nil)
		assert.Equal(t, "Translation missing: does_not_exist", msg)
	})
}

func TestSetLanguage(t *testing.T) {
	trans, err := NewTranslations("en", t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, trans.SetLanguage("en"))
	assert.Error(t, trans.SetLanguage("fr"))
}
