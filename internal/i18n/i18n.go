package i18n

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

type Translations struct {
	bundle   *i18n.Bundle
	localize *i18n.Localizer
}

// NewTranslations builds a bundle with the embedded English defaults plus any
// locales/active.*.toml files found under localesDir (optional).
func NewTranslations(defaultLang string, localesDir string) (*Translations, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	bundle.MustParseMessageFileBytes([]byte(defaultMessages), "default.en.toml")

	if localesDir == "" {
		localesDir = "locales"
	}
	files, err := filepath.Glob(filepath.Join(localesDir, "active.*.toml"))
	if err != nil {
		return nil, fmt.Errorf("error reading locales: %w", err)
	}

	for _, file := range files {
		if _, err := bundle.LoadMessageFile(file); err != nil {
			return nil, fmt.Errorf("error loading locale file %s: %w", file, err)
		}
	}

	localize := i18n.NewLocalizer(bundle, defaultLang)

	return &Translations{
		bundle:   bundle,
		localize: localize,
	}, nil
}

func (t *Translations) SetLanguage(lang string) error {
	for _, tag := range t.bundle.LanguageTags() {
		if tag.String() == lang {
			t.localize = i18n.NewLocalizer(t.bundle, lang)
			return nil
		}
	}
	return fmt.Errorf("language '%s' not supported", lang)
}

func (t *Translations) GetMessage(messageID string, count int, templateData map[string]interface{}) string {
	localized, err := t.localize.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID: messageID,
		},
		PluralCount:  count,
		TemplateData: templateData,
	})
	if err != nil {
		return "Translation missing: " + messageID
	}
	return localized
}

var defaultMessages = `
	[analyze_command_usage]
	other = "Analyze a single pull request and print its review"

	[analyze_prs_command_usage]
	other = "Analyze several pull requests and print a summary per PR"

	[flag_provider_usage]
	other = "Git hosting provider (github, gitlab, bitbucket)"

	[flag_repo_usage]
	other = "Repository in owner/name form"

	[flag_pr_usage]
	other = "Pull request number"

	[flag_post_comments_usage]
	other = "Post the review back to the pull request"

	[flag_output_usage]
	other = "Write the report to this file"

	[flag_format_usage]
	other = "Report format (json, markdown); defaults to the configured output format"

	[flag_state_usage]
	other = "PR state filter (open, closed, merged, all)"

	[flag_limit_usage]
	other = "Maximum number of PRs to analyze"

	[flag_output_dir_usage]
	other = "Write one report per PR into this directory"

	[analyzing_prs]
	other = "Analyzing pull requests of {{.Repo}}..."

	[analyzing_pr]
	other = "Analyzing PR #{{.Number}} of {{.Repo}}..."

	[analysis_complete]
	other = "PR analysis complete"

	[overall_score]
	other = "Overall score: {{.Score}}/100"

	[overall_score_label]
	other = "Overall score:"

	[total_issues]
	one = "{{.Count}} issue found"
	other = "{{.Count}} issues found"

	[files_analyzed]
	one = "{{.Count}} file analyzed"
	other = "{{.Count}} files analyzed"

	[issues_by_severity]
	other = "Issues by severity:"

	[recommendations_header]
	other = "Recommendations:"

	[posting_comments]
	other = "Posting review comments to the PR..."

	[comments_posted]
	other = "Review posted: {{.URL}}"

	[report_saved]
	other = "Report saved to: {{.Path}}"

	[prs_analyzed]
	one = "Analyzed {{.Count}} pull request"
	other = "Analyzed {{.Count}} pull requests"

	[batch_stats]
	other = "Average score: {{.Average}}/100 - total issues: {{.Issues}}"

	[app_usage]
	other = "Review pull requests with pluggable analyzers"

	[app_description]
	other = "MateReview fetches a pull request from GitHub, GitLab or Bitbucket, runs quality, security, style and AI analyzers over its changed files and produces scored feedback and reports."

	[help_command_usage]
	other = "Show help"

	[version_command_usage]
	other = "Print the version"

	[config_command_usage]
	other = "Manage the MateReview configuration"

	[config_init_usage]
	other = "Write the default configuration file"

	[config_show_usage]
	other = "Show the current configuration"

	[config_set_vcs_usage]
	other = "Configure a git hosting provider"

	[config_set_ai_usage]
	other = "Configure the AI analyzer"

	[config_set_lang_usage]
	other = "Set the CLI language"

	[flag_token_usage]
	other = "API token for the provider"

	[flag_username_usage]
	other = "Username (Bitbucket)"

	[flag_password_usage]
	other = "App password (Bitbucket)"

	[flag_base_url_usage]
	other = "Base URL for self-hosted instances"

	[flag_active_usage]
	other = "Make this the active provider"

	[flag_lang_usage]
	other = "Language code (en, es)"

	[flag_ai_enable_usage]
	other = "Enable AI analysis"

	[flag_ai_disable_usage]
	other = "Disable AI analysis"

	[flag_ai_api_key_usage]
	other = "AI provider API key"

	[flag_ai_model_usage]
	other = "AI model name"

	[no_providers_configured]
	other = "No git hosting providers configured"

	[credentials_set]
	other = "credentials set"

	[credentials_missing]
	other = "credentials missing"

	[ai_enabled_label]
	other = "AI analysis enabled ({{.Provider}}, {{.Model}})"

	[ai_disabled_label]
	other = "AI analysis disabled"

	[config_vcs_updated]
	other = "Provider '{{.Provider}}' configured"

	[unsupported_language]
	other = "Language '{{.Lang}}' is not supported"

	[language_configured]
	other = "Language set to {{.Lang}}"

	[config_initialized]
	other = "Configuration file created: {{.Path}}"

	[config_edit_hint]
	other = "Edit the file to add your API tokens and customize settings"

	[config_updated]
	other = "Configuration updated"

	[current_config]
	other = "Current configuration"

	[error_analysis_failed]
	other = "PR analysis failed"

	[error_config_load]
	other = "Failed to load configuration"

	[try_suggestion]
	other = "💡 Try: "
	`
