package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domainErrors "github.com/Tomas-vilte/MateReview/internal/errors"
)

type (
	Config struct {
		Language     string `json:"language"`
		OutputFormat string `json:"output_format"` // json, markdown
		Verbose      bool   `json:"verbose,omitempty"`
		PathFile     string `json:"path_file"`

		// ActiveVCSProvider is used when a command does not name a provider.
		ActiveVCSProvider string               `json:"active_vcs_provider,omitempty"`
		VCSConfigs        map[string]VCSConfig `json:"vcs_configs"`

		Analysis AnalysisConfig `json:"analysis"`
		AI       AIConfig       `json:"ai"`
	}

	VCSConfig struct {
		BaseURL               string `json:"base_url,omitempty"`
		Token                 string `json:"token,omitempty"`
		Username              string `json:"username,omitempty"`
		Password              string `json:"password,omitempty"`
		VerifySSL             bool   `json:"verify_ssl"`
		RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
	}

	AnalysisConfig struct {
		EnableLint         bool   `json:"enable_lint"`
		LintCommand        string `json:"lint_command,omitempty"`
		EnableSecurityScan bool   `json:"enable_security_scan"`
		SecurityCommand    string `json:"security_command,omitempty"`
		EnableFormatCheck  bool   `json:"enable_format_check"`
		FormatCommand      string `json:"format_command,omitempty"`

		MaxLineLength          int  `json:"max_line_length"`
		MaxFunctionLines       int  `json:"max_function_lines"`
		MinComplexityScore     int  `json:"min_complexity_score"`
		DuplicateCallThreshold int  `json:"duplicate_call_threshold"`
		RequireDocComments     bool `json:"require_doc_comments,omitempty"`

		ToolTimeoutSeconds int `json:"tool_timeout_seconds"`
		MaxConcurrentFiles int `json:"max_concurrent_files"`
	}

	AIConfig struct {
		Enabled     bool    `json:"enabled"`
		Provider    string  `json:"provider,omitempty"` // gemini
		Model       string  `json:"model,omitempty"`
		APIKey      string  `json:"api_key,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
		Temperature float64 `json:"temperature,omitempty"`

		EnablePerformanceSuggestions  bool `json:"enable_performance_suggestions"`
		EnableSecurityAnalysis        bool `json:"enable_security_analysis"`
		EnableReadabilityImprovements bool `json:"enable_readability_improvements"`

		CacheTTLHours int `json:"cache_ttl_hours,omitempty"`
	}
)

const (
	defaultLang         = "en"
	defaultOutputFormat = "json"

	defaultMaxLineLength          = 88
	defaultMaxFunctionLines       = 50
	defaultMinComplexityScore     = 5
	defaultDuplicateCallThreshold = 3
	defaultToolTimeoutSeconds     = 30
	defaultMaxConcurrentFiles     = 4

	defaultAIModel       = "gemini-2.5-flash"
	defaultAIMaxTokens   = 2000
	defaultAITemperature = 0.1
	defaultCacheTTLHours = 24

	defaultRequestTimeoutSeconds = 30
)

// ConfigDirName is the per-user directory holding config and cache.
const ConfigDirName = ".matereview"

// LoadConfig reads the config from path. When path is a directory (usually
// the user home), the config lives at <path>/.matereview/config.json and is
// created with defaults when absent.
func LoadConfig(path string) (*Config, error) {
	var configPath string

	if filepath.Ext(path) == ".json" {
		configPath = path
	} else {
		configDir := filepath.Join(path, ConfigDirName)
		configPath = filepath.Join(configDir, "config.json")

		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create config directory: %w", err)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	config.PathFile = configPath
	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("loaded configuration is invalid: %w", err)
	}

	return &config, nil
}

func createDefaultConfig(path string) (*Config, error) {
	config := Default()
	config.PathFile = path

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := SaveConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns a configuration with every default filled in and no
// providers configured.
func Default() *Config {
	return &Config{
		Language:     defaultLang,
		OutputFormat: defaultOutputFormat,
		VCSConfigs:   map[string]VCSConfig{},
		Analysis: AnalysisConfig{
			EnableLint:             true,
			LintCommand:            "pylint",
			EnableSecurityScan:     true,
			SecurityCommand:        "bandit",
			EnableFormatCheck:      true,
			FormatCommand:          "black",
			MaxLineLength:          defaultMaxLineLength,
			MaxFunctionLines:       defaultMaxFunctionLines,
			MinComplexityScore:     defaultMinComplexityScore,
			DuplicateCallThreshold: defaultDuplicateCallThreshold,
			ToolTimeoutSeconds:     defaultToolTimeoutSeconds,
			MaxConcurrentFiles:     defaultMaxConcurrentFiles,
		},
		AI: AIConfig{
			Enabled:                       false,
			Provider:                      "gemini",
			Model:                         defaultAIModel,
			MaxTokens:                     defaultAIMaxTokens,
			Temperature:                   defaultAITemperature,
			EnablePerformanceSuggestions:  true,
			EnableSecurityAnalysis:        true,
			EnableReadabilityImprovements: true,
			CacheTTLHours:                 defaultCacheTTLHours,
		},
	}
}

func applyDefaults(config *Config) {
	if config.Language == "" {
		config.Language = defaultLang
	}
	if config.OutputFormat == "" {
		config.OutputFormat = defaultOutputFormat
	}
	if config.VCSConfigs == nil {
		config.VCSConfigs = map[string]VCSConfig{}
	}
	if config.Analysis.MaxLineLength == 0 {
		config.Analysis.MaxLineLength = defaultMaxLineLength
	}
	if config.Analysis.MaxFunctionLines == 0 {
		config.Analysis.MaxFunctionLines = defaultMaxFunctionLines
	}
	if config.Analysis.MinComplexityScore == 0 {
		config.Analysis.MinComplexityScore = defaultMinComplexityScore
	}
	if config.Analysis.DuplicateCallThreshold == 0 {
		config.Analysis.DuplicateCallThreshold = defaultDuplicateCallThreshold
	}
	if config.Analysis.ToolTimeoutSeconds == 0 {
		config.Analysis.ToolTimeoutSeconds = defaultToolTimeoutSeconds
	}
	if config.Analysis.MaxConcurrentFiles == 0 {
		config.Analysis.MaxConcurrentFiles = defaultMaxConcurrentFiles
	}
	if config.AI.Model == "" {
		config.AI.Model = defaultAIModel
	}
	if config.AI.MaxTokens == 0 {
		config.AI.MaxTokens = defaultAIMaxTokens
	}
	if config.AI.CacheTTLHours == 0 {
		config.AI.CacheTTLHours = defaultCacheTTLHours
	}
}

func SaveConfig(config *Config) error {
	if err := Validate(config); err != nil {
		return fmt.Errorf("configuration to save is invalid: %w", err)
	}

	if config.PathFile == "" {
		return domainErrors.NewAppError(domainErrors.TypeConfiguration, "config file path is not set", nil)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	if err := os.WriteFile(config.PathFile, data, 0644); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	return nil
}

// Validate checks the whole configuration; it runs before any network
// activity so configuration errors fail fast.
func Validate(config *Config) error {
	if config.Language == "" {
		return domainErrors.NewAppError(domainErrors.TypeConfiguration, "language must not be empty", nil)
	}
	switch config.OutputFormat {
	case "json", "markdown":
	default:
		return domainErrors.ErrUnsupportedFormat.WithContext("format", config.OutputFormat)
	}
	if config.Analysis.MaxLineLength <= 0 {
		return domainErrors.NewAppError(domainErrors.TypeConfiguration, "max_line_length must be greater than 0", nil)
	}
	if config.Analysis.ToolTimeoutSeconds <= 0 {
		return domainErrors.NewAppError(domainErrors.TypeConfiguration, "tool_timeout_seconds must be greater than 0", nil)
	}
	if config.Analysis.MaxConcurrentFiles <= 0 {
		return domainErrors.NewAppError(domainErrors.TypeConfiguration, "max_concurrent_files must be greater than 0", nil)
	}

	for name, vcs := range config.VCSConfigs {
		if err := ValidateVCS(name, &vcs); err != nil {
			return err
		}
	}

	if config.AI.Enabled {
		if config.AI.Provider == "" {
			return domainErrors.NewAppError(domainErrors.TypeConfiguration, "ai provider must be set when AI is enabled", nil)
		}
		if config.AI.APIKey == "" {
			return domainErrors.ErrAPIKeyMissing
		}
	}

	return nil
}

// ValidateVCS checks one provider section. Bitbucket authenticates with
// username/password, the rest with a token.
func ValidateVCS(name string, vcs *VCSConfig) error {
	switch name {
	case "github", "gitlab":
		if vcs.Token == "" {
			return domainErrors.ErrTokenMissing.WithContext("provider", name)
		}
	case "bitbucket":
		if vcs.Username == "" || vcs.Password == "" {
			return domainErrors.ErrCredentialsMissing.WithContext("provider", name)
		}
	default:
		return domainErrors.ErrProviderNotSupported.WithContext("provider", name)
	}
	return nil
}

// RequestTimeout returns the per-request timeout for a provider section.
func (v VCSConfig) RequestTimeout() time.Duration {
	seconds := v.RequestTimeoutSeconds
	if seconds <= 0 {
		seconds = defaultRequestTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// ToolTimeout returns the bound applied to each external tool or AI call.
func (a AnalysisConfig) ToolTimeout() time.Duration {
	return time.Duration(a.ToolTimeoutSeconds) * time.Second
}

// CacheTTL returns how long cached AI responses stay valid.
func (a AIConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLHours) * time.Hour
}
