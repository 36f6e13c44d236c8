package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeConnection    ErrorType = "CONNECTION"
	TypeNotFound      ErrorType = "NOT_FOUND"
	TypeAPI           ErrorType = "API"
	TypeAnalyzer      ErrorType = "ANALYZER"
	TypeAI            ErrorType = "AI"
	TypeReport        ErrorType = "REPORT"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by type and message so sentinels survive wrapping
// through WithError/WithContext.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// NewConnectionError wraps a provider connectivity failure.
func NewConnectionError(provider string, err error) *AppError {
	return NewAppError(TypeConnection, fmt.Sprintf("failed to connect to %s", provider), err).
		WithContext("provider", provider).
		WithSuggestion("Check your credentials and network access")
}

// NewNotFoundError marks a resource that does not exist at the provider.
func NewNotFoundError(resource string, err error) *AppError {
	return NewAppError(TypeNotFound, fmt.Sprintf("%s not found", resource), err).
		WithContext("resource", resource)
}

// NewAPIError wraps a transport or protocol failure from a provider API.
func NewAPIError(provider string, err error) *AppError {
	return NewAppError(TypeAPI, fmt.Sprintf("%s API request failed", provider), err).
		WithContext("provider", provider)
}

// IsNotFound reports whether err is (or wraps) a NOT_FOUND error.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == TypeNotFound
}

// IsConnection reports whether err is (or wraps) a CONNECTION error.
func IsConnection(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == TypeConnection
}

// IsConfiguration reports whether err is (or wraps) a CONFIGURATION error.
func IsConfiguration(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == TypeConfiguration
}

// Configuration errors
var (
	ErrProviderNotConfigured = NewAppError(TypeConfiguration, "Provider is not configured", nil).
					WithSuggestion("Add it with: matereview config set-vcs --provider <name> --token <token>")

	ErrProviderNotSupported = NewAppError(TypeConfiguration, "Provider is not supported", nil).
				WithSuggestion("Supported providers: github, gitlab, bitbucket")

	ErrTokenMissing = NewAppError(TypeConfiguration, "Provider token is missing", nil).
			WithSuggestion("Set it with: matereview config set-vcs --provider <name> --token <token>")

	ErrCredentialsMissing = NewAppError(TypeConfiguration, "Provider username and password are required", nil).
				WithSuggestion("Set them with: matereview config set-vcs --provider <name> --username <user> --password <pass>")

	ErrAPIKeyMissing = NewAppError(TypeConfiguration, "AI API key is missing", nil).
				WithSuggestion("Set it with: matereview config set-ai --api-key <key>")
)

// Report errors
var (
	ErrUnsupportedFormat = NewAppError(TypeReport, "Unsupported output format", nil).
		WithSuggestion("Use one of: json, markdown")
)
