package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeExtraction        ErrorType = "extraction"
	ErrorTypeCredentialMissing ErrorType = "credential_missing"
	ErrorTypeAuth              ErrorType = "auth"
	ErrorTypeRateLimited       ErrorType = "rate_limited"
	ErrorTypeProvider          ErrorType = "provider"
	ErrorTypeResponseParse     ErrorType = "response_parse"
	ErrorTypeResponseShape     ErrorType = "response_shape"
	ErrorTypeUnexpected        ErrorType = "unexpected"
	ErrorTypeIO                ErrorType = "io"
	ErrorTypeConfig            ErrorType = "config"
)

// UnexpectedErrorMessage is shown for failures that carry no user-facing message.
const UnexpectedErrorMessage = "An unexpected error occurred. Please try again."

// AppError represents a structured application error. Message is always
// safe to show to the user.
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// newAppError is an unexported helper to create AppError instances
func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewExtractionError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeExtraction, code, message, cause)
}

func NewCredentialMissingError(message string) *AppError {
	return newAppError(ErrorTypeCredentialMissing, ErrCodeMissingAPIKey, message, nil)
}

func NewAuthError(message string, cause error) *AppError {
	return newAppError(ErrorTypeAuth, ErrCodeInvalidAPIKey, message, cause)
}

func NewRateLimitedError(message string, cause error) *AppError {
	return newAppError(ErrorTypeRateLimited, ErrCodeRateLimited, message, cause)
}

func NewProviderError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeProvider, code, message, cause)
}

func NewResponseParseError(message string, cause error) *AppError {
	return newAppError(ErrorTypeResponseParse, ErrCodeResponseParse, message, cause)
}

func NewResponseShapeError(message string) *AppError {
	return newAppError(ErrorTypeResponseShape, ErrCodeResponseShape, message, nil)
}

func NewUnexpectedError(cause error) *AppError {
	return newAppError(ErrorTypeUnexpected, ErrCodeUnexpected, UnexpectedErrorMessage, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == typ
	}
	return false
}

// UserMessage returns the message to show for err. Errors that are not
// AppErrors are reported with the generic unexpected message.
func UserMessage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return UnexpectedErrorMessage
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger writing JSON to stdout
func NewLogger(level slog.Level) *Logger {
	return NewLoggerWithWriter(os.Stdout, level)
}

// NewLoggerWithWriter creates a JSON logger writing to w
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(w, opts)
	return &Logger{logger: slog.New(handler)}
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		logArgs := []any{
			"error_type", appErr.Type,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}
		if appErr.Cause != nil {
			logArgs = append(logArgs, "cause", appErr.Cause.Error())
		}

		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}

		logArgs = append(logArgs, args...)

		l.logger.Error(message, logArgs...)
	} else {
		logArgs := append([]any{"error", err.Error()}, args...)
		l.logger.Error(message, logArgs...)
	}
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// With returns a logger that adds args to every record
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewLogger(slogLevel), nil
}

// ParseLevel maps a configured level name onto a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// Common error codes
const (
	ErrCodeNoFile           = "NO_FILE"
	ErrCodeUnsupportedType  = "UNSUPPORTED_FILE_TYPE"
	ErrCodeFileTooLarge     = "FILE_TOO_LARGE"
	ErrCodePDFExtraction    = "PDF_EXTRACTION_FAILED"
	ErrCodeDOCXExtraction   = "DOCX_EXTRACTION_FAILED"
	ErrCodeTextTooShort     = "TEXT_TOO_SHORT"
	ErrCodeMissingAPIKey    = "MISSING_API_KEY"
	ErrCodeInvalidAPIKey    = "INVALID_API_KEY"
	ErrCodeInvalidKeyFormat = "INVALID_API_KEY_FORMAT"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeProviderFailed   = "PROVIDER_FAILED"
	ErrCodeServiceError     = "PROVIDER_SERVICE_ERROR"
	ErrCodeCircuitOpen      = "PROVIDER_UNAVAILABLE"
	ErrCodeResponseParse    = "AI_RESPONSE_PARSE_FAILED"
	ErrCodeResponseShape    = "AI_RESPONSE_INVALID"
	ErrCodeUnexpected       = "UNEXPECTED"
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable  = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat    = "INVALID_FORMAT"
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
	ErrCodeCredentialStore  = "CREDENTIAL_STORE_FAILED"
)
