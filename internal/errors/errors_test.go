package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      NewAuthError("Invalid API key. Please check your OpenAI API key.", nil),
			expected: "Invalid API key. Please check your OpenAI API key.",
		},
		{
			name:     "wrapped app error",
			err:      fmt.Errorf("analyze: %w", NewRateLimitedError("Rate limit exceeded. Please try again in a moment.", nil)),
			expected: "Rate limit exceeded. Please try again in a moment.",
		},
		{
			name:     "foreign error",
			err:      stderrors.New("boom"),
			expected: UnexpectedErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserMessage(tt.err))
		})
	}
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewResponseShapeError("Invalid AI response: missing field 'scores'"))

	assert.True(t, IsType(err, ErrorTypeResponseShape))
	assert.False(t, IsType(err, ErrorTypeResponseParse))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeResponseShape))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("zip: not a valid zip file")
	err := NewExtractionError(ErrCodeDOCXExtraction, "Failed to extract text from DOCX. Please ensure the file is not corrupted.", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), ErrCodeDOCXExtraction)
	assert.Contains(t, err.Error(), "caused by")
}

func TestLogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewValidationError(ErrCodeFileTooLarge, "File too large. Maximum size is 5MB.", nil).
		WithContext("file_size", 6291456)
	logger.LogError(err, "Upload rejected", "request_id", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Upload rejected", record["msg"])
	assert.Equal(t, string(ErrorTypeValidation), record["error_type"])
	assert.Equal(t, ErrCodeFileTooLarge, record["error_code"])
	assert.Equal(t, float64(6291456), record["file_size"])
	assert.Equal(t, "abc", record["request_id"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("verbose")
	assert.Error(t, err)

	logger, err := New("warn")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
