package common

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"resumegrade/internal/errors"
	"resumegrade/internal/extract"
	"resumegrade/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelError)
}

func TestLoadUploadSniffsPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n"), 0600))

	file, err := NewFileProcessor(quietLogger()).LoadUpload(path, 5*1024*1024)
	require.NoError(t, err)
	assert.Equal(t, "resume.pdf", file.Name)
	assert.Equal(t, extract.MIMETypePDF, file.MIMEType)
	assert.NotZero(t, file.Size)
}

func TestLoadUploadMissingFile(t *testing.T) {
	_, err := NewFileProcessor(quietLogger()).LoadUpload(filepath.Join(t.TempDir(), "nope.pdf"), 0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestLoadUploadStopsPastLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.pdf")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 4096), 0o600))

	file, err := NewFileProcessor(quietLogger()).LoadUpload(path, 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(1025), file.Size)
}

func TestHandleOutputToWriter(t *testing.T) {
	var buf bytes.Buffer
	handler := NewOutputHandler(quietLogger(), &buf)

	result := &types.AnalysisResult{ScoreOverall: 72, InterviewProbability: "Medium"}
	require.NoError(t, handler.HandleOutput(result, CommandConfig{OutputFormat: "text"}))
	assert.Contains(t, buf.String(), "Overall Score: 72/100")
}

func TestHandleOutputToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "review.json")
	handler := NewOutputHandler(quietLogger(), io.Discard)

	result := &types.AnalysisResult{ScoreOverall: 80}
	require.NoError(t, handler.HandleOutput(result, CommandConfig{OutputFile: out, OutputFormat: "json"}))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"score_overall": 80`)
}

func TestHandleOutputUnknownFormat(t *testing.T) {
	handler := NewOutputHandler(quietLogger(), io.Discard)
	err := handler.HandleOutput(&types.AnalysisResult{}, CommandConfig{OutputFormat: "xml"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
