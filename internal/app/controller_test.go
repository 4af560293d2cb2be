package app

import (
	"context"
	"sync"
	"testing"

	"resumegrade/internal/ai"
	"resumegrade/internal/credential"
	"resumegrade/internal/errors"
	"resumegrade/internal/extract"
	"resumegrade/internal/presentation"
	"resumegrade/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
	panic bool
}

func (f *fakeExtractor) Extract(_ context.Context, file *extract.UploadedFile) (*extract.Extraction, error) {
	f.calls++
	if f.panic {
		panic("corrupt state")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &extract.Extraction{Text: f.text, Format: extract.FormatPDF, PageCount: 1}, nil
}

type fakeAnalyzer struct {
	result   *types.AnalysisResult
	err      error
	calls    int
	lastText string
	gate     chan struct{}
}

func (f *fakeAnalyzer) Analyze(_ context.Context, text string) (*types.AnalysisResult, *ai.TokenUsage, error) {
	f.calls++
	f.lastText = text
	if f.gate != nil {
		<-f.gate
	}
	return f.result, &ai.TokenUsage{TotalTokens: 10}, f.err
}

func sampleAnalysis() *types.AnalysisResult {
	return &types.AnalysisResult{
		ScoreOverall:         72,
		Scores:               types.CategoryScores{Impact: 65, Clarity: 80, Structure: 75, Skills: 70, ATSCompatibility: 68},
		InterviewProbability: "Medium",
	}
}

func newTestApp(key string, ex *fakeExtractor, an *fakeAnalyzer) *Controller {
	return New(Options{
		Extractor:   ex,
		Analyzer:    an,
		Credentials: credential.NewMemoryStore(key),
		KeyFormat:   ai.KeyFormatFor("openai"),
	})
}

func pdfUpload() *extract.UploadedFile {
	return extract.NewUploadedFile("resume.pdf", extract.MIMETypePDF, []byte("%PDF-1.4"))
}

func TestHandleFileSuccess(t *testing.T) {
	ex := &fakeExtractor{text: "Jane Doe, Senior Engineer with ten years of experience building APIs."}
	an := &fakeAnalyzer{result: sampleAnalysis()}
	c := newTestApp("sk-live", ex, an)

	result, err := c.HandleFile(context.Background(), pdfUpload())
	require.NoError(t, err)
	assert.Equal(t, 72, result.ScoreOverall)
	assert.Equal(t, ex.text, an.lastText)

	assert.Equal(t, PhaseResults, c.Phase())
	view := c.View().View()
	assert.Equal(t, presentation.ViewResults, view.Kind)
	assert.Equal(t, 68, view.Result.Scores.ATSCompatibility)
}

func TestHandleFileWithoutCredential(t *testing.T) {
	ex := &fakeExtractor{text: "irrelevant"}
	an := &fakeAnalyzer{}
	c := newTestApp("", ex, an)

	_, err := c.HandleFile(context.Background(), pdfUpload())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCredentialMissing))
	assert.Zero(t, ex.calls, "extraction must not start")
	assert.Zero(t, an.calls)

	state := c.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.True(t, state.Modal.Open)
	assert.Empty(t, state.Modal.Prefill)
	require.Len(t, state.Snapshot.Banners, 1)
	assert.Equal(t, MsgConfigureCredential, state.Snapshot.Banners[0].Message)
}

func TestHandleFileExtractionFailure(t *testing.T) {
	tooLarge := errors.NewValidationError(errors.ErrCodeFileTooLarge, "File too large. Maximum size is 5MB.", nil)
	an := &fakeAnalyzer{result: sampleAnalysis()}
	c := newTestApp("sk-live", &fakeExtractor{err: tooLarge}, an)

	_, err := c.HandleFile(context.Background(), pdfUpload())
	require.Error(t, err)
	assert.Zero(t, an.calls, "no network call after a rejected file")

	state := c.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, presentation.ViewUpload, state.Snapshot.View.Kind)
	require.Len(t, state.Snapshot.Banners, 1)
	assert.Equal(t, "File too large. Maximum size is 5MB.", state.Snapshot.Banners[0].Message)
}

func TestHandleFileAnalysisFailure(t *testing.T) {
	authErr := errors.NewAuthError(ai.MsgInvalidAPIKey, nil)
	c := newTestApp("sk-live", &fakeExtractor{text: "some resume text"}, &fakeAnalyzer{err: authErr})

	_, err := c.HandleFile(context.Background(), pdfUpload())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))

	state := c.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, presentation.ViewUpload, state.Snapshot.View.Kind)
	assert.Equal(t, ai.MsgInvalidAPIKey, state.Snapshot.Banners[0].Message)
}

func TestHandleFileRecoversPanics(t *testing.T) {
	c := newTestApp("sk-live", &fakeExtractor{panic: true}, &fakeAnalyzer{})

	_, err := c.HandleFile(context.Background(), pdfUpload())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnexpected))

	state := c.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, errors.UnexpectedErrorMessage, state.Snapshot.Banners[0].Message)

	// the controller accepts a new file afterwards
	_, err = c.HandleFile(context.Background(), pdfUpload())
	assert.NotErrorIs(t, err, ErrBusy)
}

func TestSubmitRejectsOverlappingFlows(t *testing.T) {
	an := &fakeAnalyzer{result: sampleAnalysis(), gate: make(chan struct{})}
	c := newTestApp("sk-live", &fakeExtractor{text: "some resume text"}, an)

	require.NoError(t, c.Submit(context.Background(), pdfUpload()))
	assert.True(t, c.Phase().Busy())

	revision := c.View().Snapshot().Revision
	err := c.Submit(context.Background(), pdfUpload())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.HandleFile(context.Background(), pdfUpload())
	assert.ErrorIs(t, err, ErrBusy)

	close(an.gate)
	c.Wait()

	assert.Equal(t, PhaseResults, c.Phase())
	assert.Equal(t, 1, an.calls)
	assert.Greater(t, c.View().Snapshot().Revision, revision)
}

func TestSubmitConcurrentCallers(t *testing.T) {
	an := &fakeAnalyzer{result: sampleAnalysis(), gate: make(chan struct{})}
	c := newTestApp("sk-live", &fakeExtractor{text: "some resume text"}, an)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Submit(context.Background(), pdfUpload()) == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(an.gate)
	c.Wait()

	assert.Equal(t, 1, accepted)
}

func TestReset(t *testing.T) {
	c := newTestApp("sk-live", &fakeExtractor{text: "some resume text"}, &fakeAnalyzer{result: sampleAnalysis()})
	_, err := c.HandleFile(context.Background(), pdfUpload())
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, presentation.ViewUpload, c.View().View().Kind)
}
