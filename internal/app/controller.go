package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"resumegrade/internal/ai"
	"resumegrade/internal/credential"
	"resumegrade/internal/errors"
	"resumegrade/internal/extract"
	"resumegrade/internal/observability"
	"resumegrade/internal/presentation"
	"resumegrade/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// MsgBusy is returned while another review is running
const MsgBusy = "An analysis is already in progress."

// ErrBusy rejects a file while a flow is in flight. The view is not touched.
var ErrBusy = stderrors.New(MsgBusy)

// Extractor turns an upload into text
type Extractor interface {
	Extract(ctx context.Context, file *extract.UploadedFile) (*extract.Extraction, error)
}

// Analyzer reviews resume text
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*types.AnalysisResult, *ai.TokenUsage, error)
}

// Options wires a Controller
type Options struct {
	Extractor     Extractor
	Analyzer      Analyzer
	Credentials   credential.Store
	KeyFormat     ai.KeyFormat
	View          *presentation.Controller
	Observability *observability.ObservabilityManager
	Logger        *errors.Logger
}

// Controller runs one review flow at a time and owns the credential modal
type Controller struct {
	extractor Extractor
	analyzer  Analyzer
	creds     credential.Store
	keyFormat ai.KeyFormat
	view      *presentation.Controller
	om        *observability.ObservabilityManager
	logger    *errors.Logger
	validate  *validator.Validate

	busy atomic.Bool
	wg   sync.WaitGroup

	mu    sync.Mutex
	phase Phase
	modal presentation.ModalView
}

// State is everything a client needs to draw the page
type State struct {
	Phase         Phase                  `json:"phase"`
	Snapshot      presentation.Snapshot  `json:"snapshot"`
	Modal         presentation.ModalView `json:"modal"`
	CredentialSet bool                   `json:"credentialSet"`
}

// New creates a controller in the idle phase
func New(opts Options) *Controller {
	view := opts.View
	if view == nil {
		view = presentation.NewController(nil)
	}
	om := opts.Observability
	if om == nil {
		om, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = errors.NewLoggerWithWriter(io.Discard, slog.LevelError)
	}
	keyFormat := opts.KeyFormat
	if keyFormat.Prefix == "" {
		keyFormat = ai.KeyFormatFor("")
	}

	return &Controller{
		extractor: opts.Extractor,
		analyzer:  opts.Analyzer,
		creds:     opts.Credentials,
		keyFormat: keyFormat,
		view:      view,
		om:        om,
		logger:    logger,
		validate:  validator.New(),
		phase:     PhaseIdle,
	}
}

// View returns the presentation controller
func (c *Controller) View() *presentation.Controller {
	return c.view
}

// Phase returns the current flow phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns the phase, view snapshot and modal state
func (c *Controller) State() State {
	c.mu.Lock()
	phase, modal := c.phase, c.modal
	c.mu.Unlock()

	return State{
		Phase:         phase,
		Snapshot:      c.view.Snapshot(),
		Modal:         modal,
		CredentialSet: c.creds.Has(),
	}
}

// HandleFile runs the whole flow for file and returns the review. Failures
// are also shown on the view.
func (c *Controller) HandleFile(ctx context.Context, file *extract.UploadedFile) (*types.AnalysisResult, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	if !c.begin() {
		return nil, errors.NewCredentialMissingError(MsgConfigureCredential)
	}
	return c.proceed(ctx, file)
}

// Submit starts the flow for file in the background. The view has already
// left the upload region when Submit returns nil.
func (c *Controller) Submit(ctx context.Context, file *extract.UploadedFile) error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	if !c.begin() {
		c.busy.Store(false)
		return nil
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.busy.Store(false)
		_, _ = c.proceed(ctx, file)
	}()
	return nil
}

// Wait blocks until background flows have finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Reset returns to the upload view from the results view
func (c *Controller) Reset() {
	c.dispatch(Event{Kind: EventReset})
}

// begin applies the file-selected event and reports whether extraction should start
func (c *Controller) begin() bool {
	effects := c.dispatch(Event{Kind: EventFileSelected, HasCredential: c.creds.Has()})
	return hasEffect(effects, EffectStartExtraction)
}

// proceed runs extraction and analysis. A panic anywhere ends the flow with
// the generic message.
func (c *Controller) proceed(ctx context.Context, file *extract.UploadedFile) (result *types.AnalysisResult, err error) {
	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID)

	defer func() {
		if r := recover(); r != nil {
			err = errors.NewUnexpectedError(fmt.Errorf("panic during review: %v", r))
			logger.LogError(err, "Review flow panicked")
			c.dispatch(Event{Kind: EventUnexpected})
			result = nil
		}
	}()

	started := time.Now()
	extraction, err := c.extractor.Extract(ctx, file)
	c.recordExtraction(ctx, file, err)
	if err != nil {
		logger.LogError(err, "Resume extraction failed")
		c.dispatch(Event{Kind: EventExtractionFailed, Message: errors.UserMessage(err)})
		return nil, err
	}

	effects := c.dispatch(Event{Kind: EventExtracted, Text: extraction.Text})
	text := extraction.Text
	for _, effect := range effects {
		if effect.Kind == EffectStartAnalysis {
			text = effect.Text
		}
	}

	result, err = c.analyze(ctx, text)
	metrics := c.om.GetMetrics()
	metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, err == nil,
		attribute.String("format", extraction.Format))
	if err != nil {
		logger.LogError(err, "Resume analysis failed")
		c.dispatch(Event{Kind: EventAnalysisFailed, Message: errors.UserMessage(err)})
		return nil, err
	}

	metrics.RecordReviewScore(ctx, result.ScoreOverall, attribute.String("format", extraction.Format))
	logger.Info("Resume reviewed",
		"format", extraction.Format,
		"score_overall", result.ScoreOverall,
		"duration_ms", time.Since(started).Milliseconds())
	c.dispatch(Event{Kind: EventAnalyzed, Result: result})
	return result, nil
}

func (c *Controller) analyze(ctx context.Context, text string) (*types.AnalysisResult, error) {
	var result *types.AnalysisResult
	err := c.om.GetMetrics().TrackAIOperationWithTokens(ctx, "analyze", func(ctx context.Context) *observability.AIOperationResult {
		analysis, usage, err := c.analyzer.Analyze(ctx, text)
		result = analysis
		op := &observability.AIOperationResult{Error: err}
		if usage != nil {
			op.TokenUsage = &observability.TokenUsage{
				InputTokens:  usage.InputTokens,
				OutputTokens: usage.OutputTokens,
				TotalTokens:  usage.TotalTokens,
			}
		}
		return op
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Controller) recordExtraction(ctx context.Context, file *extract.UploadedFile, err error) {
	format := "unknown"
	if file != nil {
		if f := extract.FormatFor(file.MIMEType); f != "" {
			format = f
		}
	}
	c.om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricTextExtracted, err == nil,
		attribute.String("format", format))
}

// dispatch runs Step and applies the view effects. Start effects are
// returned for the caller to act on.
func (c *Controller) dispatch(ev Event) []Effect {
	c.mu.Lock()
	next, effects := Step(c.phase, ev)
	c.phase = next
	c.mu.Unlock()

	for _, effect := range effects {
		switch effect.Kind {
		case EffectShowUpload:
			c.view.ShowUpload()
		case EffectShowLoading:
			c.view.ShowLoading(effect.Message)
		case EffectShowResults:
			c.view.ShowResults(effect.Result)
		case EffectShowError:
			c.view.ShowError(effect.Message)
		case EffectOpenModal:
			c.OpenModal()
		}
	}
	return effects
}

func hasEffect(effects []Effect, kind EffectKind) bool {
	for _, effect := range effects {
		if effect.Kind == kind {
			return true
		}
	}
	return false
}
