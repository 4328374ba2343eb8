package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/media"
	"contentanalyzer/internal/media/normalize"
	"contentanalyzer/internal/scratch"
	"contentanalyzer/internal/services"
)

const (
	inputBaseName = "input"
	audioFileName = "audio.wav"
)

// Upload is one submitted file. Body is read exactly once.
type Upload struct {
	Name string
	Body io.Reader
}

// Ext returns the lower-cased extension of the declared file name.
func (u Upload) Ext() string {
	return strings.ToLower(filepath.Ext(u.Name))
}

// Normalizer converts a media file into the canonical WAV.
type Normalizer interface {
	Normalize(ctx context.Context, src, dest string) (normalize.Info, error)
}

// Transcriber turns a canonical WAV into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Analyzer sends a composed prompt to a language model.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// Event reports a state transition.
type Event struct {
	RunID   string
	State   State
	Message string
	Err     error
}

// Observer receives every transition of a run, in order.
type Observer func(Event)

// Result is the outcome of one run. Analysis is only set when State is
// StateDone; Transcript is set once transcription succeeded.
type Result struct {
	RunID      string
	State      State
	Kind       media.Kind
	Audio      normalize.Info
	Transcript string
	Analysis   string
	Timings    map[State]time.Duration
	Elapsed    time.Duration
}

// Pipeline chains normalization, transcription and analysis for one upload
// at a time. It holds no per-run state and may be shared.
type Pipeline struct {
	scratch     *scratch.Manager
	normalizer  Normalizer
	transcriber Transcriber
	analyzer    Analyzer
	logger      *slog.Logger
}

// New wires the collaborators. They are built once at startup.
func New(scratchManager *scratch.Manager, normalizer Normalizer, transcriber Transcriber, analyzer Analyzer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		scratch:     scratchManager,
		normalizer:  normalizer,
		transcriber: transcriber,
		analyzer:    analyzer,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
	}
}

type run struct {
	p         *Pipeline
	ctx       context.Context
	result    *Result
	observers []Observer
	started   time.Time
	stepStart time.Time
}

// Run processes upload with the given prompt template. Every temp file the
// run creates is removed before Run returns, whatever the outcome.
func (p *Pipeline) Run(ctx context.Context, upload Upload, template string, observers ...Observer) (Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	result := Result{RunID: runID, State: StateIdle, Timings: map[State]time.Duration{}}
	r := &run{p: p, ctx: ctx, result: &result, observers: observers, started: time.Now()}

	logging.WithContext(ctx, p.logger).Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("upload", filepath.Base(upload.Name)),
	)

	err := r.execute(upload, template)
	result.Elapsed = time.Since(r.started)
	if err != nil {
		r.finish(TerminalState(err), err)
		return result, err
	}
	r.finish(StateDone, nil)
	return result, nil
}

func (r *run) execute(upload Upload, template string) error {
	ext := upload.Ext()
	kind, ok := media.Classify(ext)
	if !ok {
		return services.Wrap(services.ErrUnsupportedFormat, "", "", fmt.Sprintf("extension %q", ext), nil)
	}
	r.result.Kind = kind
	r.enter(StateExtracting, kind.ProgressMessage())

	scope, err := r.p.scratch.NewScope(r.result.RunID)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, string(StateExtracting), "scratch", "open scope", err)
	}
	defer func() {
		if err := scope.Release(); err != nil {
			logging.WithContext(r.ctx, r.p.logger).Warn("scratch release failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "scratch_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the run directory under paths.scratch_dir"),
			)
		}
	}()

	src, size, err := scope.Write(inputBaseName+ext, upload.Body)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, string(StateExtracting), "store upload", "", err)
	}
	logging.WithContext(r.ctx, r.p.logger).Debug("upload stored", logging.Int64("bytes", size))
	dest := scope.Path(audioFileName)
	info, err := r.p.normalizer.Normalize(r.ctx, src, dest)
	if err != nil {
		return markDefault(err, services.ErrDecode, StateExtracting, "normalize")
	}
	r.result.Audio = info

	r.enter(StateTranscribing, StateTranscribing.ProgressMessage())
	text, err := r.p.transcriber.Transcribe(r.ctx, dest)
	if err != nil {
		return markDefault(err, services.ErrTranscription, StateTranscribing, "transcribe")
	}
	r.result.Transcript = NormalizeTranscript(text)

	r.enter(StateAnalyzing, StateAnalyzing.ProgressMessage())
	analysis, err := r.p.analyzer.Analyze(r.ctx, ComposePrompt(template, r.result.Transcript))
	if err != nil {
		return markDefault(err, services.ErrAnalysis, StateAnalyzing, "analyze")
	}
	r.result.Analysis = analysis
	r.closeStep()
	return nil
}

// enter closes the timing of the current step and moves to next.
func (r *run) enter(next State, message string) {
	r.closeStep()
	r.result.State = next
	r.stepStart = time.Now()
	r.ctx = services.WithStage(r.ctx, string(next))
	logging.WithContext(r.ctx, r.p.logger).Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("progress_message", message),
	)
	r.notify(Event{RunID: r.result.RunID, State: next, Message: message})
}

func (r *run) closeStep() {
	if r.stepStart.IsZero() {
		return
	}
	r.result.Timings[r.result.State] += time.Since(r.stepStart)
	r.stepStart = time.Time{}
}

func (r *run) finish(state State, err error) {
	r.closeStep()
	from := r.result.State
	r.result.State = state
	if state != StateDone {
		r.result.Analysis = ""
	}
	logger := logging.WithContext(r.ctx, r.p.logger)
	switch state {
	case StateDone:
		logger.Info("run completed",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int("transcript_chars", len(r.result.Transcript)),
			logging.Int("analysis_chars", len(r.result.Analysis)),
			logging.Duration("elapsed", r.result.Elapsed),
		)
	case StateRejected:
		logger.Warn("upload rejected",
			logging.String(logging.FieldEventType, "run_rejected"),
			logging.String(logging.FieldErrorHint, "upload one of "+media.AcceptAttribute()),
			logging.Error(err),
		)
	default:
		logging.Failure(logger, "run failed", "run_failed", err,
			logging.String("failed_state", string(from)),
		)
	}
	message := state.ProgressMessage()
	if state == StateFailed && err != nil {
		message = err.Error()
	}
	r.notify(Event{RunID: r.result.RunID, State: state, Message: message, Err: err})
}

func (r *run) notify(event Event) {
	for _, observer := range r.observers {
		if observer != nil {
			observer(event)
		}
	}
}

func markDefault(err, marker error, state State, op string) error {
	if services.Marker(err) != nil {
		return err
	}
	return services.Wrap(marker, string(state), op, "", err)
}
