package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"contentanalyzer/internal/media"
	"contentanalyzer/internal/media/normalize"
	"contentanalyzer/internal/pipeline"
	"contentanalyzer/internal/scratch"
	"contentanalyzer/internal/services"
	"contentanalyzer/internal/testsupport"
)

type fakeNormalizer struct {
	fs     afero.Fs
	err    error
	calls  int
	srcHad []byte
}

func (f *fakeNormalizer) Normalize(_ context.Context, src, dest string) (normalize.Info, error) {
	f.calls++
	data, err := afero.ReadFile(f.fs, src)
	if err != nil {
		return normalize.Info{}, err
	}
	f.srcHad = data
	if f.err != nil {
		return normalize.Info{}, f.err
	}
	if err := afero.WriteFile(f.fs, dest, []byte("RIFF"), 0o600); err != nil {
		return normalize.Info{}, err
	}
	return normalize.Info{SampleRate: 16000, Channels: 1, BitDepth: 16, Duration: time.Second}, nil
}

type stubTranscriber struct {
	text  string
	err   error
	paths []string
}

func (s *stubTranscriber) Transcribe(_ context.Context, wavPath string) (string, error) {
	s.paths = append(s.paths, wavPath)
	return s.text, s.err
}

type capturingAnalyzer struct {
	reply   string
	err     error
	prompts []string
}

func (c *capturingAnalyzer) Analyze(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.reply, c.err
}

const sectionedReply = `### 1. Key points discussed
- greeting
### 2. Overall tone and delivery
calm
### 3. Areas of strength
clear
### 4. Areas for improvement
pace
### 5. Overall assessment
good`

func memScratch(t *testing.T) (afero.Fs, *scratch.Manager) {
	t.Helper()
	fs := afero.NewMemMapFs()
	mgr := scratch.NewManager(fs, "/scratch", nil)
	if err := mgr.Open(); err != nil {
		t.Fatalf("open scratch: %v", err)
	}
	return fs, mgr
}

func leftoverEntries(t *testing.T, fs afero.Fs, root string) []string {
	t.Helper()
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		t.Fatalf("read scratch root: %v", err)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}

func recordStates(states *[]pipeline.State) pipeline.Observer {
	return func(e pipeline.Event) {
		*states = append(*states, e.State)
	}
}

func TestRunDoneThroughStubCollaborators(t *testing.T) {
	fs, mgr := memScratch(t)
	norm := &fakeNormalizer{fs: fs}
	transcriber := &stubTranscriber{text: " hello there "}
	analyzer := &capturingAnalyzer{reply: sectionedReply}
	p := pipeline.New(mgr, norm, transcriber, analyzer, nil)

	var states []pipeline.State
	var messages []string
	result, err := p.Run(context.Background(), pipeline.Upload{Name: "Talk.WAV", Body: strings.NewReader("payload")}, pipeline.DefaultPrompt,
		recordStates(&states),
		func(e pipeline.Event) { messages = append(messages, e.Message) },
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != pipeline.StateDone {
		t.Fatalf("expected done, got %s", result.State)
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
	if result.Kind != media.KindAudio {
		t.Fatalf("expected audio kind, got %s", result.Kind)
	}
	if result.Transcript != "hello there" {
		t.Fatalf("unexpected transcript %q", result.Transcript)
	}
	for _, section := range pipeline.DefaultSections {
		if !strings.Contains(result.Analysis, section) {
			t.Fatalf("analysis missing section %q", section)
		}
	}
	if string(norm.srcHad) != "payload" {
		t.Fatalf("normalizer saw %q", norm.srcHad)
	}
	if len(transcriber.paths) != 1 || filepath.Base(transcriber.paths[0]) != "audio.wav" {
		t.Fatalf("unexpected transcriber input %v", transcriber.paths)
	}

	want := []pipeline.State{pipeline.StateExtracting, pipeline.StateTranscribing, pipeline.StateAnalyzing, pipeline.StateDone}
	if len(states) != len(want) {
		t.Fatalf("unexpected transitions %v", states)
	}
	prev := pipeline.StateIdle
	for i, state := range states {
		if state != want[i] {
			t.Fatalf("transition %d: got %s want %s", i, state, want[i])
		}
		if !pipeline.CanTransition(prev, state) {
			t.Fatalf("illegal transition %s -> %s", prev, state)
		}
		prev = state
	}
	if messages[0] != "Converting audio to WAV format..." || messages[1] != "Transcribing audio..." || messages[2] != "Analyzing content..." {
		t.Fatalf("unexpected progress messages %q", messages)
	}
	for _, state := range []pipeline.State{pipeline.StateExtracting, pipeline.StateTranscribing, pipeline.StateAnalyzing} {
		if _, ok := result.Timings[state]; !ok {
			t.Fatalf("missing timing for %s", state)
		}
	}
	if left := leftoverEntries(t, fs, mgr.Root()); len(left) != 0 {
		t.Fatalf("expected no temp files after done, found %v", left)
	}
}

func TestRunRejectsUnsupportedExtension(t *testing.T) {
	fs, mgr := memScratch(t)
	norm := &fakeNormalizer{fs: fs}
	transcriber := &stubTranscriber{text: "unused"}
	analyzer := &capturingAnalyzer{reply: "unused"}
	p := pipeline.New(mgr, norm, transcriber, analyzer, nil)

	var events []pipeline.Event
	result, err := p.Run(context.Background(), pipeline.Upload{Name: "notes.txt", Body: strings.NewReader("text")}, pipeline.DefaultPrompt,
		func(e pipeline.Event) { events = append(events, e) })
	if !errors.Is(err, services.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if result.State != pipeline.StateRejected || pipeline.TerminalState(err) != pipeline.StateRejected {
		t.Fatalf("expected rejected, got %s", result.State)
	}
	if result.Transcript != "" || result.Analysis != "" {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if norm.calls != 0 || len(transcriber.paths) != 0 || len(analyzer.prompts) != 0 {
		t.Fatal("no collaborator should run for a rejected upload")
	}
	if len(events) != 1 || events[0].State != pipeline.StateRejected || events[0].Message != pipeline.UnsupportedFormatMessage {
		t.Fatalf("unexpected events %+v", events)
	}
	if left := leftoverEntries(t, fs, mgr.Root()); len(left) != 0 {
		t.Fatalf("expected zero temp files after rejection, found %v", left)
	}
}

func TestRunFailuresReleaseScratch(t *testing.T) {
	cases := []struct {
		name       string
		normErr    error
		sttErr     error
		llmErr     error
		marker     error
		failedIn   pipeline.State
		transcript string
	}{
		{name: "normalize", normErr: errors.New("ffmpeg exploded"), marker: services.ErrDecode, failedIn: pipeline.StateExtracting},
		{name: "transcribe", sttErr: errors.New("model crashed"), marker: services.ErrTranscription, failedIn: pipeline.StateTranscribing},
		{name: "analyze", llmErr: errors.New("401 unauthorized"), marker: services.ErrAnalysis, failedIn: pipeline.StateAnalyzing, transcript: "spoken words"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs, mgr := memScratch(t)
			p := pipeline.New(mgr,
				&fakeNormalizer{fs: fs, err: tc.normErr},
				&stubTranscriber{text: "spoken words", err: tc.sttErr},
				&capturingAnalyzer{reply: "ignored", err: tc.llmErr},
				nil,
			)
			var states []pipeline.State
			result, err := p.Run(context.Background(), pipeline.Upload{Name: "clip.mp4", Body: strings.NewReader("video")}, "prompt", recordStates(&states))
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if result.State != pipeline.StateFailed {
				t.Fatalf("expected failed, got %s", result.State)
			}
			if len(states) < 2 || states[len(states)-2] != tc.failedIn || states[len(states)-1] != pipeline.StateFailed {
				t.Fatalf("unexpected transitions %v", states)
			}
			if result.Analysis != "" {
				t.Fatalf("analysis must be empty on failure, got %q", result.Analysis)
			}
			if result.Transcript != tc.transcript {
				t.Fatalf("unexpected transcript %q", result.Transcript)
			}
			if left := leftoverEntries(t, fs, mgr.Root()); len(left) != 0 {
				t.Fatalf("expected zero temp files after failure, found %v", left)
			}
		})
	}
}

func TestRunUploadReadFailure(t *testing.T) {
	fs, mgr := memScratch(t)
	p := pipeline.New(mgr, &fakeNormalizer{fs: fs}, &stubTranscriber{}, &capturingAnalyzer{}, nil)
	body := errReader{err: errors.New("connection reset")}
	result, err := p.Run(context.Background(), pipeline.Upload{Name: "a.mp3", Body: body}, "prompt")
	if err == nil || result.State != pipeline.StateFailed {
		t.Fatalf("expected failure, got state=%s err=%v", result.State, err)
	}
	if left := leftoverEntries(t, fs, mgr.Root()); len(left) != 0 {
		t.Fatalf("expected zero temp files, found %v", left)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestAnalyzerReceivesComposedPrompt(t *testing.T) {
	fs, mgr := memScratch(t)
	analyzer := &capturingAnalyzer{reply: "ok"}
	p := pipeline.New(mgr, &fakeNormalizer{fs: fs}, &stubTranscriber{text: "the words"}, analyzer, nil)

	template := "Summarize briefly.\nBe kind."
	if _, err := p.Run(context.Background(), pipeline.Upload{Name: "a.m4a", Body: strings.NewReader("x")}, template); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := "Summarize briefly.\nBe kind." + "\n\n" + "Transcription:" + "\n" + "the words"
	if len(analyzer.prompts) != 1 || analyzer.prompts[0] != want {
		t.Fatalf("unexpected prompt %q", analyzer.prompts)
	}
	if got := pipeline.ComposePrompt(template, "the words"); got != want {
		t.Fatalf("ComposePrompt mismatch: %q", got)
	}
}

func TestTranscriptIsDeterministic(t *testing.T) {
	fs, mgr := memScratch(t)
	// "Café" with a combining acute accent.
	decomposed := "  Cafe\u0301 au lait\n"
	p := pipeline.New(mgr, &fakeNormalizer{fs: fs}, &stubTranscriber{text: decomposed}, &capturingAnalyzer{reply: "ok"}, nil)

	var outputs [][]byte
	for range 2 {
		result, err := p.Run(context.Background(), pipeline.Upload{Name: "a.wav", Body: strings.NewReader("x")}, "prompt")
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		outputs = append(outputs, []byte(result.Transcript))
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Fatalf("transcripts differ: %q vs %q", outputs[0], outputs[1])
	}
	if string(outputs[0]) != "Caf\u00e9 au lait" {
		t.Fatalf("expected NFC transcript, got %q", outputs[0])
	}
}

func TestRunEndToEndWithStubMediaTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFakeMedia(2*time.Second))
	mgr := scratch.NewManager(nil, cfg.Paths.ScratchDir, nil)
	if err := mgr.Open(); err != nil {
		t.Fatalf("open scratch: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	normalizer := normalize.New(normalize.Config{
		FFmpegBinary:      cfg.Media.FFmpegBinary,
		FFprobeBinary:     cfg.Media.FFprobeBinary,
		VerifyDuration:    true,
		DurationTolerance: 500 * time.Millisecond,
	}, nil)

	t.Run("video with auth failure", func(t *testing.T) {
		analyzer := &capturingAnalyzer{err: services.Wrap(services.ErrAnalysis, "analyzing", "gemini", "", errors.New("401: API key not valid"))}
		p := pipeline.New(mgr, normalizer, &stubTranscriber{text: "we shipped the release"}, analyzer, nil)
		result, err := p.Run(context.Background(), pipeline.Upload{Name: "demo.mp4", Body: strings.NewReader("not really video")}, pipeline.DefaultPrompt)
		if !errors.Is(err, services.ErrAnalysis) {
			t.Fatalf("expected analysis failure, got %v", err)
		}
		if result.State != pipeline.StateFailed || result.Analysis != "" {
			t.Fatalf("unexpected result %+v", result)
		}
		if result.Transcript == "" {
			t.Fatal("transcript should survive an analysis failure")
		}
		if result.Audio.SampleRate != normalize.SampleRate || result.Audio.Channels != normalize.Channels {
			t.Fatalf("unexpected audio info %+v", result.Audio)
		}
		assertNoRunDirs(t, mgr.Root())
	})

	t.Run("audio done", func(t *testing.T) {
		p := pipeline.New(mgr, normalizer, &stubTranscriber{text: "hello world"}, &capturingAnalyzer{reply: sectionedReply}, nil)
		result, err := p.Run(context.Background(), pipeline.Upload{Name: "speech.wav", Body: strings.NewReader("RIFF")}, pipeline.DefaultPrompt)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Audio.Duration != 2*time.Second {
			t.Fatalf("expected 2s canonical audio, got %s", result.Audio.Duration)
		}
		assertNoRunDirs(t, mgr.Root())
	})
}

func assertNoRunDirs(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read scratch root: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "run-") {
			t.Fatalf("leftover scratch directory %s", entry.Name())
		}
	}
}

func TestTerminalState(t *testing.T) {
	if pipeline.TerminalState(nil) != pipeline.StateDone {
		t.Fatal("nil error should be done")
	}
	if pipeline.TerminalState(services.Wrap(services.ErrUnsupportedFormat, "", "", "x", nil)) != pipeline.StateRejected {
		t.Fatal("unsupported format should be rejected")
	}
	if pipeline.TerminalState(errors.New("boom")) != pipeline.StateFailed {
		t.Fatal("other errors should fail")
	}
	if pipeline.CanTransition(pipeline.StateIdle, pipeline.StateFailed) {
		t.Fatal("idle cannot fail directly")
	}
	if !pipeline.StateDone.Terminal() || pipeline.StateAnalyzing.Terminal() {
		t.Fatal("unexpected terminal classification")
	}
}
