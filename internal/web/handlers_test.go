package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"contentanalyzer/internal/media/normalize"
	"contentanalyzer/internal/pipeline"
	"contentanalyzer/internal/scratch"
	"contentanalyzer/internal/services"
)

type fakeNormalizer struct{ fs afero.Fs }

func (f fakeNormalizer) Normalize(_ context.Context, _, dest string) (normalize.Info, error) {
	if err := afero.WriteFile(f.fs, dest, []byte("RIFF"), 0o600); err != nil {
		return normalize.Info{}, err
	}
	return normalize.Info{SampleRate: 16000, Channels: 1, BitDepth: 16, Duration: 10 * time.Second}, nil
}

type stubTranscriber struct{ text string }

func (s stubTranscriber) Transcribe(context.Context, string) (string, error) { return s.text, nil }

type stubAnalyzer struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubAnalyzer) Analyze(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

const fiveSections = "### 1. Key points discussed\nA & B\n\n### 2. Overall tone and delivery\nok\n\n" +
	"### 3. Areas of strength\nok\n\n### 4. Areas for improvement\nok\n\n### 5. Overall assessment\nok"

type testEnv struct {
	router   http.Handler
	fs       afero.Fs
	root     string
	analyzer *stubAnalyzer
}

func newTestEnv(t *testing.T, analyzer *stubAnalyzer, health HealthFunc) *testEnv {
	t.Helper()
	return newTestEnvWithTranscript(t, "hello from the recording", analyzer, health)
}

func newTestEnvWithTranscript(t *testing.T, transcript string, analyzer *stubAnalyzer, health HealthFunc) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fs := afero.NewMemMapFs()
	mgr := scratch.NewManager(fs, "/scratch", nil)
	if err := mgr.Open(); err != nil {
		t.Fatalf("open scratch: %v", err)
	}
	p := pipeline.New(mgr, fakeNormalizer{fs: fs}, stubTranscriber{text: transcript}, analyzer, nil)
	srv, err := NewServer(Options{
		Bind:           "127.0.0.1:0",
		MaxUploadBytes: 1 << 20,
		Runner:         p,
		Health:         health,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return &testEnv{router: srv.Handler(), fs: fs, root: mgr.Root(), analyzer: analyzer}
}

func (e *testEnv) assertNoTempFiles(t *testing.T) {
	t.Helper()
	entries, err := afero.ReadDir(e.fs, e.root)
	if err != nil {
		t.Fatalf("read scratch root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected zero temp files, found %d", len(entries))
	}
}

func multipartRequest(t *testing.T, path, filename string, content []byte, prompt *string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if prompt != nil {
		if err := writer.WriteField("prompt", *prompt); err != nil {
			t.Fatalf("write prompt: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersForm(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{reply: "x"}, nil)
	rec := serve(env.router, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`accept=".mp4,.mov,.avi,.m4a,.wav,.mp3"`,
		"You are an expert interviewer.",
		"Process File",
		"How to use:",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("index missing %q", want)
		}
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestProcessRendersBothViews(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{reply: fiveSections}, nil)
	prompt := pipeline.DefaultPrompt
	rec := serve(env.router, multipartRequest(t, "/process", "speech.wav", []byte("RIFF...."), &prompt))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, section := range pipeline.DefaultSections {
		if !strings.Contains(body, section) {
			t.Fatalf("result page missing section %q", section)
		}
	}
	for _, want := range []string{
		"<h3>1. Key points discussed</h3>",
		"A &amp; B",
		"hello from the recording",
		`download="analysis.txt"`,
		`download="transcription.txt"`,
		"data:text/plain;charset=utf-8,",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("result page missing %q", want)
		}
	}
	env.assertNoTempFiles(t)
}

func TestProcessSilentRecordingShowsNotice(t *testing.T) {
	env := newTestEnvWithTranscript(t, "   ", &stubAnalyzer{reply: fiveSections}, nil)
	prompt := pipeline.DefaultPrompt
	rec := serve(env.router, multipartRequest(t, "/process", "silence.wav", []byte("RIFF...."), &prompt))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, noSpeechNotice) {
		t.Fatalf("expected no-speech notice, got %s", body)
	}
	for _, unwanted := range []string{`class="tabs"`, `download="analysis.txt"`, `download="transcription.txt"`} {
		if strings.Contains(body, unwanted) {
			t.Fatalf("silent recording must not render %q", unwanted)
		}
	}
	env.assertNoTempFiles(t)
}

func TestProcessUnsupportedFormat(t *testing.T) {
	analyzer := &stubAnalyzer{reply: "unused"}
	env := newTestEnv(t, analyzer, nil)
	prompt := "anything"
	rec := serve(env.router, multipartRequest(t, "/process", "notes.txt", []byte("plain text"), &prompt))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, pipeline.UnsupportedFormatMessage) {
		t.Fatalf("expected unsupported message, got %s", body)
	}
	if strings.Contains(body, `class="tabs"`) {
		t.Fatal("result tabs must not render for a rejected upload")
	}
	if len(analyzer.prompts) != 0 {
		t.Fatal("analyzer should not run")
	}
	env.assertNoTempFiles(t)
}

func TestAPIAnalyzeAuthFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: services.Wrap(services.ErrAnalysis, "analyzing", "gemini", "", errors.New("API key not valid"))}
	env := newTestEnv(t, analyzer, nil)
	prompt := "Summarize."
	rec := serve(env.router, multipartRequest(t, "/api/analyze", "clip.mp4", []byte("video"), &prompt))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != string(pipeline.StateFailed) || resp.Analysis != "" || resp.RunID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !strings.Contains(resp.Error, "API key not valid") {
		t.Fatalf("error should surface the cause, got %q", resp.Error)
	}
	env.assertNoTempFiles(t)
}

func TestAPIAnalyzeUsesDefaultPromptWhenFieldMissing(t *testing.T) {
	analyzer := &stubAnalyzer{reply: "done"}
	env := newTestEnv(t, analyzer, nil)
	rec := serve(env.router, multipartRequest(t, "/api/analyze", "a.mp3", []byte("audio"), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != string(pipeline.StateDone) || resp.Transcription != "hello from the recording" || resp.Analysis != "done" {
		t.Fatalf("unexpected response %+v", resp)
	}
	want := pipeline.ComposePrompt(pipeline.DefaultPrompt, "hello from the recording")
	if len(analyzer.prompts) != 1 || analyzer.prompts[0] != want {
		t.Fatalf("unexpected prompt %q", analyzer.prompts)
	}
}

func TestAPIAnalyzeFormErrors(t *testing.T) {
	env := newTestEnv(t, &stubAnalyzer{reply: "x"}, nil)

	rec := serve(env.router, multipartRequest(t, "/api/analyze", "", nil, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", rec.Code)
	}

	rec = serve(env.router, multipartRequest(t, "/api/analyze", "big.wav", bytes.Repeat([]byte("a"), 3<<20), nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversized upload, got %d", rec.Code)
	}
	env.assertNoTempFiles(t)
}

func TestHealthEndpoint(t *testing.T) {
	health := func(context.Context) Health {
		return Health{
			Status:       HealthDegraded,
			Transcriber:  "whisperx/base",
			Dependencies: []DependencyStatus{{Name: "FFmpeg", Command: "ffmpeg", Available: false, Detail: "binary \"ffmpeg\" not found"}},
		}
	}
	env := newTestEnv(t, &stubAnalyzer{}, health)
	rec := serve(env.router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for degraded health, got %d", rec.Code)
	}
	var report Health
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if report.Transcriber != "whisperx/base" || len(report.Dependencies) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	env = newTestEnv(t, &stubAnalyzer{}, nil)
	if rec := serve(env.router, httptest.NewRequest(http.MethodGet, "/api/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without health func, got %d", rec.Code)
	}
}

func TestDataURIEscapesText(t *testing.T) {
	got := string(dataURI("a b\n#1 100%"))
	if got != "data:text/plain;charset=utf-8,a%20b%0A%231%20100%25" {
		t.Fatalf("unexpected data uri %q", got)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, err := NewServer(Options{Bind: "127.0.0.1:0", Runner: pipeline.New(nil, nil, nil, nil, nil)})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
