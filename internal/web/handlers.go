package web

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/pipeline"
	"contentanalyzer/internal/services"
)

const (
	formFileField     = "file"
	formPromptField   = "prompt"
	indexTemplate     = "index.html.tmpl"
	multipartMemory   = 32 << 20
	formOverheadBytes = 1 << 20
)

// formError is a user-facing problem with the submitted form.
type formError string

func (e formError) Error() string { return string(e) }

const (
	errBadForm      formError = "The form could not be read."
	errNoFile       formError = "Please choose a video or audio file to upload."
	errUploadTooBig formError = "The uploaded file is too large."
)

const noSpeechNotice = "No speech was detected."

// Handler wires HTTP routes to the pipeline.
type Handler struct {
	runner         Runner
	health         HealthFunc
	defaultPrompt  string
	maxUploadBytes int64
	logger         *slog.Logger
}

func newHandler(opts Options, logger *slog.Logger) *Handler {
	prompt := opts.DefaultPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = pipeline.DefaultPrompt
	}
	return &Handler{
		runner:         opts.Runner,
		health:         opts.Health,
		defaultPrompt:  prompt,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.index)
	router.POST("/process", h.process)

	api := router.Group("/api")
	api.POST("/analyze", h.analyze)
	api.GET("/health", h.healthCheck)
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, indexTemplate, newPage(h.defaultPrompt))
}

// process serves the form submission and re-renders the page with either
// the two result views or an error. Results are only shown for Done runs
// that produced both a transcript and an analysis.
func (h *Handler) process(c *gin.Context) {
	upload, prompt, closeFile, err := h.readForm(c)
	page := newPage(prompt)
	if err != nil {
		page.Error = err.Error()
		c.HTML(statusForFormError(err), indexTemplate, page)
		return
	}
	defer closeFile()

	result, err := h.runner.Run(c.Request.Context(), upload, prompt)
	if err != nil {
		page.Error = userMessage(err)
		c.HTML(statusForRunError(err), indexTemplate, page)
		return
	}
	if strings.TrimSpace(result.Transcript) == "" || strings.TrimSpace(result.Analysis) == "" {
		page.Notice = noSpeechNotice
		c.HTML(http.StatusOK, indexTemplate, page)
		return
	}
	view, err := newResultView(result.RunID, result.Transcript, result.Analysis)
	if err != nil {
		page.Error = err.Error()
		c.HTML(http.StatusInternalServerError, indexTemplate, page)
		return
	}
	page.Result = view
	c.HTML(http.StatusOK, indexTemplate, page)
}

// AnalyzeResponse is the JSON body of POST /api/analyze.
type AnalyzeResponse struct {
	RunID         string `json:"run_id,omitempty"`
	State         string `json:"state"`
	Transcription string `json:"transcription,omitempty"`
	Analysis      string `json:"analysis,omitempty"`
	Error         string `json:"error,omitempty"`
}

func (h *Handler) analyze(c *gin.Context) {
	upload, prompt, closeFile, err := h.readForm(c)
	if err != nil {
		c.JSON(statusForFormError(err), AnalyzeResponse{State: string(pipeline.StateIdle), Error: err.Error()})
		return
	}
	defer closeFile()

	result, err := h.runner.Run(c.Request.Context(), upload, prompt)
	if err != nil {
		c.JSON(statusForRunError(err), AnalyzeResponse{
			RunID: result.RunID,
			State: string(pipeline.TerminalState(err)),
			Error: userMessage(err),
		})
		return
	}
	c.JSON(http.StatusOK, AnalyzeResponse{
		RunID:         result.RunID,
		State:         string(result.State),
		Transcription: result.Transcript,
		Analysis:      result.Analysis,
	})
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, Health{Status: HealthOK})
		return
	}
	report := h.health(c.Request.Context())
	status := http.StatusOK
	if report.Status != HealthOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// readForm extracts the upload and prompt. A missing prompt field falls back
// to the default; an empty one is sent as-is.
func (h *Handler) readForm(c *gin.Context) (pipeline.Upload, string, func(), error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverheadBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return pipeline.Upload{}, h.defaultPrompt, nil, errUploadTooBig
		}
		return pipeline.Upload{}, h.defaultPrompt, nil, errBadForm
	}
	prompt, ok := c.GetPostForm(formPromptField)
	if !ok {
		prompt = h.defaultPrompt
	}
	header, err := c.FormFile(formFileField)
	if err != nil {
		return pipeline.Upload{}, prompt, nil, errNoFile
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		return pipeline.Upload{}, prompt, nil, errUploadTooBig
	}
	file, err := header.Open()
	if err != nil {
		return pipeline.Upload{}, prompt, nil, errBadForm
	}
	closeFile := func() {
		if err := file.Close(); err != nil {
			logging.WithContext(c.Request.Context(), h.logger).Debug("close upload", logging.Error(err))
		}
	}
	return pipeline.Upload{Name: uploadName(header), Body: file}, prompt, closeFile, nil
}

func uploadName(header *multipart.FileHeader) string {
	return strings.TrimSpace(header.Filename)
}

func statusForFormError(err error) int {
	if errors.Is(err, errUploadTooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func statusForRunError(err error) int {
	switch {
	case errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrDecode),
		errors.Is(err, services.ErrTranscription),
		errors.Is(err, services.ErrAnalysis):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown to the user for a failed run.
func userMessage(err error) string {
	if errors.Is(err, services.ErrUnsupportedFormat) {
		return pipeline.UnsupportedFormatMessage
	}
	return "Processing failed: " + err.Error()
}
