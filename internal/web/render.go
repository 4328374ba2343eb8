package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"contentanalyzer/internal/media"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	pageTitle             = "Video/Audio Content Analyzer"
	analysisFileName      = "analysis.txt"
	transcriptionFileName = "transcription.txt"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func loadTemplates(engine *gin.Engine) error {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)
	return nil
}

// pageData feeds templates/index.html.tmpl.
type pageData struct {
	Title  string
	Accept string
	Prompt string
	Error  string
	Notice string
	Result *resultView
}

type resultView struct {
	RunID                 string
	AnalysisHTML          template.HTML
	TranscriptionHTML     template.HTML
	AnalysisDownload      download
	TranscriptionDownload download
}

type download struct {
	Name string
	Href template.URL
}

func newPage(prompt string) pageData {
	return pageData{
		Title:  pageTitle,
		Accept: media.AcceptAttribute(),
		Prompt: prompt,
	}
}

func newResultView(runID, transcript, analysis string) (*resultView, error) {
	analysisHTML, err := renderMarkdown(analysis)
	if err != nil {
		return nil, err
	}
	transcriptHTML, err := renderMarkdown(transcript)
	if err != nil {
		return nil, err
	}
	return &resultView{
		RunID:                 runID,
		AnalysisHTML:          analysisHTML,
		TranscriptionHTML:     transcriptHTML,
		AnalysisDownload:      download{Name: analysisFileName, Href: dataURI(analysis)},
		TranscriptionDownload: download{Name: transcriptionFileName, Href: dataURI(transcript)},
	}, nil
}

// renderMarkdown converts model output to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func renderMarkdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec
}

// dataURI embeds text as a downloadable plain-text link target.
func dataURI(text string) template.URL {
	return template.URL("data:text/plain;charset=utf-8," + url.PathEscape(text)) //nolint:gosec
}
