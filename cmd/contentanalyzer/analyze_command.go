package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"contentanalyzer/internal/backends"
	"contentanalyzer/internal/fileutil"
	"contentanalyzer/internal/pipeline"
	"contentanalyzer/internal/scratch"
	"contentanalyzer/internal/services"
)

const (
	analysisExportName      = "analysis.txt"
	transcriptionExportName = "transcription.txt"
)

type analyzeOutput struct {
	RunID         string            `json:"run_id"`
	State         string            `json:"state"`
	Kind          string            `json:"kind,omitempty"`
	Transcription string            `json:"transcription,omitempty"`
	Analysis      string            `json:"analysis,omitempty"`
	Timings       map[string]string `json:"timings,omitempty"`
	Files         []string          `json:"files,omitempty"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var promptFile string
	var outDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Transcribe and analyze one video or audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			template, err := resolvePrompt(promptFile, cfg.LoadPrompt)
			if err != nil {
				return err
			}

			source := args[0]
			file, err := os.Open(source)
			if err != nil {
				return fmt.Errorf("open %s: %w", source, err)
			}
			defer file.Close()

			set, err := backends.Build(cmd.Context(), cfg, ctx.credentials(), logger)
			if err != nil {
				return err
			}
			defer set.Close()

			scratchManager := scratch.NewManager(nil, cfg.Paths.ScratchDir, logger)
			if err := scratchManager.Open(); err != nil {
				return fmt.Errorf("open scratch: %w", err)
			}
			defer scratchManager.Close()

			progress := progressPrinter(cmd.ErrOrStderr())
			result, runErr := set.Pipeline(scratchManager, logger).Run(
				cmd.Context(),
				pipeline.Upload{Name: filepath.Base(source), Body: file},
				template,
				progress,
			)
			if runErr != nil {
				if errors.Is(runErr, services.ErrUnsupportedFormat) {
					return errors.New(pipeline.UnsupportedFormatMessage)
				}
				return runErr
			}

			var written []string
			if strings.TrimSpace(outDir) != "" {
				written, err = fileutil.WriteExports(outDir,
					fileutil.Export{Name: analysisExportName, Content: result.Analysis},
					fileutil.Export{Name: transcriptionExportName, Content: result.Transcript},
				)
				if err != nil {
					return fmt.Errorf("write exports: %w", err)
				}
			}

			if asJSON {
				return writeJSON(cmd, buildAnalyzeOutput(result, written))
			}
			printResult(cmd.OutOrStdout(), result, written)
			return nil
		},
	}

	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "File holding the analysis prompt (defaults to analysis.prompt_file, then the built-in prompt)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write analysis.txt and transcription.txt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// resolvePrompt prefers an explicit file, then the configured prompt, then
// the built-in default.
func resolvePrompt(path string, configured func() (string, error)) (string, error) {
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("prompt file %s is empty", path)
		}
		return string(data), nil
	}
	prompt, err := configured()
	if err != nil {
		return "", err
	}
	if prompt == "" {
		return pipeline.DefaultPrompt, nil
	}
	return prompt, nil
}

func progressPrinter(w io.Writer) pipeline.Observer {
	colorize := shouldColorize(w)
	return func(event pipeline.Event) {
		kind := statusInfo
		switch event.State {
		case pipeline.StateDone:
			kind = statusOK
		case pipeline.StateRejected:
			kind = statusWarn
		case pipeline.StateFailed:
			kind = statusError
		}
		fmt.Fprintln(w, renderStatusLine(string(event.State), kind, event.Message, colorize))
	}
}

func printResult(w io.Writer, result pipeline.Result, written []string) {
	colorize := shouldColorize(w)
	for _, line := range renderSectionHeader("Analysis", colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, result.Analysis)
	fmt.Fprintln(w)
	for _, line := range renderSectionHeader("Transcription", colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, result.Transcript)
	for _, path := range written {
		fmt.Fprintf(w, "\nWrote %s", path)
	}
	if len(written) > 0 {
		fmt.Fprintln(w)
	}
}

func buildAnalyzeOutput(result pipeline.Result, written []string) analyzeOutput {
	out := analyzeOutput{
		RunID:         result.RunID,
		State:         string(result.State),
		Kind:          string(result.Kind),
		Transcription: result.Transcript,
		Analysis:      result.Analysis,
		Files:         written,
	}
	if len(result.Timings) > 0 {
		out.Timings = make(map[string]string, len(result.Timings))
		for state, d := range result.Timings {
			out.Timings[string(state)] = d.Round(time.Millisecond).String()
		}
	}
	return out
}
