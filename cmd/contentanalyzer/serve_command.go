package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"contentanalyzer/internal/backends"
	"contentanalyzer/internal/config"
	"contentanalyzer/internal/credentials"
	"contentanalyzer/internal/deps"
	"contentanalyzer/internal/logging"
	"contentanalyzer/internal/pipeline"
	"contentanalyzer/internal/preflight"
	"contentanalyzer/internal/scratch"
	"contentanalyzer/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload and analysis web interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if bind := strings.TrimSpace(bindFlag); bind != "" {
				cfg.Server.Bind = bind
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			creds := ctx.credentials()
			set, err := backends.Build(signalCtx, cfg, creds, logger)
			if err != nil {
				return err
			}
			defer set.Close()

			scratchManager := scratch.NewManager(nil, cfg.Paths.ScratchDir, logger)
			if err := scratchManager.Open(); err != nil {
				return fmt.Errorf("open scratch: %w", err)
			}
			defer scratchManager.Close()

			prompt, err := cfg.LoadPrompt()
			if err != nil {
				return err
			}
			if prompt == "" {
				prompt = pipeline.DefaultPrompt
			}

			server, err := web.NewServer(web.Options{
				Bind:           cfg.Server.Bind,
				MaxUploadBytes: cfg.MaxUploadBytes(),
				DefaultPrompt:  prompt,
				Runner:         set.Pipeline(scratchManager, logger),
				Health:         healthReporter(cfg, creds, set),
				Logger:         logger,
			})
			if err != nil {
				return err
			}
			if err := server.Listen(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())
			logger.Info("serving",
				logging.String("address", server.Addr()),
				logging.String("transcriber", set.Transcriber.Name()),
				logging.String("analyzer", set.Analyzer.Name()),
			)
			return server.Serve(signalCtx)
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}

func healthReporter(cfg *config.Config, creds credentials.Chain, set *backends.Set) web.HealthFunc {
	return func(ctx context.Context) web.Health {
		report := web.Health{
			Status:      web.HealthOK,
			Transcriber: set.Transcriber.Name(),
			Analyzer:    set.Analyzer.Name(),
		}
		statuses := preflight.CheckSystemDeps(cfg)
		for _, status := range statuses {
			report.Dependencies = append(report.Dependencies, dependencyStatus(status))
		}
		if len(deps.Missing(statuses)) > 0 {
			report.Status = web.HealthDegraded
		}
		for _, result := range preflight.RunAll(ctx, cfg, creds) {
			report.Checks = append(report.Checks, web.CheckStatus{Name: result.Name, Passed: result.Passed, Detail: result.Detail})
			if !result.Passed {
				report.Status = web.HealthDegraded
			}
		}
		return report
	}
}

func dependencyStatus(status deps.Status) web.DependencyStatus {
	return web.DependencyStatus{
		Name:        status.Name,
		Command:     status.Command,
		Description: status.Description,
		Optional:    status.Optional,
		Available:   status.Available,
		Path:        status.Path,
		Detail:      status.Detail,
	}
}
