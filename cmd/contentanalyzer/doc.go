// Package main hosts the contentanalyzer CLI entrypoint and command graph.
//
// The Cobra command tree starts the web interface (serve), runs a single file
// through the pipeline from the terminal (analyze), reports tool and
// credential readiness (check) and scaffolds configuration (config). It
// resolves configuration and logging once per invocation so subcommands only
// wire backends into the pipeline.
package main
