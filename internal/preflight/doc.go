// Package preflight provides readiness checks for the binaries, paths,
// credentials and model files the analyzer depends on.
//
// These checks run in two contexts:
//   - The CLI "contentanalyzer check" command prints every result as a table.
//   - The web server's /api/health endpoint reports the same data as JSON.
//
// Checks only cover the configured backends; a whisperx setup is not asked
// for a ggml model file.
package preflight
