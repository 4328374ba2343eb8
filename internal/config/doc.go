// Package config loads, normalizes, and validates analyzer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN. The Config type centralizes every knob the web server and CLI
// need: where scratch space lives, which decoder binaries to run, which
// transcription backend to load and which model provider performs analysis.
//
// Credentials are deliberately not stored here. Only the name of the key is
// configured (analysis.api_key_name); the credentials package resolves its
// value from the secrets file and the process environment.
package config
