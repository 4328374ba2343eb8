// Package web serves the single-page analyzer UI and its JSON API.
//
// GET / renders the upload form with the default prompt. POST /process runs
// the pipeline and re-renders the page with Analysis and Transcription tabs,
// each with a plain-text download link, or with an error message.
// POST /api/analyze accepts the same multipart fields and answers JSON;
// GET /api/health reports binaries, credentials and backend names.
//
// Unsupported uploads answer 415, backend failures 502 and malformed forms
// 400. Only the request header read is bounded by a server timeout.
package web
