// Package llm provides an OpenRouter chat client used as an analysis backend.
//
// Client.Analyze posts the composed prompt as one user message to the chat
// completions endpoint and returns the first non-empty choice verbatim.
// There is no retry: HTTP errors, API error payloads and empty replies all
// come back as services.ErrAnalysis so the run fails visibly.
//
// Requires api_key and model; base_url, referer, title, timeout_seconds and
// max_tokens are optional.
package llm
