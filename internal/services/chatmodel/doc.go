// Package chatmodel adapts eino chat models (Gemini, OpenAI, Claude) to the
// analyzer contract: one user message in, the model's text out.
package chatmodel
