package pipeline

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultPrompt pre-fills the analysis prompt.
const DefaultPrompt = `You are an expert interviewer. Please analyze this content and provide:
1. Key points discussed
2. Overall tone and delivery
3. Areas of strength
4. Areas for improvement
5. Overall assessment`

// DefaultSections are the headings DefaultPrompt asks for, in order.
var DefaultSections = []string{
	"Key points discussed",
	"Overall tone and delivery",
	"Areas of strength",
	"Areas for improvement",
	"Overall assessment",
}

const transcriptSeparator = "\n\nTranscription:\n"

// ComposePrompt joins the user's template and the transcript exactly as the
// analyzer receives them.
func ComposePrompt(template, transcript string) string {
	return template + transcriptSeparator + transcript
}

// NormalizeTranscript trims surrounding whitespace and converts to NFC so
// equal speech yields byte-identical text across backends.
func NormalizeTranscript(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
