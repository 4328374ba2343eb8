// Package openaistt transcribes audio through the OpenAI speech-to-text API.
package openaistt
