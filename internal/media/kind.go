package media

import (
	"path/filepath"
	"slices"
	"strings"
)

// Kind is the broad class of an accepted upload.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var (
	videoExtensions = []string{".mp4", ".mov", ".avi"}
	audioExtensions = []string{".m4a", ".wav", ".mp3"}
)

// Classify maps a file extension (with or without the leading dot, any case)
// to its Kind. The boolean is false for extensions outside the accepted sets.
func Classify(ext string) (Kind, bool) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	switch {
	case slices.Contains(videoExtensions, ext):
		return KindVideo, true
	case slices.Contains(audioExtensions, ext):
		return KindAudio, true
	default:
		return "", false
	}
}

// ClassifyPath classifies the extension of a file name or path.
func ClassifyPath(name string) (Kind, bool) {
	return Classify(filepath.Ext(name))
}

// Extensions returns every accepted extension, video first.
func Extensions() []string {
	return slices.Concat(videoExtensions, audioExtensions)
}

// AcceptAttribute renders the extensions for an HTML file input.
func AcceptAttribute() string {
	return strings.Join(Extensions(), ",")
}

// ProgressMessage is the user-facing line shown while a Kind is being normalized.
func (k Kind) ProgressMessage() string {
	if k == KindVideo {
		return "Extracting audio from video..."
	}
	return "Converting audio to WAV format..."
}
