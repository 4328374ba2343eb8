// Package deps reports whether the external binaries the analyzer shells
// out to (ffmpeg, ffprobe, uvx) can be found on PATH.
package deps
