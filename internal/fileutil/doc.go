// Package fileutil writes analysis and transcription exports to disk.
package fileutil
