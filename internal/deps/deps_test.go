package deps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: " " + present + " "},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" || results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" || !results[2].Optional {
		t.Fatalf("unexpected blank command status %#v", results[2])
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing binary, got %#v", missing)
	}
}

func TestCheckBinariesUsesLookPath(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	var looked []string
	lookPath = func(name string) (string, error) {
		looked = append(looked, name)
		if name == "ffmpeg" {
			return "/opt/ffmpeg/bin/ffmpeg", nil
		}
		return "", errors.New("not found")
	}

	results := CheckBinaries([]Requirement{{Name: "FFmpeg", Command: "ffmpeg"}, {Name: "uv", Command: "uvx", Optional: true}})
	if len(looked) != 2 {
		t.Fatalf("expected two lookups, got %v", looked)
	}
	if results[0].Path != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected path %q", results[0].Path)
	}
	if len(Missing(results)) != 0 {
		t.Fatalf("optional binary should not count as missing")
	}
}
