package audio

import (
	"testing"

	"contentanalyzer/internal/media/ffprobe"
)

func TestSelectPrefersDefaultStream(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 2, Tags: map[string]string{"language": "fre"}},
		{Index: 2, CodecType: "audio", CodecName: "aac", Channels: 2, Tags: map[string]string{"language": "eng"}, Disposition: map[string]int{"default": 1}},
	}
	sel := Select(streams, "")
	if sel.PrimaryIndex != 2 {
		t.Fatalf("expected default stream 2, got %d", sel.PrimaryIndex)
	}
	if sel.Candidates != 2 {
		t.Fatalf("expected 2 candidates, got %d", sel.Candidates)
	}
	if sel.PrimaryLabel() != "eng | aac | 2ch" {
		t.Fatalf("unexpected label %q", sel.PrimaryLabel())
	}
}

func TestSelectUsesLanguageWhenNoDefault(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 1, CodecType: "audio", Tags: map[string]string{"language": "ger"}},
		{Index: 2, CodecType: "audio", Tags: map[string]string{"language": "spa"}},
	}
	if sel := Select(streams, "es"); sel.PrimaryIndex != 2 {
		t.Fatalf("expected spanish stream, got %d", sel.PrimaryIndex)
	}
	if sel := Select(streams, ""); sel.PrimaryIndex != 1 {
		t.Fatalf("expected first stream without preference, got %d", sel.PrimaryIndex)
	}
}

func TestSelectDemotesCommentary(t *testing.T) {
	streams := []ffprobe.Stream{
		{Index: 1, CodecType: "audio", Tags: map[string]string{"title": "Director Commentary"}, Disposition: map[string]int{"default": 1}},
		{Index: 2, CodecType: "audio"},
	}
	if sel := Select(streams, ""); sel.PrimaryIndex != 2 {
		t.Fatalf("expected main stream, got %d", sel.PrimaryIndex)
	}
}

func TestSelectWithoutAudio(t *testing.T) {
	sel := Select([]ffprobe.Stream{{Index: 0, CodecType: "video"}}, "en")
	if sel.Found() {
		t.Fatalf("expected no selection, got %+v", sel)
	}
	if sel.PrimaryLabel() != "" {
		t.Fatalf("expected empty label, got %q", sel.PrimaryLabel())
	}
}
