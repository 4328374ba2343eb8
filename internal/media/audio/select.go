package audio

import (
	"strconv"
	"strings"

	"contentanalyzer/internal/language"
	"contentanalyzer/internal/media/ffprobe"
)

// Selection names the audio stream that will be transcribed.
type Selection struct {
	Primary      ffprobe.Stream
	PrimaryIndex int
	// Candidates is the number of audio streams considered.
	Candidates int
}

// Found reports whether any audio stream was available.
func (s Selection) Found() bool {
	return s.PrimaryIndex >= 0
}

// PrimaryLabel returns a human-readable summary of the selected primary stream.
func (s Selection) PrimaryLabel() string {
	if !s.Found() {
		return ""
	}
	return formatStreamSummary(s.Primary)
}

// Select returns the audio stream most likely to carry the main spoken
// content. Streams flagged default win, then streams in the preferred
// language; commentary and descriptive-audio tracks are demoted. Ties keep
// container order. preferredLang may be empty.
func Select(streams []ffprobe.Stream, preferredLang string) Selection {
	candidates := buildCandidates(streams, preferredLang)
	if len(candidates) == 0 {
		return Selection{PrimaryIndex: -1}
	}

	best := candidates[0]
	bestScore := scorePrimary(best)
	for _, cand := range candidates[1:] {
		if score := scorePrimary(cand); score > bestScore {
			best = cand
			bestScore = score
		}
	}
	return Selection{
		Primary:      best.stream,
		PrimaryIndex: best.stream.Index,
		Candidates:   len(candidates),
	}
}

type candidate struct {
	stream         ffprobe.Stream
	order          int
	languageMatch  bool
	secondary      bool
	defaultFlagged bool
}

func scorePrimary(cand candidate) float64 {
	score := 0.0
	if cand.defaultFlagged {
		score += 100
	}
	if cand.languageMatch {
		score += 50
	}
	if cand.secondary {
		score -= 200
	}
	if cand.stream.Channels > 0 {
		score += 1
	}
	score -= float64(cand.order) * 0.1
	return score
}

func buildCandidates(streams []ffprobe.Stream, preferredLang string) []candidate {
	var result []candidate
	for _, stream := range streams {
		if !stream.IsAudio() {
			continue
		}
		cand := candidate{
			stream:         stream,
			order:          len(result),
			defaultFlagged: stream.IsDefault(),
			secondary:      isSecondaryTrack(stream),
		}
		if preferredLang != "" {
			cand.languageMatch = language.Matches(language.ExtractFromTags(stream.Tags), preferredLang)
		}
		result = append(result, cand)
	}
	return result
}

func isSecondaryTrack(stream ffprobe.Stream) bool {
	if stream.Disposition != nil {
		if stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
			return true
		}
	}
	title := strings.ToLower(normalizeTitle(stream.Tags))
	for _, keyword := range []string{"commentary", "audio description", "descriptive"} {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func normalizeTitle(tags map[string]string) string {
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		if value, ok := tags[key]; ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	if lang := language.ExtractFromTags(stream.Tags); lang != "" {
		parts = append(parts, lang)
	}
	if stream.CodecName != "" {
		parts = append(parts, stream.CodecName)
	}
	if stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(stream.Channels)+"ch")
	}
	if title := normalizeTitle(stream.Tags); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
