package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Languages offered by the transcription backends' language hint.
var common = []language.Tag{
	language.English, language.Spanish, language.French, language.German,
	language.Italian, language.Portuguese, language.Japanese, language.Korean,
	language.Chinese, language.Russian, language.Arabic, language.Hindi,
	language.Dutch, language.Polish, language.Swedish, language.Danish,
	language.Norwegian, language.Finnish,
}

// ISO 639-2/B codes that ffprobe tags still carry but x/text does not map.
var bibliographic = map[string]string{
	"fre": "fr",
	"ger": "de",
	"chi": "zh",
	"dut": "nl",
}

var byName map[string]string

func init() {
	namer := display.English.Languages()
	byName = make(map[string]string, len(common))
	for _, tag := range common {
		base, _ := tag.Base()
		byName[strings.ToLower(namer.Name(tag))] = base.String()
	}
}

// ToISO2 converts a language code (ISO 639-1/2/3), BCP-47 tag or English
// language name to ISO 639-1. Returns "" for unrecognized input and for
// languages without a two-letter code.
func ToISO2(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if code, ok := bibliographic[value]; ok {
		return code
	}
	if code, ok := byName[value]; ok {
		return code
	}
	base, err := language.ParseBase(value)
	if err != nil {
		tag, err := language.Parse(value)
		if err != nil {
			return ""
		}
		base, _ = tag.Base()
	}
	code := base.String()
	if len(code) != 2 {
		return ""
	}
	return code
}

// DisplayName returns the English name for any recognized code.
// Returns "Auto-detect" for empty input and the uppercased input when unknown.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Auto-detect"
	}
	iso := ToISO2(trimmed)
	if iso == "" {
		return strings.ToUpper(trimmed)
	}
	if name := display.English.Languages().Name(language.Make(iso)); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}

// ExtractFromTags extracts and normalizes the language from stream metadata tags.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}

// Matches reports whether two language values name the same base language.
func Matches(a, b string) bool {
	left, right := ToISO2(a), ToISO2(b)
	return left != "" && left == right
}
