package fetcher

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
	"github.com/samber/lo"
)

// LanguageTagger detects the language of crawled posts so the feed can
// expose it as entry metadata.
type LanguageTagger struct {
	detector lingua.LanguageDetector
	fallback string
}

// supportedLanguages maps all lingua languages to their ISO 639-1 codes
func supportedLanguages() map[lingua.Language]string {
	languages := make(map[lingua.Language]string)
	for _, lang := range lingua.AllLanguages() {
		languages[lang] = strings.ToLower(lang.IsoCode639_1().String())
	}
	return languages
}

func isoToLingua(code string) (lingua.Language, bool) {
	for lang, isoCode := range supportedLanguages() {
		if isoCode == strings.ToLower(code) {
			return lang, true
		}
	}
	return lingua.Unknown, false
}

// NewLanguageTagger builds a tagger detecting among the given ISO 639-1
// codes. With fewer than two recognized languages detection is pointless,
// so the single configured code is used as-is.
func NewLanguageTagger(codes []string) *LanguageTagger {
	langs := []lingua.Language{}
	for _, code := range codes {
		if lang, ok := isoToLingua(code); ok {
			langs = append(langs, lang)
		}
	}
	langs = lo.Uniq(langs)

	if len(langs) < 2 {
		fallback := ""
		if len(codes) > 0 {
			fallback = strings.ToLower(codes[0])
		}
		return &LanguageTagger{fallback: fallback}
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		WithMinimumRelativeDistance(0.25).
		Build()

	return &LanguageTagger{detector: detector}
}

// Tag returns the ISO 639-1 code of the detected language, or an empty
// string when detection is inconclusive.
func (t *LanguageTagger) Tag(text string) string {
	if t.detector == nil {
		return t.fallback
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lang, ok := t.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
