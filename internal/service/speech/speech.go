package speech

// languageTags maps the app's display languages onto the locale tags the
// speech engines expect. Unknown languages fall back to English.
var languageTags = map[string]string{
	"en": "en-US",
	"hi": "hi-IN",
	"kn": "kn-IN",
	"te": "te-IN",
	"ta": "ta-IN",
}

// LanguageTag returns the speech locale tag for a display language
func LanguageTag(lang string) string {
	if tag, ok := languageTags[lang]; ok {
		return tag
	}
	return languageTags["en"]
}
