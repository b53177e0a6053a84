package i18n

// DefaultLocale is the fallback for unsupported or missing locales and the
// locale the asset resolver falls back to.
const DefaultLocale = "en"

var supportedLocales = []string{"sv", "en", "fr", "es", "de", "nl", "th", "da", "it"}

func SupportedLocales() []string {
	out := make([]string, len(supportedLocales))
	copy(out, supportedLocales)
	return out
}

func IsSupportedLocale(locale string) bool {
	for _, l := range supportedLocales {
		if l == locale {
			return true
		}
	}
	return false
}

// Clamp returns locale if supported, otherwise DefaultLocale.
func Clamp(locale string) string {
	if IsSupportedLocale(locale) {
		return locale
	}
	return DefaultLocale
}
