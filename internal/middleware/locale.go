package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// SupportedLocales are the languages advice can be requested in. The first
// entry is the fallback.
var SupportedLocales = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
	language.Dutch,
	language.Indonesian,
	language.Japanese,
	language.Korean,
	language.Chinese,
}

var localeMatcher = language.NewMatcher(SupportedLocales)

// Locale negotiates the response language from X-Locale, then
// Accept-Language, and stores the base language code on the context.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := detectLocale(r)
		w.Header().Set("Content-Language", locale)
		ctx := context.WithValue(r.Context(), localeKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func detectLocale(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return matchLocale(tag)
		}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return SupportedLocales[0].String()
	}
	return matchLocale(tags...)
}

func matchLocale(tags ...language.Tag) string {
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return SupportedLocales[0].String()
	}
	return SupportedLocales[idx].String()
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey).(string); ok {
		return v
	}
	return "en"
}
