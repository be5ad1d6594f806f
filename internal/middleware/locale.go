package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

var LocaleKey = localeContextKey{}

// Locale resolves the client's language from X-Locale, then Accept-Language,
// then fallback, and stores its base code (e.g. "en") in the context.
func Locale(fallback string) func(http.Handler) http.Handler {
	fallback = baseLanguage(fallback)
	if fallback == "" {
		fallback = "en"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, fallback)
			w.Header().Set("Content-Language", locale)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string) string {
	if v := baseLanguage(r.Header.Get("X-Locale")); v != "" {
		return v
	}
	if v := parseAcceptLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	return fallback
}

// parseAcceptLanguage returns the base language of the highest-weighted tag.
func parseAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return ""
	}
	for _, tag := range tags {
		if base, conf := tag.Base(); conf != language.No && tag != language.Und {
			return base.String()
		}
	}
	return ""
}

func baseLanguage(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	tag, err := language.Parse(v)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return ""
}

// HasExplicitLocale reports whether the client named a language itself
// rather than falling back to the server default.
func HasExplicitLocale(r *http.Request) bool {
	return baseLanguage(r.Header.Get("X-Locale")) != "" || parseAcceptLanguage(r.Header.Get("Accept-Language")) != ""
}
