package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// Middleware stores the negotiated language in the request context. An
// X-Locale header overrides Accept-Language.
func Middleware(fallback language.Tag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := Detect(r, fallback)
			w.Header().Set("Content-Language", tag.String())
			ctx := context.WithValue(r.Context(), localeContextKey{}, tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Detect negotiates the language for r without touching its context.
func Detect(r *http.Request, fallback language.Tag) language.Tag {
	if v := r.Header.Get("X-Locale"); v != "" {
		if tag, ok := Parse(v); ok {
			return tag
		}
	}
	if v := r.Header.Get("Accept-Language"); v != "" {
		return Match(v, fallback)
	}
	return fallback
}

// FromContext returns the language stored by Middleware, or the default
// catalog language.
func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(localeContextKey{}).(language.Tag); ok {
		return tag
	}
	return Supported[0]
}
