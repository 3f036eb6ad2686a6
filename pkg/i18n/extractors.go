package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// maxPreferenceLength caps the header or parameter parsed per request.
const maxPreferenceLength = 4096

// LangExtractor returns the raw language preference of a request.
type LangExtractor func(r *http.Request) string

// AcceptLanguage reads the Accept-Language header.
func AcceptLanguage(r *http.Request) string {
	return r.Header.Get("Accept-Language")
}

// QueryThenHeader prefers the named query parameter (e.g. ui_locales) and
// falls back to Accept-Language.
func QueryThenHeader(param string) LangExtractor {
	return func(r *http.Request) string {
		if v := strings.TrimSpace(r.URL.Query().Get(param)); v != "" {
			return v
		}
		return AcceptLanguage(r)
	}
}

// Middleware resolves the request language against t and stores it in the
// request context. A nil extractor reads Accept-Language.
func Middleware(t *Translator, extr LangExtractor) func(http.Handler) http.Handler {
	if extr == nil {
		extr = AcceptLanguage
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := t.Match(extr(r))
			next.ServeHTTP(w, r.WithContext(SetLocale(r.Context(), lang)))
		})
	}
}

type localeContextKey struct{}

// SetLocale stores lang in ctx.
func SetLocale(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, localeContextKey{}, lang)
}

// GetLocale returns the language stored by Middleware, or an empty string.
func GetLocale(ctx context.Context) string {
	lang, _ := ctx.Value(localeContextKey{}).(string)
	return lang
}

func parsePreference(pref string) []language.Tag {
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return nil
	}
	if len(pref) > maxPreferenceLength {
		pref = pref[:maxPreferenceLength]
	}

	if strings.ContainsAny(pref, ",;") {
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			return nil
		}
		return tags
	}

	var tags []language.Tag
	for _, f := range strings.Fields(pref) {
		if tag, err := language.Parse(f); err == nil {
			tags = append(tags, tag)
		}
	}
	return tags
}
