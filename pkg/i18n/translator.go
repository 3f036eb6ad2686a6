package i18n

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/idsrv/pkg/logger"
)

// DefaultLanguage is used when no preference matches.
const DefaultLanguage = "en"

// Translator looks up messages by language and dot-separated key.
// It is immutable after construction and safe for concurrent use.
type Translator struct {
	translations map[string]map[string]any
	defaultLang  string
	languages    []string
	matcher      language.Matcher
	logger       *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithDefaultLanguage sets the language used when no preference matches.
func WithDefaultLanguage(lang string) Option {
	return func(t *Translator) {
		if lang != "" {
			t.defaultLang = strings.ToLower(lang)
		}
	}
}

// WithLogger logs missing translations at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTranslator builds a translator from language -> nested key map.
func NewTranslator(translations map[string]map[string]any, opts ...Option) (*Translator, error) {
	t := &Translator{
		translations: make(map[string]map[string]any, len(translations)),
		defaultLang:  DefaultLanguage,
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}

	for lang, msgs := range translations {
		if lang == "" {
			return nil, ErrEmptyLanguage
		}
		if msgs == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoMessages, lang)
		}
		if _, err := language.Parse(lang); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLanguage, lang, err)
		}
		t.translations[strings.ToLower(lang)] = msgs
	}

	// The matcher falls back to its first tag, so the default goes first.
	langs := make([]string, 0, len(t.translations)+1)
	langs = append(langs, t.defaultLang)
	for lang := range t.translations {
		if lang != t.defaultLang {
			langs = append(langs, lang)
		}
	}
	slices.Sort(langs[1:])

	tags := make([]language.Tag, len(langs))
	for i, lang := range langs {
		tags[i] = language.Make(lang)
	}
	t.languages = langs
	t.matcher = language.NewMatcher(tags)
	return t, nil
}

// LoadFile reads translations from a YAML file whose top-level keys are
// language codes.
func LoadFile(path string, opts ...Option) (*Translator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrLoadTranslations, err)
	}
	defer f.Close()
	return Decode(f, opts...)
}

// Decode reads YAML translations from r.
func Decode(r io.Reader, opts ...Option) (*Translator, error) {
	var data map[string]map[string]any
	if err := yaml.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Join(ErrLoadTranslations, err)
	}
	return NewTranslator(data, opts...)
}

// Languages returns the supported language codes, default first.
func (t *Translator) Languages() []string {
	return slices.Clone(t.languages)
}

// Default returns the fallback language.
func (t *Translator) Default() string {
	return t.defaultLang
}

// Match picks the supported language that best fits the first usable
// preference list. A list is either an Accept-Language header or a
// space-separated list of BCP 47 tags as sent in ui_locales.
func (t *Translator) Match(preferences ...string) string {
	for _, pref := range preferences {
		tags := parsePreference(pref)
		if len(tags) == 0 {
			continue
		}
		if _, idx, conf := t.matcher.Match(tags...); conf != language.No {
			return t.languages[idx]
		}
	}
	return t.defaultLang
}

// T translates key, substituting %{name} placeholders from args given as
// name, value pairs. Missing keys fall back to the default language and
// then to the key itself.
func (t *Translator) T(lang, key string, args ...string) string {
	return t.Td(lang, key, key, args...)
}

// Td works like T but returns def when no language has the key.
func (t *Translator) Td(lang, key, def string, args ...string) string {
	if s, ok := t.lookup(lang, key); ok {
		return substitute(s, args)
	}
	if lang != t.defaultLang {
		if s, ok := t.lookup(t.defaultLang, key); ok {
			return substitute(s, args)
		}
	}
	t.logger.Debug("translation missing", slog.String("lang", lang), slog.String("key", key))
	return substitute(def, args)
}

// Has reports whether lang defines key.
func (t *Translator) Has(lang, key string) bool {
	_, ok := t.lookup(lang, key)
	return ok
}

func (t *Translator) lookup(lang, key string) (string, bool) {
	current, ok := t.translations[strings.ToLower(lang)]
	if !ok {
		return "", false
	}
	parts := strings.Split(key, ".")
	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return "", false
		}
		if i == len(parts)-1 {
			s, ok := v.(string)
			return s, ok
		}
		next, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		current = next
	}
	return "", false
}

var paramRegex = regexp.MustCompile(`%\{([^}]+)\}`)

func substitute(tmpl string, args []string) string {
	if len(args) < 2 || !strings.Contains(tmpl, "%{") {
		return tmpl
	}
	params := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		params[args[i]] = args[i+1]
	}
	return paramRegex.ReplaceAllStringFunc(tmpl, func(match string) string {
		if v, ok := params[match[2:len(match)-1]]; ok {
			return v
		}
		return match
	})
}
