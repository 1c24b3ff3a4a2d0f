package i18n

import (
	"context"
	"strings"
)

// Entry is one object of a translated array, such as a FAQ question
type Entry map[string]string

// Translator resolves keys for a single request's language
type Translator struct {
	loader *Loader
	prefs  PreferenceStore
	lang   string
	data   map[string]any
}

// NewTranslator loads the mapping for the stored preference, or
// DefaultLanguage when none is stored.
func NewTranslator(ctx context.Context, loader *Loader, prefs PreferenceStore) *Translator {
	lang := DefaultLanguage
	if prefs != nil {
		lang = Normalize(prefs.Language())
	}
	return &Translator{
		loader: loader,
		prefs:  prefs,
		lang:   lang,
		data:   loader.Load(ctx, lang),
	}
}

// Language returns the active language code
func (t *Translator) Language() string { return t.lang }

// IsRTL reports whether the active language is written right-to-left
func (t *Translator) IsRTL() bool { return t.lang == "ar" }

// Dir returns the HTML dir attribute for the active language
func (t *Translator) Dir() string {
	if t.IsRTL() {
		return "rtl"
	}
	return "ltr"
}

// SetLanguage reloads the mapping for code and persists the preference
func (t *Translator) SetLanguage(ctx context.Context, code string) {
	code = Normalize(code)
	if code == t.lang {
		return
	}
	if t.loader != nil {
		t.data = t.loader.Load(ctx, code)
	}
	t.lang = code
	if t.prefs != nil {
		t.prefs.SetLanguage(code)
	}
}

// T returns the string at the dot-separated key. A missing segment, a
// non-string value or an empty string yields fallback, or the key itself
// when fallback is empty.
func (t *Translator) T(key string, fallback ...string) string {
	def := key
	if len(fallback) > 0 && fallback[0] != "" {
		def = fallback[0]
	}

	s, ok := t.lookup(key).(string)
	if !ok || s == "" {
		return def
	}
	return s
}

// List returns the string elements of the array at key
func (t *Translator) List(key string) []string {
	items, _ := t.lookup(key).([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Entries returns the object elements of the array at key
func (t *Translator) Entries(key string) []Entry {
	items, _ := t.lookup(key).([]any)
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		e := make(Entry, len(obj))
		for k, v := range obj {
			if s, ok := v.(string); ok {
				e[k] = s
			}
		}
		out = append(out, e)
	}
	return out
}

func (t *Translator) lookup(key string) any {
	var value any = t.data
	for _, part := range strings.Split(key, ".") {
		obj, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value, ok = obj[part]
		if !ok {
			return nil
		}
	}
	return value
}
