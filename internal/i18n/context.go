package i18n

import "context"

type ctxKey struct{}

// WithTranslator returns a copy of ctx carrying t
func WithTranslator(ctx context.Context, t *Translator) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the request's translator. Without one, lookups
// return their fallback or the key.
func FromContext(ctx context.Context) *Translator {
	if t, ok := ctx.Value(ctxKey{}).(*Translator); ok && t != nil {
		return t
	}
	return &Translator{lang: DefaultLanguage, data: map[string]any{}}
}
