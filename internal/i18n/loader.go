// Package i18n loads translation files and resolves dot-path keys for the
// active language.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// DefaultLanguage is used for unsupported codes and as the load fallback
const DefaultLanguage = "en"

//go:embed locales/*.json
var embedded embed.FS

var supported = map[string]bool{"en": true, "ar": true}

// Supported reports whether code is a language with a translation file
func Supported(code string) bool {
	return supported[code]
}

// Normalize maps unsupported codes to DefaultLanguage
func Normalize(code string) string {
	if Supported(code) {
		return code
	}
	return DefaultLanguage
}

// Source returns the locale file system. An empty dir selects the
// translations compiled into the binary.
func Source(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

// Loader reads {code}.json mappings from a file system and caches them
type Loader struct {
	fsys     fs.FS
	fallback string
	cache    *cache.Cache
}

// NewLoader creates a loader. A ttl of zero keeps mappings for the process lifetime.
func NewLoader(fsys fs.FS, fallback string, ttl time.Duration) *Loader {
	if fallback == "" {
		fallback = DefaultLanguage
	}
	expiration := cache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	return &Loader{
		fsys:     fsys,
		fallback: fallback,
		cache:    cache.New(expiration, 10*time.Minute),
	}
}

// Load returns the mapping for code. If it cannot be read the fallback
// language is tried, and if that fails too the mapping is empty.
func (l *Loader) Load(ctx context.Context, code string) map[string]any {
	data, err := l.read(code)
	if err == nil {
		return data
	}
	log.Debug().Err(err).Str("lang", code).Msg("translation load failed")

	if code != l.fallback {
		data, err = l.read(l.fallback)
		if err == nil {
			return data
		}
		log.Debug().Err(err).Str("lang", l.fallback).Msg("fallback translation load failed")
	}
	return map[string]any{}
}

func (l *Loader) read(code string) (map[string]any, error) {
	if x, found := l.cache.Get(code); found {
		return x.(map[string]any), nil
	}

	raw, err := fs.ReadFile(l.fsys, code+".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read %s translations: %w", code, err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s translations: %w", code, err)
	}

	l.cache.Set(code, data, cache.DefaultExpiration)
	return data, nil
}
