package backend

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// Keys of the local override store.
const (
	OverrideURLKey     = "backend_url"
	OverrideAnonKeyKey = "backend_anon_key"
)

// Settings are the two strings needed to reach the hosted backend.
type Settings struct {
	URL     string
	AnonKey string
}

// Valid reports whether both settings are present and the URL looks like one.
func (s Settings) Valid() bool {
	return s.URL != "" && s.AnonKey != "" && strings.HasPrefix(s.URL, "http")
}

// IsEmpty reports whether neither setting is present.
func (s Settings) IsEmpty() bool {
	return s.URL == "" && s.AnonKey == ""
}

// ResolveSettings picks each setting from the local overrides first and the
// environment-provided fallback second. Blank overrides fall through.
func ResolveSettings(overrides map[string]string, fallback Settings) Settings {
	return Settings{
		URL:     firstNonBlank(overrides[OverrideURLKey], fallback.URL),
		AnonKey: firstNonBlank(overrides[OverrideAnonKeyKey], fallback.AnonKey),
	}
}

// LoadOverrides reads the dotenv-format override file at path.
// A missing file yields an empty store.
func LoadOverrides(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return values, nil
}

// SaveOverrides writes the override file, replacing its contents.
func SaveOverrides(path string, s Settings) error {
	values := map[string]string{}
	if s.URL != "" {
		values[OverrideURLKey] = s.URL
	}
	if s.AnonKey != "" {
		values[OverrideAnonKeyKey] = s.AnonKey
	}
	return godotenv.Write(values, path)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
