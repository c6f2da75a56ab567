package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSettings(t *testing.T) {
	env := Settings{URL: "https://env.example.com", AnonKey: "env-key"}

	tests := []struct {
		name      string
		overrides map[string]string
		fallback  Settings
		want      Settings
	}{
		{
			name:     "environment only",
			fallback: env,
			want:     env,
		},
		{
			name:      "override wins",
			overrides: map[string]string{OverrideURLKey: "https://local.example.com", OverrideAnonKeyKey: "local-key"},
			fallback:  env,
			want:      Settings{URL: "https://local.example.com", AnonKey: "local-key"},
		},
		{
			name:      "per key fallback",
			overrides: map[string]string{OverrideURLKey: "https://local.example.com"},
			fallback:  env,
			want:      Settings{URL: "https://local.example.com", AnonKey: "env-key"},
		},
		{
			name:      "blank override falls through",
			overrides: map[string]string{OverrideURLKey: "   ", OverrideAnonKeyKey: ""},
			fallback:  env,
			want:      env,
		},
		{
			name:      "values are trimmed",
			overrides: map[string]string{OverrideURLKey: "  https://local.example.com \n"},
			fallback:  Settings{AnonKey: "\tenv-key "},
			want:      Settings{URL: "https://local.example.com", AnonKey: "env-key"},
		},
		{
			name: "nothing configured",
			want: Settings{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSettings(tt.overrides, tt.fallback))
		})
	}
}

func TestSettings_Valid(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		valid    bool
		empty    bool
	}{
		{"complete https", Settings{URL: "https://x.example.com", AnonKey: "k"}, true, false},
		{"complete http", Settings{URL: "http://localhost:54321", AnonKey: "k"}, true, false},
		{"missing key", Settings{URL: "https://x.example.com"}, false, false},
		{"missing url", Settings{AnonKey: "k"}, false, false},
		{"not http", Settings{URL: "ftp://x.example.com", AnonKey: "k"}, false, false},
		{"empty", Settings{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.settings.Valid())
			assert.Equal(t, tt.empty, tt.settings.IsEmpty())
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is empty", func(t *testing.T) {
		values, err := LoadOverrides(filepath.Join(dir, "absent.env"))
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("no path is empty", func(t *testing.T) {
		values, err := LoadOverrides("")
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("reads dotenv file", func(t *testing.T) {
		path := filepath.Join(dir, ".env.local")
		content := "backend_url=https://local.example.com\nbackend_anon_key=local-key\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		values, err := LoadOverrides(path)
		require.NoError(t, err)
		assert.Equal(t, "https://local.example.com", values[OverrideURLKey])
		assert.Equal(t, "local-key", values[OverrideAnonKeyKey])
	})

	t.Run("save then load", func(t *testing.T) {
		path := filepath.Join(dir, "saved.env")
		require.NoError(t, SaveOverrides(path, Settings{URL: "https://saved.example.com", AnonKey: "saved"}))

		values, err := LoadOverrides(path)
		require.NoError(t, err)
		got := ResolveSettings(values, Settings{})
		assert.Equal(t, Settings{URL: "https://saved.example.com", AnonKey: "saved"}, got)
	})
}
