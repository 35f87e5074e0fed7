package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/datashare/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("empty config gets defaults", func(t *testing.T) {
		cfg := (&clientcli.Config{}).WithDefaults()
		assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
		assert.Equal(t, clientcli.DefaultCookieName, cfg.CookieName)
	})

	t.Run("set values are kept", func(t *testing.T) {
		orig := &clientcli.Config{Endpoint: "https://share.example.com", CookieName: "sid"}
		cfg := orig.WithDefaults()
		assert.Equal(t, "https://share.example.com", cfg.Endpoint)
		assert.Equal(t, "sid", cfg.CookieName)
	})

	t.Run("original is not modified", func(t *testing.T) {
		orig := &clientcli.Config{}
		_ = orig.WithDefaults()
		assert.Empty(t, orig.Endpoint)
	})
}

func TestConfig_RequireSession(t *testing.T) {
	assert.ErrorIs(t, (&clientcli.Config{}).RequireSession(), clientcli.ErrNotLoggedIn)
	assert.NoError(t, (&clientcli.Config{Session: "abc"}).RequireSession())
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Session: "s1"},
				{Endpoint: "http://b.com"},
			},
			expected: &clientcli.Config{Endpoint: "http://b.com", Session: "s1"},
		},
		{
			name: "empty strings do not override",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Session: "s1", CookieName: "sid"},
				{Endpoint: "", Session: "", CookieName: ""},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Session: "s1", CookieName: "sid"},
		},
		{
			name: "nil config is skipped",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com"},
				nil,
				{Session: "s2"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Session: "s2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clientcli.MergeConfig(tt.configs...))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATASHARE_ENDPOINT", "http://test.example.com")
	t.Setenv("DATASHARE_SESSION", "env-session")

	cfg := clientcli.ConfigFromEnv()

	assert.Equal(t, "http://test.example.com", cfg.Endpoint)
	assert.Equal(t, "env-session", cfg.Session)
}

func TestProfileAndPathFromEnv(t *testing.T) {
	t.Setenv("DATASHARE_PROFILE", "work")
	t.Setenv("DATASHARE_CLI_CONFIG", "/tmp/ds.yaml")

	assert.Equal(t, "work", clientcli.ProfileFromEnv())
	assert.Equal(t, "/tmp/ds.yaml", clientcli.ConfigPathFromEnv())
}

func TestConfigFromProfile(t *testing.T) {
	t.Run("nil profile", func(t *testing.T) {
		assert.Equal(t, &clientcli.Config{}, clientcli.ConfigFromProfile(nil))
	})

	t.Run("copies endpoint and session", func(t *testing.T) {
		cfg := clientcli.ConfigFromProfile(&clientcli.Profile{
			Name:     "local",
			Endpoint: "http://localhost:8080",
			Email:    "alice@example.com",
			Session:  "jwt",
		})
		assert.Equal(t, "http://localhost:8080", cfg.Endpoint)
		assert.Equal(t, "jwt", cfg.Session)
	})
}

func sampleConfigFile() *clientcli.ConfigFile {
	return &clientcli.ConfigFile{
		Profiles: []clientcli.Profile{
			{Name: "local", Endpoint: "http://localhost:8080"},
			{Name: "prod", Endpoint: "https://share.example.com", Default: true},
		},
	}
}

func TestConfigFile_GetProfile(t *testing.T) {
	t.Run("by name", func(t *testing.T) {
		p, err := sampleConfigFile().GetProfile("local")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", p.Endpoint)
	})

	t.Run("empty name returns default", func(t *testing.T) {
		p, err := sampleConfigFile().GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "prod", p.Name)
	})

	t.Run("first profile when none is default", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "a"}, {Name: "b"}}}
		p, err := cf.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "a", p.Name)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := sampleConfigFile().GetProfile("missing")
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("no profiles", func(t *testing.T) {
		_, err := (&clientcli.ConfigFile{}).GetProfile("")
		assert.ErrorIs(t, err, clientcli.ErrNoProfiles)
	})
}

func TestConfigFile_Mutations(t *testing.T) {
	t.Run("add duplicate", func(t *testing.T) {
		err := sampleConfigFile().AddProfile(clientcli.Profile{Name: "local"})
		assert.ErrorIs(t, err, clientcli.ErrProfileExists)
	})

	t.Run("add then remove", func(t *testing.T) {
		cf := sampleConfigFile()
		require.NoError(t, cf.AddProfile(clientcli.Profile{Name: "staging"}))
		assert.Equal(t, []string{"local", "prod", "staging"}, cf.ProfileNames())

		require.NoError(t, cf.RemoveProfile("local"))
		assert.Equal(t, []string{"prod", "staging"}, cf.ProfileNames())

		assert.ErrorIs(t, cf.RemoveProfile("local"), clientcli.ErrProfileNotFound)
	})

	t.Run("update", func(t *testing.T) {
		cf := sampleConfigFile()
		require.NoError(t, cf.UpdateProfile(clientcli.Profile{Name: "local", Endpoint: "http://127.0.0.1:9000"}))
		p, err := cf.GetProfile("local")
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:9000", p.Endpoint)

		assert.ErrorIs(t, cf.UpdateProfile(clientcli.Profile{Name: "nope"}), clientcli.ErrProfileNotFound)
	})

	t.Run("set default clears others", func(t *testing.T) {
		cf := sampleConfigFile()
		require.NoError(t, cf.SetDefault("local"))
		assert.True(t, cf.Profiles[0].Default)
		assert.False(t, cf.Profiles[1].Default)

		assert.ErrorIs(t, cf.SetDefault("nope"), clientcli.ErrProfileNotFound)
	})

	t.Run("set and clear session", func(t *testing.T) {
		cf := sampleConfigFile()
		require.NoError(t, cf.SetSession("prod", "alice@example.com", "jwt"))
		assert.Equal(t, "alice@example.com", cf.Profiles[1].Email)
		assert.Equal(t, "jwt", cf.Profiles[1].Session)

		require.NoError(t, cf.SetSession("prod", "alice@example.com", ""))
		assert.Empty(t, cf.Profiles[1].Session)

		assert.ErrorIs(t, cf.SetSession("nope", "", "x"), clientcli.ErrProfileNotFound)
	})
}

func TestConfigFile_SaveAndLoad(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		cf := sampleConfigFile()
		require.NoError(t, cf.SetSession("prod", "alice@example.com", "jwt"))

		require.NoError(t, cf.Save(path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, cf, loaded)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`profiles: [yaml: content`), 0o600))

		_, err := clientcli.LoadConfigFile(path)
		assert.Error(t, err)
	})
}
