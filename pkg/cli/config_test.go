package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_ActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:8080", Output: "table"},
			"staging": {Host: "https://staging.example.com", Output: "json", Dialect: "pgx"},
		},
	}

	tests := []struct {
		name     string
		override string
		wantHost string
		wantErr  string
	}{
		{name: "uses current profile", wantHost: "http://localhost:8080"},
		{name: "override to staging", override: "staging", wantHost: "https://staging.example.com"},
		{name: "unknown override", override: "nonexistent", wantErr: `profile "nonexistent" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := cfg.ActiveProfile(tt.override)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, p.Host)
		})
	}
}

func TestUserConfig_MissingCurrentProfileIsEmpty(t *testing.T) {
	cfg := &UserConfig{CurrentProfile: "gone", Profiles: map[string]Profile{}}
	p, err := cfg.ActiveProfile("")
	require.NoError(t, err)
	assert.Equal(t, Profile{}, p)
}

func TestSaveAndLoadUserConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("TXN_CONFIG", "")

	want := &UserConfig{
		CurrentProfile: "local",
		Profiles: map[string]Profile{
			"local": {Host: "http://127.0.0.1:9000", Aliases: "configs/aliases.yaml", Dialect: "sqlite3"},
		},
	}
	require.NoError(t, SaveUserConfig(want))

	info, err := os.Stat(filepath.Join(dir, ".txn", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadUserConfig_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TXN_CONFIG", "")
	_, err := LoadUserConfig()
	require.Error(t, err)
}

func TestConfigPath_EnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TXN_CONFIG", "")
	assert.Equal(t, filepath.Join(home, ".txn", "config.yaml"), ConfigPath())

	custom := filepath.Join(t.TempDir(), "nested", "txn.yaml")
	t.Setenv("TXN_CONFIG", custom)
	assert.Equal(t, custom, ConfigPath())

	require.NoError(t, SaveUserConfig(&UserConfig{CurrentProfile: "ci", Profiles: map[string]Profile{"ci": {Output: "json"}}}))
	got, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "json", got.Profiles["ci"].Output)

	_, err = os.Stat(filepath.Join(home, ".txn"))
	assert.True(t, os.IsNotExist(err))
}
