package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raklaptudirm/mktorrent/internal/config"
)

func TestLoadExplicitPathParsesProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[profiles.public]
announce = ["http://tracker.example/announce"]
piece_length_exp = 18
source = "example"
private = false
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	p, err := cfg.Profile("public")
	require.NoError(t, err)
	require.Equal(t, []string{"http://tracker.example/announce"}, p.Announces)
	require.Equal(t, 18, p.PieceLenExp)
	require.Equal(t, "example", p.Source)
}

func TestLoadMissingExplicitPathErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestProfileNotFound(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, err = cfg.Profile("nonexistent")
	require.ErrorIs(t, err, config.ErrProfileNotFound)
}
