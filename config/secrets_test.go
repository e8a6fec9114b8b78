package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".secrets_local", `
# comment
DATABASE_PASSWORD="quoted value"
API_TOKEN=abc
`)

	s, err := NewFileSecrets(filepath.Join(dir, ".secrets_local"))
	require.NoError(t, err)

	v, ok := s.Lookup("DATABASE_PASSWORD")
	assert.True(t, ok)
	assert.Equal(t, "quoted value", v)

	_, ok = s.Lookup("MISSING")
	assert.False(t, ok)
}

func TestFileSecrets_MissingFile(t *testing.T) {
	s, err := NewFileSecrets(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	_, ok := s.Lookup("ANYTHING")
	assert.False(t, ok)
}

func TestEnvSecrets(t *testing.T) {
	t.Setenv("EVENTUALLY_DATABASE_PASSWORD", "pw")

	s := NewEnvSecrets("eventually")
	v, ok := s.Lookup("DATABASE_PASSWORD")
	assert.True(t, ok)
	assert.Equal(t, "pw", v)

	_, ok = s.Lookup("DATABASE_USER")
	assert.False(t, ok)
}

func TestSecretsFilePath(t *testing.T) {
	cfg := DefaultSecretsConfig()

	assert.Equal(t, filepath.Join("env_files", ".secrets_local"), SecretsFilePath(cfg, EnvLocal, "env_files"))
	assert.Equal(t, filepath.Join("/etc/eventually", ".secrets_prod"), SecretsFilePath(cfg, EnvProd, "env_files"))

	cfg.BasePath = "/run/secrets"
	assert.Equal(t, filepath.Join("/run/secrets", ".secrets_prod"), SecretsFilePath(cfg, EnvProd, "env_files"))
}

func TestNewSecretsProvider_UnknownMode(t *testing.T) {
	_, err := NewSecretsProvider(SecretsConfig{Mode: "vault"}, EnvLocal, "env_files")
	assert.Error(t, err)
}
