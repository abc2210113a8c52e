package cli

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRoot()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("DEV_MODE", "1")
	t.Setenv("SESSION_HASH_KEY", "")
	t.Setenv("SESSION_BLOCK_KEY", "")
}

func TestKeys(t *testing.T) {
	out, err := run(t, "keys")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for i, name := range []string{"SESSION_HASH_KEY", "SESSION_BLOCK_KEY"} {
		prefix := "export " + name + "="
		require.True(t, strings.HasPrefix(lines[i], prefix), lines[i])
		key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(lines[i], prefix))
		require.NoError(t, err)
		assert.Len(t, key, 32)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "roleguard dev")
}

func TestUserAddShowAndPing(t *testing.T) {
	sqliteEnv(t)

	out, err := run(t, "user", "add", "--username", "root", "--password", "pw", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, `created user "root"`)
	assert.Contains(t, out, "role=admin")

	out, err = run(t, "user", "show", "root")
	require.NoError(t, err)
	assert.Contains(t, out, "role=admin")

	_, err = run(t, "user", "add", "--username", "root", "--password", "pw")
	assert.Error(t, err, "duplicate username")

	out, err = run(t, "ping")
	require.NoError(t, err)
	assert.Equal(t, "sqlite: ok\n", out)
}

func TestMigrate(t *testing.T) {
	sqliteEnv(t)
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
}

func TestConfigFileFlag(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("DATABASE_URL", "")
	dbPath := filepath.Join(t.TempDir(), "from-file.db")
	cfgPath := filepath.Join(t.TempDir(), "roleguard.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`database_url = "sqlite://`+filepath.ToSlash(dbPath)+`"`+"\n"), 0o600))

	_, err := run(t, "--config", cfgPath, "migrate")
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestEnvFileFlag(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	dbPath := filepath.Join(t.TempDir(), "from-env.db")
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("DATABASE_URL=sqlite://"+filepath.ToSlash(dbPath)+"\n"), 0o600))

	_, err := run(t, "--env-file", envPath, "migrate")
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}
