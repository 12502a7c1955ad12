package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	t.Setenv("PAINEL_INT", "42")
	t.Setenv("PAINEL_BAD_INT", "x")
	t.Setenv("PAINEL_TIMEOUT", "15s")

	assert.Equal(t, 42, GetInt("PAINEL_INT", 1))
	assert.Equal(t, 1, GetInt("PAINEL_BAD_INT", 1))
	assert.Equal(t, "fallback", GetString("PAINEL_UNSET", "fallback"))
	assert.Equal(t, 15*time.Second, GetDuration("PAINEL_TIMEOUT", time.Second))
	assert.Equal(t, time.Second, GetDuration("PAINEL_UNSET", time.Second))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PAINEL_FROM_FILE=sim\nPAINEL_PRESET=arquivo\n"), 0o600))
	t.Setenv("PAINEL_PRESET", "ambiente")
	t.Cleanup(func() { os.Unsetenv("PAINEL_FROM_FILE") })

	require.NoError(t, Load(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "sim", GetString("PAINEL_FROM_FILE", ""))
	assert.Equal(t, "ambiente", GetString("PAINEL_PRESET", ""), "existing variables are not overridden")
}
