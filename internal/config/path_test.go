package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data/deals.db"), ExpandPath("~/data/deals.db"))
	assert.Equal(t, home, ExpandPath("~"))
}

func TestExpandPathEnvVars(t *testing.T) {
	t.Setenv("DEALHOUND_TEST_DIR", "/tmp/dealhound")
	assert.Equal(t, "/tmp/dealhound/deals.db", ExpandPath("$DEALHOUND_TEST_DIR/deals.db"))
}

func TestExpandPathPassthrough(t *testing.T) {
	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/absolute/path.db", ExpandPath("/absolute/path.db"))
	assert.Equal(t, "relative/path.db", ExpandPath("relative/path.db"))
}

func TestDefaultPathsAreAbsolute(t *testing.T) {
	assert.True(t, filepath.IsAbs(DefaultDatabasePath()))
	assert.True(t, filepath.IsAbs(DefaultConfigDir()))
}
