package cfgutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.json")

	exists, err := FileExists(path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	exists, err = FileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"localhost", "localhost:18334"},
		{"localhost:8334", "localhost:8334"},
		{"127.0.0.1", "127.0.0.1:18334"},
		{"::1", "[::1]:18334"},
		{"[::1]:38332", "[::1]:38332"},
	}

	for _, test := range tests {
		got, err := NormalizeAddress(test.addr, "18334")
		require.NoError(t, err, test.addr)
		assert.Equal(t, test.want, got, test.addr)
	}

	_, err := NormalizeAddress("[::1", "18334")
	assert.Error(t, err)
}
