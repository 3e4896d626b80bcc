package localdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFile(t *testing.T) {
	db := New(filepath.Join(t.TempDir(), "checkpoint.json"))

	second, err := db.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(0), second)
}

func TestWriteReadRoundTrip(t *testing.T) {
	db := New(filepath.Join(t.TempDir(), "state", "checkpoint.json"))

	require.NoError(t, db.Write(1700000123))
	second, err := db.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000123), second)

	require.NoError(t, db.Write(1700000999))
	second, err = db.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000999), second)
}

func TestReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := New(path).Read()
	assert.Error(t, err)
}
