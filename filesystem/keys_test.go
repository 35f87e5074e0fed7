package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/datashare/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadKeysFromFile_ValidJSON(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, `[
		{"access_key": "LOCALKEY2025", "secret_key": "s3cr3t/with+special=chars"},
		{"access_key": "LOCALKEY2024", "secret_key": "old"}
	]`)

	keys, err := filesystem.LoadKeysFromFile(path)
	require.NoError(t, err)

	assert.Len(t, keys, 2)
	assert.Equal(t, "s3cr3t/with+special=chars", keys["LOCALKEY2025"])
	assert.Equal(t, "old", keys["LOCALKEY2024"])
}

func TestLoadKeysFromFile_SkipsEmptyKeys(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, `[
		{"access_key": "", "secret_key": "secret1"},
		{"access_key": "key2", "secret_key": ""},
		{"access_key": "valid_key", "secret_key": "valid_secret"}
	]`)

	keys, err := filesystem.LoadKeysFromFile(path)
	require.NoError(t, err)

	assert.Len(t, keys, 1)
	assert.Equal(t, "valid_secret", keys["valid_key"])
}

func TestLoadKeysFromFile_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := filesystem.LoadKeysFromFile("/nonexistent/path/keys.json")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read keys file")
}

func TestLoadKeysFromFile_InvalidJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "this is not json"},
		{name: "json object instead of array", content: `{"access_key": "key", "secret_key": "secret"}`},
		{name: "malformed json", content: `[{"access_key": "key", "secret_key": "secret"`},
		{name: "array of strings", content: `["key1", "key2"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := filesystem.LoadKeysFromFile(writeTestFile(t, tt.content))

			assert.Error(t, err)
			assert.Contains(t, err.Error(), "parse keys file")
		})
	}
}

func TestNewKeyRing(t *testing.T) {
	t.Parallel()

	t.Run("inline only", func(t *testing.T) {
		ring, err := filesystem.NewKeyRing(filesystem.KeysConfig{
			Inline: []filesystem.KeyPair{
				{AccessKey: "A", SecretKey: "a"},
				{AccessKey: "", SecretKey: "ignored"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, ring.Len())
		secret, err := ring.Lookup("A")
		require.NoError(t, err)
		assert.Equal(t, "a", secret)
	})

	t.Run("file overrides inline", func(t *testing.T) {
		path := writeTestFile(t, `[{"access_key": "A", "secret_key": "from-file"}, {"access_key": "B", "secret_key": "b"}]`)

		ring, err := filesystem.NewKeyRing(filesystem.KeysConfig{
			Inline: []filesystem.KeyPair{{AccessKey: "A", SecretKey: "inline"}},
			File:   path,
		})
		require.NoError(t, err)

		assert.Equal(t, 2, ring.Len())
		secret, err := ring.Lookup("A")
		require.NoError(t, err)
		assert.Equal(t, "from-file", secret)
	})

	t.Run("bad file", func(t *testing.T) {
		_, err := filesystem.NewKeyRing(filesystem.KeysConfig{File: "/nonexistent/keys.json"})
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		ring, err := filesystem.NewKeyRing(filesystem.KeysConfig{})
		require.NoError(t, err)

		_, err = ring.Lookup("missing")
		assert.ErrorIs(t, err, filesystem.ErrKeyNotFound)
	})
}
