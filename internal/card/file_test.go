package card

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"cardterm/internal/theme"
)

func TestLoadFileFormats(t *testing.T) {
	dir := t.TempDir()
	c := New()
	require.NoError(t, c.Update(FieldAddress, "1 Loop Rd\nCupertino"))
	require.NoError(t, c.Update(FieldTheme, "luxury"))

	asYAML, err := yaml.Marshal(c)
	require.NoError(t, err)
	asJSON, err := json.Marshal(c)
	require.NoError(t, err)

	files := map[string][]byte{"card.yaml": asYAML, "card.yml": asYAML, "card.json": asJSON}
	for name, data := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644), name)
		got, err := LoadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, c, got, name)
	}
}

func TestLoadFilePartialYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Ada Lovelace\ncompany: Analytical Engines\n"), 0o644))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "Analytical Engines", got.Company)
	assert.Empty(t, got.Email)
	assert.Equal(t, theme.DefaultID, got.Theme)
}

func TestLoadFileKeepsUnknownTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"X","theme":"neon"}`), 0o644))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "neon", got.Theme)
}

func TestCardFileErrors(t *testing.T) {
	dir := t.TempDir()
	toml := filepath.Join(dir, "card.toml")
	require.NoError(t, os.WriteFile(toml, []byte("name = \"X\"\n"), 0o644))
	_, err := LoadFile(toml)
	require.ErrorIs(t, err, ErrUnsupportedFile)

	bad := filepath.Join(dir, "card.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unterminated"), 0o644))
	_, err = LoadFile(bad)
	require.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
