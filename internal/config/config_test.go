package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMergesLayersLaterWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quest.toml", "[std.web]\nport = 8080\nhost = \"0.0.0.0\"\n")
	writeFile(t, dir, "quest.local.toml", "[std.web]\nport = 9090\n")

	c, err := Load(dir, "")
	require.NoError(t, err)

	section := c.Section("std.web")
	require.NotNil(t, section)
	assert.EqualValues(t, 9090, section["port"])
	assert.Equal(t, "0.0.0.0", section["host"])
}

func TestLoadAppliesEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quest.toml", "[myapp.worker]\npoolsize = 1\n")
	writeFile(t, dir, "quest.prod.toml", "[myapp.worker]\npoolsize = 16\n")

	c, err := Load(dir, "prod")
	require.NoError(t, err)

	section := c.Section("myapp.worker")
	assert.EqualValues(t, 16, section["poolsize"])
}

func TestLoadSetsProcessEnviron(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quest.toml", "[os.environ]\nQUEST_TEST_VAR = \"hello\"\n")

	_, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", os.Getenv("QUEST_TEST_VAR"))
}

func TestMissingFilesAreNotErrors(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir, "staging")
	require.NoError(t, err)
	assert.Nil(t, c.Section("anything"))
}

type stubSchema struct{ fail bool }

func (s stubSchema) Validate(section map[string]any) error {
	if s.fail {
		return assert.AnError
	}
	return nil
}

func TestValidateModuleAbortsOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quest.toml", "[std.db]\ndsn = \"x\"\n")
	c, err := Load(dir, "")
	require.NoError(t, err)

	assert.NoError(t, c.ValidateModule("std.db", stubSchema{fail: false}))
	assert.Error(t, c.ValidateModule("std.db", stubSchema{fail: true}))
}
