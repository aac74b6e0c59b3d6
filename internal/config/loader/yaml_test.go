package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/calc.yaml", `
max_history_size: 50
auto_save: no
precision: 4
max_input_value: "1e100"
history-format: csv
`)

	config, err := NewYAMLLoaderWithFS(memfs, "/calc.yaml").Load()
	require.NoError(t, err)

	assert.Equal(t, 50, config["max_history_size"])
	assert.Equal(t, "no", config["auto_save"], "yaml.v3 follows YAML 1.2 booleans")
	assert.Equal(t, 4, config["precision"])
	assert.Equal(t, "1e100", config["max_input_value"])
	assert.Equal(t, "csv", config["history_format"])
}

func TestYAMLLoader_Empty(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/empty.yaml", "")

	config, err := NewYAMLLoaderWithFS(memfs, "/empty.yaml").Load()
	require.NoError(t, err)
	assert.Empty(t, config)
}

func TestYAMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewYAMLLoaderWithFS(NewMemFS(), "/missing.yaml").Load()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestYAMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.yaml", "precision: [4\n")

	_, err := NewYAMLLoaderWithFS(memfs, "/bad.yaml").Load()
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "/bad.yaml", perr.Path)
}
