package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets CALCULATOR_* variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BASE_DIR", "LOG_DIR", "HISTORY_DIR", "LOG_FILE", "HISTORY_FILE",
		"MAX_HISTORY_SIZE", "AUTO_SAVE", "PRECISION", "MAX_INPUT_VALUE",
		"DEFAULT_ENCODING", "HISTORY_FORMAT", "LOG_LEVEL", "CONFIG_FILE",
	} {
		t.Setenv("CALCULATOR_"+key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	base := t.TempDir()

	cfg, err := Load(WithBaseDir(base))
	require.NoError(t, err)

	assert.Equal(t, base, cfg.BaseDir)
	assert.Equal(t, filepath.Join(base, "logs"), cfg.LogDir)
	assert.Equal(t, filepath.Join(base, "history"), cfg.HistoryDir)
	assert.Equal(t, filepath.Join(base, "logs", "calculator.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(base, "history", "calculator_history.csv"), cfg.HistoryFile)
	assert.Equal(t, 1000, cfg.MaxHistorySize)
	assert.True(t, cfg.AutoSave)
	assert.Equal(t, 10, cfg.Precision)
	assert.True(t, cfg.MaxInputValue.Equal(decimal.New(1, 999)))
	assert.Equal(t, "utf-8", cfg.DefaultEncoding)
	assert.Equal(t, "csv", cfg.HistoryFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_WorkingDirectoryBase(t *testing.T) {
	clearEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.BaseDir)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	base := t.TempDir()
	t.Setenv("CALCULATOR_BASE_DIR", base)
	t.Setenv("CALCULATOR_MAX_HISTORY_SIZE", "25")
	t.Setenv("CALCULATOR_AUTO_SAVE", "false")
	t.Setenv("CALCULATOR_PRECISION", "4")
	t.Setenv("CALCULATOR_MAX_INPUT_VALUE", "1000.5")
	t.Setenv("CALCULATOR_DEFAULT_ENCODING", "UTF8")
	t.Setenv("CALCULATOR_HISTORY_FORMAT", "SQLite")
	t.Setenv("CALCULATOR_LOG_LEVEL", "Debug")

	cfg, err := Load(WithBaseDir("/ignored"))
	require.NoError(t, err)

	assert.Equal(t, base, cfg.BaseDir)
	assert.Equal(t, filepath.Join(base, "history", "calculator_history.db"), cfg.HistoryFile)
	assert.Equal(t, 25, cfg.MaxHistorySize)
	assert.False(t, cfg.AutoSave)
	assert.Equal(t, 4, cfg.Precision)
	assert.Equal(t, "1000.5", cfg.MaxInputValue.String())
	assert.Equal(t, "utf-8", cfg.DefaultEncoding)
	assert.Equal(t, "sqlite", cfg.HistoryFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ExplicitPaths(t *testing.T) {
	clearEnv(t)
	base := t.TempDir()
	t.Setenv("CALCULATOR_LOG_DIR", filepath.Join(base, "var", "log"))
	t.Setenv("CALCULATOR_HISTORY_FILE", filepath.Join(base, "h.csv"))

	cfg, err := Load(WithBaseDir(base))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "var", "log", "calculator.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(base, "h.csv"), cfg.HistoryFile)
	assert.Equal(t, filepath.Join(base, "history"), cfg.HistoryDir)
}

func TestLoad_FileLayers(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "calc.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
max_history_size = 50
precision = 2
max_input_value = 1e6
log_level = "warn"
`), 0o644))

	t.Setenv("CALCULATOR_PRECISION", "6")

	cfg, err := Load(WithBaseDir(dir), WithFile(tomlPath))
	require.NoError(t, err)
	assert.Equal(t, tomlPath, cfg.ConfigFile)
	assert.Equal(t, 50, cfg.MaxHistorySize)
	assert.Equal(t, 6, cfg.Precision, "environment overrides file")
	assert.True(t, cfg.MaxInputValue.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg, err = Load(WithBaseDir(dir), WithFile(tomlPath), WithOverrides(map[string]any{"precision": 1, "log_level": "error"}))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Precision, "overrides win")
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_YAMLFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "calc.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("auto_save: off\nhistory_format: sqlite\n"), 0o644))
	t.Setenv("CALCULATOR_CONFIG_FILE", yamlPath)

	cfg, err := Load(WithBaseDir(dir))
	require.NoError(t, err)
	assert.False(t, cfg.AutoSave)
	assert.Equal(t, "sqlite", cfg.HistoryFormat)
	assert.Equal(t, yamlPath, cfg.ConfigFile)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(WithBaseDir(dir), WithFile(filepath.Join(dir, "absent.toml")))
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxHistorySize)
}

func TestLoad_UnsupportedFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(WithBaseDir(t.TempDir()), WithFile("calc.ini"))
	assert.Error(t, err)
}

func TestLoad_TypeError(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALCULATOR_MAX_HISTORY_SIZE", "lots")

	_, err := Load(WithBaseDir(t.TempDir()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	var terr *TypeError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "max_history_size", terr.Path)
	assert.Equal(t, "int", terr.Expected)
	assert.Equal(t, "string", terr.Actual)
}

func TestLoad_BadDecimal(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALCULATOR_MAX_INPUT_VALUE", "huge")

	_, err := Load(WithBaseDir(t.TempDir()))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
		code   ValidationErrorCode
	}{
		{"zero history", func(c *Config) { c.MaxHistorySize = 0 }, "max_history_size", ErrCodeOutOfRange},
		{"negative precision", func(c *Config) { c.Precision = -1 }, "precision", ErrCodeOutOfRange},
		{"precision too large", func(c *Config) { c.Precision = 29 }, "precision", ErrCodeOutOfRange},
		{"zero max input", func(c *Config) { c.MaxInputValue = decimal.Zero }, "max_input_value", ErrCodeOutOfRange},
		{"negative max input", func(c *Config) { c.MaxInputValue = decimal.NewFromInt(-5) }, "max_input_value", ErrCodeOutOfRange},
		{"encoding", func(c *Config) { c.DefaultEncoding = "latin-1" }, "default_encoding", ErrCodeInvalidEnum},
		{"format", func(c *Config) { c.HistoryFormat = "xml" }, "history_format", ErrCodeInvalidEnum},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level", ErrCodeInvalidEnum},
		{"base dir", func(c *Config) { c.BaseDir = "" }, "base_dir", ErrCodeRequiredMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidationFailed)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.path, verrs[0].Path)
			assert.Equal(t, tt.code, verrs[0].Code)
		})
	}
}

func TestValidate_ReportsAll(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.MaxHistorySize = 0
	cfg.HistoryFormat = "xml"

	err := cfg.Validate()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "max_history_size: must be at least 1")
	assert.Contains(t, err.Error(), "history_format: must be one of: csv, sqlite")
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALCULATOR_MAX_HISTORY_SIZE", "0")

	_, err := Load(WithBaseDir(t.TempDir()))
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	cfg := Default(base)
	require.NoError(t, cfg.Resolve())

	require.NoError(t, cfg.EnsureDirs())
	for _, dir := range []string{cfg.LogDir, cfg.HistoryDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestEnsureDirs_Failure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := Default(base)
	cfg.LogDir = filepath.Join(blocker, "logs")
	require.NoError(t, cfg.Resolve())
	assert.Error(t, cfg.EnsureDirs())
}

func TestValidationErrorCode_String(t *testing.T) {
	assert.Equal(t, "out_of_range", ErrCodeOutOfRange.String())
	assert.Equal(t, "invalid_enum", ErrCodeInvalidEnum.String())
	assert.Equal(t, "required_missing", ErrCodeRequiredMissing.String())
	assert.Equal(t, "invalid", ErrCodeInvalid.String())
	assert.Equal(t, "unknown", ValidationErrorCode(99).String())
}
