package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"

	"github.com/dshills/calcstorm/internal/config/loader"
)

// Default values.
const (
	DefaultMaxHistorySize  = 1000
	DefaultAutoSave        = true
	DefaultPrecision       = 10
	DefaultEncoding        = "utf-8"
	DefaultHistoryFormat   = "csv"
	DefaultLogLevel        = "info"
	DefaultLogFileName     = "calculator.log"
	DefaultHistoryBaseName = "calculator_history"
)

// DefaultMaxInputValue is the largest accepted operand magnitude.
var DefaultMaxInputValue = decimal.New(1, 999)

// Config holds calculator settings.
type Config struct {
	BaseDir         string          `mapstructure:"base_dir" validate:"required"`
	LogDir          string          `mapstructure:"log_dir"`
	HistoryDir      string          `mapstructure:"history_dir"`
	LogFile         string          `mapstructure:"log_file"`
	HistoryFile     string          `mapstructure:"history_file"`
	MaxHistorySize  int             `mapstructure:"max_history_size" validate:"gte=1"`
	AutoSave        bool            `mapstructure:"auto_save"`
	Precision       int             `mapstructure:"precision" validate:"gte=0,lte=28"`
	MaxInputValue   decimal.Decimal `mapstructure:"max_input_value" validate:"gt=0"`
	DefaultEncoding string          `mapstructure:"default_encoding" validate:"oneof=utf-8"`
	HistoryFormat   string          `mapstructure:"history_format" validate:"oneof=csv sqlite"`
	LogLevel        string          `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-"`
}

// Default returns the built-in configuration rooted at baseDir. Derived
// directories and files are resolved by Resolve.
func Default(baseDir string) *Config {
	return &Config{
		BaseDir:         baseDir,
		MaxHistorySize:  DefaultMaxHistorySize,
		AutoSave:        DefaultAutoSave,
		Precision:       DefaultPrecision,
		MaxInputValue:   DefaultMaxInputValue,
		DefaultEncoding: DefaultEncoding,
		HistoryFormat:   DefaultHistoryFormat,
		LogLevel:        DefaultLogLevel,
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	file      string
	fs        loader.FileSystem
	envPrefix string
	baseDir   string
	overrides map[string]any
}

// WithFile reads settings from path. Without it the file named by
// CALCULATOR_CONFIG_FILE is used, if set.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithFileSystem reads the config file through fsys.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithBaseDir sets the default base directory. The working directory is
// used otherwise.
func WithBaseDir(dir string) Option {
	return func(o *options) {
		o.baseDir = dir
	}
}

// WithOverrides applies settings above every other source, as command
// line flags do.
func WithOverrides(overrides map[string]any) Option {
	return func(o *options) {
		o.overrides = overrides
	}
}

// Load builds the configuration from defaults, the config file, the
// environment and overrides, in increasing priority, then resolves derived
// paths and validates the result.
func Load(opts ...Option) (*Config, error) {
	o := options{
		fs:        loader.DefaultFS(),
		envPrefix: loader.DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		o.baseDir = wd
	}
	if o.file == "" {
		o.file = os.Getenv(o.envPrefix + "CONFIG_FILE")
	}

	cfg := Default(o.baseDir)

	if o.file != "" {
		fl, err := loader.ForPath(o.fs, o.file)
		if err != nil {
			return nil, err
		}
		values, err := fl.Load()
		if err != nil {
			return nil, err
		}
		if err := cfg.apply(values); err != nil {
			return nil, err
		}
		cfg.ConfigFile = o.file
	}

	env, err := loader.NewEnvLoader(o.envPrefix).Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.apply(env); err != nil {
		return nil, err
	}

	if err := cfg.apply(o.overrides); err != nil {
		return nil, err
	}

	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply decodes values over c one key at a time so a bad value can be
// reported against its key. Unknown keys are ignored.
func (c *Config) apply(values map[string]any) error {
	types := fieldTypes()
	for key, val := range values {
		want, known := types[key]
		if !known {
			continue
		}
		if err := decode(map[string]any{key: val}, c); err != nil {
			return &TypeError{
				Path:     key,
				Expected: want.String(),
				Actual:   fmt.Sprintf("%T", val),
				Err:      err,
			}
		}
	}
	return nil
}

func decode(input map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decimalHook,
			boolWordHook,
		),
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook converts strings and numbers into decimal.Decimal.
func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint64:
		return decimal.NewFromUint64(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return data, nil
	}
}

// boolWordHook accepts yes/no and on/off for boolean settings.
func boolWordHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return data, nil
}

func fieldTypes() map[string]reflect.Type {
	t := reflect.TypeOf(Config{})
	types := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		types[tag] = f.Type
	}
	return types
}

// Resolve normalizes text settings and fills derived paths: log and
// history directories default under BaseDir, and files default inside
// those directories. All paths are made absolute.
func (c *Config) Resolve() error {
	c.DefaultEncoding = normalizeEncoding(c.DefaultEncoding)
	c.HistoryFormat = strings.ToLower(strings.TrimSpace(c.HistoryFormat))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	var err error
	if c.BaseDir, err = absPath(c.BaseDir); err != nil {
		return err
	}
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.BaseDir, "logs")
	}
	if c.HistoryDir == "" {
		c.HistoryDir = filepath.Join(c.BaseDir, "history")
	}
	if c.LogDir, err = absPath(c.LogDir); err != nil {
		return err
	}
	if c.HistoryDir, err = absPath(c.HistoryDir); err != nil {
		return err
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.LogDir, DefaultLogFileName)
	}
	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(c.HistoryDir, DefaultHistoryBaseName+historyExt(c.HistoryFormat))
	}
	if c.LogFile, err = absPath(c.LogFile); err != nil {
		return err
	}
	if c.HistoryFile, err = absPath(c.HistoryFile); err != nil {
		return err
	}
	return nil
}

func historyExt(format string) string {
	if format == "sqlite" {
		return ".db"
	}
	return ".csv"
}

func normalizeEncoding(enc string) string {
	enc = strings.ToLower(strings.TrimSpace(enc))
	if enc == "utf8" {
		return "utf-8"
	}
	return enc
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", p, err)
	}
	return abs, nil
}

// Validate checks every setting and reports all failures together as
// ValidationErrors.
func (c *Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &ValidationError{
			Path:    fe.Field(),
			Message: validationMessage(fe),
			Value:   fieldValue(c, fe.StructField()),
			Code:    validationCode(fe.Tag()),
		})
	}
	return out
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("mapstructure")
		if name == "-" {
			return ""
		}
		return name
	})
	// Decimals are compared by their float magnitude; an overflow to +Inf
	// still satisfies gt=0.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func fieldValue(c *Config, structField string) any {
	f := reflect.ValueOf(c).Elem().FieldByName(structField)
	if !f.IsValid() {
		return nil
	}
	if d, ok := f.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return f.Interface()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "failed " + fe.Tag()
	}
}

func validationCode(tag string) ValidationErrorCode {
	switch tag {
	case "required":
		return ErrCodeRequiredMissing
	case "gte", "lte", "gt":
		return ErrCodeOutOfRange
	case "oneof":
		return ErrCodeInvalidEnum
	default:
		return ErrCodeInvalid
	}
}

// EnsureDirs creates the log and history directories along with the
// parent directories of the log and history files.
func (c *Config) EnsureDirs() error {
	dirs := []string{c.LogDir, c.HistoryDir, filepath.Dir(c.LogFile), filepath.Dir(c.HistoryFile)}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
