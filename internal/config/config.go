package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/AndresProano/CleaningDataIt/internal/tokenizer"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// DefaultInput and DefaultOutput are read and written in the working directory.
	DefaultInput      = "datos.csv"
	DefaultOutput     = "datos_completos_power_bi.csv"
	DefaultCheckpoint = ".cleaningdata-state.json"
	DefaultPort       = "7070"

	envPrefix = "CLEANINGDATA"
	fileName  = ".cleaningdata"
)

// Preview formats printed to stdout next to the file outputs.
const (
	FormatNone = "none"
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the resolved configuration of a run.
type Config struct {
	Input      []string `mapstructure:"input"`
	Output     string   `mapstructure:"output"`
	Workbook   string   `mapstructure:"workbook"`
	SQLite     string   `mapstructure:"sqlite"`
	Encoding   string   `mapstructure:"encoding"`
	ChunkSize  int      `mapstructure:"chunk_size"`
	Format     string   `mapstructure:"format"`
	NoHeader   bool     `mapstructure:"no_header"`
	Checkpoint string   `mapstructure:"checkpoint"`
	Serve      bool     `mapstructure:"serve"`
	Port       string   `mapstructure:"port"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Input:      []string{DefaultInput},
		Output:     DefaultOutput,
		Encoding:   tokenizer.UTF8.String(),
		ChunkSize:  tokenizer.DefaultChunkSize,
		Format:     FormatNone,
		Checkpoint: DefaultCheckpoint,
		Port:       DefaultPort,
	}
}

// SetDefaults registers Default() in v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input", d.Input)
	v.SetDefault("output", d.Output)
	v.SetDefault("workbook", d.Workbook)
	v.SetDefault("sqlite", d.SQLite)
	v.SetDefault("encoding", d.Encoding)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("format", d.Format)
	v.SetDefault("no_header", d.NoHeader)
	v.SetDefault("checkpoint", d.Checkpoint)
	v.SetDefault("serve", d.Serve)
	v.SetDefault("port", d.Port)
}

// NewViper returns a viper instance with defaults, CLEANINGDATA_* environment
// variables and the config file loaded. Without cfgFile, .cleaningdata.yaml
// is looked up in the home and working directories and may be absent.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if len(c.Input) == 0 {
		return fmt.Errorf("%w: no input given", ErrInvalidConfig)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidConfig)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	switch c.Format {
	case FormatNone, FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: unknown format %q (want none, text or json)", ErrInvalidConfig, c.Format)
	}
	if _, err := tokenizer.LookupCharset(c.Encoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%w: port %q out of range", ErrInvalidConfig, c.Port)
	}
	return nil
}

// TokenizerOptions builds the tokenizer settings for whole-file reads.
func (c Config) TokenizerOptions() (tokenizer.Options, error) {
	cs, err := tokenizer.LookupCharset(c.Encoding)
	if err != nil {
		return tokenizer.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return tokenizer.Options{
		ChunkSize:  c.ChunkSize,
		SkipHeader: !c.NoHeader,
		Charset:    cs,
	}, nil
}
