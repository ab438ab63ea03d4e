// Package config resolves harness settings from flags, B32K_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"xdao.co/base32768/textconv"
)

const EnvPrefix = "B32K"

const (
	ConfigFileKey  = "config-file"
	LogLevelKey    = "log-level"
	IterationsKey  = "iterations"
	ChunkSizeKey   = "chunk-size"
	ArchiveKey     = "archive"
	MirrorKey      = "archive-mirror"
	ReplayKey      = "replay"
	MetricsFileKey = "metrics-file"
)

// DefaultIterations is how many times each codec benchmark runs.
const DefaultIterations = 100

var (
	errBadIterations = errors.New("iterations must be positive")
	errBadChunkSize  = errors.New("chunk size must be positive")
	errReplayArchive = errors.New("replay requires an archive directory")
	errMirrorArchive = errors.New("archive mirrors require an archive directory")
)

// Bench is the harness configuration.
type Bench struct {
	LogLevel    string
	Iterations  int
	ChunkSize   int
	ArchiveDir  string
	MirrorDirs  []string
	Replay      string
	MetricsFile string
}

// Default returns the configuration used when nothing is set.
func Default() Bench {
	return Bench{
		LogLevel:   "info",
		Iterations: DefaultIterations,
		ChunkSize:  textconv.DefaultChunkSize,
	}
}

// BuildFlagSet returns the harness flags with their defaults.
func BuildFlagSet() *pflag.FlagSet {
	d := Default()
	fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	fs.String(ConfigFileKey, "", "Path to a config file (json, yaml or toml)")
	fs.String(LogLevelKey, d.LogLevel, "Log level: debug, info, warn, error or off")
	fs.Int(IterationsKey, d.Iterations, "Iterations per codec benchmark")
	fs.Int(ChunkSizeKey, d.ChunkSize, "Code units converted per step when building strings")
	fs.String(ArchiveKey, "", "Directory of a content-addressed payload archive; the payload is stored there")
	fs.StringSlice(MirrorKey, nil, "Further archive directories the payload is copied to and replayed from")
	fs.String(ReplayKey, "", "CID of an archived payload to use instead of random bytes")
	fs.String(MetricsFileKey, "", "Write prometheus metrics to this file after the run")
	return fs
}

// NewViper binds fs and the B32K_* environment, then reads the config file
// if one is named.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if path := v.GetString(ConfigFileKey); path != "" {
		v.SetConfigFile(os.ExpandEnv(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// FromViper builds and validates a Bench from v.
func FromViper(v *viper.Viper) (Bench, error) {
	cfg := Bench{
		LogLevel:    v.GetString(LogLevelKey),
		Iterations:  v.GetInt(IterationsKey),
		ChunkSize:   v.GetInt(ChunkSizeKey),
		ArchiveDir:  os.ExpandEnv(v.GetString(ArchiveKey)),
		Replay:      v.GetString(ReplayKey),
		MetricsFile: os.ExpandEnv(v.GetString(MetricsFileKey)),
	}
	for _, dir := range v.GetStringSlice(MirrorKey) {
		cfg.MirrorDirs = append(cfg.MirrorDirs, os.ExpandEnv(dir))
	}
	return cfg, cfg.Validate()
}

func (c Bench) Validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("%w: %d", errBadIterations, c.Iterations)
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: %d", errBadChunkSize, c.ChunkSize)
	case c.Replay != "" && c.ArchiveDir == "":
		return errReplayArchive
	case len(c.MirrorDirs) > 0 && c.ArchiveDir == "":
		return errMirrorArchive
	default:
		return nil
	}
}
