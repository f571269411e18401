package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ccollicutt/chatsift/pkg/analyzer"
	"github.com/ccollicutt/chatsift/pkg/parser"
)

// Default values for configuration.
const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultStoreFile      = "chatsift.db"
)

// Environment variable names.
const (
	EnvTrim              = "CHATSIFT_TRIM"
	EnvDateOrder         = "CHATSIFT_DATE_ORDER"
	EnvEmptyContinuation = "CHATSIFT_EMPTY_CONTINUATION"
	EnvStorePath         = "CHATSIFT_DB"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Inputs: []string{},
		Parser: ParserConfig{
			Trim:              string(parser.TrimLeading),
			EmptyContinuation: string(parser.EmptyLineSpace),
			MaxLineSize:       SizeBytes(parser.DefaultMaxLineSize),
		},
		Dates: DatesConfig{
			Order: string(parser.DayFirst),
		},
		Stats: StatsConfig{
			Top:            analyzer.DefaultTopN,
			WordsPerSender: analyzer.DefaultWordsPerSender,
			MinWordLength:  analyzer.DefaultMinWordLength,
		},
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
	}
}

// DefaultStorePath is chatsift.db under the user data directory, or the
// working directory when no home is available.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultStoreFile
	}
	return filepath.Join(home, ".local", "share", "chatsift", DefaultStoreFile)
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvTrim); v != "" {
		c.Parser.Trim = v
	}
	if v := os.Getenv(EnvDateOrder); v != "" {
		c.Dates.Order = v
	}
	if v := os.Getenv(EnvEmptyContinuation); v != "" {
		c.Parser.EmptyContinuation = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
}
