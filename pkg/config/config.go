package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/chatsift/pkg/analyzer"
	"github.com/ccollicutt/chatsift/pkg/parser"
)

// Load reads and validates a configuration file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults with
// environment overrides when path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks a configuration for errors and compiles custom formats.
// Inputs are optional here since they may come from the command line.
func Validate(cfg *Config) error {
	if err := validateParser(&cfg.Parser); err != nil {
		return fmt.Errorf("parser: %w", err)
	}

	if _, err := parser.ParseDateOrder(cfg.Dates.Order); err != nil {
		return fmt.Errorf("dates.order: %w", err)
	}

	if err := validateStats(&cfg.Stats); err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateParser(pc *ParserConfig) error {
	if _, err := parser.ParseTrimMode(pc.Trim); err != nil {
		return fmt.Errorf("trim: %w", err)
	}
	if _, err := parser.ParseEmptyLinePolicy(pc.EmptyContinuation); err != nil {
		return fmt.Errorf("empty_continuation: %w", err)
	}

	if pc.MaxLineSize < 0 {
		return errors.New("max_line_size must not be negative")
	}
	if pc.MaxLineSize == 0 {
		pc.MaxLineSize = SizeBytes(parser.DefaultMaxLineSize)
	}

	pc.compiled = nil
	seen := make(map[string]bool)
	for i, fc := range pc.Formats {
		if fc.Name == "" {
			return fmt.Errorf("formats[%d]: name is required", i)
		}
		if seen[fc.Name] {
			return fmt.Errorf("formats[%d]: duplicate name %q", i, fc.Name)
		}
		seen[fc.Name] = true

		f, err := parser.NewFormat(fc.Name, parser.KindCustom, fc.Pattern)
		if err != nil {
			return fmt.Errorf("formats[%d] (%s): %w", i, fc.Name, err)
		}
		pc.compiled = append(pc.compiled, f)
	}

	return nil
}

func validateStats(sc *StatsConfig) error {
	if sc.Top < 0 {
		return errors.New("top must not be negative")
	}
	if sc.WordsPerSender < 0 {
		return errors.New("words_per_sender must not be negative")
	}
	if sc.MinWordLength < 0 {
		return errors.New("min_word_length must not be negative")
	}
	if sc.Top == 0 {
		sc.Top = analyzer.DefaultTopN
	}
	if sc.WordsPerSender == 0 {
		sc.WordsPerSender = analyzer.DefaultWordsPerSender
	}
	if sc.MinWordLength == 0 {
		sc.MinWordLength = analyzer.DefaultMinWordLength
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnMessages
	case WebhookTriggerOnMessages, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_messages, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = Duration(DefaultWebhookTimeout)
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}

	return s
}

// AllFormats returns the built-in dialects followed by the compiled custom
// formats. Only valid after Validate.
func (pc *ParserConfig) AllFormats() []*parser.Format {
	return append(parser.DefaultFormats(), pc.compiled...)
}

// DateOrder returns the configured date order. Only valid after Validate.
func (c *Config) DateOrder() parser.DateOrder {
	order, _ := parser.ParseDateOrder(c.Dates.Order)
	return order
}

// ParserOptions translates the parser section into parser options.
// Only valid after Validate.
func (c *Config) ParserOptions() []parser.Option {
	trim, _ := parser.ParseTrimMode(c.Parser.Trim)
	policy, _ := parser.ParseEmptyLinePolicy(c.Parser.EmptyContinuation)
	return []parser.Option{
		parser.WithTrimMode(trim),
		parser.WithEmptyLinePolicy(policy),
		parser.WithMaxLineSize(int(c.Parser.MaxLineSize)),
		parser.WithFormats(c.Parser.AllFormats()...),
	}
}

// AnalyzerOptions translates the stats section into analyzer options.
func (c *Config) AnalyzerOptions() []analyzer.AnalyzerOption {
	opts := []analyzer.AnalyzerOption{
		analyzer.WithTopN(c.Stats.Top),
		analyzer.WithWordsPerSender(c.Stats.WordsPerSender),
		analyzer.WithMinWordLength(c.Stats.MinWordLength),
	}
	if len(c.Stats.StopWords) > 0 {
		opts = append(opts, analyzer.WithStopWords(c.Stats.StopWords))
	}
	return opts
}

// TimeoutDuration returns the webhook timeout as a time.Duration.
func (wh *WebhookConfig) TimeoutDuration() time.Duration {
	return time.Duration(wh.Timeout)
}
