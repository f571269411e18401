// Package config provides configuration loading and validation for chatsift.
package config

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ccollicutt/chatsift/pkg/parser"
)

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	Inputs   []string        `yaml:"inputs" toml:"inputs"`
	Parser   ParserConfig    `yaml:"parser" toml:"parser"`
	Dates    DatesConfig     `yaml:"dates" toml:"dates"`
	Stats    StatsConfig     `yaml:"stats" toml:"stats"`
	Store    StoreConfig     `yaml:"store" toml:"store"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" toml:"webhooks,omitempty"`
}

// ParserConfig controls how export lines become messages.
type ParserConfig struct {
	// Trim is leading-only or both.
	Trim string `yaml:"trim" toml:"trim"`

	// EmptyContinuation is space or skip.
	EmptyContinuation string `yaml:"empty_continuation" toml:"empty_continuation"`

	// MaxLineSize is a human size such as "1MB".
	MaxLineSize SizeBytes `yaml:"max_line_size" toml:"max_line_size"`

	// Formats are extra header patterns tried after the built-in dialects.
	Formats []FormatConfig `yaml:"formats,omitempty" toml:"formats,omitempty"`

	compiled []*parser.Format
}

// FormatConfig is a user-supplied header pattern. The pattern must declare
// the named groups date, time, sender and body.
type FormatConfig struct {
	Name    string `yaml:"name" toml:"name"`
	Pattern string `yaml:"pattern" toml:"pattern"`
}

// DatesConfig controls date coercion.
type DatesConfig struct {
	// Order is day-first or month-first.
	Order string `yaml:"order" toml:"order"`
}

// StatsConfig holds analyzer defaults.
type StatsConfig struct {
	Top            int      `yaml:"top" toml:"top"`
	WordsPerSender int      `yaml:"words_per_sender" toml:"words_per_sender"`
	MinWordLength  int      `yaml:"min_word_length" toml:"min_word_length"`
	StopWords      []string `yaml:"stop_words,omitempty" toml:"stop_words,omitempty"`
}

// StoreConfig locates the SQLite message store.
type StoreConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// SizeBytes is a byte count written as a human size ("512KB", "4MB") or a
// plain number.
type SizeBytes int

// UnmarshalText implements encoding.TextUnmarshaler for YAML and TOML.
func (s *SizeBytes) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(string(text))
	if err != nil {
		return err
	}
	*s = SizeBytes(n)
	return nil
}

// String formats the size the way it is usually written in config.
func (s SizeBytes) String() string {
	return humanize.Bytes(uint64(s))
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnMessages fires only when at least one message was parsed (default).
	WebhookTriggerOnMessages WebhookTrigger = "on_messages"
	// WebhookTriggerAlways fires after every stats run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending stats reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" toml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_messages" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Duration accepts Go duration strings ("10s", "1m30s") in both YAML and TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
