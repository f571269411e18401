package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// TrimMode selects which whitespace the Normalizer strips.
type TrimMode string

const (
	// TrimLeading strips leading whitespace only. Trailing content is kept so
	// continuation lines are reconstructed from the untouched remainder.
	TrimLeading TrimMode = "leading-only"

	// TrimBoth strips leading and trailing whitespace.
	TrimBoth TrimMode = "both"
)

// ParseTrimMode validates a trim mode name. The empty string selects TrimLeading.
func ParseTrimMode(s string) (TrimMode, error) {
	switch TrimMode(s) {
	case "", TrimLeading:
		return TrimLeading, nil
	case TrimBoth:
		return TrimBoth, nil
	default:
		return "", fmt.Errorf("invalid trim mode %q (must be leading-only or both)", s)
	}
}

// formatChars removes the invisible format characters chat exports sprinkle
// into lines. The narrow no-break space sits between a time and its AM/PM
// marker, so it becomes an ordinary space instead of disappearing.
var formatChars = strings.NewReplacer(
	"\ufeff", "",  // byte order mark
	"\u200e", "",  // left-to-right mark
	"\u202a", "",  // left-to-right embedding
	"\u202c", "",  // pop directional formatting
	"\u202f", " ", // narrow no-break space
)

// Normalizer cleans raw lines before header matching.
type Normalizer struct {
	mode TrimMode
}

// NewNormalizer creates a Normalizer with the given trim discipline.
func NewNormalizer(mode TrimMode) *Normalizer {
	if mode == "" {
		mode = TrimLeading
	}
	return &Normalizer{mode: mode}
}

// Mode returns the trim discipline in use.
func (n *Normalizer) Mode() TrimMode {
	return n.mode
}

// Normalize strips format characters and applies the trim discipline.
func (n *Normalizer) Normalize(line string) string {
	line = formatChars.Replace(line)
	if n.mode == TrimBoth {
		return strings.TrimSpace(line)
	}
	return strings.TrimLeftFunc(line, unicode.IsSpace)
}
