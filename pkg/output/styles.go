package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorMode selects when text output is styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color mode name. The empty string selects ColorAuto.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways:
		return ColorAlways, nil
	case ColorNever:
		return ColorNever, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (must be auto, always or never)", s)
	}
}

var (
	colorTitle  = lipgloss.Color("12")  // bright blue
	colorName   = lipgloss.Color("10")  // bright green
	colorBar    = lipgloss.Color("11")  // bright yellow
	colorDim    = lipgloss.Color("240") // gray
	colorWarn   = lipgloss.Color("9")   // bright red
	colorAccent = lipgloss.Color("13")  // bright magenta
)

// styles is the set of styles bound to one output writer.
type styles struct {
	title  lipgloss.Style
	name   lipgloss.Style
	bar    lipgloss.Style
	dim    lipgloss.Style
	warn   lipgloss.Style
	accent lipgloss.Style
}

func newStyles(w io.Writer, mode ColorMode) styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(colorProfile(w, mode))

	return styles{
		title:  r.NewStyle().Bold(true).Foreground(colorTitle),
		name:   r.NewStyle().Foreground(colorName),
		bar:    r.NewStyle().Foreground(colorBar),
		dim:    r.NewStyle().Foreground(colorDim),
		warn:   r.NewStyle().Bold(true).Foreground(colorWarn),
		accent: r.NewStyle().Foreground(colorAccent),
	}
}

func colorProfile(w io.Writer, mode ColorMode) termenv.Profile {
	switch mode {
	case ColorAlways:
		return termenv.ANSI256
	case ColorNever:
		return termenv.Ascii
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == "" {
		return termenv.ANSI256
	}
	return termenv.Ascii
}
