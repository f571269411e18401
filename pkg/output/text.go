package output

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/ccollicutt/chatsift/pkg/analyzer"
)

const (
	barWidth     = 30
	maxNameWidth = 24
	dateLayout   = "2006-01-02"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	st := newStyles(w, f.opts.Color)
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w, st)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	s := report.Summary
	fmt.Fprintf(w, "chatsift: %s messages from %d participants", humanize.Comma(int64(s.Messages)), s.Participants)
	if s.PeakHour != nil {
		fmt.Fprintf(w, ", peak hour %02d:00", *s.PeakHour)
	}
	fmt.Fprintln(w)
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer, st styles) error {
	s := &report.Summary

	// Header
	fmt.Fprintln(w, st.title.Render("=== Chat Analysis Report ==="))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Messages:     %s from %d participants\n", humanize.Comma(int64(s.Messages)), s.Participants)
	if md := report.Metadata; md.FirstDate != nil && md.LastDate != nil {
		fmt.Fprintf(w, "Period:       %s to %s\n", md.FirstDate.Format(dateLayout), md.LastDate.Format(dateLayout))
	}
	if s.PeakHour != nil {
		fmt.Fprintf(w, "Peak hour:    %02d:00\n", *s.PeakHour)
	}
	fmt.Fprintln(w)

	if len(s.TopSenders) > 0 {
		f.formatTopSenders(s.TopSenders, w, st)
	}
	if len(s.AverageLength) > 0 {
		f.formatAverageLength(s.AverageLength, w, st)
	}
	if s.HourlyTotal() > 0 {
		f.formatHourly(s, w, st)
	}
	if len(s.TopWords) > 0 {
		f.formatTopWords(s.TopWords, w, st)
	}

	if f.opts.Verbose {
		if len(s.Daily) > 0 {
			f.formatDaily(s.Daily, w, st)
		}
		f.formatStats(report, w, st)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %s messages, %d participants",
		humanize.Comma(int64(s.Messages)), s.Participants)
	if n := len(report.Metadata.Sources); n > 0 {
		fmt.Fprintf(w, ", %d source file(s)", n)
	}
	fmt.Fprintln(w)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatTopSenders(senders []analyzer.SenderCount, w io.Writer, st styles) {
	fmt.Fprintln(w, st.title.Render("Top senders"))
	names := make([]string, len(senders))
	most := 0
	for i, sc := range senders {
		names[i] = sc.Name
		if sc.Messages > most {
			most = sc.Messages
		}
	}
	width := nameWidth(names)
	for _, sc := range senders {
		fmt.Fprintf(w, "  %s  %s %s\n",
			st.name.Render(padName(sc.Name, width)),
			st.bar.Render(padBar(bar(sc.Messages, most))),
			humanize.Comma(int64(sc.Messages)))
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatAverageLength(lengths []analyzer.SenderLength, w io.Writer, st styles) {
	fmt.Fprintln(w, st.title.Render("Average message length"))
	names := make([]string, len(lengths))
	most := 0.0
	for i, sl := range lengths {
		names[i] = sl.Name
		if sl.Average > most {
			most = sl.Average
		}
	}
	width := nameWidth(names)
	for _, sl := range lengths {
		n := 0
		if most > 0 {
			n = int(sl.Average / most * barWidth)
		}
		fmt.Fprintf(w, "  %s  %s %.1f chars\n",
			st.name.Render(padName(sl.Name, width)),
			st.bar.Render(padBar(strings.Repeat("#", n))),
			sl.Average)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatHourly(s *analyzer.Summary, w io.Writer, st styles) {
	fmt.Fprintln(w, st.title.Render("Activity by hour of day"))
	most := 0
	for _, n := range s.Hourly {
		if n > most {
			most = n
		}
	}
	for h, n := range s.Hourly {
		label := fmt.Sprintf("%02d", h)
		if s.PeakHour != nil && *s.PeakHour == h {
			label = st.accent.Render(label)
		}
		fmt.Fprintf(w, "  %s  %s %s\n", label, st.bar.Render(padBar(bar(n, most))), st.dim.Render(humanize.Comma(int64(n))))
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatTopWords(words []analyzer.SenderWords, w io.Writer, st styles) {
	fmt.Fprintln(w, st.title.Render("Top words per sender"))
	names := make([]string, len(words))
	for i, sw := range words {
		names[i] = sw.Name
	}
	width := nameWidth(names)
	for _, sw := range words {
		parts := make([]string, len(sw.Words))
		for i, wc := range sw.Words {
			parts[i] = fmt.Sprintf("%s (%d)", wc.Word, wc.Count)
		}
		list := strings.Join(parts, ", ")
		if list == "" {
			list = st.dim.Render("no words")
		}
		fmt.Fprintf(w, "  %s  %s\n", st.name.Render(padName(sw.Name, width)), list)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatDaily(days []analyzer.DayCount, w io.Writer, st styles) {
	fmt.Fprintln(w, st.title.Render("Messages per day"))
	most := 0
	for _, d := range days {
		if d.Messages > most {
			most = d.Messages
		}
	}
	for _, d := range days {
		fmt.Fprintf(w, "  %s  %s %s\n", d.Date.Format(dateLayout), st.bar.Render(padBar(bar(d.Messages, most))), humanize.Comma(int64(d.Messages)))
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatStats(report *Report, w io.Writer, st styles) {
	ps := report.Stats
	fmt.Fprintln(w, st.title.Render("Parse statistics"))
	fmt.Fprintf(w, "  Lines read:     %s\n", humanize.Comma(int64(ps.Lines)))
	fmt.Fprintf(w, "  Headers:        %s\n", humanize.Comma(int64(ps.Headers)))
	fmt.Fprintf(w, "  Continuations:  %s\n", humanize.Comma(int64(ps.Continuations)))
	dropped := humanize.Comma(int64(ps.Dropped))
	if ps.Dropped > 0 {
		dropped = st.warn.Render(dropped)
	}
	fmt.Fprintf(w, "  Dropped:        %s\n", dropped)

	names := make([]string, 0, len(ps.Formats))
	for name := range ps.Formats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  Format %-8s %s\n", name+":", humanize.Comma(int64(ps.Formats[name])))
	}
	if report.Metadata.ConfigFile != "" {
		fmt.Fprintf(w, "  Config:         %s\n", report.Metadata.ConfigFile)
	}
	fmt.Fprintln(w)
}

func bar(n, most int) string {
	if most <= 0 || n <= 0 {
		return ""
	}
	width := n * barWidth / most
	if width == 0 {
		width = 1
	}
	return strings.Repeat("#", width)
}

func padBar(b string) string {
	return b + strings.Repeat(" ", barWidth-len(b))
}

// nameWidth is the display width of the widest name, capped at maxNameWidth.
func nameWidth(names []string) int {
	width := 0
	for _, n := range names {
		if w := runewidth.StringWidth(n); w > width {
			width = w
		}
	}
	if width > maxNameWidth {
		width = maxNameWidth
	}
	return width
}

func padName(name string, width int) string {
	if runewidth.StringWidth(name) > width {
		name = runewidth.Truncate(name, width, "…")
	}
	return runewidth.FillRight(name, width)
}
