package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/ccollicutt/chatsift/pkg/store"
)

// SearchWriter lists full-text search hits.
type SearchWriter struct {
	format MessageFormat
	color  ColorMode
}

// NewSearchWriter creates a SearchWriter. Only the text and json formats apply.
func NewSearchWriter(format MessageFormat, color ColorMode) (*SearchWriter, error) {
	if format == MessagesCSV {
		return nil, fmt.Errorf("search results cannot be written as %s", format)
	}
	return &SearchWriter{format: format, color: color}, nil
}

// Write lists results to w, one tab-separated line per hit in text form:
// import id, source:line, date and time, sender, snippet.
func (sw *SearchWriter) Write(w io.Writer, results []store.SearchResult) error {
	if sw.format == MessagesJSON {
		if results == nil {
			results = []store.SearchResult{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	st := newStyles(w, sw.color)
	plain := colorProfile(w, sw.color) == termenv.Ascii
	for _, r := range results {
		snippet := strings.NewReplacer("\t", " ", "\n", " ").Replace(r.Snippet)
		snippet = highlight(snippet, st, plain)
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ImportID,
			st.dim.Render(fmt.Sprintf("%s:%d", r.Source, r.Line)),
			st.dim.Render(r.Date+", "+r.Time),
			st.name.Render(r.Sender),
			snippet,
		); err != nil {
			return err
		}
	}
	return nil
}

// highlight replaces the store's match markers with styling, or with
// brackets when output is not colored.
func highlight(snippet string, st styles, plain bool) string {
	if plain {
		return strings.NewReplacer(store.MatchStart, "[", store.MatchEnd, "]").Replace(snippet)
	}
	var b strings.Builder
	for {
		i := strings.Index(snippet, store.MatchStart)
		if i < 0 {
			break
		}
		j := strings.Index(snippet[i:], store.MatchEnd)
		if j < 0 {
			break
		}
		b.WriteString(snippet[:i])
		b.WriteString(st.warn.Render(snippet[i+len(store.MatchStart) : i+j]))
		snippet = snippet[i+j+len(store.MatchEnd):]
	}
	b.WriteString(snippet)
	return b.String()
}
