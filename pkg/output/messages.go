package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ccollicutt/chatsift/pkg/table"
)

// CSVHeader is the header row of the CSV export.
var CSVHeader = []string{"Date", "Time", "Name", "Message", "Length of Message", "Hour"}

// MessageFormat selects how parsed rows are listed.
type MessageFormat string

const (
	MessagesText MessageFormat = "text"
	MessagesJSON MessageFormat = "json"
	MessagesCSV  MessageFormat = "csv"
)

// ParseMessageFormat validates a listing format name. The empty string selects text.
func ParseMessageFormat(s string) (MessageFormat, error) {
	switch MessageFormat(s) {
	case "", MessagesText:
		return MessagesText, nil
	case MessagesJSON:
		return MessagesJSON, nil
	case MessagesCSV:
		return MessagesCSV, nil
	default:
		return "", fmt.Errorf("unknown message format %q (must be text, json or csv)", s)
	}
}

// MessageWriter lists parsed rows.
type MessageWriter struct {
	format  MessageFormat
	verbose bool
	color   ColorMode
}

// NewMessageWriter creates a MessageWriter. Verbose text listings add the
// source file and line of each message.
func NewMessageWriter(format MessageFormat, verbose bool, color ColorMode) *MessageWriter {
	return &MessageWriter{format: format, verbose: verbose, color: color}
}

// Write lists the rows to w.
func (mw *MessageWriter) Write(w io.Writer, rows []table.Row) error {
	switch mw.format {
	case MessagesJSON:
		return writeJSONRows(w, rows)
	case MessagesCSV:
		return WriteCSV(w, rows)
	default:
		return mw.writeText(w, rows)
	}
}

// writeText emits one line per message in the dash export form, so the
// listing parses back to the same fields.
func (mw *MessageWriter) writeText(w io.Writer, rows []table.Row) error {
	st := newStyles(w, mw.color)
	for i := range rows {
		r := &rows[i]
		if mw.verbose && r.Source != "" {
			fmt.Fprint(w, st.dim.Render(fmt.Sprintf("%s:%d ", r.Source, r.Line)))
		}
		if _, err := fmt.Fprintf(w, "%s, %s - %s: %s\n", r.Message.Date, r.Time, st.name.Render(r.Sender), r.Body); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONRows(w io.Writer, rows []table.Row) error {
	if rows == nil {
		rows = []table.Row{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

// WriteCSV writes the rows as CSV with CSVHeader. Date and Time are written
// as they appeared in the export; Hour is empty when the time could not be
// parsed.
func WriteCSV(w io.Writer, rows []table.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		hour := ""
		if r.Hour != nil {
			hour = strconv.Itoa(*r.Hour)
		}
		record := []string{r.Message.Date, r.Time, r.Sender, r.Body, strconv.Itoa(r.Length), hour}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
