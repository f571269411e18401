// Package table holds parsed messages as ordered rows with typed columns
// derived from the raw header strings.
package table

import (
	"context"
	"io"
	"time"
	"unicode/utf8"

	"github.com/ccollicutt/chatsift/pkg/parser"
)

// Columns are the core column names, in order.
var Columns = []string{"Date", "Time", "Name", "Message"}

// Row is one message plus its derived columns.
type Row struct {
	parser.Message

	// ParsedDate is the coerced header date, nil when it could not be parsed.
	ParsedDate *time.Time `json:"parsed_date,omitempty"`

	// Hour is the hour of day (0-23), nil when the time could not be parsed.
	Hour *int `json:"hour,omitempty"`

	// Length is the body length in characters.
	Length int `json:"length"`
}

// Name is the sender column.
func (r *Row) Name() string {
	return r.Sender
}

// Values returns the core columns in Columns order.
func (r *Row) Values() []string {
	f := r.Fields()
	return f[:]
}

// Table is an ordered sequence of rows. Row order is input order.
type Table struct {
	Rows  []Row
	Order parser.DateOrder
}

// NewRow derives the typed columns for a message. Coercion failures leave
// the derived column nil and never drop the row.
func NewRow(m parser.Message, order parser.DateOrder) Row {
	row := Row{
		Message: m,
		Length:  utf8.RuneCountInString(m.Body),
	}
	if d, err := parser.ParseDate(m.Date, order); err == nil {
		row.ParsedDate = &d
	}
	if c, err := parser.ParseClock(m.Time); err == nil {
		h := c.Hour()
		row.Hour = &h
	}
	return row
}

// Build turns closed messages into a table. Zero messages is a valid,
// empty table.
func Build(msgs []parser.Message, order parser.DateOrder) *Table {
	t := &Table{
		Rows:  make([]Row, 0, len(msgs)),
		Order: order,
	}
	for _, m := range msgs {
		t.Append(m)
	}
	return t
}

// FromSource drains src into a table.
func FromSource(ctx context.Context, src parser.MessageSource, order parser.DateOrder) (*Table, error) {
	t := &Table{Order: order}
	for {
		m, err := src.Next(ctx)
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		t.Append(*m)
	}
}

// Append adds a message as the last row.
func (t *Table) Append(m parser.Message) {
	t.Rows = append(t.Rows, NewRow(m, t.Order))
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Messages returns the core message of every row.
func (t *Table) Messages() []parser.Message {
	out := make([]parser.Message, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Rows[i].Message
	}
	return out
}

// Senders returns the distinct senders in order of first appearance.
func (t *Table) Senders() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range t.Rows {
		s := t.Rows[i].Sender
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Filter returns a new table with the rows keep accepts.
func (t *Table) Filter(keep func(*Row) bool) *Table {
	out := &Table{Order: t.Order}
	for i := range t.Rows {
		if keep(&t.Rows[i]) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// DateRange returns the first and last parsed dates. ok is false when no
// row has a parsed date.
func (t *Table) DateRange() (first, last time.Time, ok bool) {
	for i := range t.Rows {
		d := t.Rows[i].ParsedDate
		if d == nil {
			continue
		}
		if !ok || d.Before(first) {
			first = *d
		}
		if !ok || d.After(last) {
			last = *d
		}
		ok = true
	}
	return first, last, ok
}
