package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

// DefaultSearchLimit caps results when SearchOptions.Limit is unset.
const DefaultSearchLimit = 20

// Snippet markers around matched terms.
const (
	MatchStart = ">>>"
	MatchEnd   = "<<<"
)

// SearchOptions narrows a full-text search.
type SearchOptions struct {
	Query    string
	Sender   string
	ImportID string
	Limit    int
}

// SearchResult is one matching message.
type SearchResult struct {
	ImportID string  `json:"import_id"`
	Source   string  `json:"source"`
	Line     int     `json:"line"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Sender   string  `json:"sender"`
	Snippet  string  `json:"snippet"`
	Rank     float64 `json:"rank"`
}

// Search finds stored messages whose body matches the query. Queries with
// CJK text fall back to a substring scan since unicode61 does not segment it.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}

	if containsCJK(query) {
		return s.searchLike(ctx, query, opts)
	}
	return s.searchFTS(ctx, query, opts)
}

func (s *Store) searchFTS(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	sqlQuery := `
		SELECT m.import_id, m.source, m.line, m.date, m.time, m.sender,
		       snippet(messages_fts, 0, '>>>', '<<<', '...', 16),
		       bm25(messages_fts) AS rank
		FROM messages_fts
		JOIN messages m ON m.rowid = messages_fts.rowid
		WHERE messages_fts MATCH ?`
	args := []interface{}{ftsQuery(query)}
	sqlQuery, args = appendFilters(sqlQuery, args, opts)
	sqlQuery += " ORDER BY rank LIMIT ?"
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func (s *Store) searchLike(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	sqlQuery := `
		SELECT m.import_id, m.source, m.line, m.date, m.time, m.sender, m.body, 0.0
		FROM messages m
		WHERE m.body LIKE ?`
	args := []interface{}{"%" + query + "%"}
	sqlQuery, args = appendFilters(sqlQuery, args, opts)
	sqlQuery += " ORDER BY m.import_id, m.seq LIMIT ?"
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("like search: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Snippet = makeSnippet(results[i].Snippet, query, 16)
	}
	return results, nil
}

func appendFilters(q string, args []interface{}, opts SearchOptions) (string, []interface{}) {
	if opts.Sender != "" {
		q += " AND m.sender = ?"
		args = append(args, opts.Sender)
	}
	if opts.ImportID != "" {
		q += " AND m.import_id = ?"
		args = append(args, opts.ImportID)
	}
	return q, args
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ImportID, &r.Source, &r.Line, &r.Date, &r.Time, &r.Sender, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuery quotes each term so punctuation in chat text is not read as
// FTS5 query syntax. Terms are ANDed.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// makeSnippet cuts a window of runes around the first match and marks it.
func makeSnippet(body, query string, radius int) string {
	runes := []rune(body)
	q := []rune(query)
	idx := strings.Index(body, query)
	if idx < 0 {
		if len(runes) > radius*2 {
			return string(runes[:radius*2]) + "..."
		}
		return body
	}
	start := len([]rune(body[:idx]))
	end := start + len(q)

	from := start - radius
	prefix := "..."
	if from <= 0 {
		from = 0
		prefix = ""
	}
	to := end + radius
	suffix := "..."
	if to >= len(runes) {
		to = len(runes)
		suffix = ""
	}

	return prefix + string(runes[from:start]) + MatchStart + string(runes[start:end]) + MatchEnd + string(runes[end:to]) + suffix
}
