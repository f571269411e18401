package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ccollicutt/chatsift/pkg/table"
)

// DefaultMinWordLength is the shortest word counted.
const DefaultMinWordLength = 3

// DefaultStopWords are ignored by the word frequency engine. The list
// includes export placeholders ("media omitted") and common Nigerian
// Pidgin fillers.
var DefaultStopWords = []string{
	"the", "and", "for", "that", "this", "with", "you", "your", "are", "was", "have",
	"has", "but", "not", "from", "they", "their", "will",
	"media", "omitted", "dey", "una", "don", "wan", "sef", "make", "message", "sha", "say", "see",
}

// WordsEngine finds the most used words of each top sender. Words are
// ASCII letter runs, lowercased, with stop words removed.
type WordsEngine struct {
	topN      int
	perSender int
	stopWords map[string]bool
	wordRe    *regexp.Regexp

	words    map[string]map[string]int
	messages map[string]int
}

// NewWordsEngine creates a word frequency engine covering the topN senders
// with perSender words each.
func NewWordsEngine(topN, perSender, minLength int, stopWords []string) *WordsEngine {
	if minLength < 1 {
		minLength = DefaultMinWordLength
	}
	stop := make(map[string]bool, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = true
	}
	return &WordsEngine{
		topN:      topN,
		perSender: perSender,
		stopWords: stop,
		wordRe:    regexp.MustCompile(fmt.Sprintf(`\b[a-zA-Z]{%d,}\b`, minLength)),
		words:     make(map[string]map[string]int),
		messages:  make(map[string]int),
	}
}

// Name returns the engine name.
func (e *WordsEngine) Name() string {
	return string(EngineWords)
}

// Type returns the engine type.
func (e *WordsEngine) Type() EngineType {
	return EngineWords
}

// Tokens splits text into counted words.
func (e *WordsEngine) Tokens(text string) []string {
	var out []string
	for _, w := range e.wordRe.FindAllString(strings.ToLower(text), -1) {
		if !e.stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// Process counts the words of one row.
func (e *WordsEngine) Process(ctx context.Context, row *table.Row) error {
	e.messages[row.Sender]++
	counts, ok := e.words[row.Sender]
	if !ok {
		counts = make(map[string]int)
		e.words[row.Sender] = counts
	}
	for _, w := range e.Tokens(row.Body) {
		counts[w]++
	}
	return nil
}

// Finalize fills TopWords for the senders in TopSenders, or for its own
// ranking when the senders engine did not run.
func (e *WordsEngine) Finalize(ctx context.Context, s *Summary) error {
	senders := s.TopSenders
	if len(senders) == 0 {
		senders = e.rankSenders()
	}

	s.TopWords = make([]SenderWords, 0, len(senders))
	for _, sc := range senders {
		s.TopWords = append(s.TopWords, SenderWords{
			Name:  sc.Name,
			Words: e.topWords(sc.Name),
		})
	}
	return nil
}

func (e *WordsEngine) rankSenders() []SenderCount {
	ranked := make([]SenderCount, 0, len(e.messages))
	for name, n := range e.messages {
		ranked = append(ranked, SenderCount{Name: name, Messages: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Messages != ranked[j].Messages {
			return ranked[i].Messages > ranked[j].Messages
		}
		return ranked[i].Name < ranked[j].Name
	})
	return truncate(ranked, e.topN)
}

func (e *WordsEngine) topWords(sender string) []WordCount {
	counts := e.words[sender]
	words := make([]WordCount, 0, len(counts))
	for w, n := range counts {
		words = append(words, WordCount{Word: w, Count: n})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	return truncate(words, e.perSender)
}

// Reset clears counts.
func (e *WordsEngine) Reset() {
	e.words = make(map[string]map[string]int)
	e.messages = make(map[string]int)
}
