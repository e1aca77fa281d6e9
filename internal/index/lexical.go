package index

import (
	"sort"
	"strings"
)

// Stop words excluded from lexical scoring
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenize splits text into lowercased words, trims punctuation and
// removes stop words.
func tokenize(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// lexEntry is one indexed document's term statistics
type lexEntry struct {
	id     string
	freq   map[string]int
	length int
}

// Lexical ranks documents by keyword-frequency match against a query.
// No semantic understanding, no external backend; it is rebuilt from
// scratch for every request.
type Lexical struct {
	entries []lexEntry
}

// NewLexical builds a lexical index over ids and texts. The two slices
// are parallel.
func NewLexical(ids []string, texts []string) *Lexical {
	entries := make([]lexEntry, 0, len(ids))
	for i, id := range ids {
		tokens := tokenize(texts[i])
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		entries = append(entries, lexEntry{id: id, freq: freq, length: len(tokens)})
	}
	return &Lexical{entries: entries}
}

// Scored pairs a document id with a relevance score
type Scored struct {
	ID    string
	Score float64
}

// Search returns the top k documents by term-frequency score. Documents
// with no matching term are excluded. Ties keep index insertion order.
func (l *Lexical) Search(query string, k int) []Scored {
	terms := tokenize(query)
	if len(terms) == 0 || k <= 0 {
		return nil
	}

	scored := make([]Scored, 0, len(l.entries))
	for _, entry := range l.entries {
		if entry.length == 0 {
			continue
		}
		matches := 0
		for _, term := range terms {
			matches += entry.freq[term]
		}
		if matches == 0 {
			continue
		}
		// Normalize by document length so long documents do not dominate
		scored = append(scored, Scored{ID: entry.id, Score: float64(matches) / float64(entry.length)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
