package retrieval

import (
	"context"
	"strings"
	"unicode"
)

// Chunk is one passage of a material returned by a search.
type Chunk struct {
	ChunkID string  `json:"chunk_id"`
	Content string  `json:"content"`
	Page    *int    `json:"page"`
	Score   float64 `json:"score"`
}

// Nop finds nothing. It stands in when no search index is configured.
type Nop struct{}

func (Nop) Search(context.Context, string, int64, *int64, int) ([]Chunk, error) {
	return []Chunk{}, nil
}

const maxQueryTerms = 16

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "what": {}, "why": {},
	"how": {}, "who": {}, "when": {}, "where": {}, "which": {}, "does": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "into": {}, "about": {},
	"can": {}, "you": {}, "your": {}, "there": {}, "their": {}, "its": {},
}

// Terms splits a query into lowercase search terms, dropping short words
// and common stopwords. Order is preserved and duplicates removed.
func Terms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
		if len(out) == maxQueryTerms {
			break
		}
	}
	return out
}

// Overlap is the fraction of terms that occur in content.
func Overlap(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
