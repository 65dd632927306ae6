package relevance

import (
	"strings"

	"github.com/kljensen/snowball"

	"tmsearch/trademark"
)

// Scorer measures how much of the query survives in a record's mark and
// owner text, on stemmed tokens. Scoring is annotation only; it never filters
// and never fails a search.
type Scorer struct {
	terms []string
}

func NewScorer(query string) *Scorer {
	var terms []string
	for _, word := range tokenize(query) {
		terms = append(terms, stemWord(word))
	}
	return &Scorer{terms: terms}
}

// Score returns the fraction of query terms found in text, 0..1.
func (s *Scorer) Score(text string) float32 {
	if len(s.terms) == 0 || text == "" {
		return 0
	}

	seen := make(map[string]struct{})
	for _, word := range tokenize(text) {
		seen[stemWord(word)] = struct{}{}
	}

	found := 0
	for _, term := range s.terms {
		if _, ok := seen[term]; ok {
			found++
		}
	}
	return float32(found) / float32(len(s.terms))
}

// ScoreRecords annotates each record with its relevance to the query.
func (s *Scorer) ScoreRecords(records []trademark.Record) {
	for i := range records {
		records[i].Relevance = s.Score(records[i].Mark + " " + records[i].Owner)
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

func stemWord(word string) string {
	stem, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stem
}
