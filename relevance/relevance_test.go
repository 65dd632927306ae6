package relevance

import (
	"testing"

	"tmsearch/trademark"
)

func TestScore(t *testing.T) {
	testCases := []struct {
		name  string
		query string
		text  string
		want  float32
	}{
		{"ExactMatch", "nike", "NIKE", 1.0},
		{"StemmedMatch", "running shoes", "RUNNER'S SHOE by Acme", 0.5},
		{"Disjoint", "grape orange", "NIKE Nike, Inc.", 0.0},
		{"PartialTerms", "nike air", "NIKE Nike, Inc.", 0.5},
		{"EmptyText", "nike", "", 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewScorer(tc.query).Score(tc.text)
			if got != tc.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tc.query, tc.text, got, tc.want)
			}
		})
	}
}

func TestScoreRecords(t *testing.T) {
	records := []trademark.Record{
		{Mark: "NIKE", Owner: "Nike, Inc."},
		{Mark: "ADIDAS", Owner: "adidas AG"},
	}
	NewScorer("nike").ScoreRecords(records)

	if records[0].Relevance != 1.0 {
		t.Errorf("expected full relevance for matching mark, got %v", records[0].Relevance)
	}
	if records[1].Relevance != 0.0 {
		t.Errorf("expected zero relevance for unrelated mark, got %v", records[1].Relevance)
	}
}
