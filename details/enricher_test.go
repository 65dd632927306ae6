package details

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"tmsearch/trademark"
)

func TestAbsoluteResolvesAgainstBase(t *testing.T) {
	e := NewEnricher(zap.NewNop(), "ua", "https://branddb.wipo.int/en/quicksearch", time.Second)

	testCases := []struct {
		name    string
		details string
		want    string
	}{
		{"Relative", "/en/trademark/1234567", "https://branddb.wipo.int/en/trademark/1234567"},
		{"Absolute", "https://other.test/tm/1", "https://other.test/tm/1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.absolute(tc.details); got != tc.want {
				t.Errorf("absolute(%q) = %q, want %q", tc.details, got, tc.want)
			}
		})
	}
}

func TestClip(t *testing.T) {
	long := strings.Repeat("x", goodsServicesLimit+50)
	if got := clip(long); len(got) != goodsServicesLimit {
		t.Errorf("expected clip to %d chars, got %d", goodsServicesLimit, len(got))
	}
	if got := clip("short"); got != "short" {
		t.Errorf("short text must pass through, got %q", got)
	}
}

func TestEnrichSkipsRecordsWithoutDetailsURL(t *testing.T) {
	e := NewEnricher(zap.NewNop(), "ua", "https://branddb.wipo.int", time.Second)
	records := []trademark.Record{
		{Mark: "NIKE"},
		{Mark: "ACME", GoodsServices: "already here", DetailsURL: "https://127.0.0.1:1/nope"},
	}
	e.Enrich(records)

	if records[0].GoodsServices != "" {
		t.Error("record without details URL must stay untouched")
	}
	if records[1].GoodsServices != "already here" {
		t.Error("existing goods/services must not be overwritten")
	}
}
