package trademark

import (
	"testing"
)

func TestNewParameters(t *testing.T) {
	testCases := []struct {
		name       string
		query      string
		searchType string
		limit      int
		wantErr    bool
		wantType   SearchType
		wantLimit  int
	}{
		{"Defaults", "NIKE", "", 0, false, SearchTypeBrand, 10},
		{"ExplicitOwner", "Nike, Inc.", "owner", 25, false, SearchTypeOwner, 25},
		{"EmptyQuery", "   ", "brand", 10, true, "", 0},
		{"BadType", "NIKE", "image", 10, true, "", 0},
		{"LimitTooHigh", "NIKE", "brand", 101, true, "", 0},
		{"LimitTooLow", "NIKE", "brand", -1, true, "", 0},
		{"LimitUpperBound", "NIKE", "number", 100, false, SearchTypeNumber, 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params, err := NewParameters(tc.query, tc.searchType, "", "", tc.limit)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", params)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if params.Type != tc.wantType {
				t.Errorf("expected type %q, got %q", tc.wantType, params.Type)
			}
			if params.Limit != tc.wantLimit {
				t.Errorf("expected limit %d, got %d", tc.wantLimit, params.Limit)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		text string
		want Status
	}{
		{"Registered (2020-01-15)", StatusRegistered},
		{"active", StatusActive},
		{"Application pending", StatusPending},
		{"Filed", StatusPending},
		{"EXPIRED", StatusExpired},
		{"Cancellation proceeding", StatusCancelled},
		{"", StatusUnknown},
		{"something else", StatusUnknown},
	}

	for _, tc := range testCases {
		if got := ParseStatus(tc.text); got != tc.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestRawResultIdentifiable(t *testing.T) {
	if (RawResult{}).Identifiable() {
		t.Error("empty raw result should not be identifiable")
	}
	if !(RawResult{Mark: "NIKE"}).Identifiable() {
		t.Error("raw result with mark should be identifiable")
	}
	if !(RawResult{Owner: "Nike, Inc."}).Identifiable() {
		t.Error("raw result with owner should be identifiable")
	}
	if (RawResult{Mark: "  "}).Identifiable() {
		t.Error("whitespace-only mark should not be identifiable")
	}
}
