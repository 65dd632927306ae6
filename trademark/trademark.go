package trademark

import (
	"fmt"
	"strings"
	"time"
)

type SearchType string

const (
	SearchTypeBrand  SearchType = "brand"
	SearchTypeOwner  SearchType = "owner"
	SearchTypeNumber SearchType = "number"
)

// SearchParameters describes one search invocation. Build it through
// NewParameters so defaults and bounds are applied once; treat it as
// read-only afterwards.
type SearchParameters struct {
	Query     string     `json:"query"`
	Type      SearchType `json:"type"`
	Country   string     `json:"country,omitempty"`
	NiceClass string     `json:"nice_class,omitempty"`
	Limit     int        `json:"limit"`
}

func NewParameters(query string, searchType, country, niceClass string, limit int) (SearchParameters, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchParameters{}, fmt.Errorf("query must not be empty")
	}

	st := SearchType(searchType)
	if searchType == "" {
		st = SearchTypeBrand
	}
	switch st {
	case SearchTypeBrand, SearchTypeOwner, SearchTypeNumber:
	default:
		return SearchParameters{}, fmt.Errorf("unsupported search type %q", searchType)
	}

	if limit == 0 {
		limit = 10
	}
	if limit < 1 || limit > 100 {
		return SearchParameters{}, fmt.Errorf("limit must be between 1 and 100, got %d", limit)
	}

	return SearchParameters{
		Query:     query,
		Type:      st,
		Country:   strings.TrimSpace(country),
		NiceClass: strings.TrimSpace(niceClass),
		Limit:     limit,
	}, nil
}

type Status string

const (
	StatusActive     Status = "Active"
	StatusRegistered Status = "Registered"
	StatusPending    Status = "Pending"
	StatusExpired    Status = "Expired"
	StatusCancelled  Status = "Cancelled"
	StatusUnknown    Status = "Unknown"
)

// ParseStatus maps free text scraped from a status cell to the enum.
func ParseStatus(text string) Status {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "registered"):
		return StatusRegistered
	case strings.Contains(lower, "active"):
		return StatusActive
	case strings.Contains(lower, "pending"), strings.Contains(lower, "filed"):
		return StatusPending
	case strings.Contains(lower, "expired"):
		return StatusExpired
	case strings.Contains(lower, "cancel"):
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// RawResult is a best-effort scrape of one result entry. Any field may be
// missing or malformed; a record is only worth keeping when it carries at
// least a mark or an owner.
type RawResult struct {
	Mark              string   `json:"mark"`
	Owner             string   `json:"owner"`
	ApplicationNumber string   `json:"application_number"`
	Country           string   `json:"country"`
	Status            string   `json:"status"`
	RegistrationDate  string   `json:"registration_date"`
	NiceClasses       []string `json:"nice_classes"`
	ImageURL          string   `json:"image_url"`
	DetailsURL        string   `json:"details_url"`
	RawText           string   `json:"raw_text,omitempty"`
}

func (r RawResult) Identifiable() bool {
	return strings.TrimSpace(r.Mark) != "" || strings.TrimSpace(r.Owner) != ""
}

// Record is the canonical trademark record. Every string field is populated
// (possibly empty) and NiceClasses is never nil.
type Record struct {
	ApplicationNumber  string  `json:"application_number"`
	RegistrationNumber string  `json:"registration_number,omitempty"`
	Mark               string  `json:"mark"`
	Owner              string  `json:"owner"`
	Country            string  `json:"country"`
	FilingDate         string  `json:"filing_date"`
	RegistrationDate   string  `json:"registration_date,omitempty"`
	ExpiryDate         string  `json:"expiry_date,omitempty"`
	Status             Status  `json:"status"`
	NiceClasses        []int   `json:"nice_classes"`
	GoodsServices      string  `json:"goods_services,omitempty"`
	ImageURL           string  `json:"image_url,omitempty"`
	DetailsURL         string  `json:"details_url,omitempty"`
	Relevance          float32 `json:"relevance"`
}

// Outcome is the final product of one search invocation. TotalResults counts
// records before the limit cap is applied.
type Outcome struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	TotalResults int       `json:"total_results"`
	Page         int       `json:"page"`
	Records      []Record  `json:"records"`
	ElapsedMs    int64     `json:"elapsed_ms"`
	CompletedAt  time.Time `json:"completed_at"`
}
