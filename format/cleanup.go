package format

import (
	"regexp"
	"strconv"
	"strings"

	"tmsearch/trademark"
)

// Backfill patterns for unsplit scrape text, where several fields ended up
// concatenated in the mark string.
var (
	ownerPattern  = regexp.MustCompile(`Owner\s*:?\s*(.+?)\s*(?:Number|Nice|$)`)
	numberPattern = regexp.MustCompile(`Number\s*:?\s*(\d+)`)
	nicePattern   = regexp.MustCompile(`Nice class(?:es)?\s*:?\s*([\d,\s]+)`)
)

var knownCountries = []string{
	"United States", "European Union", "United Kingdom", "Germany", "France",
	"Italy", "Spain", "Switzerland", "Benelux", "Japan", "China",
	"South Korea", "Canada", "Australia",
}

// Clean deterministically maps a raw scrape to a canonical record. Structured
// fields win; anything missing is backfilled from the raw mark text. The
// returned record always has its full shape: strings possibly empty, nice
// classes possibly an empty list, never nil.
func Clean(raw trademark.RawResult) trademark.Record {
	rec := trademark.Record{
		Mark:             strings.TrimSpace(raw.Mark),
		Owner:            strings.TrimSpace(raw.Owner),
		Country:          strings.TrimSpace(raw.Country),
		RegistrationDate: strings.TrimSpace(raw.RegistrationDate),
		ImageURL:         raw.ImageURL,
		DetailsURL:       raw.DetailsURL,
		NiceClasses:      []int{},
	}

	// Unsplit text carries the owner label inside the mark.
	if idx := strings.Index(rec.Mark, "Owner"); idx >= 0 {
		rec.Mark = strings.TrimSpace(rec.Mark[:idx])
	}

	if rec.Owner == "" {
		if m := ownerPattern.FindStringSubmatch(raw.Mark); m != nil {
			rec.Owner = strings.TrimSpace(m[1])
		}
	}

	rec.ApplicationNumber = strings.TrimSpace(raw.ApplicationNumber)
	if rec.ApplicationNumber == "" {
		if m := numberPattern.FindStringSubmatch(raw.Mark); m != nil {
			rec.ApplicationNumber = m[1]
		}
	}

	if rec.Country == "" {
		for _, country := range knownCountries {
			if strings.Contains(raw.Mark, country) {
				rec.Country = country
				break
			}
		}
	}

	if raw.Status != "" {
		rec.Status = trademark.ParseStatus(raw.Status)
	} else if strings.Contains(raw.Mark, "Registered") {
		rec.Status = trademark.StatusRegistered
	} else {
		rec.Status = trademark.StatusUnknown
	}

	rec.NiceClasses = niceClassInts(raw.NiceClasses)
	if len(rec.NiceClasses) == 0 {
		if m := nicePattern.FindStringSubmatch(raw.Mark); m != nil {
			rec.NiceClasses = niceClassInts(strings.Split(m[1], ","))
		}
	}

	rec.FilingDate = rec.RegistrationDate

	return rec
}

// niceClassInts parses class tokens, dropping anything non-numeric. Never
// returns nil.
func niceClassInts(tokens []string) []int {
	classes := []int{}
	for _, token := range tokens {
		n, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			continue
		}
		classes = append(classes, n)
	}
	return classes
}
