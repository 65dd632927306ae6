package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"tmsearch/browser"
	"tmsearch/trademark"
)

// Result entries on the target page are anchored by per-row checkboxes whose
// ancestor blocks carry label/value text. The heuristic is coupled to those
// labels and nothing else about the markup.
var fieldLabels = map[string]string{
	"owner":             "owner",
	"nice class":        "nice",
	"country of filing": "country",
	"status":            "status",
	"number":            "number",
	"ipr":               "ipr", // recognized only so its value line is skipped
}

var parenDatePattern = regexp.MustCompile(`\(([^)]+)\)`)

const fallbackTextLimit = 300

type Result struct {
	Success bool
	Results []trademark.RawResult
	Detail  string
}

type Extractor struct {
	logger   *zap.Logger
	sentinel string
}

// NewExtractor builds an extractor for one query. The first query token seeds
// the low-fidelity fallback scan.
func NewExtractor(logger *zap.Logger, query string) *Extractor {
	sentinel := ""
	if fields := strings.Fields(query); len(fields) > 0 {
		sentinel = fields[0]
	}
	return &Extractor{logger: logger, sentinel: sentinel}
}

// Extract snapshots the rendered page and scans it. Total inability to read
// the page reports a failure result; it never panics outward.
func (e *Extractor) Extract(sess *browser.Session) Result {
	pageHTML, err := sess.OuterHTML(30 * time.Second)
	if err != nil {
		e.logger.Error("failed to snapshot page", zap.Error(err))
		return Result{Success: false, Results: []trademark.RawResult{}, Detail: fmt.Sprintf("page evaluation failed: %v", err)}
	}

	results, err := e.FromHTML(pageHTML)
	if err != nil {
		e.logger.Error("failed to parse page", zap.Error(err))
		return Result{Success: false, Results: []trademark.RawResult{}, Detail: fmt.Sprintf("page parse failed: %v", err)}
	}

	e.logger.Info("extraction finished", zap.Int("results", len(results)))
	return Result{Success: true, Results: results, Detail: fmt.Sprintf("%d raw results", len(results))}
}

// FromHTML runs the heuristic over a rendered document. The primary strategy
// walks checkbox ancestors; the fallback only fires when the primary yields
// nothing.
func (e *Extractor) FromHTML(pageHTML string) ([]trademark.RawResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}

	results := e.primaryScan(doc)
	if len(results) > 0 {
		return results, nil
	}
	e.logger.Warn("primary extraction found nothing, trying fallback scan")
	return e.fallbackScan(doc), nil
}

func (e *Extractor) primaryScan(doc *goquery.Document) []trademark.RawResult {
	var results []trademark.RawResult
	seen := make(map[*html.Node]struct{})

	doc.Find(`input[type="checkbox"]`).Each(func(_ int, box *goquery.Selection) {
		if isSelectAll(box) {
			return
		}
		container := resultContainer(box)
		if container == nil {
			return
		}
		node := container.Get(0)
		if _, dup := seen[node]; dup {
			return
		}
		seen[node] = struct{}{}

		raw := parseContainer(container)
		if raw.Identifiable() {
			results = append(results, raw)
		}
	})

	return results
}

// resultContainer climbs the checkbox's ancestor chain until the surrounding
// text looks like one result entry.
func resultContainer(box *goquery.Selection) *goquery.Selection {
	for parent := box.Parent(); parent.Length() > 0; parent = parent.Parent() {
		text := parent.Text()
		if strings.Contains(text, "Owner") || strings.Contains(text, "Nice class") {
			return parent
		}
	}
	return nil
}

func isSelectAll(box *goquery.Selection) bool {
	for _, attr := range []string{"id", "name", "aria-label", "title", "class"} {
		value, _ := box.Attr(attr)
		value = strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(value, "-", ""), " ", ""))
		if strings.Contains(value, "selectall") {
			return true
		}
	}
	return false
}

func parseContainer(container *goquery.Selection) trademark.RawResult {
	var raw trademark.RawResult

	lines := textLines(container.Get(0))
	for i := 0; i < len(lines); {
		label := strings.ToLower(strings.TrimSuffix(lines[i], ":"))
		field, recognized := fieldLabels[label]
		if !recognized || i+1 >= len(lines) {
			i++
			continue
		}
		value := lines[i+1]
		switch field {
		case "owner":
			raw.Owner = value
		case "nice":
			raw.NiceClasses = splitNiceTokens(value)
		case "country":
			raw.Country = value
		case "status":
			raw.Status = value
			if strings.Contains(value, "Registered") {
				raw.Status = "Registered"
				if m := parenDatePattern.FindStringSubmatch(value); m != nil {
					raw.RegistrationDate = strings.TrimSpace(m[1])
				}
			}
		case "number":
			raw.ApplicationNumber = value
		case "ipr":
			// skipped, value line consumed
		}
		i += 2
	}

	if link := container.Find("a").First(); link.Length() > 0 {
		raw.Mark = strings.TrimSpace(link.Text())
		raw.DetailsURL, _ = link.Attr("href")
	}
	if raw.Mark == "" && len(lines) > 0 {
		first := strings.ToLower(strings.TrimSuffix(lines[0], ":"))
		if _, isLabel := fieldLabels[first]; !isLabel {
			raw.Mark = lines[0]
		}
	}
	if img := container.Find("img").First(); img.Length() > 0 {
		raw.ImageURL, _ = img.Attr("src")
	}

	return raw
}

func splitNiceTokens(value string) []string {
	var tokens []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// fallbackScan wraps the first block that mentions both the query sentinel
// and an Owner label as one opaque record. Low fidelity: callers must not
// expect structured fields here.
func (e *Extractor) fallbackScan(doc *goquery.Document) []trademark.RawResult {
	if e.sentinel == "" {
		return []trademark.RawResult{}
	}

	results := []trademark.RawResult{}
	doc.Find("div, td, li, section, article").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, e.sentinel) || !strings.Contains(text, "Owner") {
			return true
		}
		if len(text) > fallbackTextLimit {
			text = text[:fallbackTextLimit]
		}
		results = append(results, trademark.RawResult{Mark: text, RawText: text})
		return false
	})
	return results
}
