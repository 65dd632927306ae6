package details

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"tmsearch/trademark"
)

const goodsServicesLimit = 2000

// Enricher fetches a record's details page over plain HTTP and distills the
// goods/services description from it. Strictly best-effort: any failure is
// logged and the record left as scraped.
type Enricher struct {
	logger    *zap.Logger
	collector *colly.Collector
	baseURL   *url.URL
}

func NewEnricher(logger *zap.Logger, userAgent, baseURL string, timeout time.Duration) *Enricher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxDepth(1),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)

	parsedBase, err := url.Parse(baseURL)
	if err != nil {
		parsedBase = nil
	}

	return &Enricher{logger: logger, collector: c, baseURL: parsedBase}
}

// Enrich fills GoodsServices for records that point at a details page and do
// not have a description yet.
func (e *Enricher) Enrich(records []trademark.Record) {
	for i := range records {
		if records[i].DetailsURL == "" || records[i].GoodsServices != "" {
			continue
		}
		target := e.absolute(records[i].DetailsURL)
		text, err := e.fetch(target)
		if err != nil {
			e.logger.Info("details enrichment skipped",
				zap.String("url", target),
				zap.Error(err))
			continue
		}
		records[i].GoodsServices = text
	}
}

func (e *Enricher) absolute(details string) string {
	parsed, err := url.Parse(details)
	if err != nil || e.baseURL == nil {
		return details
	}
	return e.baseURL.ResolveReference(parsed).String()
}

func (e *Enricher) fetch(pageURL string) (string, error) {
	var body []byte
	col := e.collector.Clone()
	col.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := col.Visit(pageURL); err != nil {
		return "", fmt.Errorf("failed to fetch details page: %w", err)
	}
	col.Wait()
	if len(body) == 0 {
		return "", fmt.Errorf("empty details page body")
	}

	return e.extractText(body, pageURL)
}

// extractText distills the main content: trafilatura first, readability as
// the fallback, markdown as the output shape.
func (e *Enricher) extractText(body []byte, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("bad details URL: %w", err)
	}

	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{OriginalURL: parsedURL})
	if err == nil && result.ContentNode != nil {
		rendered, err := renderNode(result.ContentNode)
		if err == nil {
			if md, err := htmltomarkdown.ConvertString(rendered); err == nil {
				return clip(strings.TrimSpace(md)), nil
			}
		}
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", fmt.Errorf("content extraction failed: %w", err)
	}
	return clip(strings.TrimSpace(article.TextContent)), nil
}

func renderNode(node *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func clip(text string) string {
	if len(text) > goodsServicesLimit {
		return text[:goodsServicesLimit]
	}
	return text
}
