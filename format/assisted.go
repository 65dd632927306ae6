package format

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"tmsearch/trademark"
)

// Raw marks longer than this are assumed to be concatenated, unparsed scrape
// text worth sending to the model.
const unparsedMarkThreshold = 50

const parsePromptTemplate = `Extract trademark fields from the following scraped text.
Respond with a single flat JSON object using exactly these keys:
"mark", "owner", "application_number", "nice_classes", "country", "status", "registration_date".
Use "" for unknown strings and [] for unknown nice_classes.

Text:
%s`

// Assisted asks a text-generation model to parse raw results that the scrape
// left unstructured. Any failure on that path falls back to the deterministic
// cleanup pass; assistance never becomes a hard dependency.
type Assisted struct {
	llm    llms.Model
	logger *zap.Logger
}

func NewAssisted(apiKey, model string, logger *zap.Logger) (*Assisted, error) {
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to build llm client: %w", err)
	}
	return &Assisted{llm: llm, logger: logger}, nil
}

func (a *Assisted) Format(ctx context.Context, raws []trademark.RawResult) []trademark.Record {
	records := make([]trademark.Record, 0, len(raws))
	for _, raw := range raws {
		if !needsAssistance(raw) {
			records = append(records, Clean(raw))
			continue
		}
		rec, err := a.parseWithModel(ctx, raw)
		if err != nil {
			a.logger.Warn("assisted parse failed, using cleanup pass",
				zap.Error(err),
				zap.String("mark", truncate(raw.Mark, 60)))
			rec = Clean(raw)
		}
		records = append(records, rec)
	}
	return records
}

// needsAssistance: already-structured records skip the model; so do short
// marks, which the cleanup pass handles fine.
func needsAssistance(raw trademark.RawResult) bool {
	if raw.Owner != "" && raw.ApplicationNumber != "" && raw.Country != "" {
		return false
	}
	return len(raw.Mark) > unparsedMarkThreshold
}

type modelFields struct {
	Mark              string `json:"mark"`
	Owner             string `json:"owner"`
	ApplicationNumber string `json:"application_number"`
	NiceClasses       []any  `json:"nice_classes"`
	Country           string `json:"country"`
	Status            string `json:"status"`
	RegistrationDate  string `json:"registration_date"`
}

func (a *Assisted) parseWithModel(ctx context.Context, raw trademark.RawResult) (trademark.Record, error) {
	prompt := fmt.Sprintf(parsePromptTemplate, truncate(raw.Mark, 1000))
	reply, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt)
	if err != nil {
		return trademark.Record{}, fmt.Errorf("generation failed: %w", err)
	}

	payload, err := firstJSONObject(reply)
	if err != nil {
		return trademark.Record{}, err
	}

	var fields modelFields
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return trademark.Record{}, fmt.Errorf("failed to decode model reply: %w", err)
	}
	if fields.Mark == "" && fields.Owner == "" {
		return trademark.Record{}, errors.New("model reply carries neither mark nor owner")
	}

	rec := trademark.Record{
		Mark:              strings.TrimSpace(fields.Mark),
		Owner:             strings.TrimSpace(fields.Owner),
		ApplicationNumber: strings.TrimSpace(fields.ApplicationNumber),
		Country:           strings.TrimSpace(fields.Country),
		Status:            trademark.ParseStatus(fields.Status),
		RegistrationDate:  strings.TrimSpace(fields.RegistrationDate),
		NiceClasses:       coerceNiceClasses(fields.NiceClasses),
		ImageURL:          raw.ImageURL,
		DetailsURL:        raw.DetailsURL,
	}
	rec.FilingDate = rec.RegistrationDate
	return rec, nil
}

// firstJSONObject pulls the brace-delimited substring out of a free-text
// reply; models rarely answer with bare JSON.
func firstJSONObject(reply string) (string, error) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end <= start {
		return "", errors.New("no JSON object in model reply")
	}
	return reply[start : end+1], nil
}

// coerceNiceClasses accepts numbers or numeric strings; models answer with
// either. Never returns nil.
func coerceNiceClasses(values []any) []int {
	classes := []int{}
	for _, v := range values {
		switch n := v.(type) {
		case float64:
			classes = append(classes, int(n))
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				classes = append(classes, parsed)
			}
		}
	}
	return classes
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
