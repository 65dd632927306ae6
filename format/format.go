package format

import (
	"context"

	"go.uber.org/zap"

	"tmsearch/config"
	"tmsearch/trademark"
)

// Formatter maps raw scrapes to canonical records. Implementations are total:
// one output record per input record, degraded rather than dropped.
type Formatter interface {
	Format(ctx context.Context, raws []trademark.RawResult) []trademark.Record
}

// New selects the implementation once per process: assisted when the
// text-generation credential is configured, direct otherwise.
func New(cfg *config.Config, logger *zap.Logger) Formatter {
	if cfg.AssistedFormatting() {
		assisted, err := NewAssisted(cfg.LLMAPIKey, cfg.LLMModel, logger)
		if err == nil {
			logger.Info("assisted formatting enabled", zap.String("model", cfg.LLMModel))
			return assisted
		}
		logger.Warn("assisted formatter unavailable, using direct formatting", zap.Error(err))
	}
	return NewDirect(logger)
}

// Direct applies the deterministic cleanup pass to every record.
type Direct struct {
	logger *zap.Logger
}

func NewDirect(logger *zap.Logger) *Direct {
	return &Direct{logger: logger}
}

func (d *Direct) Format(_ context.Context, raws []trademark.RawResult) []trademark.Record {
	records := make([]trademark.Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Clean(raw))
	}
	return records
}
