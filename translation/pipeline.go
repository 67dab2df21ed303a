package translation

import (
	"context"
	"log/slog"
	"strings"
)

// Pipeline runs providers in order and returns the first success.
// It never returns an error: the final provider is deterministic, and
// even if every provider misbehaves the original text comes back.
// Availability beats quality here; the relay is used for time-sensitive
// jobsite coordination.
type Pipeline struct {
	providers []Provider
	log       *slog.Logger
}

func NewPipeline(log *slog.Logger, providers ...Provider) *Pipeline {
	return &Pipeline{providers: providers, log: log}
}

func (p *Pipeline) Translate(ctx context.Context, text string, target Language) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	for _, provider := range p.providers {
		translated, err := provider.Translate(ctx, text, target)
		if err != nil {
			p.log.Warn("translation provider failed",
				"provider", provider.Name(),
				"target", string(target),
				"error", err)
			continue
		}
		if translated == "" {
			continue
		}
		p.log.Debug("translated", "provider", provider.Name(), "target", string(target))
		return translated
	}
	return text
}
