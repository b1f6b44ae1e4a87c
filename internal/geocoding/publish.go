package geocoding

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
)

// Publishing emits a LookupEvent for every successful resolution by inner.
// Publish failures are logged and counted; the result is still returned.
type Publishing struct {
	inner     domain.Geocoder
	publisher domain.LookupPublisher
	provider  string
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewPublishing wraps inner so each upstream answer is recorded under provider.
func NewPublishing(inner domain.Geocoder, publisher domain.LookupPublisher, provider string, metrics *observability.Metrics, logger *slog.Logger) *Publishing {
	return &Publishing{
		inner:     inner,
		publisher: publisher,
		provider:  provider,
		metrics:   metrics,
		logger:    logger,
	}
}

func (p *Publishing) ReverseGeocode(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error) {
	result, err := p.inner.ReverseGeocode(ctx, c)
	if err != nil {
		return result, err
	}

	event := domain.NewLookupEvent(c, result, p.provider)
	if err := p.publisher.PublishLookup(ctx, event); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish lookup event failed", "event_id", event.ID, "error", err)
		return result, nil
	}
	p.metrics.LookupsPublished.Inc()
	return result, nil
}
