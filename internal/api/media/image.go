package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
)

// ImageSearch finds illustrative images with the Custom Search JSON API.
type ImageSearch struct {
	svc    *customsearch.Service
	cx     string
	logger *slog.Logger
}

// NewImageSearch returns a searcher; with an empty apiKey or cx every lookup
// fails with ErrNotConfigured.
func NewImageSearch(ctx context.Context, apiKey, cx string, logger *slog.Logger, opts ...option.ClientOption) (*ImageSearch, error) {
	is := &ImageSearch{cx: cx, logger: logger}
	if apiKey == "" || cx == "" {
		logger.WarnContext(ctx, "Image search credentials not set, image lookups disabled")
		return is, nil
	}
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search client: %w", err)
	}
	is.svc = svc
	return is, nil
}

// FindImage returns the link of the first image result for query.
func (s *ImageSearch) FindImage(ctx context.Context, query string) (string, error) {
	ctx, span := otel.Tracer("Media").Start(ctx, "FindImage", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	if s.svc == nil {
		span.SetStatus(codes.Error, "not configured")
		return "", ErrNotConfigured
	}

	start := time.Now()
	res, err := s.svc.Cse.List().Cx(s.cx).Q(query).SearchType("image").Num(1).Context(ctx).Do()
	metrics.RecordProviderCall(ctx, "image", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return "", fmt.Errorf("image search for %q: %w", query, err)
	}
	for _, item := range res.Items {
		if item != nil && item.Link != "" {
			span.SetStatus(codes.Ok, "image found")
			return item.Link, nil
		}
	}
	span.SetStatus(codes.Error, "no results")
	return "", fmt.Errorf("image search for %q: %w", query, ErrNoResults)
}
