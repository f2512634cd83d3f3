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
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
)

// VideoSearch finds lesson videos with the YouTube Data API.
type VideoSearch struct {
	svc    *youtube.Service
	logger *slog.Logger
}

func NewVideoSearch(ctx context.Context, apiKey string, logger *slog.Logger, opts ...option.ClientOption) (*VideoSearch, error) {
	vs := &VideoSearch{logger: logger}
	if apiKey == "" {
		logger.WarnContext(ctx, "YouTube API key not set, video lookups disabled")
		return vs, nil
	}
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}
	vs.svc = svc
	return vs, nil
}

// FindVideo returns the id of the first video result for query.
func (s *VideoSearch) FindVideo(ctx context.Context, query string) (string, error) {
	ctx, span := otel.Tracer("Media").Start(ctx, "FindVideo", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	if s.svc == nil {
		span.SetStatus(codes.Error, "not configured")
		return "", ErrNotConfigured
	}

	start := time.Now()
	res, err := s.svc.Search.List([]string{"id"}).Q(query).Type("video").MaxResults(1).Context(ctx).Do()
	metrics.RecordProviderCall(ctx, "video", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return "", fmt.Errorf("video search for %q: %w", query, err)
	}
	for _, item := range res.Items {
		if item != nil && item.Id != nil && item.Id.VideoId != "" {
			span.SetAttributes(attribute.String("video.id", item.Id.VideoId))
			span.SetStatus(codes.Ok, "video found")
			return item.Id.VideoId, nil
		}
	}
	span.SetStatus(codes.Error, "no results")
	return "", fmt.Errorf("video search for %q: %w", query, ErrNoResults)
}
