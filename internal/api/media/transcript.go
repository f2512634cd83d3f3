package media

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
)

const (
	defaultTranscriptURL = "https://video.google.com/timedtext"
	maxTranscriptBytes   = 2 << 20
)

// Transcripts fetches the timed-text captions of a YouTube video.
type Transcripts struct {
	client  *http.Client
	baseURL string
	lang    string
	logger  *slog.Logger
}

func NewTranscripts(client *http.Client, baseURL, lang string, logger *slog.Logger) *Transcripts {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultTranscriptURL
	}
	if lang == "" {
		lang = "en"
	}
	return &Transcripts{client: client, baseURL: baseURL, lang: lang, logger: logger}
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Start string `xml:"start,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

// GetTranscript returns the caption lines in order. A video without captions
// is reported as ErrNoResults.
func (t *Transcripts) GetTranscript(ctx context.Context, videoID string) (lines []string, err error) {
	ctx, span := otel.Tracer("Media").Start(ctx, "GetTranscript", trace.WithAttributes(
		attribute.String("video.id", videoID),
	))
	defer span.End()

	start := time.Now()
	defer func() { metrics.RecordProviderCall(ctx, "transcript", start, err) }()

	q := url.Values{}
	q.Set("lang", t.lang)
	q.Set("v", videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcript request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("transcript request for %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, fmt.Errorf("transcript request for %s returned status %d", videoID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptBytes))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		span.SetStatus(codes.Error, "no captions")
		return nil, fmt.Errorf("transcript for %s: %w", videoID, ErrNoResults)
	}

	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}

	for _, l := range doc.Lines {
		text := strings.TrimSpace(html.UnescapeString(l.Text))
		if text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		span.SetStatus(codes.Error, "no captions")
		return nil, fmt.Errorf("transcript for %s: %w", videoID, ErrNoResults)
	}
	span.SetAttributes(attribute.Int("transcript.lines", len(lines)))
	span.SetStatus(codes.Ok, "transcript fetched")
	return lines, nil
}
