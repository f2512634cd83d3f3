package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
)

const defaultModel = "gemini-2.0-flash"

// ErrNotConfigured is returned by every call when no API key was supplied.
var ErrNotConfigured = errors.New("generative model is not configured")

type AIClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewAIClient builds a Gemini client. An empty apiKey yields a client whose
// calls fail with ErrNotConfigured so callers can degrade.
func NewAIClient(ctx context.Context, apiKey, model string, logger *slog.Logger) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if model == "" {
		model = defaultModel
	}
	ai := &AIClient{model: model, logger: logger}
	if apiKey == "" {
		logger.WarnContext(ctx, "Gemini API key not set, text generation disabled")
		span.SetStatus(codes.Ok, "AI client disabled")
		return ai, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	ai.client = client

	span.SetStatus(codes.Ok, "AI client created successfully")
	return ai, nil
}

// Configured reports whether calls will reach the model.
func (ai *AIClient) Configured() bool {
	return ai != nil && ai.client != nil
}

func (ai *AIClient) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateContent", trace.WithAttributes(
		attribute.Int("prompt.length", len(prompt)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	if !ai.Configured() {
		span.SetStatus(codes.Error, "not configured")
		return "", ErrNotConfigured
	}

	start := time.Now()
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	metrics.RecordProviderCall(ctx, "text", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate content")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	responseText := result.Text()
	if responseText == "" {
		span.SetStatus(codes.Error, "empty response")
		return "", errors.New("model returned an empty response")
	}
	span.SetAttributes(attribute.Int("response.length", len(responseText)))
	span.SetStatus(codes.Ok, "Content generated successfully")
	return responseText, nil
}
