package generation

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

// SubtopicInput is the course context a subtopic is generated in.
type SubtopicInput struct {
	CourseType string
	MainTopic  string
	Language   string
}

// Pipeline fills one subtopic at a time from the provider.
type Pipeline struct {
	provider Provider
	logger   *slog.Logger
}

func NewPipeline(provider Provider, logger *slog.Logger) *Pipeline {
	return &Pipeline{provider: provider, logger: logger}
}

// FillSubtopic populates sub when its theory is empty and reports whether it
// changed anything. A subtopic with theory is left alone without any provider
// call. On error sub is not modified.
func (p *Pipeline) FillSubtopic(ctx context.Context, in SubtopicInput, sub *types.Subtopic) (bool, error) {
	ctx, span := otel.Tracer("GenerationPipeline").Start(ctx, "FillSubtopic", trace.WithAttributes(
		attribute.String("course.type", in.CourseType),
		attribute.String("subtopic.title", sub.Title),
	))
	defer span.End()

	if sub.Generated() {
		span.SetAttributes(attribute.Bool("pipeline.skipped", true))
		span.SetStatus(codes.Ok, "already generated")
		metrics.RecordGenerationRun(ctx, in.CourseType, "skipped")
		return false, nil
	}

	var (
		filled types.Subtopic
		err    error
	)
	switch in.CourseType {
	case types.CourseTypeTextImage:
		filled, err = p.fillTextImage(ctx, in, *sub)
	case types.CourseTypeVideoText:
		filled, err = p.fillVideoText(ctx, in, *sub)
	default:
		err = fmt.Errorf("unknown course type %q: %w", in.CourseType, types.ErrValidation)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		metrics.RecordGenerationRun(ctx, in.CourseType, "error")
		p.logger.WarnContext(ctx, "Subtopic generation failed",
			slog.String("subtopic", sub.Title),
			slog.String("courseType", in.CourseType),
			slog.Any("error", err))
		return false, err
	}

	// done is user controlled and survives generation
	filled.Done = sub.Done
	*sub = filled
	metrics.RecordGenerationRun(ctx, in.CourseType, "generated")
	span.SetStatus(codes.Ok, "subtopic generated")
	return true, nil
}

func (p *Pipeline) fillTextImage(ctx context.Context, in SubtopicInput, sub types.Subtopic) (types.Subtopic, error) {
	theory, err := p.provider.GenerateText(ctx, TheoryPrompt(in.Language, in.MainTopic, sub.Title))
	if err != nil {
		return sub, fmt.Errorf("generate theory: %w", err)
	}
	image, err := p.provider.FindImage(ctx, ImageQuery(in.MainTopic, sub.Title))
	if err != nil {
		return sub, fmt.Errorf("find image: %w", err)
	}
	sub.Theory = theory
	sub.Image = image
	sub.Youtube = ""
	return sub, nil
}

func (p *Pipeline) fillVideoText(ctx context.Context, in SubtopicInput, sub types.Subtopic) (types.Subtopic, error) {
	videoID, err := p.provider.FindVideo(ctx, VideoQuery(in.MainTopic, sub.Title))
	if err != nil {
		return sub, fmt.Errorf("find video: %w", err)
	}

	prompt := TheoryPrompt(in.Language, in.MainTopic, sub.Title)
	transcript, err := p.provider.GetTranscript(ctx, videoID)
	switch {
	case err != nil:
		p.logger.InfoContext(ctx, "Transcript unavailable, using theory prompt",
			slog.String("videoID", videoID), slog.Any("error", err))
	case len(transcript) == 0:
		p.logger.InfoContext(ctx, "Transcript empty, using theory prompt", slog.String("videoID", videoID))
	default:
		prompt = SummarizePrompt(in.Language, transcript)
	}

	theory, err := p.provider.GenerateText(ctx, prompt)
	if err != nil {
		return sub, fmt.Errorf("generate theory: %w", err)
	}
	sub.Theory = theory
	sub.Youtube = videoID
	sub.Image = ""
	return sub, nil
}
