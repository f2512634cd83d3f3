package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/ai-course-generator/internal/api/generative_ai"
	"github.com/FACorreiaa/ai-course-generator/internal/api/plan"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GenerateSkeleton(ctx context.Context, req types.SkeletonRequest) (*types.SkeletonResponse, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
	FindImage(ctx context.Context, query string) (string, error)
	FindVideo(ctx context.Context, query string) (string, error)
	GetTranscript(ctx context.Context, videoID string) ([]string, error)
	Chat(ctx context.Context, userID uuid.UUID, req types.ChatRequest) (string, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	provider Provider
	chat     ChatProvider
	plans    plan.Service
}

func NewServiceImpl(provider Provider, chat ChatProvider, plans plan.Service, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		provider: provider,
		chat:     chat,
		plans:    plans,
	}
}

// GenerateSkeleton validates the request against the user's plan and asks the
// model for a topic tree. Model or parse failures degrade to MockSkeleton.
func (s *ServiceImpl) GenerateSkeleton(ctx context.Context, req types.SkeletonRequest) (*types.SkeletonResponse, error) {
	ctx, span := otel.Tracer("GenerationService").Start(ctx, "GenerateSkeleton", trace.WithAttributes(
		attribute.String("user.id", req.UserID.String()),
		attribute.String("course.type", req.Type),
		attribute.String("course.main_topic", req.MainTopic),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "GenerateSkeleton"), slog.String("userID", req.UserID.String()))

	limits := s.plans.ResolvePlanLimits(ctx, req.UserID)
	topicCount := req.TopicCount
	if topicCount == 0 {
		topicCount = limits.MaxTopics
	}
	err := plan.ValidateRequest(limits, plan.GenerationRequest{
		Topics:     topicCount,
		Subtopics:  len(req.Subtopics),
		CourseType: req.Type,
		Language:   req.Language,
	})
	if err != nil {
		span.SetStatus(codes.Error, "rejected by plan limits")
		return nil, err
	}

	raw, err := s.provider.GenerateText(ctx, SkeletonPrompt(req.Language, req.MainTopic, topicCount, req.Subtopics))
	if err != nil {
		if errors.Is(err, generativeAI.ErrNotConfigured) {
			l.InfoContext(ctx, "Model not configured, serving mock skeleton")
		} else {
			l.WarnContext(ctx, "Skeleton generation failed, serving mock skeleton", slog.Any("error", err))
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Bool("skeleton.mock", true))
		return &types.SkeletonResponse{Success: true, Mock: true, Content: MockSkeleton(req.MainTopic)}, nil
	}

	content, err := ParseSkeleton(raw, req.MainTopic, topicCount, limits.MaxSubtopics)
	if err != nil {
		l.WarnContext(ctx, "Skeleton response unusable, serving mock skeleton", slog.Any("error", err))
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("skeleton.mock", true))
		return &types.SkeletonResponse{Success: true, Mock: true, Content: MockSkeleton(req.MainTopic)}, nil
	}

	span.SetAttributes(attribute.Int("skeleton.topics", len(content.Topics)))
	span.SetStatus(codes.Ok, "skeleton generated")
	return &types.SkeletonResponse{Success: true, Content: content}, nil
}

func (s *ServiceImpl) GenerateText(ctx context.Context, prompt string) (string, error) {
	text, err := s.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("text generation failed: %w", err)
	}
	return text, nil
}

func (s *ServiceImpl) FindImage(ctx context.Context, query string) (string, error) {
	link, err := s.provider.FindImage(ctx, query)
	if err != nil {
		return "", fmt.Errorf("image search failed: %w", err)
	}
	return link, nil
}

func (s *ServiceImpl) FindVideo(ctx context.Context, query string) (string, error) {
	id, err := s.provider.FindVideo(ctx, query)
	if err != nil {
		return "", fmt.Errorf("video search failed: %w", err)
	}
	return id, nil
}

func (s *ServiceImpl) GetTranscript(ctx context.Context, videoID string) ([]string, error) {
	lines, err := s.provider.GetTranscript(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("transcript fetch failed: %w", err)
	}
	return lines, nil
}

// Chat answers an AI teacher question when the plan includes the feature.
func (s *ServiceImpl) Chat(ctx context.Context, userID uuid.UUID, req types.ChatRequest) (string, error) {
	ctx, span := otel.Tracer("GenerationService").Start(ctx, "Chat", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	limits := s.plans.ResolvePlanLimits(ctx, userID)
	if !limits.AITeacherChat {
		span.SetStatus(codes.Error, "chat not in plan")
		return "", fmt.Errorf("AI teacher chat is not included in your plan: %w", types.ErrPlanLimit)
	}

	history := make([]generativeAI.ChatTurn, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, generativeAI.ChatTurn{Role: m.Role, Message: m.Message})
	}
	answer, err := s.chat.Chat(ctx, history, ChatSystemPrompt(req.Prompt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat failed")
		return "", fmt.Errorf("chat failed: %w", err)
	}
	span.SetStatus(codes.Ok, "chat answered")
	return answer, nil
}
