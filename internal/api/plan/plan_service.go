package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

const (
	planCacheTTL     = 10 * time.Minute
	planCacheCleanup = 30 * time.Minute
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListPlanSettings(ctx context.Context) ([]types.PlanSettings, error)
	UpsertPlanSettings(ctx context.Context, settings types.PlanSettings) (*types.PlanSettings, error)
	ResolvePlanLimits(ctx context.Context, userID uuid.UUID) types.PlanLimits
	PlanSettingsFor(ctx context.Context, planType string) (*types.PlanSettings, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(planCacheTTL, planCacheCleanup),
	}
}

// ListPlanSettings returns every plan, seeding the defaults first when the table is empty.
func (s *ServiceImpl) ListPlanSettings(ctx context.Context) ([]types.PlanSettings, error) {
	ctx, span := otel.Tracer("PlanService").Start(ctx, "ListPlanSettings")
	defer span.End()
	l := s.logger.With(slog.String("method", "ListPlanSettings"))

	plans, err := s.repo.ListPlanSettings(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	if len(plans) > 0 {
		span.SetStatus(codes.Ok, "Plans listed")
		return plans, nil
	}

	l.InfoContext(ctx, "Plan settings empty, seeding defaults")
	if err := s.repo.SeedPlanSettings(ctx, types.DefaultPlanSettings()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed failed")
		return nil, err
	}
	plans, err = s.repo.ListPlanSettings(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Plans seeded")
	return plans, nil
}

func (s *ServiceImpl) UpsertPlanSettings(ctx context.Context, settings types.PlanSettings) (*types.PlanSettings, error) {
	ctx, span := otel.Tracer("PlanService").Start(ctx, "UpsertPlanSettings", trace.WithAttributes(
		attribute.String("plan.type", settings.PlanType),
	))
	defer span.End()

	if settings.Limits.MaxTopics < 1 || settings.Limits.MaxSubtopics < 1 {
		return nil, fmt.Errorf("maxTopics and maxSubtopics must be positive: %w", types.ErrValidation)
	}
	for _, ct := range settings.Limits.CourseTypes {
		if ct != types.CourseTypeTextImage && ct != types.CourseTypeVideoText {
			return nil, fmt.Errorf("unknown course type %q: %w", ct, types.ErrValidation)
		}
	}
	if settings.BillingPeriod == "" {
		settings.BillingPeriod = types.BillingMonthly
	}

	saved, err := s.repo.UpsertPlanSettings(ctx, settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return nil, err
	}
	s.cache.Delete(settings.PlanType)
	s.logger.InfoContext(ctx, "Plan settings saved", slog.String("planType", saved.PlanType))
	span.SetStatus(codes.Ok, "Plan saved")
	return saved, nil
}

// PlanSettingsFor returns one plan row, served from the in-process cache when possible.
func (s *ServiceImpl) PlanSettingsFor(ctx context.Context, planType string) (*types.PlanSettings, error) {
	if v, ok := s.cache.Get(planType); ok {
		p := v.(types.PlanSettings)
		return clonePlan(p), nil
	}
	p, err := s.repo.GetPlanSettings(ctx, planType)
	if err != nil {
		return nil, err
	}
	s.cache.Set(planType, *clonePlan(*p), cache.DefaultExpiration)
	return p, nil
}

// ResolvePlanLimits never fails: any missing or unreadable plan data yields the free tier.
func (s *ServiceImpl) ResolvePlanLimits(ctx context.Context, userID uuid.UUID) types.PlanLimits {
	ctx, span := otel.Tracer("PlanService").Start(ctx, "ResolvePlanLimits", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "ResolvePlanLimits"), slog.String("userID", userID.String()))

	planType, err := s.repo.GetUserPlanType(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "User plan lookup failed, using free tier", slog.Any("error", err))
		}
		span.SetAttributes(attribute.Bool("plan.fallback", true))
		return types.FreePlanLimits()
	}
	if planType == "" {
		planType = types.PlanFree
	}
	span.SetAttributes(attribute.String("plan.type", planType))

	p, err := s.PlanSettingsFor(ctx, planType)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Plan settings lookup failed, using free tier", slog.String("planType", planType), slog.Any("error", err))
		}
		span.SetAttributes(attribute.Bool("plan.fallback", true))
		return types.FreePlanLimits()
	}
	return p.Limits
}

func clonePlan(p types.PlanSettings) *types.PlanSettings {
	p.Features = slices.Clone(p.Features)
	p.Limits.CourseTypes = slices.Clone(p.Limits.CourseTypes)
	p.Limits.Languages = slices.Clone(p.Limits.Languages)
	return &p
}
