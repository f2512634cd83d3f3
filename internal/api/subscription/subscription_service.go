package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var checkoutMethods = []string{
	types.MethodStripe,
	types.MethodPaypal,
	types.MethodPaystack,
	types.MethodFlutterwave,
	types.MethodRazorpay,
	types.MethodBankTransfer,
}

// PlanLookup finds the billing period of custom plans.
type PlanLookup interface {
	PlanSettingsFor(ctx context.Context, planType string) (*types.PlanSettings, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Checkout(ctx context.Context, actor types.Actor, req types.CheckoutRequest) (*types.Subscription, error)
	History(ctx context.Context, actor types.Actor, userID uuid.UUID) ([]types.Subscription, error)
	Active(ctx context.Context, actor types.Actor, userID uuid.UUID) (*types.Subscription, error)
	Cancel(ctx context.Context, actor types.Actor, userID uuid.UUID, method string) error
	ChangePlan(ctx context.Context, req types.UpdateUserPlanRequest) (*types.Subscription, error)
	Extend(ctx context.Context, req types.ExtendSubscriptionRequest) (*types.Subscription, error)
	ExpireDue(ctx context.Context) (int64, error)
	ActivationFor(ctx context.Context, userID uuid.UUID, plan, method, externalID string) (types.ActivateParams, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	plans  PlanLookup
	now    func() time.Time
}

func NewServiceImpl(repo Repository, plans PlanLookup, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		plans:  plans,
		now:    time.Now,
	}
}

// ExpiryFor returns when a subscription bought at from ends under the given
// billing period. Lifetime plans never expire.
func ExpiryFor(period string, from time.Time) *time.Time {
	var t time.Time
	switch period {
	case types.BillingMonthly:
		t = from.AddDate(0, 1, 0)
	case types.BillingYearly:
		t = from.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &t
}

func (s *ServiceImpl) billingPeriod(ctx context.Context, plan string) (string, error) {
	switch plan {
	case types.PlanMonthly:
		return types.BillingMonthly, nil
	case types.PlanYearly:
		return types.BillingYearly, nil
	case types.PlanForever, types.PlanAdmin:
		return types.BillingLifetime, nil
	case types.PlanFree:
		return "", fmt.Errorf("free is not a purchasable plan: %w", types.ErrValidation)
	}
	settings, err := s.plans.PlanSettingsFor(ctx, plan)
	if err != nil {
		return "", fmt.Errorf("unknown plan %q: %w", plan, types.ErrValidation)
	}
	return settings.BillingPeriod, nil
}

// ActivationFor builds the parameters of an activation transition, including
// the expiry derived from the plan's billing period.
func (s *ServiceImpl) ActivationFor(ctx context.Context, userID uuid.UUID, plan, method, externalID string) (types.ActivateParams, error) {
	period, err := s.billingPeriod(ctx, plan)
	if err != nil {
		return types.ActivateParams{}, err
	}
	return types.ActivateParams{
		UserID:         userID,
		SubscriptionID: externalID,
		Plan:           plan,
		Method:         method,
		ExpiresAt:      ExpiryFor(period, s.now()),
	}, nil
}

// Checkout records a purchase confirmed by a payment provider.
func (s *ServiceImpl) Checkout(ctx context.Context, actor types.Actor, req types.CheckoutRequest) (*types.Subscription, error) {
	ctx, span := otel.Tracer("SubscriptionService").Start(ctx, "Checkout", trace.WithAttributes(
		attribute.String("user.id", req.UserID.String()),
		attribute.String("plan", req.Plan),
		attribute.String("method", req.Method),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Checkout"), slog.String("userID", req.UserID.String()))

	if !actor.CanAccess(req.UserID) {
		return nil, fmt.Errorf("cannot subscribe another user: %w", types.ErrForbidden)
	}
	if !slices.Contains(checkoutMethods, req.Method) {
		return nil, fmt.Errorf("unknown payment method %q: %w", req.Method, types.ErrValidation)
	}
	params, err := s.ActivationFor(ctx, req.UserID, req.Plan, req.Method, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	params.SubscriberID = req.SubscriberID

	sub, err := s.repo.Activate(ctx, params)
	metrics.RecordSubscriptionTransition(ctx, "checkout", err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activate failed")
		return nil, err
	}
	l.InfoContext(ctx, "Subscription activated", slog.String("plan", sub.Plan))
	span.SetStatus(codes.Ok, "Subscription activated")
	return sub, nil
}

func (s *ServiceImpl) History(ctx context.Context, actor types.Actor, userID uuid.UUID) ([]types.Subscription, error) {
	if !actor.CanAccess(userID) {
		return nil, fmt.Errorf("cannot read another user's subscriptions: %w", types.ErrForbidden)
	}
	return s.repo.History(ctx, userID)
}

func (s *ServiceImpl) Active(ctx context.Context, actor types.Actor, userID uuid.UUID) (*types.Subscription, error) {
	if !actor.CanAccess(userID) {
		return nil, fmt.Errorf("cannot read another user's subscriptions: %w", types.ErrForbidden)
	}
	return s.repo.Active(ctx, userID)
}

// Cancel is the one cancellation transition behind every provider route.
func (s *ServiceImpl) Cancel(ctx context.Context, actor types.Actor, userID uuid.UUID, method string) error {
	ctx, span := otel.Tracer("SubscriptionService").Start(ctx, "Cancel", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("method", method),
	))
	defer span.End()

	if !actor.CanAccess(userID) {
		return fmt.Errorf("cannot cancel another user's subscription: %w", types.ErrForbidden)
	}
	n, err := s.repo.Cancel(ctx, userID)
	metrics.RecordSubscriptionTransition(ctx, "cancel", err)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.InfoContext(ctx, "Subscription cancelled",
		slog.String("userID", userID.String()),
		slog.String("via", method),
		slog.Int64("deactivated", n))
	return nil
}

// ChangePlan is the admin override. Moving a user to free cancels instead.
func (s *ServiceImpl) ChangePlan(ctx context.Context, req types.UpdateUserPlanRequest) (*types.Subscription, error) {
	ctx, span := otel.Tracer("SubscriptionService").Start(ctx, "ChangePlan", trace.WithAttributes(
		attribute.String("user.id", req.UserID.String()),
		attribute.String("plan", req.Plan),
	))
	defer span.End()

	if req.Plan == types.PlanFree {
		_, err := s.repo.Cancel(ctx, req.UserID)
		metrics.RecordSubscriptionTransition(ctx, "admin-cancel", err)
		return nil, err
	}
	params, err := s.ActivationFor(ctx, req.UserID, req.Plan, types.MethodAdminChange,
		fmt.Sprintf("admin-%d", s.now().UnixNano()))
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.Activate(ctx, params)
	metrics.RecordSubscriptionTransition(ctx, "admin-change", err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Plan changed")
	return sub, nil
}

func (s *ServiceImpl) Extend(ctx context.Context, req types.ExtendSubscriptionRequest) (*types.Subscription, error) {
	if req.Days <= 0 {
		return nil, fmt.Errorf("days must be positive: %w", types.ErrValidation)
	}
	sub, err := s.repo.Extend(ctx, req.UserID, req.Days)
	metrics.RecordSubscriptionTransition(ctx, "extend", err)
	return sub, err
}

func (s *ServiceImpl) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireDue(ctx, s.now())
	if n > 0 || err != nil {
		metrics.RecordSubscriptionTransition(ctx, "expire", err)
	}
	return n, err
}

// ExpiryJob returns a cron job that runs one ExpireDue pass bounded by timeout.
func ExpiryJob(svc Service, timeout time.Duration, logger *slog.Logger) func() {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := svc.ExpireDue(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Expiring subscriptions failed", slog.Any("error", err))
			return
		}
		if n > 0 {
			logger.InfoContext(ctx, "Expired subscriptions", slog.Int64("count", n))
		}
	}
}

// NewExpiryScheduler registers the expiry job on a cron that accepts an optional seconds field.
// The caller starts and stops the returned cron.
func NewExpiryScheduler(svc Service, spec string, timeout time.Duration, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, ExpiryJob(svc, timeout, logger)); err != nil {
		return nil, fmt.Errorf("subscription expiry schedule %q: %w", spec, err)
	}
	return c, nil
}
