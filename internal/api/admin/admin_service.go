package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Dashboard(ctx context.Context) (*types.DashboardStats, error)
	ListUsers(ctx context.Context) ([]types.UserProfile, error)
	ListCourses(ctx context.Context) ([]types.Course, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	ListAdmins(ctx context.Context) ([]types.Admin, error)
	AddAdmin(ctx context.Context, callerEmail, email string) (*types.Admin, error)
	RemoveAdmin(ctx context.Context, callerEmail, email string) error
	SubmitContact(ctx context.Context, c types.Contact) (*types.Contact, error)
	ListContacts(ctx context.Context) ([]types.Contact, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// Dashboard gathers every counter concurrently; the first failure cancels the rest.
func (s *ServiceImpl) Dashboard(ctx context.Context) (*types.DashboardStats, error) {
	ctx, span := otel.Tracer("AdminService").Start(ctx, "Dashboard")
	defer span.End()

	var stats types.DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, query string, args ...any) {
		g.Go(func() error {
			n, err := s.repo.Count(gctx, query, args...)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&stats.Users, countUsers)
	count(&stats.Courses, countCourses)
	count(&stats.PaidUsers, countPaidUsers)
	count(&stats.VideoCourses, countCoursesTyped, types.CourseTypeVideoText)
	count(&stats.TextCourses, countCoursesTyped, types.CourseTypeTextImage)
	g.Go(func() error {
		sum, err := s.repo.Revenue(gctx)
		if err != nil {
			return err
		}
		stats.Revenue = sum
		return nil
	})
	g.Go(func() error {
		admins, err := s.repo.ListAdmins(gctx)
		if err != nil {
			return err
		}
		stats.Admins = admins
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dashboard failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Dashboard built")
	return &stats, nil
}

func (s *ServiceImpl) ListUsers(ctx context.Context) ([]types.UserProfile, error) {
	return s.repo.ListUsers(ctx)
}

func (s *ServiceImpl) ListCourses(ctx context.Context) ([]types.Course, error) {
	return s.repo.ListCourses(ctx)
}

func (s *ServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User deleted by admin", slog.String("userID", userID.String()))
	return nil
}

func (s *ServiceImpl) ListAdmins(ctx context.Context) ([]types.Admin, error) {
	return s.repo.ListAdmins(ctx)
}

func (s *ServiceImpl) requireMain(ctx context.Context, callerEmail string) error {
	caller, err := s.repo.GetAdmin(ctx, callerEmail)
	if err != nil || caller.Role != types.AdminRoleMain {
		return fmt.Errorf("only the main admin can manage admins: %w", types.ErrForbidden)
	}
	return nil
}

func (s *ServiceImpl) AddAdmin(ctx context.Context, callerEmail, email string) (*types.Admin, error) {
	if err := s.requireMain(ctx, callerEmail); err != nil {
		return nil, err
	}
	return s.repo.AddAdmin(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *ServiceImpl) RemoveAdmin(ctx context.Context, callerEmail, email string) error {
	if err := s.requireMain(ctx, callerEmail); err != nil {
		return err
	}
	return s.repo.RemoveAdmin(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *ServiceImpl) SubmitContact(ctx context.Context, c types.Contact) (*types.Contact, error) {
	return s.repo.CreateContact(ctx, c)
}

func (s *ServiceImpl) ListContacts(ctx context.Context) ([]types.Contact, error) {
	return s.repo.ListContacts(ctx)
}
