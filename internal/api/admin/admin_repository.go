package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/ai-course-generator/app/db"
	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	Count(ctx context.Context, query string, args ...any) (int64, error)
	Revenue(ctx context.Context) (float64, error)
	ListUsers(ctx context.Context) ([]types.UserProfile, error)
	ListCourses(ctx context.Context) ([]types.Course, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	ListAdmins(ctx context.Context) ([]types.Admin, error)
	GetAdmin(ctx context.Context, email string) (*types.Admin, error)
	AddAdmin(ctx context.Context, email string) (*types.Admin, error)
	RemoveAdmin(ctx context.Context, email string) error
	CreateContact(ctx context.Context, c types.Contact) (*types.Contact, error)
	ListContacts(ctx context.Context) ([]types.Contact, error)
}

// Dashboard counters.
const (
	countUsers        = `SELECT count(*) FROM users`
	countCourses      = `SELECT count(*) FROM courses`
	countPaidUsers    = `SELECT count(*) FROM users WHERE type <> 'free'`
	countCoursesTyped = `SELECT count(*) FROM courses WHERE type = $1`
)

type RepositoryImpl struct {
	pgpool database.Querier
	logger *slog.Logger
}

func NewRepository(pgpool database.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		pgpool: pgpool,
		logger: logger,
	}
}

func (r *RepositoryImpl) Count(ctx context.Context, query string, args ...any) (int64, error) {
	ctx, span := otel.Tracer("AdminRepository").Start(ctx, "Count", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.statement", query),
	))
	defer span.End()

	var n int64
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx, "dashboard")
		return 0, fmt.Errorf("error counting: %w", err)
	}
	return n, nil
}

// Revenue sums the list price of every active subscription.
func (r *RepositoryImpl) Revenue(ctx context.Context) (float64, error) {
	var sum float64
	err := r.pgpool.QueryRow(ctx, `
		SELECT COALESCE(SUM(p.price), 0)::float8
		FROM subscriptions s
		JOIN plan_settings p ON p.plan_type = s.plan
		WHERE s.active`).Scan(&sum)
	if err != nil {
		metrics.RecordDBError(ctx, "subscriptions")
		return 0, fmt.Errorf("error summing revenue: %w", err)
	}
	return sum, nil
}

func (r *RepositoryImpl) ListUsers(ctx context.Context) ([]types.UserProfile, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, email, name, type, created_at, updated_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := []types.UserProfile{}
	for rows.Next() {
		var u types.UserProfile
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Type, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListCourses returns every course without its content tree.
func (r *RepositoryImpl) ListCourses(ctx context.Context) ([]types.Course, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, user_id, type, main_topic, photo, completed, version, created_at, updated_at
		FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := []types.Course{}
	for rows.Next() {
		var c types.Course
		if err := rows.Scan(&c.ID, &c.UserID, &c.Type, &c.MainTopic, &c.Photo, &c.Completed, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning course: %w", err)
		}
		c.Content = types.CourseContent{MainTopic: types.RootKey(c.MainTopic)}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// DeleteUser removes the user; courses, subscriptions and transfers cascade.
func (r *RepositoryImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		metrics.RecordDBError(ctx, "users")
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", types.ErrNotFound)
	}
	return nil
}

func (r *RepositoryImpl) ListAdmins(ctx context.Context) ([]types.Admin, error) {
	rows, err := r.pgpool.Query(ctx, `SELECT email, name, role FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error listing admins: %w", err)
	}
	defer rows.Close()

	admins := []types.Admin{}
	for rows.Next() {
		var a types.Admin
		if err := rows.Scan(&a.Email, &a.Name, &a.Role); err != nil {
			return nil, fmt.Errorf("error scanning admin: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (r *RepositoryImpl) GetAdmin(ctx context.Context, email string) (*types.Admin, error) {
	var a types.Admin
	err := r.pgpool.QueryRow(ctx, `SELECT email, name, role FROM admins WHERE email = $1`, email).Scan(&a.Email, &a.Name, &a.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("admin not found: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching admin: %w", err)
	}
	return &a, nil
}

// AddAdmin promotes an existing user.
func (r *RepositoryImpl) AddAdmin(ctx context.Context, email string) (*types.Admin, error) {
	var a types.Admin
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO admins (email, name, role)
		SELECT email, name, $2 FROM users WHERE email = $1
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING email, name, role`, email, types.AdminRoleSub).Scan(&a.Email, &a.Name, &a.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no user with email %s: %w", email, types.ErrNotFound)
		}
		return nil, fmt.Errorf("error adding admin: %w", err)
	}
	return &a, nil
}

// RemoveAdmin never removes the main admin.
func (r *RepositoryImpl) RemoveAdmin(ctx context.Context, email string) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM admins WHERE email = $1 AND role <> $2`, email, types.AdminRoleMain)
	if err != nil {
		return fmt.Errorf("error removing admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("admin not found or is the main admin: %w", types.ErrNotFound)
	}
	return nil
}

func (r *RepositoryImpl) CreateContact(ctx context.Context, c types.Contact) (*types.Contact, error) {
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO contacts (name, email, phone, message) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, c.Name, c.Email, c.Phone, c.Message).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		metrics.RecordDBError(ctx, "contacts")
		return nil, fmt.Errorf("error saving contact: %w", err)
	}
	return &c, nil
}

func (r *RepositoryImpl) ListContacts(ctx context.Context) ([]types.Contact, error) {
	rows, err := r.pgpool.Query(ctx, `SELECT id, name, email, phone, message, created_at FROM contacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing contacts: %w", err)
	}
	defer rows.Close()

	contacts := []types.Contact{}
	for rows.Next() {
		var c types.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
