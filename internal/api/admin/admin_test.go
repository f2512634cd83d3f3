package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ai-course-generator/internal/api/auth"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Count(ctx context.Context, query string, args ...any) (int64, error) {
	ret := m.Called(ctx, query, args)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *MockRepository) Revenue(ctx context.Context) (float64, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(float64), ret.Error(1)
}

func (m *MockRepository) ListUsers(ctx context.Context) ([]types.UserProfile, error) {
	ret := m.Called(ctx)
	users, _ := ret.Get(0).([]types.UserProfile)
	return users, ret.Error(1)
}

func (m *MockRepository) ListCourses(ctx context.Context) ([]types.Course, error) {
	ret := m.Called(ctx)
	courses, _ := ret.Get(0).([]types.Course)
	return courses, ret.Error(1)
}

func (m *MockRepository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockRepository) ListAdmins(ctx context.Context) ([]types.Admin, error) {
	ret := m.Called(ctx)
	admins, _ := ret.Get(0).([]types.Admin)
	return admins, ret.Error(1)
}

func (m *MockRepository) GetAdmin(ctx context.Context, email string) (*types.Admin, error) {
	ret := m.Called(ctx, email)
	a, _ := ret.Get(0).(*types.Admin)
	return a, ret.Error(1)
}

func (m *MockRepository) AddAdmin(ctx context.Context, email string) (*types.Admin, error) {
	ret := m.Called(ctx, email)
	a, _ := ret.Get(0).(*types.Admin)
	return a, ret.Error(1)
}

func (m *MockRepository) RemoveAdmin(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockRepository) CreateContact(ctx context.Context, c types.Contact) (*types.Contact, error) {
	ret := m.Called(ctx, c)
	out, _ := ret.Get(0).(*types.Contact)
	return out, ret.Error(1)
}

func (m *MockRepository) ListContacts(ctx context.Context) ([]types.Contact, error) {
	ret := m.Called(ctx)
	contacts, _ := ret.Get(0).([]types.Contact)
	return contacts, ret.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceImpl_Dashboard(t *testing.T) {
	repo := new(MockRepository)
	svc := NewServiceImpl(repo, discardLogger())

	repo.On("Count", mock.Anything, countUsers, []any(nil)).Return(int64(10), nil)
	repo.On("Count", mock.Anything, countCourses, []any(nil)).Return(int64(25), nil)
	repo.On("Count", mock.Anything, countPaidUsers, []any(nil)).Return(int64(3), nil)
	repo.On("Count", mock.Anything, countCoursesTyped, []any{types.CourseTypeVideoText}).Return(int64(5), nil)
	repo.On("Count", mock.Anything, countCoursesTyped, []any{types.CourseTypeTextImage}).Return(int64(20), nil)
	repo.On("Revenue", mock.Anything).Return(59.97, nil)
	repo.On("ListAdmins", mock.Anything).Return([]types.Admin{{Email: "root@example.com", Role: types.AdminRoleMain}}, nil)

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Users)
	assert.Equal(t, int64(25), stats.Courses)
	assert.Equal(t, int64(3), stats.PaidUsers)
	assert.Equal(t, int64(5), stats.VideoCourses)
	assert.Equal(t, int64(20), stats.TextCourses)
	assert.InDelta(t, 59.97, stats.Revenue, 0.001)
	assert.Len(t, stats.Admins, 1)
}

func TestServiceImpl_Dashboard_PropagatesFailure(t *testing.T) {
	repo := new(MockRepository)
	svc := NewServiceImpl(repo, discardLogger())

	boom := errors.New("db down")
	repo.On("Count", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	repo.On("Revenue", mock.Anything).Return(float64(0), boom)
	repo.On("ListAdmins", mock.Anything).Return([]types.Admin{}, nil)

	stats, err := svc.Dashboard(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, stats)
}

func TestServiceImpl_AddAdmin_RequiresMainAdmin(t *testing.T) {
	repo := new(MockRepository)
	svc := NewServiceImpl(repo, discardLogger())

	repo.On("GetAdmin", mock.Anything, "sub@example.com").
		Return(&types.Admin{Email: "sub@example.com", Role: types.AdminRoleSub}, nil)

	_, err := svc.AddAdmin(context.Background(), "sub@example.com", "new@example.com")
	assert.ErrorIs(t, err, types.ErrForbidden)
	repo.AssertNotCalled(t, "AddAdmin", mock.Anything, mock.Anything)
}

func TestServiceImpl_AddAdmin_NormalizesEmail(t *testing.T) {
	repo := new(MockRepository)
	svc := NewServiceImpl(repo, discardLogger())

	repo.On("GetAdmin", mock.Anything, "root@example.com").
		Return(&types.Admin{Email: "root@example.com", Role: types.AdminRoleMain}, nil)
	repo.On("AddAdmin", mock.Anything, "new@example.com").
		Return(&types.Admin{Email: "new@example.com", Role: types.AdminRoleSub}, nil)

	a, err := svc.AddAdmin(context.Background(), "root@example.com", "  New@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, types.AdminRoleSub, a.Role)
	repo.AssertExpectations(t)
}

func TestServiceImpl_RemoveAdmin_UnknownCaller(t *testing.T) {
	repo := new(MockRepository)
	svc := NewServiceImpl(repo, discardLogger())

	repo.On("GetAdmin", mock.Anything, "user@example.com").Return(nil, types.ErrNotFound)

	err := svc.RemoveAdmin(context.Background(), "user@example.com", "sub@example.com")
	assert.ErrorIs(t, err, types.ErrForbidden)
}

func setupAdminRepoTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewRepository(pool, discardLogger()), pool
}

func TestRepositoryImpl_AddAdmin_UnknownUser(t *testing.T) {
	repo, pool := setupAdminRepoTest(t)

	pool.ExpectQuery("INSERT INTO admins").
		WithArgs("ghost@example.com", types.AdminRoleSub).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.AddAdmin(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryImpl_RemoveAdmin_KeepsMainAdmin(t *testing.T) {
	repo, pool := setupAdminRepoTest(t)

	pool.ExpectExec("DELETE FROM admins").
		WithArgs("root@example.com", types.AdminRoleMain).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.RemoveAdmin(context.Background(), "root@example.com")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryImpl_Revenue(t *testing.T) {
	repo, pool := setupAdminRepoTest(t)

	pool.ExpectQuery("SUM\\(p.price\\)").
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(float64(119.5)))

	sum, err := repo.Revenue(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 119.5, sum, 0.001)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestRepositoryImpl_DeleteUser_NotFound(t *testing.T) {
	repo, pool := setupAdminRepoTest(t)
	id := uuid.New()

	pool.ExpectExec("DELETE FROM users").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.DeleteUser(context.Background(), id), types.ErrNotFound)
}

func TestHandlerImpl_Contact(t *testing.T) {
	repo, pool := setupAdminRepoTest(t)
	h := NewHandlerImpl(NewServiceImpl(repo, discardLogger()), discardLogger())

	pool.ExpectQuery("INSERT INTO contacts").
		WithArgs("Ana", "ana@example.com", "", "Hello").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New(), time.Now()))

	body := bytes.NewBufferString(`{"fname":"Ana","email":"ana@example.com","msg":"Hello"}`)
	rec := httptest.NewRecorder()
	h.Contact(rec, httptest.NewRequest(http.MethodPost, "/api/contact", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestHandlerImpl_Contact_Invalid(t *testing.T) {
	repo, _ := setupAdminRepoTest(t)
	h := NewHandlerImpl(NewServiceImpl(repo, discardLogger()), discardLogger())

	rec := httptest.NewRecorder()
	h.Contact(rec, httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewBufferString(`{"fname":"Ana"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerImpl_AddAdmin_UsesCallerEmail(t *testing.T) {
	repo := new(MockRepository)
	h := NewHandlerImpl(NewServiceImpl(repo, discardLogger()), discardLogger())

	repo.On("GetAdmin", mock.Anything, "sub@example.com").
		Return(&types.Admin{Email: "sub@example.com", Role: types.AdminRoleSub}, nil)

	ctx := auth.WithClaims(context.Background(), &types.Claims{UserID: uuid.NewString(), Email: "sub@example.com", Role: types.RoleAdmin})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/addadmin", bytes.NewBufferString(`{"email":"x@example.com"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.AddAdmin(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
