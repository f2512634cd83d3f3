package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ai-course-generator/internal/api/auth"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

func setupPlanHandlerTest() (*HandlerImpl, *MockRepository) {
	service, mockRepo := setupPlanServiceTest()
	return NewHandlerImpl(service, slog.New(slog.NewTextHandler(io.Discard, nil))), mockRepo
}

func limitsRequest(t *testing.T, body string, callerID uuid.UUID, role string) *http.Request {
	t.Helper()
	ctx := auth.WithClaims(context.Background(), &types.Claims{UserID: callerID.String(), Email: "caller@example.com", Role: role})
	return httptest.NewRequest(http.MethodPost, "/api/user-plan-limits", bytes.NewBufferString(body)).WithContext(ctx)
}

func TestHandlerImpl_UserPlanLimits(t *testing.T) {
	caller := uuid.New()
	other := uuid.New()
	yearly := types.DefaultPlanSettings()[2]

	t.Run("empty userId resolves the caller", func(t *testing.T) {
		h, mockRepo := setupPlanHandlerTest()
		mockRepo.On("GetUserPlanType", mock.Anything, caller).Return(types.PlanYearly, nil).Once()
		mockRepo.On("GetPlanSettings", mock.Anything, types.PlanYearly).Return(&yearly, nil).Once()

		rec := httptest.NewRecorder()
		h.UserPlanLimits(rec, limitsRequest(t, `{}`, caller, types.RoleUser))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp types.UserPlanLimitsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, yearly.Limits.MaxTopics, resp.Limits.MaxTopics)
		mockRepo.AssertExpectations(t)
	})

	t.Run("another user's limits are forbidden to regular users", func(t *testing.T) {
		h, mockRepo := setupPlanHandlerTest()

		rec := httptest.NewRecorder()
		h.UserPlanLimits(rec, limitsRequest(t, `{"userId":"`+other.String()+`"}`, caller, types.RoleUser))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		mockRepo.AssertNotCalled(t, "GetUserPlanType", mock.Anything, mock.Anything)
	})

	t.Run("admins may resolve any user", func(t *testing.T) {
		h, mockRepo := setupPlanHandlerTest()
		mockRepo.On("GetUserPlanType", mock.Anything, other).Return("", types.ErrNotFound).Once()

		rec := httptest.NewRecorder()
		h.UserPlanLimits(rec, limitsRequest(t, `{"userId":"`+other.String()+`"}`, caller, types.RoleAdmin))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp types.UserPlanLimitsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, expectedFreeLimits(), resp.Limits)
		mockRepo.AssertExpectations(t)
	})

	t.Run("malformed id gets the free tier", func(t *testing.T) {
		h, mockRepo := setupPlanHandlerTest()

		rec := httptest.NewRecorder()
		h.UserPlanLimits(rec, limitsRequest(t, `{"userId":"not-a-uuid"}`, caller, types.RoleUser))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp types.UserPlanLimitsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, expectedFreeLimits(), resp.Limits)
		mockRepo.AssertNotCalled(t, "GetUserPlanType", mock.Anything, mock.Anything)
	})

	t.Run("no claims is unauthenticated", func(t *testing.T) {
		h, _ := setupPlanHandlerTest()

		rec := httptest.NewRecorder()
		h.UserPlanLimits(rec, httptest.NewRequest(http.MethodPost, "/api/user-plan-limits", bytes.NewBufferString(`{}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
