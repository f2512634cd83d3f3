package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ai-course-generator/app/cache"
	"github.com/FACorreiaa/ai-course-generator/internal/api/generation"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

type MockRepository struct {
	mock.Mock
}

// cloneCourse hands every caller its own tree so in-place edits do not leak between calls.
func cloneCourse(c *types.Course) *types.Course {
	cp := *c
	raw, _ := json.Marshal(c.Content)
	cp.Content, _ = types.ParseCourseContent(raw, "")
	return &cp
}

func (m *MockRepository) CreateCourse(ctx context.Context, course *types.Course, lang string) (*types.Course, error) {
	args := m.Called(ctx, course, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

func (m *MockRepository) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return cloneCourse(args.Get(0).(*types.Course)), args.Error(1)
}

func (m *MockRepository) ListCoursesByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.Course, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Course), args.Error(1)
}

func (m *MockRepository) CountCoursesByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) UpdateContent(ctx context.Context, courseID uuid.UUID, content types.CourseContent, expectedVersion int) (int, error) {
	args := m.Called(ctx, courseID, content, expectedVersion)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) MarkCompleted(ctx context.Context, courseID uuid.UUID) error {
	return m.Called(ctx, courseID).Error(0)
}

func (m *MockRepository) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	return m.Called(ctx, courseID).Error(0)
}

func (m *MockRepository) GetLanguage(ctx context.Context, courseID uuid.UUID) (string, error) {
	args := m.Called(ctx, courseID)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) UpsertLanguage(ctx context.Context, courseID uuid.UUID, lang string) error {
	return m.Called(ctx, courseID, lang).Error(0)
}

func (m *MockRepository) ExamPassed(ctx context.Context, courseID uuid.UUID) (bool, error) {
	args := m.Called(ctx, courseID)
	return args.Bool(0), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) FindImage(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) FindVideo(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) GetTranscript(ctx context.Context, videoID string) ([]string, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) ListPlanSettings(ctx context.Context) ([]types.PlanSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).([]types.PlanSettings), args.Error(1)
}

func (m *MockPlanService) UpsertPlanSettings(ctx context.Context, settings types.PlanSettings) (*types.PlanSettings, error) {
	args := m.Called(ctx, settings)
	return args.Get(0).(*types.PlanSettings), args.Error(1)
}

func (m *MockPlanService) ResolvePlanLimits(ctx context.Context, userID uuid.UUID) types.PlanLimits {
	return m.Called(ctx, userID).Get(0).(types.PlanLimits)
}

func (m *MockPlanService) PlanSettingsFor(ctx context.Context, planType string) (*types.PlanSettings, error) {
	args := m.Called(ctx, planType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PlanSettings), args.Error(1)
}

type courseTestDeps struct {
	repo     *MockRepository
	provider *MockProvider
	plans    *MockPlanService
	locker   *cache.Locker
	redis    *miniredis.Miniredis
}

func setupCourseServiceTest(t *testing.T) (*ServiceImpl, courseTestDeps) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client, err := cache.NewRedisClient(context.Background(), cache.RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	deps := courseTestDeps{
		repo:     new(MockRepository),
		provider: new(MockProvider),
		plans:    new(MockPlanService),
		locker:   cache.NewLocker(client, "test:"),
		redis:    mr,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewServiceImpl(deps.repo, deps.plans, generation.NewPipeline(deps.provider, logger), deps.provider, deps.locker, time.Minute, logger)
	svc.waitPoll = 5 * time.Millisecond
	svc.waitMax = 200 * time.Millisecond
	return svc, deps
}

func jsCourse(owner uuid.UUID, version int) *types.Course {
	return &types.Course{
		ID:        uuid.New(),
		UserID:    owner,
		Type:      types.CourseTypeTextImage,
		MainTopic: "JavaScript",
		Version:   version,
		Content: types.CourseContent{
			MainTopic: "javascript",
			Topics: []types.Topic{{
				Title: "Basics",
				Subtopics: []types.Subtopic{
					{Title: "Variables"},
					{Title: "Functions"},
				},
			}},
		},
	}
}

func TestServiceImpl_CreateCourse(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	actor := types.Actor{UserID: owner}
	content := json.RawMessage(`{"javascript":[{"title":"Basics","subtopics":[{"title":"Variables","theory":"","youtube":"","image":"","done":false},{"title":"Functions","theory":"","youtube":"","image":"","done":false}]}]}`)
	req := types.CreateCourseRequest{MainTopic: "JavaScript", Type: types.CourseTypeTextImage, Language: "English", Content: content}

	t.Run("first lesson and cover photo are filled before insert", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		deps.plans.On("ResolvePlanLimits", mock.Anything, owner).Return(types.FreePlanLimits()).Once()
		deps.repo.On("CountCoursesByUser", mock.Anything, owner).Return(2, nil).Once()
		deps.provider.On("GenerateText", mock.Anything, generation.TheoryPrompt("English", "JavaScript", "Variables")).Return("var, let and const", nil).Once()
		deps.provider.On("FindImage", mock.Anything, generation.ImageQuery("JavaScript", "Variables")).Return("https://img.example/vars.png", nil).Once()
		deps.provider.On("FindImage", mock.Anything, "JavaScript").Return("https://img.example/js.png", nil).Once()

		created := jsCourse(owner, 1)
		deps.repo.On("CreateCourse", mock.Anything, mock.MatchedBy(func(c *types.Course) bool {
			first := c.Content.Topics[0].Subtopics[0]
			second := c.Content.Topics[0].Subtopics[1]
			return c.UserID == owner &&
				c.Photo == "https://img.example/js.png" &&
				first.Theory == "var, let and const" &&
				first.Image == "https://img.example/vars.png" &&
				second.Theory == ""
		}), "English").Return(created, nil).Once()

		got, err := svc.CreateCourse(ctx, actor, req)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		deps.repo.AssertExpectations(t)
		deps.provider.AssertExpectations(t)
	})

	t.Run("cover photo failure is not fatal", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		deps.plans.On("ResolvePlanLimits", mock.Anything, owner).Return(types.FreePlanLimits()).Once()
		deps.repo.On("CountCoursesByUser", mock.Anything, owner).Return(0, nil).Once()
		deps.provider.On("GenerateText", mock.Anything, mock.Anything).Return("theory", nil).Once()
		deps.provider.On("FindImage", mock.Anything, generation.ImageQuery("JavaScript", "Variables")).Return("https://img.example/vars.png", nil).Once()
		deps.provider.On("FindImage", mock.Anything, "JavaScript").Return("", errors.New("quota exceeded")).Once()
		deps.repo.On("CreateCourse", mock.Anything, mock.MatchedBy(func(c *types.Course) bool {
			return c.Photo == ""
		}), "English").Return(jsCourse(owner, 1), nil).Once()

		_, err := svc.CreateCourse(ctx, actor, req)
		require.NoError(t, err)
		deps.repo.AssertExpectations(t)
	})

	t.Run("first lesson failure aborts creation", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		deps.plans.On("ResolvePlanLimits", mock.Anything, owner).Return(types.FreePlanLimits()).Once()
		deps.repo.On("CountCoursesByUser", mock.Anything, owner).Return(0, nil).Once()
		deps.provider.On("GenerateText", mock.Anything, mock.Anything).Return("", errors.New("model overloaded")).Once()

		_, err := svc.CreateCourse(ctx, actor, req)
		require.Error(t, err)
		deps.repo.AssertNotCalled(t, "CreateCourse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("plan limits are checked before any provider call", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		limits := types.FreePlanLimits()
		deps.plans.On("ResolvePlanLimits", mock.Anything, owner).Return(limits).Once()
		deps.repo.On("CountCoursesByUser", mock.Anything, owner).Return(0, nil).Once()

		video := req
		video.Type = types.CourseTypeVideoText
		_, err := svc.CreateCourse(ctx, actor, video)
		assert.ErrorIs(t, err, types.ErrPlanLimit)
		deps.provider.AssertNotCalled(t, "FindVideo", mock.Anything, mock.Anything)
		deps.provider.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	})

	t.Run("course quota", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		deps.plans.On("ResolvePlanLimits", mock.Anything, owner).Return(types.FreePlanLimits()).Once()
		deps.repo.On("CountCoursesByUser", mock.Anything, owner).Return(5, nil).Once()

		_, err := svc.CreateCourse(ctx, actor, req)
		assert.ErrorIs(t, err, types.ErrPlanLimit)
	})

	t.Run("root key must match main topic", func(t *testing.T) {
		svc, _ := setupCourseServiceTest(t)
		bad := req
		bad.MainTopic = "Python"
		_, err := svc.CreateCourse(ctx, actor, bad)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("cannot create for another user", func(t *testing.T) {
		svc, _ := setupCourseServiceTest(t)
		other := req
		other.UserID = uuid.New()
		_, err := svc.CreateCourse(ctx, actor, other)
		assert.ErrorIs(t, err, types.ErrForbidden)
	})
}

func TestServiceImpl_ShareCourse_ResetsProgress(t *testing.T) {
	svc, deps := setupCourseServiceTest(t)
	owner := uuid.New()
	content := json.RawMessage(`{"go":[{"title":"Intro","subtopics":[{"title":"Hello","theory":"fmt.Println","youtube":"","image":"x","done":true}]}]}`)

	deps.repo.On("CreateCourse", mock.Anything, mock.MatchedBy(func(c *types.Course) bool {
		sub := c.Content.Topics[0].Subtopics[0]
		return c.UserID == owner && !sub.Done && sub.Theory == "fmt.Println"
	}), "").Return(&types.Course{ID: uuid.New(), UserID: owner}, nil).Once()

	_, err := svc.ShareCourse(context.Background(), types.Actor{UserID: owner}, types.ShareCourseRequest{
		MainTopic: "Go",
		Type:      types.CourseTypeTextImage,
		Content:   content,
	})
	require.NoError(t, err)
	deps.repo.AssertExpectations(t)
	deps.provider.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
}

func TestServiceImpl_GenerateSubtopic(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	actor := types.Actor{UserID: owner}
	ref := types.SubtopicRef{TopicIndex: 0, SubtopicIndex: 0}

	t.Run("generates and persists once", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 1)
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Times(2)
		deps.repo.On("GetLanguage", mock.Anything, course.ID).Return("English", nil).Once()
		deps.provider.On("GenerateText", mock.Anything, generation.TheoryPrompt("English", "JavaScript", "Variables")).Return("theory", nil).Once()
		deps.provider.On("FindImage", mock.Anything, generation.ImageQuery("JavaScript", "Variables")).Return("https://img.example/v.png", nil).Once()
		deps.repo.On("UpdateContent", mock.Anything, course.ID, mock.MatchedBy(func(c types.CourseContent) bool {
			return c.Topics[0].Subtopics[0].Theory == "theory"
		}), 1).Return(2, nil).Once()

		resp, err := svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		require.NoError(t, err)
		assert.True(t, resp.Generated)
		assert.Equal(t, 2, resp.Version)
		assert.Equal(t, "https://img.example/v.png", resp.Subtopic.Image)
		deps.repo.AssertExpectations(t)
		deps.provider.AssertExpectations(t)

		held, err := deps.locker.Held(ctx, fmt.Sprintf("%s:0:0", course.ID))
		require.NoError(t, err)
		assert.False(t, held, "lock must be released")
	})

	t.Run("already generated makes no provider calls", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 4)
		course.Content.Topics[0].Subtopics[0].Theory = "existing"
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Once()

		resp, err := svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		require.NoError(t, err)
		assert.False(t, resp.Generated)
		assert.Equal(t, "existing", resp.Subtopic.Theory)
		deps.provider.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
		deps.repo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("version conflict reapplies onto the fresh tree", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 1)
		fresh := jsCourse(owner, 2)
		fresh.ID = course.ID
		fresh.Content.Topics[0].Subtopics[1].Done = true

		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Times(2)
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(fresh, nil).Once()
		deps.repo.On("GetLanguage", mock.Anything, course.ID).Return("", fmt.Errorf("language not set: %w", types.ErrNotFound)).Once()
		deps.provider.On("GenerateText", mock.Anything, mock.Anything).Return("theory", nil).Once()
		deps.provider.On("FindImage", mock.Anything, mock.Anything).Return("https://img.example/v.png", nil).Once()
		deps.repo.On("UpdateContent", mock.Anything, course.ID, mock.Anything, 1).
			Return(0, fmt.Errorf("course was modified concurrently: %w", types.ErrConflict)).Once()
		deps.repo.On("UpdateContent", mock.Anything, course.ID, mock.MatchedBy(func(c types.CourseContent) bool {
			subs := c.Topics[0].Subtopics
			return subs[0].Theory == "theory" && subs[1].Done
		}), 2).Return(3, nil).Once()

		resp, err := svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Version)
		deps.repo.AssertExpectations(t)
		deps.provider.AssertNumberOfCalls(t, "GenerateText", 1)
	})

	t.Run("waits for the lock holder instead of generating again", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 1)
		done := jsCourse(owner, 2)
		done.ID = course.ID
		done.Content.Topics[0].Subtopics[0].Theory = "from the other worker"

		lock, err := deps.locker.TryAcquire(ctx, fmt.Sprintf("%s:0:0", course.ID), time.Minute)
		require.NoError(t, err)
		t.Cleanup(func() { _ = lock.Release(context.Background()) })

		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Times(2)
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(done, nil)

		resp, err := svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		require.NoError(t, err)
		assert.False(t, resp.Generated)
		assert.Equal(t, "from the other worker", resp.Subtopic.Theory)
		deps.provider.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	})

	t.Run("gives up waiting with a conflict", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 1)
		lock, err := deps.locker.TryAcquire(ctx, fmt.Sprintf("%s:0:0", course.ID), time.Minute)
		require.NoError(t, err)
		t.Cleanup(func() { _ = lock.Release(context.Background()) })

		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil)

		_, err = svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("stops waiting once the holder releases without a result", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		svc.waitMax = 10 * time.Second
		course := jsCourse(owner, 1)
		lock, err := deps.locker.TryAcquire(ctx, fmt.Sprintf("%s:0:0", course.ID), time.Minute)
		require.NoError(t, err)

		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil)
		go func() {
			time.Sleep(30 * time.Millisecond)
			_ = lock.Release(context.Background())
		}()

		start := time.Now()
		_, err = svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.Less(t, time.Since(start), 2*time.Second)
		deps.provider.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	})

	t.Run("redis outage degrades to unlocked generation", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		deps.redis.Close()
		course := jsCourse(owner, 1)
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Times(2)
		deps.repo.On("GetLanguage", mock.Anything, course.ID).Return("English", nil).Once()
		deps.provider.On("GenerateText", mock.Anything, mock.Anything).Return("theory", nil).Once()
		deps.provider.On("FindImage", mock.Anything, mock.Anything).Return("img", nil).Once()
		deps.repo.On("UpdateContent", mock.Anything, course.ID, mock.Anything, 1).Return(2, nil).Once()

		resp, err := svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		require.NoError(t, err)
		assert.True(t, resp.Generated)
	})

	t.Run("pipeline failure leaves the course untouched", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 1)
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Times(2)
		deps.repo.On("GetLanguage", mock.Anything, course.ID).Return("English", nil).Once()
		deps.provider.On("GenerateText", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()

		_, err := svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		require.Error(t, err)
		deps.repo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("other users are rejected", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(uuid.New(), 1)
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Once()

		_, err := svc.GenerateSubtopic(ctx, actor, course.ID, ref)
		assert.ErrorIs(t, err, types.ErrForbidden)
	})

	t.Run("out of range index", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 1)
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Once()

		_, err := svc.GenerateSubtopic(ctx, actor, course.ID, types.SubtopicRef{TopicIndex: 3})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestServiceImpl_MarkDone(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	actor := types.Actor{UserID: owner}
	svc, deps := setupCourseServiceTest(t)

	course := jsCourse(owner, 1)
	updated := jsCourse(owner, 2)
	updated.ID = course.ID
	updated.Content.Topics[0].Subtopics[0].Done = true

	deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Once()
	deps.repo.On("UpdateContent", mock.Anything, course.ID, mock.MatchedBy(func(c types.CourseContent) bool {
		return c.Topics[0].Subtopics[0].Done && c.Topics[0].Subtopics[0].Theory == ""
	}), 1).Return(2, nil).Once()
	deps.repo.On("GetCourse", mock.Anything, course.ID).Return(updated, nil).Once()
	deps.repo.On("ExamPassed", mock.Anything, course.ID).Return(false, nil).Once()

	progress, err := svc.MarkDone(ctx, actor, course.ID, types.MarkDoneRequest{Done: true})
	require.NoError(t, err)
	// 1 of 2 subtopics plus the unpassed quiz
	assert.Equal(t, types.Progress{Done: 1, Total: 3, Percentage: 33, Complete: false}, *progress)
	deps.repo.AssertExpectations(t)
}

func TestServiceImpl_Finish(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	actor := types.Actor{UserID: owner}

	t.Run("marks completed", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 1)
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Once()
		deps.repo.On("MarkCompleted", mock.Anything, course.ID).Return(nil).Once()

		require.NoError(t, svc.Finish(ctx, actor, course.ID))
		deps.repo.AssertExpectations(t)
	})

	t.Run("already completed is a no-op", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		course := jsCourse(owner, 1)
		course.Completed = true
		deps.repo.On("GetCourse", mock.Anything, course.ID).Return(course, nil).Once()

		require.NoError(t, svc.Finish(ctx, actor, course.ID))
		deps.repo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything)
	})
}

func TestServiceImpl_ListCourses(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("pages of ten", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		deps.repo.On("ListCoursesByUser", mock.Anything, owner, 10, 20).Return([]types.Course{}, nil).Once()

		_, err := svc.ListCourses(ctx, types.Actor{UserID: owner}, owner, 3)
		require.NoError(t, err)
		deps.repo.AssertExpectations(t)
	})

	t.Run("admins may list anyone", func(t *testing.T) {
		svc, deps := setupCourseServiceTest(t)
		deps.repo.On("ListCoursesByUser", mock.Anything, owner, 10, 0).Return([]types.Course{}, nil).Once()

		_, err := svc.ListCourses(ctx, types.Actor{UserID: uuid.New(), Admin: true}, owner, 0)
		require.NoError(t, err)
	})

	t.Run("users may not list others", func(t *testing.T) {
		svc, _ := setupCourseServiceTest(t)
		_, err := svc.ListCourses(ctx, types.Actor{UserID: uuid.New()}, owner, 1)
		assert.ErrorIs(t, err, types.ErrForbidden)
	})
}
