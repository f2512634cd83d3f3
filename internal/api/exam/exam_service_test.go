package exam

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SaveQuestions(ctx context.Context, courseID uuid.UUID, questions []types.ExamQuestion) error {
	return m.Called(ctx, courseID, questions).Error(0)
}

func (m *MockRepository) GetExam(ctx context.Context, courseID uuid.UUID) (*types.Exam, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Exam), args.Error(1)
}

func (m *MockRepository) SaveResult(ctx context.Context, courseID uuid.UUID, marks int, passed bool) (*types.Exam, error) {
	args := m.Called(ctx, courseID, marks, passed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Exam), args.Error(1)
}

type MockCourses struct {
	mock.Mock
}

func (m *MockCourses) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Course), args.Error(1)
}

type MockText struct {
	mock.Mock
}

func (m *MockText) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func setupExamServiceTest() (*ServiceImpl, *MockRepository, *MockCourses, *MockText) {
	repo := new(MockRepository)
	courses := new(MockCourses)
	text := new(MockText)
	return NewServiceImpl(repo, courses, text, slog.New(slog.NewTextHandler(io.Discard, nil))), repo, courses, text
}

func fourQuestions() []types.ExamQuestion {
	q := types.ExamQuestion{Question: "2+2?", Options: []string{"3", "4"}, Answer: "4"}
	return []types.ExamQuestion{q, q, q, q}
}

func TestServiceImpl_Generate(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	courseID := uuid.New()
	req := types.ExamRequest{CourseID: courseID, MainTopic: "Math", SubtopicsString: "Addition", Language: "English"}

	t.Run("stores the parsed quiz", func(t *testing.T) {
		svc, repo, courses, text := setupExamServiceTest()
		courses.On("GetCourse", mock.Anything, courseID).Return(&types.Course{ID: courseID, UserID: owner}, nil).Once()
		text.On("GenerateText", mock.Anything, mock.Anything).
			Return("```json\n[{\"question\":\"2+2?\",\"options\":[\"3\",\"4\"],\"answer\":\"4\"}]\n```", nil).Once()
		repo.On("SaveQuestions", mock.Anything, courseID, mock.MatchedBy(func(q []types.ExamQuestion) bool {
			return len(q) == 1 && q[0].Answer == "4"
		})).Return(nil).Once()

		questions, err := svc.Generate(ctx, types.Actor{UserID: owner}, req)
		require.NoError(t, err)
		assert.Len(t, questions, 1)
		repo.AssertExpectations(t)
	})

	t.Run("unparseable output is not stored", func(t *testing.T) {
		svc, repo, courses, text := setupExamServiceTest()
		courses.On("GetCourse", mock.Anything, courseID).Return(&types.Course{ID: courseID, UserID: owner}, nil).Once()
		text.On("GenerateText", mock.Anything, mock.Anything).Return("sorry, I cannot", nil).Once()

		_, err := svc.Generate(ctx, types.Actor{UserID: owner}, req)
		require.Error(t, err)
		repo.AssertNotCalled(t, "SaveQuestions", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider error", func(t *testing.T) {
		svc, _, courses, text := setupExamServiceTest()
		courses.On("GetCourse", mock.Anything, courseID).Return(&types.Course{ID: courseID, UserID: owner}, nil).Once()
		text.On("GenerateText", mock.Anything, mock.Anything).Return("", errors.New("unavailable")).Once()

		_, err := svc.Generate(ctx, types.Actor{UserID: owner}, req)
		require.Error(t, err)
	})

	t.Run("foreign course", func(t *testing.T) {
		svc, _, courses, text := setupExamServiceTest()
		courses.On("GetCourse", mock.Anything, courseID).Return(&types.Course{ID: courseID, UserID: uuid.New()}, nil).Once()

		_, err := svc.Generate(ctx, types.Actor{UserID: owner}, req)
		assert.ErrorIs(t, err, types.ErrForbidden)
		text.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	})
}

func TestServiceImpl_SubmitResult(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	courseID := uuid.New()
	actor := types.Actor{UserID: owner}

	tests := []struct {
		name   string
		marks  int
		passed bool
	}{
		{"half is a pass", 2, true},
		{"below half fails", 1, false},
		{"full marks", 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, courses, _ := setupExamServiceTest()
			courses.On("GetCourse", mock.Anything, courseID).Return(&types.Course{ID: courseID, UserID: owner}, nil).Once()
			repo.On("GetExam", mock.Anything, courseID).Return(&types.Exam{CourseID: courseID, Questions: fourQuestions()}, nil).Once()
			repo.On("SaveResult", mock.Anything, courseID, tt.marks, tt.passed).
				Return(&types.Exam{CourseID: courseID, Marks: tt.marks, Passed: tt.passed}, nil).Once()

			exam, err := svc.SubmitResult(ctx, actor, types.ExamResultRequest{CourseID: courseID, Marks: tt.marks})
			require.NoError(t, err)
			assert.Equal(t, tt.passed, exam.Passed)
			repo.AssertExpectations(t)
		})
	}

	t.Run("marks above question count", func(t *testing.T) {
		svc, repo, courses, _ := setupExamServiceTest()
		courses.On("GetCourse", mock.Anything, courseID).Return(&types.Course{ID: courseID, UserID: owner}, nil).Once()
		repo.On("GetExam", mock.Anything, courseID).Return(&types.Exam{CourseID: courseID, Questions: fourQuestions()}, nil).Once()

		_, err := svc.SubmitResult(ctx, actor, types.ExamResultRequest{CourseID: courseID, Marks: 9})
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestParseQuestions_DropsIncomplete(t *testing.T) {
	raw := `Here you go: [{"question":"a","options":["x","y"],"answer":"x"},{"question":"","options":["x"],"answer":""}]`
	questions, err := ParseQuestions(raw)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestPassed(t *testing.T) {
	assert.True(t, Passed(5, 10))
	assert.False(t, Passed(4, 10))
	assert.False(t, Passed(0, 0))
}
