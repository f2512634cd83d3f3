package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/internal/api/generation"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

// PassRatio is the share of correct answers needed to pass.
const PassRatio = 0.5

// TextGenerator produces the raw quiz text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// CourseReader resolves the owner of a course.
type CourseReader interface {
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Generate(ctx context.Context, actor types.Actor, req types.ExamRequest) ([]types.ExamQuestion, error)
	SubmitResult(ctx context.Context, actor types.Actor, req types.ExamResultRequest) (*types.Exam, error)
	Result(ctx context.Context, actor types.Actor, courseID uuid.UUID) (*types.Exam, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	courses CourseReader
	text    TextGenerator
}

func NewServiceImpl(repo Repository, courses CourseReader, text TextGenerator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		courses: courses,
		text:    text,
	}
}

func (s *ServiceImpl) authorize(ctx context.Context, actor types.Actor, courseID uuid.UUID) error {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !actor.CanAccess(course.UserID) {
		return fmt.Errorf("course belongs to another user: %w", types.ErrForbidden)
	}
	return nil
}

func (s *ServiceImpl) Generate(ctx context.Context, actor types.Actor, req types.ExamRequest) ([]types.ExamQuestion, error) {
	ctx, span := otel.Tracer("ExamService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("course.id", req.CourseID.String()),
		attribute.String("course.main_topic", req.MainTopic),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Generate"), slog.String("courseID", req.CourseID.String()))

	if err := s.authorize(ctx, actor, req.CourseID); err != nil {
		return nil, err
	}
	raw, err := s.text.GenerateText(ctx, generation.ExamPrompt(req.Language, req.MainTopic, req.SubtopicsString))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, fmt.Errorf("failed to generate exam: %w", err)
	}
	questions, err := ParseQuestions(raw)
	if err != nil {
		l.WarnContext(ctx, "Model returned an unusable quiz", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to generate exam: %w", err)
	}
	if err := s.repo.SaveQuestions(ctx, req.CourseID, questions); err != nil {
		span.RecordError(err)
		return nil, err
	}
	l.InfoContext(ctx, "Exam generated", slog.Int("questions", len(questions)))
	span.SetStatus(codes.Ok, "Exam generated")
	return questions, nil
}

// SubmitResult scores an attempt against the stored quiz.
func (s *ServiceImpl) SubmitResult(ctx context.Context, actor types.Actor, req types.ExamResultRequest) (*types.Exam, error) {
	ctx, span := otel.Tracer("ExamService").Start(ctx, "SubmitResult", trace.WithAttributes(
		attribute.String("course.id", req.CourseID.String()),
		attribute.Int("marks", req.Marks),
	))
	defer span.End()

	if err := s.authorize(ctx, actor, req.CourseID); err != nil {
		return nil, err
	}
	exam, err := s.repo.GetExam(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if req.Marks > len(exam.Questions) {
		return nil, fmt.Errorf("marks %d exceed the %d questions: %w", req.Marks, len(exam.Questions), types.ErrValidation)
	}
	passed := Passed(req.Marks, len(exam.Questions))
	saved, err := s.repo.SaveResult(ctx, req.CourseID, req.Marks, passed)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("passed", saved.Passed))
	return saved, nil
}

func (s *ServiceImpl) Result(ctx context.Context, actor types.Actor, courseID uuid.UUID) (*types.Exam, error) {
	if err := s.authorize(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.repo.GetExam(ctx, courseID)
}

// Passed reports whether marks reach PassRatio of total.
func Passed(marks, total int) bool {
	if total <= 0 {
		return false
	}
	return float64(marks) >= PassRatio*float64(total)
}

// ParseQuestions extracts the question array from model output, which may be
// wrapped in prose or code fences.
func ParseQuestions(raw string) ([]types.ExamQuestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no question list in model output: %w", types.ErrValidation)
	}
	var questions []types.ExamQuestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &questions); err != nil {
		return nil, fmt.Errorf("malformed question list: %w", types.ErrValidation)
	}
	valid := questions[:0]
	for _, q := range questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 || q.Answer == "" {
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("model output has no usable questions: %w", types.ErrValidation)
	}
	return valid, nil
}
