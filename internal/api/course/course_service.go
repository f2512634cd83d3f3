package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/app/cache"
	"github.com/FACorreiaa/ai-course-generator/internal/api/generation"
	"github.com/FACorreiaa/ai-course-generator/internal/api/plan"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

const (
	defaultPageSize  = 10
	maxCASRetries    = 5
	defaultLockTTL   = 3 * time.Minute
	defaultWaitPoll  = 500 * time.Millisecond
	defaultWaitLimit = 30 * time.Second
	defaultLanguage  = "English"
)

// ownerFor resolves the owner of a course written on behalf of userID.
func ownerFor(a types.Actor, userID uuid.UUID) (uuid.UUID, error) {
	if userID == uuid.Nil || userID == a.UserID {
		return a.UserID, nil
	}
	if !a.Admin {
		return uuid.Nil, fmt.Errorf("cannot create courses for another user: %w", types.ErrForbidden)
	}
	return userID, nil
}

// Locker grants exclusive generation rights for a key.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (*cache.Lock, error)
	Held(ctx context.Context, key string) (bool, error)
}

// ImageFinder looks up the cover photo of a new course.
type ImageFinder interface {
	FindImage(ctx context.Context, query string) (string, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateCourse(ctx context.Context, actor types.Actor, req types.CreateCourseRequest) (*types.Course, error)
	ShareCourse(ctx context.Context, actor types.Actor, req types.ShareCourseRequest) (*types.Course, error)
	ListCourses(ctx context.Context, actor types.Actor, userID uuid.UUID, page int) ([]types.Course, error)
	GetCourse(ctx context.Context, actor types.Actor, courseID uuid.UUID) (*types.Course, error)
	GetShareable(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	UpdateContent(ctx context.Context, actor types.Actor, req types.UpdateCourseRequest) (*types.Course, error)
	GenerateSubtopic(ctx context.Context, actor types.Actor, courseID uuid.UUID, ref types.SubtopicRef) (*types.GenerateSubtopicResponse, error)
	MarkDone(ctx context.Context, actor types.Actor, courseID uuid.UUID, req types.MarkDoneRequest) (*types.Progress, error)
	Progress(ctx context.Context, actor types.Actor, courseID uuid.UUID) (*types.Progress, error)
	Finish(ctx context.Context, actor types.Actor, courseID uuid.UUID) error
	DeleteCourse(ctx context.Context, actor types.Actor, courseID uuid.UUID) error
	GetLanguage(ctx context.Context, courseID uuid.UUID) (string, error)
	SetLanguage(ctx context.Context, actor types.Actor, req types.Language) error
}

type ServiceImpl struct {
	logger   *slog.Logger
	repo     Repository
	plans    plan.Service
	pipeline *generation.Pipeline
	images   ImageFinder
	locker   Locker
	lockTTL  time.Duration
	waitPoll time.Duration
	waitMax  time.Duration
}

func NewServiceImpl(repo Repository, plans plan.Service, pipeline *generation.Pipeline, images ImageFinder, locker Locker, lockTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		plans:    plans,
		pipeline: pipeline,
		images:   images,
		locker:   locker,
		lockTTL:  lockTTL,
		waitPoll: defaultWaitPoll,
		waitMax:  defaultWaitLimit,
	}
}

// CreateCourse checks the plan, fills the first subtopic and picks a cover
// photo before the course is stored for the first time.
func (s *ServiceImpl) CreateCourse(ctx context.Context, actor types.Actor, req types.CreateCourseRequest) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "CreateCourse", trace.WithAttributes(
		attribute.String("user.id", actor.UserID.String()),
		attribute.String("course.type", req.Type),
		attribute.String("course.main_topic", req.MainTopic),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "CreateCourse"), slog.String("userID", actor.UserID.String()))

	owner, err := ownerFor(actor, req.UserID)
	if err != nil {
		return nil, err
	}
	content, err := types.ParseCourseContent(req.Content, req.MainTopic)
	if err != nil {
		span.SetStatus(codes.Error, "invalid content")
		return nil, err
	}
	if content.SubtopicCount() == 0 {
		return nil, fmt.Errorf("course content has no subtopics: %w", types.ErrValidation)
	}

	lang := req.Language
	if lang == "" {
		lang = defaultLanguage
	}

	limits := s.plans.ResolvePlanLimits(ctx, owner)
	existing, err := s.repo.CountCoursesByUser(ctx, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	limitReq := plan.RequestForContent(content, req.Type, lang)
	limitReq.ExistingCourses = existing
	if err := plan.ValidateRequest(limits, limitReq); err != nil {
		span.SetStatus(codes.Error, "rejected by plan limits")
		return nil, err
	}

	first := firstSubtopic(&content)
	if _, err := s.pipeline.FillSubtopic(ctx, generation.SubtopicInput{
		CourseType: req.Type,
		MainTopic:  req.MainTopic,
		Language:   lang,
	}, first); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "initial generation failed")
		return nil, fmt.Errorf("failed to generate the first lesson: %w", err)
	}

	photo, err := s.images.FindImage(ctx, req.MainTopic)
	if err != nil {
		l.WarnContext(ctx, "Cover photo lookup failed, continuing without one", slog.Any("error", err))
	}

	course, err := s.repo.CreateCourse(ctx, &types.Course{
		UserID:    owner,
		Content:   content,
		Type:      req.Type,
		MainTopic: req.MainTopic,
		Photo:     photo,
	}, lang)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, err
	}
	l.InfoContext(ctx, "Course created", slog.String("courseID", course.ID.String()))
	span.SetStatus(codes.Ok, "Course created")
	return course, nil
}

func firstSubtopic(content *types.CourseContent) *types.Subtopic {
	for i := range content.Topics {
		if len(content.Topics[i].Subtopics) > 0 {
			return &content.Topics[i].Subtopics[0]
		}
	}
	return nil
}

// ShareCourse clones a shared course into another user's account with progress cleared.
func (s *ServiceImpl) ShareCourse(ctx context.Context, actor types.Actor, req types.ShareCourseRequest) (*types.Course, error) {
	owner, err := ownerFor(actor, req.UserID)
	if err != nil {
		return nil, err
	}
	ctx, span := otel.Tracer("CourseService").Start(ctx, "ShareCourse", trace.WithAttributes(
		attribute.String("user.id", owner.String()),
	))
	defer span.End()

	content, err := types.ParseCourseContent(req.Content, req.MainTopic)
	if err != nil {
		return nil, err
	}
	if req.Type != types.CourseTypeTextImage && req.Type != types.CourseTypeVideoText {
		return nil, fmt.Errorf("unknown course type %q: %w", req.Type, types.ErrValidation)
	}
	content.ResetProgress()

	course, err := s.repo.CreateCourse(ctx, &types.Course{
		UserID:    owner,
		Content:   content,
		Type:      req.Type,
		MainTopic: req.MainTopic,
		Photo:     req.Photo,
	}, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Course shared")
	return course, nil
}

func (s *ServiceImpl) ListCourses(ctx context.Context, actor types.Actor, userID uuid.UUID, page int) ([]types.Course, error) {
	if !actor.Admin && actor.UserID != userID {
		return nil, fmt.Errorf("cannot list another user's courses: %w", types.ErrForbidden)
	}
	if page < 1 {
		page = 1
	}
	return s.repo.ListCoursesByUser(ctx, userID, defaultPageSize, (page-1)*defaultPageSize)
}

func (s *ServiceImpl) GetCourse(ctx context.Context, actor types.Actor, courseID uuid.UUID) (*types.Course, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(course.UserID) {
		return nil, fmt.Errorf("course belongs to another user: %w", types.ErrForbidden)
	}
	return course, nil
}

// GetShareable is the public read used by share links.
func (s *ServiceImpl) GetShareable(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	return s.repo.GetCourse(ctx, courseID)
}

// UpdateContent replaces the whole tree when req.Version is current.
func (s *ServiceImpl) UpdateContent(ctx context.Context, actor types.Actor, req types.UpdateCourseRequest) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "UpdateContent", trace.WithAttributes(
		attribute.String("course.id", req.CourseID.String()),
		attribute.Int("course.version", req.Version),
	))
	defer span.End()

	course, err := s.GetCourse(ctx, actor, req.CourseID)
	if err != nil {
		return nil, err
	}
	content, err := types.ParseCourseContent(req.Content, course.MainTopic)
	if err != nil {
		return nil, err
	}
	version, err := s.repo.UpdateContent(ctx, course.ID, content, req.Version)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	course.Content = content
	course.Version = version
	span.SetStatus(codes.Ok, "Content updated")
	return course, nil
}

// GenerateSubtopic runs the pipeline for one subtopic at most once across
// concurrent callers. A caller that loses the lock waits for the winner's
// result instead of generating again.
func (s *ServiceImpl) GenerateSubtopic(ctx context.Context, actor types.Actor, courseID uuid.UUID, ref types.SubtopicRef) (*types.GenerateSubtopicResponse, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "GenerateSubtopic", trace.WithAttributes(
		attribute.String("course.id", courseID.String()),
		attribute.Int("topic.index", ref.TopicIndex),
		attribute.Int("subtopic.index", ref.SubtopicIndex),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "GenerateSubtopic"), slog.String("courseID", courseID.String()))

	course, err := s.GetCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	sub, err := course.Content.Subtopic(ref.TopicIndex, ref.SubtopicIndex)
	if err != nil {
		return nil, err
	}
	if sub.Generated() {
		span.SetAttributes(attribute.Bool("pipeline.skipped", true))
		return &types.GenerateSubtopicResponse{Success: true, Subtopic: *sub, Version: course.Version}, nil
	}

	key := fmt.Sprintf("%s:%d:%d", courseID, ref.TopicIndex, ref.SubtopicIndex)
	lock, err := s.locker.TryAcquire(ctx, key, s.lockTTL)
	switch {
	case errors.Is(err, cache.ErrLockHeld):
		l.InfoContext(ctx, "Subtopic generation in progress elsewhere, waiting")
		return s.waitForSubtopic(ctx, key, courseID, ref)
	case err != nil:
		l.WarnContext(ctx, "Generation lock unavailable, continuing unlocked", slog.Any("error", err))
	default:
		defer func() {
			if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil {
				l.WarnContext(ctx, "Failed to release generation lock", slog.Any("error", rerr))
			}
		}()
	}

	// the previous holder may have finished between the first read and the lock
	course, err = s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	sub, err = course.Content.Subtopic(ref.TopicIndex, ref.SubtopicIndex)
	if err != nil {
		return nil, err
	}
	if sub.Generated() {
		return &types.GenerateSubtopicResponse{Success: true, Subtopic: *sub, Version: course.Version}, nil
	}

	filled := *sub
	if _, err := s.pipeline.FillSubtopic(ctx, generation.SubtopicInput{
		CourseType: course.Type,
		MainTopic:  course.MainTopic,
		Language:   s.languageOf(ctx, courseID),
	}, &filled); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		return nil, fmt.Errorf("failed to generate subtopic: %w", err)
	}

	saved, version, err := s.persistSubtopic(ctx, course, ref, func(target *types.Subtopic) bool {
		if target.Generated() {
			return false
		}
		target.Theory = filled.Theory
		target.Image = filled.Image
		target.Youtube = filled.Youtube
		return true
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "subtopic generated")
	return &types.GenerateSubtopicResponse{Success: true, Generated: true, Subtopic: saved, Version: version}, nil
}

// waitForSubtopic polls until the lock holder stores the subtopic. A lock released
// with the subtopic still empty means the holder failed, so waiting stops early.
func (s *ServiceImpl) waitForSubtopic(ctx context.Context, key string, courseID uuid.UUID, ref types.SubtopicRef) (*types.GenerateSubtopicResponse, error) {
	deadline := time.NewTimer(s.waitMax)
	defer deadline.Stop()
	ticker := time.NewTicker(s.waitPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("subtopic is still being generated, retry shortly: %w", types.ErrConflict)
		case <-ticker.C:
			// read the lock before the course so a holder that saved and released is seen as done
			held, herr := s.locker.Held(ctx, key)
			course, err := s.repo.GetCourse(ctx, courseID)
			if err != nil {
				return nil, err
			}
			sub, err := course.Content.Subtopic(ref.TopicIndex, ref.SubtopicIndex)
			if err != nil {
				return nil, err
			}
			if sub.Generated() {
				return &types.GenerateSubtopicResponse{Success: true, Subtopic: *sub, Version: course.Version}, nil
			}
			if herr == nil && !held {
				return nil, fmt.Errorf("subtopic generation did not finish, retry: %w", types.ErrConflict)
			}
		}
	}
}

// persistSubtopic applies mutate to the addressed subtopic and writes the tree
// with a version check. On conflict it reloads the tree and re-applies mutate
// to the fresh copy so concurrent edits to other subtopics are kept. mutate
// returns false when there is nothing to change.
func (s *ServiceImpl) persistSubtopic(ctx context.Context, course *types.Course, ref types.SubtopicRef, mutate func(*types.Subtopic) bool) (types.Subtopic, int, error) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		if attempt > 0 {
			fresh, err := s.repo.GetCourse(ctx, course.ID)
			if err != nil {
				return types.Subtopic{}, 0, err
			}
			course = fresh
		}
		target, err := course.Content.Subtopic(ref.TopicIndex, ref.SubtopicIndex)
		if err != nil {
			return types.Subtopic{}, 0, err
		}
		if !mutate(target) {
			return *target, course.Version, nil
		}
		version, err := s.repo.UpdateContent(ctx, course.ID, course.Content, course.Version)
		if err == nil {
			return *target, version, nil
		}
		if !errors.Is(err, types.ErrConflict) {
			return types.Subtopic{}, 0, err
		}
		s.logger.DebugContext(ctx, "Course version moved, retrying", slog.Int("attempt", attempt+1))
	}
	return types.Subtopic{}, 0, fmt.Errorf("course is being edited concurrently, retry shortly: %w", types.ErrConflict)
}

func (s *ServiceImpl) languageOf(ctx context.Context, courseID uuid.UUID) string {
	lang, err := s.repo.GetLanguage(ctx, courseID)
	if err != nil || lang == "" {
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			s.logger.WarnContext(ctx, "Course language lookup failed, using default", slog.Any("error", err))
		}
		return defaultLanguage
	}
	return lang
}

// MarkDone toggles the done flag of one subtopic and returns the new progress.
func (s *ServiceImpl) MarkDone(ctx context.Context, actor types.Actor, courseID uuid.UUID, req types.MarkDoneRequest) (*types.Progress, error) {
	ctx, span := otel.Tracer("CourseService").Start(ctx, "MarkDone", trace.WithAttributes(
		attribute.String("course.id", courseID.String()),
		attribute.Bool("done", req.Done),
	))
	defer span.End()

	course, err := s.GetCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	_, _, err = s.persistSubtopic(ctx, course, req.SubtopicRef, func(target *types.Subtopic) bool {
		if target.Done == req.Done {
			return false
		}
		target.Done = req.Done
		return true
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.progressOf(ctx, courseID)
}

func (s *ServiceImpl) Progress(ctx context.Context, actor types.Actor, courseID uuid.UUID) (*types.Progress, error) {
	if _, err := s.GetCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	return s.progressOf(ctx, courseID)
}

func (s *ServiceImpl) progressOf(ctx context.Context, courseID uuid.UUID) (*types.Progress, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	passed, err := s.repo.ExamPassed(ctx, courseID)
	if err != nil {
		return nil, err
	}
	p := ComputeProgress(course.Content, passed)
	return &p, nil
}

// Finish marks the course completed. Calling it again is a no-op.
func (s *ServiceImpl) Finish(ctx context.Context, actor types.Actor, courseID uuid.UUID) error {
	course, err := s.GetCourse(ctx, actor, courseID)
	if err != nil {
		return err
	}
	if course.Completed {
		return nil
	}
	return s.repo.MarkCompleted(ctx, courseID)
}

func (s *ServiceImpl) DeleteCourse(ctx context.Context, actor types.Actor, courseID uuid.UUID) error {
	if _, err := s.GetCourse(ctx, actor, courseID); err != nil {
		return err
	}
	if err := s.repo.DeleteCourse(ctx, courseID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Course deleted", slog.String("courseID", courseID.String()))
	return nil
}

func (s *ServiceImpl) GetLanguage(ctx context.Context, courseID uuid.UUID) (string, error) {
	return s.languageOf(ctx, courseID), nil
}

func (s *ServiceImpl) SetLanguage(ctx context.Context, actor types.Actor, req types.Language) error {
	if _, err := s.GetCourse(ctx, actor, req.CourseID); err != nil {
		return err
	}
	return s.repo.UpsertLanguage(ctx, req.CourseID, req.Lang)
}
