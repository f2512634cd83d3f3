package plan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

// LimitedCourseQuota is how many courses a plan without unlimitedCourses may own.
const LimitedCourseQuota = 5

const defaultLanguage = "English"

// GenerationRequest is the shape of a course request as far as plan limits care.
type GenerationRequest struct {
	Topics          int
	Subtopics       int
	CourseType      string
	Language        string
	ExistingCourses int
}

// RequestForContent derives the limit-relevant numbers from a content tree.
// Subtopics is the largest subtopic count of any topic.
func RequestForContent(content types.CourseContent, courseType, language string) GenerationRequest {
	req := GenerationRequest{
		Topics:     len(content.Topics),
		CourseType: courseType,
		Language:   language,
	}
	for _, t := range content.Topics {
		req.Subtopics = max(req.Subtopics, len(t.Subtopics))
	}
	return req
}

// ValidateRequest checks a generation request against plan limits.
func ValidateRequest(limits types.PlanLimits, req GenerationRequest) error {
	if req.Topics > limits.MaxTopics {
		return fmt.Errorf("your plan allows at most %d topics: %w", limits.MaxTopics, types.ErrPlanLimit)
	}
	if req.Subtopics > limits.MaxSubtopics {
		return fmt.Errorf("your plan allows at most %d subtopics: %w", limits.MaxSubtopics, types.ErrPlanLimit)
	}

	switch req.CourseType {
	case types.CourseTypeTextImage, types.CourseTypeVideoText:
	default:
		return fmt.Errorf("unknown course type %q: %w", req.CourseType, types.ErrValidation)
	}
	if !slices.Contains(limits.CourseTypes, req.CourseType) {
		return fmt.Errorf("course type %q is not included in your plan: %w", req.CourseType, types.ErrPlanLimit)
	}
	if req.CourseType == types.CourseTypeVideoText && !limits.VideoCourses {
		return fmt.Errorf("video courses are not included in your plan: %w", types.ErrPlanLimit)
	}
	if req.CourseType == types.CourseTypeTextImage && !limits.ImageCourses {
		return fmt.Errorf("image courses are not included in your plan: %w", types.ErrPlanLimit)
	}

	lang := req.Language
	if lang == "" {
		lang = defaultLanguage
	}
	if !slices.ContainsFunc(limits.Languages, func(l string) bool { return strings.EqualFold(l, lang) }) {
		return fmt.Errorf("language %q is not included in your plan: %w", lang, types.ErrPlanLimit)
	}

	if !limits.UnlimitedCourses && req.ExistingCourses >= LimitedCourseQuota {
		return fmt.Errorf("your plan allows at most %d courses: %w", LimitedCourseQuota, types.ErrPlanLimit)
	}
	return nil
}
