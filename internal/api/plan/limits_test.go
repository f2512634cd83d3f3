package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

func TestValidateRequest(t *testing.T) {
	free := types.FreePlanLimits()
	paid := types.DefaultPlanSettings()[1].Limits

	tests := []struct {
		name    string
		limits  types.PlanLimits
		req     GenerationRequest
		wantErr error
	}{
		{
			name:   "within free limits",
			limits: free,
			req:    GenerationRequest{Topics: 4, Subtopics: 5, CourseType: types.CourseTypeTextImage, Language: "english"},
		},
		{
			name:    "too many topics",
			limits:  free,
			req:     GenerationRequest{Topics: 5, Subtopics: 1, CourseType: types.CourseTypeTextImage},
			wantErr: types.ErrPlanLimit,
		},
		{
			name:    "too many subtopics",
			limits:  free,
			req:     GenerationRequest{Topics: 1, Subtopics: 6, CourseType: types.CourseTypeTextImage},
			wantErr: types.ErrPlanLimit,
		},
		{
			name:    "video course on free plan",
			limits:  free,
			req:     GenerationRequest{Topics: 1, Subtopics: 1, CourseType: types.CourseTypeVideoText},
			wantErr: types.ErrPlanLimit,
		},
		{
			name:    "language outside plan",
			limits:  free,
			req:     GenerationRequest{Topics: 1, Subtopics: 1, CourseType: types.CourseTypeTextImage, Language: "French"},
			wantErr: types.ErrPlanLimit,
		},
		{
			name:   "last course under the quota",
			limits: free,
			req:    GenerationRequest{Topics: 1, Subtopics: 1, CourseType: types.CourseTypeTextImage, ExistingCourses: LimitedCourseQuota - 1},
		},
		{
			name:    "course quota reached",
			limits:  free,
			req:     GenerationRequest{Topics: 1, Subtopics: 1, CourseType: types.CourseTypeTextImage, ExistingCourses: LimitedCourseQuota},
			wantErr: types.ErrPlanLimit,
		},
		{
			name:    "unknown course type",
			limits:  paid,
			req:     GenerationRequest{Topics: 1, Subtopics: 1, CourseType: "Podcast"},
			wantErr: types.ErrValidation,
		},
		{
			name:   "paid plan allows video and many courses",
			limits: paid,
			req:    GenerationRequest{Topics: 10, Subtopics: 10, CourseType: types.CourseTypeVideoText, Language: "French", ExistingCourses: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.limits, tt.req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequestForContent(t *testing.T) {
	content := types.CourseContent{
		MainTopic: "go",
		Topics: []types.Topic{
			{Title: "a", Subtopics: make([]types.Subtopic, 2)},
			{Title: "b", Subtopics: make([]types.Subtopic, 3)},
		},
	}
	req := RequestForContent(content, types.CourseTypeTextImage, "English")
	assert.Equal(t, 2, req.Topics)
	assert.Equal(t, 3, req.Subtopics)
}
