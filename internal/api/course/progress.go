package course

import (
	"math"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

// ComputeProgress counts done subtopics plus one unit for a passed quiz over
// every subtopic plus the quiz slot. The course is complete at 100 percent.
func ComputeProgress(content types.CourseContent, quizPassed bool) types.Progress {
	done := 0
	for _, t := range content.Topics {
		for _, s := range t.Subtopics {
			if s.Done {
				done++
			}
		}
	}
	if quizPassed {
		done++
	}
	total := content.SubtopicCount() + 1

	pct := int(math.Round(100 * float64(done) / float64(total)))
	return types.Progress{
		Done:       done,
		Total:      total,
		Percentage: pct,
		Complete:   pct >= 100,
	}
}
