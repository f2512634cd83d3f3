package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

func TestParseSkeleton(t *testing.T) {
	t.Run("fenced answer with foreign root key", func(t *testing.T) {
		raw := "```json\n{\"JavaScript Basics\": [{\"title\": \"Intro\", \"subtopics\": [" +
			"{\"title\": \"Variables\", \"theory\": \"leaked\", \"image\": \"x\", \"done\": true}," +
			"{\"title\": \"Types\"}]}]}\n```"

		content, err := ParseSkeleton(raw, "JavaScript", 4, 5)
		require.NoError(t, err)
		assert.Equal(t, "javascript", content.MainTopic)
		require.Len(t, content.Topics, 1)
		assert.Equal(t, []types.Subtopic{{Title: "Variables"}, {Title: "Types"}}, content.Topics[0].Subtopics)
	})

	t.Run("truncates to the plan limits", func(t *testing.T) {
		raw := `{"go": [
			{"title": "A", "subtopics": [{"title": "1"}, {"title": "2"}, {"title": "3"}]},
			{"title": "B", "subtopics": [{"title": "1"}]},
			{"title": "C", "subtopics": [{"title": "1"}]}
		]}`
		content, err := ParseSkeleton(raw, "Go", 2, 2)
		require.NoError(t, err)
		require.Len(t, content.Topics, 2)
		assert.Len(t, content.Topics[0].Subtopics, 2)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := ParseSkeleton("I cannot help with that.", "Go", 4, 5)
		assert.Error(t, err)
	})

	t.Run("multiple roots without a match are rejected", func(t *testing.T) {
		_, err := ParseSkeleton(`{"a": [], "b": []}`, "Go", 4, 5)
		assert.Error(t, err)
	})
}

func TestMockSkeleton(t *testing.T) {
	content := MockSkeleton("Machine Learning")
	assert.Equal(t, "machine learning", content.MainTopic)
	assert.LessOrEqual(t, len(content.Topics), types.FreePlanLimits().MaxTopics)
	for _, topic := range content.Topics {
		for _, sub := range topic.Subtopics {
			assert.False(t, sub.Generated())
		}
	}
}
