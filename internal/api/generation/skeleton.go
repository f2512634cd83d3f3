package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

// ParseSkeleton decodes a model answer into a content tree rooted at
// lower(mainTopic) with every generated field blank. Code fences and prose
// around the JSON object are ignored.
func ParseSkeleton(raw, mainTopic string, maxTopics, maxSubtopics int) (types.CourseContent, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return types.CourseContent{}, errors.New("no JSON object in model response")
	}

	var tree map[string][]types.Topic
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		return types.CourseContent{}, fmt.Errorf("failed to decode skeleton: %w", err)
	}

	topics, ok := tree[types.RootKey(mainTopic)]
	if !ok {
		if len(tree) != 1 {
			return types.CourseContent{}, fmt.Errorf("skeleton has %d root keys", len(tree))
		}
		for _, v := range tree {
			topics = v
		}
	}

	content := types.CourseContent{MainTopic: types.RootKey(mainTopic)}
	for _, t := range topics {
		if maxTopics > 0 && len(content.Topics) == maxTopics {
			break
		}
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}
		topic := types.Topic{Title: title}
		for _, s := range t.Subtopics {
			if maxSubtopics > 0 && len(topic.Subtopics) == maxSubtopics {
				break
			}
			if st := strings.TrimSpace(s.Title); st != "" {
				topic.Subtopics = append(topic.Subtopics, types.Subtopic{Title: st})
			}
		}
		if len(topic.Subtopics) > 0 {
			content.Topics = append(content.Topics, topic)
		}
	}
	if len(content.Topics) == 0 {
		return types.CourseContent{}, errors.New("skeleton has no topics")
	}
	return content, nil
}

func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// MockSkeleton is served when the model is unavailable so a course can still be created.
func MockSkeleton(mainTopic string) types.CourseContent {
	title := strings.TrimSpace(mainTopic)
	return types.CourseContent{
		MainTopic: types.RootKey(mainTopic),
		Topics: []types.Topic{
			{
				Title: "Introduction to " + title,
				Subtopics: []types.Subtopic{
					{Title: "What is " + title},
					{Title: "Why learn " + title},
				},
			},
			{
				Title: title + " Fundamentals",
				Subtopics: []types.Subtopic{
					{Title: "Core Concepts"},
					{Title: "Basic Examples"},
				},
			},
			{
				Title: "Practical " + title,
				Subtopics: []types.Subtopic{
					{Title: "Best Practices"},
					{Title: "Common Mistakes"},
				},
			},
		},
	}
}
