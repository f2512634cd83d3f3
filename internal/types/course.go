package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CourseTypeTextImage = "Text & Image Course"
	CourseTypeVideoText = "Video & Text Course"
)

// Subtopic is a single lesson. Theory empty means "not yet generated"; Done is user controlled.
type Subtopic struct {
	Title   string `json:"title"`
	Theory  string `json:"theory"`
	Youtube string `json:"youtube"`
	Image   string `json:"image"`
	Done    bool   `json:"done"`
}

// Generated reports whether the pipeline already filled this subtopic.
func (s Subtopic) Generated() bool {
	return s.Theory != ""
}

type Topic struct {
	Title     string     `json:"title"`
	Subtopics []Subtopic `json:"subtopics"`
}

// CourseContent is the course content tree. On the wire it is an object with exactly
// one key, the lower-cased main topic, mapping to the topic list.
type CourseContent struct {
	MainTopic string
	Topics    []Topic
}

// RootKey is the single key the serialized tree is stored under.
func RootKey(mainTopic string) string {
	return strings.ToLower(mainTopic)
}

func (c CourseContent) MarshalJSON() ([]byte, error) {
	topics := c.Topics
	if topics == nil {
		topics = []Topic{}
	}
	return json.Marshal(map[string][]Topic{RootKey(c.MainTopic): topics})
}

func (c *CourseContent) UnmarshalJSON(data []byte) error {
	var raw map[string][]Topic
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("course content: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("course content must have exactly one root key, got %d: %w", len(raw), ErrValidation)
	}
	for k, v := range raw {
		c.MainTopic = k
		c.Topics = v
	}
	return nil
}

// ParseCourseContent decodes a stored tree and checks that its root key matches mainTopic.
func ParseCourseContent(data []byte, mainTopic string) (CourseContent, error) {
	var c CourseContent
	if err := json.Unmarshal(data, &c); err != nil {
		return CourseContent{}, err
	}
	if mainTopic != "" && c.MainTopic != RootKey(mainTopic) {
		return CourseContent{}, fmt.Errorf("root key %q does not match main topic %q: %w", c.MainTopic, mainTopic, ErrValidation)
	}
	c.MainTopic = RootKey(c.MainTopic)
	return c, nil
}

// Subtopic returns a pointer into the tree, or ErrNotFound when the indexes are out of range.
func (c *CourseContent) Subtopic(topicIdx, subIdx int) (*Subtopic, error) {
	if topicIdx < 0 || topicIdx >= len(c.Topics) {
		return nil, fmt.Errorf("topic index %d: %w", topicIdx, ErrNotFound)
	}
	subs := c.Topics[topicIdx].Subtopics
	if subIdx < 0 || subIdx >= len(subs) {
		return nil, fmt.Errorf("subtopic index %d in topic %d: %w", subIdx, topicIdx, ErrNotFound)
	}
	return &c.Topics[topicIdx].Subtopics[subIdx], nil
}

// SubtopicCount returns the number of subtopics across all topics.
func (c *CourseContent) SubtopicCount() int {
	n := 0
	for _, t := range c.Topics {
		n += len(t.Subtopics)
	}
	return n
}

// ResetProgress clears every done flag, used when cloning a shared course.
func (c *CourseContent) ResetProgress() {
	for i := range c.Topics {
		for j := range c.Topics[i].Subtopics {
			c.Topics[i].Subtopics[j].Done = false
		}
	}
}

type Course struct {
	ID        uuid.UUID     `json:"_id"`
	UserID    uuid.UUID     `json:"user"`
	Content   CourseContent `json:"content"`
	Type      string        `json:"type"`
	MainTopic string        `json:"mainTopic"`
	Photo     string        `json:"photo"`
	Completed bool          `json:"completed"`
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"date"`
	UpdatedAt time.Time     `json:"end"`
}

// CreateCourseRequest is the body of POST /course. UserID defaults to the caller.
type CreateCourseRequest struct {
	UserID    uuid.UUID       `json:"user"`
	MainTopic string          `json:"mainTopic" validate:"required"`
	Type      string          `json:"type" validate:"required"`
	Language  string          `json:"lang"`
	Content   json.RawMessage `json:"content" validate:"required"`
}

// ShareCourseRequest is the body of POST /courseshared.
type ShareCourseRequest struct {
	UserID    uuid.UUID       `json:"userId"`
	MainTopic string          `json:"mainTopic" validate:"required"`
	Type      string          `json:"type" validate:"required"`
	Photo     string          `json:"photo"`
	Content   json.RawMessage `json:"content" validate:"required"`
}

// UpdateCourseRequest is the body of POST /update.
type UpdateCourseRequest struct {
	CourseID uuid.UUID       `json:"courseId" validate:"required"`
	Content  json.RawMessage `json:"content" validate:"required"`
	Version  int             `json:"version" validate:"required"`
}

type CourseIDRequest struct {
	CourseID uuid.UUID `json:"courseId" validate:"required"`
}

// SubtopicRef addresses one subtopic inside a course tree.
type SubtopicRef struct {
	TopicIndex    int `json:"topicIndex" validate:"min=0"`
	SubtopicIndex int `json:"subtopicIndex" validate:"min=0"`
}

type MarkDoneRequest struct {
	SubtopicRef
	Done bool `json:"done"`
}

// Progress is the output of the progress tracker.
type Progress struct {
	Done       int  `json:"done"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Complete   bool `json:"complete"`
}

type Language struct {
	CourseID uuid.UUID `json:"course" validate:"required"`
	Lang     string    `json:"lang" validate:"required"`
}

type Notes struct {
	CourseID uuid.UUID `json:"course" validate:"required"`
	Notes    string    `json:"notes"`
}

// Exam stores the generated quiz for a course and its outcome.
type Exam struct {
	CourseID  uuid.UUID      `json:"course"`
	Questions []ExamQuestion `json:"exam"`
	Marks     int            `json:"marks"`
	Passed    bool           `json:"passed"`
}

type ExamQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type ExamRequest struct {
	CourseID        uuid.UUID `json:"courseId" validate:"required"`
	MainTopic       string    `json:"mainTopic" validate:"required"`
	SubtopicsString string    `json:"subtopicsString"`
	Language        string    `json:"lang"`
}

type ExamResultRequest struct {
	CourseID uuid.UUID `json:"courseId" validate:"required"`
	Marks    int       `json:"marks" validate:"min=0"`
}
