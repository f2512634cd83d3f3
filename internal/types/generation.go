package types

import "github.com/google/uuid"

// SkeletonRequest is the body of POST /prompt.
type SkeletonRequest struct {
	UserID     uuid.UUID `json:"-"`
	MainTopic  string    `json:"mainTopic" validate:"required"`
	Subtopics  []string  `json:"subtopics"`
	TopicCount int       `json:"topicCount" validate:"min=0"`
	Type       string    `json:"type" validate:"required"`
	Language   string    `json:"lang"`
}

// SkeletonResponse carries the generated, not yet persisted, content tree.
type SkeletonResponse struct {
	Success bool          `json:"success"`
	Mock    bool          `json:"mock,omitempty"`
	Content CourseContent `json:"content"`
}

// PromptRequest is the body of the thin provider proxies.
type PromptRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt  string        `json:"prompt" validate:"required"`
	History []ChatMessage `json:"history"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// GenerateSubtopicResponse is returned by the server-side pipeline endpoint.
type GenerateSubtopicResponse struct {
	Success   bool     `json:"success"`
	Generated bool     `json:"generated"`
	Subtopic  Subtopic `json:"subtopic"`
	Version   int      `json:"version"`
}
