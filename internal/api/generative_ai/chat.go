package generativeAI

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
)

// ChatTurn is one prior message of an AI teacher conversation.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "model"
	Message string `json:"message"`
}

type ChatSession struct {
	chat *genai.Chat
}

func (ai *AIClient) StartChatSession(ctx context.Context, config *genai.GenerateContentConfig, history []ChatTurn) (*ChatSession, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "StartChatSession", trace.WithAttributes(
		attribute.String("model", ai.model),
		attribute.Int("history.length", len(history)),
	))
	defer span.End()

	if !ai.Configured() {
		return nil, ErrNotConfigured
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == string(genai.RoleModel) || turn.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Message, role))
	}

	chat, err := ai.client.Chats.Create(ctx, ai.model, config, contents)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create chat session")
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	span.SetStatus(codes.Ok, "Chat session created successfully")
	return &ChatSession{chat: chat}, nil
}

func (cs *ChatSession) SendMessage(ctx context.Context, message string) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "SendMessage", trace.WithAttributes(
		attribute.Int("message.length", len(message)),
	))
	defer span.End()

	start := time.Now()
	result, err := cs.chat.SendMessage(ctx, genai.Part{Text: message})
	metrics.RecordProviderCall(ctx, "chat", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		return "", fmt.Errorf("failed to send chat message: %w", err)
	}

	responseText := result.Text()
	span.SetAttributes(attribute.Int("response.length", len(responseText)))
	span.SetStatus(codes.Ok, "Message sent successfully")
	return responseText, nil
}

// Chat answers message in the context of history with a fresh session.
func (ai *AIClient) Chat(ctx context.Context, history []ChatTurn, message string) (string, error) {
	session, err := ai.StartChatSession(ctx, &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.5)}, history)
	if err != nil {
		return "", err
	}
	return session.SendMessage(ctx, message)
}
