package generation

import (
	"context"
	"time"

	generativeAI "github.com/FACorreiaa/ai-course-generator/internal/api/generative_ai"
	"github.com/FACorreiaa/ai-course-generator/internal/api/media"
)

// Provider is everything the pipeline needs from external content services.
type Provider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	FindImage(ctx context.Context, query string) (string, error)
	FindVideo(ctx context.Context, query string) (string, error)
	GetTranscript(ctx context.Context, videoID string) ([]string, error)
}

// ChatProvider answers AI teacher messages.
type ChatProvider interface {
	Chat(ctx context.Context, history []generativeAI.ChatTurn, message string) (string, error)
	Configured() bool
}

var _ Provider = (*Adapter)(nil)

// Adapter binds the Gemini client and the media searchers into a Provider.
// Each call gets its own deadline on top of the caller's context.
type Adapter struct {
	AI          *generativeAI.AIClient
	Images      *media.ImageSearch
	Videos      *media.VideoSearch
	Transcripts *media.Transcripts
	Timeout     time.Duration
}

func (a *Adapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.Timeout)
}

func (a *Adapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.AI.GenerateContent(ctx, prompt, nil)
}

func (a *Adapter) FindImage(ctx context.Context, query string) (string, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.Images.FindImage(ctx, query)
}

func (a *Adapter) FindVideo(ctx context.Context, query string) (string, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.Videos.FindVideo(ctx, query)
}

func (a *Adapter) GetTranscript(ctx context.Context, videoID string) ([]string, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.Transcripts.GetTranscript(ctx, videoID)
}

func (a *Adapter) Chat(ctx context.Context, history []generativeAI.ChatTurn, message string) (string, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.AI.Chat(ctx, history, message)
}

func (a *Adapter) Configured() bool {
	return a.AI.Configured()
}
