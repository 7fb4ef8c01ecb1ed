package service

import (
	"context"

	"github.com/set-night/relaybot/internal/domain"
)

// Completer sends an assembled prompt to a completion API and returns the
// reply text.
type Completer interface {
	Complete(ctx context.Context, prompt domain.Prompt) (string, error)
}

var (
	_ Completer = (*GeminiService)(nil)
	_ Completer = (*OpenRouterService)(nil)
)

// selectModel picks the vision model whenever the prompt carries an image.
func selectModel(prompt domain.Prompt, textModel, visionModel string) string {
	if prompt.HasImage() && visionModel != "" {
		return visionModel
	}
	return textModel
}
