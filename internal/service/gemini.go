package service

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/set-night/relaybot/internal/domain"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiService sends the whole conversation as one text part followed by
// an inline part per image.
type GeminiService struct {
	models      contentGenerator
	model       string
	visionModel string
}

func NewGeminiService(ctx context.Context, apiKey, model, visionModel string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiService{models: client.Models, model: model, visionModel: visionModel}, nil
}

func (s *GeminiService) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	model := selectModel(prompt, s.model, s.visionModel)

	resp, err := s.models.GenerateContent(ctx, model, encodeGemini(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyCompletion
	}
	return text, nil
}

func encodeGemini(prompt domain.Prompt) []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(prompt.Transcript())}
	for _, img := range prompt.Images() {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
