package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
)

type OpenRouterService struct {
	apiKey      string
	baseURL     string
	model       string
	visionModel string
	httpClient  *http.Client
}

func NewOpenRouterService(apiKey, baseURL, model, visionModel string) *OpenRouterService {
	return &OpenRouterService{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: config.RequestTimeout},
	}
}

type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *OpenRouterService) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	model := selectModel(prompt, s.model, s.visionModel)

	resp, err := s.Chat(ctx, encodeMessages(prompt), model)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", domain.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenRouterService) Chat(ctx context.Context, messages []ChatMessage, model string) (*ChatResponse, error) {
	payload, err := json.Marshal(ChatRequest{Model: model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w (429)", domain.ErrRateLimited)
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("%w (503)", domain.ErrProviderDown)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("chat request: status %d: %s", resp.StatusCode, truncateRunes(string(body), 200))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &chatResp, nil
}

// encodeMessages renders the prompt as role-tagged messages: system, the
// history as user/assistant pairs, then the current message as typed parts.
func encodeMessages(prompt domain.Prompt) []ChatMessage {
	messages := make([]ChatMessage, 0, 2+2*len(prompt.History))
	messages = append(messages, ChatMessage{Role: "system", Content: prompt.System})
	for _, t := range prompt.History {
		messages = append(messages,
			ChatMessage{Role: "user", Content: t.User},
			ChatMessage{Role: "assistant", Content: t.Bot},
		)
	}

	parts := []ContentPart{{Type: "text", Text: prompt.Current.Text}}
	for _, f := range prompt.Current.Fragments {
		switch f.Kind {
		case domain.FragmentText:
			parts = append(parts, ContentPart{Type: "text", Text: f.Text})
		case domain.FragmentImage:
			if f.Image == nil {
				continue
			}
			parts = append(parts, ContentPart{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: dataURI(f.Image)},
			})
		}
	}
	messages = append(messages, ChatMessage{Role: "user", Content: parts})
	return messages
}

func dataURI(img *domain.Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
