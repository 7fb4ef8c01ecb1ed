package service

import (
	"context"
	"errors"
	"testing"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	reply    string
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func newFakeGemini(gen *fakeGenerator) *GeminiService {
	return &GeminiService{models: gen, model: "text-model", visionModel: "vision-model"}
}

func TestGeminiTextOnly(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "hi there"}
	prompt := NewPromptAssembler("sys", 10).Assemble(
		[]domain.Turn{{User: "q", Bot: "a"}},
		"hello",
		[]domain.Fragment{domain.TextFragment("[File: a.txt]\nbody")},
	)

	got, err := newFakeGemini(gen).Complete(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
	assert.Equal(t, "text-model", gen.model)

	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 1)
	assert.Equal(t, "sys\n\nUser: q\nBot: a\n\nUser: hello\nBot:\n\n[File: a.txt]\nbody", parts[0].Text)
}

func TestGeminiImagesUseVisionModel(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "a cat"}
	img := &domain.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}
	prompt := NewPromptAssembler("sys", 10).Assemble(nil, "", []domain.Fragment{domain.ImageFragment(img)})

	_, err := newFakeGemini(gen).Complete(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, "vision-model", gen.model)

	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, img.Data, parts[1].InlineData.Data)
}

func TestGeminiEmptyCompletion(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "  "}
	_, err := newFakeGemini(gen).Complete(context.Background(), domain.Prompt{System: "sys"})
	require.ErrorIs(t, err, domain.ErrEmptyCompletion)
}

func TestGeminiError(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	_, err := newFakeGemini(&fakeGenerator{err: boom}).Complete(context.Background(), domain.Prompt{})
	require.ErrorIs(t, err, boom)
}
