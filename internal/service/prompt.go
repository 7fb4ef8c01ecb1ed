package service

import (
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
)

// PromptAssembler builds the provider-neutral prompt for one message.
type PromptAssembler struct {
	system string
	window int
}

func NewPromptAssembler(system string, window int) *PromptAssembler {
	return &PromptAssembler{system: system, window: window}
}

// Assemble keeps the last window turns of history in order, then the
// current text (or a placeholder when the message only had attachments) and
// the fragments in attachment order.
func (a *PromptAssembler) Assemble(history []domain.Turn, text string, fragments []domain.Fragment) domain.Prompt {
	if text == "" {
		text = config.AttachmentOnlyPrompt
	}
	frags := make([]domain.Fragment, len(fragments))
	copy(frags, fragments)

	return domain.Prompt{
		System:  a.system,
		History: domain.LastTurns(history, a.window),
		Current: domain.CurrentTurn{
			Text:      text,
			Fragments: frags,
		},
	}
}
