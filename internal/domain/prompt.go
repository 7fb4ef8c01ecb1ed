package domain

import (
	"fmt"
	"strings"
)

// Prompt is the provider-neutral request: system text, the history window
// and the message being answered.
type Prompt struct {
	System  string
	History []Turn
	Current CurrentTurn
}

// CurrentTurn is the just-received message with its ingested attachments,
// kept in attachment order.
type CurrentTurn struct {
	Text      string
	Fragments []Fragment
}

// HasImage reports whether any fragment is an image. Model selection
// depends on nothing else.
func (p Prompt) HasImage() bool {
	for _, f := range p.Current.Fragments {
		if f.Kind == FragmentImage {
			return true
		}
	}
	return false
}

// Images returns the image fragments in order.
func (p Prompt) Images() []*Image {
	var images []*Image
	for _, f := range p.Current.Fragments {
		if f.Kind == FragmentImage && f.Image != nil {
			images = append(images, f.Image)
		}
	}
	return images
}

// Transcript renders the prompt as one block of text: system line, the
// history as User/Bot pairs, the current message and then every text
// fragment. Image fragments are not part of the transcript.
func (p Prompt) Transcript() string {
	var b strings.Builder
	b.WriteString(p.System)
	b.WriteString("\n\n")
	for _, t := range p.History {
		fmt.Fprintf(&b, "User: %s\nBot: %s\n\n", t.User, t.Bot)
	}
	fmt.Fprintf(&b, "User: %s\nBot:", p.Current.Text)
	for _, f := range p.Current.Fragments {
		if f.Kind == FragmentText {
			b.WriteString("\n\n")
			b.WriteString(f.Text)
		}
	}
	return b.String()
}
