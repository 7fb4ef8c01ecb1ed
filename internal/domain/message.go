package domain

import "context"

// Attachment describes a file attached to an inbound message.
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
}

// InboundMessage is a chat message normalized across transports.
type InboundMessage struct {
	ID          string
	AuthorID    string
	ChannelID   string
	Text        string
	Attachments []Attachment
	IsBot       bool
	Source      string
	// AttachmentErr is set when the transport could not resolve an
	// attachment link. The message is still delivered so it can be answered
	// with the error.
	AttachmentErr error
}

// Responder sends replies back to the conversation an inbound message came from.
type Responder interface {
	// Reply sends text as a threaded reply to the triggering message.
	Reply(ctx context.Context, text string) error
	// Typing shows a typing indicator until the returned func is called.
	Typing(ctx context.Context) (stop func())
}

// Message sources.
const (
	SourceDiscord  = "discord"
	SourceTelegram = "telegram"
)
