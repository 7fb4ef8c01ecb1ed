package config

import "time"

const (
	// Conversation window read back into every prompt
	HistoryWindow = 10

	// Discord limits
	MaxReplyLen = 2000

	// Attachment text is cut to this many characters before it reaches the prompt
	AttachmentTextLimit = 2000

	// Only the first pages of a PDF are read
	PDFMaxPages = 5

	// Hard cap on a downloaded attachment
	MaxAttachmentBytes int64 = 25 * 1024 * 1024

	// Attachment download timeout
	FetchTimeout = 30 * time.Second

	// AI request timeout
	RequestTimeout = 90 * time.Second

	// Typing indicator refresh interval
	TypingInterval = 8 * time.Second

	// Command prefixes, "!" on Discord and "/" on Telegram
	DiscordCommandPrefix  = "!"
	TelegramCommandPrefix = "/"

	// The only command the bot understands
	CommandClearHistory = "clearhistory"
)

// SystemPrompt opens every prompt.
const SystemPrompt = "You are a helpful assistant. Be friendly and concise."

// Placeholders for messages that carry attachments but no text.
const (
	AttachmentOnlyPrompt  = "[Sent attachment(s)]"
	AttachmentOnlyHistory = "[Image/File]"
)

// User-visible replies.
const (
	ErrorReplyPrefix     = "❌ Error: "
	HistoryClearedReply  = "✅ Your chat history has been cleared!"
	HistoryNotFoundReply = "You don't have any chat history yet!"
)

// TextFileExtensions are fetched and inlined as plain text.
var TextFileExtensions = []string{".txt", ".py", ".js", ".html", ".css", ".json"}
