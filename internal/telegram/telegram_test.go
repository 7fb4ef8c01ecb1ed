package telegram

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/handler"
	"github.com/set-night/relaybot/internal/repository"
	"github.com/set-night/relaybot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"use `go test", "use `go test`"},
		{"```go\nfmt.Println()", "```go\nfmt.Println()\n```"},
		{"`a` and `b`", "`a` and `b`"},
		{"```\n`x\n```", "```\n`x\n```"},
		{"`open ```code```", "`open ````code```"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FixMarkdown(tt.in), tt.in)
	}
}

type fakeFiles struct {
	err error
}

func (f fakeFiles) GetFile(_ context.Context, params *bot.GetFileParams) (*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.File{FileID: params.FileID, FilePath: "files/" + params.FileID}, nil
}

func (f fakeFiles) FileDownloadLink(file *models.File) string {
	return "https://api.telegram.org/file/botTOKEN/" + file.FilePath
}

func TestToInbound(t *testing.T) {
	t.Parallel()

	m := &models.Message{
		ID:      7,
		Chat:    models.Chat{ID: -100},
		From:    &models.User{ID: 42},
		Caption: " what is this? ",
		Photo: []models.PhotoSize{
			{FileID: "small", FileUniqueID: "s"},
			{FileID: "large", FileUniqueID: "l"},
		},
		Document: &models.Document{FileID: "doc", FileName: "notes.txt", MimeType: "text/plain"},
	}

	msg, err := toInbound(context.Background(), fakeFiles{}, m)
	require.NoError(t, err)
	assert.Equal(t, "7", msg.ID)
	assert.Equal(t, "tg:42", msg.AuthorID)
	assert.Equal(t, "-100", msg.ChannelID)
	assert.Equal(t, " what is this? ", msg.Text)
	assert.Equal(t, domain.SourceTelegram, msg.Source)
	assert.Equal(t, []domain.Attachment{
		{URL: "https://api.telegram.org/file/botTOKEN/files/large", Filename: "l.jpg", ContentType: "image/jpeg"},
		{URL: "https://api.telegram.org/file/botTOKEN/files/doc", Filename: "notes.txt", ContentType: "text/plain"},
	}, msg.Attachments)
}

func TestToInboundFileError(t *testing.T) {
	t.Parallel()

	m := &models.Message{
		Chat:     models.Chat{ID: 1},
		From:     &models.User{ID: 3},
		Text:     "see attached",
		Document: &models.Document{FileID: "doc"},
	}
	msg, err := toInbound(context.Background(), fakeFiles{err: errors.New("file is too big")}, m)
	require.ErrorContains(t, err, "file is too big")
	assert.Equal(t, "tg:3", msg.AuthorID)
	assert.Equal(t, "see attached", msg.Text)
	assert.Empty(t, msg.Attachments)
}

func TestToInboundCaptionOnlyWhenTextBlank(t *testing.T) {
	t.Parallel()

	m := &models.Message{Chat: models.Chat{ID: 1}, Text: "  keep me  ", Caption: "ignored"}
	msg, err := toInbound(context.Background(), fakeFiles{}, m)
	require.NoError(t, err)
	assert.Equal(t, "  keep me  ", msg.Text)
}

type countingCompleter struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCompleter) Complete(context.Context, domain.Prompt) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return "unused", nil
}

func TestDeliverAttachmentErrorRepliesOnce(t *testing.T) {
	t.Parallel()

	store, err := repository.LoadFileStore(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)
	completer := &countingCompleter{}
	h := handler.New(handler.Deps{
		Store:       store,
		Attachments: service.NewAttachmentService(service.NewHTTPFetcher(nil, 0)),
		Completer:   completer,
	})
	tr := &Transport{logger: slog.Default(), handle: h.HandleMessage}

	m := testMessage()
	m.From = &models.User{ID: 42}
	m.Document = &models.Document{FileID: "doc", FileName: "big.zip"}
	sender := &fakeSender{}

	require.True(t, tr.deliver(context.Background(), fakeFiles{err: errors.New("file is too big")}, sender, m))
	tr.inflight.Close()

	require.Len(t, sender.sent, 1)
	assert.True(t, strings.HasPrefix(sender.sent[0].Text, config.ErrorReplyPrefix))
	assert.Contains(t, sender.sent[0].Text, "file is too big")
	assert.Zero(t, completer.calls)
	assert.Empty(t, store.Snapshot("tg:42"))
}

func TestDeliverAfterCloseIsDropped(t *testing.T) {
	t.Parallel()

	called := false
	tr := &Transport{
		logger: slog.Default(),
		handle: func(context.Context, domain.InboundMessage, domain.Responder) { called = true },
	}
	tr.inflight.Close()

	assert.False(t, tr.deliver(context.Background(), fakeFiles{}, &fakeSender{}, testMessage()))
	assert.False(t, called)
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []*bot.SendMessageParams
	actions int
	failMD  bool
	failAll bool
}

func (s *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll || (s.failMD && params.ParseMode != "") {
		return nil, errors.New("can't parse entities")
	}
	copied := *params
	s.sent = append(s.sent, &copied)
	return &models.Message{ID: len(s.sent)}, nil
}

func (s *fakeSender) SendChatAction(context.Context, *bot.SendChatActionParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions++
	return true, nil
}

func (s *fakeSender) actionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actions
}

func testMessage() *models.Message {
	return &models.Message{ID: 9, Chat: models.Chat{ID: 5}}
}

func TestResponderReplyMarkdown(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	r := newResponder(s, testMessage(), slog.Default())
	require.NoError(t, r.Reply(context.Background(), "run `ls"))

	require.Len(t, s.sent, 1)
	assert.Equal(t, "run `ls`", s.sent[0].Text)
	assert.Equal(t, models.ParseModeMarkdownV1, s.sent[0].ParseMode)
	assert.Equal(t, int64(5), s.sent[0].ChatID)
	require.NotNil(t, s.sent[0].ReplyParameters)
	assert.Equal(t, 9, s.sent[0].ReplyParameters.MessageID)
}

func TestResponderReplyFallsBackToPlainText(t *testing.T) {
	t.Parallel()

	s := &fakeSender{failMD: true}
	r := newResponder(s, testMessage(), slog.Default())
	require.NoError(t, r.Reply(context.Background(), "a_b*c"))

	require.Len(t, s.sent, 1)
	assert.Equal(t, "a_b*c", s.sent[0].Text)
	assert.Empty(t, s.sent[0].ParseMode)
}

func TestResponderReplyError(t *testing.T) {
	t.Parallel()

	r := newResponder(&fakeSender{failAll: true}, testMessage(), slog.Default())
	require.Error(t, r.Reply(context.Background(), "x"))
}

func TestResponderTyping(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	r := newResponder(s, testMessage(), slog.Default())
	r.interval = 5 * time.Millisecond

	stop := r.Typing(context.Background())
	assert.Eventually(t, func() bool { return s.actionCount() >= 2 }, time.Second, time.Millisecond)
	stop()

	n := s.actionCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, s.actionCount())
}

func TestOpsLogger(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	NewOpsLogger(s, -200, 3).LogError(errors.New("disk full"), "save history")

	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(-200), s.sent[0].ChatID)
	assert.Equal(t, 3, s.sent[0].MessageThreadID)
	assert.Contains(t, s.sent[0].Text, "save history")
	assert.Contains(t, s.sent[0].Text, "disk full")

	silent := &fakeSender{}
	NewOpsLogger(silent, 0, 0).LogError(errors.New("x"), "y")
	assert.Empty(t, silent.sent)
}
