package handler

import (
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/repository"
	"github.com/set-night/relaybot/internal/service"
)

// ErrorReporter forwards failures to an operator channel.
type ErrorReporter interface {
	LogError(err error, context string)
}

// Handler holds all dependencies needed by the message and command handlers.
type Handler struct {
	store       repository.HistoryStore
	attachments *service.AttachmentService
	assembler   *service.PromptAssembler
	completer   service.Completer
	dispatcher  *service.ReplyDispatcher
	locks       *repository.UserLocks
	reporter    ErrorReporter
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Store       repository.HistoryStore
	Attachments *service.AttachmentService
	Assembler   *service.PromptAssembler
	Completer   service.Completer
	Dispatcher  *service.ReplyDispatcher
	Locks       *repository.UserLocks
	Reporter    ErrorReporter
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	h := &Handler{
		store:       deps.Store,
		attachments: deps.Attachments,
		assembler:   deps.Assembler,
		completer:   deps.Completer,
		dispatcher:  deps.Dispatcher,
		locks:       deps.Locks,
		reporter:    deps.Reporter,
	}
	if h.assembler == nil {
		h.assembler = service.NewPromptAssembler(config.SystemPrompt, config.HistoryWindow)
	}
	if h.dispatcher == nil {
		h.dispatcher = service.NewReplyDispatcher(h.store, config.MaxReplyLen)
	}
	if h.locks == nil {
		h.locks = repository.NewUserLocks()
	}
	return h
}

func (h *Handler) report(err error, where string) {
	if h.reporter != nil {
		h.reporter.LogError(err, where)
	}
}
