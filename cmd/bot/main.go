package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	relaybot "github.com/set-night/relaybot"
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/discord"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/handler"
	"github.com/set-night/relaybot/internal/middleware"
	"github.com/set-night/relaybot/internal/repository"
	"github.com/set-night/relaybot/internal/service"
	"github.com/set-night/relaybot/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openHistoryStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open history store", "error", err, "backend", cfg.HistoryBackend)
		os.Exit(1)
	}
	defer store.Close()

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		slog.Error("failed to create completion client", "error", err, "provider", cfg.Provider)
		os.Exit(1)
	}

	// Handler pointer for use in the transport closures
	var h *handler.Handler
	dispatch := func(ctx context.Context, msg domain.InboundMessage, r domain.Responder) {
		h.HandleMessage(ctx, msg, r)
	}

	var (
		tg       *telegram.Transport
		reporter handler.ErrorReporter
	)
	if cfg.TelegramEnabled() {
		tg, err = telegram.New(cfg.TelegramToken, middleware.Chain(dispatch,
			middleware.Recover(),
			middleware.Logging(),
			middleware.SkipBots(),
			middleware.ChannelGate(strconv.FormatInt(cfg.TelegramChatID, 10)),
		), logger)
		if err != nil {
			slog.Error("failed to create telegram bot", "error", err)
			os.Exit(1)
		}
		if cfg.LogTelegramChatID != 0 {
			reporter = telegram.NewOpsLogger(tg.Bot(), cfg.LogTelegramChatID, cfg.LogTelegramTopicID)
		}
	}

	// Initialize services and handler
	fetcher := service.NewHTTPFetcher(nil, config.MaxAttachmentBytes)
	h = handler.New(handler.Deps{
		Store:       store,
		Attachments: service.NewAttachmentService(fetcher),
		Assembler:   service.NewPromptAssembler(config.SystemPrompt, config.HistoryWindow),
		Completer:   completer,
		Dispatcher:  service.NewReplyDispatcher(store, config.MaxReplyLen),
		Locks:       repository.NewUserLocks(),
		Reporter:    reporter,
	})

	dc, err := discord.New(cfg.DiscordToken, middleware.Chain(dispatch,
		middleware.Recover(),
		middleware.Logging(),
		middleware.SkipBots(),
		middleware.ChannelGate(cfg.ChannelID),
	), logger)
	if err != nil {
		slog.Error("failed to create discord session", "error", err)
		os.Exit(1)
	}
	if err := dc.Start(ctx); err != nil {
		slog.Error("failed to start discord", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	if tg != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tg.Run(ctx)
		}()
	}

	slog.Info("bot started",
		"provider", cfg.Provider,
		"history_backend", cfg.HistoryBackend,
		"telegram", cfg.TelegramEnabled(),
		"all_channels", cfg.RespondsEverywhere(),
	)
	<-ctx.Done()

	// Graceful shutdown
	if err := dc.Close(); err != nil {
		slog.Error("close discord session", "error", err)
	}
	wg.Wait()
	slog.Info("bot stopped gracefully")
}

func openHistoryStore(ctx context.Context, cfg *config.Config) (repository.HistoryStore, error) {
	var (
		db  *repository.DB
		err error
	)
	switch cfg.HistoryBackend {
	case config.BackendFile:
		return repository.LoadFileStore(cfg.HistoryPath)
	case config.BackendSQLite:
		db, err = repository.OpenSQLite(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		db, err = repository.OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
	if err != nil {
		return nil, err
	}

	// Run migrations
	migrationsFS, err := fs.Sub(relaybot.MigrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(db, migrationsFS); err != nil {
		db.Close()
		return nil, err
	}
	return repository.NewSQLStore(db), nil
}

func newCompleter(ctx context.Context, cfg *config.Config) (service.Completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return service.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiVisionModel)
	case config.ProviderOpenRouter:
		return service.NewOpenRouterService(cfg.OpenRouterKey, cfg.OpenRouterURL, cfg.OpenRouterModel, cfg.OpenRouterVisionModel), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
