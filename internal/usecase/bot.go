package usecase

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

const (
	historyLimit          = 5
	defaultRequestTimeout = 5 * time.Minute
	defaultUploadName     = "file.xlsx"
	cleanedPrefix         = "cleaned_"
)

// BotOptions carries the limits shown to and enforced on users.
type BotOptions struct {
	MaxFileSize       int64
	AllowedExtensions []string
	Columns           domain.Columns
	RequestTimeout    time.Duration
}

// BotDeps wires the collaborators of the chat handler. Runs and Stats may be
// nil.
type BotDeps struct {
	Messenger ports.Messenger
	Files     *FileCleaner
	Workspace ports.Workspace
	Stats     ports.StatsStore
	Runs      ports.RunRepository
	Limiter   *UploadLimiter
	Logger    *slog.Logger
}

// Bot turns chat messages into cleaning requests and replies.
type Bot struct {
	messenger ports.Messenger
	files     *FileCleaner
	workspace ports.Workspace
	stats     ports.StatsStore
	runs      ports.RunRepository
	limiter   *UploadLimiter
	opts      BotOptions
	logger    *slog.Logger

	wg sync.WaitGroup
}

// NewBot constructs the chat handler.
func NewBot(deps BotDeps, opts BotOptions) *Bot {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	allowed := make([]string, 0, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		allowed = append(allowed, strings.ToLower(ext))
	}
	opts.AllowedExtensions = allowed

	return &Bot{
		messenger: deps.Messenger,
		files:     deps.Files,
		workspace: deps.Workspace,
		stats:     deps.Stats,
		runs:      deps.Runs,
		limiter:   deps.Limiter,
		opts:      opts,
		logger:    deps.Logger,
	}
}

// Serve dispatches every update from source on its own goroutine and waits
// for in-flight requests once the source stops. Requests keep running after
// ctx is cancelled until they finish or hit RequestTimeout.
func (b *Bot) Serve(ctx context.Context, source ports.UpdateSource) error {
	err := source.Run(ctx, func(ctx context.Context, in domain.Incoming) {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()

			reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.opts.RequestTimeout)
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					b.error("request panicked", "chat_id", in.ChatID, "panic", r)
					b.reply(reqCtx, in.ChatID, msgFailed)
				}
			}()

			b.Handle(reqCtx, in)
		}()
	})

	b.wg.Wait()

	return err
}

// Handle serves one incoming message.
func (b *Bot) Handle(ctx context.Context, in domain.Incoming) {
	if in.Document != nil {
		b.handleDocument(ctx, in)
		return
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return
	}

	if !strings.HasPrefix(text, "/") {
		b.reply(ctx, in.ChatID, msgOnlyFiles)
		return
	}

	switch commandName(text) {
	case "start":
		b.reply(ctx, in.ChatID, startMessage(b.opts.AllowedExtensions))
	case "help":
		b.reply(ctx, in.ChatID, helpMessage(b.opts.Columns, b.opts.MaxFileSize, b.opts.AllowedExtensions))
	case "stats":
		b.handleStats(ctx, in.ChatID)
	case "history":
		b.handleHistory(ctx, in.ChatID)
	default:
		b.debug("unknown command", "chat_id", in.ChatID, "text", text)
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	var last *domain.Stats
	if b.stats != nil {
		stats, err := b.stats.Last(ctx, chatID)
		if err != nil {
			b.warn("cannot load last stats", "chat_id", chatID, "error", err)
		}
		last = stats
	}
	b.reply(ctx, chatID, last.Summary())
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64) {
	if b.runs == nil {
		b.reply(ctx, chatID, msgHistoryOff)
		return
	}

	runs, err := b.runs.RecentRuns(ctx, chatID, historyLimit)
	if err != nil {
		b.warn("cannot load history", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, msgHistoryOff)
		return
	}
	b.reply(ctx, chatID, historyMessage(runs))
}

func (b *Bot) handleDocument(ctx context.Context, in domain.Incoming) {
	doc := in.Document
	name := strings.TrimSpace(doc.FileName)
	if name == "" {
		name = defaultUploadName
	}
	ext := strings.ToLower(filepath.Ext(name))

	if b.opts.MaxFileSize > 0 && doc.FileSize > b.opts.MaxFileSize {
		b.reply(ctx, in.ChatID, tooLargeMessage(b.opts.MaxFileSize))
		return
	}
	if !b.allowed(ext) {
		b.reply(ctx, in.ChatID, wrongFormatMessage(b.opts.AllowedExtensions))
		return
	}

	progressID, err := b.messenger.SendMessage(ctx, in.ChatID, msgProcessing)
	if err != nil {
		b.warn("cannot send progress message", "chat_id", in.ChatID, "error", err)
	}
	defer func() {
		if progressID == 0 {
			return
		}
		if err := b.messenger.DeleteMessage(ctx, in.ChatID, progressID); err != nil {
			b.warn("cannot delete progress message", "chat_id", in.ChatID, "error", err)
		}
	}()

	if b.limiter != nil {
		if err := b.limiter.Acquire(ctx); err != nil {
			b.warn("upload rejected", "chat_id", in.ChatID, "error", err)
			if errors.Is(err, ErrTooManyUploads) {
				b.reply(ctx, in.ChatID, msgBusy)
			}
			return
		}
		defer b.limiter.Release()
	}

	b.info("processing file", "chat_id", in.ChatID, "user_id", in.UserID, "file", name, "size", doc.FileSize)

	if err := b.process(ctx, in, name, ext); err != nil {
		b.replyFailure(ctx, in.ChatID, name, err)
	}
}

func (b *Bot) process(ctx context.Context, in domain.Incoming, name, ext string) error {
	outExt, err := b.files.OutputExtension(ext)
	if err != nil {
		return err
	}

	inputPath := b.workspace.InputPath(in.UserID, ext)
	defer b.cleanup(inputPath)

	if err := b.download(ctx, in.Document.FileID, inputPath); err != nil {
		return err
	}

	outputPath := b.workspace.OutputPath(outExt)
	defer b.cleanup(outputPath)

	stats, err := b.cleanFile(ctx, in, name, ext, inputPath, outputPath)
	if err != nil {
		return err
	}

	b.reply(ctx, in.ChatID, stats.Summary())

	result, err := b.workspace.Open(outputPath)
	if err != nil {
		return err
	}
	defer result.Close()

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return b.messenger.SendDocument(ctx, in.ChatID, cleanedPrefix+stem+outExt, msgDone, result)
}

func (b *Bot) download(ctx context.Context, fileID, path string) error {
	dst, err := b.workspace.Create(path)
	if err != nil {
		return err
	}

	if err := b.messenger.DownloadFile(ctx, fileID, dst); err != nil {
		_ = dst.Close()
		return err
	}

	return dst.Close()
}

func (b *Bot) cleanFile(ctx context.Context, in domain.Incoming, name, ext, inputPath, outputPath string) (domain.Stats, error) {
	src, err := b.workspace.Open(inputPath)
	if err != nil {
		return domain.Stats{}, err
	}
	defer src.Close()

	dst, err := b.workspace.Create(outputPath)
	if err != nil {
		return domain.Stats{}, err
	}

	stats, err := b.files.Clean(ctx, Job{
		ChatID:   in.ChatID,
		UserID:   in.UserID,
		FileName: name,
		Ext:      ext,
		Input:    src,
		Output:   dst,
	})
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = closeErr
	}

	return stats, err
}

func (b *Bot) replyFailure(ctx context.Context, chatID int64, name string, err error) {
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		b.info("rejected file", "chat_id", chatID, "file", name, "error", err)
		b.reply(ctx, chatID, schemaErrorMessage(schemaErr))
		return
	}

	b.error("failed to process file", "chat_id", chatID, "file", name, "error", err)
	b.reply(ctx, chatID, msgFailed)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.messenger.SendMessage(ctx, chatID, text); err != nil {
		b.warn("cannot send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) cleanup(path string) {
	if err := b.workspace.Remove(path); err != nil {
		b.warn("cannot remove temp file", "path", path, "error", err)
	}
}

func (b *Bot) allowed(ext string) bool {
	for _, candidate := range b.opts.AllowedExtensions {
		if candidate == ext {
			return true
		}
	}
	return false
}

// commandName extracts "start" from "/start@CleanerBot arg".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

func (b *Bot) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Bot) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bot) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *Bot) error(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Error(msg, args...)
	}
}
