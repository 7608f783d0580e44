// Package telegram answers Telegram messages with timelines.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/timelineai/internal/render"
	"github.com/user/timelineai/internal/stream"
	"github.com/user/timelineai/internal/types"
)

const maxTelegramMessage = 4096

const welcome = "Hello! Send me a company, person or product and I'll build its timeline. You can also just ask me a question."

// Sender is the part of the bot API the adapter replies through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Limiter caps concurrent pipelines. It is shared with the HTTP server.
type Limiter interface {
	TryAcquire() (release func(), ok bool)
}

// Adapter bridges Telegram to the orchestrator.
type Adapter struct {
	bot     *tgbotapi.BotAPI
	sender  Sender
	run     func(ctx context.Context, query string) (*stream.Result, error)
	limiter Limiter
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// New creates a Telegram adapter. limiter may be nil.
func New(token string, o *stream.Orchestrator, limiter Limiter) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	a := newAdapter(bot, func(ctx context.Context, query string) (*stream.Result, error) {
		return stream.Drain(ctx, o, query)
	}, limiter)
	a.bot = bot
	return a, nil
}

func newAdapter(sender Sender, run func(context.Context, string) (*stream.Result, error), limiter Limiter) *Adapter {
	return &Adapter{
		sender:  sender,
		run:     run,
		limiter: limiter,
		logger:  slog.Default().With("component", "telegram"),
	}
}

// Start long-polls for Telegram updates until ctx is done, then waits for
// in-flight replies.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)
	a.logger.Info("telegram polling started", "bot", a.bot.Self.UserName)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			msg := update.Message
			a.wg.Add(1)
			go func() {
				defer a.wg.Done()
				a.handleMessage(ctx, msg)
			}()
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			a.wg.Wait()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Handle commands
	if msg.IsCommand() {
		a.handleCommand(msg)
		return
	}

	chatID := msg.Chat.ID
	source := buildSourceKey(msg.From, chatID)
	logger := a.logger.With("source", source)

	if a.limiter != nil {
		release, ok := a.limiter.TryAcquire()
		if !ok {
			a.sendResponse(chatID, stream.MsgBusy)
			return
		}
		defer release()
	}

	if _, err := a.sender.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.Debug("send chat action", "error", err)
	}

	ctx = types.WithRequestID(ctx, types.NewRequestID())
	result, err := a.run(ctx, msg.Text)
	if err != nil {
		logger.Warn("pipeline failed", "error", err)
		if ctx.Err() != nil {
			return
		}
	}

	text := render.Plain(result)
	if strings.TrimSpace(text) == "" {
		text = stream.MsgGenerationErr
	}
	a.sendResponse(chatID, text)
}

func (a *Adapter) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		a.sendResponse(chatID, welcome)

	default:
		a.sendResponse(chatID, "Unknown command. Available: /start, /help")
	}
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	for _, part := range splitMessage(text) {
		if _, err := a.sender.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			a.logger.Error("send message", "chat_id", chatID, "error", err)
			return
		}
	}
}

// splitMessage cuts text into Telegram-sized parts, preferring line breaks
// and never splitting a rune.
func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > maxTelegramMessage {
		end := maxTelegramMessage
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		if nl := strings.LastIndexByte(text[:end], '\n'); nl > maxTelegramMessage/2 {
			end = nl + 1
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func buildSourceKey(from *tgbotapi.User, chatID int64) types.SourceKey {
	user := "unknown"
	if from != nil {
		user = strconv.FormatInt(from.ID, 10)
	}
	return types.NewSourceKey("telegram", user, strconv.FormatInt(chatID, 10))
}
