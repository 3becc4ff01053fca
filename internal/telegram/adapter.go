// Package telegram bridges the Telegram Bot API to the gateway as an
// alternate chat surface.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/mindloom/internal/delivery"
	"github.com/user/mindloom/internal/depth"
	"github.com/user/mindloom/internal/gateway"
	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/types"
)

const maxTelegramMessage = 4096

// Adapter bridges Telegram to the gateway.
type Adapter struct {
	bot        *tgbotapi.BotAPI
	gateway    *gateway.Gateway
	store      *store.Store
	thresholds types.Thresholds
}

// New creates a Telegram adapter and registers its delivery handler so
// replies produced without an OnComplete callback still reach the chat.
func New(token string, gw *gateway.Gateway, st *store.Store, th types.Thresholds, registry *delivery.Registry) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	a := &Adapter{
		bot:        bot,
		gateway:    gw,
		store:      st,
		thresholds: th,
	}
	if registry != nil {
		registry.Register("telegram", a.deliver)
	}
	return a, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(msg)
		return
	}

	chatID := msg.Chat.ID
	turn := &gateway.Turn{
		SessionKey:   buildSessionKey(msg.From.ID, msg.Chat.ID),
		AnalysisType: types.AnalysisPersonality,
		Text:         msg.Text,
	}

	_, err := a.gateway.HandleInbound(ctx, turn, gateway.WithOnComplete(func(reply string) {
		a.send(chatID, reply)
	}))
	if err != nil {
		slog.Error("telegram inbound failed", "chat_id", chatID, "error", err)
		a.send(chatID, "Sorry, something went wrong processing your message.")
	}
}

func (a *Adapter) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	key := buildSessionKey(msg.From.ID, msg.Chat.ID)

	switch msg.Command() {
	case "start":
		a.send(chatID, "Hello! I'm here for reflective conversation. Send a message to begin, or /new <personality|creative|music|visual> to pick a mode.")

	case "new":
		t := types.AnalysisType(strings.TrimSpace(msg.CommandArguments()))
		if !t.Valid() {
			t = types.AnalysisPersonality
		}
		// Drop the session bound to this chat so the next message starts
		// a fresh one of the requested type.
		old := a.store.ResolveOrCreate(key, t)
		a.store.DeleteSession(old.ID)
		sess := a.store.ResolveOrCreate(key, t)
		a.send(chatID, fmt.Sprintf("Started a new %s conversation.", sess.AnalysisType))

	case "depth":
		sess := a.store.ResolveOrCreate(key, types.AnalysisPersonality)
		suggestions := depth.Suggest(sess.Messages, a.thresholds)
		a.send(chatID, fmt.Sprintf("Depth: %s\n%s", sess.State.Depth, strings.Join(suggestions, "\n")))

	case "status":
		sess := a.store.ResolveOrCreate(key, types.AnalysisPersonality)
		a.send(chatID, fmt.Sprintf("Session: %s\nMessages: %d\nQuality: %.0f",
			sess.Title, len(sess.Messages), sess.State.QualityAverage))

	default:
		a.send(chatID, "Unknown command. Available: /start, /new, /depth, /status")
	}
}

// deliver is the delivery.Registry handler for keys of the form
// telegram:<user_id>:<chat_id>.
func (a *Adapter) deliver(key types.SessionKey, reply string) error {
	parts := strings.Split(string(key), ":")
	if len(parts) != 3 {
		return fmt.Errorf("malformed telegram session key: %s", key)
	}
	chatID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id from key %s: %w", key, err)
	}
	a.send(chatID, reply)
	return nil
}

func (a *Adapter) send(chatID int64, text string) {
	for _, part := range splitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := a.bot.Send(msg); err != nil {
			slog.Error("telegram send failed", "chat_id", chatID, "error", err)
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > maxTelegramMessage {
		// Cut on a rune boundary so each chunk stays valid UTF-8.
		end := maxTelegramMessage
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return append(parts, text)
}

func buildSessionKey(userID, chatID int64) types.SessionKey {
	return types.NewSessionKey("telegram",
		strconv.FormatInt(userID, 10),
		strconv.FormatInt(chatID, 10),
	)
}
