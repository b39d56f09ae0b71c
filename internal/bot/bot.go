package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/example/wordquest/internal/account"
	"github.com/example/wordquest/internal/game"
	"github.com/example/wordquest/internal/progression"
	"github.com/example/wordquest/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Store is the read side the bot shows to players.
type Store interface {
	Wallet(ctx context.Context, userID int64) (models.Wallet, error)
	UserStatistics(ctx context.Context, userID int64) (models.Statistics, error)
}

// sender is the part of *tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps are the game services the bot drives.
type Deps struct {
	Accounts *account.Service
	Policy   *progression.Policy
	Games    *game.Orchestrator
	Store    Store
	Logger   zerolog.Logger
}

// Bot is the Telegram front-end of the game. Each chat logs in as one
// player; updates are handled one at a time.
type Bot struct {
	api      sender
	token    string
	config   *BotConfig
	accounts *account.Service
	policy   *progression.Policy
	games    *game.Orchestrator
	store    Store
	log      zerolog.Logger

	mu     sync.Mutex
	logins map[int64]int64 // chat ID -> user ID
}

// New creates a bot. The Telegram connection is made by Start.
func New(token string, deps Deps, config *BotConfig) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	return &Bot{
		token:    token,
		config:   config,
		accounts: deps.Accounts,
		policy:   deps.Policy,
		games:    deps.Games,
		store:    deps.Store,
		log:      deps.Logger.With().Str("component", "bot").Logger(),
		logins:   make(map[int64]int64),
	}
}

// Start connects to Telegram and handles updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	if b.token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.api = botAPI
	b.log.Info().Str("account", botAPI.Self.UserName).Msg("authorized")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop flushes every finished game that has not been settled yet.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	users := make([]int64, 0, len(b.logins))
	for _, userID := range b.logins {
		users = append(users, userID)
	}
	b.mu.Unlock()

	var firstErr error
	for _, userID := range users {
		if _, err := b.games.Leave(ctx, userID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.log.Info().Msg("bot stopped")
	return firstErr
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.Chat == nil {
			return
		}
		var r reply
		if msg.IsCommand() {
			r = b.HandleCommand(ctx, msg.Chat.ID, msg.Command(), msg.CommandArguments())
			if b.config.HideCredentials && (msg.Command() == "register" || msg.Command() == "login") {
				b.deleteMessage(msg.Chat.ID, msg.MessageID)
			}
		} else {
			r = b.HandleText(ctx, msg.Chat.ID, msg.Text)
		}
		b.send(msg.Chat.ID, r)

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.log.Warn().Err(err).Msg("failed to answer callback")
		}
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		b.send(cb.Message.Chat.ID, b.HandleCallback(ctx, cb.Message.Chat.ID, cb.Data))
	}
}

func (b *Bot) send(chatID int64, r reply) {
	if r.Text == "" || b.api == nil {
		return
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.Keyboard != nil {
		msg.ReplyMarkup = *r.Keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if b.api == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.log.Debug().Err(err).Msg("could not delete credentials message")
	}
}

// MainMenuButtons returns the main menu.
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "▶️ Play", CallbackData: "play"}, {Text: "🗺 Levels", CallbackData: "levels"}},
		{{Text: "💰 Status", CallbackData: "status"}, {Text: "❓ Help", CallbackData: "help"}},
	}
}

// gameButtons are shown under a board while a game is running.
func gameButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "💡 Reveal letter", CallbackData: "reveal"}, {Text: "⏭ Skip word", CallbackData: "skip"}},
		{{Text: "🚪 Quit", CallbackData: "quit"}},
	}
}

func (b *Bot) login(chatID, userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logins[chatID] = userID
}

func (b *Bot) logout(chatID int64) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID, ok := b.logins[chatID]
	delete(b.logins, chatID)
	return userID, ok
}

func (b *Bot) userFor(chatID int64) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID, ok := b.logins[chatID]
	return userID, ok
}
