package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordquest/internal/account"
	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/game"
	"github.com/example/wordquest/pkg/models"
)

// reply is what a handler wants sent back to the chat.
type reply struct {
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
}

func text(format string, args ...interface{}) reply {
	return reply{Text: fmt.Sprintf(format, args...)}
}

func withKeyboard(r reply, buttons [][]MenuButton) reply {
	kb := createKeyboard(buttons)
	r.Keyboard = &kb
	return r
}

var errNotLoggedIn = errors.New("not logged in")

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, chatID int64, command, args string) reply {
	args = strings.TrimSpace(args)
	switch command {
	case "start", "help":
		return b.handleHelp()
	case "register":
		return b.handleRegister(ctx, chatID, args)
	case "login":
		return b.handleLogin(ctx, chatID, args)
	case "logout":
		return b.handleLogout(ctx, chatID)
	}

	userID, ok := b.userFor(chatID)
	if !ok {
		return b.errorReply(errNotLoggedIn)
	}

	switch command {
	case "levels":
		return b.handleLevels(ctx, userID)
	case "play":
		return b.handlePlay(ctx, userID, args)
	case "guess":
		return b.handleGuess(ctx, userID, args)
	case "reveal":
		return b.handleTool(ctx, userID, models.ToolRevealLetter)
	case "skip":
		return b.handleTool(ctx, userID, models.ToolSkipWord)
	case "buy":
		return b.handleBuy(ctx, userID, args)
	case "status":
		return b.handleStatus(ctx, userID)
	case "quit":
		return b.handleQuit(ctx, userID)
	}
	return withKeyboard(text("Unknown command. Use /help to see what I understand."), b.MainMenuButtons())
}

// HandleText treats plain messages as guesses while a game is running.
func (b *Bot) HandleText(ctx context.Context, chatID int64, msg string) reply {
	userID, ok := b.userFor(chatID)
	if !ok {
		return b.errorReply(errNotLoggedIn)
	}
	if _, playing := b.games.Active(userID); !playing {
		return withKeyboard(text("No game running. Send /play to start one."), b.MainMenuButtons())
	}
	return b.handleGuess(ctx, userID, msg)
}

// HandleCallback handles inline button presses.
func (b *Bot) HandleCallback(ctx context.Context, chatID int64, data string) reply {
	switch data {
	case "play", "levels", "status", "reveal", "skip", "quit", "help":
		return b.HandleCommand(ctx, chatID, data, "")
	}
	if lvl, ok := strings.CutPrefix(data, "play_"); ok {
		return b.HandleCommand(ctx, chatID, "play", lvl)
	}
	return text("⚠️ Unknown action")
}

func (b *Bot) handleHelp() reply {
	r := text("🔤 Guess the hidden word!\n\n" +
		"/register <username> <email> <password> - create an account\n" +
		"/login <username or email> <password> - sign in\n" +
		"/levels - your level map\n" +
		"/play [level] - play the next level or replay one\n" +
		"/guess <word> - submit a guess (or just send the word)\n" +
		"/reveal - use a reveal-letter tool\n" +
		"/skip - use a skip-word tool\n" +
		"/buy <life|reveal-letter|skip-word> - spend coins\n" +
		"/status - coins, lives, tools and stats\n" +
		"/quit - leave the current game\n\n" +
		"🟩 right letter, right place\n🟨 in the word, wrong place\n⬜ not in the word")
	return withKeyboard(r, b.MainMenuButtons())
}

func (b *Bot) handleRegister(ctx context.Context, chatID int64, args string) reply {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return text("Usage: /register <username> <email> <password>")
	}
	u, err := b.accounts.Register(ctx, account.Registration{Username: fields[0], Email: fields[1], Password: fields[2]})
	if err != nil {
		return b.errorReply(err)
	}
	b.login(chatID, u.ID)
	return withKeyboard(text("🎉 Welcome, %s! You are logged in.", u.Username), b.MainMenuButtons())
}

func (b *Bot) handleLogin(ctx context.Context, chatID int64, args string) reply {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return text("Usage: /login <username or email> <password>")
	}
	u, err := b.accounts.Authenticate(ctx, fields[0], fields[1])
	if err != nil {
		return b.errorReply(err)
	}
	b.login(chatID, u.ID)
	return withKeyboard(text("👋 Welcome back, %s!", u.Username), b.MainMenuButtons())
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64) reply {
	userID, ok := b.logout(chatID)
	if !ok {
		return text("You are not logged in.")
	}
	if _, err := b.games.Leave(ctx, userID); err != nil {
		b.log.Error().Err(err).Int64("user_id", userID).Msg("failed to flush game on logout")
	}
	return text("Logged out.")
}

func (b *Bot) handleLevels(ctx context.Context, userID int64) reply {
	statuses, err := b.policy.ListLevelStatuses(ctx, userID)
	if err != nil {
		return b.errorReply(err)
	}
	r := text("%s", renderLevels(statuses, b.config.LevelsPageSize))
	return withKeyboard(r, [][]MenuButton{{{Text: "▶️ Play next", CallbackData: "play"}}})
}

func (b *Bot) handlePlay(ctx context.Context, userID int64, args string) reply {
	var level int
	if args == "" {
		next, err := b.policy.NextPlayable(ctx, userID)
		if err != nil {
			return b.errorReply(err)
		}
		level = next
	} else {
		n, err := strconv.Atoi(args)
		if err != nil {
			return text("Usage: /play [level number]")
		}
		level = n
	}

	g, err := b.games.StartSession(ctx, userID, level)
	if err != nil {
		return b.errorReply(err)
	}
	header := fmt.Sprintf("🎯 Level %d: a %d-letter word, %d tries.\n\n",
		level, g.Session.WordLength(), g.Session.MaxAttempts())
	return withKeyboard(text("%s%s", header, renderBoard(g.Session.Board())), gameButtons())
}

func (b *Bot) handleGuess(ctx context.Context, userID int64, word string) reply {
	if word == "" {
		return text("Usage: /guess <word>")
	}
	board, settled, err := b.games.Submit(ctx, userID, word)
	if err != nil {
		return b.errorReply(err)
	}
	if settled == nil {
		return withKeyboard(text("%s", renderBoard(board)), gameButtons())
	}
	return withKeyboard(text("%s\n\n%s", renderBoard(board), renderSettlement(*settled)), b.MainMenuButtons())
}

func (b *Bot) handleTool(ctx context.Context, userID int64, kind models.ToolKind) reply {
	revealed, err := b.games.UseTool(ctx, userID, kind)
	if err != nil {
		return b.errorReply(err)
	}
	g, ok := b.games.Active(userID)
	if !ok {
		return text("No game running.")
	}
	var head string
	switch kind {
	case models.ToolRevealLetter:
		head = fmt.Sprintf("💡 The word contains %q.", strings.ToUpper(revealed))
	default:
		head = fmt.Sprintf("⏭ The word is %s.", strings.ToUpper(revealed))
	}
	return withKeyboard(text("%s\n\n%s", head, renderBoard(g.Session.Board())), gameButtons())
}

func (b *Bot) handleBuy(ctx context.Context, userID int64, args string) reply {
	if args == "" {
		return text("%s", b.renderPrices())
	}
	item, err := models.ParseItem(strings.ToLower(args))
	if err != nil {
		return text("%s", b.renderPrices())
	}
	if err := b.policy.Buy(ctx, userID, item); err != nil {
		return b.errorReply(err)
	}
	return b.handleStatus(ctx, userID)
}

func (b *Bot) handleStatus(ctx context.Context, userID int64) reply {
	w, err := b.store.Wallet(ctx, userID)
	if err != nil {
		return b.errorReply(err)
	}
	stats, err := b.store.UserStatistics(ctx, userID)
	if err != nil {
		return b.errorReply(err)
	}
	return withKeyboard(text("%s", renderStatus(w, stats, b.policy.UntilNextRefill())), b.MainMenuButtons())
}

func (b *Bot) handleQuit(ctx context.Context, userID int64) reply {
	settled, err := b.games.Leave(ctx, userID)
	if err != nil {
		return b.errorReply(err)
	}
	if settled != nil {
		return withKeyboard(text("%s", renderSettlement(*settled)), b.MainMenuButtons())
	}
	return withKeyboard(text("Game closed. No life was lost."), b.MainMenuButtons())
}

func (b *Bot) renderPrices() string {
	var sb strings.Builder
	sb.WriteString("🛒 Shop (use /buy <item>):\n")
	for _, item := range []models.Item{models.ItemLife, models.ItemRevealLetter, models.ItemSkipWord} {
		if cost, ok := b.policy.Price(item); ok {
			fmt.Fprintf(&sb, "• %s - %d coins\n", item, cost)
		}
	}
	return sb.String()
}

// errorReply turns an error into a user message. Unclassified failures are
// logged and shown generically.
func (b *Bot) errorReply(err error) reply {
	if errors.Is(err, errNotLoggedIn) {
		return text("Please /login or /register first.")
	}
	var se *game.SettleError
	if errors.As(err, &se) {
		b.log.Error().Err(err).Msg("settlement failed")
		return text("⚠️ Your result could not be fully saved. Send /quit to try again.")
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeIncompleteGuess:
		return text("✋ Your guess must have exactly as many letters as the word.")
	case apperr.CodeNoLivesRemaining:
		return text("💔 No lives left. A new one arrives at midnight, or /buy life.")
	case apperr.CodeToolExhausted:
		return text("🧰 You have none of that tool. /buy one with coins.")
	case apperr.CodeInsufficientFunds:
		return text("🪙 Not enough coins.")
	case apperr.CodeNoLettersToReveal:
		return text("Every letter is already known.")
	case apperr.CodeLevelLocked:
		return text("🔒 That level is locked. Finish the previous one first.")
	case apperr.CodeInvalidCredentials:
		return text("Wrong username or password.")
	case apperr.CodeWordUnavailable, apperr.CodeNoWordOfLength:
		b.log.Error().Err(err).Msg("corpus has no word for level")
		return text("No word is available for this level yet.")
	}

	var ae *apperr.Error
	if errors.As(err, &ae) && apperr.KindOf(err) != apperr.KindPersistence {
		return text("⚠️ %s", ae.Message)
	}
	b.log.Error().Err(err).Msg("request failed")
	return text("❌ Something went wrong. Please try again later.")
}
