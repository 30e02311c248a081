package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

// Message is an outbound chat message in Telegram HTML markup.
type Message struct {
	ChatID string
	Text   string

	// Menu attaches the persistent reply keyboard
	Menu bool
}

// Messenger delivers messages to Telegram chats.
type Messenger interface {
	Send(ctx context.Context, msg Message) error
}

// Command is an entry of the bot command menu.
type Command struct {
	Name        string
	Description string
}

// CommandRegistrar is implemented by messengers that can publish the bot command menu.
type CommandRegistrar interface {
	SetCommands(commands []Command) error
}

// BotMessenger talks to the Bot API through telebot.
type BotMessenger struct {
	bot *tele.Bot
}

// NewBotMessenger creates a messenger for the given bot token. apiURL may be
// empty to use the public Bot API.
func NewBotMessenger(token, apiURL string) (*BotMessenger, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		URL:     apiURL,
		Offline: true,
		Client:  &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &BotMessenger{bot: bot}, nil
}

func (m *BotMessenger) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID %q: %w", msg.ChatID, err)
	}

	opts := &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	}
	if msg.Menu {
		opts.ReplyMarkup = menuMarkup()
	}

	if _, err := m.bot.Send(tele.ChatID(id), msg.Text, opts); err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	return nil
}

func (m *BotMessenger) SetCommands(commands []Command) error {
	list := make([]tele.Command, len(commands))
	for i, c := range commands {
		list[i] = tele.Command{Text: c.Name, Description: c.Description}
	}
	if err := m.bot.SetCommands(list); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

func menuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(ButtonFilters)),
		menu.Row(menu.Text(ButtonStop), menu.Text(ButtonResume)),
	)
	return menu
}

// DisabledMessenger drops every message. It is used when no bot token is configured.
type DisabledMessenger struct {
	Logger *logrus.Logger
}

func (m DisabledMessenger) Send(ctx context.Context, msg Message) error {
	if m.Logger != nil {
		m.Logger.WithField("chat_id", msg.ChatID).Debug("Telegram disabled, message dropped")
	}
	return nil
}
