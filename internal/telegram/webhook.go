package telegram

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// Bot commands.
const (
	CommandStart   = "/start"
	CommandFilters = "/filters"
	CommandStop    = "/stop"
	CommandResume  = "/resume"
	CommandHelp    = "/help"
)

// Reply keyboard buttons, each equivalent to a command.
const (
	ButtonFilters = "🎛️ My filters"
	ButtonStop    = "🔕 Pause notifications"
	ButtonResume  = "🔔 Resume notifications"
)

var BotCommands = []Command{
	{Name: "start", Description: "Start getting new listings"},
	{Name: "filters", Description: "Edit your filters"},
	{Name: "stop", Description: "Pause notifications"},
	{Name: "resume", Description: "Resume notifications"},
	{Name: "help", Description: "Show the available commands"},
}

const helpText = "<b>TheFinder bot</b>\n\n" +
	"/filters - edit your filters\n" +
	"/stop - pause notifications\n" +
	"/resume - resume notifications"

// HandleUpdate answers one webhook update. Only text messages from private chats
// are handled; anything else is ignored.
func (s *Service) HandleUpdate(ctx context.Context, update *tele.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Chat.Type != tele.ChatPrivate {
		return nil
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	logger := s.logger.WithField("chat_id", chatID)
	command := parseCommand(msg.Text)
	logger.WithField("command", command).Debug("Handling bot message")

	switch command {
	case CommandStart:
		return s.handleStart(ctx, chatID)
	case CommandFilters:
		return s.sendFiltersLink(ctx, chatID, "🎛️ Edit your filters here:")
	case CommandStop:
		if err := s.store.SetTelegramSubscriptionActive(ctx, chatID, false); err != nil {
			return err
		}
		return s.send(ctx, Message{ChatID: chatID, Text: "🔕 Notifications paused. Send /resume to get them again.", Menu: true})
	case CommandResume:
		if err := s.store.SetTelegramSubscriptionActive(ctx, chatID, true); err != nil {
			return err
		}
		return s.send(ctx, Message{ChatID: chatID, Text: "🔔 Notifications resumed.", Menu: true})
	default:
		return s.send(ctx, Message{ChatID: chatID, Text: helpText, Menu: true})
	}
}

func (s *Service) handleStart(ctx context.Context, chatID string) error {
	if err := s.store.SetTelegramSubscriptionActive(ctx, chatID, true); err != nil {
		return err
	}
	return s.sendFiltersLink(ctx, chatID,
		"👋 Welcome to TheFinder!\n\nNew rental listings matching your filters will arrive in this chat.\nSet your filters here:")
}

func (s *Service) sendFiltersLink(ctx context.Context, chatID, intro string) error {
	link, err := s.SubscriptionLink(chatID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%s\n<a href=\"%s\">Personal filter page</a>", intro, html.EscapeString(link))
	return s.send(ctx, Message{ChatID: chatID, Text: text, Menu: true})
}

// parseCommand maps a message text to a command. Keyboard buttons map to their
// command and "/cmd@BotName arg" is reduced to "/cmd".
func parseCommand(text string) string {
	text = strings.TrimSpace(text)
	switch text {
	case ButtonFilters:
		return CommandFilters
	case ButtonStop:
		return CommandStop
	case ButtonResume:
		return CommandResume
	}
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	command := strings.Fields(text)[0]
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	return strings.ToLower(command)
}
