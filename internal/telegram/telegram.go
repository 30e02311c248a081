package telegram

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"thefinder/server/internal/models"
)

// SubscriptionPath is the web page where a chat edits its filters.
const SubscriptionPath = "/dashboard/private-subscription"

// Store is the persistence the bot needs.
type Store interface {
	SetTelegramSubscriptionActive(ctx context.Context, chatID string, active bool) error
	LogMessage(ctx context.Context, channel, recipient string, postID *string) error
}

type Service struct {
	logger    *logrus.Logger
	messenger Messenger
	store     Store
	links     *LinkSigner
	appURL    string
}

func NewService(messenger Messenger, store Store, links *LinkSigner, appURL string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Service{
		logger:    logger,
		messenger: messenger,
		store:     store,
		links:     links,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

// Links returns the signer of personal subscription links.
func (s *Service) Links() *LinkSigner {
	return s.links
}

// SendMessage sends an HTML message to a chat and records it in the message log.
func (s *Service) SendMessage(ctx context.Context, chatID, text string) error {
	return s.send(ctx, Message{ChatID: chatID, Text: text})
}

func (s *Service) send(ctx context.Context, msg Message) error {
	if err := s.messenger.Send(ctx, msg); err != nil {
		return err
	}
	if err := s.store.LogMessage(ctx, models.ChannelTelegram, msg.ChatID, nil); err != nil {
		s.logger.WithError(err).WithField("chat_id", msg.ChatID).Warn("Failed to log sent message")
	}
	return nil
}

// SubscriptionLink returns the personal filter page URL of a chat.
func (s *Service) SubscriptionLink(chatID string) (string, error) {
	token, err := s.links.Sign(chatID)
	if err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("chat_id", chatID)
	query.Set("token", token)
	return fmt.Sprintf("%s%s?%s", s.appURL, SubscriptionPath, query.Encode()), nil
}

// EnsureCommands publishes the bot command menu when the messenger supports it.
func (s *Service) EnsureCommands() error {
	registrar, ok := s.messenger.(CommandRegistrar)
	if !ok {
		return nil
	}
	return registrar.SetCommands(BotCommands)
}
