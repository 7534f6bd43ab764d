package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/forum/internal/notification"
	"github.com/abduss/forum/internal/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type repository interface {
	Create(ctx context.Context, first, second uuid.UUID, at time.Time) (Conversation, error)
	Get(ctx context.Context, id int) (Conversation, error)
	FindBetween(ctx context.Context, a, b uuid.UUID) (Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	Touch(ctx context.Context, id int, at time.Time) error
	CreateMessage(ctx context.Context, m MessageRecord) (MessageRecord, error)
	ListMessages(ctx context.Context, conversationID int) ([]MessageRecord, error)
	GetMessage(ctx context.Context, id int) (MessageRecord, error)
	DeleteMessage(ctx context.Context, id int) error
}

type accountLookup interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
}

type profileLookup interface {
	ProfileByID(ctx context.Context, id uuid.UUID) (user.Profile, error)
}

type notifier interface {
	Create(ctx context.Context, n notification.Notification) error
}

// Service implements private messaging between two users.
type Service struct {
	repo     repository
	accounts accountLookup
	profiles profileLookup
	notify   notifier
	nowFunc  func() time.Time
	log      *zap.Logger
}

// NewService constructs a conversation service.
func NewService(repo repository, accounts accountLookup, profiles profileLookup, notify notifier) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		profiles: profiles,
		notify:   notify,
		nowFunc:  time.Now,
		log:      zap.L().Named("conversation"),
	}
}

// ListConversations returns the conversations of username with the other participant's name.
func (s *Service) ListConversations(ctx context.Context, username string) ([]Summary, error) {
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	conversations, err := s.repo.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(conversations))
	for _, conv := range conversations {
		contact := user.UnknownUsername
		if other, err := s.accounts.FindByID(ctx, conv.Other(u.ID).String()); err == nil {
			contact = other.Username
		} else if !errors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		summaries = append(summaries, Summary{ID: conv.ID, ContactUsername: contact, LastMessageDate: conv.LastMessageDate})
	}
	return summaries, nil
}

// SendMessage delivers a message from username and returns the conversation id it landed in.
func (s *Service) SendMessage(ctx context.Context, username string, in SendInput) (int, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return 0, ErrContentCannotBeNull
	}
	if strings.TrimSpace(in.ReceiverID) == "" {
		return 0, ErrReceiverCannotBeNull
	}

	sender, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	receiver, err := s.accounts.FindByID(ctx, in.ReceiverID)
	if err != nil {
		return 0, err
	}
	if sender.ID == receiver.ID {
		return 0, ErrCannotMessageYourself
	}

	now := s.nowFunc().UTC()
	conv, err := s.resolve(ctx, sender.ID, receiver.ID, in.Conversation, now)
	if err != nil {
		return 0, err
	}

	if _, err := s.repo.CreateMessage(ctx, MessageRecord{
		ConversationID: conv.ID,
		Content:        in.Content,
		SenderID:       sender.ID,
		Date:           now,
	}); err != nil {
		return 0, err
	}
	if err := s.repo.Touch(ctx, conv.ID, now); err != nil {
		return 0, err
	}

	err = s.notify.Create(ctx, notification.Notification{
		UserID:    receiver.ID,
		Content:   fmt.Sprintf("<strong>%s</strong> vous a envoyé un message !", sender.Username),
		Context:   notification.ContextMessage,
		ContextID: conv.ID,
	})
	if err != nil {
		s.log.Warn("notify message receiver", zap.Int("conversation_id", conv.ID), zap.Error(err))
	}
	return conv.ID, nil
}

// resolve picks the conversation a message goes to. Without an explicit id the
// existing conversation between both users is reused, or a new one is opened.
func (s *Service) resolve(ctx context.Context, sender, receiver uuid.UUID, id int, now time.Time) (Conversation, error) {
	if id == 0 {
		conv, err := s.repo.FindBetween(ctx, sender, receiver)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, ErrConversationNotFound) {
			return Conversation{}, err
		}
		return s.repo.Create(ctx, sender, receiver, now)
	}

	conv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Conversation{}, err
	}
	if !conv.Includes(sender) || !conv.Includes(receiver) {
		return Conversation{}, ErrConversationNotFound
	}
	return conv, nil
}

// ListMessages returns the messages of a conversation to one of its participants.
func (s *Service) ListMessages(ctx context.Context, conversationID int, username string) ([]Message, error) {
	conv, err := s.repo.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !conv.Includes(u.ID) {
		return nil, user.ErrUserNotAuthorized
	}

	records, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoMessageFound
	}

	profiles := make(map[uuid.UUID]user.Profile, 2)
	messages := make([]Message, 0, len(records))
	for _, m := range records {
		profile, ok := profiles[m.SenderID]
		if !ok {
			if profile, err = s.profiles.ProfileByID(ctx, m.SenderID); err != nil {
				return nil, err
			}
			profiles[m.SenderID] = profile
		}
		messages = append(messages, Message{
			ID:            m.ID,
			Conversation:  m.ConversationID,
			Content:       m.Content,
			Sender:        m.SenderID,
			SenderProfile: profile,
			Receiver:      conv.Other(m.SenderID),
			Date:          m.Date,
		})
	}
	return messages, nil
}

// DeleteMessage removes a message. Only its sender may do so.
func (s *Service) DeleteMessage(ctx context.Context, id int, username string) error {
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if m.SenderID != u.ID {
		return user.ErrUserNotAuthorized
	}
	return s.repo.DeleteMessage(ctx, id)
}
