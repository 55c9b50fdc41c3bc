package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrChatNotFound     = fmt.Errorf(constant.CANT_FIND, "Chat")
	ErrDuplicateMessage = errors.New("message already recorded")
	ErrEmptyPhone       = errors.New("phone number has no digits")
)

const (
	DefaultMessagePage = 50
	MaxMessagePage     = 200
)

// statusRank orders provider delivery states so late webhooks never move a
// message backwards.
var statusRank = map[string]int{
	entities.MessageStatusSent:      1,
	entities.MessageStatusDelivered: 2,
	entities.MessageStatusRead:      3,
}

// ReconcileParams describes the counterpart of an inbound or outbound
// message.
type ReconcileParams struct {
	TenantID uint
	Phone    string
	Name     string
	// InitialUnread seeds unread_count when the chat has to be created.
	InitialUnread int
}

type AppendParams struct {
	ChatID            uint
	Content           string
	IsFromMe          bool
	Status            string
	MessageType       string
	MediaURL          string
	ProviderMessageID string
	At                time.Time
	// IncrementUnread bumps the chat's unread counter with the summary.
	IncrementUnread bool
}

type Service interface {
	// Reconcile finds the tenant's chat for phone or creates it. The bool
	// reports whether a row was created.
	Reconcile(ctx context.Context, p ReconcileParams) (uint, bool, error)
	Append(ctx context.Context, p AppendParams) (entities.Message, error)

	Get(ctx context.Context, tenantID, chatID uint) (entities.Chat, error)
	List(ctx context.Context, tenantID uint, page int) ([]entities.Chat, utils.Page, error)
	Messages(ctx context.Context, tenantID, chatID, beforeID uint, limit int) ([]entities.Message, error)
	MarkRead(ctx context.Context, tenantID, chatID uint) error
	UpdateDeliveryStatus(ctx context.Context, providerMessageID, status string) (bool, error)
}

type service struct {
	repository    Repository
	countryPrefix string
	log           zerolog.Logger
	now           func() time.Time
}

func NewService(r Repository, countryPrefix string, log zerolog.Logger) Service {
	return &service{
		repository:    r,
		countryPrefix: countryPrefix,
		log:           log.With().Str("component", "chat").Logger(),
		now:           time.Now,
	}
}

func (s *service) Reconcile(ctx context.Context, p ReconcileParams) (uint, bool, error) {
	if utils.DigitsOnly(p.Phone) == "" {
		return 0, false, ErrEmptyPhone
	}
	variants := utils.NormalizePhone(p.Phone, s.countryPrefix)
	candidates := variants.Candidates()

	existing, err := s.repository.FindByPhones(ctx, p.TenantID, candidates)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("find chat for %s: %w", variants.WithPrefix, err)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = p.Phone
	}
	chat := entities.Chat{
		UserID:      p.TenantID,
		Phone:       variants.WithPrefix,
		Name:        name,
		UnreadCount: p.InitialUnread,
	}
	created, err := s.repository.CreateIfAbsent(ctx, &chat)
	if err != nil {
		s.log.Error().Err(err).Uint("tenant_id", p.TenantID).Str("phone", variants.WithPrefix).Msg("create chat failed")
		return 0, false, fmt.Errorf("create chat for %s: %w", variants.WithPrefix, err)
	}
	if created {
		s.log.Info().Uint("tenant_id", p.TenantID).Uint("chat_id", chat.ID).Str("phone", chat.Phone).Msg("chat created")
		return chat.ID, true, nil
	}

	// Lost the insert race to a concurrent request for the same number.
	existing, err = s.repository.FindByPhones(ctx, p.TenantID, candidates)
	if err != nil {
		return 0, false, fmt.Errorf("re-read chat for %s: %w", variants.WithPrefix, err)
	}
	return existing.ID, false, nil
}

func (s *service) Append(ctx context.Context, p AppendParams) (entities.Message, error) {
	at := p.At
	if at.IsZero() {
		at = s.now()
	}
	msgType := p.MessageType
	if msgType == "" {
		msgType = entities.MessageTypeText
	}

	msg := entities.Message{
		ChatID:      p.ChatID,
		Content:     p.Content,
		IsFromMe:    p.IsFromMe,
		Status:      p.Status,
		MessageType: msgType,
		MediaURL:    p.MediaURL,
	}
	msg.CreatedAt = at
	if p.ProviderMessageID != "" {
		id := p.ProviderMessageID
		msg.ProviderMessageID = &id
	}

	inserted, err := s.repository.InsertMessage(ctx, &msg)
	if err != nil {
		return msg, fmt.Errorf("insert message into chat %d: %w", p.ChatID, err)
	}
	if !inserted {
		return msg, ErrDuplicateMessage
	}

	// The message is stored; a stale summary is tolerated.
	if err := s.repository.TouchSummary(ctx, p.ChatID, summaryText(msg), at, p.IncrementUnread); err != nil {
		s.log.Warn().Err(err).Uint("chat_id", p.ChatID).Uint("message_id", msg.ID).Msg("chat summary not updated")
	}
	return msg, nil
}

func summaryText(msg entities.Message) string {
	if msg.Content != "" {
		return msg.Content
	}
	return "[" + msg.MessageType + "]"
}

func (s *service) Get(ctx context.Context, tenantID, chatID uint) (entities.Chat, error) {
	chat, err := s.repository.FindByID(ctx, tenantID, chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return chat, ErrChatNotFound
	}
	if err != nil {
		return chat, fmt.Errorf("load chat %d: %w", chatID, err)
	}
	return chat, nil
}

func (s *service) List(ctx context.Context, tenantID uint, page int) ([]entities.Chat, utils.Page, error) {
	return s.repository.ListByUser(ctx, tenantID, page)
}

func (s *service) Messages(ctx context.Context, tenantID, chatID, beforeID uint, limit int) ([]entities.Message, error) {
	if _, err := s.Get(ctx, tenantID, chatID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessagePage
	}
	if limit > MaxMessagePage {
		limit = MaxMessagePage
	}
	return s.repository.ListMessages(ctx, chatID, beforeID, limit)
}

func (s *service) MarkRead(ctx context.Context, tenantID, chatID uint) error {
	n, err := s.repository.ResetUnread(ctx, tenantID, chatID)
	if err != nil {
		return fmt.Errorf("mark chat %d read: %w", chatID, err)
	}
	if n == 0 {
		return ErrChatNotFound
	}
	return nil
}

// UpdateDeliveryStatus applies a provider status callback. Unknown states
// and backwards transitions are ignored.
func (s *service) UpdateDeliveryStatus(ctx context.Context, providerMessageID, status string) (bool, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	var from []string
	if status == entities.MessageStatusFailed {
		from = []string{entities.MessageStatusSent, entities.MessageStatusDelivered}
	} else {
		rank, ok := statusRank[status]
		if !ok {
			return false, nil
		}
		for st, r := range statusRank {
			if r < rank {
				from = append(from, st)
			}
		}
	}
	if len(from) == 0 {
		return false, nil
	}

	n, err := s.repository.UpdateStatusByProviderID(ctx, providerMessageID, status, from)
	if err != nil {
		return false, fmt.Errorf("update status of %s: %w", providerMessageID, err)
	}
	return n > 0, nil
}
