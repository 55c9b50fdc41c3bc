// Package messaging files inbound webhook traffic into tenant chats and
// sends agent replies through the Cloud API.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chatdesk/pkg/cache"
	"github.com/chatdesk/pkg/domains/chat"
	"github.com/chatdesk/pkg/domains/tenant"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/metrics"
	"github.com/chatdesk/pkg/utils"
	"github.com/rs/zerolog"
)

// WebhookResult counts what happened to each entry of one delivery.
type WebhookResult struct {
	Filed           int
	Duplicates      int
	UnknownTenant   int
	Failed          int
	StatusesApplied int
}

type Service interface {
	HandleWebhook(ctx context.Context, payload whatsapp.WebhookPayload) WebhookResult
	SendToChat(ctx context.Context, tenantID, chatID uint, msg whatsapp.Message) (dtos.MessageResponseDTO, error)
	SendToPhone(ctx context.Context, tenantID uint, phone, name string, msg whatsapp.Message) (dtos.MessageResponseDTO, error)
}

type service struct {
	tenants       tenant.Service
	chats         chat.Service
	sender        whatsapp.Service
	dedupe        cache.Deduper
	countryPrefix string
	log           zerolog.Logger
}

// NewService builds the messaging pipeline. Outbound recipients written
// without "+" and without countryPrefix get it prepended.
func NewService(tenants tenant.Service, chats chat.Service, sender whatsapp.Service, dedupe cache.Deduper, countryPrefix string, log zerolog.Logger) Service {
	if dedupe == nil {
		dedupe = cache.NopDeduper{}
	}
	return &service{
		tenants:       tenants,
		chats:         chats,
		sender:        sender,
		dedupe:        dedupe,
		countryPrefix: countryPrefix,
		log:           log.With().Str("component", "messaging").Logger(),
	}
}

func (s *service) HandleWebhook(ctx context.Context, payload whatsapp.WebhookPayload) WebhookResult {
	var res WebhookResult

	for _, in := range payload.Messages() {
		outcome := s.fileInbound(ctx, in)
		metrics.InboundMessages.WithLabelValues(outcome).Inc()
		switch outcome {
		case metrics.OutcomeFiled:
			res.Filed++
		case metrics.OutcomeDuplicate:
			res.Duplicates++
		case metrics.OutcomeUnknownTenant:
			res.UnknownTenant++
		default:
			res.Failed++
		}
	}

	for _, st := range payload.Statuses() {
		changed, err := s.chats.UpdateDeliveryStatus(ctx, st.ProviderMessageID, st.Status)
		if err != nil {
			s.log.Error().Err(err).Str("provider_message_id", st.ProviderMessageID).Msg("status update failed")
			continue
		}
		if changed {
			res.StatusesApplied++
		}
		if st.ErrorTitle != "" {
			s.log.Warn().Str("provider_message_id", st.ProviderMessageID).Str("error", st.ErrorTitle).Msg("provider reported delivery error")
		}
	}
	return res
}

// fileInbound runs one inbound message through tenant resolution, chat
// reconciliation and the append, returning the metrics outcome.
func (s *service) fileInbound(ctx context.Context, in whatsapp.Incoming) string {
	log := s.log.With().
		Str("phone_number_id", in.PhoneNumberID).
		Str("from", in.From).
		Str("provider_message_id", in.ProviderMessageID).
		Logger()

	if in.ProviderMessageID != "" {
		seen, err := s.dedupe.Seen(ctx, in.ProviderMessageID)
		if err != nil {
			// the unique index on provider_message_id still holds
			log.Warn().Err(err).Msg("dedupe cache unavailable")
		} else if seen {
			log.Debug().Msg("redelivered message skipped")
			return metrics.OutcomeDuplicate
		}
	}

	tenantID, err := s.tenants.ResolveTenant(ctx, in.PhoneNumberID)
	if errors.Is(err, tenant.ErrTenantNotFound) {
		log.Warn().Msg("no tenant for phone number id")
		return metrics.OutcomeUnknownTenant
	}
	if err != nil {
		log.Error().Err(err).Msg("tenant resolution failed")
		return metrics.OutcomeFailed
	}

	chatID, created, err := s.chats.Reconcile(ctx, chat.ReconcileParams{
		TenantID: tenantID,
		Phone:    in.From,
		Name:     in.Name,
	})
	if err != nil {
		log.Error().Err(err).Uint("tenant_id", tenantID).Msg("chat reconcile failed")
		return metrics.OutcomeFailed
	}

	msg, err := s.chats.Append(ctx, chat.AppendParams{
		ChatID:            chatID,
		Content:           in.Content,
		IsFromMe:          false,
		Status:            entities.MessageStatusReceived,
		MessageType:       in.MessageType,
		ProviderMessageID: in.ProviderMessageID,
		At:                in.At,
		IncrementUnread:   true,
	})
	if errors.Is(err, chat.ErrDuplicateMessage) {
		log.Debug().Uint("chat_id", chatID).Msg("message already filed")
		return metrics.OutcomeDuplicate
	}
	if err != nil {
		log.Error().Err(err).Uint("chat_id", chatID).Msg("append inbound message failed")
		return metrics.OutcomeFailed
	}

	log.Info().
		Uint("tenant_id", tenantID).
		Uint("chat_id", chatID).
		Uint("message_id", msg.ID).
		Bool("chat_created", created).
		Msg("inbound message filed")
	return metrics.OutcomeFiled
}

func (s *service) SendToChat(ctx context.Context, tenantID, chatID uint, msg whatsapp.Message) (dtos.MessageResponseDTO, error) {
	c, err := s.chats.Get(ctx, tenantID, chatID)
	if err != nil {
		return dtos.MessageResponseDTO{}, err
	}
	cred, err := s.tenants.Credential(ctx, tenantID)
	if err != nil {
		return dtos.MessageResponseDTO{}, err
	}
	return s.deliver(ctx, cred, c.ID, c.Phone, msg)
}

func (s *service) SendToPhone(ctx context.Context, tenantID uint, phone, name string, msg whatsapp.Message) (dtos.MessageResponseDTO, error) {
	if utils.DigitsOnly(phone) == "" {
		return dtos.MessageResponseDTO{}, chat.ErrEmptyPhone
	}
	// no chat is created for a tenant that cannot send
	cred, err := s.tenants.Credential(ctx, tenantID)
	if err != nil {
		return dtos.MessageResponseDTO{}, err
	}

	chatID, _, err := s.chats.Reconcile(ctx, chat.ReconcileParams{
		TenantID:      tenantID,
		Phone:         phone,
		Name:          name,
		InitialUnread: 0,
	})
	if err != nil {
		return dtos.MessageResponseDTO{}, err
	}
	return s.deliver(ctx, cred, chatID, phone, msg)
}

// deliver sends msg and records it only when the provider accepted it.
func (s *service) deliver(ctx context.Context, cred entities.WhatsAppCredential, chatID uint, phone string, msg whatsapp.Message) (dtos.MessageResponseDTO, error) {
	// legacy chats may hold the number without the country prefix
	to := utils.RecipientPhone(phone, s.countryPrefix)
	providerID, err := s.sender.Send(ctx, whatsapp.Credentials{
		AccessToken:   cred.AccessToken,
		PhoneNumberID: cred.PhoneNumberID,
		APIVersion:    cred.APIVersion,
	}, to, msg)
	if err != nil {
		return dtos.MessageResponseDTO{}, fmt.Errorf("send to chat %d: %w", chatID, err)
	}

	now := time.Now()
	resp := dtos.MessageResponseDTO{
		ProviderMessageID: providerID,
		ChatID:            chatID,
		Status:            entities.MessageStatusSent,
		To:                to,
		Timestamp:         now.UTC().Format(time.RFC3339),
	}

	params := chat.AppendParams{
		ChatID:            chatID,
		Content:           msg.Content(),
		IsFromMe:          true,
		Status:            entities.MessageStatusSent,
		MessageType:       msg.StoredType(),
		ProviderMessageID: providerID,
		At:                now,
	}
	if msg.Media != nil {
		params.MediaURL = msg.Media.Link
	}
	stored, err := s.chats.Append(ctx, params)
	if err != nil {
		// The provider already accepted the message.
		s.log.Error().Err(err).Uint("chat_id", chatID).Str("provider_message_id", providerID).Msg("sent message not recorded")
		return resp, nil
	}
	resp.MessageID = stored.ID
	return resp, nil
}
