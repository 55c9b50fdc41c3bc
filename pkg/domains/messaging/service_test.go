package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/chatdesk/pkg/domains/chat"
	"github.com/chatdesk/pkg/domains/chat/chattest"
	"github.com/chatdesk/pkg/domains/tenant"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPhoneNumberID = "1017996884730043"
	testSender        = "59167193341"
	testTenant        = uint(42)
)

type fakeTenants struct {
	creds map[uint]entities.WhatsAppCredential
}

func (f *fakeTenants) ResolveTenant(_ context.Context, phoneNumberID string) (uint, error) {
	for _, c := range f.creds {
		if c.PhoneNumberID == phoneNumberID {
			return c.UserID, nil
		}
	}
	return 0, tenant.ErrTenantNotFound
}

func (f *fakeTenants) Credential(_ context.Context, userID uint) (entities.WhatsAppCredential, error) {
	c, ok := f.creds[userID]
	if !ok {
		return c, tenant.ErrCredentialNotFound
	}
	return c, nil
}

func (f *fakeTenants) SaveCredential(context.Context, uint, dtos.UpsertCredentialDTO) (entities.WhatsAppCredential, error) {
	return entities.WhatsAppCredential{}, errors.New("not implemented")
}

func (f *fakeTenants) SetAssistant(context.Context, uint, bool) error {
	return errors.New("not implemented")
}

type sentMessage struct {
	creds whatsapp.Credentials
	to    string
	msg   whatsapp.Message
}

type fakeSender struct {
	sent []sentMessage
	err  error
	next int
}

func (f *fakeSender) Send(_ context.Context, creds whatsapp.Credentials, to string, msg whatsapp.Message) (string, error) {
	f.sent = append(f.sent, sentMessage{creds: creds, to: to, msg: msg})
	if f.err != nil {
		return "", f.err
	}
	f.next++
	return "wamid.out" + string(rune('0'+f.next)), nil
}

type fakeDeduper struct {
	seen map[string]bool
	err  error
}

func (f *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen[key] {
		return true, nil
	}
	f.seen[key] = true
	return false, nil
}

type harness struct {
	svc    Service
	repo   *chattest.Memory
	sender *fakeSender
	dedupe *fakeDeduper
}

func newHarness() harness {
	repo := chattest.NewMemory()
	sender := &fakeSender{}
	dedupe := &fakeDeduper{seen: map[string]bool{}}
	tenants := &fakeTenants{creds: map[uint]entities.WhatsAppCredential{
		testTenant: {UserID: testTenant, PhoneNumberID: testPhoneNumberID, AccessToken: "token", APIVersion: "v21.0"},
	}}
	chats := chat.NewService(repo, utils.DefaultCountryPrefix, zerolog.Nop())
	return harness{
		svc:    NewService(tenants, chats, sender, dedupe, utils.DefaultCountryPrefix, zerolog.Nop()),
		repo:   repo,
		sender: sender,
		dedupe: dedupe,
	}
}

func inbound(t *testing.T, phoneNumberID, from, name, id, ts, body string) whatsapp.WebhookPayload {
	t.Helper()
	raw := map[string]any{
		"object": "whatsapp_business_account",
		"entry": []any{map[string]any{
			"id": "WABA",
			"changes": []any{map[string]any{
				"field": "messages",
				"value": map[string]any{
					"messaging_product": "whatsapp",
					"metadata":          map[string]any{"phone_number_id": phoneNumberID},
					"contacts":          []any{map[string]any{"wa_id": from, "profile": map[string]any{"name": name}}},
					"messages": []any{map[string]any{
						"from": from, "id": id, "timestamp": ts, "type": "text",
						"text": map[string]any{"body": body},
					}},
				},
			}},
		}},
	}
	b, err := json.Marshal(raw)
	require.NoError(t, err)
	var payload whatsapp.WebhookPayload
	require.NoError(t, json.Unmarshal(b, &payload))
	return payload
}

func TestInboundCreatesChatAndMessage(t *testing.T) {
	h := newHarness()

	res := h.svc.HandleWebhook(context.Background(), inbound(t, testPhoneNumberID, testSender, "Ana", "wamid.1", "1760000000", "hola"))
	assert.Equal(t, WebhookResult{Filed: 1}, res)

	require.Len(t, h.repo.Chats, 1)
	c := h.repo.Chats[0]
	assert.Equal(t, testTenant, c.UserID)
	assert.Equal(t, testSender, c.Phone)
	assert.Equal(t, "Ana", c.Name)
	assert.Equal(t, 1, c.UnreadCount)
	assert.Equal(t, "hola", c.LastMessage)

	msgs := h.repo.MessagesOf(c.ID)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsFromMe)
	assert.Equal(t, entities.MessageStatusReceived, msgs[0].Status)
	assert.Equal(t, "hola", msgs[0].Content)
}

func TestSecondInboundReusesChat(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.svc.HandleWebhook(ctx, inbound(t, testPhoneNumberID, testSender, "Ana", "wamid.1", "1760000000", "hola"))
	res := h.svc.HandleWebhook(ctx, inbound(t, testPhoneNumberID, testSender, "Ana", "wamid.2", "1760000300", "sigues?"))
	assert.Equal(t, 1, res.Filed)

	require.Len(t, h.repo.Chats, 1)
	c, _ := h.repo.Chat(h.repo.Chats[0].ID)
	assert.Len(t, h.repo.MessagesOf(c.ID), 2)
	assert.Equal(t, "sigues?", c.LastMessage)
	require.NotNil(t, c.LastMessageAt)
	assert.Equal(t, int64(1760000300), c.LastMessageAt.Unix())
	assert.Equal(t, 2, c.UnreadCount)
}

func TestRedeliveredWebhookIsFiledOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	payload := inbound(t, testPhoneNumberID, testSender, "Ana", "wamid.1", "1760000000", "hola")

	h.svc.HandleWebhook(ctx, payload)
	res := h.svc.HandleWebhook(ctx, payload)
	assert.Equal(t, WebhookResult{Duplicates: 1}, res)

	// without the cache the unique provider id still catches it
	h.dedupe.err = errors.New("redis down")
	res = h.svc.HandleWebhook(ctx, payload)
	assert.Equal(t, WebhookResult{Duplicates: 1}, res)

	assert.Len(t, h.repo.Msgs, 1)
	assert.Equal(t, 1, h.repo.Chats[0].UnreadCount)
}

func TestUnknownTenantIsSkipped(t *testing.T) {
	h := newHarness()

	res := h.svc.HandleWebhook(context.Background(), inbound(t, "999", testSender, "Ana", "wamid.1", "1760000000", "hola"))
	assert.Equal(t, WebhookResult{UnknownTenant: 1}, res)
	assert.Empty(t, h.repo.Chats)
	assert.Empty(t, h.repo.Msgs)
}

func TestStatusesUpdateSentMessages(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	resp, err := h.svc.SendToPhone(ctx, testTenant, testSender, "Ana", whatsapp.TextMessage("hola"))
	require.NoError(t, err)

	var payload whatsapp.WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(`{"entry":[{"changes":[{"field":"messages","value":{
	  "metadata":{"phone_number_id":"`+testPhoneNumberID+`"},
	  "statuses":[{"id":"`+resp.ProviderMessageID+`","status":"delivered","timestamp":"1760000000"}]}}]}]}`), &payload))

	res := h.svc.HandleWebhook(ctx, payload)
	assert.Equal(t, 1, res.StatusesApplied)
	assert.Equal(t, entities.MessageStatusDelivered, h.repo.Msgs[0].Status)
}

func TestSendToPhoneCreatesChatAndRecordsMessage(t *testing.T) {
	h := newHarness()

	resp, err := h.svc.SendToPhone(context.Background(), testTenant, "+591 67193341", "Ana", whatsapp.TextMessage("hola"))
	require.NoError(t, err)

	assert.Equal(t, "59167193341", resp.To)
	assert.Equal(t, entities.MessageStatusSent, resp.Status)
	assert.NotZero(t, resp.MessageID)
	assert.Equal(t, "wamid.out1", resp.ProviderMessageID)

	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "token", h.sender.sent[0].creds.AccessToken)
	assert.Equal(t, testPhoneNumberID, h.sender.sent[0].creds.PhoneNumberID)

	require.Len(t, h.repo.Chats, 1)
	c := h.repo.Chats[0]
	assert.Equal(t, "59167193341", c.Phone)
	assert.Zero(t, c.UnreadCount)

	msgs := h.repo.MessagesOf(c.ID)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsFromMe)
	require.NotNil(t, msgs[0].ProviderMessageID)
	assert.Equal(t, "wamid.out1", *msgs[0].ProviderMessageID)
}

func TestFailedSendAppendsNothing(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	existing := h.repo.Seed(entities.Chat{UserID: testTenant, Phone: testSender, Name: "Ana"})
	h.sender.err = &whatsapp.SendError{Kind: whatsapp.KindProviderRejected, StatusCode: http.StatusUnauthorized, Code: 190, Message: "Session has expired"}

	_, err := h.svc.SendToChat(ctx, testTenant, existing.ID, whatsapp.TextMessage("hola"))
	require.Error(t, err)
	se, ok := whatsapp.AsSendError(err)
	require.True(t, ok)
	assert.Equal(t, whatsapp.KindProviderRejected, se.Kind)

	assert.Empty(t, h.repo.Msgs)
	c, _ := h.repo.Chat(existing.ID)
	assert.Empty(t, c.LastMessage)
}

func TestSendToLegacyChatAddsCountryPrefix(t *testing.T) {
	h := newHarness()
	legacy := h.repo.Seed(entities.Chat{UserID: testTenant, Phone: "69344192"})

	resp, err := h.svc.SendToChat(context.Background(), testTenant, legacy.ID, whatsapp.TextMessage("hola"))
	require.NoError(t, err)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "59169344192", h.sender.sent[0].to)
	assert.Equal(t, "59169344192", resp.To)
}

func TestSendToInternationalNumberKeepsItsCountryCode(t *testing.T) {
	h := newHarness()

	resp, err := h.svc.SendToPhone(context.Background(), testTenant, "+1 415 555 2671", "Bob", whatsapp.TextMessage("hello"))
	require.NoError(t, err)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "14155552671", h.sender.sent[0].to)
	assert.Equal(t, "14155552671", resp.To)
}

func TestSendToChatIsTenantScoped(t *testing.T) {
	h := newHarness()
	other := h.repo.Seed(entities.Chat{UserID: 7, Phone: testSender})

	_, err := h.svc.SendToChat(context.Background(), testTenant, other.ID, whatsapp.TextMessage("hola"))
	assert.ErrorIs(t, err, chat.ErrChatNotFound)
	assert.Empty(t, h.sender.sent)
}

func TestSendWithoutCredentials(t *testing.T) {
	h := newHarness()

	_, err := h.svc.SendToPhone(context.Background(), 7, testSender, "", whatsapp.TextMessage("hola"))
	assert.ErrorIs(t, err, tenant.ErrCredentialNotFound)
	assert.Empty(t, h.repo.Chats)
	assert.Empty(t, h.sender.sent)
}

func TestSentMessageKeptWhenRecordingFails(t *testing.T) {
	h := newHarness()
	existing := h.repo.Seed(entities.Chat{UserID: testTenant, Phone: testSender})
	h.repo.FailInsert = true

	resp, err := h.svc.SendToChat(context.Background(), testTenant, existing.ID, whatsapp.TextMessage("hola"))
	require.NoError(t, err)
	assert.Zero(t, resp.MessageID)
	assert.Equal(t, "wamid.out1", resp.ProviderMessageID)
}
