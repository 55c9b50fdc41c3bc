package routes

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/chatdesk/pkg/domains/chat"
	"github.com/chatdesk/pkg/domains/chat/chattest"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/chatdesk/pkg/entities"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	mem  *chattest.Memory
	svc  chat.Service
	m    *fakeMessaging
	chat entities.Chat
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	mem := chattest.NewMemory()
	svc := chat.NewService(mem, "591", zerolog.Nop())
	seeded := mem.Seed(entities.Chat{UserID: 7, Phone: "59167193341", Name: "Ana", UnreadCount: 2})

	for i, body := range []string{"hola", "tengo una consulta", "gracias"} {
		_, err := svc.Append(context.Background(), chat.AppendParams{
			ChatID:            seeded.ID,
			Content:           body,
			Status:            entities.MessageStatusReceived,
			MessageType:       entities.MessageTypeText,
			ProviderMessageID: fmt.Sprintf("wamid.%d", i),
			At:                time.Date(2026, 10, 16, 9, i, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	return &chatFixture{mem: mem, svc: svc, m: &fakeMessaging{}, chat: seeded}
}

func (f *chatFixture) engine(tenantID uint) http.Handler {
	r := newEngine(tenantID)
	ChatRoutes(r.Group("/chats"), f.svc, f.m)
	return r
}

func TestListChats(t *testing.T) {
	f := newChatFixture(t)

	w := do(t, f.engine(7), http.MethodGet, "/chats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "59167193341", data[0].(map[string]any)["phone"])
	assert.NotNil(t, body["pagination"])

	w = do(t, f.engine(8), http.MethodGet, "/chats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["data"])

	w = do(t, f.engine(7), http.MethodGet, "/chats?page=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChatIsTenantScoped(t *testing.T) {
	f := newChatFixture(t)
	path := fmt.Sprintf("/chats/%d", f.chat.ID)

	w := do(t, f.engine(7), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, f.engine(8), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, f.engine(7), http.MethodGet, "/chats/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMessagesPages(t *testing.T) {
	f := newChatFixture(t)
	path := fmt.Sprintf("/chats/%d/messages?limit=2", f.chat.ID)

	w := do(t, f.engine(7), http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)

	w = do(t, f.engine(8), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, f.engine(7), http.MethodGet, fmt.Sprintf("/chats/%d/messages?before=x", f.chat.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkRead(t *testing.T) {
	f := newChatFixture(t)

	w := do(t, f.engine(7), http.MethodPost, fmt.Sprintf("/chats/%d/read", f.chat.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	got, ok := f.mem.Chat(f.chat.ID)
	require.True(t, ok)
	assert.Zero(t, got.UnreadCount)
}

func TestSendTextToChat(t *testing.T) {
	f := newChatFixture(t)
	path := fmt.Sprintf("/chats/%d/messages", f.chat.ID)

	w := do(t, f.engine(7), http.MethodPost, path, map[string]string{"message": "Hola Ana"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.m.sends, 1)
	assert.Equal(t, uint(7), f.m.sends[0].tenantID)
	assert.Equal(t, f.chat.ID, f.m.sends[0].chatID)
	assert.Equal(t, "Hola Ana", f.m.sends[0].msg.Text)

	w = do(t, f.engine(7), http.MethodPost, path, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, f.m.sends, 1)
}

func TestSendMediaToChat(t *testing.T) {
	f := newChatFixture(t)
	path := fmt.Sprintf("/chats/%d/media", f.chat.ID)

	w := do(t, f.engine(7), http.MethodPost, path, map[string]string{
		"type": "document", "link": "https://files.example.com/poliza.pdf", "filename": "poliza.pdf",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.m.sends, 1)
	media := f.m.sends[0].msg.Media
	require.NotNil(t, media)
	assert.Equal(t, "document", media.Type)
	assert.Equal(t, "poliza.pdf", media.Filename)

	w = do(t, f.engine(7), http.MethodPost, path, map[string]string{"type": "sticker", "link": "https://x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendFailureStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no credentials", &whatsapp.SendError{Kind: whatsapp.KindConfiguration, Err: whatsapp.ErrMissingCredentials}, http.StatusConflict},
		{"rejected", &whatsapp.SendError{Kind: whatsapp.KindProviderRejected, StatusCode: 400, Code: 131047, Message: "Re-engagement message"}, http.StatusBadGateway},
		{"unreachable", &whatsapp.SendError{Kind: whatsapp.KindTransport, Message: "dial tcp: timeout"}, http.StatusServiceUnavailable},
		{"chat gone", chat.ErrChatNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t)
			f.m.err = tt.err
			w := do(t, f.engine(7), http.MethodPost, fmt.Sprintf("/chats/%d/messages", f.chat.ID), map[string]string{"message": "hola"})
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
