package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/chatdesk/pkg/domains/messaging"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/state"
	"github.com/chatdesk/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

var registerOnce sync.Once

// newEngine returns a test engine whose requests run as tenantID.
func newEngine(tenantID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			utils.RegisterOn(v)
		}
	})
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if tenantID != 0 {
			c.Set(state.CurrentUserId, tenantID)
		}
		c.Next()
	})
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type sendCall struct {
	tenantID uint
	chatID   uint
	phone    string
	name     string
	msg      whatsapp.Message
}

type fakeMessaging struct {
	mu       sync.Mutex
	payloads []whatsapp.WebhookPayload
	sends    []sendCall
	err      error
}

func (f *fakeMessaging) HandleWebhook(_ context.Context, p whatsapp.WebhookPayload) messaging.WebhookResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return messaging.WebhookResult{Filed: len(p.Messages())}
}

func (f *fakeMessaging) SendToChat(ctx context.Context, tenantID, chatID uint, msg whatsapp.Message) (dtos.MessageResponseDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sendCall{tenantID: tenantID, chatID: chatID, msg: msg})
	if f.err != nil {
		return dtos.MessageResponseDTO{}, f.err
	}
	return dtos.MessageResponseDTO{MessageID: 1, ProviderMessageID: "wamid.out", ChatID: chatID, Status: "sent"}, nil
}

func (f *fakeMessaging) SendToPhone(ctx context.Context, tenantID uint, phone, name string, msg whatsapp.Message) (dtos.MessageResponseDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sendCall{tenantID: tenantID, phone: phone, name: name, msg: msg})
	if f.err != nil {
		return dtos.MessageResponseDTO{}, f.err
	}
	return dtos.MessageResponseDTO{MessageID: 1, ProviderMessageID: "wamid.out", ChatID: 1, Status: "sent", To: phone}, nil
}

var _ messaging.Service = (*fakeMessaging)(nil)
