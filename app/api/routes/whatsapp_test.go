package routes

import (
	"context"
	"net/http"
	"testing"

	"github.com/chatdesk/pkg/domains/tenant"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenants struct {
	creds     map[uint]entities.WhatsAppCredential
	assistant map[uint]bool
}

func newFakeTenants() *fakeTenants {
	return &fakeTenants{creds: map[uint]entities.WhatsAppCredential{}, assistant: map[uint]bool{}}
}

func (f *fakeTenants) ResolveTenant(_ context.Context, phoneNumberID string) (uint, error) {
	for id, c := range f.creds {
		if c.PhoneNumberID == phoneNumberID {
			return id, nil
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

func (f *fakeTenants) SaveCredential(_ context.Context, userID uint, req dtos.UpsertCredentialDTO) (entities.WhatsAppCredential, error) {
	for id, c := range f.creds {
		if id != userID && c.PhoneNumberID == req.PhoneNumberID {
			return entities.WhatsAppCredential{}, tenant.ErrPhoneNumberTaken
		}
	}
	c := entities.WhatsAppCredential{
		UserID:        userID,
		PhoneNumberID: req.PhoneNumberID,
		AccessToken:   req.AccessToken,
		APIVersion:    "v21.0",
	}
	f.creds[userID] = c
	return c, nil
}

func (f *fakeTenants) SetAssistant(_ context.Context, userID uint, enabled bool) error {
	if _, ok := f.creds[userID]; !ok {
		return tenant.ErrCredentialNotFound
	}
	f.assistant[userID] = enabled
	return nil
}

var _ tenant.Service = (*fakeTenants)(nil)

func whatsappEngine(tenantID uint, t tenant.Service, m *fakeMessaging) http.Handler {
	r := newEngine(tenantID)
	WhatsAppRoutes(r.Group("/whatsapp"), t, m)
	return r
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", maskToken(""))
	assert.Equal(t, "****", maskToken("abcd"))
	assert.Equal(t, "****WXYZ", maskToken("EAAGm0PX4ZCpsBAWXYZ"))
}

func TestSaveAndReadCredentials(t *testing.T) {
	tenants := newFakeTenants()
	r := whatsappEngine(7, tenants, &fakeMessaging{})

	w := do(t, r, http.MethodPut, "/whatsapp/credentials", map[string]string{
		"phone_number_id": "1017996884730043",
		"access_token":    "EAAGm0PX4ZCpsBA1234",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "****1234", data["access_token"])
	assert.Equal(t, "1017996884730043", data["phone_number_id"])

	w = do(t, r, http.MethodGet, "/whatsapp/credentials", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "****1234", decode(t, w)["data"].(map[string]any)["access_token"])

	other := whatsappEngine(8, tenants, &fakeMessaging{})
	w = do(t, other, http.MethodGet, "/whatsapp/credentials", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, other, http.MethodPut, "/whatsapp/credentials", map[string]string{
		"phone_number_id": "1017996884730043",
		"access_token":    "other",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPut, "/whatsapp/credentials", map[string]string{"phone_number_id": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleAssistant(t *testing.T) {
	tenants := newFakeTenants()
	tenants.creds[7] = entities.WhatsAppCredential{UserID: 7, PhoneNumberID: "1"}
	r := whatsappEngine(7, tenants, &fakeMessaging{})

	w := do(t, r, http.MethodPatch, "/whatsapp/credentials/assistant", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, tenants.assistant[7])

	w = do(t, r, http.MethodPatch, "/whatsapp/credentials/assistant", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageToPhone(t *testing.T) {
	m := &fakeMessaging{}
	r := whatsappEngine(7, newFakeTenants(), m)

	w := do(t, r, http.MethodPost, "/whatsapp/send-message", map[string]string{
		"phone_number": "+591 6719-3341",
		"name":         "Ana",
		"message":      "Su poliza vence pronto",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, m.sends, 1)
	assert.Equal(t, uint(7), m.sends[0].tenantID)
	assert.Equal(t, "+591 6719-3341", m.sends[0].phone)
	assert.Equal(t, "Su poliza vence pronto", m.sends[0].msg.Text)

	w = do(t, r, http.MethodPost, "/whatsapp/send-message", map[string]string{
		"phone_number": "12",
		"message":      "hola",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, m.sends, 1)
}

func TestSendTemplateToPhone(t *testing.T) {
	m := &fakeMessaging{}
	r := whatsappEngine(7, newFakeTenants(), m)

	w := do(t, r, http.MethodPost, "/whatsapp/send-template", map[string]any{
		"phone_number":  "67193341",
		"template_name": "renovacion_poliza",
		"parameters":    []string{"Ana", "31/12"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, m.sends, 1)
	tpl := m.sends[0].msg.Template
	require.NotNil(t, tpl)
	assert.Equal(t, "renovacion_poliza", tpl.Name)
	assert.Equal(t, []string{"Ana", "31/12"}, tpl.Parameters)
}
