package whatsapp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inboundFixture = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA_ID",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "59170000000", "phone_number_id": "1017996884730043"},
        "contacts": [{"profile": {"name": "Ana Rojas"}, "wa_id": "59167193341"}],
        "messages": [
          {"from": "59167193341", "id": "wamid.A", "timestamp": "1760000000", "type": "text", "text": {"body": "hola"}},
          {"from": "59167193341", "id": "wamid.B", "timestamp": "1760000060", "type": "image", "image": {"id": "m1", "mime_type": "image/jpeg", "caption": "comprobante"}},
          {"from": "59167193341", "id": "wamid.C", "timestamp": "1760000120", "type": "location"},
          {"from": "59167193341", "id": "wamid.D", "timestamp": "bad", "type": "interactive", "interactive": {"button_reply": {"title": "Si"}}}
        ]
      }
    }]
  }]
}`

func TestWebhookMessages(t *testing.T) {
	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(inboundFixture), &payload))

	msgs := payload.Messages()
	require.Len(t, msgs, 4)

	first := msgs[0]
	assert.Equal(t, "1017996884730043", first.PhoneNumberID)
	assert.Equal(t, "59167193341", first.From)
	assert.Equal(t, "Ana Rojas", first.Name)
	assert.Equal(t, "wamid.A", first.ProviderMessageID)
	assert.Equal(t, "text", first.MessageType)
	assert.Equal(t, "hola", first.Content)
	assert.True(t, first.At.Equal(time.Unix(1760000000, 0)))

	assert.Equal(t, "image", msgs[1].MessageType)
	assert.Equal(t, "comprobante", msgs[1].Content)

	assert.Equal(t, "text", msgs[2].MessageType)
	assert.Equal(t, "[location]", msgs[2].Content)

	assert.Equal(t, "Si", msgs[3].Content)
	assert.True(t, msgs[3].At.IsZero())
}

func TestWebhookStatuses(t *testing.T) {
	raw := `{"entry":[{"changes":[{"field":"messages","value":{
	  "metadata":{"phone_number_id":"1017996884730043"},
	  "statuses":[
	    {"id":"wamid.X","status":"DELIVERED","timestamp":"1760000000","recipient_id":"59167193341"},
	    {"id":"wamid.Y","status":"failed","errors":[{"code":131047,"title":"Re-engagement message"}]},
	    {"id":"","status":"read"}
	  ]}}]}]}`
	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Empty(t, payload.Messages())
	sts := payload.Statuses()
	require.Len(t, sts, 2)
	assert.Equal(t, "delivered", sts[0].Status)
	assert.Equal(t, "59167193341", sts[0].RecipientID)
	assert.Equal(t, "failed", sts[1].Status)
	assert.Equal(t, "Re-engagement message", sts[1].ErrorTitle)
}

func TestWebhookIgnoresOtherFields(t *testing.T) {
	raw := `{"entry":[{"changes":[{"field":"account_update","value":{"messages":[{"from":"1","id":"x","type":"text","text":{"body":"no"}}]}}]}]}`
	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	assert.Empty(t, payload.Messages())
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account"}`)
	secret := "app-secret"

	assert.NoError(t, VerifySignature(secret, Sign(secret, body), body))
	assert.ErrorIs(t, VerifySignature(secret, "", body), ErrSignatureMissing)
	assert.ErrorIs(t, VerifySignature(secret, "sha1=abc", body), ErrSignatureMalformed)
	assert.ErrorIs(t, VerifySignature(secret, "sha256=zz", body), ErrSignatureMalformed)
	assert.ErrorIs(t, VerifySignature("other", Sign(secret, body), body), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifySignature(secret, Sign(secret, body), append(body, ' ')), ErrSignatureMismatch)
}
