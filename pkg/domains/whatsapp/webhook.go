package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/chatdesk/pkg/entities"
)

const SignatureHeader = "X-Hub-Signature-256"

var (
	ErrSignatureMissing   = errors.New("missing " + SignatureHeader)
	ErrSignatureMalformed = errors.New("invalid " + SignatureHeader + " format")
	ErrSignatureMismatch  = errors.New("signature mismatch")
)

// WebhookPayload is the body Meta posts for the "messages" field of a
// WhatsApp Business Account subscription.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string `json:"messaging_product"`
	Metadata         struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Contacts []struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		WaID string `json:"wa_id"`
	} `json:"contacts"`
	Messages []webhookMessage `json:"messages"`
	Statuses []webhookStatus  `json:"statuses"`
}

type webhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

type webhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *webhookMedia `json:"image"`
	Video    *webhookMedia `json:"video"`
	Audio    *webhookMedia `json:"audio"`
	Document *webhookMedia `json:"document"`
	Sticker  *webhookMedia `json:"sticker"`
	Button   *struct {
		Text string `json:"text"`
	} `json:"button"`
	Interactive *struct {
		ButtonReply *struct {
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

type webhookStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
	Errors      []struct {
		Code  int    `json:"code"`
		Title string `json:"title"`
	} `json:"errors"`
}

// Incoming is one inbound message flattened with its routing data.
type Incoming struct {
	PhoneNumberID     string
	From              string
	Name              string
	ProviderMessageID string
	MessageType       string
	Content           string
	At                time.Time
}

// StatusUpdate is a delivery receipt for a message we sent.
type StatusUpdate struct {
	PhoneNumberID     string
	ProviderMessageID string
	Status            string
	RecipientID       string
	At                time.Time
	ErrorTitle        string
}

// Messages lists every inbound message of the payload, in delivery order.
func (p WebhookPayload) Messages() []Incoming {
	var out []Incoming
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}
			v := change.Value
			for _, m := range v.Messages {
				from := strings.TrimSpace(m.From)
				if from == "" {
					continue
				}
				msgType, content := m.classify()
				out = append(out, Incoming{
					PhoneNumberID:     v.Metadata.PhoneNumberID,
					From:              from,
					Name:              v.contactName(from),
					ProviderMessageID: strings.TrimSpace(m.ID),
					MessageType:       msgType,
					Content:           content,
					At:                parseUnix(m.Timestamp),
				})
			}
		}
	}
	return out
}

func (p WebhookPayload) Statuses() []StatusUpdate {
	var out []StatusUpdate
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			v := change.Value
			for _, st := range v.Statuses {
				if st.ID == "" {
					continue
				}
				u := StatusUpdate{
					PhoneNumberID:     v.Metadata.PhoneNumberID,
					ProviderMessageID: st.ID,
					Status:            strings.ToLower(st.Status),
					RecipientID:       st.RecipientID,
					At:                parseUnix(st.Timestamp),
				}
				if len(st.Errors) > 0 {
					u.ErrorTitle = st.Errors[0].Title
				}
				out = append(out, u)
			}
		}
	}
	return out
}

func (v ChangeValue) contactName(waID string) string {
	for _, c := range v.Contacts {
		if c.WaID == waID {
			return strings.TrimSpace(c.Profile.Name)
		}
	}
	if len(v.Contacts) == 1 {
		return strings.TrimSpace(v.Contacts[0].Profile.Name)
	}
	return ""
}

// classify maps the provider type to a stored message type and content.
// Media keeps its caption; kinds we do not render get a placeholder.
func (m webhookMessage) classify() (string, string) {
	media := func(t string, md *webhookMedia) (string, string) {
		if md == nil {
			return t, ""
		}
		if md.Caption != "" {
			return t, md.Caption
		}
		return t, md.Filename
	}

	switch strings.ToLower(m.Type) {
	case "text", "":
		return entities.MessageTypeText, m.Text.Body
	case "image":
		return media(entities.MessageTypeImage, m.Image)
	case "sticker":
		return media(entities.MessageTypeImage, m.Sticker)
	case "video":
		return media(entities.MessageTypeVideo, m.Video)
	case "audio":
		return media(entities.MessageTypeAudio, m.Audio)
	case "document":
		return media(entities.MessageTypeDocument, m.Document)
	case "button":
		if m.Button != nil {
			return entities.MessageTypeText, m.Button.Text
		}
	case "interactive":
		if m.Interactive != nil {
			if m.Interactive.ButtonReply != nil {
				return entities.MessageTypeText, m.Interactive.ButtonReply.Title
			}
			if m.Interactive.ListReply != nil {
				return entities.MessageTypeText, m.Interactive.ListReply.Title
			}
		}
	}
	return entities.MessageTypeText, "[" + strings.ToLower(m.Type) + "]"
}

func parseUnix(ts string) time.Time {
	sec, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// VerifySignature checks header ("sha256=<hex>") against the HMAC-SHA256
// of raw keyed with the Meta app secret.
func VerifySignature(secret, header string, raw []byte) error {
	sig := strings.TrimSpace(header)
	if sig == "" {
		return ErrSignatureMissing
	}
	if !strings.HasPrefix(sig, "sha256=") {
		return ErrSignatureMalformed
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(sig, "sha256="))
	if err != nil {
		return ErrSignatureMalformed
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(raw)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign renders the header value Meta would send for raw.
func Sign(secret string, raw []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(raw)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
