package whatsapp

import (
	"errors"
	"strings"

	"github.com/chatdesk/pkg/entities"
)

const (
	KindText     = "text"
	KindMedia    = "media"
	KindTemplate = "template"
)

// Message is one outbound payload. Exactly one of Text, Media or Template
// is set.
type Message struct {
	Text     string
	Media    *Media
	Template *Template
}

type Media struct {
	// Type is image, video, audio or document.
	Type     string
	Link     string
	ID       string
	Caption  string
	Filename string
}

type Template struct {
	Name       string
	Language   string
	Parameters []string
}

func TextMessage(body string) Message {
	return Message{Text: body}
}

func TemplateMessage(name, language string, params ...string) Message {
	return Message{Template: &Template{Name: name, Language: language, Parameters: params}}
}

func (m Message) Kind() string {
	switch {
	case m.Template != nil:
		return KindTemplate
	case m.Media != nil:
		return KindMedia
	default:
		return KindText
	}
}

// StoredType is the messages.message_type recorded for a sent payload.
func (m Message) StoredType() string {
	switch {
	case m.Template != nil:
		return entities.MessageTypeTemplate
	case m.Media != nil:
		return m.Media.Type
	default:
		return entities.MessageTypeText
	}
}

// Content is the text recorded for a sent payload.
func (m Message) Content() string {
	switch {
	case m.Template != nil:
		if len(m.Template.Parameters) == 0 {
			return "[template:" + m.Template.Name + "]"
		}
		return "[template:" + m.Template.Name + "] " + strings.Join(m.Template.Parameters, ", ")
	case m.Media != nil:
		return m.Media.Caption
	default:
		return m.Text
	}
}

var mediaTypes = map[string]bool{
	entities.MessageTypeImage:    true,
	entities.MessageTypeVideo:    true,
	entities.MessageTypeAudio:    true,
	entities.MessageTypeDocument: true,
}

// body renders the Graph API request for recipient to.
func (m Message) body(to string) (map[string]any, error) {
	req := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
	}

	switch m.Kind() {
	case KindTemplate:
		t := m.Template
		if strings.TrimSpace(t.Name) == "" {
			return nil, errors.New("template name is required")
		}
		lang := t.Language
		if lang == "" {
			lang = "es"
		}
		tpl := map[string]any{
			"name":     t.Name,
			"language": map[string]any{"code": lang},
		}
		if len(t.Parameters) > 0 {
			params := make([]map[string]any, 0, len(t.Parameters))
			for _, p := range t.Parameters {
				params = append(params, map[string]any{"type": "text", "text": p})
			}
			tpl["components"] = []map[string]any{{"type": "body", "parameters": params}}
		}
		req["type"] = "template"
		req["template"] = tpl

	case KindMedia:
		md := m.Media
		if !mediaTypes[md.Type] {
			return nil, errors.New("unsupported media type " + md.Type)
		}
		obj := map[string]any{}
		switch {
		case md.ID != "":
			obj["id"] = md.ID
		case md.Link != "":
			obj["link"] = md.Link
		default:
			return nil, errors.New("media needs a link or an uploaded media id")
		}
		// audio rejects captions
		if md.Caption != "" && md.Type != entities.MessageTypeAudio {
			obj["caption"] = md.Caption
		}
		if md.Filename != "" && md.Type == entities.MessageTypeDocument {
			obj["filename"] = md.Filename
		}
		req["type"] = md.Type
		req[md.Type] = obj

	default:
		if strings.TrimSpace(m.Text) == "" {
			return nil, errors.New("text body is empty")
		}
		req["type"] = "text"
		req["text"] = map[string]any{"preview_url": false, "body": m.Text}
	}
	return req, nil
}
