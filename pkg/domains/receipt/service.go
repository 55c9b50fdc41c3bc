// Package receipt reads contact data off payment receipt photos with
// Gemini.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chatdesk/pkg/config"
	"github.com/chatdesk/pkg/dtos"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const MaxImageSize = 10 << 20

var (
	ErrExtractionUnavailable = errors.New("receipt extraction is not configured")
	ErrUnsupportedImage      = errors.New("unsupported image type")
	ErrImageTooLarge         = errors.New("image exceeds 10MB")
	ErrNoAnswer              = errors.New("model returned no content")
)

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

const prompt = `Extrae de esta imagen de comprobante los siguientes datos y responde solo con JSON:
{"correo": "correo electronico del cliente", "numero": "numero de telefono o de poliza", "vencimiento": "fecha de vencimiento en formato YYYY-MM-DD"}
Usa null en cualquier campo que no aparezca o no se pueda leer. No inventes valores.`

type Service interface {
	Extract(ctx context.Context, image []byte, mimeType string) (dtos.ReceiptDTO, error)
}

// NewService connects to Gemini when an API key is configured. Without one
// every Extract returns ErrExtractionUnavailable. The returned func closes
// the client.
func NewService(ctx context.Context, cfg config.Gemini, log zerolog.Logger) (Service, func() error, error) {
	log = log.With().Str("component", "receipt").Logger()
	if cfg.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, receipt extraction disabled")
		return unavailable{}, func() error { return nil }, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	log.Info().Str("model", cfg.Model).Msg("receipt extraction enabled")
	return &service{model: model, log: log}, client.Close, nil
}

type unavailable struct{}

func (unavailable) Extract(context.Context, []byte, string) (dtos.ReceiptDTO, error) {
	return dtos.ReceiptDTO{}, ErrExtractionUnavailable
}

type service struct {
	model *genai.GenerativeModel
	log   zerolog.Logger
}

func (s *service) Extract(ctx context.Context, image []byte, mimeType string) (dtos.ReceiptDTO, error) {
	mimeType = normalizeMIME(mimeType)
	if !supportedTypes[mimeType] {
		return dtos.ReceiptDTO{}, ErrUnsupportedImage
	}
	if len(image) > MaxImageSize {
		return dtos.ReceiptDTO{}, ErrImageTooLarge
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := s.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: image},
		genai.Text(prompt),
	)
	if err != nil {
		s.log.Error().Err(err).Int("bytes", len(image)).Msg("gemini request failed")
		return dtos.ReceiptDTO{}, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return dtos.ReceiptDTO{}, ErrNoAnswer
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	out, err := parseReceipt(text.String())
	if err != nil {
		s.log.Warn().Err(err).Str("answer", text.String()).Msg("unparseable gemini answer")
		return dtos.ReceiptDTO{}, err
	}
	return out, nil
}

func normalizeMIME(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "image/jpg" {
		return "image/jpeg"
	}
	return m
}

// parseReceipt reads the model answer. Missing, null, blank and
// placeholder values all become nil.
func parseReceipt(answer string) (dtos.ReceiptDTO, error) {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return dtos.ReceiptDTO{}, ErrNoAnswer
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(answer), &raw); err != nil {
		return dtos.ReceiptDTO{}, fmt.Errorf("decode answer: %w", err)
	}
	return dtos.ReceiptDTO{
		Correo:      field(raw, "correo"),
		Numero:      field(raw, "numero"),
		Vencimiento: field(raw, "vencimiento"),
	}, nil
}

func field(raw map[string]any, key string) *string {
	var v string
	switch t := raw[key].(type) {
	case string:
		v = strings.TrimSpace(t)
	case float64:
		v = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil
	}
	switch strings.ToLower(v) {
	case "", "null", "n/a", "none":
		return nil
	}
	return &v
}
