package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatdesk/pkg/config"
	"github.com/chatdesk/pkg/metrics"
	"github.com/chatdesk/pkg/utils"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Credentials identify the sending number of one tenant.
type Credentials struct {
	AccessToken   string
	PhoneNumberID string
	APIVersion    string
}

type Service interface {
	// Send posts msg to the Graph API and returns the provider message id.
	// Every failure is a *SendError.
	Send(ctx context.Context, creds Credentials, to string, msg Message) (string, error)
}

type service struct {
	http       *resty.Client
	apiVersion string
	log        zerolog.Logger
}

type sendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type graphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

type graphErrorEnvelope struct {
	Error graphError `json:"error"`
}

func NewService(cfg config.WhatsApp, log zerolog.Logger) Service {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.GraphBaseURL, "/")).
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "chatdesk/1.0")

	return &service{
		http:       client,
		apiVersion: cfg.APIVersion,
		log:        log.With().Str("component", "whatsapp").Logger(),
	}
}

func (s *service) Send(ctx context.Context, creds Credentials, to string, msg Message) (string, error) {
	kind := msg.Kind()
	id, err := s.send(ctx, creds, to, msg)
	if err != nil {
		metrics.OutboundSends.WithLabelValues(kind, metrics.ResultFailure).Inc()
		return "", err
	}
	metrics.OutboundSends.WithLabelValues(kind, metrics.ResultSuccess).Inc()
	return id, nil
}

func (s *service) send(ctx context.Context, creds Credentials, to string, msg Message) (string, error) {
	if creds.AccessToken == "" || creds.PhoneNumberID == "" {
		return "", &SendError{Kind: KindConfiguration, Message: ErrMissingCredentials.Error(), Err: ErrMissingCredentials}
	}
	recipient := utils.DigitsOnly(to)
	if recipient == "" {
		return "", &SendError{Kind: KindInvalidRequest, Message: ErrInvalidRecipient.Error(), Err: ErrInvalidRecipient}
	}
	body, err := msg.body(recipient)
	if err != nil {
		return "", &SendError{Kind: KindInvalidRequest, Message: err.Error(), Err: err}
	}

	version := creds.APIVersion
	if version == "" {
		version = s.apiVersion
	}
	log := s.log.With().
		Str("phone_number_id", creds.PhoneNumberID).
		Str("to", recipient).
		Str("kind", msg.Kind()).
		Logger()

	var result sendResponse
	var failure graphErrorEnvelope
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(creds.AccessToken).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post(fmt.Sprintf("/%s/%s/messages", version, creds.PhoneNumberID))
	if err != nil {
		log.Error().Err(err).Msg("graph api unreachable")
		return "", &SendError{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	if resp.IsError() {
		se := &SendError{
			Kind:       KindProviderRejected,
			StatusCode: resp.StatusCode(),
			Code:       failure.Error.Code,
			Message:    failure.Error.Message,
			Body:       resp.String(),
		}
		if se.Message == "" {
			se.Message = resp.Status()
		}
		log.Error().
			Int("status", se.StatusCode).
			Int("code", se.Code).
			Str("fbtrace_id", failure.Error.FBTraceID).
			Str("body", se.Body).
			Msg("graph api rejected message")
		return "", se
	}

	if len(result.Messages) == 0 || result.Messages[0].ID == "" {
		log.Error().Str("body", resp.String()).Msg("graph api response has no message id")
		return "", &SendError{
			Kind:       KindProviderRejected,
			StatusCode: resp.StatusCode(),
			Message:    "response carries no message id",
			Body:       resp.String(),
		}
	}

	id := result.Messages[0].ID
	log.Info().Str("provider_message_id", id).Msg("whatsapp message sent")
	return id, nil
}
