package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/entities"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrTenantNotFound      = errors.New("no tenant owns this phone number id")
	ErrAmbiguousCredential = errors.New("phone number id is registered by more than one credential")
	ErrCredentialNotFound  = errors.New("whatsapp credentials not configured")
	ErrPhoneNumberTaken    = errors.New("phone number id already connected to another account")
)

// Service resolves tenants from provider identifiers and manages the
// per-tenant Cloud API credentials.
type Service interface {
	ResolveTenant(ctx context.Context, phoneNumberID string) (uint, error)
	Credential(ctx context.Context, userID uint) (entities.WhatsAppCredential, error)
	SaveCredential(ctx context.Context, userID uint, req dtos.UpsertCredentialDTO) (entities.WhatsAppCredential, error)
	SetAssistant(ctx context.Context, userID uint, enabled bool) error
}

type service struct {
	repository Repository
	apiVersion string
	log        zerolog.Logger
}

func NewService(r Repository, defaultAPIVersion string, log zerolog.Logger) Service {
	return &service{
		repository: r,
		apiVersion: defaultAPIVersion,
		log:        log.With().Str("component", "tenant").Logger(),
	}
}

func (s *service) ResolveTenant(ctx context.Context, phoneNumberID string) (uint, error) {
	phoneNumberID = strings.TrimSpace(phoneNumberID)
	if phoneNumberID == "" {
		return 0, ErrTenantNotFound
	}

	creds, err := s.repository.FindByPhoneNumberID(ctx, phoneNumberID)
	if err != nil {
		return 0, fmt.Errorf("lookup credential %s: %w", phoneNumberID, err)
	}
	switch len(creds) {
	case 0:
		return 0, ErrTenantNotFound
	case 1:
		return creds[0].UserID, nil
	default:
		s.log.Error().Str("phone_number_id", phoneNumberID).Msg("duplicate credentials for phone number id")
		return 0, ErrAmbiguousCredential
	}
}

func (s *service) Credential(ctx context.Context, userID uint) (entities.WhatsAppCredential, error) {
	cred, err := s.repository.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cred, ErrCredentialNotFound
	}
	if err != nil {
		return cred, fmt.Errorf("load credential for tenant %d: %w", userID, err)
	}
	if cred.APIVersion == "" {
		cred.APIVersion = s.apiVersion
	}
	return cred, nil
}

func (s *service) SaveCredential(ctx context.Context, userID uint, req dtos.UpsertCredentialDTO) (entities.WhatsAppCredential, error) {
	cred := entities.WhatsAppCredential{
		UserID:             userID,
		PhoneNumberID:      strings.TrimSpace(req.PhoneNumberID),
		WabaID:             strings.TrimSpace(req.WabaID),
		AccessToken:        strings.TrimSpace(req.AccessToken),
		DisplayPhoneNumber: strings.TrimSpace(req.DisplayPhoneNumber),
		APIVersion:         strings.TrimSpace(req.APIVersion),
	}
	if cred.APIVersion == "" {
		cred.APIVersion = s.apiVersion
	}

	if err := s.repository.Upsert(ctx, &cred); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return cred, ErrPhoneNumberTaken
		}
		return cred, fmt.Errorf("save credential for tenant %d: %w", userID, err)
	}

	s.log.Info().Uint("tenant_id", userID).Str("phone_number_id", cred.PhoneNumberID).Msg("credential saved")
	return s.Credential(ctx, userID)
}

func (s *service) SetAssistant(ctx context.Context, userID uint, enabled bool) error {
	n, err := s.repository.SetAssistant(ctx, userID, enabled)
	if err != nil {
		return fmt.Errorf("update assistant flag for tenant %d: %w", userID, err)
	}
	if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
