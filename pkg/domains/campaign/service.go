package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/metrics"
	"github.com/chatdesk/pkg/utils"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound   = fmt.Errorf(constant.CANT_FIND, "Campaign")
	ErrCampaignNotPending = errors.New("campaign already started")
)

const DefaultLanguage = "es"

// Sender delivers one template to a phone number, creating the chat when
// needed. messaging.Service satisfies it.
type Sender interface {
	SendToPhone(ctx context.Context, tenantID uint, phone, name string, msg whatsapp.Message) (dtos.MessageResponseDTO, error)
}

type Service interface {
	Create(ctx context.Context, userID uint, req dtos.CreateCampaignDTO) (entities.Campaign, error)
	List(ctx context.Context, userID uint, page int) ([]entities.Campaign, utils.Page, error)
	// RunNow claims a pending campaign and delivers it in the background.
	RunNow(ctx context.Context, userID, id uint) (entities.Campaign, error)
	// RunDue claims and delivers every due campaign, returning how many ran.
	RunDue(ctx context.Context, limit int) (int, error)
	// Close interrupts runs started by RunNow and waits until each has
	// recorded its result.
	Close()
}

type service struct {
	repository Repository
	sender     Sender
	log        zerolog.Logger
	now        func() time.Time
	async      func(func())

	base context.Context
	stop context.CancelFunc
	runs sync.WaitGroup
}

func NewService(r Repository, sender Sender, log zerolog.Logger) Service {
	base, stop := context.WithCancel(context.Background())
	s := &service{
		repository: r,
		sender:     sender,
		log:        log.With().Str("component", "campaign").Logger(),
		now:        time.Now,
		base:       base,
		stop:       stop,
	}
	s.async = func(f func()) {
		s.runs.Add(1)
		go func() {
			defer s.runs.Done()
			f()
		}()
	}
	return s
}

func (s *service) Close() {
	s.stop()
	s.runs.Wait()
}

func (s *service) Create(ctx context.Context, userID uint, req dtos.CreateCampaignDTO) (entities.Campaign, error) {
	recipients := make([]entities.CampaignRecipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, entities.CampaignRecipient{
			Phone: strings.TrimSpace(r.Phone),
			Name:  strings.TrimSpace(r.Name),
		})
	}
	recipientsJSON, err := json.Marshal(recipients)
	if err != nil {
		return entities.Campaign{}, err
	}
	params := req.Parameters
	if params == nil {
		params = []string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return entities.Campaign{}, err
	}

	lang := strings.TrimSpace(req.LanguageCode)
	if lang == "" {
		lang = DefaultLanguage
	}
	scheduled := s.now()
	if req.ScheduledAt != nil && !req.ScheduledAt.IsZero() {
		scheduled = *req.ScheduledAt
	}

	c := entities.Campaign{
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		TemplateName: strings.TrimSpace(req.TemplateName),
		LanguageCode: lang,
		Parameters:   datatypes.JSON(paramsJSON),
		Recipients:   datatypes.JSON(recipientsJSON),
		ScheduledAt:  scheduled,
		Status:       entities.CampaignStatusPending,
	}
	if err := s.repository.Create(ctx, &c); err != nil {
		return c, fmt.Errorf("create campaign: %w", err)
	}
	s.log.Info().Uint("tenant_id", userID).Uint("campaign_id", c.ID).Int("recipients", len(recipients)).Time("scheduled_at", scheduled).Msg("campaign created")
	return c, nil
}

func (s *service) List(ctx context.Context, userID uint, page int) ([]entities.Campaign, utils.Page, error) {
	return s.repository.List(ctx, userID, page)
}

func (s *service) RunNow(ctx context.Context, userID, id uint) (entities.Campaign, error) {
	c, err := s.repository.FindByID(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, ErrCampaignNotFound
	}
	if err != nil {
		return c, fmt.Errorf("load campaign %d: %w", id, err)
	}

	claimed, err := s.claim(ctx, &c)
	if err != nil {
		return c, err
	}
	if !claimed {
		return c, ErrCampaignNotPending
	}

	run := c
	// the request returns right away; the run lives until Close
	s.async(func() { s.execute(s.base, run) })
	return c, nil
}

func (s *service) RunDue(ctx context.Context, limit int) (int, error) {
	due, err := s.repository.Due(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("query due campaigns: %w", err)
	}

	ran := 0
	for _, c := range due {
		claimed, err := s.claim(ctx, &c)
		if err != nil {
			s.log.Error().Err(err).Uint("campaign_id", c.ID).Msg("claim failed")
			continue
		}
		if !claimed {
			continue
		}
		s.execute(ctx, c)
		ran++
	}
	return ran, nil
}

func (s *service) claim(ctx context.Context, c *entities.Campaign) (bool, error) {
	if c.Status != entities.CampaignStatusPending {
		return false, nil
	}
	at := s.now()
	ok, err := s.repository.Claim(ctx, c.ID, at)
	if err != nil {
		return false, fmt.Errorf("claim campaign %d: %w", c.ID, err)
	}
	if ok {
		c.Status = entities.CampaignStatusRunning
		c.StartedAt = &at
	}
	return ok, nil
}

// execute sends the template to each recipient in order. Failed recipients
// are counted, not retried.
func (s *service) execute(ctx context.Context, c entities.Campaign) {
	log := s.log.With().Uint("campaign_id", c.ID).Uint("tenant_id", c.UserID).Logger()

	var recipients []entities.CampaignRecipient
	var params []string
	if err := json.Unmarshal(c.Recipients, &recipients); err != nil {
		log.Error().Err(err).Msg("recipients unreadable")
		s.finish(ctx, log, c.ID, entities.CampaignStatusFailed, 0, 0)
		return
	}
	if len(c.Parameters) > 0 {
		if err := json.Unmarshal(c.Parameters, &params); err != nil {
			log.Error().Err(err).Msg("template parameters unreadable")
			s.finish(ctx, log, c.ID, entities.CampaignStatusFailed, 0, len(recipients))
			return
		}
	}

	msg := whatsapp.TemplateMessage(c.TemplateName, c.LanguageCode, params...)
	sent, failed := 0, 0
	for _, r := range recipients {
		if ctx.Err() != nil {
			failed += len(recipients) - sent - failed
			break
		}
		if _, err := s.sender.SendToPhone(ctx, c.UserID, r.Phone, r.Name, msg); err != nil {
			failed++
			metrics.CampaignDeliveries.WithLabelValues(metrics.ResultFailure).Inc()
			log.Warn().Err(err).Str("phone", r.Phone).Msg("campaign delivery failed")
			continue
		}
		sent++
		metrics.CampaignDeliveries.WithLabelValues(metrics.ResultSuccess).Inc()
	}

	status := entities.CampaignStatusDone
	if sent == 0 && failed > 0 {
		status = entities.CampaignStatusFailed
	}
	s.finish(ctx, log, c.ID, status, sent, failed)
}

func (s *service) finish(ctx context.Context, log zerolog.Logger, id uint, status string, sent, failed int) {
	if err := s.repository.Finish(context.WithoutCancel(ctx), id, status, sent, failed, s.now()); err != nil {
		log.Error().Err(err).Msg("campaign result not saved")
		return
	}
	log.Info().Str("status", status).Int("sent", sent).Int("failed", failed).Msg("campaign finished")
}
