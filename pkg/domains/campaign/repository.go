package campaign

import (
	"context"
	"time"

	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/utils"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, c *entities.Campaign) error
	FindByID(ctx context.Context, userID, id uint) (entities.Campaign, error)
	List(ctx context.Context, userID uint, page int) ([]entities.Campaign, utils.Page, error)
	// Due returns pending campaigns scheduled at or before now, oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]entities.Campaign, error)
	// Claim moves a campaign from pending to running. False means another
	// worker or request got it first.
	Claim(ctx context.Context, id uint, at time.Time) (bool, error)
	Finish(ctx context.Context, id uint, status string, sent, failed int, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) Create(ctx context.Context, c *entities.Campaign) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) FindByID(ctx context.Context, userID, id uint) (entities.Campaign, error) {
	var c entities.Campaign
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	return c, err
}

func (r *repository) List(ctx context.Context, userID uint, page int) ([]entities.Campaign, utils.Page, error) {
	var campaigns []entities.Campaign
	p, err := utils.Pagination(ctx, r.db, &campaigns, page, "id DESC", "user_id = ?", userID)
	return campaigns, p, err
}

func (r *repository) Due(ctx context.Context, now time.Time, limit int) ([]entities.Campaign, error) {
	var campaigns []entities.Campaign
	err := r.db.WithContext(ctx).
		Where("status = ?", entities.CampaignStatusPending).
		Where("scheduled_at <= ?", now).
		Order("scheduled_at asc, id asc").
		Limit(limit).
		Find(&campaigns).Error
	return campaigns, err
}

func (r *repository) Claim(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.Campaign{}).
		Where("id = ? AND status = ?", id, entities.CampaignStatusPending).
		Updates(map[string]interface{}{
			"status":     entities.CampaignStatusRunning,
			"started_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) Finish(ctx context.Context, id uint, status string, sent, failed int, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entities.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"sent_count":   sent,
			"failed_count": failed,
			"finished_at":  at,
		}).Error
}
