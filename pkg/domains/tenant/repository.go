package tenant

import (
	"context"

	"github.com/chatdesk/pkg/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// FindByPhoneNumberID returns up to two matching credentials so callers
	// can detect a uniqueness violation.
	FindByPhoneNumberID(ctx context.Context, phoneNumberID string) ([]entities.WhatsAppCredential, error)
	FindByUserID(ctx context.Context, userID uint) (entities.WhatsAppCredential, error)
	Upsert(ctx context.Context, cred *entities.WhatsAppCredential) error
	SetAssistant(ctx context.Context, userID uint, enabled bool) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) FindByPhoneNumberID(ctx context.Context, phoneNumberID string) ([]entities.WhatsAppCredential, error) {
	var creds []entities.WhatsAppCredential
	err := r.db.WithContext(ctx).
		Where("phone_number_id = ?", phoneNumberID).
		Limit(2).
		Find(&creds).Error
	return creds, err
}

func (r *repository) FindByUserID(ctx context.Context, userID uint) (entities.WhatsAppCredential, error) {
	var cred entities.WhatsAppCredential
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cred).Error
	return cred, err
}

func (r *repository) Upsert(ctx context.Context, cred *entities.WhatsAppCredential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"phone_number_id", "waba_id", "access_token", "display_phone_number", "api_version", "updated_at",
			}),
		}).
		Create(cred).Error
}

func (r *repository) SetAssistant(ctx context.Context, userID uint, enabled bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.WhatsAppCredential{}).
		Where("user_id = ?", userID).
		Update("assistant_enabled", enabled)
	return res.RowsAffected, res.Error
}
