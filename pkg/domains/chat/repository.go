package chat

import (
	"context"
	"time"

	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	FindByPhones(ctx context.Context, userID uint, phones []string) (entities.Chat, error)
	// CreateIfAbsent inserts chat unless (user_id, phone) already exists and
	// reports whether a row was written.
	CreateIfAbsent(ctx context.Context, chat *entities.Chat) (bool, error)
	FindByID(ctx context.Context, userID, chatID uint) (entities.Chat, error)
	ListByUser(ctx context.Context, userID uint, page int) ([]entities.Chat, utils.Page, error)
	ResetUnread(ctx context.Context, userID, chatID uint) (int64, error)

	// InsertMessage reports false when provider_message_id is already stored.
	InsertMessage(ctx context.Context, msg *entities.Message) (bool, error)
	ListMessages(ctx context.Context, chatID, beforeID uint, limit int) ([]entities.Message, error)
	TouchSummary(ctx context.Context, chatID uint, text string, at time.Time, incrementUnread bool) error
	UpdateStatusByProviderID(ctx context.Context, providerMessageID, status string, from []string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) FindByPhones(ctx context.Context, userID uint, phones []string) (entities.Chat, error) {
	var chat entities.Chat
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND phone IN ?", userID, phones).
		Order("id asc").
		First(&chat).Error
	return chat, err
}

func (r *repository) CreateIfAbsent(ctx context.Context, chat *entities.Chat) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(chat)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) FindByID(ctx context.Context, userID, chatID uint) (entities.Chat, error) {
	var chat entities.Chat
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error
	return chat, err
}

func (r *repository) ListByUser(ctx context.Context, userID uint, page int) ([]entities.Chat, utils.Page, error) {
	var chats []entities.Chat
	p, err := utils.Pagination(ctx, r.db, &chats, page, "last_message_at DESC NULLS LAST, id DESC", "user_id = ?", userID)
	return chats, p, err
}

func (r *repository) ResetUnread(ctx context.Context, userID, chatID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.Chat{}).
		Where("id = ? AND user_id = ?", chatID, userID).
		Update("unread_count", 0)
	return res.RowsAffected, res.Error
}

func (r *repository) InsertMessage(ctx context.Context, msg *entities.Message) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(msg)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ListMessages(ctx context.Context, chatID, beforeID uint, limit int) ([]entities.Message, error) {
	q := r.db.WithContext(ctx).Where("chat_id = ?", chatID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []entities.Message
	if err := q.Order("id desc").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	// oldest first for rendering
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *repository) TouchSummary(ctx context.Context, chatID uint, text string, at time.Time, incrementUnread bool) error {
	updates := map[string]interface{}{
		"last_message":    text,
		"last_message_at": at,
	}
	if incrementUnread {
		updates["unread_count"] = gorm.Expr("unread_count + 1")
	}
	return r.db.WithContext(ctx).
		Model(&entities.Chat{}).
		Where("id = ?", chatID).
		Updates(updates).Error
}

func (r *repository) UpdateStatusByProviderID(ctx context.Context, providerMessageID, status string, from []string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("provider_message_id = ? AND status IN ?", providerMessageID, from).
		Update("status", status)
	return res.RowsAffected, res.Error
}
