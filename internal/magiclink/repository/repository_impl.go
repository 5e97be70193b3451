package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/magiclink/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) Create(ctx context.Context, link *domain.MagicLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *repo) FindByToken(ctx context.Context, token string) (*domain.MagicLink, error) {
	var link domain.MagicLink
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvalidLink
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repo) DeleteUnusedByUser(ctx context.Context, userID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND is_used = ?", userID, false).
		Delete(&domain.MagicLink{}).Error
}

func (r *repo) MarkUsed(ctx context.Context, id snowflake.ID, usedAt time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.MagicLink{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]any{
			"is_used": true,
			"used_at": usedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrInvalidLink
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.MagicLink{}).Error
}

func (r *repo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&domain.MagicLink{})
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}
