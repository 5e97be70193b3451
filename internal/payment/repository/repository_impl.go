package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *repo) FindByOrderID(ctx context.Context, orderID snowflake.ID) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrIntentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *repo) FindByStripeID(ctx context.Context, stripeIntentID string) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := r.db.WithContext(ctx).Where("stripe_intent_id = ?", stripeIntentID).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrIntentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.IntentStatus) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.PaymentIntent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrIntentNotFound
	}
	return nil
}

func (r *repo) AdvanceStatus(ctx context.Context, id snowflake.ID, from, to domain.IntentStatus) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.PaymentIntent{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	// RowsAffected == 0 means a concurrent delivery advanced the intent
	// first; the newer status wins.
	return tx.Error
}

func (r *repo) MarkCaptured(ctx context.Context, id snowflake.ID, amountCents int64, capturedAt time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.PaymentIntent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         domain.IntentSucceeded,
			"captured_at":    capturedAt,
			"captured_cents": amountCents,
			"updated_at":     time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrIntentNotFound
	}
	return nil
}

func (r *repo) ClaimForCapture(ctx context.Context, id snowflake.ID) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.PaymentIntent{}).
		Where("id = ? AND status = ?", id, domain.IntentRequiresCapture).
		Updates(map[string]any{
			"status":     domain.IntentProcessing,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotCapturable
	}
	return nil
}
