package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskmanager/internal/model"
)

// TokenRepository is the durable ledger of issued and blacklisted refresh tokens.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) RecordOutstanding(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Create(&model.OutstandingToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}).Error
}

// Blacklist marks jti as unusable. Blacklisting twice is a no-op.
func (r *TokenRepository) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.BlacklistedToken{JTI: jti, ExpiresAt: expiresAt}).Error
}

func (r *TokenRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BlacklistedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

// Rotate blacklists the old refresh token and records its replacement atomically.
func (r *TokenRepository) Rotate(ctx context.Context, oldJTI string, oldExpiresAt time.Time, next model.OutstandingToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.BlacklistedToken{JTI: oldJTI, ExpiresAt: oldExpiresAt})
		if result.Error != nil {
			return result.Error
		}
		// Another request rotated the same token first.
		if result.RowsAffected == 0 {
			return ErrDuplicate
		}
		return tx.Create(&next).Error
	})
}

// FlushExpired deletes outstanding and blacklisted tokens that expired before now.
func (r *TokenRepository) FlushExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at < ?", now).Delete(&model.BlacklistedToken{})
		if res.Error != nil {
			return res.Error
		}
		removed += res.RowsAffected

		res = tx.Where("expires_at < ?", now).Delete(&model.OutstandingToken{})
		if res.Error != nil {
			return res.Error
		}
		removed += res.RowsAffected
		return nil
	})
	return removed, err
}
