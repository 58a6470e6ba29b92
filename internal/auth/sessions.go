package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/model"
	"taskmanager/internal/repository"
)

// TokenStore is the durable record of issued and revoked refresh tokens.
type TokenStore interface {
	RecordOutstanding(ctx context.Context, jti string, userID uuid.UUID, expiresAt time.Time) error
	Blacklist(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	Rotate(ctx context.Context, oldJTI string, oldExpiresAt time.Time, next model.OutstandingToken) error
}

var _ TokenStore = (*repository.TokenRepository)(nil)

// Sessions issues refresh tokens, rotates them on refresh and revokes them on logout.
// Every rotated or revoked refresh token is blacklisted.
type Sessions struct {
	tokens *TokenManager
	store  TokenStore
	cache  Blacklist
}

// NewSessions wires the token ledger. cache may be nil.
func NewSessions(tokens *TokenManager, store TokenStore, cache Blacklist) *Sessions {
	return &Sessions{tokens: tokens, store: store, cache: cache}
}

func (s *Sessions) Tokens() *TokenManager {
	return s.tokens
}

// Issue signs a new pair for a user who just authenticated.
func (s *Sessions) Issue(ctx context.Context, userID uuid.UUID) (Pair, error) {
	pair, err := s.tokens.GeneratePair(userID)
	if err != nil {
		return Pair{}, err
	}
	if err := s.store.RecordOutstanding(ctx, pair.Refresh.JTI, userID, pair.Refresh.ExpiresAt); err != nil {
		return Pair{}, err
	}
	return pair, nil
}

// Refresh exchanges a valid, not yet used refresh token for a new pair.
// The presented token is blacklisted in the same transaction that records its successor.
func (s *Sessions) Refresh(ctx context.Context, refresh string) (Pair, error) {
	claims, err := s.tokens.ParseRefresh(refresh)
	if err != nil {
		return Pair{}, ErrInvalidToken
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return Pair{}, err
	}
	if revoked {
		return Pair{}, ErrInvalidToken
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return Pair{}, ErrInvalidClaims
	}

	pair, err := s.tokens.GeneratePair(userID)
	if err != nil {
		return Pair{}, err
	}

	oldExpiresAt := claims.ExpiresAt.Time
	err = s.store.Rotate(ctx, claims.ID, oldExpiresAt, model.OutstandingToken{
		JTI:       pair.Refresh.JTI,
		UserID:    userID,
		ExpiresAt: pair.Refresh.ExpiresAt,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return Pair{}, ErrInvalidToken
	}
	if err != nil {
		return Pair{}, err
	}

	s.cacheRevoked(ctx, claims.ID, oldExpiresAt)
	return pair, nil
}

// Revoke blacklists a refresh token. Invalid tokens are reported as ErrInvalidToken.
func (s *Sessions) Revoke(ctx context.Context, refresh string) error {
	claims, err := s.tokens.ParseRefresh(refresh)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.store.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.cacheRevoked(ctx, claims.ID, claims.ExpiresAt.Time)
	return nil
}

func (s *Sessions) isRevoked(ctx context.Context, jti string) (bool, error) {
	if s.cache != nil {
		// A cache failure falls through to the durable store.
		if hit, err := s.cache.Contains(ctx, jti); err == nil && hit {
			return true, nil
		}
	}
	return s.store.IsBlacklisted(ctx, jti)
}

func (s *Sessions) cacheRevoked(ctx context.Context, jti string, expiresAt time.Time) {
	if s.cache != nil {
		_ = s.cache.Add(ctx, jti, expiresAt)
	}
}
