package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	"github.com/ultracivic/backend/internal/session/domain"
	"github.com/ultracivic/backend/internal/token"
	userdomain "github.com/ultracivic/backend/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Repo     domain.Repository
	UserRepo userdomain.Repository
	GenID    *snowflake.Node
	Clock    clock.Clock
}

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	userRepo userdomain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("session.service"),
		repo:     p.Repo,
		userRepo: p.UserRepo,
		genID:    p.GenID,
		clock:    p.Clock,
	}
}

// Create opens a new session for the user. The user's expired and
// inactive rows are purged opportunistically so the table does not grow
// between sweeps.
func (s *Service) Create(ctx context.Context, in domain.CreateInput) (*domain.CreateResult, error) {
	now := s.clock.Now()
	if _, err := s.repo.PurgeForUser(ctx, in.UserID, now); err != nil {
		s.log.Warn("purge stale sessions failed", zap.Error(err))
	}

	raw, err := token.Generate()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:         s.genID.Generate(),
		UserID:     in.UserID,
		Token:      raw,
		UserAgent:  strings.TrimSpace(in.UserAgent),
		IPAddress:  strings.TrimSpace(in.IPAddress),
		ExpiresAt:  now.Add(domain.TTL),
		IsActive:   true,
		Data:       in.Data,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &domain.CreateResult{Session: session, Token: raw}, nil
}

func (s *Service) Resolve(ctx context.Context, raw string) (*domain.ResolveResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.repo.FindByToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	if !s.clock.Now().Before(session.ExpiresAt) {
		if err := s.repo.DeleteByToken(ctx, raw); err != nil {
			s.log.Warn("delete expired session failed", zap.Error(err))
		}
		return nil, domain.ErrSessionNotFound
	}
	if !session.IsActive {
		return nil, domain.ErrSessionNotFound
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return &domain.ResolveResult{Session: session, User: user}, nil
}

func (s *Service) Touch(ctx context.Context, session *domain.Session) error {
	return s.repo.UpdateLastSeen(ctx, session.ID, s.clock.Now())
}

// Extend pushes the session's expiry ttl from now. A non-positive ttl
// falls back to the default lifetime.
func (s *Service) Extend(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = domain.TTL
	}
	expiresAt := s.clock.Now().Add(ttl)
	if err := s.repo.UpdateExpiry(ctx, session.ID, expiresAt); err != nil {
		return err
	}
	session.ExpiresAt = expiresAt
	return nil
}

func (s *Service) Revoke(ctx context.Context, raw string) error {
	return s.repo.DeleteByToken(ctx, strings.TrimSpace(raw))
}

func (s *Service) RevokeAll(ctx context.Context, userID snowflake.ID) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}

func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.clock.Now())
}
