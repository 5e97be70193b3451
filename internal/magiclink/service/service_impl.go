package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	"github.com/ultracivic/backend/internal/magiclink/domain"
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
		log:      p.Log.Named("magiclink.service"),
		repo:     p.Repo,
		userRepo: p.UserRepo,
		genID:    p.GenID,
		clock:    p.Clock,
	}
}

// RequestLink issues a fresh single-use link for the email's account,
// creating the account on first contact. Any earlier unused links for
// the same user are discarded first.
func (s *Service) RequestLink(ctx context.Context, in domain.RequestLinkInput) (*domain.RequestLinkResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}

	user, err := s.userRepo.GetOrCreateByEmail(ctx, s.genID.Generate(), email)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteUnusedByUser(ctx, user.ID); err != nil {
		return nil, err
	}

	raw, err := token.Generate()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	link := &domain.MagicLink{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		Token:            raw,
		ExpiresAt:        now.Add(domain.TTL),
		RequestIP:        strings.TrimSpace(in.IPAddress),
		RequestUserAgent: strings.TrimSpace(in.UserAgent),
		RedirectURL:      strings.TrimSpace(in.RedirectURL),
		CreatedAt:        now,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, err
	}

	s.log.Info("magic link issued",
		zap.String("user_id", user.ID.String()),
		zap.Time("expires_at", link.ExpiresAt),
	)

	return &domain.RequestLinkResult{
		User:  user,
		Link:  link,
		Token: raw,
	}, nil
}

// Redeem consumes a link exactly once and marks the account's email
// verified. Every failure mode maps to ErrInvalidLink.
func (s *Service) Redeem(ctx context.Context, in domain.RedeemInput) (*domain.RedeemResult, error) {
	raw := strings.TrimSpace(in.Token)
	if raw == "" {
		return nil, domain.ErrInvalidLink
	}

	link, err := s.repo.FindByToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !now.Before(link.ExpiresAt) {
		// Lazy cleanup; the sweep would get it eventually.
		_ = s.repo.Delete(ctx, link.ID)
		return nil, domain.ErrInvalidLink
	}
	if link.IsUsed {
		return nil, domain.ErrInvalidLink
	}

	if in.EnforceBinding {
		// A link only binds to the client data actually recorded when it
		// was requested; links issued without IP or user agent bind to
		// nothing on that axis.
		ip := strings.TrimSpace(in.IPAddress)
		ua := strings.TrimSpace(in.UserAgent)
		if (link.RequestIP != "" && link.RequestIP != ip) ||
			(link.RequestUserAgent != "" && link.RequestUserAgent != ua) {
			s.log.Warn("magic link client binding mismatch",
				zap.String("user_id", link.UserID.String()),
			)
			return nil, domain.ErrInvalidLink
		}
	}

	if err := s.repo.MarkUsed(ctx, link.ID, now); err != nil {
		return nil, err
	}

	if err := s.userRepo.MarkVerified(ctx, link.UserID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, link.UserID)
	if err != nil {
		return nil, err
	}

	s.log.Info("magic link redeemed", zap.String("user_id", user.ID.String()))

	return &domain.RedeemResult{
		User:        user,
		RedirectURL: link.RedirectURL,
	}, nil
}

func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.clock.Now())
}

// BuildURL renders the redemption URL a user clicks from their inbox.
func BuildURL(base, rawToken string) string {
	return fmt.Sprintf("%s/auth/magic-link/redeem?token=%s", strings.TrimRight(base, "/"), rawToken)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("empty email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", err
	}
	return addr.Address, nil
}
