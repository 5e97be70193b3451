package domain

import (
	"context"

	userdomain "github.com/ultracivic/backend/internal/user/domain"
)

type RequestLinkInput struct {
	Email       string
	RedirectURL string
	IPAddress   string
	UserAgent   string
}

type RequestLinkResult struct {
	User  *userdomain.User
	Link  *MagicLink
	Token string
}

type RedeemInput struct {
	Token          string
	IPAddress      string
	UserAgent      string
	EnforceBinding bool
}

type RedeemResult struct {
	User        *userdomain.User
	RedirectURL string
}

type Service interface {
	RequestLink(ctx context.Context, in RequestLinkInput) (*RequestLinkResult, error)
	Redeem(ctx context.Context, in RedeemInput) (*RedeemResult, error)
	SweepExpired(ctx context.Context) (int64, error)
}
