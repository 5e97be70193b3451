package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	"github.com/ultracivic/backend/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ethAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

type Params struct {
	fx.In

	Log   *zap.Logger
	Repo  domain.Repository
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("order.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, in domain.CreateOrderInput) (*domain.Order, error) {
	if in.TonnesCO2 < domain.MinTonnes || in.TonnesCO2 > domain.MaxTonnes {
		return nil, domain.ErrInvalidTonnes
	}

	var ethAddress *string
	if addr := strings.TrimSpace(in.EthAddress); addr != "" {
		if !ethAddressPattern.MatchString(addr) {
			return nil, domain.ErrInvalidEthAddress
		}
		ethAddress = &addr
	}

	subtotal, fee, total, tokensMilli := domain.Quote(in.TonnesCO2)
	// Tokens mint to an address; without one there is nothing to mint.
	if ethAddress == nil {
		tokensMilli = 0
	}
	now := s.clock.Now()
	order := &domain.Order{
		ID:            s.genID.Generate(),
		UserID:        in.UserID,
		TonnesCO2:     in.TonnesCO2,
		SubtotalCents: subtotal,
		FeeCents:      fee,
		TotalCents:    total,
		TokensMilli:   tokensMilli,
		EthAddress:    ethAddress,
		Status:        domain.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.Int("tonnes_co2", order.TonnesCO2),
		zap.Int64("total_cents", order.TotalCents),
	)
	return order, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID snowflake.ID) (*domain.Order, error) {
	return s.repo.FindByUserAndID(ctx, userID, orderID)
}

func (s *Service) List(ctx context.Context, userID snowflake.ID) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}
