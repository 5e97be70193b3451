package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	obsmetrics "github.com/ultracivic/backend/internal/observability/metrics"
	orderdomain "github.com/ultracivic/backend/internal/order/domain"
	"github.com/ultracivic/backend/internal/payment/domain"
	"github.com/ultracivic/backend/internal/payment/stripeapi"
	userdomain "github.com/ultracivic/backend/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Repo      domain.Repository
	OrderRepo orderdomain.Repository
	UserRepo  userdomain.Repository
	Stripe    stripeapi.Client
	GenID     *snowflake.Node
	Clock     clock.Clock
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	repo      domain.Repository
	orderRepo orderdomain.Repository
	userRepo  userdomain.Repository
	stripe    stripeapi.Client
	genID     *snowflake.Node
	clock     clock.Clock
	metrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("payment.service"),
		repo:      p.Repo,
		orderRepo: p.OrderRepo,
		userRepo:  p.UserRepo,
		stripe:    p.Stripe,
		genID:     p.GenID,
		clock:     p.Clock,
		metrics:   p.Metrics,
	}
}

func (s *Service) Authorize(ctx context.Context, userID, orderID snowflake.ID) (*domain.AuthorizeResult, error) {
	order, err := s.orderRepo.FindByUserAndID(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	// Repeated calls return the intent already attached to the order.
	if existing, err := s.repo.FindByOrderID(ctx, order.ID); err == nil {
		return &domain.AuthorizeResult{Intent: existing, ClientSecret: existing.ClientSecret}, nil
	} else if !errors.Is(err, domain.ErrIntentNotFound) {
		return nil, err
	}

	if order.Status != orderdomain.StatusDraft {
		return nil, domain.ErrOrderNotPayable
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.stripe.CreatePaymentIntent(ctx, stripeapi.CreatePaymentIntentInput{
		AmountCents: order.TotalCents,
		Currency:    "usd",
		Metadata: map[string]string{
			"order_id":   order.ID.String(),
			"user_id":    user.ID.String(),
			"user_email": user.Email,
			"tonnes_co2": strconv.Itoa(order.TonnesCO2),
		},
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	intent := &domain.PaymentIntent{
		ID:             s.genID.Generate(),
		OrderID:        order.ID,
		UserID:         user.ID,
		StripeIntentID: created.ID,
		AmountCents:    order.TotalCents,
		Currency:       "usd",
		Status:         domain.IntentStatus(created.Status),
		ClientSecret:   created.ClientSecret,
		Metadata: datatypes.JSONMap{
			"order_id":   order.ID.String(),
			"user_id":    user.ID.String(),
			"user_email": user.Email,
			"tonnes_co2": order.TonnesCO2,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, intent); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateFields(ctx, order.ID, map[string]any{
		"stripe_payment_intent_id": created.ID,
		"updated_at":               now,
	}); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Transition(ctx, order.ID, orderdomain.StatusDraft, orderdomain.StatusPaymentPending); err != nil {
		return nil, err
	}

	s.log.Info("payment intent created",
		zap.String("order_id", order.ID.String()),
		zap.String("stripe_intent_id", created.ID),
		zap.Int64("amount_cents", order.TotalCents),
	)

	return &domain.AuthorizeResult{Intent: intent, ClientSecret: created.ClientSecret}, nil
}

func (s *Service) Capture(ctx context.Context, orderID snowflake.ID) error {
	intent, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.repo.ClaimForCapture(ctx, intent.ID); err != nil {
		return err
	}

	if _, err := s.stripe.CapturePaymentIntent(ctx, intent.StripeIntentID, intent.AmountCents); err != nil {
		s.log.Error("capture failed",
			zap.String("order_id", orderID.String()),
			zap.String("stripe_intent_id", intent.StripeIntentID),
			zap.Error(err),
		)
		if updateErr := s.repo.UpdateStatus(ctx, intent.ID, domain.IntentPaymentFailed); updateErr != nil {
			s.log.Warn("record capture failure", zap.Error(updateErr))
		}
		if transErr := s.orderRepo.Transition(ctx, orderID, orderdomain.StatusPaymentAuthorized, orderdomain.StatusFailed); transErr != nil {
			s.log.Warn("mark order failed", zap.Error(transErr))
		}
		s.metrics.IncPaymentCapture("failed")
		return err
	}

	if err := s.repo.MarkCaptured(ctx, intent.ID, intent.AmountCents, s.clock.Now()); err != nil {
		return err
	}
	if err := s.orderRepo.Transition(ctx, orderID, orderdomain.StatusPaymentAuthorized, orderdomain.StatusProcessing); err != nil {
		// Webhook delivery may have advanced the order already.
		if !errors.Is(err, orderdomain.ErrInvalidTransition) {
			return err
		}
	}

	s.metrics.IncPaymentCapture("captured")
	s.log.Info("payment captured",
		zap.String("order_id", orderID.String()),
		zap.String("stripe_intent_id", intent.StripeIntentID),
	)
	return nil
}

func (s *Service) ApplyStripeStatus(ctx context.Context, stripeIntentID string, status domain.IntentStatus) error {
	intent, err := s.repo.FindByStripeID(ctx, stripeIntentID)
	if err != nil {
		return err
	}

	// Stripe delivers events at least once and out of order; a mirrored
	// status never moves the intent backward.
	if status.Rank() > intent.Status.Rank() {
		if err := s.repo.AdvanceStatus(ctx, intent.ID, intent.Status, status); err != nil {
			return err
		}
	} else if status != intent.Status {
		s.log.Debug("stale intent status ignored",
			zap.String("stripe_intent_id", stripeIntentID),
			zap.String("current", string(intent.Status)),
			zap.String("reported", string(status)),
		)
	}

	switch status {
	case domain.IntentRequiresCapture:
		err = s.transitionAny(ctx, intent.OrderID,
			[]orderdomain.Status{orderdomain.StatusPaymentPending},
			orderdomain.StatusPaymentAuthorized)
	case domain.IntentSucceeded:
		err = s.transitionAny(ctx, intent.OrderID,
			[]orderdomain.Status{orderdomain.StatusPaymentAuthorized},
			orderdomain.StatusProcessing)
	case domain.IntentCanceled:
		err = s.transitionAny(ctx, intent.OrderID,
			[]orderdomain.Status{orderdomain.StatusPaymentPending, orderdomain.StatusPaymentAuthorized},
			orderdomain.StatusCanceled)
	case domain.IntentPaymentFailed:
		err = s.transitionAny(ctx, intent.OrderID,
			[]orderdomain.Status{orderdomain.StatusPaymentPending, orderdomain.StatusPaymentAuthorized},
			orderdomain.StatusFailed)
	default:
		return nil
	}

	// A redelivered event finds the order already advanced; that is a
	// no-op, not a failure.
	if errors.Is(err, orderdomain.ErrInvalidTransition) {
		s.log.Debug("order already past transition",
			zap.String("stripe_intent_id", stripeIntentID),
			zap.String("status", string(status)),
		)
		return nil
	}
	return err
}

func (s *Service) transitionAny(ctx context.Context, orderID snowflake.ID, from []orderdomain.Status, to orderdomain.Status) error {
	var lastErr error
	for _, f := range from {
		err := s.orderRepo.Transition(ctx, orderID, f, to)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, orderdomain.ErrInvalidTransition) {
			return err
		}
	}
	return lastErr
}
