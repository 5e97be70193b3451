package kyc

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	"github.com/ultracivic/backend/internal/config"
	orderdomain "github.com/ultracivic/backend/internal/order/domain"
	paymentdomain "github.com/ultracivic/backend/internal/payment/domain"
	"github.com/ultracivic/backend/internal/payment/stripeapi"
	userdomain "github.com/ultracivic/backend/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	UserRepo   userdomain.Repository
	OrderRepo  orderdomain.Repository
	PaymentSvc paymentdomain.Service
	Stripe     stripeapi.Client
	Clock      clock.Clock
}

type service struct {
	log        *zap.Logger
	cfg        config.Config
	userRepo   userdomain.Repository
	orderRepo  orderdomain.Repository
	paymentSvc paymentdomain.Service
	stripe     stripeapi.Client
	clock      clock.Clock
}

func New(p Params) Service {
	return &service{
		log:        p.Log.Named("kyc.service"),
		cfg:        p.Cfg,
		userRepo:   p.UserRepo,
		orderRepo:  p.OrderRepo,
		paymentSvc: p.PaymentSvc,
		stripe:     p.Stripe,
		clock:      p.Clock,
	}
}

func (s *service) Start(ctx context.Context, userID snowflake.ID) (*StartResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, userdomain.ErrUserInactive
	}

	session, err := s.stripe.CreateVerificationSession(ctx, stripeapi.CreateVerificationSessionInput{
		ReturnURL: s.cfg.FrontendBaseURL + "/kyc/complete",
		Metadata: map[string]string{
			"user_id":    user.ID.String(),
			"user_email": user.Email,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"kyc_status":          userdomain.KYCPending,
		"kyc_verification_id": session.ID,
		"updated_at":          s.clock.Now(),
	}); err != nil {
		return nil, err
	}

	s.log.Info("kyc verification started",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", session.ID),
	)

	return &StartResult{
		SessionID:    session.ID,
		ClientSecret: session.ClientSecret,
		URL:          session.URL,
	}, nil
}

func (s *service) HandleVerificationEvent(ctx context.Context, event VerificationEvent) (Outcome, error) {
	user, err := s.userRepo.FindByID(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			s.log.Warn("verification event for unknown user",
				zap.String("session_id", event.SessionID),
				zap.String("user_id", event.UserID.String()),
			)
			return OutcomeIgnored, nil
		}
		return "", err
	}

	switch event.Status {
	case EventVerified:
		return s.applyVerified(ctx, user, event.SessionID)
	case EventRequiresInput:
		// There is no "needs more input" state; the user recovers by
		// starting verification again.
		if err := s.setKYCStatus(ctx, user.ID, userdomain.KYCFailed, event.SessionID); err != nil {
			return "", err
		}
		return OutcomeFailed, nil
	case EventCanceled:
		if err := s.setKYCStatus(ctx, user.ID, userdomain.KYCUnverified, event.SessionID); err != nil {
			return "", err
		}
		return OutcomeUnverified, nil
	default:
		return OutcomeIgnored, nil
	}
}

func (s *service) applyVerified(ctx context.Context, user *userdomain.User, sessionID string) (Outcome, error) {
	if user.KYCStatus == userdomain.KYCVerified &&
		user.KYCVerificationID != nil && *user.KYCVerificationID == sessionID {
		return OutcomeAlreadyProcessed, nil
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"kyc_status":          userdomain.KYCVerified,
		"kyc_verification_id": sessionID,
		"kyc_verified_at":     s.clock.Now(),
		"updated_at":          s.clock.Now(),
	}); err != nil {
		return "", err
	}

	summary, err := s.CaptureAllAuthorizedOrders(ctx, user.ID)
	if err != nil {
		return "", err
	}

	s.log.Info("kyc verified",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", sessionID),
		zap.Int("orders_captured", summary.Captured),
		zap.Int("orders_failed", summary.Failed),
	)
	return OutcomeVerified, nil
}

func (s *service) CaptureAllAuthorizedOrders(ctx context.Context, userID snowflake.ID) (CaptureSummary, error) {
	orders, err := s.orderRepo.ListByUserAndStatus(ctx, userID, orderdomain.StatusPaymentAuthorized)
	if err != nil {
		return CaptureSummary{}, err
	}

	var summary CaptureSummary
	for _, order := range orders {
		if err := s.paymentSvc.Capture(ctx, order.ID); err != nil {
			summary.Failed++
			s.log.Error("capture after kyc failed",
				zap.String("order_id", order.ID.String()),
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		summary.Captured++
	}
	return summary, nil
}

func (s *service) setKYCStatus(ctx context.Context, userID snowflake.ID, status userdomain.KYCStatus, sessionID string) error {
	return s.userRepo.UpdateFields(ctx, userID, map[string]any{
		"kyc_status":          status,
		"kyc_verification_id": sessionID,
		"updated_at":          s.clock.Now(),
	})
}
