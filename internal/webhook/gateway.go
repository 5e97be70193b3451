package webhook

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/config"
	"github.com/ultracivic/backend/internal/kyc"
	obsmetrics "github.com/ultracivic/backend/internal/observability/metrics"
	paymentdomain "github.com/ultracivic/backend/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Ack is the response body returned to Stripe.
type Ack struct {
	Received bool   `json:"received"`
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	KYCSvc     kyc.Service
	PaymentSvc paymentdomain.Service
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

// Gateway verifies, parses, and dispatches incoming Stripe events.
type Gateway struct {
	log        *zap.Logger
	secret     string
	kycSvc     kyc.Service
	paymentSvc paymentdomain.Service
	metrics    *obsmetrics.Metrics
}

func New(p Params) *Gateway {
	return &Gateway{
		log:        p.Log.Named("webhook.gateway"),
		secret:     p.Cfg.StripeWebhookSecret,
		kycSvc:     p.KYCSvc,
		paymentSvc: p.PaymentSvc,
		metrics:    p.Metrics,
	}
}

// Process handles one delivery. ErrInvalidSignature and
// ErrInvalidPayload mean the request is rejected; any other error is a
// processing failure Stripe should retry.
func (g *Gateway) Process(ctx context.Context, payload []byte, signatureHeader string) (Ack, error) {
	if err := VerifySignature(payload, signatureHeader, g.secret); err != nil {
		g.metrics.IncWebhookEvent("unknown", "invalid_signature")
		return Ack{}, err
	}

	event, err := Parse(payload)
	if err != nil {
		g.metrics.IncWebhookEvent("unknown", "invalid_payload")
		return Ack{}, err
	}

	log := g.log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)

	switch event.Kind {
	case KindVerificationVerified, KindVerificationRequiresInput, KindVerificationCanceled:
		return g.processVerification(ctx, log, event)
	case KindIntentAmountCapturable, KindIntentSucceeded, KindIntentPaymentFailed, KindIntentCanceled:
		return g.processPaymentIntent(ctx, log, event)
	default:
		g.metrics.IncWebhookEvent(event.Type, "ignored")
		return Ack{Received: true}, nil
	}
}

func (g *Gateway) processVerification(ctx context.Context, log *zap.Logger, event *Event) (Ack, error) {
	userID, ok := parseUserID(event.Metadata)
	if !ok {
		log.Warn("verification event without resolvable user")
		g.metrics.IncWebhookEvent(event.Type, "unresolvable_user")
		return Ack{Received: true}, nil
	}

	outcome, err := g.kycSvc.HandleVerificationEvent(ctx, kyc.VerificationEvent{
		SessionID: event.ObjectID,
		Status:    verificationStatus(event.Kind),
		UserID:    userID,
	})
	if err != nil {
		g.metrics.IncWebhookEvent(event.Type, "error")
		return Ack{}, err
	}

	g.metrics.IncWebhookEvent(event.Type, string(outcome))
	return Ack{Received: true, Status: string(outcome)}, nil
}

func (g *Gateway) processPaymentIntent(ctx context.Context, log *zap.Logger, event *Event) (Ack, error) {
	err := g.paymentSvc.ApplyStripeStatus(ctx, event.ObjectID, intentStatus(event.Kind))
	if err != nil {
		// An intent we never issued: acknowledge so Stripe stops
		// retrying, and leave a trace.
		if errors.Is(err, paymentdomain.ErrIntentNotFound) {
			log.Warn("payment event for unknown intent", zap.String("stripe_intent_id", event.ObjectID))
			g.metrics.IncWebhookEvent(event.Type, "unknown_intent")
			return Ack{Received: true, Error: "unknown payment intent"}, nil
		}
		g.metrics.IncWebhookEvent(event.Type, "error")
		return Ack{}, err
	}

	g.metrics.IncWebhookEvent(event.Type, "applied")
	return Ack{Received: true, Status: "applied"}, nil
}

func verificationStatus(kind Kind) kyc.EventStatus {
	switch kind {
	case KindVerificationVerified:
		return kyc.EventVerified
	case KindVerificationRequiresInput:
		return kyc.EventRequiresInput
	case KindVerificationCanceled:
		return kyc.EventCanceled
	default:
		return ""
	}
}

func intentStatus(kind Kind) paymentdomain.IntentStatus {
	switch kind {
	case KindIntentAmountCapturable:
		return paymentdomain.IntentRequiresCapture
	case KindIntentSucceeded:
		return paymentdomain.IntentSucceeded
	case KindIntentPaymentFailed:
		return paymentdomain.IntentPaymentFailed
	case KindIntentCanceled:
		return paymentdomain.IntentCanceled
	default:
		return ""
	}
}

func parseUserID(metadata map[string]string) (snowflake.ID, bool) {
	raw, ok := metadata["user_id"]
	if !ok || raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}
