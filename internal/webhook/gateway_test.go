package webhook

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/config"
	"github.com/ultracivic/backend/internal/kyc"
	paymentdomain "github.com/ultracivic/backend/internal/payment/domain"
	"go.uber.org/zap"
)

type fakeKYC struct {
	events  []kyc.VerificationEvent
	outcome kyc.Outcome
}

func (f *fakeKYC) Start(ctx context.Context, userID snowflake.ID) (*kyc.StartResult, error) {
	return &kyc.StartResult{SessionID: "vs_test"}, nil
}

func (f *fakeKYC) HandleVerificationEvent(ctx context.Context, event kyc.VerificationEvent) (kyc.Outcome, error) {
	f.events = append(f.events, event)
	return f.outcome, nil
}

func (f *fakeKYC) CaptureAllAuthorizedOrders(ctx context.Context, userID snowflake.ID) (kyc.CaptureSummary, error) {
	return kyc.CaptureSummary{}, nil
}

type fakePayments struct {
	applied map[string]paymentdomain.IntentStatus
	err     error
}

func (f *fakePayments) Authorize(ctx context.Context, userID, orderID snowflake.ID) (*paymentdomain.AuthorizeResult, error) {
	return nil, nil
}

func (f *fakePayments) Capture(ctx context.Context, orderID snowflake.ID) error {
	return nil
}

func (f *fakePayments) ApplyStripeStatus(ctx context.Context, stripeIntentID string, status paymentdomain.IntentStatus) error {
	if f.err != nil {
		return f.err
	}
	f.applied[stripeIntentID] = status
	return nil
}

const testSecret = "whsec_test"

func newGateway(kycSvc kyc.Service, paymentSvc paymentdomain.Service) *Gateway {
	return New(Params{
		Log:        zap.NewNop(),
		Cfg:        config.Config{StripeWebhookSecret: testSecret},
		KYCSvc:     kycSvc,
		PaymentSvc: paymentSvc,
	})
}

func signedHeader(payload []byte) string {
	return fmt.Sprintf("t=1700000000,v1=%s", signPayload(testSecret, "1700000000", payload))
}

func TestProcessRejectsBadSignature(t *testing.T) {
	g := newGateway(&fakeKYC{}, &fakePayments{applied: map[string]paymentdomain.IntentStatus{}})

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	if _, err := g.Process(context.Background(), payload, "t=1,v1=bad"); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestProcessDispatchesVerificationEvent(t *testing.T) {
	kycSvc := &fakeKYC{outcome: kyc.OutcomeVerified}
	g := newGateway(kycSvc, &fakePayments{applied: map[string]paymentdomain.IntentStatus{}})

	userID := snowflake.ID(123456789)
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"identity.verification_session.verified","data":{"object":{"id":"vs_1","metadata":{"user_id":"%s"}}}}`,
		userID,
	))

	ack, err := g.Process(context.Background(), payload, signedHeader(payload))
	if err != nil {
		t.Fatalf("failed to process: %v", err)
	}
	if !ack.Received || ack.Status != "verified" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if len(kycSvc.events) != 1 {
		t.Fatalf("expected one kyc event, got %d", len(kycSvc.events))
	}
	if kycSvc.events[0].UserID != userID || kycSvc.events[0].SessionID != "vs_1" {
		t.Fatalf("unexpected event: %+v", kycSvc.events[0])
	}
	if kycSvc.events[0].Status != kyc.EventVerified {
		t.Fatalf("expected verified status, got %s", kycSvc.events[0].Status)
	}
}

func TestProcessAcksUnresolvableUser(t *testing.T) {
	kycSvc := &fakeKYC{outcome: kyc.OutcomeVerified}
	g := newGateway(kycSvc, &fakePayments{applied: map[string]paymentdomain.IntentStatus{}})

	payload := []byte(`{"id":"evt_1","type":"identity.verification_session.verified","data":{"object":{"id":"vs_1","metadata":{}}}}`)
	ack, err := g.Process(context.Background(), payload, signedHeader(payload))
	if err != nil {
		t.Fatalf("failed to process: %v", err)
	}
	if !ack.Received {
		t.Fatal("expected acknowledged")
	}
	if len(kycSvc.events) != 0 {
		t.Fatalf("expected no kyc dispatch, got %d", len(kycSvc.events))
	}
}

func TestProcessDispatchesPaymentIntentEvent(t *testing.T) {
	payments := &fakePayments{applied: map[string]paymentdomain.IntentStatus{}}
	g := newGateway(&fakeKYC{}, payments)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.amount_capturable_updated","data":{"object":{"id":"pi_1"}}}`)
	ack, err := g.Process(context.Background(), payload, signedHeader(payload))
	if err != nil {
		t.Fatalf("failed to process: %v", err)
	}
	if ack.Status != "applied" {
		t.Fatalf("expected applied, got %+v", ack)
	}
	if payments.applied["pi_1"] != paymentdomain.IntentRequiresCapture {
		t.Fatalf("expected requires_capture applied, got %s", payments.applied["pi_1"])
	}
}

func TestProcessAcksUnknownIntent(t *testing.T) {
	payments := &fakePayments{err: paymentdomain.ErrIntentNotFound}
	g := newGateway(&fakeKYC{}, payments)

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_missing"}}}`)
	ack, err := g.Process(context.Background(), payload, signedHeader(payload))
	if err != nil {
		t.Fatalf("expected ack for unknown intent, got %v", err)
	}
	if !ack.Received || ack.Error == "" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestProcessAcksUnhandledEventType(t *testing.T) {
	g := newGateway(&fakeKYC{}, &fakePayments{applied: map[string]paymentdomain.IntentStatus{}})

	payload := []byte(`{"id":"evt_1","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)
	ack, err := g.Process(context.Background(), payload, signedHeader(payload))
	if err != nil {
		t.Fatalf("failed to process: %v", err)
	}
	if !ack.Received || ack.Status != "" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}
