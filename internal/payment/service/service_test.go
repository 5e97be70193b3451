package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	orderdomain "github.com/ultracivic/backend/internal/order/domain"
	orderrepository "github.com/ultracivic/backend/internal/order/repository"
	"github.com/ultracivic/backend/internal/payment/domain"
	"github.com/ultracivic/backend/internal/payment/repository"
	"github.com/ultracivic/backend/internal/payment/stripeapi"
	userdomain "github.com/ultracivic/backend/internal/user/domain"
	userrepository "github.com/ultracivic/backend/internal/user/repository"
	"github.com/ultracivic/backend/pkg/db"
	"go.uber.org/zap"
)

type fakeStripe struct {
	nextID      int
	captured    []string
	failCapture bool
}

func (f *fakeStripe) CreatePaymentIntent(ctx context.Context, in stripeapi.CreatePaymentIntentInput) (*stripeapi.PaymentIntent, error) {
	f.nextID++
	id := fmt.Sprintf("pi_test_%d", f.nextID)
	return &stripeapi.PaymentIntent{
		ID:           id,
		Amount:       in.AmountCents,
		Currency:     in.Currency,
		Status:       "requires_payment_method",
		ClientSecret: id + "_secret",
		Metadata:     in.Metadata,
	}, nil
}

func (f *fakeStripe) CapturePaymentIntent(ctx context.Context, intentID string, amountToCapture int64) (*stripeapi.PaymentIntent, error) {
	if f.failCapture {
		return nil, &stripeapi.APIError{StatusCode: 402, Code: "card_declined", Message: "card declined"}
	}
	f.captured = append(f.captured, intentID)
	return &stripeapi.PaymentIntent{ID: intentID, Status: "succeeded"}, nil
}

func (f *fakeStripe) CancelPaymentIntent(ctx context.Context, intentID string) (*stripeapi.PaymentIntent, error) {
	return &stripeapi.PaymentIntent{ID: intentID, Status: "canceled"}, nil
}

func (f *fakeStripe) CreateVerificationSession(ctx context.Context, in stripeapi.CreateVerificationSessionInput) (*stripeapi.VerificationSession, error) {
	return &stripeapi.VerificationSession{ID: "vs_test", Status: "requires_input"}, nil
}

type fixture struct {
	svc    domain.Service
	repo   domain.Repository
	orders orderdomain.Repository
	users  userdomain.Repository
	stripe *fakeStripe
	node   *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&userdomain.User{}, &orderdomain.Order{}, &domain.PaymentIntent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	stripe := &fakeStripe{}
	repo := repository.New(dbConn)
	orders := orderrepository.New(dbConn)
	users := userrepository.New(dbConn)

	svc := New(Params{
		Log:       zap.NewNop(),
		Repo:      repo,
		OrderRepo: orders,
		UserRepo:  users,
		Stripe:    stripe,
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
	return &fixture{svc: svc, repo: repo, orders: orders, users: users, stripe: stripe, node: node}
}

func (f *fixture) newOrder(t *testing.T, email string, tonnes int) *orderdomain.Order {
	t.Helper()

	user, err := f.users.GetOrCreateByEmail(context.Background(), f.node.Generate(), email)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	subtotal, fee, total, tokens := orderdomain.Quote(tonnes)
	order := &orderdomain.Order{
		ID:            f.node.Generate(),
		UserID:        user.ID,
		TonnesCO2:     tonnes,
		SubtotalCents: subtotal,
		FeeCents:      fee,
		TotalCents:    total,
		TokensMilli:   tokens,
		Status:        orderdomain.StatusDraft,
	}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	return order
}

func TestAuthorizeCreatesManualCaptureIntent(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, "alice@example.com", 5)

	res, err := f.svc.Authorize(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("failed to authorize: %v", err)
	}
	if res.ClientSecret == "" {
		t.Fatal("expected client secret")
	}
	if res.Intent.AmountCents != 10400 {
		t.Fatalf("expected amount 10400, got %d", res.Intent.AmountCents)
	}

	got, err := f.orders.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if got.Status != orderdomain.StatusPaymentPending {
		t.Fatalf("expected payment_pending, got %s", got.Status)
	}
	if got.StripePaymentIntentID == nil {
		t.Fatal("expected stripe intent id on order")
	}
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, "bob@example.com", 1)

	first, err := f.svc.Authorize(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("first authorize failed: %v", err)
	}
	second, err := f.svc.Authorize(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("second authorize failed: %v", err)
	}
	if first.Intent.StripeIntentID != second.Intent.StripeIntentID {
		t.Fatalf("expected same intent, got %s and %s", first.Intent.StripeIntentID, second.Intent.StripeIntentID)
	}
	if f.stripe.nextID != 1 {
		t.Fatalf("expected one stripe intent, got %d", f.stripe.nextID)
	}
}

func TestAuthorizeRejectsOtherUsersOrder(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, "carol@example.com", 1)

	if _, err := f.svc.Authorize(context.Background(), f.node.Generate(), order.ID); err != orderdomain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestApplyStripeStatusAuthorizesOrder(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, "dave@example.com", 2)

	res, err := f.svc.Authorize(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("failed to authorize: %v", err)
	}

	if err := f.svc.ApplyStripeStatus(context.Background(), res.Intent.StripeIntentID, domain.IntentRequiresCapture); err != nil {
		t.Fatalf("failed to apply status: %v", err)
	}

	got, err := f.orders.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if got.Status != orderdomain.StatusPaymentAuthorized {
		t.Fatalf("expected payment_authorized, got %s", got.Status)
	}

	// Redelivery of the same event is a no-op.
	if err := f.svc.ApplyStripeStatus(context.Background(), res.Intent.StripeIntentID, domain.IntentRequiresCapture); err != nil {
		t.Fatalf("expected redelivery to be a no-op, got %v", err)
	}
}

func TestRedeliveredEventDoesNotRevertCapturedIntent(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, "gina@example.com", 2)

	res, err := f.svc.Authorize(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("failed to authorize: %v", err)
	}
	if err := f.svc.ApplyStripeStatus(context.Background(), res.Intent.StripeIntentID, domain.IntentRequiresCapture); err != nil {
		t.Fatalf("failed to apply status: %v", err)
	}
	if err := f.svc.Capture(context.Background(), order.ID); err != nil {
		t.Fatalf("failed to capture: %v", err)
	}

	// A stale amount_capturable_updated arriving after capture.
	if err := f.svc.ApplyStripeStatus(context.Background(), res.Intent.StripeIntentID, domain.IntentRequiresCapture); err != nil {
		t.Fatalf("expected redelivery to be a no-op, got %v", err)
	}

	intent, err := f.repo.FindByOrderID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("failed to reload intent: %v", err)
	}
	if intent.Status != domain.IntentSucceeded {
		t.Fatalf("expected intent to stay succeeded, got %s", intent.Status)
	}
	if intent.CapturedAt == nil || intent.CapturedCents == nil {
		t.Fatal("expected capture record to survive redelivery")
	}
}

func TestApplyStripeStatusUnknownIntent(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ApplyStripeStatus(context.Background(), "pi_unknown", domain.IntentRequiresCapture)
	if !errors.Is(err, domain.ErrIntentNotFound) {
		t.Fatalf("expected ErrIntentNotFound, got %v", err)
	}
}

func TestCaptureMovesOrderToProcessing(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, "erin@example.com", 3)

	res, err := f.svc.Authorize(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("failed to authorize: %v", err)
	}
	if err := f.svc.ApplyStripeStatus(context.Background(), res.Intent.StripeIntentID, domain.IntentRequiresCapture); err != nil {
		t.Fatalf("failed to apply status: %v", err)
	}

	if err := f.svc.Capture(context.Background(), order.ID); err != nil {
		t.Fatalf("failed to capture: %v", err)
	}
	if len(f.stripe.captured) != 1 {
		t.Fatalf("expected one capture call, got %d", len(f.stripe.captured))
	}

	got, err := f.orders.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if got.Status != orderdomain.StatusProcessing {
		t.Fatalf("expected processing, got %s", got.Status)
	}

	// Second capture sees a claimed intent.
	if err := f.svc.Capture(context.Background(), order.ID); err != domain.ErrNotCapturable {
		t.Fatalf("expected ErrNotCapturable, got %v", err)
	}
}

func TestCaptureFailureFailsOrder(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, "frank@example.com", 1)

	res, err := f.svc.Authorize(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("failed to authorize: %v", err)
	}
	if err := f.svc.ApplyStripeStatus(context.Background(), res.Intent.StripeIntentID, domain.IntentRequiresCapture); err != nil {
		t.Fatalf("failed to apply status: %v", err)
	}

	f.stripe.failCapture = true
	if err := f.svc.Capture(context.Background(), order.ID); err == nil {
		t.Fatal("expected capture error")
	}

	got, err := f.orders.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("failed to reload order: %v", err)
	}
	if got.Status != orderdomain.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
}
