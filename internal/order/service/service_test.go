package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	"github.com/ultracivic/backend/internal/order/domain"
	"github.com/ultracivic/backend/internal/order/repository"
	"github.com/ultracivic/backend/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, domain.Repository, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Order{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	repo := repository.New(dbConn)

	svc := New(Params{
		Log:   zap.NewNop(),
		Repo:  repo,
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
	return svc, repo, node
}

func TestCreatePricing(t *testing.T) {
	svc, _, node := newTestService(t)

	order, err := svc.Create(context.Background(), domain.CreateOrderInput{
		UserID:     node.Generate(),
		TonnesCO2:  10,
		EthAddress: "0xAbCdEf0123456789aBcDeF0123456789abcdef01",
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	if order.SubtotalCents != 20000 {
		t.Fatalf("expected subtotal 20000, got %d", order.SubtotalCents)
	}
	if order.FeeCents != 400 {
		t.Fatalf("expected fee 400, got %d", order.FeeCents)
	}
	if order.TotalCents != 20400 {
		t.Fatalf("expected total 20400, got %d", order.TotalCents)
	}
	if order.TokensMilli != 3000 {
		t.Fatalf("expected 3000 milli-tokens, got %d", order.TokensMilli)
	}
	if order.Status != domain.StatusDraft {
		t.Fatalf("expected draft status, got %s", order.Status)
	}
}

func TestCreateTonnesBounds(t *testing.T) {
	svc, _, node := newTestService(t)

	for _, tonnes := range []int{0, -1, 1001} {
		_, err := svc.Create(context.Background(), domain.CreateOrderInput{
			UserID:    node.Generate(),
			TonnesCO2: tonnes,
		})
		if err != domain.ErrInvalidTonnes {
			t.Fatalf("tonnes=%d: expected ErrInvalidTonnes, got %v", tonnes, err)
		}
	}

	for _, tonnes := range []int{1, 1000} {
		if _, err := svc.Create(context.Background(), domain.CreateOrderInput{
			UserID:    node.Generate(),
			TonnesCO2: tonnes,
		}); err != nil {
			t.Fatalf("tonnes=%d: expected success, got %v", tonnes, err)
		}
	}
}

func TestCreateEthAddressValidation(t *testing.T) {
	svc, _, node := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateOrderInput{
		UserID:     node.Generate(),
		TonnesCO2:  1,
		EthAddress: "0x123",
	})
	if err != domain.ErrInvalidEthAddress {
		t.Fatalf("expected ErrInvalidEthAddress, got %v", err)
	}

	order, err := svc.Create(context.Background(), domain.CreateOrderInput{
		UserID:     node.Generate(),
		TonnesCO2:  1,
		EthAddress: "0xAbCdEf0123456789aBcDeF0123456789abcdef01",
	})
	if err != nil {
		t.Fatalf("expected valid address, got %v", err)
	}
	if order.EthAddress == nil {
		t.Fatal("expected eth address stored")
	}
	if order.TokensMilli != 300 {
		t.Fatalf("expected 300 milli-tokens, got %d", order.TokensMilli)
	}
}

func TestCreateWithoutEthAddressMintsNothing(t *testing.T) {
	svc, _, node := newTestService(t)

	order, err := svc.Create(context.Background(), domain.CreateOrderInput{
		UserID:    node.Generate(),
		TonnesCO2: 10,
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	if order.TokensMilli != 0 {
		t.Fatalf("expected no tokens without an address, got %d", order.TokensMilli)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _, node := newTestService(t)

	owner := node.Generate()
	other := node.Generate()
	order, err := svc.Create(context.Background(), domain.CreateOrderInput{
		UserID:    owner,
		TonnesCO2: 2,
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	if _, err := svc.Get(context.Background(), other, order.ID); err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound for another user, got %v", err)
	}
	if _, err := svc.Get(context.Background(), owner, order.ID); err != nil {
		t.Fatalf("expected owner to read order, got %v", err)
	}
}

func TestTransitionGuardsCurrentStatus(t *testing.T) {
	svc, repo, node := newTestService(t)

	order, err := svc.Create(context.Background(), domain.CreateOrderInput{
		UserID:    node.Generate(),
		TonnesCO2: 1,
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	if err := repo.Transition(context.Background(), order.ID, domain.StatusDraft, domain.StatusPaymentPending); err != nil {
		t.Fatalf("expected draft transition, got %v", err)
	}
	if err := repo.Transition(context.Background(), order.ID, domain.StatusDraft, domain.StatusPaymentPending); err != domain.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition on repeat, got %v", err)
	}
}

func TestTransitionToCompletedStampsCompletedAt(t *testing.T) {
	svc, repo, node := newTestService(t)

	order, err := svc.Create(context.Background(), domain.CreateOrderInput{
		UserID:    node.Generate(),
		TonnesCO2: 1,
	})
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	if err := repo.Transition(context.Background(), order.ID, domain.StatusDraft, domain.StatusCompleted); err != nil {
		t.Fatalf("failed to transition: %v", err)
	}
	got, err := repo.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completed_at stamped")
	}
}
