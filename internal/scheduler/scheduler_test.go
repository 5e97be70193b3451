package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ultracivic/backend/internal/clock"
	"github.com/ultracivic/backend/internal/config"
	magiclinkdomain "github.com/ultracivic/backend/internal/magiclink/domain"
	magiclinkrepository "github.com/ultracivic/backend/internal/magiclink/repository"
	magiclinkservice "github.com/ultracivic/backend/internal/magiclink/service"
	sessiondomain "github.com/ultracivic/backend/internal/session/domain"
	sessionrepository "github.com/ultracivic/backend/internal/session/repository"
	sessionservice "github.com/ultracivic/backend/internal/session/service"
	userdomain "github.com/ultracivic/backend/internal/user/domain"
	userrepository "github.com/ultracivic/backend/internal/user/repository"
	"github.com/ultracivic/backend/pkg/db"
	"go.uber.org/zap"
)

type fixture struct {
	sched      *Scheduler
	magicLinks magiclinkdomain.Service
	sessions   sessiondomain.Service
	users      userdomain.Repository
	node       *snowflake.Node
	clk        *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&userdomain.User{}, &magiclinkdomain.MagicLink{}, &sessiondomain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	users := userrepository.New(dbConn)

	magicLinks := magiclinkservice.New(magiclinkservice.Params{
		Log:      zap.NewNop(),
		Repo:     magiclinkrepository.New(dbConn),
		UserRepo: users,
		GenID:    node,
		Clock:    clk,
	})
	sessions := sessionservice.New(sessionservice.Params{
		Log:      zap.NewNop(),
		Repo:     sessionrepository.New(dbConn),
		UserRepo: users,
		GenID:    node,
		Clock:    clk,
	})

	sched, err := New(Params{
		Log:          zap.NewNop(),
		Cfg:          config.Config{SweepInterval: time.Hour},
		MagicLinkSvc: magicLinks,
		SessionSvc:   sessions,
		Clock:        clk,
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}

	return &fixture{sched: sched, magicLinks: magicLinks, sessions: sessions, users: users, node: node, clk: clk}
}

func TestRunOnceSweepsExpiredRows(t *testing.T) {
	f := newFixture(t)

	link, err := f.magicLinks.RequestLink(context.Background(), magiclinkdomain.RequestLinkInput{Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("failed to request link: %v", err)
	}
	if _, err := f.sessions.Create(context.Background(), sessiondomain.CreateInput{UserID: link.User.ID}); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	f.clk.Advance(sessiondomain.TTL + time.Hour)
	if err := f.sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}

	if _, err := f.magicLinks.Redeem(context.Background(), magiclinkdomain.RedeemInput{Token: link.Token}); err != magiclinkdomain.ErrInvalidLink {
		t.Fatalf("expected swept link invalid, got %v", err)
	}
	swept, err := f.sessions.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("failed to sweep again: %v", err)
	}
	if swept != 0 {
		t.Fatalf("expected sessions already swept, got %d", swept)
	}
}

func TestRunOnceNoExpiredRows(t *testing.T) {
	f := newFixture(t)

	link, err := f.magicLinks.RequestLink(context.Background(), magiclinkdomain.RequestLinkInput{Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("failed to request link: %v", err)
	}

	if err := f.sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}

	// A live link survives the sweep.
	if _, err := f.magicLinks.Redeem(context.Background(), magiclinkdomain.RedeemInput{Token: link.Token}); err != nil {
		t.Fatalf("expected live link to survive sweep, got %v", err)
	}
}
