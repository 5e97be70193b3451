// Package kyc coordinates identity verification and the capture of
// authorized payments once verification succeeds.
package kyc

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Outcome summarizes how a verification event was applied.
type Outcome string

const (
	OutcomeVerified         Outcome = "verified"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeFailed           Outcome = "failed"
	OutcomeUnverified       Outcome = "unverified"
	OutcomeIgnored          Outcome = "ignored"
)

// EventStatus is the verification session status reported by Stripe.
type EventStatus string

const (
	EventVerified      EventStatus = "verified"
	EventRequiresInput EventStatus = "requires_input"
	EventCanceled      EventStatus = "canceled"
)

type StartResult struct {
	SessionID    string
	ClientSecret string
	URL          string
}

type VerificationEvent struct {
	SessionID string
	Status    EventStatus
	UserID    snowflake.ID
}

type CaptureSummary struct {
	Captured int
	Failed   int
}

type Service interface {
	// Start opens a Stripe identity verification session and moves the
	// user's KYC status to pending. Allowed from any prior status so a
	// failed user can retry.
	Start(ctx context.Context, userID snowflake.ID) (*StartResult, error)
	HandleVerificationEvent(ctx context.Context, event VerificationEvent) (Outcome, error)
	// CaptureAllAuthorizedOrders captures every payment_authorized order
	// of the user. A capture failure fails that order only; the rest
	// proceed.
	CaptureAllAuthorizedOrders(ctx context.Context, userID snowflake.ID) (CaptureSummary, error)
}
