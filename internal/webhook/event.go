package webhook

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrInvalidPayload = errors.New("invalid webhook payload")

// Kind classifies an incoming event into the closed set this service
// acts on. Everything else is acknowledged and dropped.
type Kind int

const (
	KindIgnored Kind = iota
	KindVerificationVerified
	KindVerificationRequiresInput
	KindVerificationCanceled
	KindIntentAmountCapturable
	KindIntentSucceeded
	KindIntentPaymentFailed
	KindIntentCanceled
)

// Event is a parsed Stripe event with only the fields we act on.
type Event struct {
	ID       string
	Type     string
	Kind     Kind
	ObjectID string
	Metadata map[string]string
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeObject struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// Parse decodes an event envelope and classifies it.
func Parse(payload []byte) (*Event, error) {
	var envelope stripeEvent
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(envelope.ID) == "" {
		return nil, ErrInvalidPayload
	}

	event := &Event{
		ID:   envelope.ID,
		Type: strings.TrimSpace(envelope.Type),
		Kind: classify(envelope.Type),
	}

	if len(envelope.Data.Object) > 0 {
		var object stripeObject
		if err := json.Unmarshal(envelope.Data.Object, &object); err != nil {
			return nil, ErrInvalidPayload
		}
		event.ObjectID = object.ID
		event.Metadata = object.Metadata
	}

	return event, nil
}

func classify(eventType string) Kind {
	switch strings.TrimSpace(eventType) {
	case "identity.verification_session.verified":
		return KindVerificationVerified
	case "identity.verification_session.requires_input":
		return KindVerificationRequiresInput
	case "identity.verification_session.canceled":
		return KindVerificationCanceled
	case "payment_intent.amount_capturable_updated":
		return KindIntentAmountCapturable
	case "payment_intent.succeeded":
		return KindIntentSucceeded
	case "payment_intent.payment_failed":
		return KindIntentPaymentFailed
	case "payment_intent.canceled":
		return KindIntentCanceled
	default:
		return KindIgnored
	}
}
