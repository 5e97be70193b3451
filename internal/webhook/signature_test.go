package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
)

func signPayload(secret string, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%s.%s", timestamp, string(payload))))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	sig := signPayload(secret, "1700000000", payload)
	header := fmt.Sprintf("t=1700000000,v1=%s", sig)

	if err := VerifySignature(payload, header, secret); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	sig := signPayload("whsec_other", "1700000000", payload)
	header := fmt.Sprintf("t=1700000000,v1=%s", sig)

	if err := VerifySignature(payload, header, "whsec_test"); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureTamperedPayload(t *testing.T) {
	secret := "whsec_test"
	sig := signPayload(secret, "1700000000", []byte(`{"id":"evt_1"}`))
	header := fmt.Sprintf("t=1700000000,v1=%s", sig)

	if err := VerifySignature([]byte(`{"id":"evt_2"}`), header, secret); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureMissingHeader(t *testing.T) {
	if err := VerifySignature([]byte(`{}`), "", "whsec_test"); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if err := VerifySignature([]byte(`{}`), "t=123", "whsec_test"); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature for header without v1, got %v", err)
	}
}

func TestVerifySignatureSecondSignatureMatches(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	good := signPayload(secret, "1700000000", payload)
	header := fmt.Sprintf("t=1700000000,v1=%s,v1=%s", "deadbeef", good)

	if err := VerifySignature(payload, header, secret); err != nil {
		t.Fatalf("expected valid signature among multiple, got %v", err)
	}
}
