// Package stripeapi is a minimal Stripe REST client covering the calls
// this service makes: manual-capture payment intents and identity
// verification sessions.
package stripeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api.stripe.com/v1"

var ErrAPIUnavailable = errors.New("stripe api unavailable")

// APIError is a non-2xx response from Stripe.
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// PaymentIntent mirrors the fields of a Stripe payment intent we read.
type PaymentIntent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

// VerificationSession mirrors a Stripe identity verification session.
type VerificationSession struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	URL          string            `json:"url"`
	Metadata     map[string]string `json:"metadata"`
}

type CreatePaymentIntentInput struct {
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

type CreateVerificationSessionInput struct {
	Metadata  map[string]string
	ReturnURL string
}

// Client is the surface services depend on; tests substitute a fake.
type Client interface {
	CreatePaymentIntent(ctx context.Context, in CreatePaymentIntentInput) (*PaymentIntent, error)
	CapturePaymentIntent(ctx context.Context, intentID string, amountToCapture int64) (*PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	CreateVerificationSession(ctx context.Context, in CreateVerificationSessionInput) (*VerificationSession, error)
}

type httpClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func New(secretKey string) Client {
	return &httpClient{
		baseURL:   defaultBaseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *httpClient) CreatePaymentIntent(ctx context.Context, in CreatePaymentIntentInput) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(in.AmountCents, 10))
	form.Set("currency", strings.ToLower(in.Currency))
	form.Set("capture_method", "manual")
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range in.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent PaymentIntent
	if err := c.post(ctx, "/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *httpClient) CapturePaymentIntent(ctx context.Context, intentID string, amountToCapture int64) (*PaymentIntent, error) {
	form := url.Values{}
	if amountToCapture > 0 {
		form.Set("amount_to_capture", strconv.FormatInt(amountToCapture, 10))
	}

	var intent PaymentIntent
	path := fmt.Sprintf("/payment_intents/%s/capture", url.PathEscape(intentID))
	if err := c.post(ctx, path, form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *httpClient) CancelPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	var intent PaymentIntent
	path := fmt.Sprintf("/payment_intents/%s/cancel", url.PathEscape(intentID))
	if err := c.post(ctx, path, url.Values{}, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *httpClient) CreateVerificationSession(ctx context.Context, in CreateVerificationSessionInput) (*VerificationSession, error) {
	form := url.Values{}
	form.Set("type", "document")
	if in.ReturnURL != "" {
		form.Set("return_url", in.ReturnURL)
	}
	for k, v := range in.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var session VerificationSession
	if err := c.post(ctx, "/identity/verification_sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *httpClient) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var wrapper struct {
			Error *APIError `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &wrapper); jsonErr == nil && wrapper.Error != nil {
			apiErr.Type = wrapper.Error.Type
			apiErr.Code = wrapper.Error.Code
			apiErr.Message = wrapper.Error.Message
		}
		return apiErr
	}

	return json.Unmarshal(body, out)
}
