package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StripeService wraps the Stripe REST API calls the billing flow needs:
// checkout session creation, customer/subscription lookups and webhook
// signature verification.
type StripeService interface {
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email string) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*StripeSubscription, error)
	GetCustomer(ctx context.Context, customerID string) (*StripeCustomer, error)
	// ConstructEvent verifies the Stripe-Signature header against the raw
	// payload bytes and only then parses the event. Verification before
	// parsing is the contract; callers must not decode the body themselves.
	ConstructEvent(payload []byte, sigHeader string) (*StripeEvent, error)
}

// StripeEvent is the envelope of a webhook delivery. Data.Object stays raw
// until the event type is known.
type StripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type StripeSubscription struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
}

type StripeCustomer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
}

// CheckoutSessionObject is the data.object of checkout.session.completed.
type CheckoutSessionObject struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// InvoiceObject is the data.object of invoice.payment_succeeded/failed.
type InvoiceObject struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type customerList struct {
	Data []StripeCustomer `json:"data"`
}

// signatureTolerance bounds how old a webhook timestamp may be before the
// delivery is treated as a replay.
const signatureTolerance = 5 * time.Minute

type stripeService struct {
	apiKey        string
	webhookSecret string
	priceID       string
	appBaseURL    string
	baseURL       string
	http          *http.Client
}

// NewStripeService creates a new Stripe service instance.
func NewStripeService(apiKey, webhookSecret, priceID, appBaseURL string) StripeService {
	return &stripeService{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		priceID:       priceID,
		appBaseURL:    strings.TrimSuffix(appBaseURL, "/"),
		baseURL:       "https://api.stripe.com/v1",
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateCheckoutSession finds or creates the Stripe customer for the user and
// opens a subscription checkout session. The userId travels in metadata so
// webhook reconciliation can resolve the user directly.
func (s *stripeService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email string) (*CheckoutSession, error) {
	customer, err := s.findCustomerByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		customer, err = s.createCustomer(ctx, userID, email)
		if err != nil {
			return nil, err
		}
	}

	form := url.Values{}
	form.Set("customer", customer.ID)
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", s.priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", s.appBaseURL+"/account?success=true")
	form.Set("cancel_url", s.appBaseURL+"/account?canceled=true")
	form.Set("metadata[userId]", userID.String())

	body, err := s.makeRequest(ctx, http.MethodPost, "/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %v", err)
	}
	return &session, nil
}

func (s *stripeService) GetSubscription(ctx context.Context, subscriptionID string) (*StripeSubscription, error) {
	body, err := s.makeRequest(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, err
	}

	var subscription StripeSubscription
	if err := json.Unmarshal(body, &subscription); err != nil {
		return nil, fmt.Errorf("failed to parse subscription: %v", err)
	}
	return &subscription, nil
}

func (s *stripeService) GetCustomer(ctx context.Context, customerID string) (*StripeCustomer, error) {
	body, err := s.makeRequest(ctx, http.MethodGet, "/customers/"+customerID, nil)
	if err != nil {
		return nil, err
	}

	var customer StripeCustomer
	if err := json.Unmarshal(body, &customer); err != nil {
		return nil, fmt.Errorf("failed to parse customer: %v", err)
	}
	return &customer, nil
}

// ConstructEvent checks the v1 HMAC-SHA256 signature Stripe computes over
// "<timestamp>.<payload>" with the endpoint secret, then decodes the event.
func (s *stripeService) ConstructEvent(payload []byte, sigHeader string) (*StripeEvent, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	age := time.Since(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return nil, fmt.Errorf("webhook timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	verified := false
	for _, signature := range signatures {
		// Constant time comparison to prevent timing attacks
		if hmac.Equal([]byte(signature), []byte(expected)) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, fmt.Errorf("webhook signature verification failed")
	}

	var event StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %v", err)
	}
	return &event, nil
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]".
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("missing signature header")
	}

	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("invalid signature timestamp")
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("malformed signature header")
	}
	return timestamp, signatures, nil
}

func (s *stripeService) findCustomerByEmail(ctx context.Context, email string) (*StripeCustomer, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("limit", "1")

	body, err := s.makeRequest(ctx, http.MethodGet, "/customers?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var list customerList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse customer list: %v", err)
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return &list.Data[0], nil
}

func (s *stripeService) createCustomer(ctx context.Context, userID uuid.UUID, email string) (*StripeCustomer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("metadata[userId]", userID.String())

	body, err := s.makeRequest(ctx, http.MethodPost, "/customers", form)
	if err != nil {
		return nil, err
	}

	var customer StripeCustomer
	if err := json.Unmarshal(body, &customer); err != nil {
		return nil, fmt.Errorf("failed to parse customer: %v", err)
	}
	return &customer, nil
}

func (s *stripeService) makeRequest(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(s.apiKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
