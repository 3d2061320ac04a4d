package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	// DefaultBaseURL is the Flutterwave v3 API
	DefaultBaseURL = "https://api.flutterwave.com/v3"
	// DefaultTimeout bounds every gateway call
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the payment gateway client
type Config struct {
	BaseURL     string
	SecretKey   string
	RedirectURL string
	Currency    string
	HTTPClient  *http.Client
}

// Service talks to the card payment gateway. It is safe for concurrent use.
type Service struct {
	baseURL     string
	secretKey   string
	redirectURL string
	currency    string
	httpClient  *http.Client
}

// NewService creates the gateway client
func NewService(config Config) *Service {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Currency == "" {
		config.Currency = "USD"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Service{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		secretKey:   config.SecretKey,
		redirectURL: config.RedirectURL,
		currency:    config.Currency,
		httpClient:  config.HTTPClient,
	}
}

// Currency returns the currency charged by ProcessPayment
func (s *Service) Currency() string {
	return s.currency
}

// PaymentRequest is a tokenized card payment for a course
type PaymentRequest struct {
	TxRef     string
	UserID    string
	Email     string
	CardToken string
	Amount    float64
	CourseID  string
}

// Card holds raw card details for a direct charge
type Card struct {
	Number      string `json:"number" validate:"required"`
	CVV         string `json:"cvv" validate:"required"`
	ExpiryMonth string `json:"expiry_month" validate:"required"`
	ExpiryYear  string `json:"expiry_year" validate:"required"`
}

// Customer identifies the payer to the gateway
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
}

// CardChargeData is the body of a direct card charge
type CardChargeData struct {
	TxRef       string   `json:"tx_ref"`
	Amount      float64  `json:"amount" validate:"required,gt=0"`
	Currency    string   `json:"currency"`
	RedirectURL string   `json:"redirect_url"`
	PaymentType string   `json:"payment_type"`
	Card        Card     `json:"card" validate:"required"`
	Customer    Customer `json:"customer" validate:"required"`
}

// SaveCardData registers a card token for a customer
type SaveCardData struct {
	Token    string   `json:"token" validate:"required"`
	Customer Customer `json:"customer" validate:"required"`
}

// Response is the gateway envelope. Raw keeps the untouched body.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Transaction is the data block of a verification response
type Transaction struct {
	ID       int64   `json:"id"`
	TxRef    string  `json:"tx_ref"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Meta     struct {
		CourseID string `json:"course_id"`
		UserID   string `json:"user_id"`
	} `json:"meta"`
}

// Transaction decodes Data as a verified transaction
func (r *Response) Transaction() (*Transaction, error) {
	var tx Transaction
	if len(r.Data) == 0 {
		return &tx, nil
	}
	if err := json.Unmarshal(r.Data, &tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return &tx, nil
}

// ProcessPayment charges a saved card token
func (s *Service) ProcessPayment(ctx context.Context, req PaymentRequest) (*Response, error) {
	payload := map[string]any{
		"tx_ref":       req.TxRef,
		"amount":       req.Amount,
		"currency":     s.currency,
		"redirect_url": s.redirectURL,
		"payment_type": "card",
		"card": map[string]any{
			"token": req.CardToken,
		},
		"customer": map[string]any{
			"id":    req.UserID,
			"email": req.Email,
		},
		"meta": map[string]any{
			"course_id": req.CourseID,
			"user_id":   req.UserID,
		},
	}
	return s.doRequest(ctx, "process payment", http.MethodPost, "/payments", payload)
}

// VerifyPayment fetches the final state of a gateway transaction
func (s *Service) VerifyPayment(ctx context.Context, transactionID string) (*Response, error) {
	endpoint := fmt.Sprintf("/transactions/%s/verify", url.PathEscape(transactionID))
	return s.doRequest(ctx, "verify payment", http.MethodGet, endpoint, nil)
}

// ChargeCard performs a direct card charge
func (s *Service) ChargeCard(ctx context.Context, data CardChargeData) (*Response, error) {
	if data.Currency == "" {
		data.Currency = s.currency
	}
	if data.RedirectURL == "" {
		data.RedirectURL = s.redirectURL
	}
	if data.PaymentType == "" {
		data.PaymentType = "card"
	}
	return s.doRequest(ctx, "charge card", http.MethodPost, "/charges?type=card", data)
}

// SaveCard stores a card token against a customer
func (s *Service) SaveCard(ctx context.Context, data SaveCardData) (*Response, error) {
	return s.doRequest(ctx, "save card", http.MethodPost, "/tokens", data)
}

// DeleteCard removes a stored card token
func (s *Service) DeleteCard(ctx context.Context, cardToken string) (*Response, error) {
	return s.doRequest(ctx, "delete card", http.MethodDelete, "/tokens/"+url.PathEscape(cardToken), nil)
}

// doRequest performs a bearer authenticated JSON call to the gateway
func (s *Service) doRequest(ctx context.Context, op, method, endpoint string, body interface{}) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, &GatewayError{Operation: op, Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, &GatewayError{Operation: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Errorf("payment gateway %s failed: %v", op, err)
		return nil, &GatewayError{Operation: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := &GatewayError{Operation: op, StatusCode: resp.StatusCode, Payload: respBody}
		log.Errorf("payment gateway %s: %v", op, gwErr)
		return nil, gwErr
	}

	out := &Response{Raw: respBody}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, &GatewayError{Operation: op, StatusCode: resp.StatusCode, Payload: respBody, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return out, nil
}
