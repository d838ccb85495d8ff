package psp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minshop/order-api/internal/usecase"
)

const providerName = "tosspayments"

// TossClient talks to the Toss Payments REST API. The PG is the system
// of record for payment state: a definitive response (approved or
// rejected) comes back as a PaymentResult with nil error, while
// transport failures and 5xx responses return an error so the engine
// can classify them as retry-safe.
type TossClient struct {
	baseURL string
	auth    string // precomputed Basic header value
	hc      *http.Client
}

// NewTossClient authenticates with the secret key per the Toss scheme:
// Basic base64("<secretKey>:").
func NewTossClient(baseURL, secretKey string, timeout time.Duration) *TossClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TossClient{
		baseURL: baseURL,
		auth:    "Basic " + base64.StdEncoding.EncodeToString([]byte(secretKey+":")),
		hc:      &http.Client{Timeout: timeout},
	}
}

type tossPayment struct {
	Status     string `json:"status"`
	ApprovedAt string `json:"approvedAt"`
	Code       string `json:"code"`    // set on error responses
	Message    string `json:"message"` // set on error responses
}

func (c *TossClient) Confirm(ctx context.Context, paymentKey, orderNumber string, amount int64) (usecase.PaymentResult, error) {
	body := map[string]any{
		"paymentKey": paymentKey,
		"orderId":    orderNumber,
		"amount":     amount,
	}
	return c.post(ctx, c.baseURL+"/v1/payments/confirm", body)
}

func (c *TossClient) Cancel(ctx context.Context, paymentKey, reason string) (usecase.PaymentResult, error) {
	body := map[string]any{"cancelReason": reason}
	return c.post(ctx, c.baseURL+"/v1/payments/"+paymentKey+"/cancel", body)
}

func (c *TossClient) post(ctx context.Context, url string, body map[string]any) (usecase.PaymentResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return usecase.PaymentResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return usecase.PaymentResult{}, err
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return usecase.PaymentResult{}, fmt.Errorf("pg request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return usecase.PaymentResult{}, fmt.Errorf("pg response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return usecase.PaymentResult{}, fmt.Errorf("pg unavailable: http %d", resp.StatusCode)
	}

	var p tossPayment
	if err := json.Unmarshal(raw, &p); err != nil {
		return usecase.PaymentResult{}, fmt.Errorf("pg decode: %w", err)
	}

	// 4xx error bodies carry code/message instead of a payment status;
	// surface the code so the engine records a definitive rejection.
	status := p.Status
	if status == "" {
		status = p.Code
	}

	res := usecase.PaymentResult{
		Status:   status,
		Provider: providerName,
		Raw:      json.RawMessage(raw),
	}
	if p.ApprovedAt != "" {
		if t, err := time.Parse(time.RFC3339, p.ApprovedAt); err == nil {
			res.ApprovedAt = t
		}
	}
	return res, nil
}

var _ usecase.PaymentGateway = (*TossClient)(nil)
