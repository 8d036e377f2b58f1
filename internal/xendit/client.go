package xendit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pos-backend/internal/config"
)

const apiVersion = "2022-07-31"

// qrValidity is the fixed window a dynamic QR stays payable.
const qrValidity = 24 * time.Hour

// UpstreamError carries a non-2xx provider response: the status code
// and raw body are surfaced to the caller untouched.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("xendit responded %d: %s", e.StatusCode, e.Body)
}

// Client talks to the Xendit QR codes API. Calls authenticate with the
// secret key as basic-auth username and an empty password.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.XenditBaseURL,
		secretKey:  cfg.XenditSecretKey,
		httpClient: &http.Client{},
	}
}

type createQRCodeRequest struct {
	ReferenceID   string        `json:"reference_id"`
	Type          string        `json:"type"`
	Currency      string        `json:"currency"`
	Amount        int64         `json:"amount"`
	ExpiresAt     string        `json:"expires_at"`
	PaymentMethod paymentMethod `json:"payment_method"`
	Items         []CartItem    `json:"items"`
}

type paymentMethod struct {
	Type        string            `json:"type"`
	Reusability string            `json:"reusability"`
	QRCode      map[string]string `json:"qr_code"`
}

// CreateQRCode requests a dynamic, one-time-use QRIS payment QR for
// referenceID, valid for 24 hours, with the cart's lines attached for
// the provider's receipt.
func (c *Client) CreateQRCode(ctx context.Context, amount int64, referenceID string, items []CartItem) (*QRCode, error) {
	for i := range items {
		items[i].ReferenceID = referenceID
		items[i].Currency = "IDR"
		items[i].Type = "PRODUCT"
		if items[i].Category == "" {
			items[i].Category = "product"
		}
	}

	body := createQRCodeRequest{
		ReferenceID: referenceID,
		Type:        "DYNAMIC",
		Currency:    "IDR",
		Amount:      amount,
		ExpiresAt:   time.Now().Add(qrValidity).UTC().Format(time.RFC3339),
		PaymentMethod: paymentMethod{
			Type:        "QR_CODE",
			Reusability: "ONE_TIME_USE",
			QRCode:      map[string]string{"channel_code": "QRIS"},
		},
		Items: items,
	}

	var qr QRCode
	if err := c.do(ctx, http.MethodPost, "/qr_codes", body, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// GetQRCode fetches the current provider-side state of a QR.
func (c *Client) GetQRCode(ctx context.Context, id string) (*QRCode, error) {
	var qr QRCode
	if err := c.do(ctx, http.MethodGet, "/qr_codes/"+id, nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// SimulatePayment triggers a sandbox payment against a QR.
func (c *Client) SimulatePayment(ctx context.Context, id string) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.do(ctx, http.MethodPost, "/qr_codes/"+id+"/payments/simulate", struct{}{}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-version", apiVersion)
	req.SetBasicAuth(c.secretKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call xendit: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read xendit response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode xendit response: %w", err)
		}
	}
	return nil
}
