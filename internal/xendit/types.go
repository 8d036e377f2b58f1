package xendit

// CartItem is a receipt line forwarded to the provider when a QR
// payment request is created.
type CartItem struct {
	ReferenceID string `json:"reference_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Currency    string `json:"currency"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	Type        string `json:"type"`
}

// QRCode is the provider's payment-request entity. The local system
// stores only its reference and final outcome.
type QRCode struct {
	ID          string `json:"id"`
	ReferenceID string `json:"reference_id"`
	BusinessID  string `json:"business_id"`
	Type        string `json:"type"`
	Currency    string `json:"currency"`
	ChannelCode string `json:"channel_code"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	QRString    string `json:"qr_string"`
	ExpiresAt   string `json:"expires_at"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}

// Provider-side QR statuses.
const (
	QRStatusActive    = "ACTIVE"
	QRStatusPending   = "PENDING"
	QRStatusSucceeded = "SUCCEEDED"
	QRStatusFailed    = "FAILED"
)

type PaymentDetail struct {
	ReceiptID string `json:"receipt_id"`
	Source    string `json:"source"`
	Amount    int64  `json:"amount,omitempty"`
}

type WebhookData struct {
	ID            string        `json:"id"`
	BusinessID    string        `json:"business_id"`
	Currency      string        `json:"currency"`
	Amount        int64         `json:"amount"`
	Status        string        `json:"status"`
	Created       string        `json:"created"`
	QRID          string        `json:"qr_id"`
	QRString      string        `json:"qr_string"`
	ReferenceID   string        `json:"reference_id"`
	Type          string        `json:"type"`
	ChannelCode   string        `json:"channel_code"`
	ExpiresAt     string        `json:"expires_at"`
	PaymentDetail PaymentDetail `json:"payment_detail"`
}

// WebhookPayload is the asynchronous payment notification the
// provider posts to the callback endpoint.
type WebhookPayload struct {
	Event      string      `json:"event"`
	Created    string      `json:"created"`
	BusinessID string      `json:"business_id"`
	Data       WebhookData `json:"data"`
}
