package xendit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-backend/internal/config"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(&config.Config{
		XenditBaseURL:   srv.URL,
		XenditSecretKey: "xnd_development_test",
	})
	return client, srv
}

func TestCreateQRCode(t *testing.T) {
	var captured createQRCodeRequest
	var gotPath, gotUser, gotVersion string

	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		gotVersion = r.Header.Get("api-version")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"qr_1","reference_id":"INV-1","status":"ACTIVE","amount":35000,"qr_string":"000201"}`))
	})
	defer srv.Close()

	items := []CartItem{
		{Name: "kopi susu", Quantity: 2, Price: 15000},
		{Name: "es teh", Category: "drink", Quantity: 1, Price: 5000},
	}
	qr, err := client.CreateQRCode(context.Background(), 35000, "INV-1", items)
	if err != nil {
		t.Fatalf("CreateQRCode: %v", err)
	}

	if gotPath != "/qr_codes" {
		t.Fatalf("path %q", gotPath)
	}
	if gotUser != "xnd_development_test" {
		t.Fatalf("basic-auth user %q", gotUser)
	}
	if gotVersion != "2022-07-31" {
		t.Fatalf("api-version %q", gotVersion)
	}

	if captured.Type != "DYNAMIC" || captured.Currency != "IDR" || captured.Amount != 35000 {
		t.Fatalf("request envelope: %+v", captured)
	}
	if captured.PaymentMethod.Type != "QR_CODE" ||
		captured.PaymentMethod.Reusability != "ONE_TIME_USE" ||
		captured.PaymentMethod.QRCode["channel_code"] != "QRIS" {
		t.Fatalf("payment method: %+v", captured.PaymentMethod)
	}
	if captured.ExpiresAt == "" {
		t.Fatal("expires_at must be set")
	}

	if len(captured.Items) != 2 {
		t.Fatalf("want 2 items, got %d", len(captured.Items))
	}
	for _, item := range captured.Items {
		if item.ReferenceID != "INV-1" || item.Currency != "IDR" || item.Type != "PRODUCT" {
			t.Fatalf("item defaults not filled: %+v", item)
		}
	}
	if captured.Items[0].Category != "product" {
		t.Fatalf("empty category must default to product, got %q", captured.Items[0].Category)
	}
	if captured.Items[1].Category != "drink" {
		t.Fatalf("set category must be kept, got %q", captured.Items[1].Category)
	}

	if qr.ID != "qr_1" || qr.Status != QRStatusActive {
		t.Fatalf("response: %+v", qr)
	}
}

func TestGetQRCode(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/qr_codes/qr_42" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"qr_42","status":"SUCCEEDED"}`))
	})
	defer srv.Close()

	qr, err := client.GetQRCode(context.Background(), "qr_42")
	if err != nil {
		t.Fatalf("GetQRCode: %v", err)
	}
	if qr.Status != QRStatusSucceeded {
		t.Fatalf("status %q", qr.Status)
	}
}

func TestSimulatePayment(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/qr_codes/qr_42/payments/simulate" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"COMPLETED","payment_id":"qrpy_1"}`))
	})
	defer srv.Close()

	out, err := client.SimulatePayment(context.Background(), "qr_42")
	if err != nil {
		t.Fatalf("SimulatePayment: %v", err)
	}
	if out["status"] != "COMPLETED" {
		t.Fatalf("result: %+v", out)
	}
}

func TestUpstreamErrorPassthrough(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"DUPLICATE_ERROR","message":"reference already used"}`))
	})
	defer srv.Close()

	_, err := client.CreateQRCode(context.Background(), 1000, "INV-dup", nil)
	if err == nil {
		t.Fatal("want error on non-2xx response")
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("want *UpstreamError, got %T", err)
	}
	if upstream.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", upstream.StatusCode)
	}
	if upstream.Body == "" || upstream.Body[0] != '{' {
		t.Fatalf("body must be the raw provider response, got %q", upstream.Body)
	}
}
