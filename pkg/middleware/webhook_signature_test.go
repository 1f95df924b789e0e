package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

const webhookSecret = "webhook-secret"

func sign(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func callWebhook(guard func(httprouter.Handle) httprouter.Handle, body, signature string) (*httptest.ResponseRecorder, bool, string) {
	reached := false
	var seenBody string
	handle := guard(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		reached = true
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Signature-256", signature)
	}
	rec := httptest.NewRecorder()
	handle(rec, req, nil)
	return rec, reached, seenBody
}

func TestWebhookSignatureAcceptsValidSignature(t *testing.T) {
	guard := WebhookSignature(webhookSecret, testLog())
	body := `{"invoice_id":"INV-TEST123","status":"paid"}`

	rec, reached, seenBody := callWebhook(guard, body, sign(body, webhookSecret))
	if !reached {
		t.Fatal("expected the guarded handler to run")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if seenBody != body {
		t.Error("expected the body to be readable downstream after verification")
	}
}

func TestWebhookSignatureAcceptsPrefixedHeader(t *testing.T) {
	guard := WebhookSignature(webhookSecret, testLog())
	body := `{"invoice_id":"INV-TEST123","status":"paid"}`

	_, reached, _ := callWebhook(guard, body, "sha256="+sign(body, webhookSecret))
	if !reached {
		t.Error("expected the sha256= prefixed form to verify")
	}
}

func TestWebhookSignatureRejections(t *testing.T) {
	guard := WebhookSignature(webhookSecret, testLog())
	body := `{"invoice_id":"INV-TEST123","status":"paid"}`

	tests := []struct {
		name      string
		signature string
	}{
		{"missing header", ""},
		{"wrong secret", sign(body, "other-secret")},
		{"tampered body", sign(body+"x", webhookSecret)},
		{"not hex", "zzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reached, _ := callWebhook(guard, body, tt.signature)
			if reached {
				t.Error("the guarded handler must not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestWebhookSignatureDisabledWithoutSecret(t *testing.T) {
	guard := WebhookSignature("", testLog())

	_, reached, _ := callWebhook(guard, `{}`, "")
	if !reached {
		t.Error("an empty secret must leave the route open")
	}
}
