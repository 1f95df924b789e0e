package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Invoice is what a payment provider hands back when an invoice is opened:
// a provider-side reference plus whatever checkout surfaces it supports.
type Invoice struct {
	InvoiceID   string
	CheckoutURL string
	QRText      string
}

// Provider opens invoices with an external payment gateway. Settlement always
// arrives asynchronously through the webhook, never through this call.
type Provider interface {
	Name() string
	CreateInvoice(ctx context.Context, bookingCode string, amount float64, currency string) (*Invoice, error)
}

// Sandbox issues invoices locally without calling out anywhere. Settlement is
// driven by posting to the webhook by hand, which is exactly what staging and
// tests need.
type Sandbox struct {
	checkoutBase string
}

func NewSandbox(checkoutBase string) *Sandbox {
	return &Sandbox{checkoutBase: strings.TrimRight(checkoutBase, "/")}
}

func (s *Sandbox) Name() string { return "sandbox" }

func (s *Sandbox) CreateInvoice(ctx context.Context, bookingCode string, amount float64, currency string) (*Invoice, error) {
	ref := "INV-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))

	return &Invoice{
		InvoiceID:   ref,
		CheckoutURL: fmt.Sprintf("%s/checkout/%s", s.checkoutBase, ref),
		QRText:      ref,
	}, nil
}
