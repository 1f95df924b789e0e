package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus tracks a single payment attempt. A booking can accumulate
// several attempts (retries after failure); at most one of them transitions
// the booking to confirmed.
type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "created"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentExpired  PaymentStatus = "expired"
	PaymentRefunded PaymentStatus = "refunded"
)

type Payment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BookingID primitive.ObjectID `json:"booking_id" bson:"booking_id"`

	Provider  string `json:"provider" bson:"provider"`
	InvoiceID string `json:"invoice_id" bson:"invoice_id"`

	// Amount/Currency are copied from the booking's pricing snapshot at
	// creation and never recomputed.
	Amount   float64 `json:"amount" bson:"amount"`
	Currency string  `json:"currency" bson:"currency"`

	Status PaymentStatus `json:"status" bson:"status"`

	CheckoutURL string `json:"checkout_url,omitempty" bson:"checkout_url,omitempty"`
	QRText      string `json:"qr_text,omitempty" bson:"qr_text,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type CreatePaymentRequest struct {
	BookingCode string `json:"booking_code" validate:"required"`
	Provider    string `json:"provider" validate:"required,min=2,max=40"`
}

type CreatePaymentResponse struct {
	PaymentID   string        `json:"payment_id"`
	Status      PaymentStatus `json:"status"`
	Provider    string        `json:"provider"`
	InvoiceID   string        `json:"invoice_id"`
	CheckoutURL string        `json:"checkout_url,omitempty"`
	QRText      string        `json:"qr_text,omitempty"`
}

func (p *Payment) ToCreateResponse() *CreatePaymentResponse {
	return &CreatePaymentResponse{
		PaymentID:   p.ID.Hex(),
		Status:      p.Status,
		Provider:    p.Provider,
		InvoiceID:   p.InvoiceID,
		CheckoutURL: p.CheckoutURL,
		QRText:      p.QRText,
	}
}

// PaymentWebhookRequest is the provider callback body.
type PaymentWebhookRequest struct {
	Provider  string `json:"provider"`
	InvoiceID string `json:"invoice_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}
