// Package notify holds the integration adapters: thin forwarders to the
// email, SMS and payment provider SDKs. Calls are synchronous, there is no
// queuing or retry, and provider failures come back as apierr.Integration.
package notify

import (
	"context"
	"errors"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// EmailSender sends a notification email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender sends a notification text message.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// PaymentOrder is a created provider order awaiting buyer approval.
type PaymentOrder struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ApproveURL string `json:"approve_url,omitempty"`
}

// PaymentCapture is the result of capturing an approved order.
type PaymentCapture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Payments creates and captures provider payment orders.
type Payments interface {
	CreateOrder(ctx context.Context, amountUSD float64, description string) (*PaymentOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (*PaymentCapture, error)
}

var errNotConfigured = errors.New("provider not configured")

// The Disabled* constructors stand in for providers without credentials.
// Every call reports an integration failure so misconfiguration is loud,
// not silent.

// DisabledEmail returns an EmailSender that always fails.
func DisabledEmail() EmailSender { return disabledEmail{} }

// DisabledSMS returns an SMSSender that always fails.
func DisabledSMS() SMSSender { return disabledSMS{} }

// DisabledPayments returns a Payments that always fails.
func DisabledPayments() Payments { return disabledPayments{} }

type disabledEmail struct{}

func (disabledEmail) Send(context.Context, string, string, string) error {
	return apierr.Integration("email", errNotConfigured)
}

type disabledSMS struct{}

func (disabledSMS) Send(context.Context, string, string) error {
	return apierr.Integration("sms", errNotConfigured)
}

type disabledPayments struct{}

func (disabledPayments) CreateOrder(context.Context, float64, string) (*PaymentOrder, error) {
	return nil, apierr.Integration("payments", errNotConfigured)
}

func (disabledPayments) CaptureOrder(context.Context, string) (*PaymentCapture, error) {
	return nil, apierr.Integration("payments", errNotConfigured)
}
