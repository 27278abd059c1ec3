package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/plutov/paypal/v4"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// PayPalClient creates and captures PayPal orders for token purchases.
type PayPalClient struct {
	client *paypal.Client

	once    sync.Once
	authErr error
}

// NewPayPalClient creates a payment adapter. env is "sandbox" or "live".
func NewPayPalClient(clientID, secret, env string) (*PayPalClient, error) {
	base := paypal.APIBaseSandBox
	if env == "live" {
		base = paypal.APIBaseLive
	}

	c, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		return nil, fmt.Errorf("create paypal client: %w", err)
	}
	return &PayPalClient{client: c}, nil
}

// ensureToken fetches the OAuth token on first use.
func (p *PayPalClient) ensureToken(ctx context.Context) error {
	p.once.Do(func() {
		if _, err := p.client.GetAccessToken(ctx); err != nil {
			p.authErr = err
		}
	})
	if p.authErr != nil {
		return apierr.Integration("paypal", p.authErr)
	}
	return nil
}

// CreateOrder opens a provider order for the given USD amount and returns
// the approval link the buyer must visit.
func (p *PayPalClient) CreateOrder(ctx context.Context, amountUSD float64, description string) (*PaymentOrder, error) {
	if err := p.ensureToken(ctx); err != nil {
		return nil, err
	}

	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: "USD",
			Value:    fmt.Sprintf("%.2f", amountUSD),
		},
		Description: description,
	}}

	order, err := p.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return nil, apierr.Integration("paypal", err)
	}

	result := &PaymentOrder{ID: order.ID, Status: order.Status}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			result.ApproveURL = link.Href
		}
	}
	return result, nil
}

// CaptureOrder captures an approved order and returns the provider's status.
func (p *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*PaymentCapture, error) {
	if err := p.ensureToken(ctx); err != nil {
		return nil, err
	}

	res, err := p.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, apierr.Integration("paypal", err)
	}
	return &PaymentCapture{ID: res.ID, Status: res.Status}, nil
}
