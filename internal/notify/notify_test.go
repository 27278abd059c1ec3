package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vrno/tokenmarket/internal/apierr"
)

func TestDisabledProvidersFailLoudly(t *testing.T) {
	ctx := context.Background()
	var integrationErr *apierr.IntegrationError

	err := DisabledEmail().Send(ctx, "user@example.com", "Receipt", "body")
	assert.ErrorAs(t, err, &integrationErr)

	err = DisabledSMS().Send(ctx, "+15550001111", "body")
	assert.ErrorAs(t, err, &integrationErr)

	_, err = DisabledPayments().CreateOrder(ctx, 9.99, "starter pack")
	assert.ErrorAs(t, err, &integrationErr)

	_, err = DisabledPayments().CaptureOrder(ctx, "order-1")
	assert.ErrorAs(t, err, &integrationErr)
}
