package notify

import (
	"context"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// TwilioSender sends SMS through Twilio.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates an SMS adapter for the given Twilio account.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

// Send forwards one message to Twilio. The SDK does not take a context;
// cancellation is bounded by its own HTTP timeout.
func (s *TwilioSender) Send(_ context.Context, to, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return apierr.Integration("twilio", err)
	}
	return nil
}
