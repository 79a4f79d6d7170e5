package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const defaultSMSTimeout = 15 * time.Second

// messageCreator is the part of the Twilio v2010 API the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	api  messageCreator
	from string
}

// NewTwilioSender returns a sender for the given account.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	client.SetTimeout(defaultSMSTimeout)
	return &TwilioSender{api: client.Api, from: from}
}

// Send creates a message to the destination phone. It never logs the body.
func (s *TwilioSender) Send(ctx context.Context, message Message) error {
	if s.api == nil || s.from == "" {
		return fmt.Errorf("twilio: sender not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(message.Destination)
	params.SetFrom(s.from)
	params.SetBody(message.Body)

	if _, err := s.api.CreateMessage(params); err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			return fmt.Errorf("twilio: request failed status=%d code=%d: %s", restErr.Status, restErr.Code, restErr.Message)
		}
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}
