package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string

	// HTTPClient replaces the default transport when set.
	HTTPClient *http.Client
}

// TwilioSender delivers SMS through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	params := twilio.ClientParams{
		Username:   cfg.AccountSID,
		Password:   cfg.AuthToken,
		AccountSid: cfg.AccountSID,
	}
	if cfg.HTTPClient != nil {
		params.Client = &twclient.Client{
			Credentials: twclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
			HTTPClient:  cfg.HTTPClient,
		}
	}

	return &TwilioSender{client: twilio.NewRestClientWithParams(params), from: cfg.From}
}

func (t *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}

	return nil
}
