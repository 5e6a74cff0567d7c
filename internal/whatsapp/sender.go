// Package whatsapp sends outbound WhatsApp messages through the Twilio
// REST API and enforces the broadcast allowlist.
package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/donnabot/donna/internal/config"
	"github.com/donnabot/donna/internal/logging"
)

// messageCreator is the slice of the Twilio API the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Sender delivers WhatsApp messages from the configured number.
type Sender struct {
	api      messageCreator
	from     string
	approved map[string]bool
	log      *logging.Logger
}

// NewSender creates a sender from telephony credentials.
func NewSender(cfg config.TelephonyConfig, log *logging.Logger) (*Sender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.WhatsAppFrom == "" {
		return nil, fmt.Errorf("whatsapp: missing twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return newSender(client.Api, cfg, log), nil
}

func newSender(api messageCreator, cfg config.TelephonyConfig, log *logging.Logger) *Sender {
	approved := make(map[string]bool, len(cfg.ApprovedNumbers))
	for _, n := range cfg.ApprovedNumbers {
		approved[normalize(n)] = true
	}
	return &Sender{
		api:      api,
		from:     cfg.WhatsAppFrom,
		approved: approved,
		log:      log.Sub("whatsapp"),
	}
}

// Send delivers one message to the given number.
func (s *Sender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(whatsappAddr(s.from))
	params.SetTo(whatsappAddr(to))
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("whatsapp: send to %s: %w", to, err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	s.log.Info().Str("to", to).Str("message_sid", sid).Msg("message sent")
	return nil
}

// Broadcast sends the body to every approved target. Unapproved numbers
// are skipped with a warning, matching sandbox semantics. Returns how many
// messages were sent; the error is the first send failure, if any.
func (s *Sender) Broadcast(ctx context.Context, targets []string, body string) (int, error) {
	sent := 0
	for _, to := range targets {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		if !s.approved[normalize(to)] {
			s.log.Warn().Str("to", to).Msg("number not approved for sandbox use")
			continue
		}
		if err := s.Send(ctx, to, body); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Approved reports whether a number may receive broadcasts.
func (s *Sender) Approved(number string) bool {
	return s.approved[normalize(number)]
}

// whatsappAddr ensures the whatsapp: scheme prefix the Twilio API expects.
func whatsappAddr(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func normalize(number string) string {
	return strings.TrimPrefix(strings.TrimSpace(number), "whatsapp:")
}
