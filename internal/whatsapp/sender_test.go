package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/donnabot/donna/internal/config"
	"github.com/donnabot/donna/internal/logging"
)

type fakeAPI struct {
	sent []twilioApi.CreateMessageParams
	err  error
}

func (f *fakeAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.sent = append(f.sent, *params)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func testSender(api *fakeAPI, approved ...string) *Sender {
	cfg := config.TelephonyConfig{
		WhatsAppFrom:    "whatsapp:+14155238886",
		ApprovedNumbers: approved,
	}
	return newSender(api, cfg, logging.Silent())
}

func TestSendAddsWhatsAppPrefix(t *testing.T) {
	api := &fakeAPI{}
	s := testSender(api)

	require.NoError(t, s.Send(context.Background(), "+15551234567", "See you then!"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "whatsapp:+14155238886", *api.sent[0].From)
	assert.Equal(t, "whatsapp:+15551234567", *api.sent[0].To)
	assert.Equal(t, "See you then!", *api.sent[0].Body)
}

func TestSendKeepsExistingPrefix(t *testing.T) {
	api := &fakeAPI{}
	s := testSender(api)

	require.NoError(t, s.Send(context.Background(), "whatsapp:+15551234567", "hi"))
	assert.Equal(t, "whatsapp:+15551234567", *api.sent[0].To)
}

func TestBroadcastApprovedOnly(t *testing.T) {
	api := &fakeAPI{}
	s := testSender(api, "+15551110000", "whatsapp:+15552220000")

	sent, err := s.Broadcast(context.Background(), []string{"+15551110000", " +15552220000 "}, "promo")
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, api.sent, 2)
}

func TestBroadcastSkipsUnapproved(t *testing.T) {
	api := &fakeAPI{}
	s := testSender(api, "+15551110000")

	sent, err := s.Broadcast(context.Background(), []string{"+15559990000", "+15551110000", ""}, "promo")
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "whatsapp:+15551110000", *api.sent[0].To)
}

func TestApproved(t *testing.T) {
	s := testSender(&fakeAPI{}, "whatsapp:+15551110000")
	assert.True(t, s.Approved("+15551110000"))
	assert.True(t, s.Approved("whatsapp:+15551110000"))
	assert.False(t, s.Approved("+15559990000"))
}

func TestNewSenderRequiresCredentials(t *testing.T) {
	_, err := NewSender(config.TelephonyConfig{}, logging.Silent())
	assert.Error(t, err)
}
