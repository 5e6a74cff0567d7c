// Package relay moves audio between a telephony media stream and a speech
// backend session, one pump per direction, failing together.
package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/donnabot/donna/internal/audio"
	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/logging"
	"github.com/donnabot/donna/internal/speech"
	"github.com/donnabot/donna/internal/telephony"
)

// FrameSource yields inbound telephony frames.
type FrameSource interface {
	ReadFrame() (telephony.Frame, error)
}

// FrameSink accepts outbound telephony frames.
type FrameSink interface {
	WriteFrame(telephony.Frame) error
}

// AudioSink accepts caller audio for the speech backend.
type AudioSink interface {
	AppendAudio(payload string) error
}

// EventSource yields classified speech backend events.
type EventSource interface {
	ReadEvent() (speech.Event, error)
}

// Telephony is the caller half of the bridge.
type Telephony interface {
	FrameSource
	FrameSink
	Close() error
}

// Backend is the speech half of the bridge.
type Backend interface {
	AudioSink
	EventSource
	Close() error
}

// Link is the shared state between the two pumps: the stream SID announced
// by the start frame, and the transcript callback. The SID is written by the
// inbound pump and read by the outbound pump.
type Link struct {
	mu        sync.Mutex
	streamSID string
	onTurn    func(domain.Speaker, string)
}

// NewLink creates a link. onTurn receives each transcript line as it
// completes; nil is allowed.
func NewLink(onTurn func(domain.Speaker, string)) *Link {
	return &Link{onTurn: onTurn}
}

// SetStreamSID records the SID announced by the start frame.
func (l *Link) SetStreamSID(sid string) {
	l.mu.Lock()
	l.streamSID = sid
	l.mu.Unlock()
}

// StreamSID returns the recorded SID, empty before the start frame.
func (l *Link) StreamSID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.streamSID
}

func (l *Link) recordTurn(speaker domain.Speaker, text string) {
	if l.onTurn != nil {
		l.onTurn(speaker, text)
	}
}

// PumpInbound consumes telephony frames until the socket closes. Media
// payloads are validated and appended to the backend's input buffer; the
// start frame's SID is recorded on the link. Normal socket closure returns
// nil.
func PumpInbound(ctx context.Context, tel FrameSource, backend AudioSink, link *Link, log *logging.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := tel.ReadFrame()
		if err != nil {
			return err
		}

		switch frame.Event {
		case telephony.EventStart:
			if frame.Start != nil {
				link.SetStreamSID(frame.Start.StreamSID)
				log.Info().Str("stream_sid", frame.Start.StreamSID).Msg("media stream started")
			}

		case telephony.EventMedia:
			if frame.Media == nil {
				continue
			}
			if _, err := audio.Decode(frame.Media.Payload); err != nil {
				log.Warn().Err(err).Msg("dropping undecodable caller audio")
				continue
			}
			if err := backend.AppendAudio(frame.Media.Payload); err != nil {
				return err
			}

		case telephony.EventStop:
			log.Info().Str("stream_sid", link.StreamSID()).Msg("media stream stopped")
			return nil

		default:
			// connected, mark and friends carry nothing the bridge needs.
		}
	}
}

// PumpOutbound consumes backend events until the session closes. Transcript
// events feed the link's turn callback; audio deltas are re-encoded and sent
// back to the caller tagged with the recorded stream SID.
func PumpOutbound(ctx context.Context, backend EventSource, tel FrameSink, link *Link, log *logging.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := backend.ReadEvent()
		if err != nil {
			return err
		}

		switch ev.Kind {
		case speech.KindUserTranscript:
			text := strings.TrimSpace(ev.Transcript)
			link.recordTurn(domain.SpeakerUser, text)
			log.Info().Str("speaker", string(domain.SpeakerUser)).Str("text", text).Msg("turn")

		case speech.KindAgentDone:
			link.recordTurn(domain.SpeakerAgent, ev.Transcript)
			log.Info().Str("speaker", string(domain.SpeakerAgent)).Str("text", ev.Transcript).Msg("turn")

		case speech.KindAudioDelta:
			raw, err := audio.Decode(ev.Audio)
			if err != nil {
				log.Warn().Err(err).Msg("dropping undecodable agent audio")
				continue
			}
			frame := telephony.MediaFrame(link.StreamSID(), audio.Encode(raw))
			if err := tel.WriteFrame(frame); err != nil {
				return err
			}
		}
	}
}

// Run drives both pumps until one finishes, then tears the other down by
// closing both sockets. Cancellation and normal-closure errors are
// suppressed; the first real error is returned.
func Run(ctx context.Context, tel Telephony, backend Backend, link *Link, log *logging.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return suppress(PumpInbound(ctx, tel, backend, link, log))
	})
	g.Go(func() error {
		defer cancel()
		return suppress(PumpOutbound(ctx, backend, tel, link, log))
	})
	g.Go(func() error {
		// Unblocks both reads once either pump finishes.
		<-ctx.Done()
		backend.Close()
		tel.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("relay failed")
		return err
	}
	return nil
}

// suppress maps the errors of an orderly teardown to nil.
func suppress(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		return nil
	case errors.Is(err, speech.ErrClosed):
		return nil
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		return nil
	}
	return err
}
