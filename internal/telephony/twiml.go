package telephony

import (
	"encoding/xml"
	"fmt"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Greeting lines spoken before the media stream is bridged.
const (
	GreetingConnecting = "Please wait while we connect your call to the AI voice assistant"
	GreetingReady      = "O.K. you can start talking!"
)

// voiceResponse is the TwiML document returned from the incoming-call
// webhook. Verb order is significant, so children live in one ordered slice.
type voiceResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type sayVerb struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type pauseVerb struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type connectVerb struct {
	XMLName xml.Name `xml:"Connect"`
	Stream  streamNoun
}

type streamNoun struct {
	XMLName xml.Name `xml:"Stream"`
	URL     string   `xml:"url,attr"`
}

// VoiceResponse renders the TwiML that greets the caller and hands the call
// audio to the media stream socket at the given host.
func VoiceResponse(host string) (string, error) {
	doc := voiceResponse{
		Verbs: []any{
			sayVerb{Text: GreetingConnecting},
			pauseVerb{Length: 1},
			sayVerb{Text: GreetingReady},
			connectVerb{Stream: streamNoun{
				URL: fmt.Sprintf("wss://%s/call/media-stream", host),
			}},
		},
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("telephony: render voice response: %w", err)
	}
	return xmlHeader + string(out), nil
}

type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// MessagingResponse renders the TwiML reply for an inbound text message.
func MessagingResponse(body string) (string, error) {
	out, err := xml.Marshal(messagingResponse{Message: body})
	if err != nil {
		return "", fmt.Errorf("telephony: render messaging response: %w", err)
	}
	return xmlHeader + string(out), nil
}
