// Package audio transposes telephony media payloads between the provider's
// text-safe base64 encoding and raw G.711 μ-law bytes. Both sides of the
// relay agree on 8-bit companded audio at 8 kHz, so no resampling or bit
// depth conversion happens here.
package audio

import (
	"encoding/base64"
	"fmt"
)

// Format constants shared by the telephony provider and the speech backend.
const (
	FormatG711ULaw = "g711_ulaw"
	SampleRate     = 8000
)

// DecodeError reports a malformed media payload.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio: malformed payload: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode converts a base64 media payload into raw μ-law bytes.
func Decode(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return raw, nil
}

// Encode converts raw μ-law bytes into a base64 media payload.
func Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
