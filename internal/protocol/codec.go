package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage is returned for frames that fail to parse or lack
// required fields. The frame is dropped; the connection stays open.
var ErrMalformedMessage = errors.New("malformed message")

// Payload is a client request body that can check its own required fields.
type Payload interface {
	Validate() error
}

// Request is a decoded client frame. The body stays raw until a handler
// binds it to the payload type for its message kind.
type Request struct {
	Type string `json:"type"`
	Ack  *int64 `json:"ack,omitempty"`

	raw json.RawMessage
}

// Decode parses the envelope of a client frame.
func Decode(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if req.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	req.raw = append(json.RawMessage(nil), data...)
	return &req, nil
}

// Bind decodes the request body into p and validates it.
func (r *Request) Bind(p Payload) error {
	if err := json.Unmarshal(r.raw, p); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedMessage, r.Type, err)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedMessage, r.Type, err)
	}
	return nil
}
