package bridge

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// IdentityAttr is the non-semantic attribute carrying an element's
// assigned identifier. Both sides of the bridge know it: the surface
// stamps it and the serializer strips it.
const IdentityAttr = "data-rid"

// Message type discriminants. Every cross-boundary payload carries one.
const (
	TypeSelect     = "select"
	TypeMutate     = "mutate"
	TypeSerialize  = "serialize"
	TypeSerialized = "serialized"
	TypeError      = "error"
)

// ErrUnknownType indicates a payload whose discriminant is not part of
// the protocol. Callers drop such messages.
var ErrUnknownType = errors.New("unknown message type")

// Envelope carries the discriminant and origin of a raw payload.
type Envelope struct {
	Type    string `json:"type"`
	Surface string `json:"surface,omitempty"`
}

// SelectEvent reports a user selection from the surface, carrying the
// element's resolved style snapshot.
type SelectEvent struct {
	Type            string `json:"type"`
	Surface         string `json:"surface,omitempty"`
	RID             string `json:"rid"`
	Tag             string `json:"tag"`
	Text            string `json:"text"`
	Color           string `json:"color"`
	FontSize        string `json:"fontSize"`
	BackgroundColor string `json:"backgroundColor"`
	FontWeight      string `json:"fontWeight"`
	Padding         string `json:"padding"`
	Margin          string `json:"margin"`
}

// MutateCommand asks the surface to update one element in place.
// Fire-and-forget: no acknowledgement is ever sent.
type MutateCommand struct {
	Type    string            `json:"type"`
	Surface string            `json:"surface,omitempty"`
	RID     string            `json:"rid"`
	Text    *string           `json:"text,omitempty"`
	Style   map[string]string `json:"style,omitempty"`
}

// SerializeCommand asks the surface for its current markup.
type SerializeCommand struct {
	Type    string `json:"type"`
	Surface string `json:"surface,omitempty"`
}

// SerializedEvent answers one SerializeCommand.
type SerializedEvent struct {
	Type    string `json:"type"`
	Surface string `json:"surface,omitempty"`
	HTML    string `json:"html"`
}

// ErrorEvent reports a surface-side failure.
type ErrorEvent struct {
	Type    string `json:"type"`
	Surface string `json:"surface,omitempty"`
	Message string `json:"message"`
}

// Encode marshals a message to its wire form.
func Encode(msg interface{}) ([]byte, error) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

// Decode parses a raw payload into its concrete message variant.
// Payloads with an unrecognized discriminant return ErrUnknownType.
func Decode(raw []byte) (interface{}, error) {
	var env Envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch env.Type {
	case TypeSelect:
		var msg SelectEvent
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("malformed select: %w", err)
		}
		return &msg, nil
	case TypeMutate:
		var msg MutateCommand
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("malformed mutate: %w", err)
		}
		return &msg, nil
	case TypeSerialize:
		var msg SerializeCommand
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("malformed serialize: %w", err)
		}
		return &msg, nil
	case TypeSerialized:
		var msg SerializedEvent
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("malformed serialized: %w", err)
		}
		return &msg, nil
	case TypeError:
		var msg ErrorEvent
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("malformed error: %w", err)
		}
		return &msg, nil
	default:
		return nil, ErrUnknownType
	}
}
