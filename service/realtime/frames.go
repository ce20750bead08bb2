package realtime

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"chathub/tools/errs"
)

// Frame is the inbound wire envelope. Data stays loosely typed until the
// command handler decodes it into its payload struct.
type Frame struct {
	ID    string         `json:"id,omitempty"`
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

type outFrame struct {
	ID    string `json:"id,omitempty"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Ack is the direct reply to the issuing connection: either success (with
// an optional result object) or an error string, never both.
type Ack struct {
	Success bool   `json:"success,omitempty"`
	Message any    `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errs.ErrValidation.WithDetail(err.Error())
	}
	if f.Event == "" {
		return nil, errs.ErrValidation.WithDetail("missing event")
	}
	return &f, nil
}

// MarshalEvent builds a server-originated frame.
func MarshalEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(outFrame{Event: event, Data: payload})
}

func marshalReply(id, event string, ack Ack) ([]byte, error) {
	return json.Marshal(outFrame{ID: id, Event: event, Data: ack})
}

// Command payloads. Required fields are enforced before a handler runs;
// anything malformed comes back as a validation error, never as undefined
// fields propagating into business logic.

type SendMessagePayload struct {
	ChatID  string `json:"chatId" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type TypingPayload struct {
	ChatID   string `json:"chatId" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}

type PresencePayload struct {
	Status string `json:"status" validate:"required,oneof=online offline"`
}

type RoomPayload struct {
	ChatID string `json:"chatId" validate:"required"`
}

var validate = validator.New()

// decodePayload maps the loose frame data onto a typed payload struct,
// tolerating the usual JSON number/string sloppiness, then validates it.
func decodePayload[T any](data map[string]any) (*T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errs.ErrInternal.WithDetail(err.Error())
	}
	if err := dec.Decode(data); err != nil {
		return nil, errs.ErrValidation.WithDetail(err.Error())
	}
	if err := validate.Struct(&out); err != nil {
		return nil, errs.ErrValidation.WithDetail(err.Error())
	}
	return &out, nil
}
