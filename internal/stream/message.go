package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/timelineai/internal/intent"
	"github.com/user/timelineai/internal/timeline"
)

// Type is the wire discriminator of a stream message.
type Type string

const (
	TypeStart    Type = "start"
	TypeIntent   Type = "intent"
	TypeTimeline Type = "timeline"
	TypeImage    Type = "image"
	TypeEvent    Type = "event"
	TypeChat     Type = "chat"
	TypeDone     Type = "done"
	TypeError    Type = "error"
)

// Terminal reports whether nothing may follow a message of type t.
func (t Type) Terminal() bool {
	return t == TypeDone || t == TypeError
}

// Message is one unit of a response stream. The set of implementations is
// closed; consumers handle every variant through a Visitor.
type Message interface {
	Type() Type
	Accept(v Visitor)
	json.Marshaler
	sealed()
}

// Visitor handles each message variant.
type Visitor interface {
	VisitStart(Start)
	VisitIntent(Intent)
	VisitTimeline(TimelineStart)
	VisitImage(Image)
	VisitEvent(EventMessage)
	VisitChat(Chat)
	VisitDone(Done)
	VisitError(Error)
	VisitUnknown(Unknown)
}

// Start opens a stream.
type Start struct{ Message string }

// Intent carries the classifier's decision.
type Intent struct{ Intent intent.Kind }

// TimelineStart announces the subject before any event is sent.
type TimelineStart struct{ Entity string }

// Image is progress text shown while an event's image is looked up.
type Image struct{ Message string }

// EventMessage carries one timeline event.
type EventMessage struct{ Event timeline.Event }

// Chat carries a conversational answer.
type Chat struct{ Message string }

// Done ends a successful stream.
type Done struct{}

// Error ends a failed stream with a user-facing message.
type Error struct{ Message string }

// Unknown is a decoded message of a type this build does not know.
type Unknown struct {
	Kind string
	Raw  json.RawMessage
}

func (Start) Type() Type         { return TypeStart }
func (Intent) Type() Type        { return TypeIntent }
func (TimelineStart) Type() Type { return TypeTimeline }
func (Image) Type() Type         { return TypeImage }
func (EventMessage) Type() Type  { return TypeEvent }
func (Chat) Type() Type          { return TypeChat }
func (Done) Type() Type          { return TypeDone }
func (Error) Type() Type         { return TypeError }
func (u Unknown) Type() Type     { return Type(u.Kind) }

func (m Start) Accept(v Visitor)         { v.VisitStart(m) }
func (m Intent) Accept(v Visitor)        { v.VisitIntent(m) }
func (m TimelineStart) Accept(v Visitor) { v.VisitTimeline(m) }
func (m Image) Accept(v Visitor)         { v.VisitImage(m) }
func (m EventMessage) Accept(v Visitor)  { v.VisitEvent(m) }
func (m Chat) Accept(v Visitor)          { v.VisitChat(m) }
func (m Done) Accept(v Visitor)          { v.VisitDone(m) }
func (m Error) Accept(v Visitor)         { v.VisitError(m) }
func (m Unknown) Accept(v Visitor)       { v.VisitUnknown(m) }

func (Start) sealed()         {}
func (Intent) sealed()        {}
func (TimelineStart) sealed() {}
func (Image) sealed()         {}
func (EventMessage) sealed()  {}
func (Chat) sealed()          {}
func (Done) sealed()          {}
func (Error) sealed()         {}
func (Unknown) sealed()       {}

// envelope is the JSON shape shared by every message.
type envelope struct {
	Type    Type            `json:"type"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type intentData struct {
	Intent intent.Kind `json:"intent"`
}

type timelineData struct {
	Entity string `json:"entity"`
}

type chatData struct {
	Message string `json:"message"`
}

func encode(t Type, message string, data any) ([]byte, error) {
	env := envelope{Type: t, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s data: %w", t, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func (m Start) MarshalJSON() ([]byte, error) { return encode(TypeStart, m.Message, nil) }
func (m Intent) MarshalJSON() ([]byte, error) {
	return encode(TypeIntent, "", intentData{Intent: m.Intent})
}
func (m TimelineStart) MarshalJSON() ([]byte, error) {
	return encode(TypeTimeline, "", timelineData{Entity: m.Entity})
}
func (m Image) MarshalJSON() ([]byte, error)        { return encode(TypeImage, m.Message, nil) }
func (m EventMessage) MarshalJSON() ([]byte, error) { return encode(TypeEvent, "", m.Event) }
func (m Chat) MarshalJSON() ([]byte, error)         { return encode(TypeChat, "", chatData{Message: m.Message}) }
func (Done) MarshalJSON() ([]byte, error)           { return encode(TypeDone, "", nil) }
func (m Error) MarshalJSON() ([]byte, error)        { return encode(TypeError, m.Message, nil) }

func (m Unknown) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	return encode(Type(m.Kind), "", nil)
}

// Encode returns the wire form of m.
func Encode(m Message) ([]byte, error) {
	return m.MarshalJSON()
}

// Decode parses one wire message. Types this build does not know decode to
// Unknown rather than failing.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode stream message: %w", err)
	}

	switch env.Type {
	case TypeStart:
		return Start{Message: env.Message}, nil
	case TypeIntent:
		var d intentData
		if err := decodeData(env.Data, &d); err != nil {
			return nil, err
		}
		return Intent{Intent: d.Intent}, nil
	case TypeTimeline:
		var d timelineData
		if err := decodeData(env.Data, &d); err != nil {
			return nil, err
		}
		return TimelineStart{Entity: d.Entity}, nil
	case TypeImage:
		return Image{Message: env.Message}, nil
	case TypeEvent:
		var ev timeline.Event
		if err := decodeData(env.Data, &ev); err != nil {
			return nil, err
		}
		if ev.ID == "" {
			return nil, errors.New("decode event: missing id")
		}
		return EventMessage{Event: ev}, nil
	case TypeChat:
		return Chat{Message: decodeChat(env.Data)}, nil
	case TypeDone:
		return Done{}, nil
	case TypeError:
		return Error{Message: env.Message}, nil
	default:
		return Unknown{Kind: string(env.Type), Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode message data: %w", err)
	}
	return nil
}

// decodeChat accepts both {"message": "..."} and a bare string.
func decodeChat(data json.RawMessage) string {
	var d chatData
	if err := json.Unmarshal(data, &d); err == nil {
		return d.Message
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return ""
}
