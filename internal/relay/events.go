// Package relay implements the realtime layer: websocket clients, the chat
// room registry, and the event fan-out that mirrors persisted messages to
// connected participants.
//
// Every frame on the wire is a JSON envelope of the form
//
//	{"event": "<name>", "data": <payload>}
//
// Inbound events are join-chat, send-message, start-typing and stop-typing;
// the relay answers with receive-history, receive-message, user-typing,
// user-stopped-typing and error.
package relay

import "encoding/json"

// Inbound event names (client to server).
const (
	EventJoinChat    = "join-chat"
	EventSendMessage = "send-message"
	EventStartTyping = "start-typing"
	EventStopTyping  = "stop-typing"
)

// Outbound event names (server to client).
const (
	EventReceiveHistory    = "receive-history"
	EventReceiveMessage    = "receive-message"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
	EventError             = "error"
)

// Envelope is the wire frame wrapping every relay event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// newEnvelope wraps data under the given event name. A payload that cannot
// be marshalled is a programming error and yields an empty data field.
func newEnvelope(event string, data any) Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{Event: event}
	}
	return Envelope{Event: event, Data: raw}
}

// JoinPayload is the data of a join-chat event.
type JoinPayload struct {
	ChatID string `json:"chatId"`
}

// SendPayload is the data of a send-message event. File carries raw
// attachment bytes, base64-encoded on the wire by encoding/json.
type SendPayload struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
	File   []byte `json:"file,omitempty"`
}

// TypingPayload is the data of start-typing and stop-typing events.
type TypingPayload struct {
	ChatID string `json:"chatId"`
}

// TypingNotice is the data of user-typing and user-stopped-typing events.
type TypingNotice struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// ErrorPayload is the data of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}
