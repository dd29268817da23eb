package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/services"
)

// ChatDirectory answers the join-time membership check.
// *services.ChatService satisfies it.
type ChatDirectory interface {
	Membership(ctx context.Context, chatID, userID string) (*domain.Chat, error)
}

// MessageLog persists and replays messages. *services.MessageService
// satisfies it.
type MessageLog interface {
	Append(ctx context.Context, chatID, senderID, text string, file []byte) (*domain.Message, error)
	History(ctx context.Context, chatID string) ([]domain.Message, error)
}

// Hub owns the room registry: which clients are currently joined to which
// chat. All registry access goes through the hub's lock; event delivery to a
// client happens outside the lock via the client's buffered send channel.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	chats    ChatDirectory
	messages MessageLog
	log      zerolog.Logger
}

// NewHub constructs a Hub.
func NewHub(chats ChatDirectory, messages MessageLog, log zerolog.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Client]struct{}),
		chats:    chats,
		messages: messages,
		log:      log.With().Str("component", "relay").Logger(),
	}
}

// HandleJoin processes a join-chat event. The chat must exist and the client
// must be one of its two participants; membership is granted before the
// history replay, so a failed replay leaves the client joined and it still
// receives subsequent broadcasts.
func (h *Hub) HandleJoin(ctx context.Context, c *Client, chatID string) {
	if _, err := h.chats.Membership(ctx, chatID, c.userID); err != nil {
		switch {
		case errors.Is(err, services.ErrChatNotFound):
			h.errorTo(c, "chat not found")
		case errors.Is(err, services.ErrNotParticipant):
			h.errorTo(c, "not a participant of this chat")
		default:
			h.log.Error().Err(err).Str("chat_id", chatID).Msg("join: chat lookup failed")
			h.errorTo(c, "could not join chat")
		}
		return
	}

	h.mu.Lock()
	room, ok := h.rooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[chatID] = room
		relayRooms.Inc()
	}
	room[c] = struct{}{}
	h.mu.Unlock()
	c.track(chatID)

	h.log.Debug().Str("chat_id", chatID).Str("user_id", c.userID).Msg("client joined chat")

	history, err := h.messages.History(ctx, chatID)
	if err != nil {
		h.log.Error().Err(err).Str("chat_id", chatID).Msg("join: history replay failed")
		h.errorTo(c, "could not load chat history")
		return
	}
	h.deliver(c, newEnvelope(EventReceiveHistory, history))
}

// HandleSend processes a send-message event: persist first, then broadcast
// the stored record (with its assigned id) to every joined client, the
// sender included. Failures go to the sender only; nothing is broadcast for
// a message that was not persisted.
func (h *Hub) HandleSend(ctx context.Context, c *Client, p SendPayload) {
	if !c.inChat(p.ChatID) {
		h.errorTo(c, "join the chat before sending")
		return
	}

	m, err := h.messages.Append(ctx, p.ChatID, c.userID, p.Text, p.File)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			h.errorTo(c, "message needs text or a file")
			return
		}
		h.log.Error().Err(err).Str("chat_id", p.ChatID).Str("user_id", c.userID).Msg("send: persist failed")
		h.errorTo(c, "could not send message")
		return
	}

	h.broadcast(p.ChatID, newEnvelope(EventReceiveMessage, m), nil)
}

// HandleTyping relays a typing indicator to every joined client of the chat,
// the typist included; the notice carries the typist's id so clients can skip
// their own echo. Indicators are transient: nothing is persisted, and events
// from a client that never joined are dropped.
func (h *Hub) HandleTyping(_ context.Context, c *Client, chatID string, typing bool) {
	if !c.inChat(chatID) {
		return
	}
	event := EventUserStoppedTyping
	if typing {
		event = EventUserTyping
	}
	h.broadcast(chatID, newEnvelope(event, TypingNotice{ChatID: chatID, UserID: c.userID}), nil)
}

// RemoveClient detaches a client from every room it joined and closes its
// send channel. Safe to call more than once.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	for _, chatID := range c.joined() {
		if room, ok := h.rooms[chatID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, chatID)
				relayRooms.Dec()
			}
		}
	}
	h.mu.Unlock()

	c.close()
	h.log.Debug().Str("user_id", c.userID).Msg("client detached")
}

// broadcast delivers an envelope to every client joined to the chat, except
// the excluded one. Recipients are snapshotted under the read lock and
// delivery happens outside it, so a slow consumer being dropped mid-fanout
// cannot deadlock the registry.
func (h *Hub) broadcast(chatID string, env Envelope, exclude *Client) {
	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		if c != exclude {
			recipients = append(recipients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		h.deliver(c, env)
	}
}

// deliver enqueues an envelope on the client's send channel. A client whose
// buffer is full is a slow consumer and gets dropped rather than blocking
// the relay.
func (h *Hub) deliver(c *Client, env Envelope) {
	if !c.enqueue(env) {
		h.log.Warn().Str("user_id", c.userID).Msg("dropping slow consumer")
		relayDropped.Inc()
		h.RemoveClient(c)
	}
}

// errorTo sends an error event to a single client.
func (h *Hub) errorTo(c *Client, msg string) {
	h.deliver(c, newEnvelope(EventError, ErrorPayload{Message: msg}))
}

// roomSize reports how many clients are joined to a chat.
func (h *Hub) roomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}
