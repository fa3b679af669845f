// Package relay fans presence, pod chat and battle events out to connected clients.
package relay

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// Event types sent to clients.
const (
	EventConnected    = "connected"
	EventOnlineUsers  = "online_users_update"
	EventMemberJoined = "member_joined"
	EventNewMessage   = "new_message"
	EventBattleUpdate = "battle_update"
	EventError        = "error"
)

const sendBuffer = 8

// PresenceTracker counts distinct online users, possibly across instances.
type PresenceTracker interface {
	Online(ctx context.Context, userID string) error
	Offline(ctx context.Context, userID string) error
	Count(ctx context.Context) (int, error)
}

// Subscription is one registered connection.
type Subscription struct {
	ID       string
	UserID   string
	Username string
	// Events is closed when the connection is unregistered.
	Events <-chan domain.Event
}

type client struct {
	id       string
	userID   string
	username string
	send     chan domain.Event
	rooms    map[string]struct{}
}

// Hub is the connection registry. Every connection is added by Register and
// removed by Unregister or DisconnectUser; rooms only reference registered
// connections.
type Hub struct {
	presence PresenceTracker
	log      logrus.FieldLogger

	mu    sync.RWMutex
	conns map[string]*client
	users map[string]int
	rooms map[string]map[string]*client
}

func NewHub(presence PresenceTracker, log logrus.FieldLogger) *Hub {
	return &Hub{
		presence: presence,
		log:      log,
		conns:    make(map[string]*client),
		users:    make(map[string]int),
		rooms:    make(map[string]map[string]*client),
	}
}

type connectedPayload struct {
	Message string `json:"message"`
}

type onlinePayload struct {
	Count int `json:"count"`
}

type memberJoinedPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Register adds a connection for userID. When it is the user's first
// connection every client is told the new online count.
//
// Presence calls run outside h.mu. An Offline racing a reconnect of the same
// user is repaired by the next Heartbeat.
func (h *Hub) Register(ctx context.Context, userID, username string) (*Subscription, error) {
	if err := h.presence.Online(ctx, userID); err != nil {
		return nil, err
	}
	c := &client{
		id:       uuid.NewString(),
		userID:   userID,
		username: username,
		send:     make(chan domain.Event, sendBuffer),
		rooms:    make(map[string]struct{}),
	}

	h.mu.Lock()
	first := h.users[userID] == 0
	h.conns[c.id] = c
	h.users[userID]++
	deliver(c.send, domain.Event{Type: EventConnected, Payload: connectedPayload{Message: "Connected to StarGuide server"}})
	h.mu.Unlock()

	if first {
		h.broadcastCount(ctx)
	}
	h.log.WithFields(logrus.Fields{"conn_id": c.id, "user_id": userID}).Debug("connection registered")

	return &Subscription{ID: c.id, UserID: userID, Username: username, Events: c.send}, nil
}

// Unregister removes a connection and closes its event channel.
func (h *Hub) Unregister(ctx context.Context, connID string) {
	h.mu.Lock()
	userID, last := h.removeLocked(connID)
	h.mu.Unlock()
	if last {
		h.userOffline(ctx, userID)
	}
}

// DisconnectUser unregisters every connection of userID.
func (h *Hub) DisconnectUser(ctx context.Context, userID string) {
	h.mu.Lock()
	removed := false
	for id, c := range h.conns {
		if c.userID == userID {
			_, last := h.removeLocked(id)
			removed = removed || last
		}
	}
	h.mu.Unlock()
	if removed {
		h.userOffline(ctx, userID)
	}
}

// removeLocked drops connID and reports whether it was its user's last local connection.
func (h *Hub) removeLocked(connID string) (string, bool) {
	c, ok := h.conns[connID]
	if !ok {
		return "", false
	}
	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.conns, connID)
	close(c.send)

	h.users[c.userID]--
	if h.users[c.userID] > 0 {
		return c.userID, false
	}
	delete(h.users, c.userID)
	return c.userID, true
}

func (h *Hub) userOffline(ctx context.Context, userID string) {
	if err := h.presence.Offline(ctx, userID); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("presence offline")
	}
	h.broadcastCount(ctx)
}

// JoinPod subscribes a connection to a pod room and announces it to the room.
func (h *Hub) JoinPod(connID string, podID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := podRoom(podID)
	c, err := h.joinLocked(connID, room)
	if err != nil {
		return err
	}
	h.publishLocked(room, domain.Event{Type: EventMemberJoined, Payload: memberJoinedPayload{
		Username: c.username,
		Message:  c.username + " joined the pod",
	}})
	return nil
}

// JoinBattle subscribes a connection to a battle's updates. Joining twice is a no-op.
func (h *Hub) JoinBattle(connID, battleID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.joinLocked(connID, battleRoom(battleID))
	return err
}

// PublishBattle sends the battle's score to every connection watching it.
func (h *Hub) PublishBattle(battleID string, update domain.BattleUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.publishLocked(battleRoom(battleID), domain.Event{Type: EventBattleUpdate, Payload: update})
}

func (h *Hub) joinLocked(connID, room string) (*client, error) {
	c, ok := h.conns[connID]
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*client)
		h.rooms[room] = members
	}
	members[connID] = c
	c.rooms[room] = struct{}{}
	return c, nil
}

// InPod reports whether the connection has joined the pod room.
func (h *Hub) InPod(connID string, podID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	if !ok {
		return false
	}
	_, ok = c.rooms[podRoom(podID)]
	return ok
}

// PublishMessage fans a chat message out to the pod room.
func (h *Hub) PublishMessage(msg domain.PodMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.publishLocked(podRoom(msg.PodID), domain.Event{Type: EventNewMessage, Payload: msg})
}

// Broadcast sends ev to every connection.
func (h *Hub) Broadcast(ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		deliver(c.send, ev)
	}
}

// SendError reports a failure to a single connection.
func (h *Hub) SendError(connID, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.conns[connID]; ok {
		deliver(c.send, domain.Event{Type: EventError, Payload: errorPayload{Message: message}})
	}
}

// OnlineCount is the number of distinct online users.
func (h *Hub) OnlineCount(ctx context.Context) (int, error) {
	return h.presence.Count(ctx)
}

// LocalUsers returns the users with at least one connection on this instance.
func (h *Hub) LocalUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.users))
	for id := range h.users {
		out = append(out, id)
	}
	return out
}

// Heartbeat refreshes presence for every locally connected user.
func (h *Hub) Heartbeat(ctx context.Context) error {
	for _, id := range h.LocalUsers() {
		if err := h.presence.Online(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) publishLocked(room string, ev domain.Event) {
	for _, c := range h.rooms[room] {
		deliver(c.send, ev)
	}
}

// broadcastCount reads the count without holding h.mu.
func (h *Hub) broadcastCount(ctx context.Context) {
	count, err := h.presence.Count(ctx)
	if err != nil {
		h.log.WithError(err).Warn("presence count")
		return
	}
	ev := domain.Event{Type: EventOnlineUsers, Payload: onlinePayload{Count: count}}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		deliver(c.send, ev)
	}
}

// deliver never blocks: when the buffer is full the oldest event is dropped.
func deliver(ch chan domain.Event, ev domain.Event) {
	select {
	case ch <- ev:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

func podRoom(podID int64) string {
	return "pod:" + strconv.FormatInt(podID, 10)
}

func battleRoom(battleID string) string {
	return "battle:" + battleID
}
