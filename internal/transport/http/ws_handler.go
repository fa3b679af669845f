package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
	"github.com/idfuturestars/StarGuideAI/internal/relay"
)

const (
	writeWait     = 10 * time.Second
	maxMessageLen = 4096
)

// Inbound message types.
const (
	msgJoinPod    = "join_pod"
	msgPodMessage = "pod_message"
	msgBattleMove = "battle_move"
)

type WSHandler struct {
	hub      *relay.Hub
	pods     *app.PodService
	battles  *app.BattleService
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *relay.Hub, pods *app.PodService, battles *app.BattleService, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		hub:     hub,
		pods:    pods,
		battles: battles,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPodPayload struct {
	PodID int64 `json:"podId"`
}

type podMessagePayload struct {
	PodID   int64  `json:"podId"`
	Message string `json:"message"`
}

type battleMovePayload struct {
	BattleID   string `json:"battleId"`
	QuestionID int64  `json:"questionId"`
	Answer     string `json:"answer"`
}

// ServeWS upgrades an authenticated request and relays hub events to it.
// Every frame goes through the hub, so the writer goroutine is the only
// writer on the connection.
func (h *WSHandler) ServeWS(c echo.Context) error {
	user := currentUser(c)
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageLen)

	ctx := context.WithoutCancel(c.Request().Context())
	sub, err := h.hub.Register(ctx, user.ID, user.Username)
	if err != nil {
		h.log.WithError(err).WithField("user_id", user.ID).Error("register connection")
		_ = conn.WriteJSON(domain.Event{Type: relay.EventError, Payload: map[string]string{"message": internalErrorMessage}})
		return nil
	}
	log := h.log.WithFields(logrus.Fields{"conn_id": sub.ID, "user_id": user.ID})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range sub.Events {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.WithError(err).Debug("ws write error")
				// Unblock the reader; the hub closes Events on unregister.
				_ = conn.Close()
				for range sub.Events {
				}
				return
			}
		}
		// Events closed by the hub (unregister or logout).
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handle(ctx, sub, inbound)
	}

	h.hub.Unregister(ctx, sub.ID)
	<-writerDone
	return nil
}

func (h *WSHandler) handle(ctx context.Context, sub *relay.Subscription, inbound inboundMessage) {
	switch inbound.Type {
	case msgJoinPod:
		var payload joinPodPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.PodID == 0 {
			h.hub.SendError(sub.ID, "invalid join_pod payload")
			return
		}
		if err := h.pods.Join(ctx, payload.PodID, sub.UserID); err != nil {
			h.reportError(sub, err)
			return
		}
		if err := h.hub.JoinPod(sub.ID, payload.PodID); err != nil {
			h.reportError(sub, err)
		}
	case msgPodMessage:
		var payload podMessagePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.hub.SendError(sub.ID, "invalid pod_message payload")
			return
		}
		if !h.hub.InPod(sub.ID, payload.PodID) {
			h.hub.SendError(sub.ID, "join the pod before posting")
			return
		}
		msg, err := h.pods.Post(ctx, domain.PodMessage{
			PodID:    payload.PodID,
			UserID:   sub.UserID,
			Username: sub.Username,
			Message:  payload.Message,
		})
		if errors.Is(err, domain.ErrInvalidRequest) {
			return
		}
		if err != nil {
			h.reportError(sub, err)
			return
		}
		h.hub.PublishMessage(msg)
	case msgBattleMove:
		var payload battleMovePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.BattleID == "" {
			h.hub.SendError(sub.ID, "invalid battle_move payload")
			return
		}
		update, err := h.battles.Move(ctx, sub.UserID, payload.BattleID, payload.QuestionID, payload.Answer)
		if err != nil {
			h.reportError(sub, err)
			return
		}
		if err := h.hub.JoinBattle(sub.ID, payload.BattleID); err != nil {
			h.reportError(sub, err)
			return
		}
		h.hub.PublishBattle(payload.BattleID, update)
	default:
		h.hub.SendError(sub.ID, "unsupported message type")
	}
}

func (h *WSHandler) reportError(sub *relay.Subscription, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.log.WithError(err).WithField("conn_id", sub.ID).Error("ws request failed")
	}
	h.hub.SendError(sub.ID, clientMessage(err))
}
