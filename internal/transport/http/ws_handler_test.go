package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

func TestWebSocketPodFlow(t *testing.T) {
	srv := newTestServer(t)
	client := srv.newClient(t)
	srv.register(t, client, "nova")

	status, body := srv.call(t, client, http.MethodPost, "/api/pods", map[string]any{"name": "Rocketeers"})
	if status != http.StatusCreated {
		t.Fatalf("create pod: %d %v", status, body)
	}
	podID := int64(body["pod"].(map[string]any)["id"].(float64))

	conn := dial(t, srv, client)
	defer conn.Close()

	readNext(conn, t, "connected")
	_, payload := readNext(conn, t, "online_users_update")
	if payload["count"].(float64) != 1 {
		t.Fatalf("expected 1 online, got %v", payload["count"])
	}

	// Posting before joining the room is rejected.
	send(t, conn, "pod_message", map[string]any{"podId": podID, "message": "hello"})
	_, payload = readNext(conn, t, "error")
	if payload["message"] != "join the pod before posting" {
		t.Fatalf("unexpected error %v", payload)
	}

	send(t, conn, "join_pod", map[string]any{"podId": podID})
	_, payload = readNext(conn, t, "member_joined")
	if payload["message"] != "nova joined the pod" {
		t.Fatalf("unexpected join payload %v", payload)
	}

	// Blank messages are dropped without a reply.
	send(t, conn, "pod_message", map[string]any{"podId": podID, "message": "   "})
	send(t, conn, "pod_message", map[string]any{"podId": podID, "message": " to the moon "})
	_, payload = readNext(conn, t, "new_message")
	if payload["message"] != "to the moon" || payload["username"] != "nova" {
		t.Fatalf("unexpected message %v", payload)
	}
	if payload["timestamp"] == nil {
		t.Fatalf("message without timestamp: %v", payload)
	}

	send(t, conn, "join_pod", map[string]any{"podId": 999})
	_, payload = readNext(conn, t, "error")
	if payload["message"] != "pod not found: 999" {
		t.Fatalf("unexpected error %v", payload)
	}

	send(t, conn, "dance", nil)
	readNext(conn, t, "error")
}

func TestWebSocketBroadcastsToPodMembers(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.newClient(t)
	bob := srv.newClient(t)
	srv.register(t, alice, "alice")
	srv.register(t, bob, "bob")

	_, body := srv.call(t, alice, http.MethodPost, "/api/pods", map[string]any{"name": "Comets"})
	podID := int64(body["pod"].(map[string]any)["id"].(float64))

	a := dial(t, srv, alice)
	defer a.Close()
	readNext(a, t, "connected")
	readNext(a, t, "online_users_update")

	b := dial(t, srv, bob)
	defer b.Close()
	readNext(b, t, "connected")
	readNext(b, t, "online_users_update")
	_, payload := readNext(a, t, "online_users_update")
	if payload["count"].(float64) != 2 {
		t.Fatalf("expected 2 online, got %v", payload["count"])
	}

	send(t, a, "join_pod", map[string]any{"podId": podID})
	readNext(a, t, "member_joined")
	send(t, b, "join_pod", map[string]any{"podId": podID})
	readNext(b, t, "member_joined")
	readNext(a, t, "member_joined")

	send(t, b, "pod_message", map[string]any{"podId": podID, "message": "hi alice"})
	_, payload = readNext(a, t, "new_message")
	if payload["username"] != "bob" || payload["message"] != "hi alice" {
		t.Fatalf("unexpected message %v", payload)
	}
	readNext(b, t, "new_message")

	// Logging out closes bob's socket and lowers the count.
	if status, _ := srv.call(t, bob, http.MethodPost, "/api/logout", nil); status != http.StatusOK {
		t.Fatalf("logout: %d", status)
	}
	_, payload = readNext(a, t, "online_users_update")
	if payload["count"].(float64) != 1 {
		t.Fatalf("expected 1 online after logout, got %v", payload["count"])
	}
	_ = b.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := b.ReadMessage(); err != nil {
			break
		}
	}
}

func TestWebSocketBattleMoves(t *testing.T) {
	srv := newTestServer(t)
	client := srv.newClient(t)
	srv.register(t, client, "nova")
	qid := srv.seedQuestion(t, domain.Question{
		Subject: "math", Difficulty: 1, Type: "short_answer", Prompt: "2 + 2", CorrectAnswer: "4",
	})

	_, body := srv.call(t, client, http.MethodPost, "/api/find-battle", nil)
	battleID := body["battleId"].(string)

	conn := dial(t, srv, client)
	defer conn.Close()
	readNext(conn, t, "connected")
	readNext(conn, t, "online_users_update")

	send(t, conn, "battle_move", map[string]any{"battleId": battleID, "questionId": qid, "answer": " 4 "})
	_, payload := readNext(conn, t, "battle_update")
	if payload["userScore"].(float64) != 10 || payload["currentQuestion"].(float64) != 1 || payload["correct"] != true {
		t.Fatalf("unexpected update %v", payload)
	}

	send(t, conn, "battle_move", map[string]any{"battleId": battleID, "questionId": qid, "answer": "5"})
	_, payload = readNext(conn, t, "battle_update")
	if payload["opponentScore"].(float64) != 10 || payload["correct"] != false {
		t.Fatalf("unexpected update %v", payload)
	}

	send(t, conn, "battle_move", map[string]any{"battleId": "battle_nope"})
	_, payload = readNext(conn, t, "error")
	if payload["message"] != "battle not found: battle_nope" {
		t.Fatalf("unexpected error %v", payload)
	}

	// Another user cannot move in someone else's battle.
	other := srv.newClient(t)
	srv.register(t, other, "orion")
	oc := dial(t, srv, other)
	defer oc.Close()
	readNext(oc, t, "connected")
	readNext(oc, t, "online_users_update")
	send(t, oc, "battle_move", map[string]any{"battleId": battleID})
	readNext(oc, t, "error")
}

func TestWebSocketRequiresSession(t *testing.T) {
	srv := newTestServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a session")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func wsURL(srv *testServer) string {
	return "ws" + srv.URL[len("http"):] + "/ws"
}

func dial(t *testing.T, srv *testServer, client *http.Client) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{Jar: client.Jar, HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}
