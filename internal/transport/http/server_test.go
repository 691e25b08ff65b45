package http

import (
	"encoding/json"
	stdhttp "net/http"
	"testing"

	"github.com/vovakirdan/duochat/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestRegisterLoginAndDuplicate(t *testing.T) {
	ts := startTestServer(t)

	token := registerUser(t, ts, "alice", "secret123")
	if token == "" {
		t.Fatal("expected a token from register")
	}

	_, status := postJSON(t, ts, "", "/api/register", RegisterRequest{Username: "alice", Password: "secret123"})
	if status != stdhttp.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", status)
	}

	raw, status := postJSON(t, ts, "", "/api/login", LoginRequest{Username: "alice", Password: "secret123"})
	if status != stdhttp.StatusOK {
		t.Fatalf("login: expected 200, got %d", status)
	}
	var resp AuthResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response: %v %s", err, raw)
	}

	_, status = postJSON(t, ts, "", "/api/login", LoginRequest{Username: "alice", Password: "wrong-pass"})
	if status != stdhttp.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", status)
	}
}

func TestMessagesRequireAuth(t *testing.T) {
	ts := startTestServer(t)

	_, status := doJSON(t, ts, stdhttp.MethodGet, "", "/api/messages/users", nil)
	if status != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestSidebarExcludesSelf(t *testing.T) {
	ts := startTestServer(t)

	tokenAlice := registerUser(t, ts, "alice", "secret123")
	registerUser(t, ts, "bob", "secret123")

	raw, status := doJSON(t, ts, stdhttp.MethodGet, tokenAlice, "/api/messages/users", nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("sidebar: expected 200, got %d", status)
	}

	var users []proto.UserData
	if err := json.Unmarshal(raw, &users); err != nil {
		t.Fatalf("decode sidebar: %v", err)
	}
	if len(users) != 1 || users[0].Username != "bob" {
		t.Fatalf("expected only bob in alice's sidebar, got %+v", users)
	}
}

func TestSendValidation(t *testing.T) {
	ts := startTestServer(t)

	tokenAlice := registerUser(t, ts, "alice", "secret123")
	registerUser(t, ts, "bob", "secret123")

	// Empty body: no content kind populated.
	_, status := postJSON(t, ts, tokenAlice, "/api/messages/send/2", SendRequest{})
	if status != stdhttp.StatusBadRequest {
		t.Fatalf("empty send: expected 400, got %d", status)
	}

	// Self-send is rejected.
	_, status = postJSON(t, ts, tokenAlice, "/api/messages/send/1", SendRequest{Text: "hi me"})
	if status != stdhttp.StatusBadRequest {
		t.Fatalf("self send: expected 400, got %d", status)
	}

	// Unknown receiver.
	_, status = postJSON(t, ts, tokenAlice, "/api/messages/send/99", SendRequest{Text: "hi"})
	if status != stdhttp.StatusNotFound {
		t.Fatalf("unknown receiver: expected 404, got %d", status)
	}

	raw, status := postJSON(t, ts, tokenAlice, "/api/messages/send/2", SendRequest{Text: "hi bob"})
	if status != stdhttp.StatusCreated {
		t.Fatalf("send: expected 201, got %d: %s", status, raw)
	}
	var msg proto.MessageData
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.ID == "" || msg.Kind != "text" || msg.Text != "hi bob" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestDeleteRequiresSender(t *testing.T) {
	ts := startTestServer(t)

	tokenAlice := registerUser(t, ts, "alice", "secret123")
	tokenBob := registerUser(t, ts, "bob", "secret123")

	raw, _ := postJSON(t, ts, tokenAlice, "/api/messages/send/2", SendRequest{Text: "hi bob"})
	var msg proto.MessageData
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}

	_, status := doJSON(t, ts, stdhttp.MethodDelete, tokenBob, "/api/messages/"+msg.ID, nil)
	if status != stdhttp.StatusForbidden {
		t.Fatalf("receiver delete: expected 403, got %d", status)
	}

	_, status = doJSON(t, ts, stdhttp.MethodDelete, tokenAlice, "/api/messages/"+msg.ID, nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("sender delete: expected 200, got %d", status)
	}

	_, status = doJSON(t, ts, stdhttp.MethodDelete, tokenAlice, "/api/messages/"+msg.ID, nil)
	if status != stdhttp.StatusNotFound {
		t.Fatalf("double delete: expected 404, got %d", status)
	}
}

func TestReactionEndpoints(t *testing.T) {
	ts := startTestServer(t)

	tokenAlice := registerUser(t, ts, "alice", "secret123")
	tokenBob := registerUser(t, ts, "bob", "secret123")

	raw, _ := postJSON(t, ts, tokenAlice, "/api/messages/send/2", SendRequest{Text: "hi bob"})
	var msg proto.MessageData
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}

	raw, status := postJSON(t, ts, tokenBob, "/api/messages/"+msg.ID+"/reactions", ReactionRequest{Emoji: "👍"})
	if status != stdhttp.StatusCreated {
		t.Fatalf("react: expected 201, got %d: %s", status, raw)
	}
	var reactions []proto.ReactionData
	if err := json.Unmarshal(raw, &reactions); err != nil || len(reactions) != 1 {
		t.Fatalf("expected one reaction, got %s (%v)", raw, err)
	}

	// Same emoji twice is a conflict.
	_, status = postJSON(t, ts, tokenBob, "/api/messages/"+msg.ID+"/reactions", ReactionRequest{Emoji: "👍"})
	if status != stdhttp.StatusConflict {
		t.Fatalf("duplicate reaction: expected 409, got %d", status)
	}

	raw, status = doJSON(t, ts, stdhttp.MethodDelete, tokenBob,
		"/api/messages/"+msg.ID+"/reactions/"+reactions[0].ID, nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("unreact: expected 200, got %d: %s", status, raw)
	}
	if err := json.Unmarshal(raw, &reactions); err != nil || len(reactions) != 0 {
		t.Fatalf("expected empty reaction list, got %s (%v)", raw, err)
	}
}
