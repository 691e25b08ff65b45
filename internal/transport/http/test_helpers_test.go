package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/duochat/internal/auth"
	"github.com/vovakirdan/duochat/internal/config"
	"github.com/vovakirdan/duochat/internal/core"
	"github.com/vovakirdan/duochat/internal/log"
	"github.com/vovakirdan/duochat/internal/proto"
	"github.com/vovakirdan/duochat/internal/service/messages"
	"github.com/vovakirdan/duochat/internal/store/sqlite"
)

// outboundFrame mirrors proto.Outbound with raw data for test-side decoding.
type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := log.New("error", false)
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "duochat",
		Audience: "duochat-clients",
		TTL:      time.Hour,
	})

	hub := core.NewHub(logger, 0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	msgService := messages.New(st, hub)
	server := NewServer(hub, authService, msgService, config.Config{
		Addr:               ":0",
		ReadHeaderTimeout:  time.Second,
		WSMessageRateLimit: 0,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func registerUser(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()

	raw, status := postJSON(t, ts, "", "/api/register", RegisterRequest{
		Username: username,
		Password: password,
	})
	if status != stdhttp.StatusCreated {
		t.Fatalf("register %s: status %d", username, status)
	}
	var resp AuthResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	return resp.Token
}

func postJSON(t *testing.T, ts *httptest.Server, token, path string, body any) ([]byte, int) {
	t.Helper()
	return doJSON(t, ts, stdhttp.MethodPost, token, path, body)
}

func doJSON(t *testing.T, ts *httptest.Server, method, token, path string, body any) ([]byte, int) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := stdhttp.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return raw, resp.StatusCode
}

func dialTestWS(t *testing.T, ctx context.Context, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// readEvent drains frames until one with the wanted event name arrives.
// Presence snapshots interleave with every registry change, so tests must
// never assume frame positions.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) outboundFrame {
	t.Helper()

	deadline, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for {
		var f outboundFrame
		if err := wsjson.Read(deadline, conn, &f); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if f.Event == event {
			return f
		}
	}
}
