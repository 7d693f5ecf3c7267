package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ospanenko/chesswire-server/internal/config"
	"github.com/ospanenko/chesswire-server/internal/core"
	"github.com/ospanenko/chesswire-server/internal/limit"
	"github.com/ospanenko/chesswire-server/internal/log"
	"github.com/ospanenko/chesswire-server/internal/proto"
)

// testStack keeps the core components reachable so tests can assert on
// registry and gateway state directly.
type testStack struct {
	ts       *httptest.Server
	registry *core.Registry
	gateway  *limit.Gateway
	limiter  *limit.RateLimiter
}

func startTestServer(t *testing.T, overrides ...func(*config.Config)) *testStack {
	t.Helper()

	cfg := config.Default()
	cfg.ConnLimit = 16
	cfg.RoomsLimit = 2
	cfg.BanLimit = 8
	cfg.AddrConnLimit = 8
	cfg.MaxReqCount = 100
	cfg.RateSweepInterval = 50 * time.Millisecond
	cfg.HTTPRateRPS = 1000
	cfg.HTTPRateBurst = 1000
	for _, o := range overrides {
		o(&cfg)
	}

	logger := log.Discard()

	registry := core.NewRegistry(cfg.ConnLimit, cfg.RoomsLimit)
	gateway := limit.NewGateway(limit.GatewayConfig{
		ConnLimit:     cfg.ConnLimit,
		BanLimit:      cfg.BanLimit,
		AddrConnLimit: cfg.AddrConnLimit,
	}, logger)
	limiter := limit.NewRateLimiter(cfg.MaxReqCount, cfg.RateSweepInterval)
	t.Cleanup(limiter.Stop)

	router := NewRouter(registry, gateway, limiter, logger)
	server := NewServer(router, &cfg, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testStack{ts: ts, registry: registry, gateway: gateway, limiter: limiter}
}

// dialWS opens a websocket connection pretending to come from addr.
func dialWS(t *testing.T, ctx context.Context, stack *testStack, addr string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(stack.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: stdhttp.Header{"X-Forwarded-For": []string{addr}},
	})
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "done")
	})
	return conn
}

func sendEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", event, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: event, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

// rawOutbound mirrors proto.Outbound with the payload left raw so tests can
// decode it per event.
type rawOutbound struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
}

// readFrameOfType reads frames until one with the wanted type arrives.
func readFrameOfType(t *testing.T, ctx context.Context, conn *websocket.Conn, want string) rawOutbound {
	t.Helper()

	for {
		var frame rawOutbound
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read waiting for %s: %v", want, err)
		}
		if frame.Type == want {
			return frame
		}
	}
}

func decodePlayer(t *testing.T, raw json.RawMessage) proto.PlayerInfo {
	t.Helper()

	var info proto.PlayerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatalf("decode player info %s: %v", raw, err)
	}
	return info
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
