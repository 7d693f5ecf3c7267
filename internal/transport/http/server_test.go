package http

import (
	"encoding/json"
	stdhttp "net/http"
	"testing"
)

func TestHeartbeat(t *testing.T) {
	stack := startTestServer(t)

	resp, err := stdhttp.Get(stack.ts.URL + "/heartbeat")
	if err != nil {
		t.Fatalf("heartbeat request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode heartbeat body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("heartbeat body = %v", body)
	}
}

func TestUnknownRouteWithoutStaticDir(t *testing.T) {
	stack := startTestServer(t)

	resp, err := stdhttp.Get(stack.ts.URL + "/nope")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
