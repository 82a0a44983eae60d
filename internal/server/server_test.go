package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OCharnyshevich/planet-generator/internal/config"
	"github.com/OCharnyshevich/planet-generator/internal/planet/mesh"
	"github.com/OCharnyshevich/planet-generator/internal/storage"
	"github.com/OCharnyshevich/planet-generator/internal/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	store, err := storage.New(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Seed = 42
	cfg.MaxDivisions = 64
	cfg.DefaultSpec = mesh.Spec{Radius: 100, Divisions: 8, Wavelength: 50, Amplitude: 10, Oceans: 2, Mountains: 2}

	s := New(cfg, store, discardLogger())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("GET /healthz = %d %q, want 200 \"ok\"", resp.StatusCode, body)
	}
}

func TestKernels(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/kernels", "")

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]bool{"gradient": false, "opensimplex": false, "perlin": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, seen := range want {
		if !seen {
			t.Errorf("kernel %q missing from %v", n, names)
		}
	}
}

func TestPresets(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/presets", "")
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("empty store lists %s, want []", body)
	}

	spec := `{"radius":50,"divisions":12,"wavelength":20,"amplitude":4,"offset":0,"oceans":2,"mountains":3}`
	if resp := do(t, http.MethodPut, ts.URL+"/presets/moon", spec); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT /presets/moon = %d, want 204", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/presets/moon", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /presets/moon = %d, want 200", resp.StatusCode)
	}
	var got mesh.Spec
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Radius != 50 || got.Divisions != 12 || got.Mountains != 3 {
		t.Errorf("preset = %+v", got)
	}

	resp = do(t, http.MethodGet, ts.URL+"/presets", "")
	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) != 1 || names[0] != "moon" {
		t.Errorf("presets = %v, want [moon]", names)
	}
}

func TestPresetErrors(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing", http.MethodGet, "/presets/nope", "", http.StatusNotFound},
		{"bad_name", http.MethodGet, "/presets/bad.name", "", http.StatusBadRequest},
		{"malformed_json", http.MethodPut, "/presets/x", "{", http.StatusBadRequest},
		{"empty_body", http.MethodPut, "/presets/x", "", http.StatusBadRequest},
		{"unknown_field", http.MethodPut, "/presets/x", `{"radius":1,"divisions":8,"colour":"red"}`, http.StatusBadRequest},
		{"invalid_spec", http.MethodPut, "/presets/x", `{"radius":100,"divisions":2}`, http.StatusBadRequest},
		{"too_many_divisions", http.MethodPut, "/presets/x", `{"radius":100,"divisions":1000}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.status)
			}
		})
	}
}

func TestPlanet(t *testing.T) {
	_, ts := newTestServer(t)

	spec := `{"radius":100,"divisions":8,"wavelength":50,"amplitude":10,"offset":0,"oceans":2,"mountains":2}`
	resp := do(t, http.MethodPost, ts.URL+"/planet?seed=7&kernel=opensimplex", spec)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /planet = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	h, b, err := wire.ReadMesh(resp.Body)
	if err != nil {
		t.Fatalf("ReadMesh: %v", err)
	}
	if h.Seed != 7 || h.Kernel != "opensimplex" || h.Radius != 100 {
		t.Errorf("header = %+v", h)
	}
	if len(b.Vertices) != 96 || len(b.Triangles) != 108 || len(b.Normals) != 96 {
		t.Errorf("mesh has %d vertices, %d indices, %d normals", len(b.Vertices), len(b.Triangles), len(b.Normals))
	}
}

func TestPlanetDefaults(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.store.SavePreset("tiny", mesh.Spec{Radius: 10, Divisions: 6, Oceans: 1, Mountains: 1}); err != nil {
		t.Fatalf("SavePreset: %v", err)
	}

	tests := []struct {
		name     string
		query    string
		vertices int
		seed     int64
	}{
		{"default_spec", "", 96, 42},
		{"preset", "?preset=tiny&seed=3", 54, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/planet"+tt.query, "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			h, b, err := wire.ReadMesh(resp.Body)
			if err != nil {
				t.Fatalf("ReadMesh: %v", err)
			}
			if len(b.Vertices) != tt.vertices {
				t.Errorf("%d vertices, want %d", len(b.Vertices), tt.vertices)
			}
			if h.Seed != tt.seed || h.Kernel != "gradient" {
				t.Errorf("header = %+v", h)
			}
		})
	}
}

func TestPlanetErrors(t *testing.T) {
	_, ts := newTestServer(t)
	valid := `{"radius":100,"divisions":8}`

	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"bad_seed", "?seed=abc", valid, http.StatusBadRequest},
		{"unknown_kernel", "?kernel=voronoi", valid, http.StatusBadRequest},
		{"divisions_2", "", `{"radius":100,"divisions":2}`, http.StatusBadRequest},
		{"radius_zero", "", `{"radius":0,"divisions":8}`, http.StatusBadRequest},
		{"over_limit", "", `{"radius":100,"divisions":65}`, http.StatusBadRequest},
		{"missing_preset", "?preset=ghost", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/planet"+tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var msg errorMessage
			if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if msg.Type != "error" || msg.Error == "" {
				t.Errorf("error body = %+v", msg)
			}
		})
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocket(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	if err := conn.WriteJSON(map[string]any{
		"spec": map[string]any{"radius": 100, "divisions": 10, "wavelength": 50, "amplitude": 10, "oceans": 2, "mountains": 2},
		"seed": 5,
	}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if typ != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", typ)
	}
	h, b, err := wire.ReadMesh(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadMesh: %v", err)
	}
	if h.Seed != 5 || len(b.Vertices) != 150 {
		t.Errorf("seed %d, %d vertices; want 5, 150", h.Seed, len(b.Vertices))
	}

	// Errors come back as JSON and keep the connection open.
	if err := conn.WriteJSON(map[string]any{"spec": map[string]any{"radius": 100, "divisions": 2}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	typ, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if typ != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", typ)
	}
	var msg errorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "error" || !strings.Contains(msg.Error, "invalid configuration") {
		t.Errorf("error message = %+v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if _, data, err = conn.ReadMessage(); err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "error" {
		t.Errorf("malformed request reply = %s", data)
	}

	if err := conn.WriteJSON(map[string]any{}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if typ, _, err = conn.ReadMessage(); err != nil || typ != websocket.BinaryMessage {
		t.Errorf("default request reply type = %d, err = %v", typ, err)
	}
}

func TestServeShutdown(t *testing.T) {
	store, err := storage.New(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	s := New(config.DefaultConfig(), store, discardLogger())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestDivisionLimitNeverUnlimited(t *testing.T) {
	s, ts := newTestServer(t)
	s.cfg.MaxDivisions = 0

	body := fmt.Sprintf(`{"radius":100,"divisions":%d}`, config.DefaultMaxDivisions+2)
	resp := do(t, http.MethodPost, ts.URL+"/planet", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	huge := mesh.Spec{Radius: 100, Divisions: math.MaxInt}
	if err := s.checkLimits(huge); !errors.Is(err, mesh.ErrInvalidConfiguration) {
		t.Errorf("checkLimits(MaxInt divisions) = %v, want ErrInvalidConfiguration", err)
	}
}
