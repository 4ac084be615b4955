package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"eyespy/internal/rooms"
	"eyespy/internal/users"

	"github.com/coder/websocket"
)

func dialWS(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func readSnapshot(t *testing.T, ctx context.Context, conn *websocket.Conn) rooms.Snapshot {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var snap rooms.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	return snap
}

func TestDecodeUpdate(t *testing.T) {
	u, err := decodeUpdate([]byte(`{"name":"Alice","device_id":"d1","is_cheating":false,"gaze":{"x":0.4,"y":-0.2}}`))
	if err != nil {
		t.Fatal(err)
	}
	if u.Name != "Alice" || u.DeviceID != "d1" || u.IsCheating {
		t.Errorf("decoded user = %+v", u)
	}
	if u.Gaze.X != 0.4 || u.Gaze.Y != -0.2 {
		t.Errorf("gaze = %+v, want {0.4 -0.2}", u.Gaze)
	}
}

func TestDecodeUpdate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing device_id", `{"name":"Alice","is_cheating":false,"gaze":{"x":0,"y":0}}`},
		{"empty device_id", `{"name":"Alice","device_id":"","is_cheating":false,"gaze":{"x":0,"y":0}}`},
		{"missing gaze", `{"name":"Alice","device_id":"d1","is_cheating":false}`},
		{"unknown field", `{"name":"Alice","device_id":"d1","is_cheating":false,"gaze":{"x":0,"y":0},"score":4}`},
		{"mistyped field", `{"name":"Alice","device_id":"d1","is_cheating":"yes","gaze":{"x":0,"y":0}}`},
		{"mistyped gaze", `{"name":"Alice","device_id":"d1","is_cheating":false,"gaze":"up"}`},
		{"not json", `not json at all`},
		{"trailing data", `{"name":"A","device_id":"d1","is_cheating":false,"gaze":{"x":0,"y":0}} {}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeUpdate([]byte(tc.data)); !errors.Is(err, errProtocol) {
				t.Errorf("err = %v, want protocol error", err)
			}
		})
	}
}

func TestClientAndConsoleRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	snap := createRoom(t, ts.URL)
	code := snap.Code

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")

	console := dialWS(t, ctx, wsBase+"/ws/rooms/"+code+"/console")
	defer console.CloseNow()

	// Snapshot on attach, before any client connects
	got := readSnapshot(t, ctx, console)
	if got.Code != code {
		t.Errorf("attach snapshot code = %q, want %q", got.Code, code)
	}
	if len(got.Users) != 0 {
		t.Errorf("attach snapshot users = %v, want empty", got.Users)
	}

	client := dialWS(t, ctx, wsBase+"/ws/rooms/"+code+"/client")
	defer client.CloseNow()

	update := users.User{
		Name:       "Alice",
		DeviceID:   "d1",
		IsCheating: false,
		Gaze:       users.Vector{X: 0.25, Y: 0.75},
	}
	data, _ := json.Marshal(update)
	if err := client.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatal(err)
	}

	got = readSnapshot(t, ctx, console)
	if len(got.Users) != 1 {
		t.Fatalf("users = %v, want 1 entry", got.Users)
	}
	if u := got.Users["d1"]; u.Name != "Alice" || u.Gaze.Y != 0.75 {
		t.Errorf("users[d1] = %+v", u)
	}

	// Client disconnect removes the device and broadcasts the empty room
	if err := client.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatal(err)
	}

	got = readSnapshot(t, ctx, console)
	if len(got.Users) != 0 {
		t.Errorf("after disconnect users = %v, want empty", got.Users)
	}
}

func TestConsole_UnknownRoomRefused(t *testing.T) {
	srv, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")
	_, resp, err := websocket.Dial(ctx, wsBase+"/ws/rooms/ZZZZZZZ/console", nil)
	if err == nil {
		t.Fatal("dial to unknown room should fail")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Errorf("expected 404 refusal, got %+v", resp)
	}

	// Refusal must not create the room as a side effect
	if srv.Rooms.Get("ZZZZZZZ") != nil {
		t.Error("unknown room should not be created by an observer connect")
	}
}

func TestClient_UnknownRoomRefused(t *testing.T) {
	_, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")
	_, resp, err := websocket.Dial(ctx, wsBase+"/ws/rooms/ZZZZZZZ/client", nil)
	if err == nil {
		t.Fatal("dial to unknown room should fail")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Errorf("expected 404 refusal, got %+v", resp)
	}
}

func TestClient_MalformedUpdateTerminates(t *testing.T) {
	srv, ts := newTestServer(t)
	snap := createRoom(t, ts.URL)
	code := snap.Code

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")

	console := dialWS(t, ctx, wsBase+"/ws/rooms/"+code+"/console")
	defer console.CloseNow()
	readSnapshot(t, ctx, console) // attach snapshot

	client := dialWS(t, ctx, wsBase+"/ws/rooms/"+code+"/client")
	defer client.CloseNow()

	bad := `{"name":"Eve"}`
	if err := client.Write(ctx, websocket.MessageText, []byte(bad)); err != nil {
		t.Fatal(err)
	}

	// Server closes the connection with a policy violation
	_, _, err := client.Read(ctx)
	if err == nil {
		t.Fatal("expected the connection to be closed")
	}
	if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
		t.Errorf("close status = %v, want %v", status, websocket.StatusPolicyViolation)
	}

	// Room state unchanged, and no broadcast fired
	room := srv.Rooms.Get(code)
	if room.Users.Count() != 0 {
		t.Error("malformed update must not mutate room state")
	}

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer shortCancel()
	if _, _, err := console.Read(shortCtx); err == nil {
		t.Error("no broadcast should fire after a malformed update")
	}
}
