package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/boardsync/boardsync-server/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWSRejectsMissingToken(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/ws")
	if err != nil {
		t.Fatalf("ws request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func dialWS(t *testing.T, ctx context.Context, ts string, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Outbound {
	t.Helper()

	var outbound proto.Outbound
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return outbound
}

func TestWebSocketJoinAndDrawingBroadcast(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tokenA, _, err := authService.GuestLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("guest login A: %v", err)
	}
	tokenB, _, err := authService.GuestLogin(ctx, "bob")
	if err != nil {
		t.Fatalf("guest login B: %v", err)
	}

	connA := dialWS(t, ctx, ts.URL, tokenA)
	connB := dialWS(t, ctx, ts.URL, tokenB)

	send := func(conn *websocket.Conn, msgType string, data any) {
		payload, _ := json.Marshal(data)
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
			t.Fatalf("send %s: %v", msgType, err)
		}
	}

	send(connA, proto.InboundTypeJoinRoom, proto.JoinRoomData{RoomID: "sketch"})
	outbound := readOutbound(t, ctx, connA)
	if outbound.Type != proto.OutboundTypeRoomState {
		t.Fatalf("expected room-state for A, got %s", outbound.Type)
	}

	send(connB, proto.InboundTypeJoinRoom, proto.JoinRoomData{RoomID: "sketch"})
	outbound = readOutbound(t, ctx, connB)
	if outbound.Type != proto.OutboundTypeRoomState {
		t.Fatalf("expected room-state for B, got %s", outbound.Type)
	}

	// A sees B join.
	outbound = readOutbound(t, ctx, connA)
	if outbound.Type != proto.OutboundTypeUserJoined {
		t.Fatalf("expected user-joined for A, got %s", outbound.Type)
	}

	send(connA, proto.InboundTypeDrawingUpdate, proto.DrawingUpdateData{
		RoomID: "sketch",
		Element: proto.ElementData{
			ID:   "rect-1",
			Data: json.RawMessage(`{"kind":"rect","w":10}`),
		},
	})

	outbound = readOutbound(t, ctx, connB)
	if outbound.Type != proto.OutboundTypeDrawingUpdate {
		t.Fatalf("expected drawing-update for B, got %s", outbound.Type)
	}

	raw, _ := json.Marshal(outbound.Data)
	var event proto.EventDrawingUpdate
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("unmarshal event data: %v", err)
	}
	if event.Element.ID != "rect-1" {
		t.Fatalf("unexpected element: %+v", event.Element)
	}
}

func TestWebSocketMalformedMessageGetsError(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, _, err := authService.GuestLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("guest login: %v", err)
	}
	conn := dialWS(t, ctx, ts.URL, token)

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: "no-such-type", Data: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("send: %v", err)
	}

	outbound := readOutbound(t, ctx, conn)
	if outbound.Type != proto.OutboundTypeError || outbound.Error == nil {
		t.Fatalf("expected protocol error, got %+v", outbound)
	}
}
