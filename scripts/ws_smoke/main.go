package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/boardsync/boardsync-server/internal/proto"
)

// Connects as a guest, joins a room, draws one rectangle and waits for
// the room-state snapshot. Exits non-zero on any protocol failure.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	name := flag.String("name", "smoke-tester", "guest display name")
	room := flag.String("room", "smoke-room", "room id to join")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := guestToken(ctx, *base, *name)
	if err != nil {
		return fmt.Errorf("guest login: %w", err)
	}

	wsURL := "ws" + (*base)[len("http"):] + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msgType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", msgType, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoinRoom, proto.JoinRoomData{RoomID: *room}); err != nil {
		return err
	}

	var outbound proto.Outbound
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if outbound.Type != proto.OutboundTypeRoomState {
		return fmt.Errorf("expected room-state, got %s", outbound.Type)
	}
	fmt.Printf("joined %s, snapshot received\n", *room)

	if err := send(proto.InboundTypeDrawingUpdate, proto.DrawingUpdateData{
		RoomID: *room,
		Element: proto.ElementData{
			ID:   "smoke-rect",
			Data: json.RawMessage(`{"kind":"rect","x":10,"y":10,"w":40,"h":20}`),
		},
		SaveToDB: true,
	}); err != nil {
		return err
	}

	fmt.Println("drawing update sent, smoke test passed")
	return nil
}

func guestToken(ctx context.Context, base, name string) (string, error) {
	body, _ := json.Marshal(map[string]string{"displayName": name})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/guest", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", err
	}
	return auth.Token, nil
}
