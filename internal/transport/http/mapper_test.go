package http

import (
	"encoding/json"
	"testing"

	"github.com/boardsync/boardsync-server/internal/core"
	"github.com/boardsync/boardsync-server/internal/proto"
)

func TestInboundToCommand(t *testing.T) {
	cmd, protoErr, err := inboundToCommand(proto.Inbound{
		Type: proto.InboundTypeJoinRoom,
		Data: json.RawMessage(`{"roomId":"sketch","password":"pw"}`),
	})
	if err != nil || protoErr != nil {
		t.Fatalf("join mapping failed: %v %v", protoErr, err)
	}
	if cmd.Kind != core.CommandJoinRoom || cmd.Room != "sketch" || cmd.Password != "pw" {
		t.Fatalf("unexpected join command: %+v", cmd)
	}

	cmd, protoErr, err = inboundToCommand(proto.Inbound{
		Type: proto.InboundTypeDrawingUpdate,
		Data: json.RawMessage(`{"roomId":"sketch","element":{"id":"e1","data":{"w":5}},"saveToDb":true}`),
	})
	if err != nil || protoErr != nil {
		t.Fatalf("drawing mapping failed: %v %v", protoErr, err)
	}
	if cmd.Kind != core.CommandDrawingUpdate || cmd.Element.ID != "e1" || !cmd.Persist {
		t.Fatalf("unexpected drawing command: %+v", cmd)
	}

	cmd, protoErr, err = inboundToCommand(proto.Inbound{
		Type: proto.InboundTypeRequestLock,
		Data: json.RawMessage(`{"roomId":"sketch","objectId":"e1"}`),
	})
	if err != nil || protoErr != nil {
		t.Fatalf("lock mapping failed: %v %v", protoErr, err)
	}
	if cmd.Kind != core.CommandRequestLock || cmd.ObjectID != "e1" {
		t.Fatalf("unexpected lock command: %+v", cmd)
	}

	cmd, protoErr, err = inboundToCommand(proto.Inbound{
		Type: proto.InboundTypeBanParticipant,
		Data: json.RawMessage(`{"roomId":"sketch","targetUserId":"troll"}`),
	})
	if err != nil || protoErr != nil {
		t.Fatalf("ban mapping failed: %v %v", protoErr, err)
	}
	if cmd.Kind != core.CommandBanParticipant || cmd.TargetID != "troll" {
		t.Fatalf("unexpected ban command: %+v", cmd)
	}
}

func TestInboundValidation(t *testing.T) {
	cases := []struct {
		name    string
		inbound proto.Inbound
	}{
		{"join without room", proto.Inbound{Type: proto.InboundTypeJoinRoom, Data: json.RawMessage(`{}`)}},
		{"drawing without element id", proto.Inbound{Type: proto.InboundTypeDrawingUpdate, Data: json.RawMessage(`{"roomId":"r","element":{}}`)}},
		{"lock without object", proto.Inbound{Type: proto.InboundTypeRequestLock, Data: json.RawMessage(`{"roomId":"r"}`)}},
		{"kick without target", proto.Inbound{Type: proto.InboundTypeKickParticipant, Data: json.RawMessage(`{"roomId":"r"}`)}},
		{"unknown type", proto.Inbound{Type: "telepathy", Data: json.RawMessage(`{}`)}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			cmd, protoErr, err := inboundToCommand(tt.inbound)
			if err != nil {
				t.Fatalf("unexpected transport error: %v", err)
			}
			if cmd != nil || protoErr == nil {
				t.Fatalf("expected protocol error, got cmd=%+v err=%+v", cmd, protoErr)
			}
		})
	}
}

func TestOutboundFromEvent(t *testing.T) {
	out := outboundFromEvent(&core.Event{
		Kind: core.EventLockDenied, Room: "sketch", ObjectID: "e1", HolderID: "alice",
	})
	if out.Type != proto.OutboundTypeLockDenied {
		t.Fatalf("unexpected type: %s", out.Type)
	}
	denied, ok := out.Data.(proto.EventLockDenied)
	if !ok || denied.ObjectID != "e1" || denied.LockedBy != "alice" {
		t.Fatalf("unexpected payload: %+v", out.Data)
	}

	out = outboundFromEvent(&core.Event{
		Kind: core.EventError,
		Error: &core.CoreError{
			Code: core.ErrCodeLockConflict, Message: "object is locked",
		},
	})
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeLockConflict {
		t.Fatalf("unexpected error envelope: %+v", out)
	}

	out = outboundFromEvent(&core.Event{
		Kind: core.EventRoomState,
		Snapshot: &core.Snapshot{
			Room:        core.RoomInfo{ID: "sketch"},
			Roster:      []core.RosterEntry{{UserID: "u1", Name: "alice", Role: core.RoleOwner}},
			DrawingData: []core.Element{{ID: "e1", Data: json.RawMessage(`{}`)}},
			ActiveLocks: map[string]string{"e1": "u1"},
		},
	})
	state, ok := out.Data.(proto.RoomStateData)
	if !ok || len(state.Users) != 1 || len(state.DrawingData) != 1 || state.ActiveLocks["e1"] != "u1" {
		t.Fatalf("unexpected room state: %+v", out.Data)
	}
}
