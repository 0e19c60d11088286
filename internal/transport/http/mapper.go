package http

import (
	"encoding/json"

	"github.com/boardsync/boardsync-server/internal/core"
	"github.com/boardsync/boardsync-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.RoomID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "roomId is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandJoinRoom,
			Room:     join.RoomID,
			Password: join.Password,
		}, nil, nil
	case proto.InboundTypeLeaveRoom:
		var leave proto.LeaveRoomData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.RoomID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "roomId is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandLeaveRoom,
			Room: leave.RoomID,
		}, nil, nil
	case proto.InboundTypeCursorMove:
		var cursor proto.CursorMoveData
		if err := json.Unmarshal(inbound.Data, &cursor); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind: core.CommandCursorMove,
			Room: cursor.RoomID,
			X:    cursor.X,
			Y:    cursor.Y,
		}, nil, nil
	case proto.InboundTypeDrawingUpdate:
		var update proto.DrawingUpdateData
		if err := json.Unmarshal(inbound.Data, &update); err != nil {
			return nil, nil, err
		}
		if update.Element.ID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "element.id is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandDrawingUpdate,
			Room: update.RoomID,
			Element: &core.Element{
				ID:   update.Element.ID,
				Data: update.Element.Data,
			},
			Persist: update.SaveToDB,
		}, nil, nil
	case proto.InboundTypeDeleteElement:
		return objectCommand(core.CommandDeleteElement, inbound.Data)
	case proto.InboundTypeRequestLock:
		return objectCommand(core.CommandRequestLock, inbound.Data)
	case proto.InboundTypeReleaseLock:
		return objectCommand(core.CommandReleaseLock, inbound.Data)
	case proto.InboundTypeClearCanvas:
		var clear proto.ClearCanvasData
		if err := json.Unmarshal(inbound.Data, &clear); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind: core.CommandClearCanvas,
			Room: clear.RoomID,
		}, nil, nil
	case proto.InboundTypeKickParticipant, proto.InboundTypeBanParticipant:
		var kick proto.KickParticipantData
		if err := json.Unmarshal(inbound.Data, &kick); err != nil {
			return nil, nil, err
		}
		if kick.TargetUserID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "targetUserId is required"}, nil
		}
		kind := core.CommandKickParticipant
		if inbound.Type == proto.InboundTypeBanParticipant {
			kind = core.CommandBanParticipant
		}
		return &core.Command{
			Kind:     kind,
			Room:     kick.RoomID,
			TargetID: kick.TargetUserID,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func objectCommand(kind core.CommandKind, data json.RawMessage) (*core.Command, *proto.Error, error) {
	var obj proto.ObjectData
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, nil, err
	}
	if obj.ObjectID == "" {
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "objectId is required"}, nil
	}
	return &core.Command{
		Kind:     kind,
		Room:     obj.RoomID,
		ObjectID: obj.ObjectID,
	}, nil, nil
}

func elementData(el *core.Element) proto.ElementData {
	if el == nil {
		return proto.ElementData{}
	}
	return proto.ElementData{
		ID:        el.ID,
		Data:      el.Data,
		CreatedBy: el.CreatedBy,
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomState:
		snap := event.Snapshot
		users := make([]proto.UserData, 0, len(snap.Roster))
		for _, entry := range snap.Roster {
			users = append(users, proto.UserData{
				UserID: entry.UserID,
				Name:   entry.Name,
				Role:   string(entry.Role),
			})
		}
		drawing := make([]proto.ElementData, 0, len(snap.DrawingData))
		for i := range snap.DrawingData {
			drawing = append(drawing, elementData(&snap.DrawingData[i]))
		}
		return proto.Outbound{
			Type: proto.OutboundTypeRoomState,
			Data: proto.RoomStateData{
				Room: proto.RoomData{
					ID:                snap.Room.ID,
					PasswordProtected: snap.Room.PasswordProtected,
					CreatedAt:         snap.Room.CreatedAt,
				},
				Users:       users,
				DrawingData: drawing,
				ActiveLocks: snap.ActiveLocks,
			},
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeUserJoined,
			Data: proto.EventUserJoined{
				User:   proto.UserData{UserID: event.UserID, Name: event.Name, Role: string(event.Role)},
				UserID: event.UserID,
				Role:   string(event.Role),
			},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type: proto.OutboundTypeUserLeft,
			Data: proto.EventUserLeft{UserID: event.UserID},
		}
	case core.EventCursorUpdate:
		return proto.Outbound{
			Type: proto.OutboundTypeCursorUpdate,
			Data: proto.EventCursorUpdate{UserID: event.UserID, X: event.X, Y: event.Y},
		}
	case core.EventDrawingUpdate:
		return proto.Outbound{
			Type: proto.OutboundTypeDrawingUpdate,
			Data: proto.EventDrawingUpdate{Element: elementData(event.Element)},
		}
	case core.EventElementDeleted:
		return proto.Outbound{
			Type: proto.OutboundTypeElementDeleted,
			Data: proto.EventElementDeleted{ObjectID: event.ObjectID},
		}
	case core.EventObjectLocked:
		return proto.Outbound{
			Type: proto.OutboundTypeObjectLocked,
			Data: proto.EventObjectLocked{ObjectID: event.ObjectID, UserID: event.UserID},
		}
	case core.EventObjectUnlocked:
		return proto.Outbound{
			Type: proto.OutboundTypeObjectUnlocked,
			Data: proto.EventObjectUnlocked{ObjectID: event.ObjectID},
		}
	case core.EventLockDenied:
		return proto.Outbound{
			Type: proto.OutboundTypeLockDenied,
			Data: proto.EventLockDenied{ObjectID: event.ObjectID, LockedBy: event.HolderID},
		}
	case core.EventCanvasCleared:
		return proto.Outbound{Type: proto.OutboundTypeCanvasCleared, Data: struct{}{}}
	case core.EventParticipantKicked:
		return proto.Outbound{
			Type: proto.OutboundTypeParticipantKicked,
			Data: proto.EventParticipantKicked{UserID: event.UserID},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unmapped event"}}
	}
}
