package http

import (
	"encoding/json"

	"github.com/samber/lo"

	"github.com/vovakirdan/pulsechat-server/internal/core"
	"github.com/vovakirdan/pulsechat-server/internal/proto"
)

// inboundToCommand validates payload shape and maps a frame to a core
// command. Semantic validation (username rules, recipient existence) lives
// in the hub; only malformed envelopes are rejected here.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeHello:
		var hello proto.HelloData
		if err := json.Unmarshal(inbound.Data, &hello); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandHello, Username: hello.Username}, nil, nil

	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandSendMessage, Text: msg.Text}, nil, nil

	case proto.InboundTypePrivate:
		var pm proto.PrivateData
		if err := json.Unmarshal(inbound.Data, &pm); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:        core.CommandSendPrivate,
			RecipientID: pm.RecipientID,
			Text:        pm.Text,
		}, nil, nil

	case proto.InboundTypeDelivered, proto.InboundTypeRead,
		proto.InboundTypePrivateDelivered, proto.InboundTypePrivateRead:
		var ack proto.AckData
		if err := json.Unmarshal(inbound.Data, &ack); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: ackKind(inbound.Type), MessageID: ack.MessageID}, nil, nil

	case proto.InboundTypeTypingStart, proto.InboundTypeTypingStop:
		var typing proto.TypingData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &typing); err != nil {
				return nil, nil, err
			}
		}
		kind := core.CommandTypingStart
		if inbound.Type == proto.InboundTypeTypingStop {
			kind = core.CommandTypingStop
		}
		return &core.Command{Kind: kind, RecipientID: typing.RecipientID}, nil, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func ackKind(inboundType string) core.CommandKind {
	switch inboundType {
	case proto.InboundTypeRead:
		return core.CommandGroupRead
	case proto.InboundTypePrivateDelivered:
		return core.CommandPrivateDelivered
	case proto.InboundTypePrivateRead:
		return core.CommandPrivateRead
	default:
		return core.CommandGroupDelivered
	}
}

func userFromParticipant(p core.Participant) proto.User {
	return proto.User{
		ID:           p.ID,
		Username:     p.Username,
		Status:       string(p.Status),
		LastActivity: p.LastActivity.UnixMilli(),
		ConnectedAt:  p.ConnectedAt,
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventConnected:
		return eventOutbound(proto.EventNameConnected, proto.ConnectedData{
			User: userFromParticipant(event.User),
		})
	case core.EventUserList:
		return eventOutbound(proto.EventNameUserList, proto.UserListData{
			Users: lo.Map(event.Users, func(p core.Participant, _ int) proto.User {
				return userFromParticipant(p)
			}),
		})
	case core.EventUserJoined:
		return eventOutbound(proto.EventNameUserJoined, proto.PresenceData{
			User:      userFromParticipant(event.User),
			UserCount: event.UserCount,
		})
	case core.EventUserLeft:
		return eventOutbound(proto.EventNameUserLeft, proto.PresenceData{
			User:      userFromParticipant(event.User),
			UserCount: event.UserCount,
		})
	case core.EventStatusChanged:
		return eventOutbound(proto.EventNameStatusChanged, proto.StatusChangedData{
			User:      userFromParticipant(event.User),
			OldStatus: string(event.OldStatus),
			NewStatus: string(event.NewStatus),
		})
	case core.EventGroupMessage:
		m := event.Message
		return eventOutbound(proto.EventNameMessage, proto.MessageEvent{
			ID:        m.ID,
			Seq:       m.Seq,
			Text:      m.Text,
			SenderID:  m.SenderID,
			Username:  m.SenderName,
			Timestamp: m.CreatedAt,
			Status:    string(m.Status),
		})
	case core.EventPrivateMessage:
		m := event.Private
		return eventOutbound(proto.EventNamePrivate, proto.PrivateMessageEvent{
			ID:                m.ID,
			Seq:               m.Seq,
			Text:              m.Text,
			SenderID:          m.SenderID,
			SenderUsername:    m.SenderName,
			RecipientID:       m.RecipientID,
			RecipientUsername: m.RecipientName,
			Timestamp:         m.CreatedAt,
			Status:            string(m.Status),
		})
	case core.EventMessageStatus:
		return eventOutbound(proto.EventNameStatusUpdated, statusUpdateData(event.Status))
	case core.EventTyping:
		return eventOutbound(proto.EventNameTyping, typingData(event))
	case core.EventTypingStopped:
		return eventOutbound(proto.EventNameStoppedTyping, typingData(event))
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventOutbound(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func typingData(event *core.Event) proto.TypingEventData {
	return proto.TypingEventData{
		UserID:   event.User.ID,
		Username: event.User.Username,
		Context:  event.TypingContext,
	}
}

func statusUpdateData(s *core.StatusUpdate) proto.StatusUpdateData {
	data := proto.StatusUpdateData{
		MessageID:   s.MessageID,
		Status:      string(s.Status),
		Type:        string(s.Kind),
		DeliveredTo: s.DeliveredCount,
		ReadBy:      s.ReadCount,
		RecipientID: s.RecipientID,
	}
	if !s.DeliveredAt.IsZero() {
		t := s.DeliveredAt
		data.DeliveredAt = &t
	}
	if !s.ReadAt.IsZero() {
		t := s.ReadAt
		data.ReadAt = &t
	}
	return data
}
