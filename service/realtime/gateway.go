package realtime

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chathub/logger"
	midsec "chathub/middleware/security"
	msgmodel "chathub/module/message/model"
	"chathub/tools/errs"
	"chathub/tools/ids"
	"chathub/tools/safe"
)

// MessageCreator is the slice of the message store the gateway calls for
// message:send. Membership enforcement lives behind this call, not here.
type MessageCreator interface {
	Create(ctx context.Context, chatID, senderID, content string) (*msgmodel.Message, error)
}

// TokenVerifier resolves the handshake credential to a user ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// PresenceMirror is an optional best-effort copy of the online set kept
// outside the process. Failures are logged and otherwise ignored.
type PresenceMirror interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

type Options struct {
	ReadLimit     int64
	SendQueueSize int
	Mirror        PresenceMirror // nil disables mirroring
}

// Gateway terminates client connections, authenticates the handshake,
// dispatches inbound commands and reconciles presence on disconnect.
//
// A connection whose handshake carries no (or an invalid) credential is
// not rejected: it stays open in a degraded state and every command
// answers unauthorized. Whether such sockets should be dropped at
// connect time instead is an open question carried over from the
// original protocol.
type Gateway struct {
	registry   *Registry
	presence   *PresenceTracker
	typing     *TypingTracker
	dispatcher *Dispatcher
	messages   MessageCreator
	tokens     TokenVerifier
	opts       Options

	upgrader websocket.Upgrader
}

func NewGateway(
	registry *Registry,
	presence *PresenceTracker,
	typing *TypingTracker,
	dispatcher *Dispatcher,
	messages MessageCreator,
	tokens TokenVerifier,
	opts Options,
) *Gateway {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}
	if opts.SendQueueSize <= 0 {
		opts.SendQueueSize = 256
	}
	return &Gateway{
		registry:   registry,
		presence:   presence,
		typing:     typing,
		dispatcher: dispatcher,
		messages:   messages,
		tokens:     tokens,
		opts:       opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS is the gin handler for the websocket endpoint.
func (g *Gateway) HandleWS(c *gin.Context) {
	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Debug("[ws] close error")
		}
	}()

	userID := ""
	if token := midsec.BearerToken(c); token != "" {
		uid, err := g.tokens.Verify(token)
		if err != nil {
			logger.Infof("[ws] handshake token rejected: %v", err)
		} else {
			userID = uid
		}
	}

	connID := ids.GenerateShort()
	client := NewClient(connID, userID, ws, g.opts.SendQueueSize)
	defer client.Close()
	safe.Go(client.WritePump)

	g.registry.Register(client)
	if userID != "" {
		g.presence.SetOnline(userID)
		g.mirrorPresence(userID, StatusOnline)
		g.dispatcher.EmitPresence(userID, StatusOnline)
	}
	logger.Infof("[ws] connected conn=%s user=%s", connID, userID)

	ws.SetReadLimit(g.opts.ReadLimit)
	g.readLoop(c.Request.Context(), client, ws)

	// Disconnect reconciliation. Typing flags are deliberately left in
	// place: a user who vanishes mid-compose stays listed as typing
	// until another client action clears it.
	g.registry.Unregister(connID)
	if userID != "" {
		g.presence.SetOffline(userID)
		g.mirrorPresence(userID, StatusOffline)
		g.dispatcher.EmitPresence(userID, StatusOffline)
	}
	logger.Infof("[ws] disconnected conn=%s user=%s", connID, userID)
}

func (g *Gateway) readLoop(ctx context.Context, client *Client, ws *websocket.Conn) {
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s", client.ConnID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s", client.ConnID)
			} else {
				logger.Infof("[ws] read error conn=%s err=%v", client.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, err := ParseFrame(data)
		if err != nil {
			g.reply(client, "", "error", Ack{Error: errs.MsgOf(err)})
			continue
		}
		ack := g.HandleCommand(ctx, client, frame)
		g.reply(client, frame.ID, frame.Event, ack)
	}
}

// HandleCommand runs one inbound command to completion and returns the
// direct reply. Errors are collapsed to the reply for the issuing
// connection only; nothing here ever terminates the socket.
func (g *Gateway) HandleCommand(ctx context.Context, client *Client, f *Frame) Ack {
	if client.UserID == "" {
		return Ack{Error: errs.ErrUnauthorized.Msg}
	}
	switch f.Event {
	case CmdMessageSend:
		return g.handleMessageSend(ctx, client, f)
	case CmdMessageTyping:
		return g.handleTyping(client, f)
	case CmdPresenceUpdate:
		return g.handlePresenceUpdate(client, f)
	case CmdChatJoin:
		return g.handleChatJoin(client, f)
	case CmdChatLeave:
		return g.handleChatLeave(client, f)
	default:
		return Ack{Error: "unknown event: " + f.Event}
	}
}

func (g *Gateway) handleMessageSend(ctx context.Context, client *Client, f *Frame) Ack {
	p, err := decodePayload[SendMessagePayload](f.Data)
	if err != nil {
		return Ack{Error: errs.MsgOf(err)}
	}
	msg, err := g.messages.Create(ctx, p.ChatID, client.UserID, p.Content)
	if err != nil {
		logger.Infof("[ws] message:send rejected user=%s chat=%s: %v", client.UserID, p.ChatID, err)
		return Ack{Error: errs.MsgOf(err)}
	}
	// The room broadcast rides the MessageCreated event published by the
	// store; only the direct ack is produced here.
	return Ack{Success: true, Message: msg.DTO()}
}

func (g *Gateway) handleTyping(client *Client, f *Frame) Ack {
	p, err := decodePayload[TypingPayload](f.Data)
	if err != nil {
		return Ack{Error: errs.MsgOf(err)}
	}
	if p.IsTyping {
		g.typing.StartTyping(p.ChatID, client.UserID)
	} else {
		g.typing.StopTyping(p.ChatID, client.UserID)
	}
	// No membership check before the room broadcast; known gap kept from
	// the original protocol.
	g.dispatcher.EmitTyping(p.ChatID, client.UserID, p.IsTyping)
	return Ack{Success: true}
}

func (g *Gateway) handlePresenceUpdate(client *Client, f *Frame) Ack {
	p, err := decodePayload[PresencePayload](f.Data)
	if err != nil {
		return Ack{Error: errs.MsgOf(err)}
	}
	status := Status(p.Status)
	if status == StatusOnline {
		g.presence.SetOnline(client.UserID)
	} else {
		g.presence.SetOffline(client.UserID)
	}
	g.mirrorPresence(client.UserID, status)
	g.dispatcher.EmitPresence(client.UserID, status)
	return Ack{Success: true}
}

func (g *Gateway) handleChatJoin(client *Client, f *Frame) Ack {
	p, err := decodePayload[RoomPayload](f.Data)
	if err != nil {
		return Ack{Error: errs.MsgOf(err)}
	}
	g.registry.Join(client.ConnID, ChatTopic(p.ChatID))
	return Ack{Success: true}
}

func (g *Gateway) handleChatLeave(client *Client, f *Frame) Ack {
	p, err := decodePayload[RoomPayload](f.Data)
	if err != nil {
		return Ack{Error: errs.MsgOf(err)}
	}
	g.registry.Leave(client.ConnID, ChatTopic(p.ChatID))
	return Ack{Success: true}
}

func (g *Gateway) reply(client *Client, id, event string, ack Ack) {
	data, err := marshalReply(id, event, ack)
	if err != nil {
		logger.Errorf("[ws] marshal reply: %v", err)
		return
	}
	if !client.enqueue(data) {
		logger.Warnf("[ws] send queue full, dropping reply conn=%s", client.ConnID)
	}
}

func (g *Gateway) mirrorPresence(userID string, status Status) {
	if g.opts.Mirror == nil {
		return
	}
	mirror := g.opts.Mirror
	safe.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		var err error
		if status == StatusOnline {
			err = mirror.SetOnline(ctx, userID)
		} else {
			err = mirror.SetOffline(ctx, userID)
		}
		if err != nil {
			logger.Warnf("[ws] presence mirror %s failed for user=%s: %v", status, userID, err)
		}
	})
}
