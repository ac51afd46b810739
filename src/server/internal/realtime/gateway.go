package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	authusecase "github.com/unplugd-audio/unplugd-be/src/server/internal/auth"
	connectionentity "github.com/unplugd-audio/unplugd-be/src/server/internal/connection/entity"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/gateway"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/lib/request"
)

type clientMessage struct {
	Action string `json:"action"`
}

type serverReply struct {
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
}

// ReplyTo maps one client frame to the reply the read loop sends back.
// Pings earn pongs; everything else, including frames that aren't JSON,
// earns an unknown reply rather than silence so clients can tell a
// typo'd action from a dead connection.
func ReplyTo(data []byte) []byte {
	message := clientMessage{}
	// a frame that isn't JSON is treated as carrying no action
	_ = json.Unmarshal(data, &message)

	reply := serverReply{Action: "unknown", Message: "Unrecognized action"}
	if message.Action == "ping" {
		reply = serverReply{Action: "pong"}
	}

	replyData, _ := json.Marshal(reply)
	return replyData
}

type Gateway struct {
	hub             *Hub
	connectionStore connectionentity.Store
	authUsecase     authusecase.Usecase
	upgrader        websocket.Upgrader
}

func NewGateway(hub *Hub, connectionStore connectionentity.Store, authUsecase authusecase.Usecase) Gateway {
	return Gateway{
		hub:             hub,
		connectionStore: connectionStore,
		authUsecase:     authUsecase,
		upgrader:        websocket.Upgrader{},
	}
}

// Connect upgrades the request to a websocket and holds it open for
// the connection's lifetime. Browsers can't set headers on websocket
// requests, so the token rides in the query string.
func (g Gateway) Connect(c echo.Context) error {
	ctx := request.Context(c)

	user, apiErr := g.authUsecase.ValidateToken(ctx, c.QueryParam("token"))
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	socket, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the error response
		log.WithError(err).Error("Failed to upgrade websocket connection")
		return nil
	}

	connectionID := uuid.NewString()
	now := time.Now().UTC()
	connection := connectionentity.Connection{
		OwnerID:      user.ID,
		ConnectionID: connectionID,
		ConnectedAt:  now,
		ExpiresAt:    now.Add(connectionentity.TTL),
	}

	logger := log.WithField("user_id", user.ID).
		WithField("connection_id", connectionID)

	if err := g.connectionStore.CreateConnection(ctx, connection); err != nil {
		logger.WithError(err).Error("Failed to record websocket connection")
		_ = socket.Close()
		return nil
	}

	pusher := NewSocketPusher(socket)
	g.hub.Register(connectionID, pusher)
	logger.Info("Websocket connection established")

	g.serve(pusher, socket, logger)

	g.hub.Unregister(connectionID)
	_ = socket.Close()

	// the request context may already be cancelled by the disconnect
	if err := g.connectionStore.DeleteConnection(context.Background(), user.ID, connectionID); err != nil {
		logger.WithError(err).Error("Failed to delete connection record on disconnect")
	}

	logger.Info("Websocket connection closed")
	return nil
}

func (g Gateway) serve(pusher *SocketPusher, socket Socket, logger log.Interface) {
	for {
		_, data, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Info("Websocket closed unexpectedly")
			}
			return
		}

		if err := pusher.Push(ReplyTo(data)); err != nil {
			logger.WithError(err).Info("Failed to reply to client, closing connection")
			return
		}
	}
}
