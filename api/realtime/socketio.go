package realtime

import (
	"fmt"
	"net/http"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"go.uber.org/zap"
)

const namespace = "/"

// SocketServer is a Socket.IO server whose rooms are user ids
type SocketServer struct {
	server *socketio.Server
	tokens TokenParser
}

// NewSocketServer builds the server and registers its event handlers. Clients connect with
// ?token=<jwt> and are placed in the room of their own user id.
func NewSocketServer(tokens TokenParser, allowedOrigins []string) *SocketServer {
	checkOrigin := originChecker(allowedOrigins)
	s := &SocketServer{
		tokens: tokens,
		server: socketio.NewServer(&engineio.Options{
			Transports: []transport.Transport{
				&polling.Transport{CheckOrigin: checkOrigin},
				&websocket.Transport{CheckOrigin: checkOrigin},
			},
		}),
	}

	s.server.OnConnect(namespace, s.onConnect)
	s.server.OnEvent(namespace, "join_room", s.onJoinRoom)
	s.server.OnError(namespace, func(c socketio.Conn, e error) {
		id := ""
		if c != nil {
			id = c.ID()
		}
		zap.S().Warnw("socket.io error", "socketId", id, "error", e)
	})
	s.server.OnDisconnect(namespace, func(c socketio.Conn, reason string) {
		zap.S().Debugw("socket.io client disconnected", "socketId", c.ID(), "reason", reason)
	})
	return s
}

func (s *SocketServer) onConnect(c socketio.Conn) error {
	u := c.URL()
	userID, err := s.tokens.ParseToken(u.Query().Get("token"))
	if err != nil {
		zap.S().Infow("socket.io connection refused", "socketId", c.ID(), "error", err)
		return err
	}
	c.SetContext(userID)
	c.Join(userID)
	zap.S().Debugw("socket.io client connected", "socketId", c.ID(), "userId", userID)
	return nil
}

// onJoinRoom lets a client (re)join its own room. Joining another user's room is refused.
func (s *SocketServer) onJoinRoom(c socketio.Conn, room string) {
	userID, _ := c.Context().(string)
	if userID == "" || room != userID {
		zap.S().Warnw("refused join_room for another user",
			"socketId", c.ID(),
			"userId", userID,
			"room", room)
		return
	}
	c.Join(room)
}

// SendToUser implements notify.Broadcaster
func (s *SocketServer) SendToUser(userID, event string, payload interface{}) error {
	if !s.server.BroadcastToRoom(namespace, userID, event, payload) {
		return fmt.Errorf("socket.io namespace %q is not available", namespace)
	}
	return nil
}

// Serve runs the server's event loop in the background
func (s *SocketServer) Serve() {
	go func() {
		if err := s.server.Serve(); err != nil {
			zap.S().Errorw("socket.io server stopped", "error", err)
		}
	}()
}

// ServeHTTP handles the /socket.io/ endpoint
func (s *SocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.ServeHTTP(w, r)
}

// Close shuts the server down
func (s *SocketServer) Close() error {
	return s.server.Close()
}
