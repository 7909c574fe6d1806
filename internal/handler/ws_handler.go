package handler

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"foodapp/internal/notify"
	"foodapp/internal/telemetry"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 4096
)

// クライアントから来るメッセージ
type wsClientMessage struct {
	Type   string `json:"type"`
	UserID int64  `json:"userId"`
}

// GET /ws?token=<jwt>
type WSHandler struct {
	registry *notify.Registry
	metrics  *telemetry.Metrics
	upgrader websocket.Upgrader
	buffer   int
	log      *slog.Logger
}

// allowedOrigin が空ならOriginは見ない
func NewWSHandler(registry *notify.Registry, metrics *telemetry.Metrics, buffer int, allowedOrigin string, log *slog.Logger) *WSHandler {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		registry: registry,
		metrics:  metrics,
		buffer:   buffer,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *WSHandler) RegisterRoutes(e *echo.Echo, authed ...echo.MiddlewareFunc) {
	e.GET("/ws", h.serve, authed...)
}

func (h *WSHandler) serve(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		//Upgrade がエラーレスポンスを書いている
		h.log.DebugContext(c.Request().Context(), "ws: upgrade failed", "error", err)
		return nil
	}

	conn := newWSConn(ws, h.buffer)
	h.metrics.ConnectionOpened()
	defer h.metrics.ConnectionClosed()

	go conn.writeLoop()
	h.readLoop(c, conn, userID)

	conn.close()
	if id, removed := h.registry.Unregister(conn); removed {
		h.log.Info("ws: unregistered", "user_id", id)
	}
	return nil
}

func (h *WSHandler) readLoop(c echo.Context, conn *wsConn, tokenUserID int64) {
	ws := conn.ws
	ws.SetReadLimit(wsMaxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg wsClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("ws: read failed", "user_id", tokenUserID, "error", err)
			}
			return
		}

		switch msg.Type {
		case "register":
			//他人のIDでは登録させない
			if msg.UserID != tokenUserID {
				h.log.Warn("ws: register for another user", "token_user_id", tokenUserID, "user_id", msg.UserID)
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "userId does not match token"),
					time.Now().Add(wsWriteWait))
				return
			}
			h.registry.Register(tokenUserID, conn)
			h.log.Info("ws: registered", "user_id", tokenUserID)
		default:
			h.log.Debug("ws: unknown message", "type", msg.Type)
		}
	}
}

// wsConn は notify.Conn の実装。書き込みは writeLoop だけが行う
type wsConn struct {
	ws        *websocket.Conn
	send      chan notify.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn, buffer int) *wsConn {
	return &wsConn{
		ws:   ws,
		send: make(chan notify.Event, buffer),
		done: make(chan struct{}),
	}
}

// Send はブロックしない（詰まっていたら ErrBufferFull）
func (c *wsConn) Send(ev notify.Event) error {
	select {
	case <-c.done:
		return notify.ErrConnClosed
	default:
	}

	select {
	case c.send <- ev:
		return nil
	default:
		return notify.ErrBufferFull
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

var _ notify.Conn = (*wsConn)(nil)
