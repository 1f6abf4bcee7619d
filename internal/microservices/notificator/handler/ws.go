package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/domain"
	authhandlers "restaurant-admin/internal/microservices/auth/handlers"
	"restaurant-admin/internal/microservices/notificator/hub"
	"restaurant-admin/internal/microservices/notificator/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	commandTimeout = 10 * time.Second
	maxMessageSize = 4 << 10
)

type WSOptions struct {
	SendBuffer     int
	PingInterval   time.Duration
	SessionCheck   time.Duration // how often an open connection re-checks its session
	AllowedOrigins []string
}

// WSHandler serves the realtime dashboard channel.
type WSHandler struct {
	svc      service.NotificatorServiceInterface
	group    *hub.Group
	upgrader websocket.Upgrader
	opts     WSOptions
	log      *logger.Logger

	quit     chan struct{}
	quitOnce sync.Once
}

func NewWSHandler(svc service.NotificatorServiceInterface, group *hub.Group, opts WSOptions, lg *logger.Logger) *WSHandler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.SessionCheck <= 0 {
		opts.SessionCheck = time.Minute
	}
	return &WSHandler{
		svc:   svc,
		group: group,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(opts.AllowedOrigins),
		},
		opts: opts,
		log:  lg,
		quit: make(chan struct{}),
	}
}

// Close disconnects every open connection with a going-away frame.
func (h *WSHandler) Close() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// checkOrigin accepts same-host requests, requests without an Origin header
// and the configured origins. A single "*" accepts everything.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

type wsClient struct {
	id       string
	identity domain.Identity
	token    string
	conn     *websocket.Conn
	send     chan domain.Event

	done     chan struct{}
	doneOnce sync.Once
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Identity() domain.Identity { return c.identity }

func (c *wsClient) Send(ev domain.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *wsClient) stop() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Serve upgrades an authenticated request and keeps the connection joined to
// the dashboard group until either side goes away.
func (h *WSHandler) Serve(c *gin.Context) {
	identity, ok := authhandlers.IdentityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, domain.MessageResponse{Message: domain.ErrUnauthorized.Error()})
		return
	}
	lg := logger.FromGin(c, h.log)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		lg.Warn("ws_upgrade_failed", map[string]any{"error": err.Error()})
		return
	}

	client := &wsClient{
		id:       uuid.NewString(),
		identity: identity,
		token:    authhandlers.SessionTokenFrom(c),
		conn:     conn,
		send:     make(chan domain.Event, h.opts.SendBuffer),
		done:     make(chan struct{}),
	}
	lg = lg.With(map[string]any{"conn_id": client.id, "username": identity.Username})

	greeting, err := h.svc.Greeting(client.id)
	if err != nil {
		lg.Error("ws_greeting_failed", err, nil)
		_ = conn.Close()
		return
	}
	client.Send(greeting)

	h.group.Join(client)
	defer h.group.Leave(client.id)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(client, lg)
	}()
	go h.watchSession(ctx, client, lg)
	h.readPump(ctx, client, lg)

	client.stop()
	<-writerDone
}

// watchSession stops the connection once its session is gone, so a logged
// out or deleted admin stops receiving dashboard broadcasts. Lookup failures
// other than ErrUnauthorized keep the connection.
func (h *WSHandler) watchSession(ctx context.Context, c *wsClient, lg *logger.Logger) {
	ticker := time.NewTicker(h.opts.SessionCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, commandTimeout)
			err := h.svc.CheckSession(checkCtx, c.token)
			cancel()
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrUnauthorized):
				lg.Info("ws_session_expired", nil)
				c.stop()
				return
			default:
				lg.Warn("ws_session_check_failed", map[string]any{"error": err.Error()})
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// readPump handles inbound messages one at a time, in arrival order.
func (h *WSHandler) readPump(ctx context.Context, c *wsClient, lg *logger.Logger) {
	pongWait := h.opts.PingInterval * 3 / 2
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				lg.Warn("ws_read_failed", map[string]any{"error": err.Error()})
			}
			return
		}
		h.dispatch(ctx, c, raw, lg)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, c *wsClient, raw []byte, lg *logger.Logger) {
	var ev domain.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		lg.Warn("ws_bad_message", map[string]any{"error": err.Error()})
		return
	}

	switch ev.Name {
	case domain.EventStatusUpdateRequest:
		var req domain.StatusUpdateRequest
		if err := json.Unmarshal(ev.Data, &req); err != nil {
			lg.Warn("ws_bad_payload", map[string]any{"event": ev.Name, "error": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		if _, err := h.svc.HandleStatusUpdate(ctx, c.token, req); err != nil {
			fields := map[string]any{"order_id": req.OrderID, "new_status": req.NewStatus}
			switch {
			case errors.Is(err, domain.ErrUnauthorized),
				errors.Is(err, domain.ErrValidation),
				errors.Is(err, domain.ErrNotFound):
				fields["reason"] = err.Error()
				lg.Warn("status_update_dropped", fields)
			default:
				lg.Error("status_update_failed", err, fields)
			}
		}
	default:
		lg.Debug("ws_event_ignored", map[string]any{"event": ev.Name})
	}
}

// writePump is the only goroutine that writes to the connection.
func (h *WSHandler) writePump(c *wsClient, lg *logger.Logger) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				lg.Warn("ws_write_failed", map[string]any{"event": ev.Name, "error": err.Error()})
				c.stop()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case <-h.quit:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			c.stop()
			return
		}
	}
}
