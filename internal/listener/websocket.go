package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-realm/internal/player"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
	maxMessageSize  = 64 * 1024
)

type WebsocketListener struct {
	port uint16
	path string
	cm   *ConnectionManager
}

func NewWebsocketListener(port uint16, path string, cm *ConnectionManager) *WebsocketListener {
	return &WebsocketListener{
		port: port,
		path: path,
		cm:   cm,
	}
}

func (l *WebsocketListener) Start(ctx context.Context) error {
	handler := newWebsocketHandler(l.cm.AcceptConnection)

	mux := http.NewServeMux()
	mux.Handle(l.path, handler)
	svr := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	// done signals that Start is returning (either success or failure)
	done := make(chan struct{})
	defer close(done)

	// Upgraded connections are hijacked, so Shutdown does not wait for them.
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := svr.Shutdown(shutdownCtx); err != nil {
				slog.Warn("shutting down websocket server", "error", err)
			}
			handler.Stop()
		case <-done:
		}
	}()

	slog.InfoContext(ctx, "websocket listener started", "port", l.port, "path", l.path)
	err = svr.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket on port %d: %w", l.port, err)
	}

	return nil
}

type websocketHandler struct {
	wg          sync.WaitGroup
	upgrader    websocket.Upgrader
	cFunc       func(context.Context, player.Conn)
	connCtx     context.Context
	cancelConns context.CancelFunc
}

func newWebsocketHandler(cFunc func(context.Context, player.Conn)) *websocketHandler {
	// Create a cancelable context for all connections
	connCtx, cancelConns := context.WithCancel(context.Background())
	return &websocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		cFunc:       cFunc,
		connCtx:     connCtx,
		cancelConns: cancelConns,
	}
}

func (h *websocketHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.wg.Add(1)
	defer h.wg.Done()

	conn := &wsConn{Conn: ws}
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Error("closing websocket connection", "remote", r.RemoteAddr, "error", err)
		}
	}()
	ws.SetReadLimit(maxMessageSize)

	h.cFunc(h.connCtx, conn)
}

func (h *websocketHandler) Stop() {
	h.cancelConns()
	h.wg.Wait()
}

// wsConn bounds every write so a stalled client cannot hold its session's writer.
type wsConn struct {
	*websocket.Conn
	once sync.Once
	err  error
}

func (c *wsConn) WriteJSON(v any) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.Conn.WriteJSON(v)
}

// Close may be called by the session and by the handler.
func (c *wsConn) Close() error {
	c.once.Do(func() {
		c.err = c.Conn.Close()
	})
	return c.err
}
