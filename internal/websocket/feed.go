// Package websocket serves the live analytics feed.
package websocket

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/mintari/internal/hub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Outbound messages buffered per client before it is dropped as slow.
	sendBuffer = 64
)

// Feed streams hub broadcasts to WebSocket clients. Clients only listen;
// anything they send is discarded.
type Feed struct {
	hub            *hub.Hub
	originPatterns []string
}

// NewFeed serves h. originPatterns restricts cross-origin upgrades; nil
// allows same-origin only.
func NewFeed(h *hub.Hub, originPatterns []string) *Feed {
	return &Feed{hub: h, originPatterns: originPatterns}
}

// Handle upgrades the request and blocks until the client disconnects.
func (f *Feed) Handle(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: f.originPatterns,
	})
	if err != nil {
		// Accept has already written the HTTP error.
		slog.WarnContext(c.Request().Context(), "Failed to upgrade connection to WebSocket", "error", err)
		return nil
	}
	defer conn.CloseNow()

	sub := hub.NewSubscriber(sendBuffer)
	ctx := c.Request().Context()
	select {
	case f.hub.Register <- sub:
	case <-ctx.Done():
		return nil
	}

	// CloseRead discards client frames and cancels ctx once the peer goes away.
	ctx = conn.CloseRead(ctx)
	defer f.unregister(sub)

	return f.writePump(ctx, conn, sub)
}

func (f *Feed) writePump(ctx context.Context, conn *websocket.Conn, sub *hub.Subscriber) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-sub.Send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return nil
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) == -1 {
					slog.WarnContext(ctx, "WebSocket write error", "error", err)
				}
				return nil
			}
		}
	}
}

// unregister removes sub unless the hub already closed it.
func (f *Feed) unregister(sub *hub.Subscriber) {
	for {
		select {
		case f.hub.Unregister <- sub:
			return
		case _, ok := <-sub.Send:
			if !ok {
				return
			}
		}
	}
}
