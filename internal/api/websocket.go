package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"stratus/internal/event"
	"stratus/internal/logger"
)

type WSHandler struct {
	bus *event.Bus
}

func NewWSHandler(bus *event.Bus) *WSHandler {
	return &WSHandler{bus: bus}
}

// ServeHTTP upgrades the request and forwards bus events until the peer
// goes away.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.L.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer c.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	events := h.bus.Subscribe()
	defer h.bus.Unsubscribe(events)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}

			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
