package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stratus/internal/event"
)

type EventHandler struct {
	bus *event.Bus
}

func NewEventHandler(bus *event.Bus) *EventHandler {
	return &EventHandler{bus: bus}
}

func (h *EventHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Subscribe)
	r.Get("/ws", NewWSHandler(h.bus).ServeHTTP)
	return r
}

// Subscribe streams bus events over Server-Sent Events until the client
// disconnects.
func (h *EventHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	events := h.bus.Subscribe()
	defer h.bus.Unsubscribe(events)

	fmt.Fprintf(w, "data: {\"type\": \"connected\"}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err == nil {
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			}

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
