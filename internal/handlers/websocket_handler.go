package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/leftovers/server/internal/middleware"
	"github.com/leftovers/server/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler streams party events over websocket
type EventsHandler struct {
	hub     *services.PartyHub
	parties *services.PartyService
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(hub *services.PartyHub, parties *services.PartyService) *EventsHandler {
	return &EventsHandler{hub: hub, parties: parties}
}

// Subscribe upgrades the request and subscribes it to one party's events
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	partyID := chi.URLParam(r, "id")
	if _, err := h.parties.Get(r.Context(), partyID); err != nil {
		respondServiceError(w, r, err, http.StatusNotFound)
		return
	}

	logger := middleware.GetLoggerFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	client := h.hub.NewClient(uuid.New().String(), conn)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	h.hub.Subscribe(client, services.PartyTopic(partyID))
	logger.WithField("party_id", partyID).Debugf("client %s subscribed", client.ID)

	go client.WritePump()
	client.ReadPump()
}
