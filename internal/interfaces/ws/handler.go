package ws

import (
	"log/slog"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/campus-sports/livematch/internal/usecase"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks run in the CORS layer for the REST surface; the
		// feed is read-only.
		return true
	},
}

// Handler upgrades GET /ws/fixtures/{fixtureID} and streams committed
// snapshots for that fixture.
type Handler struct {
	hub     *Hub
	matches *usecase.LiveMatchService
	logger  *slog.Logger
}

func NewHandler(hub *Hub, matches *usecase.LiveMatchService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, matches: matches, logger: logger}
}

func (h *Handler) ServeFixtureFeed(w http.ResponseWriter, r *http.Request) {
	fixtureID := r.PathValue("fixtureID")

	// Resolve the snapshot before the upgrade so an unknown fixture still
	// gets a proper HTTP error.
	snapshot, err := h.matches.Snapshot(r.Context(), fixtureID)
	if err != nil {
		h.logger.Warn("ws subscribe rejected", "fixture_id", fixtureID, "error", err)
		http.Error(w, "fixture not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "fixture_id", fixtureID, "error", err)
		return
	}

	client := &Client{
		hub:       h.hub,
		fixtureID: fixtureID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		logger:    h.logger,
	}
	h.hub.register(client)

	if payload, err := sonic.Marshal(snapshotMessage(snapshot)); err == nil {
		select {
		case client.send <- payload:
		default:
		}
	}

	go client.writePump()
	go client.readPump()
}
