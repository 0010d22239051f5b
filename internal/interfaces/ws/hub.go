package ws

import (
	"log/slog"
	"sync"

	sonic "github.com/bytedance/sonic"

	"github.com/campus-sports/livematch/internal/usecase"
)

// Hub fans committed fixture snapshots out to WebSocket subscribers. Clients
// subscribe to exactly one fixture; a room is the set of clients watching it.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *slog.Logger
}

var _ usecase.SnapshotBroadcaster = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.fixtureID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[client.fixtureID] = room
	}
	room[client] = struct{}{}
	h.logger.Debug("ws client registered", "fixture_id", client.fixtureID, "room_size", len(room))
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.fixtureID]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.fixtureID)
	}
}

// BroadcastFixture pushes the snapshot to every subscriber of the fixture.
// Clients whose send buffer is full are dropped rather than blocking the
// operator's request.
func (h *Hub) BroadcastFixture(fixtureID string, snapshot usecase.FixtureSnapshot) {
	payload, err := sonic.Marshal(snapshotMessage(snapshot))
	if err != nil {
		h.logger.Error("marshal fixture snapshot failed", "fixture_id", fixtureID, "error", err)
		return
	}

	var slow []*Client

	h.mu.RLock()
	for client := range h.rooms[fixtureID] {
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("dropping slow ws client", "fixture_id", fixtureID)
		h.unregister(client)
	}
}

// Subscribers reports the number of clients watching a fixture.
func (h *Hub) Subscribers(fixtureID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[fixtureID])
}
