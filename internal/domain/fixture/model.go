package fixture

import (
	"fmt"
	"strings"
	"time"

	"github.com/campus-sports/livematch/internal/domain/player"
)

const (
	StatusUpcoming  = "UPCOMING"
	StatusLive      = "LIVE"
	StatusHalftime  = "HT"
	StatusCompleted = "COMPLETED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
)

// Side identifies which team an event or lineup belongs to. Phase markers
// (kickoff, halftime, fulltime) carry no side.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

func (s Side) Opposite() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

// Team is one side of a fixture together with its full player roster.
type Team struct {
	ID        string
	Name      string
	ShortName string
	Players   []player.Player
}

func (t Team) PlayerByID(id string) (player.Player, bool) {
	for _, p := range t.Players {
		if p.ID == id {
			return p, true
		}
	}
	return player.Player{}, false
}

func (t Team) HasPlayer(id string) bool {
	_, ok := t.PlayerByID(id)
	return ok
}

func (t Team) RosterIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(t.Players))
	for _, p := range t.Players {
		out[p.ID] = struct{}{}
	}
	return out
}

// Clock is the current match clock as reported by the operator.
type Clock struct {
	Minute     int
	InjuryTime bool
}

// Fixture is the read-only match context the ledger operates within. The
// ledger never mutates it; the roster is treated as immutable for the
// duration of an admin session.
type Fixture struct {
	ID          string
	Competition string
	Venue       string
	KickoffAt   time.Time
	Home        Team
	Away        Team
	Status      string
	Clock       Clock
}

func (f Fixture) Team(side Side) (Team, error) {
	switch side {
	case SideHome:
		return f.Home, nil
	case SideAway:
		return f.Away, nil
	default:
		return Team{}, fmt.Errorf("unknown team side: %q", side)
	}
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusUpcoming
	}
	return status
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, "IN_PLAY", "HT", "1H", "2H", "ET":
		return true
	default:
		return false
	}
}

func IsCompletedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCompleted, "FT", "AET", "PEN", "FINISHED":
		return true
	default:
		return false
	}
}
