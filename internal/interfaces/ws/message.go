package ws

import (
	"time"

	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/domain/matchevent"
	"github.com/campus-sports/livematch/internal/usecase"
)

const messageTypeSnapshot = "fixture_snapshot"

type wsPlayerRef struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
}

type wsGoal struct {
	Scorer wsPlayerRef  `json:"scorer"`
	Assist *wsPlayerRef `json:"assist,omitempty"`
	Type   string       `json:"goalType"`
}

type wsSubstitution struct {
	PlayerOut wsPlayerRef `json:"playerOut"`
	PlayerIn  wsPlayerRef `json:"playerIn"`
	Injury    bool        `json:"injury,omitempty"`
}

type wsCard struct {
	Player wsPlayerRef `json:"player"`
	Type   string      `json:"cardType,omitempty"`
}

type wsEvent struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Team         string          `json:"team,omitempty"`
	Minute       int             `json:"minute"`
	InjuryTime   bool            `json:"injuryTime,omitempty"`
	Commentary   string          `json:"commentary,omitempty"`
	Goal         *wsGoal         `json:"goal,omitempty"`
	Substitution *wsSubstitution `json:"substitution,omitempty"`
	Card         *wsCard         `json:"card,omitempty"`
	RecordedAt   string          `json:"recordedAt"`
}

type wsLineup struct {
	Formation   string   `json:"formation"`
	StartingXI  []string `json:"startingXI"`
	Substitutes []string `json:"substitutes"`
	CameOff     []string `json:"cameOff,omitempty"`
}

type wsTeamCounts struct {
	Goals             int `json:"goals"`
	Corners           int `json:"corners"`
	Offsides          int `json:"offsides"`
	YellowCards       int `json:"yellowCards"`
	RedCards          int `json:"redCards"`
	PenaltiesAwarded  int `json:"penaltiesAwarded"`
	PenaltiesMissed   int `json:"penaltiesMissed"`
	PenaltiesSaved    int `json:"penaltiesSaved"`
	SubstitutionsUsed int `json:"substitutionsUsed"`
}

type wsStatistics struct {
	Home wsTeamCounts `json:"home"`
	Away wsTeamCounts `json:"away"`
}

type wsSnapshot struct {
	Type          string       `json:"type"`
	FixtureID     string       `json:"fixtureId"`
	Status        string       `json:"status"`
	CurrentMinute int          `json:"currentMinute"`
	InjuryTime    bool         `json:"injuryTime,omitempty"`
	Timeline      []wsEvent    `json:"timeline"`
	HomeLineup    wsLineup     `json:"homeLineup"`
	AwayLineup    wsLineup     `json:"awayLineup"`
	Statistics    wsStatistics `json:"statistics"`
}

func refToMessage(ref matchevent.PlayerRef) wsPlayerRef {
	return wsPlayerRef{PlayerID: ref.PlayerID, Name: ref.Name}
}

func eventToMessage(event matchevent.Event) wsEvent {
	msg := wsEvent{
		ID:         event.ID,
		Type:       string(event.Kind),
		Team:       string(event.Team),
		Minute:     event.Minute,
		InjuryTime: event.InjuryTime,
		Commentary: event.Commentary,
		RecordedAt: event.RecordedAt.UTC().Format(time.RFC3339),
	}
	if event.Goal != nil {
		goal := &wsGoal{Scorer: refToMessage(event.Goal.Scorer), Type: string(event.Goal.Type)}
		if event.Goal.Assist != nil {
			assist := refToMessage(*event.Goal.Assist)
			goal.Assist = &assist
		}
		msg.Goal = goal
	}
	if event.Substitution != nil {
		msg.Substitution = &wsSubstitution{
			PlayerOut: refToMessage(event.Substitution.PlayerOut),
			PlayerIn:  refToMessage(event.Substitution.PlayerIn),
			Injury:    event.Substitution.Injury,
		}
	}
	if event.Card != nil {
		msg.Card = &wsCard{Player: refToMessage(event.Card.Player), Type: string(event.Card.Type)}
	}
	return msg
}

func lineupToMessage(state lineup.State) wsLineup {
	return wsLineup{
		Formation:   state.Formation,
		StartingXI:  append([]string{}, state.StartingXI...),
		Substitutes: append([]string{}, state.Substitutes...),
		CameOff:     append([]string(nil), state.CameOff...),
	}
}

func countsToMessage(counts matchevent.TeamCounts) wsTeamCounts {
	return wsTeamCounts{
		Goals:             counts.Goals,
		Corners:           counts.Corners,
		Offsides:          counts.Offsides,
		YellowCards:       counts.YellowCards,
		RedCards:          counts.RedCards,
		PenaltiesAwarded:  counts.PenaltiesAwarded,
		PenaltiesMissed:   counts.PenaltiesMissed,
		PenaltiesSaved:    counts.PenaltiesSaved,
		SubstitutionsUsed: counts.SubstitutionsUsed,
	}
}

func snapshotMessage(snapshot usecase.FixtureSnapshot) wsSnapshot {
	timeline := make([]wsEvent, 0, len(snapshot.Timeline))
	for _, event := range snapshot.Timeline {
		timeline = append(timeline, eventToMessage(event))
	}

	return wsSnapshot{
		Type:          messageTypeSnapshot,
		FixtureID:     snapshot.FixtureID,
		Status:        snapshot.Status,
		CurrentMinute: snapshot.CurrentMinute,
		InjuryTime:    snapshot.InjuryTime,
		Timeline:      timeline,
		HomeLineup:    lineupToMessage(snapshot.HomeLineup),
		AwayLineup:    lineupToMessage(snapshot.AwayLineup),
		Statistics:    countsStats(snapshot),
	}
}

func countsStats(snapshot usecase.FixtureSnapshot) wsStatistics {
	return wsStatistics{
		Home: countsToMessage(snapshot.Statistics.Home),
		Away: countsToMessage(snapshot.Statistics.Away),
	}
}
