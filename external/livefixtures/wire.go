package livefixtures

import (
	"fmt"
	"strings"
	"time"

	"github.com/campus-sports/livematch/internal/domain/fixture"
	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/domain/matchevent"
	"github.com/campus-sports/livematch/internal/domain/player"
	"github.com/campus-sports/livematch/internal/usecase"
)

// The backend keeps timeline entries as one flat object with optional fields
// per kind. The strict tagged union lives in the domain; this file owns the
// translation both ways.

type envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeOK     = "00"
	codeFailed = "99"
)

type wirePlayerRef struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
}

func (r *wirePlayerRef) toDomain() matchevent.PlayerRef {
	if r == nil {
		return matchevent.PlayerRef{}
	}
	return matchevent.PlayerRef{PlayerID: r.PlayerID, Name: r.Name}
}

func refToWire(ref matchevent.PlayerRef) *wirePlayerRef {
	if ref.Empty() {
		return nil
	}
	return &wirePlayerRef{PlayerID: ref.PlayerID, Name: ref.Name}
}

type wireTimelineItem struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Team       string         `json:"team,omitempty"`
	Minute     int            `json:"minute"`
	InjuryTime bool           `json:"injuryTime,omitempty"`
	Commentary string         `json:"commentary,omitempty"`
	Player     *wirePlayerRef `json:"player,omitempty"`
	Assist     *wirePlayerRef `json:"assist,omitempty"`
	GoalType   string         `json:"goalType,omitempty"`
	PlayerOut  *wirePlayerRef `json:"playerOut,omitempty"`
	PlayerIn   *wirePlayerRef `json:"playerIn,omitempty"`
	Injury     bool           `json:"injury,omitempty"`
	CardType   string         `json:"cardType,omitempty"`
	RecordedAt time.Time      `json:"recordedAt"`
}

func timelineItemToDomain(item wireTimelineItem) (matchevent.Event, error) {
	kind := matchevent.Kind(strings.TrimSpace(item.Type))
	if !kind.Valid() {
		return matchevent.Event{}, fmt.Errorf("unknown timeline entry type %q", item.Type)
	}

	event := matchevent.Event{
		ID:         item.ID,
		Kind:       kind,
		Team:       fixture.Side(item.Team),
		Minute:     item.Minute,
		InjuryTime: item.InjuryTime,
		Commentary: item.Commentary,
		RecordedAt: item.RecordedAt,
	}

	switch kind {
	case matchevent.KindGoal, matchevent.KindOwnGoal:
		detail := &matchevent.GoalDetail{
			Scorer: item.Player.toDomain(),
			Type:   matchevent.GoalType(item.GoalType),
		}
		if detail.Type == "" {
			detail.Type = matchevent.GoalTypeRegular
		}
		if item.Assist != nil {
			assist := item.Assist.toDomain()
			detail.Assist = &assist
		}
		event.Goal = detail
	case matchevent.KindSubstitution:
		event.Substitution = &matchevent.SubstitutionDetail{
			PlayerOut: item.PlayerOut.toDomain(),
			PlayerIn:  item.PlayerIn.toDomain(),
			Injury:    item.Injury,
		}
	case matchevent.KindYellowCard, matchevent.KindRedCard:
		event.Card = &matchevent.CardDetail{
			Player: item.Player.toDomain(),
			Type:   matchevent.CardType(item.CardType),
		}
	}

	return event, nil
}

func eventToWire(event matchevent.Event) wireTimelineItem {
	item := wireTimelineItem{
		ID:         event.ID,
		Type:       string(event.Kind),
		Team:       string(event.Team),
		Minute:     event.Minute,
		InjuryTime: event.InjuryTime,
		Commentary: event.Commentary,
		RecordedAt: event.RecordedAt,
	}

	if event.Goal != nil {
		item.Player = refToWire(event.Goal.Scorer)
		item.GoalType = string(event.Goal.Type)
		if event.Goal.Assist != nil {
			item.Assist = refToWire(*event.Goal.Assist)
		}
	}
	if event.Substitution != nil {
		item.PlayerOut = refToWire(event.Substitution.PlayerOut)
		item.PlayerIn = refToWire(event.Substitution.PlayerIn)
		item.Injury = event.Substitution.Injury
	}
	if event.Card != nil {
		item.Player = refToWire(event.Card.Player)
		item.CardType = string(event.Card.Type)
	}

	return item
}

type wireSubstitution struct {
	Team      string `json:"team"`
	Minute    int    `json:"minute"`
	PlayerOut string `json:"playerOut"`
	PlayerIn  string `json:"playerIn"`
	Injury    bool   `json:"injury,omitempty"`
}

type wireLineup struct {
	Formation  string   `json:"formation,omitempty"`
	StartingXI []string `json:"startingXI"`
	Subs       []string `json:"subs"`
	CameOff    []string `json:"cameOff,omitempty"`
}

type wireLineups struct {
	Home wireLineup `json:"home"`
	Away wireLineup `json:"away"`
}

type wireTeamStats struct {
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

type wireStatistics struct {
	Home wireTeamStats `json:"home"`
	Away wireTeamStats `json:"away"`
}

func statsToWire(stats matchevent.Statistics) wireStatistics {
	return wireStatistics{
		Home: teamStatsToWire(stats.Home),
		Away: teamStatsToWire(stats.Away),
	}
}

func teamStatsToWire(counts matchevent.TeamCounts) wireTeamStats {
	return wireTeamStats{
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

type wireTeam struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName,omitempty"`
}

type wirePlayer struct {
	ID          string `json:"id"`
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	ShirtNumber int    `json:"shirtNumber"`
	Position    string `json:"position"`
}

func playersToDomain(teamID string, items []wirePlayer) []player.Player {
	out := make([]player.Player, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		entryTeamID := item.TeamID
		if entryTeamID == "" {
			entryTeamID = teamID
		}
		out = append(out, player.Player{
			ID:          id,
			TeamID:      entryTeamID,
			Name:        item.Name,
			ShirtNumber: item.ShirtNumber,
			Position:    player.Position(strings.ToUpper(strings.TrimSpace(item.Position))),
		})
	}
	return out
}

type liveFixturePayload struct {
	ID            string             `json:"id"`
	Competition   string             `json:"competition,omitempty"`
	Venue         string             `json:"venue,omitempty"`
	KickoffAt     time.Time          `json:"kickoffAt"`
	HomeTeam      wireTeam           `json:"homeTeam"`
	AwayTeam      wireTeam           `json:"awayTeam"`
	Status        string             `json:"status"`
	CurrentMinute int                `json:"currentMinute"`
	InjuryTime    bool               `json:"injuryTime,omitempty"`
	Timeline      []wireTimelineItem `json:"timeline"`
	Substitutions []wireSubstitution `json:"substitutions"`
	Lineups       wireLineups        `json:"lineups"`
	Statistics    wireStatistics     `json:"statistics"`
}

type playersPayload struct {
	Home []wirePlayer `json:"home"`
	Away []wirePlayer `json:"away"`
}

type updateRequest struct {
	Timeline      []wireTimelineItem `json:"timeline"`
	Substitutions []wireSubstitution `json:"substitutions"`
	Lineups       wireLineups        `json:"lineups"`
	Statistics    wireStatistics     `json:"statistics"`
	Status        string             `json:"status"`
	CurrentMinute int                `json:"currentMinute"`
	InjuryTime    bool               `json:"injuryTime,omitempty"`
}

type formationRequest struct {
	HomeLineup wireLineup `json:"homeLineup"`
	AwayLineup wireLineup `json:"awayLineup"`
}

func documentFromPayload(payload liveFixturePayload) (usecase.LiveFixtureDocument, error) {
	events := make([]matchevent.Event, 0, len(payload.Timeline))
	for _, item := range payload.Timeline {
		event, err := timelineItemToDomain(item)
		if err != nil {
			return usecase.LiveFixtureDocument{}, err
		}
		events = append(events, event)
	}

	doc := usecase.LiveFixtureDocument{
		Fixture: fixture.Fixture{
			ID:          payload.ID,
			Competition: payload.Competition,
			Venue:       payload.Venue,
			KickoffAt:   payload.KickoffAt,
			Home: fixture.Team{
				ID:        payload.HomeTeam.ID,
				Name:      payload.HomeTeam.Name,
				ShortName: payload.HomeTeam.ShortName,
			},
			Away: fixture.Team{
				ID:        payload.AwayTeam.ID,
				Name:      payload.AwayTeam.Name,
				ShortName: payload.AwayTeam.ShortName,
			},
			Status: payload.Status,
			Clock: fixture.Clock{
				Minute:     payload.CurrentMinute,
				InjuryTime: payload.InjuryTime,
			},
		},
		HomeLineup: lineup.Snapshot{
			Formation:   payload.Lineups.Home.Formation,
			StartingXI:  payload.Lineups.Home.StartingXI,
			Substitutes: payload.Lineups.Home.Subs,
		},
		AwayLineup: lineup.Snapshot{
			Formation:   payload.Lineups.Away.Formation,
			StartingXI:  payload.Lineups.Away.StartingXI,
			Substitutes: payload.Lineups.Away.Subs,
		},
		Events: events,
	}

	return doc, nil
}

func updateToWire(update usecase.LiveFixtureUpdate) updateRequest {
	timeline := make([]wireTimelineItem, 0, len(update.Timeline))
	for _, event := range update.Timeline {
		timeline = append(timeline, eventToWire(event))
	}

	subs := make([]wireSubstitution, 0, len(update.Substitutions))
	for _, sub := range update.Substitutions {
		subs = append(subs, wireSubstitution{
			Team:      string(sub.Team),
			Minute:    sub.Minute,
			PlayerOut: sub.PlayerOut,
			PlayerIn:  sub.PlayerIn,
			Injury:    sub.Injury,
		})
	}

	return updateRequest{
		Timeline:      timeline,
		Substitutions: subs,
		Lineups: wireLineups{
			Home: stateToWire(update.HomeLineup),
			Away: stateToWire(update.AwayLineup),
		},
		Statistics:    statsToWire(update.Statistics),
		Status:        update.Status,
		CurrentMinute: update.CurrentMinute,
		InjuryTime:    update.InjuryTime,
	}
}

func stateToWire(state lineup.State) wireLineup {
	return wireLineup{
		Formation:  state.Formation,
		StartingXI: emptyIfNil(state.StartingXI),
		Subs:       emptyIfNil(state.Substitutes),
		CameOff:    state.CameOff,
	}
}

func snapshotToWire(snapshot lineup.Snapshot) wireLineup {
	return wireLineup{
		Formation:  snapshot.Formation,
		StartingXI: emptyIfNil(snapshot.StartingXI),
		Subs:       emptyIfNil(snapshot.Substitutes),
	}
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
