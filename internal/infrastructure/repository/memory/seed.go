package memory

import (
	"time"

	"github.com/campus-sports/livematch/internal/domain/fixture"
	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/domain/player"
	"github.com/campus-sports/livematch/internal/usecase"
)

const (
	FixtureIDDerby   = "fx-camp-001"
	FixtureIDOpening = "fx-camp-002"
)

func seedTeamNorth() fixture.Team {
	return fixture.Team{
		ID:        "team-north",
		Name:      "North Campus Wolves",
		ShortName: "NCW",
		Players: []player.Player{
			{ID: "ncw-gk-01", TeamID: "team-north", Name: "Alex Moreno", ShirtNumber: 1, Position: player.PositionGoalkeeper},
			{ID: "ncw-def-01", TeamID: "team-north", Name: "Sam Whitaker", ShirtNumber: 2, Position: player.PositionDefender},
			{ID: "ncw-def-02", TeamID: "team-north", Name: "Jordan Hale", ShirtNumber: 3, Position: player.PositionDefender},
			{ID: "ncw-def-03", TeamID: "team-north", Name: "Chris Adeyemi", ShirtNumber: 4, Position: player.PositionDefender},
			{ID: "ncw-def-04", TeamID: "team-north", Name: "Luca Ferretti", ShirtNumber: 5, Position: player.PositionDefender},
			{ID: "ncw-mid-01", TeamID: "team-north", Name: "Devon Clarke", ShirtNumber: 6, Position: player.PositionMidfielder},
			{ID: "ncw-mid-02", TeamID: "team-north", Name: "Mateo Vargas", ShirtNumber: 8, Position: player.PositionMidfielder},
			{ID: "ncw-mid-03", TeamID: "team-north", Name: "Ibrahim Diallo", ShirtNumber: 10, Position: player.PositionMidfielder},
			{ID: "ncw-fwd-01", TeamID: "team-north", Name: "Ryan Okafor", ShirtNumber: 9, Position: player.PositionForward},
			{ID: "ncw-fwd-02", TeamID: "team-north", Name: "Tom Brennan", ShirtNumber: 11, Position: player.PositionForward},
			{ID: "ncw-fwd-03", TeamID: "team-north", Name: "Kai Nakamura", ShirtNumber: 7, Position: player.PositionForward},
			{ID: "ncw-gk-02", TeamID: "team-north", Name: "Pat Sullivan", ShirtNumber: 13, Position: player.PositionGoalkeeper},
			{ID: "ncw-def-05", TeamID: "team-north", Name: "Owen Richards", ShirtNumber: 14, Position: player.PositionDefender},
			{ID: "ncw-mid-04", TeamID: "team-north", Name: "Felix Braun", ShirtNumber: 16, Position: player.PositionMidfielder},
			{ID: "ncw-mid-05", TeamID: "team-north", Name: "Andre Santos", ShirtNumber: 18, Position: player.PositionMidfielder},
			{ID: "ncw-fwd-04", TeamID: "team-north", Name: "Marcus Bell", ShirtNumber: 20, Position: player.PositionForward},
		},
	}
}

func seedTeamRiverside() fixture.Team {
	return fixture.Team{
		ID:        "team-riverside",
		Name:      "Riverside Falcons",
		ShortName: "RSF",
		Players: []player.Player{
			{ID: "rsf-gk-01", TeamID: "team-riverside", Name: "Daniel Kovac", ShirtNumber: 1, Position: player.PositionGoalkeeper},
			{ID: "rsf-def-01", TeamID: "team-riverside", Name: "Theo Lindgren", ShirtNumber: 2, Position: player.PositionDefender},
			{ID: "rsf-def-02", TeamID: "team-riverside", Name: "Aaron Mensah", ShirtNumber: 4, Position: player.PositionDefender},
			{ID: "rsf-def-03", TeamID: "team-riverside", Name: "Victor Hugo", ShirtNumber: 5, Position: player.PositionDefender},
			{ID: "rsf-def-04", TeamID: "team-riverside", Name: "Ben Carter", ShirtNumber: 3, Position: player.PositionDefender},
			{ID: "rsf-mid-01", TeamID: "team-riverside", Name: "Noah Fischer", ShirtNumber: 6, Position: player.PositionMidfielder},
			{ID: "rsf-mid-02", TeamID: "team-riverside", Name: "Elias Haddad", ShirtNumber: 8, Position: player.PositionMidfielder},
			{ID: "rsf-mid-03", TeamID: "team-riverside", Name: "Janek Novak", ShirtNumber: 10, Position: player.PositionMidfielder},
			{ID: "rsf-mid-04", TeamID: "team-riverside", Name: "Cole Jensen", ShirtNumber: 17, Position: player.PositionMidfielder},
			{ID: "rsf-fwd-01", TeamID: "team-riverside", Name: "Diego Fuentes", ShirtNumber: 9, Position: player.PositionForward},
			{ID: "rsf-fwd-02", TeamID: "team-riverside", Name: "Leo Armand", ShirtNumber: 11, Position: player.PositionForward},
			{ID: "rsf-gk-02", TeamID: "team-riverside", Name: "Milan Petrov", ShirtNumber: 12, Position: player.PositionGoalkeeper},
			{ID: "rsf-def-05", TeamID: "team-riverside", Name: "Hugo Baptiste", ShirtNumber: 15, Position: player.PositionDefender},
			{ID: "rsf-mid-05", TeamID: "team-riverside", Name: "Oscar Reyes", ShirtNumber: 19, Position: player.PositionMidfielder},
			{ID: "rsf-fwd-03", TeamID: "team-riverside", Name: "Adam Szabo", ShirtNumber: 21, Position: player.PositionForward},
		},
	}
}

func startingEleven(team fixture.Team) []string {
	ids := make([]string, 0, lineup.MaxStartingXI)
	for _, p := range team.Players {
		if len(ids) == lineup.MaxStartingXI {
			break
		}
		ids = append(ids, p.ID)
	}
	return ids
}

func benchFrom(team fixture.Team) []string {
	if len(team.Players) <= lineup.MaxStartingXI {
		return nil
	}
	ids := make([]string, 0, len(team.Players)-lineup.MaxStartingXI)
	for _, p := range team.Players[lineup.MaxStartingXI:] {
		ids = append(ids, p.ID)
	}
	return ids
}

// SeedDocuments returns the fixtures served by the in-memory store in dev
// mode: two upcoming fixtures with named lineups and empty timelines.
func SeedDocuments() []usecase.LiveFixtureDocument {
	north := seedTeamNorth()
	riverside := seedTeamRiverside()

	return []usecase.LiveFixtureDocument{
		{
			Fixture: fixture.Fixture{
				ID:          FixtureIDDerby,
				Competition: "University Premier Division",
				Venue:       "North Campus Arena",
				KickoffAt:   time.Date(2026, 9, 5, 18, 30, 0, 0, time.UTC),
				Home:        north,
				Away:        riverside,
				Status:      fixture.StatusUpcoming,
			},
			HomeLineup: lineup.Snapshot{
				Formation:   "4-3-3",
				StartingXI:  startingEleven(north),
				Substitutes: benchFrom(north),
			},
			AwayLineup: lineup.Snapshot{
				Formation:   "4-4-2",
				StartingXI:  startingEleven(riverside),
				Substitutes: benchFrom(riverside),
			},
		},
		{
			Fixture: fixture.Fixture{
				ID:          FixtureIDOpening,
				Competition: "University Premier Division",
				Venue:       "Riverside Park",
				KickoffAt:   time.Date(2026, 9, 12, 15, 0, 0, 0, time.UTC),
				Home:        riverside,
				Away:        north,
				Status:      fixture.StatusUpcoming,
			},
			HomeLineup: lineup.Snapshot{
				Formation:   "4-4-2",
				StartingXI:  startingEleven(riverside),
				Substitutes: benchFrom(riverside),
			},
			AwayLineup: lineup.Snapshot{
				Formation:   "4-3-3",
				StartingXI:  startingEleven(north),
				Substitutes: benchFrom(north),
			},
		},
	}
}
