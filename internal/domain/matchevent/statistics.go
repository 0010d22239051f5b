package matchevent

import "github.com/campus-sports/livematch/internal/domain/fixture"

// TeamCounts holds the per-team counters derived from the event list.
type TeamCounts struct {
	Goals             int
	Corners           int
	Offsides          int
	YellowCards       int
	RedCards          int
	PenaltiesAwarded  int
	PenaltiesMissed   int
	PenaltiesSaved    int
	SubstitutionsUsed int
}

// Statistics is a pure fold over the timeline; it is recomputed on demand
// rather than patched incrementally, the same strategy the lineup replay
// uses.
type Statistics struct {
	Home TeamCounts
	Away TeamCounts
}

// DeriveStatistics computes per-team counters from the ordered event list.
// An own goal, whether recorded as an own-goal event or a goal with the
// own-goal type, credits the opposing side's score while the card/discipline
// counters stay with the declared team.
func DeriveStatistics(events []Event) Statistics {
	var stats Statistics
	bump := func(side fixture.Side, apply func(*TeamCounts)) {
		if !side.Valid() {
			return
		}
		if side == fixture.SideHome {
			apply(&stats.Home)
		} else {
			apply(&stats.Away)
		}
	}

	for _, e := range events {
		switch e.Kind {
		case KindGoal:
			creditSide := e.Team
			if e.Goal != nil && e.Goal.Type == GoalTypeOwnGoal {
				creditSide = e.Team.Opposite()
			}
			bump(creditSide, func(c *TeamCounts) { c.Goals++ })
		case KindOwnGoal:
			bump(e.Team.Opposite(), func(c *TeamCounts) { c.Goals++ })
		case KindCorner:
			bump(e.Team, func(c *TeamCounts) { c.Corners++ })
		case KindOffside:
			bump(e.Team, func(c *TeamCounts) { c.Offsides++ })
		case KindYellowCard:
			bump(e.Team, func(c *TeamCounts) { c.YellowCards++ })
		case KindRedCard:
			bump(e.Team, func(c *TeamCounts) { c.RedCards++ })
		case KindPenaltyAwarded:
			bump(e.Team, func(c *TeamCounts) { c.PenaltiesAwarded++ })
		case KindPenaltyMissed:
			bump(e.Team, func(c *TeamCounts) { c.PenaltiesMissed++ })
		case KindPenaltySaved:
			bump(e.Team, func(c *TeamCounts) { c.PenaltiesSaved++ })
		case KindSubstitution:
			bump(e.Team, func(c *TeamCounts) { c.SubstitutionsUsed++ })
		}
	}

	return stats
}
