package lineup

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidLineup       = errors.New("invalid lineup")
	ErrInvalidSubstitution = errors.New("invalid substitution")
)

// MaxStartingXI bounds the starting lineup for association football.
const MaxStartingXI = 11

// Rules stores lineup validation parameters that vary by competition.
type Rules struct {
	// MaxBench bounds the named substitutes bench (7-10 depending on
	// competition regulations).
	MaxBench int
}

func DefaultRules() Rules {
	return Rules{MaxBench: 9}
}

// Snapshot is the immutable initial lineup a team declared before kickoff.
// Replaying the substitution sequence against it yields the current State.
type Snapshot struct {
	Formation   string
	StartingXI  []string
	Substitutes []string
}

// Validate checks the snapshot against the team roster: bounded sizes, no
// duplicates, starters and bench disjoint, every id rostered.
func (s Snapshot) Validate(roster map[string]struct{}, rules Rules) error {
	if len(s.StartingXI) > MaxStartingXI {
		return fmt.Errorf("%w: starting XI has %d players, max %d", ErrInvalidLineup, len(s.StartingXI), MaxStartingXI)
	}
	maxBench := rules.MaxBench
	if maxBench <= 0 {
		maxBench = DefaultRules().MaxBench
	}
	if len(s.Substitutes) > maxBench {
		return fmt.Errorf("%w: bench has %d players, max %d", ErrInvalidLineup, len(s.Substitutes), maxBench)
	}

	seen := make(map[string]struct{}, len(s.StartingXI)+len(s.Substitutes))
	for _, id := range s.StartingXI {
		if id == "" {
			return fmt.Errorf("%w: starter player id cannot be empty", ErrInvalidLineup)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate player id %s", ErrInvalidLineup, id)
		}
		seen[id] = struct{}{}
		if _, ok := roster[id]; !ok {
			return fmt.Errorf("%w: starter %s is not on the roster", ErrInvalidLineup, id)
		}
	}
	for _, id := range s.Substitutes {
		if id == "" {
			return fmt.Errorf("%w: substitute player id cannot be empty", ErrInvalidLineup)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: player %s appears in both starting XI and bench", ErrInvalidLineup, id)
		}
		seen[id] = struct{}{}
		if _, ok := roster[id]; !ok {
			return fmt.Errorf("%w: substitute %s is not on the roster", ErrInvalidLineup, id)
		}
	}

	return nil
}

// Substitution is the derived record of one substitution event, ordered by
// minute when replayed.
type Substitution struct {
	Minute    int
	PlayerOut string
	PlayerIn  string
	Injury    bool
}

// State is the current derived lineup for one team. The three sets are
// mutually disjoint; a player who came off stays unavailable for the rest
// of the match.
type State struct {
	Formation   string
	StartingXI  []string
	Substitutes []string
	CameOff     []string
}

func (s State) InStartingXI(id string) bool { return contains(s.StartingXI, id) }
func (s State) OnBench(id string) bool      { return contains(s.Substitutes, id) }
func (s State) HasComeOff(id string) bool   { return contains(s.CameOff, id) }

// CanComeOn reports whether a player is available to enter the pitch: not
// currently fielded and not already substituted out. Bench players are
// available; coming on removes them from the bench.
func (s State) CanComeOn(id string) bool {
	return !s.InStartingXI(id) && !s.HasComeOff(id)
}

// Replay recomputes the current state by applying the substitution sequence
// in minute order (stable for equal minutes) to the initial snapshot. The
// full replay runs after every mutation instead of patching incrementally;
// event counts per match are small and replay cannot drift.
func Replay(initial Snapshot, subs []Substitution) (State, error) {
	state := State{
		Formation:   initial.Formation,
		StartingXI:  append([]string(nil), initial.StartingXI...),
		Substitutes: append([]string(nil), initial.Substitutes...),
	}

	ordered := append([]Substitution(nil), subs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Minute < ordered[j].Minute })

	for _, sub := range ordered {
		if sub.PlayerOut == sub.PlayerIn {
			return State{}, fmt.Errorf("%w: player %s cannot replace themselves", ErrInvalidSubstitution, sub.PlayerOut)
		}
		if !state.InStartingXI(sub.PlayerOut) {
			return State{}, fmt.Errorf("%w: player %s is not on the pitch at minute %d", ErrInvalidSubstitution, sub.PlayerOut, sub.Minute)
		}
		if !state.CanComeOn(sub.PlayerIn) {
			return State{}, fmt.Errorf("%w: player %s is not available at minute %d", ErrInvalidSubstitution, sub.PlayerIn, sub.Minute)
		}

		state.StartingXI = remove(state.StartingXI, sub.PlayerOut)
		state.Substitutes = remove(state.Substitutes, sub.PlayerIn)
		state.StartingXI = append(state.StartingXI, sub.PlayerIn)
		state.CameOff = append(state.CameOff, sub.PlayerOut)
	}

	return state, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
