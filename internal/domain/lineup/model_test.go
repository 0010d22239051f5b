package lineup

import (
	"errors"
	"testing"
)

func testRoster(ids ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func TestSnapshotValidate(t *testing.T) {
	roster := testRoster("p-1", "p-2", "p-3", "p-4", "p-5")
	rules := Rules{MaxBench: 3}

	snap := Snapshot{
		Formation:   "4-4-2",
		StartingXI:  []string{"p-1", "p-2"},
		Substitutes: []string{"p-3", "p-4"},
	}
	if err := snap.Validate(roster, rules); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}
}

func TestSnapshotValidate_Rejections(t *testing.T) {
	roster := testRoster("p-1", "p-2", "p-3")

	cases := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "unrostered starter",
			snap: Snapshot{StartingXI: []string{"p-1", "p-99"}},
		},
		{
			name: "unrostered substitute",
			snap: Snapshot{StartingXI: []string{"p-1"}, Substitutes: []string{"p-99"}},
		},
		{
			name: "duplicate starter",
			snap: Snapshot{StartingXI: []string{"p-1", "p-1"}},
		},
		{
			name: "starter also on bench",
			snap: Snapshot{StartingXI: []string{"p-1"}, Substitutes: []string{"p-1"}},
		},
		{
			name: "empty player id",
			snap: Snapshot{StartingXI: []string{""}},
		},
		{
			name: "oversized starting XI",
			snap: Snapshot{StartingXI: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.snap.Validate(roster, DefaultRules()); !errors.Is(err, ErrInvalidLineup) {
				t.Fatalf("expected invalid lineup, got %v", err)
			}
		})
	}
}

func TestSnapshotValidate_BenchBound(t *testing.T) {
	roster := testRoster("p-1", "p-2", "p-3", "p-4")
	snap := Snapshot{Substitutes: []string{"p-1", "p-2", "p-3"}}

	if err := snap.Validate(roster, Rules{MaxBench: 2}); !errors.Is(err, ErrInvalidLineup) {
		t.Fatalf("expected bench overflow rejection, got %v", err)
	}
	if err := snap.Validate(roster, Rules{MaxBench: 3}); err != nil {
		t.Fatalf("bench within bound rejected: %v", err)
	}
	// Zero means competition default, not an empty bench.
	if err := snap.Validate(roster, Rules{}); err != nil {
		t.Fatalf("default bench bound rejected: %v", err)
	}
}

func TestReplay_AppliesSubstitutionsInMinuteOrder(t *testing.T) {
	initial := Snapshot{
		Formation:   "4-3-3",
		StartingXI:  []string{"p-1", "p-2", "p-3"},
		Substitutes: []string{"p-11", "p-12"},
	}
	// Deliberately out of order; replay must sort by minute.
	subs := []Substitution{
		{Minute: 80, PlayerOut: "p-11", PlayerIn: "p-12"},
		{Minute: 55, PlayerOut: "p-2", PlayerIn: "p-11"},
	}

	state, err := Replay(initial, subs)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if !state.InStartingXI("p-12") || state.InStartingXI("p-11") || state.InStartingXI("p-2") {
		t.Fatalf("unexpected pitch set: %v", state.StartingXI)
	}
	if len(state.Substitutes) != 0 {
		t.Fatalf("bench should be empty, got %v", state.Substitutes)
	}
	if !state.HasComeOff("p-2") || !state.HasComeOff("p-11") {
		t.Fatalf("came-off set wrong: %v", state.CameOff)
	}
	if state.Formation != "4-3-3" {
		t.Fatalf("formation should carry over, got %q", state.Formation)
	}
}

func TestReplay_IsDeterministic(t *testing.T) {
	initial := Snapshot{
		StartingXI:  []string{"p-1", "p-2"},
		Substitutes: []string{"p-11", "p-12"},
	}
	subs := []Substitution{
		{Minute: 60, PlayerOut: "p-1", PlayerIn: "p-11"},
		{Minute: 75, PlayerOut: "p-2", PlayerIn: "p-12"},
	}

	first, err := Replay(initial, subs)
	if err != nil {
		t.Fatalf("first replay failed: %v", err)
	}
	second, err := Replay(initial, subs)
	if err != nil {
		t.Fatalf("second replay failed: %v", err)
	}

	if len(first.StartingXI) != len(second.StartingXI) {
		t.Fatalf("replays disagree: %v vs %v", first.StartingXI, second.StartingXI)
	}
	for i := range first.StartingXI {
		if first.StartingXI[i] != second.StartingXI[i] {
			t.Fatalf("replays disagree at %d: %v vs %v", i, first.StartingXI, second.StartingXI)
		}
	}

	// The input slices must stay untouched.
	if initial.StartingXI[0] != "p-1" || initial.Substitutes[0] != "p-11" {
		t.Fatalf("replay mutated the snapshot: %+v", initial)
	}
	if subs[0].Minute != 60 {
		t.Fatalf("replay mutated the substitution list: %+v", subs)
	}
}

func TestReplay_RejectsPlayerNotOnPitch(t *testing.T) {
	initial := Snapshot{StartingXI: []string{"p-1"}, Substitutes: []string{"p-11"}}
	_, err := Replay(initial, []Substitution{{Minute: 50, PlayerOut: "p-99", PlayerIn: "p-11"}})
	if !errors.Is(err, ErrInvalidSubstitution) {
		t.Fatalf("expected invalid substitution, got %v", err)
	}
}

func TestReplay_RejectsReturningPlayer(t *testing.T) {
	initial := Snapshot{StartingXI: []string{"p-1", "p-2"}, Substitutes: []string{"p-11"}}
	subs := []Substitution{
		{Minute: 50, PlayerOut: "p-1", PlayerIn: "p-11"},
		{Minute: 70, PlayerOut: "p-2", PlayerIn: "p-1"},
	}
	_, err := Replay(initial, subs)
	if !errors.Is(err, ErrInvalidSubstitution) {
		t.Fatalf("substituted player must not come back on, got %v", err)
	}
}

func TestReplay_RejectsFieldedPlayerComingOn(t *testing.T) {
	initial := Snapshot{StartingXI: []string{"p-1", "p-2"}, Substitutes: []string{"p-11"}}
	_, err := Replay(initial, []Substitution{{Minute: 50, PlayerOut: "p-1", PlayerIn: "p-2"}})
	if !errors.Is(err, ErrInvalidSubstitution) {
		t.Fatalf("fielded player must not come on again, got %v", err)
	}
}

func TestReplay_AllowsUnbenchedRosterPlayer(t *testing.T) {
	// A player outside the named bench can still come on; roster membership
	// is checked by the ledger, not the replay.
	initial := Snapshot{StartingXI: []string{"p-1"}, Substitutes: []string{"p-11"}}
	state, err := Replay(initial, []Substitution{{Minute: 50, PlayerOut: "p-1", PlayerIn: "p-20"}})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !state.InStartingXI("p-20") {
		t.Fatalf("expected p-20 on the pitch, got %v", state.StartingXI)
	}
	if !state.OnBench("p-11") {
		t.Fatalf("bench should keep p-11, got %v", state.Substitutes)
	}
}
