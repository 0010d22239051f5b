package usecase

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/campus-sports/livematch/internal/domain/fixture"
	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/domain/matchevent"
	"github.com/campus-sports/livematch/internal/platform/id"
)

// AddEventInput is the operator's draft for a new timeline entry.
type AddEventInput struct {
	Kind         matchevent.Kind
	Team         fixture.Side
	Minute       int
	InjuryTime   bool
	Commentary   string
	Goal         *matchevent.GoalDetail
	Substitution *matchevent.SubstitutionDetail
	Card         *matchevent.CardDetail
}

// EventPatch mutates minute, injury-time flag, commentary and player
// references of an existing event. The kind is immutable; changing it is
// delete-and-re-add.
type EventPatch struct {
	Minute       *int
	InjuryTime   *bool
	Commentary   *string
	Goal         *matchevent.GoalDetail
	Substitution *matchevent.SubstitutionDetail
	Card         *matchevent.CardDetail
}

// Ledger owns the ordered event list and the derived lineup state for one
// fixture. Every operation is synchronous; validation failures never mutate
// state. Lineups are recomputed by full replay of the substitution
// subsequence after any mutation that touches it.
type Ledger struct {
	mu sync.Mutex

	fixture     fixture.Fixture
	rules       lineup.Rules
	initialHome lineup.Snapshot
	initialAway lineup.Snapshot

	events []matchevent.Event
	home   lineup.State
	away   lineup.State

	idGen id.Generator
	now   func() time.Time
}

func NewLedger(fx fixture.Fixture, home, away lineup.Snapshot, rules lineup.Rules, gen id.Generator) (*Ledger, error) {
	if fx.ID == "" {
		return nil, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}
	if gen == nil {
		gen = id.NewRandomGenerator()
	}
	if err := home.Validate(fx.Home.RosterIDs(), rules); err != nil {
		return nil, fmt.Errorf("home lineup: %w", err)
	}
	if err := away.Validate(fx.Away.RosterIDs(), rules); err != nil {
		return nil, fmt.Errorf("away lineup: %w", err)
	}

	l := &Ledger{
		fixture:     fx,
		rules:       rules,
		initialHome: home,
		initialAway: away,
		idGen:       gen,
		now:         time.Now,
	}

	var err error
	if l.home, l.away, err = l.replay(nil); err != nil {
		return nil, err
	}

	return l, nil
}

// Seed loads an already-persisted timeline into an empty ledger, validating
// every entry and replaying the substitution sequence.
func (l *Ledger) Seed(events []matchevent.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.events) > 0 {
		return fmt.Errorf("%w: ledger already holds events", ErrInvalidInput)
	}

	seeded := make([]matchevent.Event, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e.ID == "" {
			return fmt.Errorf("%w: seeded event is missing an id", ErrInvalidInput)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate event id %s", ErrInvalidInput, e.ID)
		}
		seen[e.ID] = struct{}{}
		if err := e.Validate(); err != nil {
			return err
		}
		if err := l.checkRoster(e); err != nil {
			return err
		}
		seeded = append(seeded, e)
	}

	home, away, err := l.replay(seeded)
	if err != nil {
		return err
	}

	l.events = seeded
	l.home, l.away = home, away
	return nil
}

func (l *Ledger) FixtureID() string {
	return l.fixture.ID
}

func (l *Ledger) Fixture() fixture.Fixture {
	return l.fixture
}

// AddEvent validates the draft against the roster, the card history and the
// current lineup state, then appends it with a freshly assigned id.
func (l *Ledger) AddEvent(input AddEventInput) (matchevent.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := matchevent.Event{
		Kind:         input.Kind,
		Team:         input.Team,
		Minute:       input.Minute,
		InjuryTime:   input.InjuryTime,
		Commentary:   input.Commentary,
		Goal:         input.Goal,
		Substitution: input.Substitution,
		Card:         input.Card,
	}
	if err := event.Validate(); err != nil {
		return matchevent.Event{}, err
	}
	if err := l.checkRoster(event); err != nil {
		return matchevent.Event{}, err
	}
	if err := l.checkCardHistory(event, l.events); err != nil {
		return matchevent.Event{}, err
	}

	candidate := append(copyEvents(l.events), event)
	home, away, err := l.replay(candidate)
	if err != nil {
		return matchevent.Event{}, err
	}

	eventID, err := l.idGen.NewID()
	if err != nil {
		return matchevent.Event{}, fmt.Errorf("assign event id: %w", err)
	}
	event.ID = eventID
	event.RecordedAt = l.now().UTC()
	candidate[len(candidate)-1] = event

	l.events = candidate
	l.home, l.away = home, away
	return event, nil
}

// EditEvent applies the patch to an existing event. A substitution edit is
// re-validated as if the original were reverted and the patched event added
// fresh: the whole substitution sequence is replayed with the replacement in
// place.
func (l *Ledger) EditEvent(eventID string, patch EventPatch) (matchevent.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(eventID)
	if idx < 0 {
		return matchevent.Event{}, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}

	updated := l.events[idx]
	if patch.Minute != nil {
		updated.Minute = *patch.Minute
	}
	if patch.InjuryTime != nil {
		updated.InjuryTime = *patch.InjuryTime
	}
	if patch.Commentary != nil {
		updated.Commentary = *patch.Commentary
	}
	if patch.Goal != nil {
		if updated.Kind != matchevent.KindGoal && updated.Kind != matchevent.KindOwnGoal {
			return matchevent.Event{}, fmt.Errorf("%w: goal details do not apply to %s", ErrInvalidInput, updated.Kind)
		}
		updated.Goal = patch.Goal
	}
	if patch.Substitution != nil {
		if updated.Kind != matchevent.KindSubstitution {
			return matchevent.Event{}, fmt.Errorf("%w: substitution details do not apply to %s", ErrInvalidInput, updated.Kind)
		}
		updated.Substitution = patch.Substitution
	}
	if patch.Card != nil {
		if updated.Kind != matchevent.KindYellowCard && updated.Kind != matchevent.KindRedCard {
			return matchevent.Event{}, fmt.Errorf("%w: card details do not apply to %s", ErrInvalidInput, updated.Kind)
		}
		updated.Card = patch.Card
	}

	if err := updated.Validate(); err != nil {
		return matchevent.Event{}, err
	}
	if err := l.checkRoster(updated); err != nil {
		return matchevent.Event{}, err
	}

	candidate := copyEvents(l.events)
	candidate[idx] = updated
	if err := l.checkCardHistory(updated, withoutIndex(candidate, idx)); err != nil {
		return matchevent.Event{}, err
	}

	home, away, err := l.replay(candidate)
	if err != nil {
		return matchevent.Event{}, err
	}

	l.events = candidate
	l.home, l.away = home, away
	return updated, nil
}

// DeleteEvent removes the event. Removing a substitution replays the
// remaining sequence; a deletion that would strand a later substitution
// fails instead of leaving the lineup inconsistent.
func (l *Ledger) DeleteEvent(eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(eventID)
	if idx < 0 {
		return fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}

	candidate := withoutIndex(copyEvents(l.events), idx)
	home, away, err := l.replay(candidate)
	if err != nil {
		return err
	}

	l.events = candidate
	l.home, l.away = home, away
	return nil
}

// Timeline returns the events sorted by minute descending, most recent
// first. Events at the same minute keep the order they were recorded in.
func (l *Ledger) Timeline() []matchevent.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := copyEvents(l.events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Minute > out[j].Minute })
	return out
}

// Events returns the timeline in insertion order, the order persisted to the
// backend.
func (l *Ledger) Events() []matchevent.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyEvents(l.events)
}

func (l *Ledger) Lineup(side fixture.Side) (lineup.State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch side {
	case fixture.SideHome:
		return copyState(l.home), nil
	case fixture.SideAway:
		return copyState(l.away), nil
	default:
		return lineup.State{}, fmt.Errorf("%w: unknown team side %q", ErrInvalidInput, side)
	}
}

// Substitutions returns the derived substitution records for one side in
// minute order.
func (l *Ledger) Substitutions(side fixture.Side) []lineup.Substitution {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := substitutionsFor(l.events, side)
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Minute < subs[j].Minute })
	return subs
}

func (l *Ledger) Statistics() matchevent.Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return matchevent.DeriveStatistics(l.events)
}

// SetLineup replaces one side's initial lineup snapshot, for formation saves
// made independently of the event timeline. The recorded substitution
// sequence must still replay cleanly against the new snapshot.
func (l *Ledger) SetLineup(side fixture.Side, snapshot lineup.Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	team, err := l.fixture.Team(side)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := snapshot.Validate(team.RosterIDs(), l.rules); err != nil {
		return err
	}

	prevHome, prevAway := l.initialHome, l.initialAway
	if side == fixture.SideHome {
		l.initialHome = snapshot
	} else {
		l.initialAway = snapshot
	}

	home, away, err := l.replay(l.events)
	if err != nil {
		l.initialHome, l.initialAway = prevHome, prevAway
		return err
	}

	l.home, l.away = home, away
	return nil
}

func (l *Ledger) InitialLineup(side fixture.Side) lineup.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if side == fixture.SideAway {
		return l.initialAway
	}
	return l.initialHome
}

func (l *Ledger) indexOf(eventID string) int {
	for i, e := range l.events {
		if e.ID == eventID {
			return i
		}
	}
	return -1
}

// replay recomputes both lineup states from the initial snapshots and the
// substitution subsequence of the given event list.
func (l *Ledger) replay(events []matchevent.Event) (lineup.State, lineup.State, error) {
	home, err := lineup.Replay(l.initialHome, substitutionsFor(events, fixture.SideHome))
	if err != nil {
		return lineup.State{}, lineup.State{}, err
	}
	away, err := lineup.Replay(l.initialAway, substitutionsFor(events, fixture.SideAway))
	if err != nil {
		return lineup.State{}, lineup.State{}, err
	}
	return home, away, nil
}

func (l *Ledger) checkRoster(e matchevent.Event) error {
	if e.Kind.PhaseMarker() {
		return nil
	}
	team, err := l.fixture.Team(e.Team)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for _, ref := range e.PlayerRefs() {
		if !ref.Rostered() {
			continue
		}
		if !team.HasPlayer(ref.PlayerID) {
			return fmt.Errorf("%w: player %s is not rostered for the %s team", matchevent.ErrUnknownPlayer, ref.PlayerID, e.Team)
		}
	}

	// Lineup membership is tracked by roster id, so temporary free-text
	// names cannot take part in a substitution.
	if e.Substitution != nil {
		if !e.Substitution.PlayerOut.Rostered() || !e.Substitution.PlayerIn.Rostered() {
			return fmt.Errorf("%w: substitution players must be on the roster", matchevent.ErrInvalidSubstitution)
		}
	}

	return nil
}

// checkCardHistory validates a declared second yellow against the prior
// events: the same player must already hold a yellow card. The ledger never
// auto-derives the escalation; the operator declares it.
func (l *Ledger) checkCardHistory(e matchevent.Event, prior []matchevent.Event) error {
	if e.Kind != matchevent.KindRedCard || e.Card == nil || e.Card.Type != matchevent.CardTypeSecondYellow {
		return nil
	}

	for _, other := range prior {
		if other.Kind != matchevent.KindYellowCard || other.Team != e.Team || other.Card == nil {
			continue
		}
		if other.Card.Player.Same(e.Card.Player) {
			return nil
		}
	}

	return fmt.Errorf("%w: no prior yellow card recorded for the player", matchevent.ErrInconsistentCardHistory)
}

func substitutionsFor(events []matchevent.Event, side fixture.Side) []lineup.Substitution {
	var subs []lineup.Substitution
	for _, e := range events {
		if e.Kind != matchevent.KindSubstitution || e.Team != side || e.Substitution == nil {
			continue
		}
		subs = append(subs, lineup.Substitution{
			Minute:    e.Minute,
			PlayerOut: e.Substitution.PlayerOut.PlayerID,
			PlayerIn:  e.Substitution.PlayerIn.PlayerID,
			Injury:    e.Substitution.Injury,
		})
	}
	return subs
}

func copyEvents(events []matchevent.Event) []matchevent.Event {
	out := make([]matchevent.Event, len(events))
	copy(out, events)
	return out
}

func copyState(s lineup.State) lineup.State {
	return lineup.State{
		Formation:   s.Formation,
		StartingXI:  append([]string(nil), s.StartingXI...),
		Substitutes: append([]string(nil), s.Substitutes...),
		CameOff:     append([]string(nil), s.CameOff...),
	}
}

func withoutIndex(events []matchevent.Event, idx int) []matchevent.Event {
	out := make([]matchevent.Event, 0, len(events)-1)
	out = append(out, events[:idx]...)
	out = append(out, events[idx+1:]...)
	return out
}
