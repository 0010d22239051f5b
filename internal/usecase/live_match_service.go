package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/campus-sports/livematch/internal/domain/fixture"
	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/domain/matchevent"
	"github.com/campus-sports/livematch/internal/platform/id"
)

// LiveFixtureDocument is the persisted state of one live fixture as the
// backend returns it.
type LiveFixtureDocument struct {
	Fixture    fixture.Fixture
	HomeLineup lineup.Snapshot
	AwayLineup lineup.Snapshot
	Events     []matchevent.Event
}

// SubstitutionEntry is one row of the flat substitutions list the backend
// stores alongside the timeline.
type SubstitutionEntry struct {
	Team      fixture.Side
	Minute    int
	PlayerOut string
	PlayerIn  string
	Injury    bool
}

// LiveFixtureUpdate is the full document pushed to the backend after a
// committed local mutation.
type LiveFixtureUpdate struct {
	Timeline      []matchevent.Event
	Substitutions []SubstitutionEntry
	HomeLineup    lineup.State
	AwayLineup    lineup.State
	Statistics    matchevent.Statistics
	Status        string
	CurrentMinute int
	InjuryTime    bool
}

// FormationUpdate persists lineup changes independently of the full match
// update.
type FormationUpdate struct {
	Home lineup.Snapshot
	Away lineup.Snapshot
}

// LiveFixtureStore is the persistence boundary to the live-fixtures backend.
type LiveFixtureStore interface {
	FetchLiveFixture(ctx context.Context, fixtureID string) (LiveFixtureDocument, error)
	FetchRosters(ctx context.Context, fixtureID string) (home fixture.Team, away fixture.Team, err error)
	UpdateLiveFixture(ctx context.Context, fixtureID string, update LiveFixtureUpdate) error
	UpdateFormation(ctx context.Context, fixtureID string, update FormationUpdate) error
}

// FixtureSnapshot is the read view pushed to subscribers after every
// committed mutation.
type FixtureSnapshot struct {
	FixtureID     string
	Status        string
	CurrentMinute int
	InjuryTime    bool
	Timeline      []matchevent.Event
	HomeLineup    lineup.State
	AwayLineup    lineup.State
	Statistics    matchevent.Statistics
}

// SnapshotBroadcaster fans a fresh fixture snapshot out to live subscribers.
type SnapshotBroadcaster interface {
	BroadcastFixture(fixtureID string, snapshot FixtureSnapshot)
}

type ledgerEntry struct {
	// mu serializes mutations for one fixture, mirroring the one-operator-
	// per-fixture session model.
	mu sync.Mutex

	ledger *Ledger
	status string
	clock  fixture.Clock
	// dirty marks local state that the backend has not acknowledged; the
	// next commit or reconcile run retries the write.
	dirty bool
}

// LiveMatchService owns one ledger per tracked fixture: it seeds ledgers
// from the backend, applies operator commands and persists the full document
// after every committed mutation. A failed persist leaves local state
// authoritative and is reported to the caller.
type LiveMatchService struct {
	store       LiveFixtureStore
	broadcaster SnapshotBroadcaster
	rules       lineup.Rules
	idGen       id.Generator
	logger      *slog.Logger

	mu      sync.RWMutex
	entries map[string]*ledgerEntry
}

func NewLiveMatchService(store LiveFixtureStore, rules lineup.Rules, gen id.Generator, logger *slog.Logger) *LiveMatchService {
	if logger == nil {
		logger = slog.Default()
	}
	if gen == nil {
		gen = id.NewRandomGenerator()
	}

	return &LiveMatchService{
		store:   store,
		rules:   rules,
		idGen:   gen,
		logger:  logger,
		entries: make(map[string]*ledgerEntry),
	}
}

// SetBroadcaster attaches the snapshot fan-out; nil disables broadcasting.
func (s *LiveMatchService) SetBroadcaster(b SnapshotBroadcaster) {
	s.broadcaster = b
}

// Open seeds (or re-seeds) the ledger for a fixture from the backend.
func (s *LiveMatchService) Open(ctx context.Context, fixtureID string) (FixtureSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.Open")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return FixtureSnapshot{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	entry, err := s.seed(ctx, fixtureID)
	if err != nil {
		return FixtureSnapshot{}, err
	}

	s.mu.Lock()
	s.entries[fixtureID] = entry
	s.mu.Unlock()

	return s.snapshot(fixtureID, entry), nil
}

// Tracked lists the fixture ids with an open ledger.
func (s *LiveMatchService) Tracked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.entries))
	for fixtureID := range s.entries {
		out = append(out, fixtureID)
	}
	return out
}

func (s *LiveMatchService) AddEvent(ctx context.Context, fixtureID string, input AddEventInput) (matchevent.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.AddEvent")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return matchevent.Event{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if fixture.IsCompletedStatus(entry.status) {
		return matchevent.Event{}, fmt.Errorf("%w: fixture %s is completed", ErrInvalidInput, fixtureID)
	}

	event, err := entry.ledger.AddEvent(input)
	if err != nil {
		return matchevent.Event{}, err
	}

	s.applyPhase(entry, event)
	if event.Minute > entry.clock.Minute {
		entry.clock = fixture.Clock{Minute: event.Minute, InjuryTime: event.InjuryTime}
	}

	return event, s.persist(ctx, fixtureID, entry)
}

func (s *LiveMatchService) EditEvent(ctx context.Context, fixtureID, eventID string, patch EventPatch) (matchevent.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.EditEvent")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return matchevent.Event{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	event, err := entry.ledger.EditEvent(eventID, patch)
	if err != nil {
		return matchevent.Event{}, err
	}

	entry.status = s.deriveStatus(entry)
	return event, s.persist(ctx, fixtureID, entry)
}

func (s *LiveMatchService) DeleteEvent(ctx context.Context, fixtureID, eventID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.DeleteEvent")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.ledger.DeleteEvent(eventID); err != nil {
		return err
	}

	entry.status = s.deriveStatus(entry)
	return s.persist(ctx, fixtureID, entry)
}

func (s *LiveMatchService) Timeline(ctx context.Context, fixtureID string) ([]matchevent.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.Timeline")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	return entry.ledger.Timeline(), nil
}

func (s *LiveMatchService) Lineup(ctx context.Context, fixtureID string, side fixture.Side) (lineup.State, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.Lineup")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return lineup.State{}, err
	}
	return entry.ledger.Lineup(side)
}

func (s *LiveMatchService) Statistics(ctx context.Context, fixtureID string) (matchevent.Statistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.Statistics")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return matchevent.Statistics{}, err
	}
	return entry.ledger.Statistics(), nil
}

func (s *LiveMatchService) Snapshot(ctx context.Context, fixtureID string) (FixtureSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.Snapshot")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return FixtureSnapshot{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.snapshot(fixtureID, entry), nil
}

// SetClock records the operator's match clock and persists it with the rest
// of the document.
func (s *LiveMatchService) SetClock(ctx context.Context, fixtureID string, clock fixture.Clock) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.SetClock")
	defer span.End()

	if clock.Minute < matchevent.MinMinute || clock.Minute > matchevent.MaxMinute {
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidInput, clock.Minute)
	}

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.clock = clock
	return s.persist(ctx, fixtureID, entry)
}

// SaveFormation replaces both initial lineup snapshots and persists them via
// the dedicated formation endpoint.
func (s *LiveMatchService) SaveFormation(ctx context.Context, fixtureID string, home, away lineup.Snapshot) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.SaveFormation")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	prevHome := entry.ledger.InitialLineup(fixture.SideHome)
	if err := entry.ledger.SetLineup(fixture.SideHome, home); err != nil {
		return err
	}
	if err := entry.ledger.SetLineup(fixture.SideAway, away); err != nil {
		// The away snapshot was rejected; put the home side back so the
		// ledger does not keep a half-applied formation.
		_ = entry.ledger.SetLineup(fixture.SideHome, prevHome)
		return err
	}

	update := FormationUpdate{Home: home, Away: away}
	if err := s.store.UpdateFormation(ctx, fixtureID, update); err != nil {
		entry.dirty = true
		s.logger.ErrorContext(ctx, "formation persist failed", "fixture_id", fixtureID, "error", err)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	s.broadcast(fixtureID, entry)
	return nil
}

// CommitPending re-pushes the local document for a fixture whose last
// persist failed.
func (s *LiveMatchService) CommitPending(ctx context.Context, fixtureID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.CommitPending")
	defer span.End()

	entry, err := s.entry(ctx, fixtureID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.dirty {
		return nil
	}
	return s.persist(ctx, fixtureID, entry)
}

// Dirty reports whether the fixture has local state the backend has not
// acknowledged.
func (s *LiveMatchService) Dirty(fixtureID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[fixtureID]
	return ok && entry.dirty
}

// Reload discards local state for a fixture and re-seeds from the backend.
// Dirty fixtures are not reloaded; their pending local state would be lost.
func (s *LiveMatchService) Reload(ctx context.Context, fixtureID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveMatchService.Reload")
	defer span.End()

	s.mu.RLock()
	existing, ok := s.entries[fixtureID]
	s.mu.RUnlock()
	if ok && existing.dirty {
		return fmt.Errorf("%w: fixture %s has unpersisted local changes", ErrInvalidInput, fixtureID)
	}

	entry, err := s.seed(ctx, fixtureID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[fixtureID] = entry
	s.mu.Unlock()
	return nil
}

func (s *LiveMatchService) seed(ctx context.Context, fixtureID string) (*ledgerEntry, error) {
	home, away, err := s.store.FetchRosters(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("fetch rosters fixture=%s: %w", fixtureID, err)
	}

	doc, err := s.store.FetchLiveFixture(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("fetch live fixture=%s: %w", fixtureID, err)
	}

	fx := doc.Fixture
	fx.ID = fixtureID
	fx.Home.Players = home.Players
	fx.Away.Players = away.Players

	ledger, err := NewLedger(fx, doc.HomeLineup, doc.AwayLineup, s.rules, s.idGen)
	if err != nil {
		return nil, err
	}
	if err := ledger.Seed(doc.Events); err != nil {
		return nil, fmt.Errorf("seed fixture=%s: %w", fixtureID, err)
	}

	return &ledgerEntry{
		ledger: ledger,
		status: fixture.NormalizeStatus(fx.Status),
		clock:  fx.Clock,
	}, nil
}

// entry returns the open ledger for a fixture, seeding it lazily on first
// access.
func (s *LiveMatchService) entry(ctx context.Context, fixtureID string) (*ledgerEntry, error) {
	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return nil, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	s.mu.RLock()
	entry, ok := s.entries[fixtureID]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}

	seeded, err := s.seed(ctx, fixtureID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[fixtureID]; ok {
		return existing, nil
	}
	s.entries[fixtureID] = seeded
	return seeded, nil
}

// applyPhase moves the fixture status along with recorded phase markers.
func (s *LiveMatchService) applyPhase(entry *ledgerEntry, event matchevent.Event) {
	switch event.Kind {
	case matchevent.KindKickoff:
		entry.status = fixture.StatusLive
	case matchevent.KindHalftime:
		entry.status = fixture.StatusHalftime
	case matchevent.KindFulltime:
		entry.status = fixture.StatusCompleted
	}
}

// deriveStatus recomputes the status from the phase markers still on the
// timeline, so deleting a mistaken fulltime marker reopens the fixture.
func (s *LiveMatchService) deriveStatus(entry *ledgerEntry) string {
	status := fixture.NormalizeStatus(entry.ledger.Fixture().Status)
	for _, e := range entry.ledger.Events() {
		switch e.Kind {
		case matchevent.KindKickoff:
			status = fixture.StatusLive
		case matchevent.KindHalftime:
			status = fixture.StatusHalftime
		case matchevent.KindFulltime:
			status = fixture.StatusCompleted
		}
	}
	return status
}

func (s *LiveMatchService) persist(ctx context.Context, fixtureID string, entry *ledgerEntry) error {
	homeState, _ := entry.ledger.Lineup(fixture.SideHome)
	awayState, _ := entry.ledger.Lineup(fixture.SideAway)

	subs := make([]SubstitutionEntry, 0, 8)
	for _, side := range []fixture.Side{fixture.SideHome, fixture.SideAway} {
		for _, sub := range entry.ledger.Substitutions(side) {
			subs = append(subs, SubstitutionEntry{
				Team:      side,
				Minute:    sub.Minute,
				PlayerOut: sub.PlayerOut,
				PlayerIn:  sub.PlayerIn,
				Injury:    sub.Injury,
			})
		}
	}

	update := LiveFixtureUpdate{
		Timeline:      entry.ledger.Events(),
		Substitutions: subs,
		HomeLineup:    homeState,
		AwayLineup:    awayState,
		Statistics:    entry.ledger.Statistics(),
		Status:        entry.status,
		CurrentMinute: entry.clock.Minute,
		InjuryTime:    entry.clock.InjuryTime,
	}

	if err := s.store.UpdateLiveFixture(ctx, fixtureID, update); err != nil {
		entry.dirty = true
		s.logger.ErrorContext(ctx, "live fixture persist failed", "fixture_id", fixtureID, "error", err)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	entry.dirty = false
	s.broadcast(fixtureID, entry)
	return nil
}

func (s *LiveMatchService) snapshot(fixtureID string, entry *ledgerEntry) FixtureSnapshot {
	homeState, _ := entry.ledger.Lineup(fixture.SideHome)
	awayState, _ := entry.ledger.Lineup(fixture.SideAway)

	return FixtureSnapshot{
		FixtureID:     fixtureID,
		Status:        entry.status,
		CurrentMinute: entry.clock.Minute,
		InjuryTime:    entry.clock.InjuryTime,
		Timeline:      entry.ledger.Timeline(),
		HomeLineup:    homeState,
		AwayLineup:    awayState,
		Statistics:    entry.ledger.Statistics(),
	}
}

func (s *LiveMatchService) broadcast(fixtureID string, entry *ledgerEntry) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastFixture(fixtureID, s.snapshot(fixtureID, entry))
}
