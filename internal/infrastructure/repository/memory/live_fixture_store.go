package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/campus-sports/livematch/internal/domain/fixture"
	"github.com/campus-sports/livematch/internal/usecase"
)

type fixtureRecord struct {
	document usecase.LiveFixtureDocument
	home     fixture.Team
	away     fixture.Team
}

// LiveFixtureStore keeps fixture documents in process memory. It backs local
// development and tests where the live-fixtures backend is not reachable.
type LiveFixtureStore struct {
	mu       sync.RWMutex
	fixtures map[string]*fixtureRecord
}

var _ usecase.LiveFixtureStore = (*LiveFixtureStore)(nil)

func NewLiveFixtureStore(documents []usecase.LiveFixtureDocument) *LiveFixtureStore {
	fixtures := make(map[string]*fixtureRecord, len(documents))
	for _, doc := range documents {
		fixtures[doc.Fixture.ID] = &fixtureRecord{
			document: doc,
			home:     doc.Fixture.Home,
			away:     doc.Fixture.Away,
		}
	}
	return &LiveFixtureStore{fixtures: fixtures}
}

func (s *LiveFixtureStore) FetchLiveFixture(_ context.Context, fixtureID string) (usecase.LiveFixtureDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.fixtures[fixtureID]
	if !ok {
		return usecase.LiveFixtureDocument{}, fmt.Errorf("%w: fixture id=%s", usecase.ErrNotFound, fixtureID)
	}
	return record.document, nil
}

func (s *LiveFixtureStore) FetchRosters(_ context.Context, fixtureID string) (fixture.Team, fixture.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.fixtures[fixtureID]
	if !ok {
		return fixture.Team{}, fixture.Team{}, fmt.Errorf("%w: fixture id=%s", usecase.ErrNotFound, fixtureID)
	}
	return record.home, record.away, nil
}

func (s *LiveFixtureStore) UpdateLiveFixture(_ context.Context, fixtureID string, update usecase.LiveFixtureUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.fixtures[fixtureID]
	if !ok {
		return fmt.Errorf("%w: fixture id=%s", usecase.ErrNotFound, fixtureID)
	}

	record.document.Events = update.Timeline
	record.document.Fixture.Status = update.Status
	record.document.Fixture.Clock = fixture.Clock{
		Minute:     update.CurrentMinute,
		InjuryTime: update.InjuryTime,
	}
	return nil
}

func (s *LiveFixtureStore) UpdateFormation(_ context.Context, fixtureID string, update usecase.FormationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.fixtures[fixtureID]
	if !ok {
		return fmt.Errorf("%w: fixture id=%s", usecase.ErrNotFound, fixtureID)
	}

	record.document.HomeLineup = update.Home
	record.document.AwayLineup = update.Away
	return nil
}
