package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/campus-sports/livematch/internal/domain/fixture"
	"github.com/campus-sports/livematch/internal/domain/lineup"
)

type mockLiveFixtureStore struct {
	mock.Mock
}

func (m *mockLiveFixtureStore) FetchLiveFixture(ctx context.Context, fixtureID string) (LiveFixtureDocument, error) {
	args := m.Called(ctx, fixtureID)
	return args.Get(0).(LiveFixtureDocument), args.Error(1)
}

func (m *mockLiveFixtureStore) FetchRosters(ctx context.Context, fixtureID string) (fixture.Team, fixture.Team, error) {
	args := m.Called(ctx, fixtureID)
	return args.Get(0).(fixture.Team), args.Get(1).(fixture.Team), args.Error(2)
}

func (m *mockLiveFixtureStore) UpdateLiveFixture(ctx context.Context, fixtureID string, update LiveFixtureUpdate) error {
	args := m.Called(ctx, fixtureID, update)
	return args.Error(0)
}

func (m *mockLiveFixtureStore) UpdateFormation(ctx context.Context, fixtureID string, update FormationUpdate) error {
	args := m.Called(ctx, fixtureID, update)
	return args.Error(0)
}

func TestLiveMatchService_Open_SeedsFromStoreUsingMock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &mockLiveFixtureStore{}
	fx := testFixture()

	store.
		On("FetchRosters", mock.Anything, "fx-1").
		Return(fx.Home, fx.Away, nil).
		Once()
	store.
		On("FetchLiveFixture", mock.Anything, "fx-1").
		Return(LiveFixtureDocument{
			Fixture: fx,
			HomeLineup: lineup.Snapshot{
				Formation:  "4-3-3",
				StartingXI: []string{"h-1", "h-2"},
			},
			AwayLineup: lineup.Snapshot{
				Formation:  "4-4-2",
				StartingXI: []string{"a-1", "a-2"},
			},
		}, nil).
		Once()

	svc := NewLiveMatchService(store, lineup.Rules{MaxBench: 5}, nil, nil)
	snapshot, err := svc.Open(ctx, "fx-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if snapshot.HomeLineup.Formation != "4-3-3" {
		t.Fatalf("unexpected seeded lineup: %+v", snapshot.HomeLineup)
	}

	store.AssertExpectations(t)
}

func TestLiveMatchService_Open_StoreFailureUsingMock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &mockLiveFixtureStore{}

	store.
		On("FetchRosters", mock.Anything, "fx-down").
		Return(fixture.Team{}, fixture.Team{}, fmt.Errorf("%w: backend status=503", ErrDependencyUnavailable)).
		Once()

	svc := NewLiveMatchService(store, lineup.Rules{MaxBench: 5}, nil, nil)
	_, err := svc.Open(ctx, "fx-down")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected dependency failure to propagate, got %v", err)
	}

	store.AssertExpectations(t)
}
