package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	reconcileStatusSuccess = "success"
	reconcileStatusSkipped = "skipped"
	reconcileStatusFailed  = "failed"

	defaultReconcileWorkers = 4
)

type ReconcileInput struct {
	// FixtureIDs limits the run; empty means every tracked fixture.
	FixtureIDs []string
}

type ReconcileTaskResult struct {
	FixtureID  string
	Action     string
	Status     string
	Message    string
	DurationMs int64
}

type ReconcileResult struct {
	Tasks        []ReconcileTaskResult
	SuccessCount int
	FailedCount  int
	SkippedCount int
}

// ReconcileService repairs drift between local ledgers and the backend:
// dirty fixtures get their pending local document re-pushed, clean ones are
// re-seeded from the backend. Fixtures are processed concurrently on a
// bounded worker pool.
type ReconcileService struct {
	matches *LiveMatchService
	workers int
	logger  *slog.Logger
}

func NewReconcileService(matches *LiveMatchService, workers int, logger *slog.Logger) *ReconcileService {
	if workers < 1 {
		workers = defaultReconcileWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReconcileService{
		matches: matches,
		workers: workers,
		logger:  logger,
	}
}

func (s *ReconcileService) Run(ctx context.Context, input ReconcileInput) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Run")
	defer span.End()

	fixtureIDs := input.FixtureIDs
	if len(fixtureIDs) == 0 {
		fixtureIDs = s.matches.Tracked()
	}
	if len(fixtureIDs) == 0 {
		return ReconcileResult{}, nil
	}

	results := make(chan ReconcileTaskResult, len(fixtureIDs))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, fixtureID := range fixtureIDs {
		fixtureID := fixtureID
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()

			start := time.Now()
			row := s.runFixture(ctx, fixtureID)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case reconcileStatusSuccess:
				successCount.Add(1)
			case reconcileStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			wg.Done()
			return ReconcileResult{}, fmt.Errorf("submit fixture to worker pool: %w", err)
		}
	}

	wg.Wait()
	close(results)

	var result ReconcileResult
	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}

	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].FixtureID < result.Tasks[j].FixtureID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())

	s.logger.InfoContext(ctx, "reconcile run finished",
		"fixtures", len(fixtureIDs),
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)

	return result, nil
}

func (s *ReconcileService) runFixture(ctx context.Context, fixtureID string) ReconcileTaskResult {
	row := ReconcileTaskResult{FixtureID: fixtureID}

	if err := ctx.Err(); err != nil {
		row.Action = "none"
		row.Status = reconcileStatusSkipped
		row.Message = err.Error()
		return row
	}

	if s.matches.Dirty(fixtureID) {
		row.Action = "commit"
		if err := s.matches.CommitPending(ctx, fixtureID); err != nil {
			row.Status = reconcileStatusFailed
			row.Message = err.Error()
			return row
		}
		row.Status = reconcileStatusSuccess
		return row
	}

	row.Action = "reload"
	if err := s.matches.Reload(ctx, fixtureID); err != nil {
		row.Status = reconcileStatusFailed
		row.Message = err.Error()
		return row
	}
	row.Status = reconcileStatusSuccess
	return row
}
