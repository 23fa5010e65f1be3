package app

import (
	"context"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"gorhythm/domain/core"
	"gorhythm/domain/rhythm"
	"gorhythm/internal/errors"
	"gorhythm/ports"
)

// ScreeningService fans the per-molecule pipeline out across a molecule
// collection. Each molecule's computation is independent and the shared
// configuration is read-only, so the work is bounded only by a weighted
// semaphore; results come back in input order regardless of completion
// order.
type ScreeningService struct {
	screener    ports.Screener
	sem         *semaphore.Weighted
	parallelism int64
}

// NewScreeningService creates a screening service. maxParallel <= 0 defaults
// to the number of CPUs.
func NewScreeningService(screener ports.Screener, maxParallel int) *ScreeningService {
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}
	return &ScreeningService{
		screener:    screener,
		sem:         semaphore.NewWeighted(int64(maxParallel)),
		parallelism: int64(maxParallel),
	}
}

// ScreenAll screens every molecule and returns one result per input, in
// input order. The first per-molecule error aborts the run; ctx cancellation
// is honored between molecule launches.
func (s *ScreeningService) ScreenAll(ctx context.Context, molecules []rhythm.Molecule) ([]rhythm.MoleculeResult, error) {
	runID := core.NewID()
	started := core.Now()
	log.Printf("[ScreeningService] run %s: screening %d molecules (parallelism %d)", runID, len(molecules), s.parallelism)

	results := make([]rhythm.MoleculeResult, len(molecules))
	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	for i, mol := range molecules {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = errors.Wrap(err, "screening run canceled")
			}
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(i int, mol rhythm.Molecule) {
			defer wg.Done()
			defer s.sem.Release(1)

			res, err := s.screener.Screen(mol.Key, mol.Values)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "molecule %s", mol.Key)
				}
				mu.Unlock()
				return
			}
			results[i] = res
		}(i, mol)
	}
	wg.Wait()

	if firstErr != nil {
		log.Printf("[ScreeningService] run %s: aborted: %v", runID, firstErr)
		return nil, firstErr
	}
	log.Printf("[ScreeningService] run %s: completed in %s", runID, started.Elapsed())
	return results, nil
}
