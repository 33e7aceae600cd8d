package worker

import (
	"context"
	"sync"
)

// Worker is a long-running component that serves until its context is
// cancelled. The HTTP server and the campaign scheduler both implement it.
type Worker interface {
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

// Start runs all workers until ctx is cancelled or one of them fails. A
// worker error cancels the siblings so the process exits instead of limping
// along half-started.
func (m *Manager) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, len(m.workers))
	for _, w := range m.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			if err := w.Start(ctx); err != nil {
				errs <- err
				cancel()
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	// Report the first worker error, if any.
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
