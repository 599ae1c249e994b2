package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Worker runs until ctx is cancelled. A non-nil error means the worker gave
// up before that.
type Worker interface {
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers. The first worker failure
// stops the others.
type Manager struct {
	workers []Worker
	log     *slog.Logger
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws, log: slog.Default()}
}

func (m *Manager) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	for _, w := range m.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			if err := w.Start(ctx); err != nil {
				m.log.Error("worker: stopped with error", "worker", workerName(w), "err", err)
				once.Do(func() {
					first = err
					cancel()
				})
			}
		}(w)
	}
	wg.Wait()
	return first
}

func workerName(w Worker) string {
	if n, ok := w.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unnamed"
}
