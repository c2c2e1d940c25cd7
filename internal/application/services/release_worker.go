package services

import (
	"context"
	"sync"

	"github.com/zatekoja/ipd-admission-engine/backend/internal/infrastructure/observability"
)

type cascadeTask struct {
	facilityID string
	locationID *string
}

// ReleaseWorker drains post-release cascade tasks from a bounded queue and
// attempts a single next-ranked allocation per task. Keeping the cascade on
// a dedicated worker decouples it from the release transaction: a full queue
// or a failed attempt is logged and isolated, never surfaced to the release
// caller.
type ReleaseWorker struct {
	svc   *AllocationService
	tasks chan cascadeTask

	stopOnce sync.Once
	done     chan struct{}
}

// NewReleaseWorker creates a release worker with the given queue capacity
func NewReleaseWorker(svc *AllocationService, queueSize int) *ReleaseWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &ReleaseWorker{
		svc:   svc,
		tasks: make(chan cascadeTask, queueSize),
		done:  make(chan struct{}),
	}
}

// Start runs the worker loop until ctx is cancelled or Stop is called
func (w *ReleaseWorker) Start(ctx context.Context) {
	go func() {
		logger := observability.GetLogger()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case task := <-w.tasks:
				if err := w.svc.allocateNext(ctx, task.facilityID, task.locationID); err != nil {
					logger.Warn().Err(err).
						Str("facility_id", task.facilityID).
						Msg("cascade allocation failed")
				}
			}
		}
	}()
}

// Stop terminates the worker loop. Queued tasks are dropped.
func (w *ReleaseWorker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// Enqueue submits a cascade task without blocking; it reports whether the
// task was accepted.
func (w *ReleaseWorker) Enqueue(facilityID string, locationID *string) bool {
	select {
	case w.tasks <- cascadeTask{facilityID: facilityID, locationID: locationID}:
		return true
	default:
		return false
	}
}
