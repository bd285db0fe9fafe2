package collector

import (
	"context"
	"sync"
	"time"

	"weather-tracker/logger"
	"weather-tracker/models"

	"github.com/google/uuid"
)

// Snapshot is the committed result of one refresh cycle
type Snapshot struct {
	Epoch       uint64                 `json:"epoch"`
	CycleID     string                 `json:"cycleId"`
	Requested   []string               `json:"requested"`
	Weather     []models.WeatherSample `json:"weather"`
	CompletedAt time.Time              `json:"completedAt"`
}

// AllFailed reports whether cities were requested but none could be fetched
func (s Snapshot) AllFailed() bool {
	return len(s.Requested) > 0 && len(s.Weather) == 0
}

// Refresher runs multi-city refresh cycles and keeps the newest result.
// Starting a cycle cancels the one in flight, and a cycle that finishes after
// a newer one was started never replaces the committed snapshot.
type Refresher struct {
	collector *Collector
	logger    logger.Logger

	mu         sync.Mutex
	epoch      uint64 // epoch of the most recently started cycle
	cancelPrev context.CancelFunc
	latest     Snapshot

	settled    uint64        // epoch of the last cycle that finished while newest
	settledErr error         // its error, if it failed
	settledCh  chan struct{} // closed and replaced whenever a cycle settles
}

// NewRefresher creates a refresher on top of c
func NewRefresher(c *Collector) *Refresher {
	return &Refresher{
		collector: c,
		logger:    c.logger.WithField("component", "refresher"),
		settledCh: make(chan struct{}),
	}
}

// Refresh starts a new cycle for cities and waits for it.
// A superseded cycle waits for the newest cycle to finish and returns its
// snapshot with ErrStaleCycle, or its error if it failed.
func (r *Refresher) Refresh(ctx context.Context, cities []string) (Snapshot, error) {
	r.mu.Lock()
	r.epoch++
	epoch := r.epoch
	if r.cancelPrev != nil {
		r.cancelPrev()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	r.cancelPrev = cancel
	r.mu.Unlock()
	defer cancel()

	requested := append([]string(nil), cities...)
	cycleID := uuid.NewString()
	log := r.logger.WithFields(map[string]interface{}{
		"cycle": cycleID,
		"epoch": epoch,
	})
	log.Infof("Starting refresh for %d cities", len(requested))

	weather, err := r.collector.FetchAll(cycleCtx, requested)

	r.mu.Lock()
	if epoch != r.epoch {
		newest := r.epoch
		r.mu.Unlock()
		log.Infof("Discarding results, cycle %d superseded by %d", epoch, newest)
		return r.awaitNewest(ctx)
	}
	defer r.mu.Unlock()

	if err != nil {
		log.Errorf("Refresh failed: %v", err)
		r.settle(epoch, err)
		return Snapshot{}, err
	}

	r.latest = Snapshot{
		Epoch:       epoch,
		CycleID:     cycleID,
		Requested:   requested,
		Weather:     weather,
		CompletedAt: time.Now(),
	}

	r.settle(epoch, nil)

	if r.latest.AllFailed() {
		log.Warnf("No city could be fetched")
	}

	return r.latest, nil
}

// settle records that epoch finished as the newest cycle. Callers hold r.mu.
func (r *Refresher) settle(epoch uint64, err error) {
	r.settled = epoch
	r.settledErr = err
	close(r.settledCh)
	r.settledCh = make(chan struct{})
}

// awaitNewest blocks until the most recently started cycle has finished
func (r *Refresher) awaitNewest(ctx context.Context) (Snapshot, error) {
	for {
		r.mu.Lock()
		if r.settled == r.epoch {
			snapshot, err := r.latest, r.settledErr
			r.mu.Unlock()
			if err != nil {
				return Snapshot{}, err
			}
			return snapshot, ErrStaleCycle
		}
		settled := r.settledCh
		r.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return Snapshot{}, &AggregateFetchError{Err: ctx.Err()}
		}
	}
}

// Latest returns the most recently committed snapshot
func (r *Refresher) Latest() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}
