package schedule

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"auction-platform/internal/domain"
	"auction-platform/pkg/logger"
)

// TickFunc receives the recomputed window state once per interval.
type TickFunc func(state domain.WindowState)

// Countdown recomputes the window state on a fixed interval and hands it to a
// callback. It replaces ad-hoc interval polling with an explicit lifecycle:
// Start begins ticking, Stop blocks until the loop has exited, and no callback
// fires after Stop returns.
type Countdown struct {
	schedule WeeklySchedule
	clock    clockwork.Clock
	interval time.Duration
	onTick   TickFunc
	log      logger.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

func NewCountdown(schedule WeeklySchedule, clock clockwork.Clock, onTick TickFunc, log logger.Logger) *Countdown {
	return &Countdown{
		schedule: schedule,
		clock:    clock,
		interval: time.Second,
		onTick:   onTick,
		log:      log,
	}
}

func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	c.log.Info("Starting countdown ticker", "interval", c.interval.String())
	go c.run(c.stopCh, c.doneCh)
}

// Stop halts ticking and waits for the loop to exit. Safe to call more than
// once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	stopCh, doneCh := c.stopCh, c.doneCh
	c.mu.Unlock()

	close(stopCh)
	<-doneCh
	c.log.Info("Countdown ticker stopped")
}

func (c *Countdown) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	// Emit the current state immediately so subscribers never wait a full
	// interval for the first value.
	c.onTick(c.schedule.StateAt(c.clock.Now()))

	for {
		select {
		case <-ticker.Chan():
			c.onTick(c.schedule.StateAt(c.clock.Now()))
		case <-stopCh:
			return
		}
	}
}
