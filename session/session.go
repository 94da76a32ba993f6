// Package session runs the tracking state machine that owns what is
// happening right now. It consumes the idle signal source on a fixed
// cadence, closes and opens ledger entries on mode switches, and detects
// suspend gaps so no entry ever spans a sleeping machine.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mkallio/manweek/internal/apperr"
	"github.com/mkallio/manweek/internal/idle"
	"github.com/mkallio/manweek/internal/models"
	"github.com/mkallio/manweek/store"
)

// State is the controller's current condition.
type State int

const (
	// Stopped means no interval is being tracked.
	Stopped State = iota
	// Active means an interval is open and input was seen recently.
	Active
	// Idle means an interval is open but input has been absent for at
	// least the idle threshold. The same entry continues; only the idle
	// accounting differs.
	Idle
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Idle:
		return "idle"
	default:
		return "stopped"
	}
}

// Snapshots is the crash-recovery persistence the controller needs.
type Snapshots interface {
	Save(iv *models.Interval) error
	Delete(iv *models.Interval) error
	Leftover() ([]models.Interval, error)
}

// Options tune the controller's thresholds.
type Options struct {
	// IdleThreshold is how long input must be absent before the open
	// interval starts accruing idle time.
	IdleThreshold time.Duration
	// PollInterval is the tick cadence.
	PollInterval time.Duration
	// SleepSlack is added to the poll interval before a tick gap is
	// treated as a suspend.
	SleepSlack time.Duration
	// MaxPersistRetries bounds how many ticks a failed close is retried
	// before the interval is abandoned as lost.
	MaxPersistRetries int
	// Clock supplies the current time; defaults to time.Now.
	Clock func() time.Time
}

// pendingClose is a finalized interval whose ledger write failed and is
// awaiting retry. Its end timestamp is fixed at the original close time.
type pendingClose struct {
	interval *models.Interval
	endTS    int64
	attempts int
}

// Controller is the single owner of the current tracking interval.
type Controller struct {
	db    store.DB
	snaps Snapshots
	idle  idle.Source
	opts  Options
	clock func() time.Time

	mu       sync.Mutex
	state    State
	interval *models.Interval
	pending  []*pendingClose
}

// New creates a stopped controller.
func New(
	db store.DB,
	snaps Snapshots,
	src idle.Source,
	opts Options,
) *Controller {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	if src == nil {
		src = idle.None
	}

	return &Controller{
		db:    db,
		snaps: snaps,
		idle:  src,
		opts:  opts,
		clock: clock,
		state: Stopped,
	}
}

// Recover closes any interval a previous process left behind, using its
// last confirmed tick as the end timestamp, and removes the snapshots.
// It must be called before tracking starts.
func (c *Controller) Recover() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	leftover, err := c.snaps.Leftover()
	if err != nil {
		return err
	}

	for i := range leftover {
		iv := leftover[i]

		// The crash may have happened mid-idle; the snapshot carries the
		// start of that span.
		if iv.IdleSince > 0 && iv.LastTick > iv.IdleSince {
			iv.IdleSeconds += iv.LastTick - iv.IdleSince
			iv.IdleSince = 0
		}

		entry, err := c.db.CloseInterval(&iv, iv.LastTick)
		if err != nil {
			return err
		}

		if entry == nil {
			slog.Info(
				"discarded an interrupted interval below the minimum duration",
				slog.String("mode", iv.ModeLabel),
			)
		} else {
			slog.Info(
				"recovered an interrupted interval",
				slog.String("mode", iv.ModeLabel),
				slog.Int64("entry_id", entry.ID),
				slog.String("date", entry.Date),
			)
		}

		if err := c.snaps.Delete(&iv); err != nil {
			return err
		}
	}

	return nil
}

// UserSwitch closes the current interval (if any) and opens a new active
// one for the given mode and optional project.
func (c *Controller) UserSwitch(
	modeLabel string,
	projectID *int64,
	description string,
) error {
	if strings.TrimSpace(modeLabel) == "" {
		return errEmptyMode
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock().Unix()

	if c.interval != nil {
		c.closeCurrent(now)
	}

	c.interval = &models.Interval{
		StartTS:     now,
		LastTick:    now,
		ProjectID:   projectID,
		ModeLabel:   strings.TrimSpace(modeLabel),
		Description: strings.TrimSpace(description),
	}
	c.state = Active

	c.saveSnapshot()

	slog.Info(
		"switched mode",
		slog.String("mode", c.interval.ModeLabel),
		slog.Int64("start_ts", now),
	)

	return nil
}

// ManualStop closes the current interval and leaves the controller
// stopped.
func (c *Controller) ManualStop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock().Unix()

	if c.interval != nil {
		c.closeCurrent(now)
	}

	c.state = Stopped
}

// Tick advances the state machine once: it retries any failed close,
// detects suspend gaps, and reconciles the idle sub-state against the
// idle signal source.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock().Unix()

	c.flushPending()

	if c.interval == nil {
		return
	}

	// A tick gap the process could not have slept through normally means
	// the machine was suspended. Close at the last confirmed timestamp;
	// tracking resumes only on the next explicit switch.
	slack := int64((c.opts.PollInterval + c.opts.SleepSlack).Seconds())
	if now-c.interval.LastTick > slack {
		slog.Info(
			"suspend gap detected",
			slog.Int64("last_tick", c.interval.LastTick),
			slog.Int64("now", now),
		)

		c.closeCurrent(c.interval.LastTick)
		c.state = Stopped

		return
	}

	idleFor, err := c.idle.IdleFor()
	if err != nil {
		// A failed probe reads as recent activity rather than killing
		// the session.
		slog.Warn("idle probe failed", slog.Any("error", err))

		idleFor = 0
	}

	threshold := c.opts.IdleThreshold

	switch c.state {
	case Active:
		if idleFor >= threshold {
			// The idle span started when input stopped, not when we
			// noticed, so it is counted once rather than per tick.
			since := now - int64(idleFor.Seconds())
			if since < c.interval.StartTS {
				since = c.interval.StartTS
			}

			c.interval.IdleSince = since
			c.state = Idle

			slog.Info(
				"went idle",
				slog.String("mode", c.interval.ModeLabel),
				slog.Int64("idle_since", since),
			)
		}
	case Idle:
		if idleFor < threshold {
			end := now - int64(idleFor.Seconds())
			if end < c.interval.IdleSince {
				end = c.interval.IdleSince
			}

			c.interval.IdleSeconds += end - c.interval.IdleSince
			c.interval.IdleSince = 0
			c.state = Active

			slog.Info(
				"resumed from idle",
				slog.String("mode", c.interval.ModeLabel),
				slog.Int64("idle_seconds", c.interval.IdleSeconds),
			)
		}
	}

	c.interval.LastTick = now

	c.saveSnapshot()
}

// Status describes the controller for display.
type Status struct {
	State    State
	Interval *models.Interval
	Elapsed  time.Duration
}

// Status returns a copy of the controller's current condition.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{State: c.state}

	if c.interval != nil {
		iv := *c.interval
		st.Interval = &iv
		st.Elapsed = time.Duration(
			c.clock().Unix()-c.interval.StartTS,
		) * time.Second
	}

	return st
}

// Run polls on the configured cadence until ctx is canceled, then stops
// the current session.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.ManualStop()
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// closeCurrent finalizes the open interval at endTS and hands it to the
// ledger. On a persistence failure the interval is queued for bounded
// retries on later ticks; its start and end are never advanced. Must be
// called with the mutex held.
func (c *Controller) closeCurrent(endTS int64) {
	iv := c.interval
	c.interval = nil

	// Idle time accrues up to the close, never past it.
	if iv.IdleSince > 0 && endTS > iv.IdleSince {
		iv.IdleSeconds += endTS - iv.IdleSince
	}

	iv.IdleSince = 0

	entry, err := c.db.CloseInterval(iv, endTS)

	switch {
	case err == nil:
		if entry == nil {
			slog.Info(
				"discarded an interval below the minimum duration",
				slog.String("mode", iv.ModeLabel),
			)
		} else {
			slog.Info(
				"closed interval",
				slog.String("mode", iv.ModeLabel),
				slog.Int64("entry_id", entry.ID),
				slog.Int64("active_seconds", entry.ActiveSeconds),
				slog.Int64("idle_seconds", entry.IdleSeconds),
			)
		}

		c.deleteSnapshot(iv)
	case apperr.IsKind(err, apperr.Persistence):
		slog.Warn(
			"ledger write failed; interval retained for retry",
			slog.Any("error", err),
		)

		c.pending = append(
			c.pending,
			&pendingClose{interval: iv, endTS: endTS, attempts: 1},
		)
	default:
		// Validation failures will not succeed on retry.
		slog.Error(
			"interval rejected by ledger; dropping it",
			slog.Any("error", err),
		)

		c.deleteSnapshot(iv)
	}
}

// flushPending retries every queued failed close. Closes that keep
// failing are each abandoned and logged as a loss after the configured
// number of attempts so memory cannot grow without bound. Must be called
// with the mutex held.
func (c *Controller) flushPending() {
	if len(c.pending) == 0 {
		return
	}

	retained := c.pending[:0]

	for _, p := range c.pending {
		_, err := c.db.CloseInterval(p.interval, p.endTS)
		if err == nil {
			slog.Info(
				"retried ledger write succeeded",
				slog.String("mode", p.interval.ModeLabel),
			)

			c.deleteSnapshot(p.interval)

			continue
		}

		p.attempts++

		if p.attempts >= c.opts.MaxPersistRetries {
			slog.Error(
				"giving up on interval after repeated ledger failures; time is lost",
				slog.String("mode", p.interval.ModeLabel),
				slog.Int64("start_ts", p.interval.StartTS),
				slog.Int64("end_ts", p.endTS),
				slog.Any("error", err),
			)

			c.deleteSnapshot(p.interval)

			continue
		}

		slog.Warn(
			"retried ledger write failed",
			slog.String("mode", p.interval.ModeLabel),
			slog.Int("attempt", p.attempts),
			slog.Any("error", err),
		)

		retained = append(retained, p)
	}

	c.pending = retained
}

func (c *Controller) saveSnapshot() {
	if err := c.snaps.Save(c.interval); err != nil {
		slog.Warn("saving interval snapshot failed", slog.Any("error", err))
	}
}

func (c *Controller) deleteSnapshot(iv *models.Interval) {
	if err := c.snaps.Delete(iv); err != nil {
		slog.Warn("deleting interval snapshot failed", slog.Any("error", err))
	}
}
