package escalation

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/randalmurphal/taskroute/model"
)

// Record is the mutable escalation record of one logical task.
// Its methods may only be called inside Tracker.Do, which holds its lock.
type Record struct {
	mu      sync.Mutex
	tracker *Tracker
	state   State
	removed bool
}

// State returns a snapshot of the record.
func (r *Record) State() State {
	return r.state.clone()
}

func (r *Record) transition(to Phase) error {
	from := r.state.Phase
	if from.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrTaskClosed, r.state.LogicalID, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	r.state.Phase = to
	return nil
}

// Classify moves a new or escalated task to Classified.
func (r *Record) Classify() error {
	return r.transition(PhaseClassified)
}

// Assign records a new attempt for taskID at the given tier.
// Returns ErrTierRegression if tier is below the current floor.
func (r *Record) Assign(taskID string, tier model.Tier, modelID string) error {
	if !tier.Valid() {
		return fmt.Errorf("assign %s: invalid tier %d", taskID, int(tier))
	}
	if floor := r.state.Floor(); tier < floor {
		return fmt.Errorf("%w: %s below %s for %s", ErrTierRegression, tier, floor, r.state.LogicalID)
	}
	if err := r.transition(PhaseAssigned); err != nil {
		return err
	}

	r.state.Attempts = append(r.state.Attempts, Attempt{
		TaskID:  taskID,
		Tier:    tier,
		ModelID: modelID,
		Outcome: OutcomePending,
	})
	if !r.removed {
		r.tracker.alias(taskID, r.state.LogicalID)
	}
	return nil
}

// Start marks the current attempt as executing.
func (r *Record) Start() error {
	return r.transition(PhaseExecuting)
}

// Succeed marks the current attempt as succeeded. Terminal.
func (r *Record) Succeed() error {
	if err := r.transition(PhaseSucceeded); err != nil {
		return err
	}
	r.state.Attempts[len(r.state.Attempts)-1].Outcome = OutcomeSucceeded
	return nil
}

// Fail marks the current attempt as failed and returns the tier the next
// attempt must start from. At MaxTier the task moves to FailedAtMaxTier and
// ErrEscalationExhausted is returned instead.
func (r *Record) Fail() (model.Tier, error) {
	if err := r.transition(PhaseFailed); err != nil {
		return model.TierUnknown, err
	}
	cur := &r.state.Attempts[len(r.state.Attempts)-1]
	cur.Outcome = OutcomeFailed

	next, ok := r.state.Highest().Next()
	if !ok {
		r.state.Phase = PhaseFailedAtMaxTier
		return cur.Tier, fmt.Errorf("%w: %s failed at %s", ErrEscalationExhausted, r.state.LogicalID, cur.Tier)
	}
	r.state.Phase = PhaseEscalated
	return next, nil
}

// Exhaust closes a classified task whose escalation cannot proceed.
func (r *Record) Exhaust() error {
	return r.transition(PhaseFailedAtMaxTier)
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the logger for escalation events.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Tracker holds escalation records keyed by logical task id.
// Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]*Record
	aliases map[string]string
	logger  *slog.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		records: make(map[string]*Record),
		aliases: make(map[string]string),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) alias(taskID, logicalID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases[taskID] = logicalID
}

// Resolve returns the logical task id for an attempt id.
// Ids the tracker has not seen resolve to themselves.
func (t *Tracker) Resolve(taskID string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if logical, ok := t.aliases[taskID]; ok {
		return logical
	}
	return taskID
}

func (t *Tracker) getOrCreate(logicalID string) *Record {
	t.mu.RLock()
	r, ok := t.records[logicalID]
	t.mu.RUnlock()
	if ok {
		return r
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.records[logicalID]; ok {
		return r
	}
	r = &Record{tracker: t, state: State{LogicalID: logicalID, Phase: PhaseCreated}}
	t.records[logicalID] = r
	t.aliases[logicalID] = logicalID
	return r
}

// Do runs fn with the record for logicalID locked, creating the record if
// needed. Calls for the same logical task are serialized.
func (t *Tracker) Do(logicalID string, fn func(r *Record) error) error {
	for {
		r := t.getOrCreate(logicalID)
		r.mu.Lock()
		if r.removed {
			// Abandoned between lookup and lock; start over with a fresh record.
			r.mu.Unlock()
			continue
		}
		err := fn(r)
		r.mu.Unlock()
		return err
	}
}

// with runs fn on an existing record only.
func (t *Tracker) with(taskID string, fn func(r *Record) error) error {
	logicalID := t.Resolve(taskID)

	t.mu.RLock()
	r, ok := t.records[logicalID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed {
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return fn(r)
}

func checkLatest(r *Record, taskID string) error {
	cur, ok := r.state.Current()
	if !ok {
		return fmt.Errorf("%w: %s has no attempts", ErrInvalidTransition, r.state.LogicalID)
	}
	if cur.TaskID != taskID {
		return fmt.Errorf("%w: %s (latest is %s)", ErrStaleAttempt, taskID, cur.TaskID)
	}
	return nil
}

// Start marks the attempt as executing.
func (t *Tracker) Start(taskID string) error {
	return t.with(taskID, func(r *Record) error {
		if err := checkLatest(r, taskID); err != nil {
			return err
		}
		return r.Start()
	})
}

// ReportSuccess marks the attempt as succeeded, closing its logical task.
func (t *Tracker) ReportSuccess(taskID string) error {
	return t.with(taskID, func(r *Record) error {
		if err := checkLatest(r, taskID); err != nil {
			return err
		}
		return r.Succeed()
	})
}

// ReportFailure marks the attempt as failed and returns the tier the retry
// must use. Returns ErrEscalationExhausted if the attempt ran at MaxTier.
func (t *Tracker) ReportFailure(taskID string) (model.Tier, error) {
	var next model.Tier
	err := t.with(taskID, func(r *Record) error {
		if err := checkLatest(r, taskID); err != nil {
			return err
		}
		var err error
		next, err = r.Fail()
		t.logFailure(r.state, next, err)
		return err
	})
	return next, err
}

func (t *Tracker) logFailure(s State, next model.Tier, err error) {
	if err != nil {
		t.logger.Warn("escalation exhausted",
			slog.String("logical_id", s.LogicalID),
			slog.Int("attempts", len(s.Attempts)),
			slog.Any("error", err))
		return
	}
	t.logger.Info("task escalated",
		slog.String("logical_id", s.LogicalID),
		slog.String("next_tier", next.String()),
		slog.Int("failures", s.Failures()))
}

// State returns a snapshot for the logical task of taskID.
func (t *Tracker) State(taskID string) (State, bool) {
	var s State
	err := t.with(taskID, func(r *Record) error {
		s = r.State()
		return nil
	})
	return s, err == nil
}

// Abandon discards the logical task of taskID and all its aliases.
// Returns false if the task was unknown.
func (t *Tracker) Abandon(taskID string) bool {
	return t.remove(taskID, func(*Record) bool { return true })
}

// Prune discards the logical task of taskID if no attempt was ever
// assigned to it. Returns true if the record was removed.
func (t *Tracker) Prune(taskID string) bool {
	return t.remove(taskID, func(r *Record) bool { return len(r.state.Attempts) == 0 })
}

// remove locks the record before the tracker maps, the same order Do and
// Assign use, so no alias can be added once the record is gone.
func (t *Tracker) remove(taskID string, ok func(*Record) bool) bool {
	logicalID := t.Resolve(taskID)

	t.mu.RLock()
	r, found := t.records[logicalID]
	t.mu.RUnlock()
	if !found {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed || !ok(r) {
		return false
	}
	r.removed = true

	t.mu.Lock()
	if t.records[logicalID] == r {
		delete(t.records, logicalID)
	}
	for attempt, logical := range t.aliases {
		if logical == logicalID {
			delete(t.aliases, attempt)
		}
	}
	t.mu.Unlock()

	t.logger.Debug("task removed", slog.String("logical_id", logicalID))
	return true
}

// Len returns the number of tracked logical tasks.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}
