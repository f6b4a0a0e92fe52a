package router

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/randalmurphal/taskroute/config"
	"github.com/randalmurphal/taskroute/cost"
	"github.com/randalmurphal/taskroute/escalation"
	"github.com/randalmurphal/taskroute/model"
	"github.com/randalmurphal/taskroute/rules"
	"github.com/randalmurphal/taskroute/signal"
	"github.com/randalmurphal/taskroute/tokens"
)

// Router decides which model executes each task and tracks retries.
// Safe for concurrent use.
type Router struct {
	catalog    *model.Catalog
	classifier signal.Classifier
	engine     *rules.Engine
	tracker    *escalation.Tracker
	ledger     *cost.Ledger
	estimator  *tokens.Estimator
	logger     *slog.Logger
	cache      *signal.CachingClassifier

	counter     tokens.Counter
	outputRatio float64
	defaults    rules.ContextDefaults
	split       cost.Split
	parallelism int
}

// Option configures a Router.
type Option func(*Router)

// WithClassifier replaces the keyword classifier.
func WithClassifier(c signal.Classifier) Option {
	return func(r *Router) {
		if c != nil {
			r.classifier = c
		}
	}
}

// WithEngine replaces the default rule table.
func WithEngine(e *rules.Engine) Option {
	return func(r *Router) {
		if e != nil {
			r.engine = e
		}
	}
}

// WithTracker shares an escalation tracker.
func WithTracker(t *escalation.Tracker) Option {
	return func(r *Router) {
		if t != nil {
			r.tracker = t
		}
	}
}

// WithLedger shares a cost ledger.
func WithLedger(l *cost.Ledger) Option {
	return func(r *Router) {
		if l != nil {
			r.ledger = l
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCounter sets the token counter used when a task has no token counts.
func WithCounter(c tokens.Counter) Option {
	return func(r *Router) {
		if c != nil {
			r.counter = c
		}
	}
}

// WithOutputRatio sets the assumed output tokens per input token.
func WithOutputRatio(ratio float64) Option {
	return func(r *Router) {
		r.outputRatio = ratio
	}
}

// WithContextDefaults overrides the no-signal tier per context. Ignored
// when WithEngine supplies a rule table.
func WithContextDefaults(d rules.ContextDefaults) Option {
	return func(r *Router) {
		if d != nil {
			r.defaults = d
		}
	}
}

// WithSplit sets the tier mix used by Project when none is given.
func WithSplit(s cost.Split) Option {
	return func(r *Router) {
		if s != nil {
			r.split = s
		}
	}
}

// WithParallelism bounds RouteAll concurrency. 0 means unbounded.
func WithParallelism(n int) Option {
	return func(r *Router) {
		if n >= 0 {
			r.parallelism = n
		}
	}
}

// New creates a router over a catalog.
func New(catalog *model.Catalog, opts ...Option) (*Router, error) {
	if catalog == nil {
		return nil, newError("new", "", fmt.Errorf("%w: catalog is required", model.ErrMisconfiguredPriceTable))
	}

	r := &Router{
		catalog:     catalog,
		classifier:  signal.NewDefaultClassifier(),
		logger:      slog.Default(),
		outputRatio: tokens.DefaultOutputRatio,
		defaults:    rules.DefaultContextDefaults(),
		split:       cost.DefaultSplit(),
		parallelism: 8,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.engine == nil {
		engine, err := rules.NewDefaultEngine(catalog, r.defaults)
		if err != nil {
			return nil, newError("new", "", err)
		}
		r.engine = engine
	}
	if r.tracker == nil {
		r.tracker = escalation.NewTracker(escalation.WithLogger(r.logger))
	}
	if r.ledger == nil {
		r.ledger = cost.NewLedger()
	}
	if err := r.split.Validate(); err != nil {
		return nil, newError("new", "", err)
	}
	r.estimator = tokens.NewEstimator(r.counter, r.outputRatio)
	return r, nil
}

// FromConfig validates cfg and builds a router from it. Options are
// applied after the configuration and take precedence.
func FromConfig(cfg config.Config, opts ...Option) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError("config", "", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, newError("config", "", err)
	}
	keywords, err := signal.NewKeywordClassifier(cfg.KeywordLists())
	if err != nil {
		return nil, newError("config", "", err)
	}
	var (
		classifier signal.Classifier = keywords
		cache      *signal.CachingClassifier
	)
	if cfg.ClassifierCacheBytes > 0 {
		cache, err = signal.NewCachingClassifier(keywords, cfg.ClassifierCacheBytes)
		if err != nil {
			return nil, newError("config", "", err)
		}
		classifier = cache
	}
	defaults, err := cfg.ContextTiers()
	if err != nil {
		return nil, newError("config", "", err)
	}
	split, err := cfg.TierSplit()
	if err != nil {
		return nil, newError("config", "", err)
	}

	base := []Option{
		WithClassifier(classifier),
		WithContextDefaults(defaults),
		WithSplit(split),
		WithCounter(tokens.NewEstimatingCounterWithRatio(cfg.CharsPerToken)),
		WithOutputRatio(cfg.OutputRatio),
		WithParallelism(cfg.MaxParallel),
		WithLogger(cfg.Logger(os.Stderr)),
	}
	r, err := New(catalog, append(base, opts...)...)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, err
	}
	r.cache = cache
	return r, nil
}

// Close releases the classifier cache created by FromConfig.
// The router must not be used afterwards.
func (r *Router) Close() {
	if r.cache != nil {
		r.cache.Close()
	}
}

// Catalog returns the price table the router was built with.
func (r *Router) Catalog() *model.Catalog {
	return r.catalog
}

// Route classifies a task, assigns it a model and records the assignment
// in the escalation tracker and the cost ledger.
//
// A task whose PriorTaskID names an earlier attempt continues that
// attempt's logical task: it is never assigned a lower tier, and when it
// reports a failure at the maximum tier Route returns a Decision with
// Exhausted set together with an error for which IsExhausted is true.
func (r *Router) Route(task Task) (Decision, error) {
	if err := task.validate(); err != nil {
		return Decision{}, newError("route", task.ID, err)
	}

	signals := r.classifier.Extract(task.Description, task.Flags())
	logicalID := task.ID
	if task.PriorTaskID != "" {
		logicalID = r.tracker.Resolve(task.PriorTaskID)
	}

	d := Decision{TaskID: task.ID, LogicalID: logicalID, Signals: signals}
	var res rules.Resolution

	err := r.tracker.Do(logicalID, func(rec *escalation.Record) error {
		state := rec.State()
		d.Attempt = len(state.Attempts) + 1

		if state.Phase.InFlight() {
			cur, _ := state.Current()
			if !task.PreviousAttemptFailed {
				return fmt.Errorf("%w: attempt %s is still in flight", escalation.ErrInvalidTransition, cur.TaskID)
			}
			// Only the latest attempt can be failed by its retry.
			if task.PriorTaskID != "" && task.PriorTaskID != cur.TaskID {
				return fmt.Errorf("%w: %s (latest is %s)", escalation.ErrStaleAttempt, task.PriorTaskID, cur.TaskID)
			}
			if _, err := rec.Fail(); err != nil {
				d.Tier, d.RuleID = cur.Tier, rules.RuleEscalationOverride
				return err
			}
			state = rec.State()
		}

		if state.Phase == escalation.PhaseFailedAtMaxTier {
			d.Tier, d.RuleID = state.Highest(), rules.RuleEscalationOverride
			return fmt.Errorf("%w: %s", escalation.ErrEscalationExhausted, logicalID)
		}
		if state.Phase != escalation.PhaseClassified {
			if err := rec.Classify(); err != nil {
				return err
			}
		}

		var err error
		res, err = r.engine.Decide(rules.Input{
			Context:               task.Context,
			Monitoring:            task.Monitoring,
			Signals:               signals,
			PreviousAttemptFailed: task.PreviousAttemptFailed,
			PreviousModelID:       task.PreviousModelID,
			State:                 rec.State(),
		})
		d.RuleID = res.RuleID
		if err != nil {
			return err
		}
		if res.Exhausted {
			d.Tier = res.Tier
			if err := rec.Exhaust(); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", escalation.ErrEscalationExhausted, logicalID)
		}
		return rec.Assign(task.ID, res.Tier, res.Model.ID)
	})

	if err != nil {
		if errors.Is(err, escalation.ErrEscalationExhausted) {
			d.Exhausted = true
			d.Attempt--
			d.Ledger = r.ledger.Snapshot()
			r.logger.Warn("escalation exhausted",
				slog.String("task_id", task.ID),
				slog.String("logical_id", logicalID),
				slog.String("tier", d.Tier.String()),
				slog.Int("attempts", d.Attempt))
			return d, newError("route", task.ID, err)
		}
		// A task that never got an attempt leaves no record behind.
		r.tracker.Prune(logicalID)
		return Decision{}, newError("route", task.ID, err)
	}

	d.ID = uuid.NewString()
	d.Tier = res.Tier
	d.ModelID = res.Model.ID
	d.Clamped = res.Clamped

	in, out := task.InputTokens, task.OutputTokens
	if in == 0 && out == 0 {
		in, out = r.estimator.Estimate(task.Description)
	}
	d.Usage = r.ledger.Record(res.Model, in, out)
	d.Ledger = r.ledger.Snapshot()

	r.logger.Debug("task routed",
		slog.String("decision_id", d.ID),
		slog.String("task_id", task.ID),
		slog.String("logical_id", logicalID),
		slog.String("rule", d.RuleID),
		slog.String("signals", signals.String()),
		slog.String("tier", d.Tier.String()),
		slog.String("model", d.ModelID),
		slog.Int("attempt", d.Attempt),
		slog.Bool("clamped", d.Clamped))
	return d, nil
}

// Start marks an attempt as executing.
func (r *Router) Start(taskID string) error {
	if err := r.tracker.Start(taskID); err != nil {
		return newError("start", taskID, err)
	}
	return nil
}

// ReportSuccess closes the logical task of an attempt.
func (r *Router) ReportSuccess(taskID string) error {
	if err := r.tracker.ReportSuccess(taskID); err != nil {
		return newError("report_success", taskID, err)
	}
	return nil
}

// ReportFailure records a failed attempt and returns the tier its retry
// will be assigned at minimum. At the maximum tier the error satisfies
// IsExhausted and no retry should be submitted.
func (r *Router) ReportFailure(taskID string) (model.Tier, error) {
	next, err := r.tracker.ReportFailure(taskID)
	if err != nil {
		return next, newError("report_failure", taskID, err)
	}
	return next, nil
}

// Abandon discards the escalation record of an attempt's logical task.
// Spend already recorded in the ledger is kept.
func (r *Router) Abandon(taskID string) bool {
	return r.tracker.Abandon(taskID)
}

// State returns the escalation state of an attempt's logical task.
func (r *Router) State(taskID string) (escalation.State, bool) {
	return r.tracker.State(taskID)
}

// Ledger returns a snapshot of routed spend.
func (r *Router) Ledger() cost.Snapshot {
	return r.ledger.Snapshot()
}

// NewPeriod resets the ledger and returns the closing snapshot.
func (r *Router) NewPeriod() cost.Snapshot {
	return r.ledger.NewPeriod()
}

// Project prices a daily volume over days at the given split. A nil split
// uses the router's configured split.
func (r *Router) Project(split cost.Split, v cost.Volume, days int) (cost.Projection, error) {
	if split == nil {
		split = r.split
	}
	return cost.Project(r.catalog, split, v, days)
}

// ProjectObserved prices a daily volume at the tier mix observed in the
// ledger so far.
func (r *Router) ProjectObserved(v cost.Volume, days int) (cost.Projection, error) {
	split := r.ledger.Snapshot().Split()
	if len(split) == 0 {
		return cost.Projection{}, fmt.Errorf("%w: no routed tasks recorded", cost.ErrInvalidSplit)
	}
	return cost.Project(r.catalog, split, v, days)
}
