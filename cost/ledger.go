package cost

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/taskroute/model"
)

// nanosPerUSD scales spend to integer nano-dollars so totals do not
// depend on the order records arrive in.
const nanosPerUSD = 1e9

// Usage tracks token usage and spend.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	Requests     int64 `json:"requests"`
	SpendNanos   int64 `json:"spend_nanos"`
}

// Add adds the given usage to this usage.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.Requests += other.Requests
	u.SpendNanos += other.SpendNanos
}

// TotalTokens returns the total tokens used.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Spend returns the spend in USD.
func (u Usage) Spend() float64 {
	return float64(u.SpendNanos) / nanosPerUSD
}

// counters is the atomic form of Usage.
type counters struct {
	input, output, requests, spend atomic.Int64
}

func (c *counters) add(u Usage) {
	c.input.Add(u.InputTokens)
	c.output.Add(u.OutputTokens)
	c.requests.Add(u.Requests)
	c.spend.Add(u.SpendNanos)
}

func (c *counters) load() Usage {
	return Usage{
		InputTokens:  c.input.Load(),
		OutputTokens: c.output.Load(),
		Requests:     c.requests.Load(),
		SpendNanos:   c.spend.Load(),
	}
}

type period struct {
	perTier [model.MaxTier + 1]counters
	byModel sync.Map // string -> *counters
}

// Snapshot is a point-in-time copy of a Ledger.
type Snapshot struct {
	PerTier map[model.Tier]Usage `json:"per_tier"`
	ByModel map[string]Usage     `json:"by_model"`
	Total   Usage                `json:"total"`
}

// Split returns the observed fraction of requests per tier.
// An empty snapshot returns an empty Split.
func (s Snapshot) Split() Split {
	out := make(Split, len(s.PerTier))
	if s.Total.Requests == 0 {
		return out
	}
	for t, u := range s.PerTier {
		out[t] = float64(u.Requests) / float64(s.Total.Requests)
	}
	return out
}

// Models returns the model ids in the snapshot, sorted.
func (s Snapshot) Models() []string {
	ids := make([]string, 0, len(s.ByModel))
	for id := range s.ByModel {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ledger accumulates routed usage per tier and model.
// Counters only grow; NewPeriod is the only reset. Records are commutative
// per-tier increments and never contend with each other. Safe for
// concurrent use.
type Ledger struct {
	// mu is held shared by Record and Snapshot, exclusively by NewPeriod.
	mu  sync.RWMutex
	cur *period
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{cur: &period{}}
}

// Record adds one routed request for m at the given token counts and
// returns its priced usage. Negative counts are treated as zero.
func (l *Ledger) Record(m model.Model, input, output int64) Usage {
	input, output = max(input, 0), max(output, 0)
	u := Usage{
		InputTokens:  input,
		OutputTokens: output,
		Requests:     1,
		SpendNanos:   int64(math.Round(m.Cost(input, output) * nanosPerUSD)),
	}
	if !m.Tier.Valid() {
		return u
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	l.cur.perTier[m.Tier].add(u)
	c, _ := l.cur.byModel.LoadOrStore(m.ID, &counters{})
	c.(*counters).add(u)
	return u
}

// Usage returns the usage for a tier.
func (l *Ledger) Usage(t model.Tier) Usage {
	if !t.Valid() {
		return Usage{}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur.perTier[t].load()
}

// Snapshot returns a copy of the ledger without resetting it.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur.snapshot()
}

func (p *period) snapshot() Snapshot {
	s := Snapshot{
		PerTier: make(map[model.Tier]Usage, len(model.Tiers)),
		ByModel: make(map[string]Usage),
	}
	for _, t := range model.Tiers {
		u := p.perTier[t].load()
		if u.Requests == 0 {
			continue
		}
		s.PerTier[t] = u
		s.Total.Add(u)
	}
	p.byModel.Range(func(k, v any) bool {
		s.ByModel[k.(string)] = v.(*counters).load()
		return true
	})
	return s
}

// NewPeriod starts a new accounting period and returns the closing snapshot
// of the previous one.
func (l *Ledger) NewPeriod() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	closing := l.cur.snapshot()
	l.cur = &period{}
	return closing
}
