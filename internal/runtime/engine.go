package runtime

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/calendarbot/internal/logging"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
)

// DefaultMaxChain bounds the number of steps run within one turn.
const DefaultMaxChain = 64

// Engine is the step sequencer. It is stateless: all progress lives in the
// domain.Session handed to Run, so one Engine serves every session.
type Engine struct {
	sequences map[string]domain.Sequence
	order     []string

	entry        string
	entryOptions map[string]any

	filters  []domain.Filter
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
	maxChain int
}

// Option configures the Engine.
type Option func(*Engine)

// WithEntry sets the sequence started by a message to an inactive session.
// Defaults to the first registered sequence.
func WithEntry(name string, options map[string]any) Option {
	return func(e *Engine) {
		e.entry = name
		e.entryOptions = options
	}
}

// WithFilter appends pre-dispatch filters. They run in order on every turn,
// ahead of any pending prompt.
func WithFilter(filters ...domain.Filter) Option {
	return func(e *Engine) {
		e.filters = append(e.filters, filters...)
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source handed to steps and prompts.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMaxChain overrides DefaultMaxChain.
func WithMaxChain(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxChain = n
		}
	}
}

// NewEngine registers the sequences and validates them.
func NewEngine(sequences []domain.Sequence, opts ...Option) (*Engine, error) {
	e := &Engine{
		sequences: make(map[string]domain.Sequence, len(sequences)),
		logger:    logging.NewNop(),
		now:       time.Now,
		maxChain:  DefaultMaxChain,
	}
	for _, seq := range sequences {
		if seq.Name == "" {
			return nil, fmt.Errorf("sequence without a name")
		}
		if _, dup := e.sequences[seq.Name]; dup {
			return nil, fmt.Errorf("duplicate sequence %q", seq.Name)
		}
		if len(seq.Steps) == 0 {
			return nil, fmt.Errorf("sequence %q has no steps", seq.Name)
		}
		e.sequences[seq.Name] = seq
		e.order = append(e.order, seq.Name)
	}
	if len(e.order) > 0 {
		e.entry = e.order[0]
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := e.sequences[e.entry]; !ok {
		return nil, fmt.Errorf("%w: entry %q", domain.ErrUnknownSequence, e.entry)
	}
	return e, nil
}

// Inspect describes the registered sequences in registration order.
func (e *Engine) Inspect() []ports.SequenceInfo {
	infos := make([]ports.SequenceInfo, 0, len(e.order))
	for _, name := range e.order {
		seq := e.sequences[name]
		info := ports.SequenceInfo{Name: name}
		for i, st := range seq.Steps {
			label := st.Name
			if label == "" {
				label = fmt.Sprintf("step-%d", i)
			}
			info.Steps = append(info.Steps, label)
		}
		for p := range seq.Prompts {
			info.Prompts = append(info.Prompts, p)
		}
		sort.Strings(info.Prompts)
		infos = append(infos, info)
	}
	return infos
}

// Entry returns the name of the entry sequence.
func (e *Engine) Entry() string {
	return e.entry
}
