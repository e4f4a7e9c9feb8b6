// Package preflight runs environment checks before risky pipeline
// operations. Checks are registered per role and referenced by id from
// profile bindings; an unknown id is a configuration error, not a silent
// skip.
package preflight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clipline/internal/adapter"
	"clipline/internal/logger"
	"clipline/internal/profile"
	"clipline/pkg/errors"
)

// Outcome is what a single check reports back.
type Outcome struct {
	OK      bool
	Skipped bool
	Message string
	Details map[string]any
}

func pass(msg string) Outcome          { return Outcome{OK: true, Message: msg} }
func fail(msg string) Outcome          { return Outcome{Message: msg} }
func skip(msg string) Outcome          { return Outcome{OK: true, Skipped: true, Message: msg} }
func failf(f string, a ...any) Outcome { return fail(fmt.Sprintf(f, a...)) }

// Request carries everything a check may inspect: the effective settings
// (binding overrides merged with the check's own params, params winning),
// the active adapter name, and the adapter instance for health probes.
type Request struct {
	Role        adapter.Role
	Settings    adapter.Settings
	AdapterName string
	Adapter     adapter.Adapter
}

// Check is one registered preflight probe.
type Check interface {
	ID() string
	Role() adapter.Role
	Description() string
	DefaultRequired() bool
	Run(ctx context.Context, req Request) Outcome
}

// Result is the recorded verdict for one executed check reference.
type Result struct {
	Role     adapter.Role
	ID       string
	Required bool
	OK       bool
	Skipped  bool
	Message  string
	Details  map[string]any
	Duration time.Duration
}

// Failed reports whether this result should count against the operation.
func (r Result) Failed() bool { return !r.OK && !r.Skipped }

// Registry indexes checks by (role, id).
type Registry struct {
	mu     sync.RWMutex
	checks map[adapter.Role]map[string]Check
}

// NewRegistry returns an empty check registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[adapter.Role]map[string]Check)}
}

// Register adds a check. Duplicate (role, id) pairs are rejected.
func (r *Registry) Register(c Check) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID := r.checks[c.Role()]
	if byID == nil {
		byID = make(map[string]Check)
		r.checks[c.Role()] = byID
	}
	if _, exists := byID[c.ID()]; exists {
		return fmt.Errorf("preflight check %q already registered for role %q", c.ID(), c.Role())
	}
	byID[c.ID()] = c
	return nil
}

// Get looks up a check by role and id.
func (r *Registry) Get(role adapter.Role, id string) (Check, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checks[role][id]
	return c, ok
}

// IDs returns the registered check ids for role.
func (r *Registry) IDs(role adapter.Role) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.checks[role]))
	for id := range r.checks[role] {
		ids = append(ids, id)
	}
	return ids
}

// DefaultCheckTimeout bounds a single check when the engine is built with
// a zero timeout.
const DefaultCheckTimeout = 10 * time.Second

// Engine executes the checks a profile binding references. Every check
// runs even after earlier failures so the operator sees the full picture
// in one pass.
type Engine struct {
	registry *Registry
	timeout  time.Duration
	log      *logger.Logger
}

// NewEngine builds an engine over registry. timeout bounds each check;
// zero selects DefaultCheckTimeout.
func NewEngine(registry *Registry, timeout time.Duration, log *logger.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{registry: registry, timeout: timeout, log: log}
}

// Run executes each referenced check in order. An unknown check id aborts
// immediately with a configuration error. Check failures do not abort the
// run; they accumulate in the returned results.
func (e *Engine) Run(ctx context.Context, role adapter.Role, refs []profile.PreflightRef, req Request) ([]Result, error) {
	results := make([]Result, 0, len(refs))
	for _, ref := range refs {
		check, ok := e.registry.Get(role, ref.ID)
		if !ok {
			return nil, errors.NewPreflightConfigError(role.String(), ref.ID)
		}

		required := check.DefaultRequired()
		if ref.Required != nil {
			required = *ref.Required
		}

		effective := adapter.Merge(req.Settings, adapter.Settings(ref.Params))
		checkReq := Request{
			Role:        role,
			Settings:    effective,
			AdapterName: req.AdapterName,
			Adapter:     req.Adapter,
		}

		start := time.Now()
		outcome, timedOut := e.runOne(ctx, check, checkReq)
		res := Result{
			Role:     role,
			ID:       ref.ID,
			Required: required,
			OK:       outcome.OK,
			Skipped:  outcome.Skipped,
			Message:  outcome.Message,
			Details:  outcome.Details,
			Duration: time.Since(start),
		}
		if timedOut {
			// A check that cannot finish in time is treated as a hard
			// failure regardless of its configured requiredness.
			res.Required = true
		}
		results = append(results, res)

		entry := e.log.With("check", ref.ID).With("role", role.String())
		switch {
		case res.Skipped:
			entry.Debug("preflight skipped: " + res.Message)
		case res.OK:
			entry.Debug("preflight passed")
		default:
			entry.Warn("preflight failed: " + res.Message)
		}
	}
	return results, nil
}

func (e *Engine) runOne(ctx context.Context, check Check, req Request) (Outcome, bool) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- failf("check panicked: %v", r)
			}
		}()
		done <- check.Run(ctx, req)
	}()

	select {
	case outcome := <-done:
		return outcome, false
	case <-ctx.Done():
		return failf("check %q did not finish within %s", check.ID(), e.timeout), true
	}
}

// Partition splits results into required failures and soft failures.
// Passing and skipped results appear in neither slice.
func Partition(results []Result) (required, soft []Result) {
	for _, r := range results {
		if !r.Failed() {
			continue
		}
		if r.Required {
			required = append(required, r)
		} else {
			soft = append(soft, r)
		}
	}
	return required, soft
}

// Summarize renders required failures as a single message for an abort
// error, one "id: message" fragment per failure.
func Summarize(failures []Result) string {
	if len(failures) == 0 {
		return ""
	}
	msg := ""
	for i, f := range failures {
		if i > 0 {
			msg += "; "
		}
		msg += f.ID + ": " + f.Message
	}
	return msg
}
