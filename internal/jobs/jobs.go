// Package jobs is a small in-process job ledger. Work runs synchronously
// when enqueued; the ledger exists so multi-stage handoffs have a durable
// in-memory record the CLI can report on, and so bus observers can mark
// completion of stages that finish elsewhere.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipline/internal/logger"
)

// State is a job's lifecycle position.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Job is one unit of tracked work.
type Job struct {
	ID        string
	Kind      string
	Payload   map[string]any
	State     State
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Handler executes a job kind.
type Handler func(ctx context.Context, job *Job) error

// Orchestrator registers handlers per kind and tracks every job it has
// run.
type Orchestrator struct {
	mu       sync.Mutex
	handlers map[string]Handler
	jobs     map[string]*Job
	log      *logger.Logger
	now      func() time.Time
}

// New returns an empty orchestrator.
func New(log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		handlers: make(map[string]Handler),
		jobs:     make(map[string]*Job),
		log:      log,
		now:      time.Now,
	}
}

// Register binds a handler to a job kind, rejecting duplicates.
func (o *Orchestrator) Register(kind string, handler Handler) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.handlers[kind]; exists {
		return fmt.Errorf("job kind %q already registered", kind)
	}
	o.handlers[kind] = handler
	return nil
}

// Enqueue creates a job and runs its handler immediately. The returned
// job reflects the final state; a handler error also comes back to the
// caller.
func (o *Orchestrator) Enqueue(ctx context.Context, kind string, payload map[string]any) (*Job, error) {
	o.mu.Lock()
	handler, ok := o.handlers[kind]
	if !ok {
		o.mu.Unlock()
		return nil, fmt.Errorf("no handler for job kind %q", kind)
	}
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		State:     StateRunning,
		CreatedAt: o.now(),
		UpdatedAt: o.now(),
	}
	o.jobs[job.ID] = job
	o.mu.Unlock()

	err := handler(ctx, job)

	o.mu.Lock()
	defer o.mu.Unlock()
	job.UpdatedAt = o.now()
	if err != nil {
		job.State = StateFailed
		job.Error = err.Error()
		o.log.With("job", job.ID).With("kind", kind).Error(err, "job failed")
		return job, err
	}
	job.State = StateDone
	return job, nil
}

// Get returns the job with id.
func (o *Orchestrator) Get(id string) (*Job, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	j, ok := o.jobs[id]
	return j, ok
}

// List returns all tracked jobs ordered by creation time.
func (o *Orchestrator) List() []*Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out
}

// MarkDone transitions a job to done from a bus observer.
func (o *Orchestrator) MarkDone(id string) error {
	return o.transition(id, StateDone, "")
}

// MarkFailed transitions a job to failed from a bus observer.
func (o *Orchestrator) MarkFailed(id, message string) error {
	return o.transition(id, StateFailed, message)
}

func (o *Orchestrator) transition(id string, state State, message string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	j, ok := o.jobs[id]
	if !ok {
		return fmt.Errorf("unknown job %q", id)
	}
	j.State = state
	j.Error = message
	j.UpdatedAt = o.now()
	return nil
}
