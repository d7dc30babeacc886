// Package scheduler wires up the named cron jobs that drive the ETL
// pipeline: sync, snapshot, analytics and cleanup, each on its own cadence.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// job is one named schedule entry.
type job struct {
	id      string
	name    string
	spec    string
	entryID cron.EntryID
	run     func(ctx context.Context)
}

// Scheduler wraps robfig/cron with named jobs, manual triggering and status
// introspection. Job bodies contain their own failures: a panicking or
// erroring job stays registered and never blocks sibling jobs.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	running bool
	jobs    map[string]*job
	order   []string // registration order, for stable status listings
}

// New creates an empty Scheduler. Jobs are added with Register.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		jobs: make(map[string]*job),
	}
}

// Register adds a named job bound to a cron spec. The body runs inside a
// recover wrapper so one bad run never deregisters the job.
func (s *Scheduler) Register(id, name, spec string, run func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %q already registered", id)
	}

	j := &job{id: id, name: name, spec: spec, run: run}
	entryID, err := s.cron.AddFunc(spec, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc(%s): %w", spec, err)
	}
	j.entryID = entryID

	s.jobs[id] = j
	s.order = append(s.order, id)
	return nil
}

// execute runs one job body with failure containment.
func (s *Scheduler) execute(j *job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[scheduler] Job %s panicked: %v", j.id, r)
		}
	}()

	log.Printf("[scheduler] Running job %s (%s)", j.id, j.name)
	started := time.Now()
	j.run(context.Background())
	log.Printf("[scheduler] Job %s finished in %s", j.id, time.Since(started).Round(time.Millisecond))
}

// Start begins firing schedules. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	log.Printf("[scheduler] Started with %d jobs", len(s.jobs))
}

// Stop halts the schedule loop. In-flight job bodies run to completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	log.Println("[scheduler] Stopped")
}

// Running reports whether the schedule loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// JobStatus describes one registered job for introspection.
type JobStatus struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run"`
	Trigger string    `json:"trigger"`
}

// JobStatuses lists every registered job in registration order.
func (s *Scheduler) JobStatuses() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, id := range s.order {
		j := s.jobs[id]
		statuses = append(statuses, JobStatus{
			ID:      j.id,
			Name:    j.name,
			NextRun: s.cron.Entry(j.entryID).Next,
			Trigger: j.spec,
		})
	}
	return statuses
}

// TriggerJob forces immediate execution of the named job, equivalent to
// moving its next run to now. The body runs asynchronously with the usual
// containment; every other job's schedule is left untouched. Returns false
// for an unknown id.
func (s *Scheduler) TriggerJob(id string) bool {
	s.mu.Lock()
	j, ok := s.jobs[id]
	s.mu.Unlock()

	if !ok {
		return false
	}

	log.Printf("[scheduler] Manually triggered job %s", id)
	go s.execute(j)
	return true
}
