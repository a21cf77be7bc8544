package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/author-analytics-service/internal/domain"
)

// JobStatus is the lifecycle state of a report job.
type JobStatus string

const (
	// JobPending means the job is registered but waiting for a build slot.
	JobPending JobStatus = "pending"
	// JobRunning means the pipeline is building the report.
	JobRunning JobStatus = "running"
	// JobCompleted means the report is ready.
	JobCompleted JobStatus = "completed"
	// JobFailed means the build ended with an error.
	JobFailed JobStatus = "failed"
)

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// DefaultJobRetention is how long terminal jobs stay queryable.
const DefaultJobRetention = time.Hour

// subscriberBuffer is the per-subscriber event backlog. A subscriber that
// falls further behind loses events rather than blocking the build.
const subscriberBuffer = 16

// Job is one tracked report build. Snapshots returned by the Store are
// copies; the Report pointer is shared and read-only once set.
type Job struct {
	ID        string
	ORCID     string
	Status    JobStatus
	Progress  Progress
	Report    *Report
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is an in-memory registry of report jobs with progress fan-out to
// subscribers. Terminal jobs expire after the retention window: expired
// jobs are invisible to Get and Subscribe and are removed on the next
// Create. Nothing is persisted.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	subs      map[string]map[int64]chan Progress
	nextSubID int64
	retention time.Duration
	logger    zerolog.Logger
}

// NewStore creates a Store keeping terminal jobs for the given retention.
// Zero or negative retention falls back to DefaultJobRetention.
func NewStore(retention time.Duration, logger zerolog.Logger) *Store {
	if retention <= 0 {
		retention = DefaultJobRetention
	}
	return &Store{
		jobs:      make(map[string]*Job),
		subs:      make(map[string]map[int64]chan Progress),
		retention: retention,
		logger:    logger.With().Str("component", "report_store").Logger(),
	}
}

// Create registers a new pending job and returns a snapshot of it.
func (s *Store) Create(orcid string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepExpired()

	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		ORCID:     orcid,
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job

	snapshot := *job
	return &snapshot
}

// Get returns a snapshot of the job. It returns domain.ErrJobNotFound when
// the ID is unknown or the job has expired.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok || s.expired(job) {
		return Job{}, domain.ErrJobNotFound
	}
	return *job, nil
}

// SetRunning marks a pending job as running.
func (s *Store) SetRunning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != JobPending {
		return
	}
	job.Status = JobRunning
	job.UpdatedAt = time.Now()
}

// SetProgress records the latest pipeline event and fans it out to
// subscribers. Events for unknown or terminal jobs are dropped.
func (s *Store) SetProgress(id string, p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return
	}
	job.Progress = p
	job.UpdatedAt = time.Now()
	s.broadcast(id, p)
}

// Complete marks the job completed, attaches the report, and closes all
// subscriber channels after a final event.
func (s *Store) Complete(id string, report *Report) {
	s.finish(id, JobCompleted, Progress{Stage: StageCompleted}, report, "")
}

// Fail marks the job failed with its cause and closes all subscriber
// channels after a final event.
func (s *Store) Fail(id string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.finish(id, JobFailed, Progress{Stage: StageFailed, Message: msg}, nil, msg)
}

// Subscribe returns a channel of progress events for the job plus a cancel
// function releasing the subscription. Subscribing to a terminal job yields
// one event carrying the final state on an immediately closed channel.
func (s *Store) Subscribe(id string) (<-chan Progress, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || s.expired(job) {
		return nil, nil, domain.ErrJobNotFound
	}

	ch := make(chan Progress, subscriberBuffer)
	if job.Status.IsTerminal() {
		ch <- job.Progress
		close(ch)
		return ch, func() {}, nil
	}

	s.nextSubID++
	subID := s.nextSubID
	if s.subs[id] == nil {
		s.subs[id] = make(map[int64]chan Progress)
	}
	s.subs[id][subID] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[id], subID)
	}
	return ch, cancel, nil
}

func (s *Store) finish(id string, status JobStatus, p Progress, report *Report, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.IsTerminal() {
		return
	}
	job.Status = status
	job.Progress = p
	job.Report = report
	job.Error = errMsg
	job.UpdatedAt = time.Now()

	s.broadcast(id, p)
	for _, ch := range s.subs[id] {
		close(ch)
	}
	delete(s.subs, id)
}

// broadcast sends the event to every subscriber without blocking. The
// caller must hold the lock.
func (s *Store) broadcast(id string, p Progress) {
	for _, ch := range s.subs[id] {
		select {
		case ch <- p:
		default:
			s.logger.Warn().
				Str("job_id", id).
				Str("stage", string(p.Stage)).
				Msg("subscriber channel full, dropping progress event")
		}
	}
}

// expired reports whether a terminal job has outlived the retention window.
func (s *Store) expired(job *Job) bool {
	return job.Status.IsTerminal() && time.Since(job.UpdatedAt) > s.retention
}

// sweepExpired removes expired jobs. The caller must hold the lock.
func (s *Store) sweepExpired() {
	for id, job := range s.jobs {
		if s.expired(job) {
			delete(s.jobs, id)
		}
	}
}
