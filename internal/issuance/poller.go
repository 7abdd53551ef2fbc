package issuance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"credguard/internal/models"
	"credguard/internal/platform/logger"
	"credguard/internal/platform/metrics"
	"credguard/internal/platform/tracer"
	dErrors "credguard/pkg/domain-errors"
	"credguard/pkg/platform/circuit"
)

// PollConfig configures the status poller's exponential backoff.
type PollConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxAttempts         int
	// DegradedAfter is the run of failed polls after which updates are
	// flagged as degraded.
	DegradedAfter int
}

// DefaultPollConfig returns sensible defaults for status polling.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		InitialInterval:     1 * time.Second,
		MaxInterval:         10 * time.Second,
		Multiplier:          1.5,
		RandomizationFactor: 0.2,
		MaxAttempts:         60,
		DegradedAfter:       3,
	}
}

func (c PollConfig) withDefaults() PollConfig {
	d := DefaultPollConfig()
	if c.InitialInterval <= 0 {
		c.InitialInterval = d.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = d.MaxInterval
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = c.InitialInterval
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	if c.RandomizationFactor < 0 || c.RandomizationFactor > 1 {
		c.RandomizationFactor = d.RandomizationFactor
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.DegradedAfter <= 0 {
		c.DegradedAfter = d.DegradedAfter
	}
	return c
}

func (c PollConfig) backoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = c.RandomizationFactor
	// Attempts bound the loop, not elapsed time.
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Update is one poll result. Exactly one of Status and Err is set.
type Update struct {
	JobID   string
	Attempt int
	Status  *models.CredentialStatus
	Err     error
	At      time.Time
	// Degraded is set while the status endpoint keeps failing.
	Degraded bool
}

// StatusFetcher fetches the status of one exchange.
type StatusFetcher func(ctx context.Context, exchangeID string) (*models.CredentialStatus, error)

// StatusPoller repeatedly fetches a job's status until it is terminal.
type StatusPoller struct {
	fetch   StatusFetcher
	cfg     PollConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

// NewStatusPoller creates a poller. Zero config fields take defaults.
func NewStatusPoller(fetch StatusFetcher, cfg PollConfig, l *slog.Logger, m *metrics.Metrics, tr tracer.Tracer) *StatusPoller {
	if l == nil {
		l = logger.Discard()
	}
	if tr == nil {
		tr = tracer.NewNoop()
	}
	return &StatusPoller{
		fetch:   fetch,
		cfg:     cfg.withDefaults(),
		logger:  l,
		metrics: m,
		tracer:  tr,
	}
}

// Run polls jobID. The first request goes out immediately; later ones wait
// for the next backoff interval. Fetch failures are published and polling
// continues. Run stops on the first terminal status without another request,
// on cancellation, or after MaxAttempts with a timeout error. publish must
// not block; it reports false once the consumer has gone away.
func (p *StatusPoller) Run(ctx context.Context, jobID string, publish func(Update) bool) (final *models.CredentialStatus, err error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanIssuancePoll, tracer.String(tracer.AttrJobID, jobID))
	defer func() { span.End(err) }()

	b := p.cfg.backoff()
	breaker := circuit.New("status:"+jobID, circuit.WithFailureThreshold(p.cfg.DegradedAfter))

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		status, fetchErr := p.fetch(ctx, jobID)
		if ctx.Err() != nil {
			// The in-flight response is discarded.
			return nil, cancelled(ctx)
		}

		change := breaker.Record(fetchErr)
		u := Update{JobID: jobID, Attempt: attempt, Status: status, Err: fetchErr, At: time.Now(), Degraded: breaker.IsOpen()}
		p.record(ctx, span, u)
		p.recordHealth(ctx, span, u, change)
		if !publish(u) {
			return nil, cancelled(ctx)
		}
		if fetchErr == nil && status.Terminal() {
			return status, nil
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}

		wait := time.NewTimer(b.NextBackOff())
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, cancelled(ctx)
		case <-wait.C:
		}
	}
	return nil, dErrors.New(dErrors.CodeTimeout,
		fmt.Sprintf("job %s did not reach a terminal status after %d attempts", jobID, p.cfg.MaxAttempts))
}

func (p *StatusPoller) record(ctx context.Context, span tracer.Span, u Update) {
	attrs := []tracer.Attribute{tracer.Int64(tracer.AttrAttempt, int64(u.Attempt))}
	if u.Err != nil {
		kind := string(dErrors.CodeOf(u.Err))
		attrs = append(attrs, tracer.String(tracer.AttrErrorKind, kind))
		p.metrics.IncrementPollAttempts(kind)
		p.logger.WarnContext(ctx, "status poll failed", "job_id", u.JobID, "attempt", u.Attempt, "error", u.Err)
	} else {
		attrs = append(attrs, tracer.String(tracer.AttrStatus, u.Status.Status))
		p.metrics.IncrementPollAttempts(pollResult(u.Status))
		p.logger.DebugContext(ctx, "status polled", "job_id", u.JobID, "attempt", u.Attempt, "status", u.Status.Status)
	}
	span.AddEvent(tracer.EventPollResult, attrs...)
}

func (p *StatusPoller) recordHealth(ctx context.Context, span tracer.Span, u Update, change circuit.StateChange) {
	switch {
	case change.Opened:
		span.AddEvent(tracer.EventPollDegraded, tracer.Int64(tracer.AttrAttempt, int64(u.Attempt)))
		p.logger.WarnContext(ctx, "status endpoint degraded", "job_id", u.JobID, "attempt", u.Attempt, "consecutive_failures", p.cfg.DegradedAfter)
	case change.Closed:
		span.AddEvent(tracer.EventPollRecovered, tracer.Int64(tracer.AttrAttempt, int64(u.Attempt)))
		p.logger.InfoContext(ctx, "status endpoint recovered", "job_id", u.JobID, "attempt", u.Attempt)
	}
}

func pollResult(s *models.CredentialStatus) string {
	switch s.Classify() {
	case models.ExchangeIssued:
		return "issued"
	case models.ExchangeFailed:
		return "failed"
	case models.ExchangeRevoked:
		return "revoked"
	default:
		return "in_progress"
	}
}

func cancelled(ctx context.Context) error {
	return dErrors.Wrap(context.Cause(ctx), dErrors.CodeCancelled, "status polling cancelled")
}

// updateBuffer bounds the number of unread updates kept per job.
const updateBuffer = 16

// Job is the handle of one asynchronous issuance. Updates arrive on
// Updates() until polling stops, after which the channel is closed.
type Job struct {
	id      string
	updates chan Update
	done    chan struct{}
	cancel  context.CancelFunc

	mu       sync.Mutex
	stopped  bool
	state    models.JobState
	last     *models.CredentialStatus
	final    *models.CredentialStatus
	finalErr error
}

func newJob(id string, cancel context.CancelFunc) *Job {
	return &Job{
		id:      id,
		updates: make(chan Update, updateBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
		state:   models.JobStateSubmitted,
	}
}

// ID returns the backend job identifier.
func (j *Job) ID() string { return j.id }

// Updates delivers poll results. When the consumer falls behind, the oldest
// unread update is dropped.
func (j *Job) Updates() <-chan Update { return j.updates }

// Done is closed once polling has stopped for any reason.
func (j *Job) Done() <-chan struct{} { return j.done }

// Snapshot returns the job's id and state.
func (j *Job) Snapshot() models.AsyncJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return models.AsyncJob{JobID: j.id, State: j.state}
}

// LastStatus returns the most recent successfully fetched status.
func (j *Job) LastStatus() *models.CredentialStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Cancel stops polling. No update is delivered after Cancel returns.
func (j *Job) Cancel() {
	j.mu.Lock()
	j.stopped = true
	j.mu.Unlock()
	j.cancel()
}

// Wait blocks until polling stops or ctx is done.
func (j *Job) Wait(ctx context.Context) (*models.CredentialStatus, error) {
	select {
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeCancelled, "stopped waiting for job")
	case <-j.done:
		j.mu.Lock()
		defer j.mu.Unlock()
		return j.final, j.finalErr
	}
}

func (j *Job) startPolling() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = models.JobStatePolling
}

// publish delivers u without blocking. It reports false once the job has
// been cancelled.
func (j *Job) publish(u Update) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stopped {
		return false
	}
	if u.Status != nil {
		j.last = u.Status
	}
	select {
	case j.updates <- u:
	default:
		select {
		case <-j.updates:
		default:
		}
		j.updates <- u
	}
	return true
}

func (j *Job) finish(final *models.CredentialStatus, err error) {
	j.mu.Lock()
	j.final, j.finalErr = final, err
	if err == nil && final != nil && final.Classify() == models.ExchangeIssued {
		j.state = models.JobStateCompleted
	} else {
		j.state = models.JobStateFailed
	}
	j.stopped = true
	close(j.updates)
	j.mu.Unlock()
	close(j.done)
}
