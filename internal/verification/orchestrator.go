// Package verification drives a credential from submission to verdict.
package verification

import (
	"context"
	"log/slog"

	"credguard/internal/models"
	"credguard/internal/platform/logger"
	"credguard/internal/platform/metrics"
	"credguard/internal/platform/tracer"
	"credguard/internal/upload"
	"credguard/internal/workflow"
	dErrors "credguard/pkg/domain-errors"
	"credguard/pkg/validation"
)

// Workflow states.
const (
	StateIdle       workflow.State = "Idle"
	StateSubmitting workflow.State = "Submitting"
	StateSucceeded  workflow.State = "Succeeded"
	StateFailed     workflow.State = "Failed"
)

// Submitting -> Submitting is the supersede edge.
var transitions = workflow.Transitions{
	StateIdle:       {StateSubmitting},
	StateSubmitting: {StateSubmitting, StateSucceeded, StateFailed},
	StateSucceeded:  {StateSubmitting},
	StateFailed:     {StateSubmitting},
}

// Client is the backend port used by the orchestrator.
type Client interface {
	VerifyCredential(ctx context.Context, req models.VerificationRequest) (*models.VerificationVerdict, error)
	UploadAndVerify(ctx context.Context, file upload.File) (*models.VerificationVerdict, error)
}

// Result is the workflow data recorded by the latest submission.
type Result struct {
	Verdict *models.VerificationVerdict
	Message string
	Kind    dErrors.Code
}

// Snapshot is a consistent view of the orchestrator.
type Snapshot = workflow.Snapshot[Result]

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger configures a logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithMetrics configures metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTracer configures a tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// Orchestrator runs verification submissions. Only the latest submission's
// result is recorded; older ones return a superseded error to their caller.
type Orchestrator struct {
	client  Client
	machine *workflow.Machine[Result]
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

// New creates an orchestrator in the Idle state.
func New(client Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		machine: workflow.New[Result](StateIdle, transitions),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Discard()
	}
	if o.tracer == nil {
		o.tracer = tracer.NewNoop()
	}
	return o
}

// SubmitFile validates candidate and uploads it for verification. A rejected
// candidate leaves the workflow untouched.
func (o *Orchestrator) SubmitFile(ctx context.Context, candidate any) (*models.VerificationVerdict, error) {
	file, err := upload.Validate(candidate)
	if err != nil {
		return nil, err
	}
	return o.submit(ctx, "file", func(ctx context.Context) (*models.VerificationVerdict, error) {
		return o.client.UploadAndVerify(ctx, file)
	}, tracer.Int64(tracer.AttrFileSize, file.Size()))
}

// SubmitCredential verifies an already-structured credential.
func (o *Orchestrator) SubmitCredential(ctx context.Context, req models.VerificationRequest) (*models.VerificationVerdict, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	return o.submit(ctx, "json", func(ctx context.Context) (*models.VerificationVerdict, error) {
		return o.client.VerifyCredential(ctx, req)
	})
}

func (o *Orchestrator) submit(
	ctx context.Context,
	variant string,
	call func(context.Context) (*models.VerificationVerdict, error),
	attrs ...tracer.Attribute,
) (verdict *models.VerificationVerdict, err error) {
	attrs = append(attrs, tracer.String(tracer.AttrVariant, variant))
	ctx, span := o.tracer.Start(ctx, tracer.SpanVerificationSubmit, attrs...)
	defer func() { span.End(err) }()

	ticket, err := o.machine.Begin(StateSubmitting, func(r *Result) { *r = Result{} })
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrSequence, int64(ticket.Seq())))
	o.metrics.IncrementSubmissions(metrics.WorkflowVerification)
	o.logger.InfoContext(ctx, "verification submitted", "variant", variant, "seq", ticket.Seq())

	verdict, callErr := call(ctx)
	if callErr != nil {
		if err := o.machine.Advance(ticket, StateFailed, func(r *Result) {
			r.Message = dErrors.Message(callErr)
			r.Kind = dErrors.CodeOf(callErr)
		}); err != nil {
			return nil, o.dropped(ctx, span, ticket, err)
		}
		kind := dErrors.CodeOf(callErr)
		span.SetAttributes(tracer.String(tracer.AttrErrorKind, string(kind)))
		o.metrics.IncrementOutcome(metrics.WorkflowVerification, string(kind))
		o.logger.WarnContext(ctx, "verification failed", "seq", ticket.Seq(), "kind", kind, "error", callErr)
		return nil, callErr
	}

	if err := o.machine.Advance(ticket, StateSucceeded, func(r *Result) { r.Verdict = verdict }); err != nil {
		return nil, o.dropped(ctx, span, ticket, err)
	}
	o.metrics.IncrementOutcome(metrics.WorkflowVerification, "")
	o.logger.InfoContext(ctx, "verification completed", "seq", ticket.Seq(), "valid", verdict.Valid)
	return verdict, nil
}

// dropped records a result discarded because a newer submission or a reset
// replaced it.
func (o *Orchestrator) dropped(ctx context.Context, span tracer.Span, ticket workflow.Ticket, err error) error {
	if dErrors.HasCode(err, dErrors.CodeSuperseded) {
		span.AddEvent(tracer.EventSuperseded, tracer.Int64(tracer.AttrSequence, int64(ticket.Seq())))
		o.metrics.IncrementSuperseded(metrics.WorkflowVerification)
		o.logger.DebugContext(ctx, "verification result discarded", "seq", ticket.Seq())
	}
	return err
}

// Snapshot returns the current state and the latest recorded result.
func (o *Orchestrator) Snapshot() Snapshot {
	return o.machine.Snapshot()
}

// Subscribe registers a listener for every state change.
func (o *Orchestrator) Subscribe(fn workflow.Listener[Result]) {
	o.machine.Subscribe(fn)
}

// Reset returns to Idle and discards any in-flight result.
func (o *Orchestrator) Reset() {
	o.machine.Reset()
}
