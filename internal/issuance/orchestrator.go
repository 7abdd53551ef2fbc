// Package issuance drives a scanned document through extraction and
// credential issuance, synchronously or as a polled background job.
package issuance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"credguard/internal/client"
	"credguard/internal/models"
	"credguard/internal/platform/logger"
	"credguard/internal/platform/metrics"
	"credguard/internal/platform/privacy"
	"credguard/internal/platform/tracer"
	"credguard/internal/upload"
	"credguard/internal/workflow"
	dErrors "credguard/pkg/domain-errors"
)

// Workflow states.
const (
	StateIdle       workflow.State = "Idle"
	StateUploading  workflow.State = "Uploading"
	StateExtracting workflow.State = "Extracting"
	StateIssuing    workflow.State = "Issuing"
	StatePolling    workflow.State = "Polling"
	StateDone       workflow.State = "Done"
	StateFailed     workflow.State = "Failed"
)

// Every non-idle state may move back to Uploading when a newer submission
// supersedes the current one. Polling -> Polling records intermediate statuses.
var transitions = workflow.Transitions{
	StateIdle:       {StateUploading},
	StateUploading:  {StateUploading, StateExtracting, StatePolling, StateFailed},
	StateExtracting: {StateUploading, StateIssuing, StateDone, StateFailed},
	StateIssuing:    {StateUploading, StateDone, StateFailed},
	StatePolling:    {StateUploading, StatePolling, StateDone, StateFailed},
	StateDone:       {StateUploading},
	StateFailed:     {StateUploading},
}

// Client is the backend port used by the orchestrator.
type Client interface {
	IssueFromDocument(ctx context.Context, req client.IssueRequest) (*models.IssuanceOutcome, error)
	IssueFromDocumentAsync(ctx context.Context, req client.IssueRequest) (string, error)
	CredentialStatus(ctx context.Context, exchangeID string) (*models.CredentialStatus, error)
	Revoke(ctx context.Context, credentialID string) error
	ConnectionStatus(ctx context.Context, connectionID string) (string, error)
	Health(ctx context.Context) (*models.Health, error)
}

// IssueInput is one issuance submission. File is any upload candidate.
type IssueInput struct {
	File         any
	DocumentType models.DocumentType
	WalletDID    string
	PreviewOnly  bool
}

// Result is the workflow data recorded by the latest submission.
type Result struct {
	Preview bool
	Outcome *models.IssuanceOutcome
	Job     *models.AsyncJob
	Status  *models.CredentialStatus
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

// WithPollConfig overrides the status polling backoff.
func WithPollConfig(cfg PollConfig) Option {
	return func(o *Orchestrator) {
		o.pollConfig = cfg
	}
}

// Orchestrator runs issuance submissions. A new submission supersedes the
// previous one and cancels its poller.
type Orchestrator struct {
	client     Client
	machine    *workflow.Machine[Result]
	poller     *StatusPoller
	pollConfig PollConfig
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     tracer.Tracer

	mu  sync.Mutex
	job *Job
}

// New creates an orchestrator in the Idle state.
func New(c Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:     c,
		machine:    workflow.New[Result](StateIdle, transitions),
		pollConfig: DefaultPollConfig(),
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
	o.poller = NewStatusPoller(c.CredentialStatus, o.pollConfig, o.logger, o.metrics, o.tracer)
	return o
}

func (in IssueInput) validate() (upload.File, error) {
	file, err := upload.ValidateIssuance(in.File, in.WalletDID)
	if err != nil {
		return nil, err
	}
	if !in.DocumentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown document type %q", in.DocumentType))
	}
	return file, nil
}

func (in IssueInput) spanAttributes(file upload.File) []tracer.Attribute {
	return []tracer.Attribute{
		tracer.String(tracer.AttrDocumentType, in.DocumentType.String()),
		tracer.Bool(tracer.AttrPreviewOnly, in.PreviewOnly),
		tracer.String(tracer.AttrWalletHash, privacy.MaskDID(in.WalletDID)),
		tracer.Int64(tracer.AttrFileSize, file.Size()),
	}
}

// Submit runs the synchronous issuance flow:
// Uploading -> Extracting -> (preview: Done) | (Issuing -> Done), or Failed.
func (o *Orchestrator) Submit(ctx context.Context, in IssueInput) (outcome *models.IssuanceOutcome, err error) {
	file, err := in.validate()
	if err != nil {
		return nil, err
	}
	ctx, span := o.tracer.Start(ctx, tracer.SpanIssuanceSubmit, in.spanAttributes(file)...)
	defer func() { span.End(err) }()

	ticket, err := o.begin(in.PreviewOnly)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrSequence, int64(ticket.Seq())))
	o.metrics.IncrementSubmissions(metrics.WorkflowIssuance)
	o.logger.InfoContext(ctx, "issuance submitted",
		"seq", ticket.Seq(),
		"document_type", in.DocumentType,
		"wallet", privacy.MaskDID(in.WalletDID),
		"preview_only", in.PreviewOnly,
	)

	uploaded := sync.OnceFunc(func() {
		span.AddEvent(tracer.EventUploaded)
		// A stale ticket means a newer submission owns the machine.
		_ = o.machine.Advance(ticket, StateExtracting, nil)
	})
	preview := in.PreviewOnly
	outcome, err = o.client.IssueFromDocument(ctx, client.IssueRequest{
		File:         file,
		DocumentType: in.DocumentType,
		WalletDID:    in.WalletDID,
		PreviewOnly:  &preview,
		OnUploaded:   uploaded,
	})
	if err != nil {
		return nil, o.fail(ctx, span, ticket, metrics.WorkflowIssuance, err)
	}
	uploaded()

	outcome, err = o.interpret(ctx, span, outcome, in.PreviewOnly)
	if err != nil {
		return nil, o.fail(ctx, span, ticket, metrics.WorkflowIssuance, err)
	}

	if !in.PreviewOnly {
		if err := o.machine.Advance(ticket, StateIssuing, nil); err != nil {
			return nil, o.dropped(ctx, span, ticket, metrics.WorkflowIssuance, err)
		}
	}
	if err := o.machine.Advance(ticket, StateDone, func(r *Result) { r.Outcome = outcome }); err != nil {
		return nil, o.dropped(ctx, span, ticket, metrics.WorkflowIssuance, err)
	}
	o.metrics.IncrementOutcome(metrics.WorkflowIssuance, "")
	o.logger.InfoContext(ctx, "issuance completed", "seq", ticket.Seq(), "preview_only", in.PreviewOnly)
	return outcome, nil
}

// interpret applies the outcome policy: success=false is a remote error,
// preview responses lose any issuance block and may not claim an issued
// credential, and a real issuance must carry one.
func (o *Orchestrator) interpret(ctx context.Context, span tracer.Span, outcome *models.IssuanceOutcome, preview bool) (*models.IssuanceOutcome, error) {
	if !outcome.Success {
		msg := outcome.Message
		if msg == "" {
			msg = "credential issuance failed"
		}
		return nil, dErrors.New(dErrors.CodeRemote, msg)
	}
	if preview {
		if outcome.Issued() {
			return nil, dErrors.New(dErrors.CodeMalformedResponse, "malformed issuance outcome: preview reports an issued credential")
		}
		if outcome.Issuance != nil {
			o.logger.WarnContext(ctx, "preview response carried an issuance block; discarding it",
				"exchange_id", outcome.Issuance.CredentialExchangeID)
			span.AddEvent(tracer.EventPreviewStrip)
			stripped := *outcome
			stripped.Issuance = nil
			outcome = &stripped
		}
		return outcome, nil
	}
	if outcome.Issuance == nil {
		return nil, dErrors.New(dErrors.CodeMalformedResponse, "malformed issuance outcome: issuance details missing")
	}
	return outcome, nil
}

// SubmitAsync starts a background issuance and polls its status:
// Uploading -> Polling -> Done | Failed. The returned job reports every
// poll; ctx, Job.Cancel, Reset or a newer submission stop polling.
func (o *Orchestrator) SubmitAsync(ctx context.Context, in IssueInput) (job *Job, err error) {
	file, err := in.validate()
	if err != nil {
		return nil, err
	}
	// The async endpoint always issues.
	in.PreviewOnly = false
	spanCtx, span := o.tracer.Start(ctx, tracer.SpanIssuanceSubmitAsync, in.spanAttributes(file)...)
	defer func() { span.End(err) }()

	ticket, err := o.begin(false)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrSequence, int64(ticket.Seq())))
	o.metrics.IncrementSubmissions(metrics.WorkflowIssuanceJob)

	jobID, err := o.client.IssueFromDocumentAsync(spanCtx, client.IssueRequest{
		File:         file,
		DocumentType: in.DocumentType,
		WalletDID:    in.WalletDID,
		OnUploaded:   func() { span.AddEvent(tracer.EventUploaded) },
	})
	if err != nil {
		return nil, o.fail(spanCtx, span, ticket, metrics.WorkflowIssuanceJob, err)
	}
	span.SetAttributes(tracer.String(tracer.AttrJobID, jobID))

	pollCtx, cancel := context.WithCancel(spanCtx)
	job = newJob(jobID, cancel)
	job.startPolling()
	if err := o.machine.Advance(ticket, StatePolling, func(r *Result) {
		r.Job = &models.AsyncJob{JobID: jobID, State: models.JobStatePolling}
	}); err != nil {
		cancel()
		return nil, o.dropped(spanCtx, span, ticket, metrics.WorkflowIssuanceJob, err)
	}

	if err := o.register(ticket, job); err != nil {
		return nil, o.dropped(spanCtx, span, ticket, metrics.WorkflowIssuanceJob, err)
	}

	o.logger.InfoContext(spanCtx, "issuance job accepted", "seq", ticket.Seq(), "job_id", jobID)
	go o.poll(pollCtx, ticket, job)
	return job, nil
}

func (o *Orchestrator) poll(ctx context.Context, ticket workflow.Ticket, job *Job) {
	o.metrics.IncrementActiveJobs()
	defer o.metrics.DecrementActiveJobs()

	final, err := o.poller.Run(ctx, job.ID(), func(u Update) bool {
		if !job.publish(u) {
			return false
		}
		if u.Status != nil {
			_ = o.machine.Advance(ticket, StatePolling, func(r *Result) { r.Status = u.Status })
		}
		return true
	})
	if err == nil {
		err = terminalError(final)
	}
	job.finish(final, err)

	jobState := job.Snapshot()
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeCancelled) && !o.machine.Current(ticket) {
			// Reset or a newer submission stopped us; nothing to record.
			return
		}
		o.recordJobFailure(ctx, ticket, &jobState, final, err)
		return
	}

	if advErr := o.machine.Advance(ticket, StateDone, func(r *Result) {
		r.Job = &jobState
		r.Status = final
	}); advErr != nil {
		o.metrics.IncrementSuperseded(metrics.WorkflowIssuanceJob)
		return
	}
	o.metrics.IncrementOutcome(metrics.WorkflowIssuanceJob, "")
	o.logger.Info("issuance job completed", "job_id", job.ID(), "status", final.Status)
}

func (o *Orchestrator) recordJobFailure(ctx context.Context, ticket workflow.Ticket, jobState *models.AsyncJob, final *models.CredentialStatus, err error) {
	if advErr := o.machine.Advance(ticket, StateFailed, func(r *Result) {
		r.Job = jobState
		if final != nil {
			r.Status = final
		}
		r.Message = dErrors.Message(err)
		r.Kind = dErrors.CodeOf(err)
	}); advErr != nil {
		o.metrics.IncrementSuperseded(metrics.WorkflowIssuanceJob)
		return
	}
	o.metrics.IncrementOutcome(metrics.WorkflowIssuanceJob, string(dErrors.CodeOf(err)))
	o.logger.WarnContext(context.WithoutCancel(ctx), "issuance job failed", "job_id", jobState.JobID, "error", err)
}

// terminalError maps a failed or revoked terminal status to a remote error.
func terminalError(s *models.CredentialStatus) error {
	if s == nil {
		return nil
	}
	switch s.Classify() {
	case models.ExchangeFailed:
		return dErrors.New(dErrors.CodeRemote, statusMessage(s, "credential exchange failed"))
	case models.ExchangeRevoked:
		return dErrors.New(dErrors.CodeRemote, statusMessage(s, "credential was revoked"))
	default:
		return nil
	}
}

func statusMessage(s *models.CredentialStatus, fallback string) string {
	if s.Message != "" {
		return s.Message
	}
	return fallback
}

// begin supersedes any previous submission and stops its poller.
func (o *Orchestrator) begin(preview bool) (workflow.Ticket, error) {
	ticket, err := o.machine.Begin(StateUploading, func(r *Result) { *r = Result{Preview: preview} })
	if err != nil {
		return workflow.Ticket{}, err
	}
	o.stopJob()
	return ticket, nil
}

// register makes job the active one unless ticket was superseded meanwhile,
// in which case the job is cancelled before it starts polling.
func (o *Orchestrator) register(ticket workflow.Ticket, job *Job) error {
	o.mu.Lock()
	if !o.machine.Current(ticket) {
		o.mu.Unlock()
		job.Cancel()
		return dErrors.New(dErrors.CodeSuperseded, "submission superseded by a newer one")
	}
	o.job = job
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) stopJob() {
	o.mu.Lock()
	job := o.job
	o.job = nil
	o.mu.Unlock()
	if job != nil {
		job.Cancel()
	}
}

func (o *Orchestrator) fail(ctx context.Context, span tracer.Span, ticket workflow.Ticket, workflowName string, cause error) error {
	if err := o.machine.Advance(ticket, StateFailed, func(r *Result) {
		r.Message = dErrors.Message(cause)
		r.Kind = dErrors.CodeOf(cause)
	}); err != nil {
		return o.dropped(ctx, span, ticket, workflowName, err)
	}
	kind := dErrors.CodeOf(cause)
	span.SetAttributes(tracer.String(tracer.AttrErrorKind, string(kind)))
	o.metrics.IncrementOutcome(workflowName, string(kind))
	o.logger.WarnContext(ctx, "issuance failed", "seq", ticket.Seq(), "kind", kind, "error", cause)
	return cause
}

func (o *Orchestrator) dropped(ctx context.Context, span tracer.Span, ticket workflow.Ticket, workflowName string, err error) error {
	if dErrors.HasCode(err, dErrors.CodeSuperseded) {
		span.AddEvent(tracer.EventSuperseded, tracer.Int64(tracer.AttrSequence, int64(ticket.Seq())))
		o.metrics.IncrementSuperseded(workflowName)
		o.logger.DebugContext(ctx, "issuance result discarded", "seq", ticket.Seq())
	}
	return err
}

// Job returns the active asynchronous job, if any.
func (o *Orchestrator) Job() *Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.job
}

// Snapshot returns the current state and the latest recorded result.
func (o *Orchestrator) Snapshot() Snapshot {
	return o.machine.Snapshot()
}

// Subscribe registers a listener for every state change.
func (o *Orchestrator) Subscribe(fn workflow.Listener[Result]) {
	o.machine.Subscribe(fn)
}

// Reset cancels polling, discards the job and returns to Idle.
func (o *Orchestrator) Reset() {
	o.machine.Reset()
	o.stopJob()
}

// Status fetches an exchange status without touching the workflow.
func (o *Orchestrator) Status(ctx context.Context, exchangeID string) (*models.CredentialStatus, error) {
	return o.client.CredentialStatus(ctx, exchangeID)
}

// Revoke revokes an issued credential.
func (o *Orchestrator) Revoke(ctx context.Context, credentialID string) error {
	if err := o.client.Revoke(ctx, credentialID); err != nil {
		return err
	}
	o.logger.InfoContext(ctx, "credential revoked", "credential_id", credentialID)
	return nil
}

// ConnectionStatus returns the wallet connection status text.
func (o *Orchestrator) ConnectionStatus(ctx context.Context, connectionID string) (string, error) {
	return o.client.ConnectionStatus(ctx, connectionID)
}

// Health reports backend health.
func (o *Orchestrator) Health(ctx context.Context) (*models.Health, error) {
	return o.client.Health(ctx)
}
