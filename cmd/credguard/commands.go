package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"credguard/internal/client"
	"credguard/internal/issuance"
	"credguard/internal/models"
	"credguard/internal/platform/config"
	"credguard/internal/platform/logger"
	"credguard/internal/platform/tracer"
	"credguard/internal/upload"
	"credguard/internal/verification"
	dErrors "credguard/pkg/domain-errors"
)

type command func(ctx context.Context, e *env, args []string) error

var commands = map[string]command{
	"verify":      runVerify,
	"verify-json": runVerifyJSON,
	"issue":       runIssue,
	"issue-async": runIssueAsync,
	"status":      runStatus,
	"revoke":      runRevoke,
	"connection":  runConnection,
	"health":      runHealth,
}

// errUsage marks flag errors already reported by the flag set.
var errUsage = errors.New("usage")

// env carries the process streams and the lazily built backend stack.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg    config.Config
	logger *slog.Logger
	client *client.Client
}

// connection flags shared by every command.
type connFlags struct {
	url     *string
	timeout *time.Duration
	verbose *bool
}

func newFlagSet(name string, e *env) (*flag.FlagSet, connFlags) {
	e.cfg = config.FromEnv()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs, connFlags{
		url:     fs.String("url", e.cfg.Client.BaseURL, "Backend base URL"),
		timeout: fs.Duration("timeout", e.cfg.Client.Timeout, "Per-request timeout"),
		verbose: fs.Bool("v", false, "Log requests to stderr"),
	}
}

func (e *env) parse(fs *flag.FlagSet, cf connFlags, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	level := "warn"
	if *cf.verbose {
		level = "debug"
	}
	e.logger = logger.NewWithLevel(level)
	c, err := client.New(client.Config{
		BaseURL: *cf.url,
		Timeout: *cf.timeout,
		Logger:  e.logger,
	})
	if err != nil {
		return err
	}
	e.client = c
	return nil
}

func (e *env) verification() *verification.Orchestrator {
	return verification.New(e.client,
		verification.WithLogger(e.logger),
		verification.WithTracer(tracer.NewOTel()),
	)
}

func (e *env) issuance() *issuance.Orchestrator {
	return issuance.New(e.client,
		issuance.WithLogger(e.logger),
		issuance.WithTracer(tracer.NewOTel()),
		issuance.WithPollConfig(issuance.PollConfig{
			InitialInterval: e.cfg.Poll.InitialInterval,
			MaxInterval:     e.cfg.Poll.MaxInterval,
			MaxAttempts:     e.cfg.Poll.MaxAttempts,
		}),
	)
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fail reports err and maps its kind to an exit code.
func (e *env) fail(err error) int {
	if errors.Is(err, errUsage) {
		return 2
	}
	kind := dErrors.CodeOf(err)
	fmt.Fprintf(e.stderr, "error (%s): %s\n", kind, dErrors.Message(err))
	switch kind {
	case dErrors.CodeInvalidInput, dErrors.CodeMissingInput, dErrors.CodeMissingWalletID:
		return 2
	case dErrors.CodeRemote:
		return 3
	default:
		return 1
	}
}

func requireFlag(name, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeMissingInput, fmt.Sprintf("-%s is required", name))
	}
	return nil
}

func runVerify(ctx context.Context, e *env, args []string) error {
	fs, cf := newFlagSet("verify", e)
	path := fs.String("file", "", "Credential file to upload")
	if err := e.parse(fs, cf, args); err != nil {
		return err
	}
	if err := requireFlag("file", *path); err != nil {
		return err
	}
	file, err := upload.FromPath(*path)
	if err != nil {
		return err
	}
	verdict, err := e.verification().SubmitFile(ctx, file)
	if err != nil {
		return err
	}
	return e.printJSON(verdict)
}

func runVerifyJSON(ctx context.Context, e *env, args []string) error {
	fs, cf := newFlagSet("verify-json", e)
	path := fs.String("file", "-", "JSON credential file, - for stdin")
	if err := e.parse(fs, cf, args); err != nil {
		return err
	}

	var r io.Reader = e.stdin
	if *path != "-" {
		f, err := os.Open(*path)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "cannot open credential file")
		}
		defer f.Close()
		r = f
	}
	var req models.VerificationRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "credential is not valid JSON")
	}

	verdict, err := e.verification().SubmitCredential(ctx, req)
	if err != nil {
		return err
	}
	return e.printJSON(verdict)
}

type issueFlags struct {
	file    *string
	docType *string
	wallet  *string
}

func addIssueFlags(fs *flag.FlagSet) issueFlags {
	return issueFlags{
		file:    fs.String("file", "", "Document to upload"),
		docType: fs.String("type", string(models.DocumentTypePassport), "Document type (enum or display name)"),
		wallet:  fs.String("wallet", "", "Holder wallet DID"),
	}
}

// input resolves the flags into an issuance input. A missing file is left nil
// so the upload gate reports it.
func (f issueFlags) input(preview bool) (issuance.IssueInput, error) {
	docType, err := models.ParseDocumentType(*f.docType)
	if err != nil {
		return issuance.IssueInput{}, err
	}
	in := issuance.IssueInput{DocumentType: docType, WalletDID: *f.wallet, PreviewOnly: preview}
	if *f.file != "" {
		file, err := upload.FromPath(*f.file)
		if err != nil {
			return issuance.IssueInput{}, err
		}
		in.File = file
	}
	return in, nil
}

func runIssue(ctx context.Context, e *env, args []string) error {
	fs, cf := newFlagSet("issue", e)
	flags := addIssueFlags(fs)
	preview := fs.Bool("preview", false, "Extract attributes only, do not issue")
	if err := e.parse(fs, cf, args); err != nil {
		return err
	}
	in, err := flags.input(*preview)
	if err != nil {
		return err
	}
	outcome, err := e.issuance().Submit(ctx, in)
	if err != nil {
		return err
	}
	return e.printJSON(outcome)
}

func runIssueAsync(ctx context.Context, e *env, args []string) error {
	fs, cf := newFlagSet("issue-async", e)
	flags := addIssueFlags(fs)
	noWait := fs.Bool("no-wait", false, "Print the job id and exit without polling")
	if err := e.parse(fs, cf, args); err != nil {
		return err
	}
	in, err := flags.input(false)
	if err != nil {
		return err
	}

	orchestrator := e.issuance()
	job, err := orchestrator.SubmitAsync(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "job %s submitted\n", job.ID())
	if *noWait {
		orchestrator.Reset()
		return nil
	}

	for u := range job.Updates() {
		switch {
		case u.Err != nil:
			fmt.Fprintf(e.stdout, "attempt %d: %s\n", u.Attempt, dErrors.Message(u.Err))
		case u.Status != nil:
			fmt.Fprintf(e.stdout, "attempt %d: %s\n", u.Attempt, u.Status.Status)
		}
	}
	final, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	return e.printJSON(final)
}

func idFlag(fs *flag.FlagSet, usage string) *string {
	return fs.String("id", "", usage)
}

func runStatus(ctx context.Context, e *env, args []string) error {
	fs, cf := newFlagSet("status", e)
	id := idFlag(fs, "Exchange or job id")
	if err := e.parse(fs, cf, args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	status, err := e.issuance().Status(ctx, *id)
	if err != nil {
		return err
	}
	return e.printJSON(status)
}

func runRevoke(ctx context.Context, e *env, args []string) error {
	fs, cf := newFlagSet("revoke", e)
	id := idFlag(fs, "Credential id")
	if err := e.parse(fs, cf, args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if err := e.issuance().Revoke(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "credential %s revoked\n", *id)
	return nil
}

func runConnection(ctx context.Context, e *env, args []string) error {
	fs, cf := newFlagSet("connection", e)
	id := idFlag(fs, "Connection id")
	if err := e.parse(fs, cf, args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	text, err := e.issuance().ConnectionStatus(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, text)
	return nil
}

func runHealth(ctx context.Context, e *env, args []string) error {
	fs, cf := newFlagSet("health", e)
	if err := e.parse(fs, cf, args); err != nil {
		return err
	}
	health, err := e.issuance().Health(ctx)
	if err != nil {
		return err
	}
	return e.printJSON(health)
}
