// Package main provides the credguard CLI: credential verification and
// document-based issuance against a configured backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
			printUsage(stdout)
			return 0
		}
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}
	env := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	if err := cmd(ctx, env, args[1:]); err != nil {
		return env.fail(err)
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `credguard - verify credentials and issue them from identity documents

Usage:
  credguard <command> [flags]

Commands:
  verify        Upload a credential file for verification
  verify-json   Verify a structured credential read from a JSON file (- for stdin)
  issue         Extract attributes from a document and issue a credential
  issue-async   Start asynchronous issuance and follow the job until it settles
  status        Show the status of a credential exchange or job
  revoke        Revoke an issued credential
  connection    Show the status of a wallet connection
  health        Check the backend health

Environment:
  CREDGUARD_API_URL            backend base URL (default http://localhost:8080)
  CREDGUARD_TIMEOUT            per-request timeout (default 60s)
  CREDGUARD_POLL_INTERVAL      first status poll interval (default 1s)
  CREDGUARD_POLL_MAX_INTERVAL  status poll interval cap (default 10s)
  CREDGUARD_POLL_MAX_ATTEMPTS  status polls before giving up (default 60)
  LOG_LEVEL                    debug, info, warn or error

Examples:
  # Issue a passport credential to a wallet
  credguard issue -file passport.pdf -type PASSPORT -wallet did:example:123

  # Preview extracted attributes without issuing
  credguard issue -file licence.jpg -type "Driver's License" -wallet did:example:123 -preview

  # Verify a credential document against a local mock backend
  credguard verify -url http://localhost:8080 -file credential.json
`)
}
