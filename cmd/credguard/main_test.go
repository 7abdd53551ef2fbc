package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credguard/internal/mockbackend"
	"credguard/internal/models"
	"credguard/pkg/testutil"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func newBackend(t *testing.T) string {
	t.Helper()
	t.Setenv("CREDGUARD_POLL_INTERVAL", "1ms")
	t.Setenv("CREDGUARD_POLL_MAX_INTERVAL", "2ms")
	srv := httptest.NewServer(mockbackend.New(mockbackend.Config{PollsToIssue: 1}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestUsage(t *testing.T) {
	res := runCLI(t, "")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "Commands:")

	res = runCLI(t, "", "bogus")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "Unknown command: bogus")

	res = runCLI(t, "", "help")
	assert.Equal(t, 0, res.code)
}

func TestHealth(t *testing.T) {
	url := newBackend(t)
	res := runCLI(t, "", "health", "-url", url)
	require.Equal(t, 0, res.code, res.stderr)

	var health models.Health
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &health))
	assert.Equal(t, "OK", health.Status)
}

func TestVerifyJSON(t *testing.T) {
	url := newBackend(t)
	raw, err := json.Marshal(testutil.NewCredentialBuilder().Build())
	require.NoError(t, err)

	t.Run("stdin", func(t *testing.T) {
		res := runCLI(t, string(raw), "verify-json", "-url", url)
		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, `"valid": true`)
	})

	t.Run("upload", func(t *testing.T) {
		res := runCLI(t, "", "verify", "-url", url, "-file", writeFile(t, "credential.json", raw))
		require.Equal(t, 0, res.code, res.stderr)
		assert.Contains(t, res.stdout, `"valid": true`)
	})

	t.Run("rejected credential", func(t *testing.T) {
		untrusted, err := json.Marshal(testutil.NewCredentialBuilder().Untrusted().Build())
		require.NoError(t, err)
		res := runCLI(t, string(untrusted), "verify-json", "-url", url)
		assert.Equal(t, 3, res.code)
		assert.Contains(t, res.stderr, "error (remote_error): Issuer is not trusted: Example University")
	})

	t.Run("invalid json", func(t *testing.T) {
		res := runCLI(t, "{", "verify-json", "-url", url)
		assert.Equal(t, 2, res.code)
		assert.Contains(t, res.stderr, "invalid_input")
	})
}

func TestIssue(t *testing.T) {
	url := newBackend(t)
	doc := writeFile(t, "passport.pdf", []byte("%PDF-1.7 scanned passport"))

	res := runCLI(t, "", "issue", "-url", url, "-file", doc, "-type", "PASSPORT", "-wallet", testutil.TestWallets.Holder)
	require.Equal(t, 0, res.code, res.stderr)

	var outcome models.IssuanceOutcome
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &outcome))
	require.NotNil(t, outcome.Issuance)
	assert.Equal(t, models.DocumentStatusCredentialIssued, outcome.Document.Status)

	status := runCLI(t, "", "status", "-url", url, "-id", outcome.Issuance.CredentialExchangeID)
	require.Equal(t, 0, status.code, status.stderr)
	assert.Contains(t, status.stdout, "credential_acked")

	conn := runCLI(t, "", "connection", "-url", url, "-id", outcome.Issuance.ConnectionID)
	assert.Equal(t, "Connection status: active\n", conn.stdout)

	revoke := runCLI(t, "", "revoke", "-url", url, "-id", outcome.Credential.ID)
	require.Equal(t, 0, revoke.code, revoke.stderr)
	assert.Contains(t, revoke.stdout, "revoked")
}

func TestIssueInputErrors(t *testing.T) {
	url := newBackend(t)

	res := runCLI(t, "", "issue", "-url", url, "-type", "PASSPORT")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "missing_wallet_id")

	res = runCLI(t, "", "issue", "-url", url, "-wallet", testutil.TestWallets.Holder)
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "missing_input")

	res = runCLI(t, "", "issue", "-url", url, "-type", "VISA", "-wallet", testutil.TestWallets.Holder)
	assert.Equal(t, 2, res.code)

	res = runCLI(t, "", "status", "-url", url)
	assert.Equal(t, 2, res.code)

	res = runCLI(t, "", "status", "-bogus")
	assert.Equal(t, 2, res.code)
}

func TestIssueAsync(t *testing.T) {
	url := newBackend(t)
	doc := writeFile(t, "passport.pdf", []byte("%PDF-1.7"))

	res := runCLI(t, "", "issue-async", "-url", url, "-file", doc, "-wallet", testutil.TestWallets.Holder)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "job job-")
	assert.Contains(t, res.stdout, "attempt 1: offer_sent")
	assert.Contains(t, res.stdout, "attempt 2: credential_acked")

	declined := runCLI(t, "", "issue-async", "-url", url, "-file", writeFile(t, "decline.pdf", []byte("%PDF")), "-wallet", testutil.TestWallets.Holder)
	assert.Equal(t, 3, declined.code)
}
