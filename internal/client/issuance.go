package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"credguard/internal/models"
	"credguard/internal/upload"
	dErrors "credguard/pkg/domain-errors"
	"credguard/pkg/validation"
)

// IssueRequest is one document issuance submission.
type IssueRequest struct {
	File         upload.File
	DocumentType models.DocumentType
	WalletDID    string
	// PreviewOnly is sent only when set. The async endpoint never sends it.
	PreviewOnly *bool
	// OnUploaded fires once the request body has been fully handed to the
	// transport, or a response arrived, whichever comes first.
	OnUploaded func()
}

func (r IssueRequest) check() error {
	if strings.TrimSpace(r.WalletDID) == "" {
		return dErrors.New(dErrors.CodeMissingWalletID, "walletDid must not be blank")
	}
	if err := validation.CheckStringLength("walletDid", r.WalletDID, validation.MaxWalletDIDLength); err != nil {
		return err
	}
	if r.File == nil {
		return dErrors.New(dErrors.CodeMissingInput, "no file provided")
	}
	if !r.DocumentType.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown document type %q", r.DocumentType))
	}
	return nil
}

func (r IssueRequest) fields(withPreview bool) []formField {
	fields := []formField{
		{name: "documentType", value: r.DocumentType.String()},
		{name: "walletDid", value: r.WalletDID},
	}
	if withPreview && r.PreviewOnly != nil {
		fields = append(fields, formField{name: "previewOnly", value: strconv.FormatBool(*r.PreviewOnly)})
	}
	return fields
}

// IssueFromDocument runs extraction and, unless previewing, issuance in one
// request. The outcome is returned as sent; success and preview policy
// belong to the caller.
func (c *Client) IssueFromDocument(ctx context.Context, req IssueRequest) (*models.IssuanceOutcome, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	resp, err := c.sendForm(ctx, "issue", PathIssue, req, true)
	if err != nil {
		return nil, err
	}
	return decode[models.IssuanceOutcome](resp, outcomeShape)
}

var jobIDPattern = regexp.MustCompile(`Job ID: ([^\r\n]+)`)

// ExtractJobID pulls the job id out of an acknowledgement such as
// "Credential issuance started. Job ID: job-123". Text without the marker is
// taken whole.
func ExtractJobID(text string) string {
	if m := jobIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// IssueFromDocumentAsync starts a background issuance and returns its job id.
// The body is read as text whatever its declared content type.
func (c *Client) IssueFromDocumentAsync(ctx context.Context, req IssueRequest) (string, error) {
	if err := req.check(); err != nil {
		return "", err
	}
	resp, err := c.sendForm(ctx, "issue_async", PathIssueAsync, req, false)
	if err != nil {
		return "", err
	}
	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	jobID := ExtractJobID(string(body))
	if strings.TrimSpace(jobID) == "" {
		return "", dErrors.New(dErrors.CodeMalformedResponse, "malformed async issuance response: no job id")
	}
	return jobID, nil
}

func (c *Client) sendForm(ctx context.Context, endpoint, path string, req IssueRequest, withPreview bool) (*http.Response, error) {
	body, err := encodeForm(req.File, req.fields(withPreview), req.OnUploaded)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, request{
		endpoint:    endpoint,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: body.contentType,
		size:        body.size,
	})
	if err == nil || dErrors.HasCode(err, dErrors.CodeRemote) {
		body.sent()
	}
	return resp, err
}

// CredentialStatus fetches the exchange status. Concurrent calls for the
// same exchange share one request; each caller still honors its own context.
func (c *Client) CredentialStatus(ctx context.Context, exchangeID string) (*models.CredentialStatus, error) {
	if err := validation.CheckIdentifier("exchangeId", exchangeID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCancelled, "request cancelled")
	}

	ch := c.statusCalls.DoChan(exchangeID, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		resp, err := c.send(shared, request{
			endpoint: "status",
			method:   http.MethodGet,
			path:     PathStatusPrefix + url.PathEscape(exchangeID),
		})
		if err != nil {
			return nil, err
		}
		return decode[models.CredentialStatus](resp, statusShape)
	})

	select {
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeCancelled, "request cancelled")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		status := *res.Val.(*models.CredentialStatus)
		return &status, nil
	}
}

// Revoke revokes an issued credential. Any 2xx counts as success.
func (c *Client) Revoke(ctx context.Context, credentialID string) error {
	if err := validation.CheckIdentifier("credentialId", credentialID); err != nil {
		return err
	}
	resp, err := c.send(ctx, request{
		endpoint: "revoke",
		method:   http.MethodPost,
		path:     PathRevokePrefix + url.PathEscape(credentialID),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, validation.MaxErrorBodySize))
	return nil
}

// ConnectionStatus returns the wallet connection status text untouched.
func (c *Client) ConnectionStatus(ctx context.Context, connectionID string) (string, error) {
	if err := validation.CheckIdentifier("connectionId", connectionID); err != nil {
		return "", err
	}
	resp, err := c.send(ctx, request{
		endpoint: "connection_status",
		method:   http.MethodGet,
		path:     fmt.Sprintf(PathConnectionIDFmt, url.PathEscape(connectionID)),
	})
	if err != nil {
		return "", err
	}
	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Health reports the backend health document.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	resp, err := c.send(ctx, request{
		endpoint: "health",
		method:   http.MethodGet,
		path:     PathHealth,
	})
	if err != nil {
		return nil, err
	}
	return decode[models.Health](resp, healthShape)
}
