package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"credguard/internal/models"
	"credguard/internal/upload"
	dErrors "credguard/pkg/domain-errors"
	"credguard/pkg/validation"
)

// VerifyCredential submits a structured credential for verification. The
// request is validated before it leaves the process.
func (c *Client) VerifyCredential(ctx context.Context, req models.VerificationRequest) (*models.VerificationVerdict, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "credential could not be encoded")
	}

	resp, err := c.send(ctx, request{
		endpoint:    "verify",
		method:      http.MethodPost,
		path:        PathVerify,
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		size:        int64(len(payload)),
	})
	if err != nil {
		return nil, err
	}
	return decode[models.VerificationVerdict](resp, verdictShape)
}

// UploadAndVerify sends a credential file as multipart field "file".
func (c *Client) UploadAndVerify(ctx context.Context, file upload.File) (*models.VerificationVerdict, error) {
	if file == nil {
		return nil, dErrors.New(dErrors.CodeMissingInput, "no file provided")
	}
	body, err := encodeForm(file, nil, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, request{
		endpoint:    "upload",
		method:      http.MethodPost,
		path:        PathUpload,
		body:        body,
		contentType: body.contentType,
		size:        body.size,
	})
	if err != nil {
		return nil, err
	}
	return decode[models.VerificationVerdict](resp, verdictShape)
}
