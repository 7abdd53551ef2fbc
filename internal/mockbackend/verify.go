package mockbackend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"credguard/internal/audit"
	"credguard/internal/models"
	"credguard/pkg/platform/httputil"
	"credguard/pkg/validation"
)

// Rule messages reported in verdict errors.
const (
	msgUntrustedIssuer  = "Issuer is not trusted: %s"
	msgExpired          = "Credential has expired"
	msgInvalidSignature = "Credential signature is invalid"
	msgNoExpiry         = "Credential has no expiration date"
)

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndValidate[models.VerificationRequest](r.Context(), w, r, s.logger)
	if !ok {
		return
	}
	s.writeVerdict(w, r, req.ID, s.verify(*req))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(validation.MaxUploadMemory); err != nil {
		s.logger.WarnContext(ctx, "failed to parse upload", "error", err)
		httputil.WriteErrors(w, http.StatusBadRequest, []string{"malformed multipart body"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteErrors(w, http.StatusBadRequest, []string{"Required part 'file' is not present."})
		return
	}
	defer file.Close()
	if header.Size == 0 {
		httputil.WriteErrors(w, http.StatusBadRequest, []string{"File is required and cannot be empty"})
		return
	}

	req, err := extractCredential(file)
	if err != nil {
		s.logger.InfoContext(ctx, "credential extraction failed", "file", header.Filename, "error", err)
		httputil.WriteJSON(w, http.StatusBadRequest, models.VerificationVerdict{
			Errors:      []string{fmt.Sprintf("Could not extract a credential from %s", header.Filename)},
			Warnings:    []string{},
			Explanation: "Credential extraction failed",
		})
		return
	}
	if violations := validation.Violations(req); len(violations) > 0 {
		httputil.WriteErrors(w, http.StatusBadRequest, violations)
		return
	}
	s.writeVerdict(w, r, req.ID, s.verify(*req))
}

// extractCredential reads a credential document. Only JSON documents are understood.
func extractCredential(r io.Reader) (*models.VerificationRequest, error) {
	var req models.VerificationRequest
	if err := json.NewDecoder(io.LimitReader(r, validation.MaxUploadMemory)).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Server) writeVerdict(w http.ResponseWriter, r *http.Request, credentialID string, verdict models.VerificationVerdict) {
	status := http.StatusOK
	event := audit.Event{Action: audit.ActionCredentialVerified, Subject: credentialID, Decision: "valid"}
	if !verdict.Valid {
		status = http.StatusBadRequest
		event.Decision = "invalid"
		event.Reason = strings.Join(verdict.Errors, ", ")
	}
	s.record(r, event)
	httputil.WriteJSON(w, status, verdict)
}

// verify applies the trust, signature and expiry rules to an already
// validated request.
func (s *Server) verify(req models.VerificationRequest) models.VerificationVerdict {
	credential, err := toCredential(req)
	if err != nil {
		return models.VerificationVerdict{
			Errors:      []string{err.Error()},
			Warnings:    []string{},
			Explanation: "Validation failed",
		}
	}

	verdict := models.VerificationVerdict{
		IssuerTrusted:  credential.Issuer.Trusted,
		SignatureValid: !signatureRevoked(credential.Claims),
		NotExpired:     !credential.Expired(s.now()),
		Errors:         []string{},
		Warnings:       []string{},
		Credential:     &credential,
	}
	if !verdict.IssuerTrusted {
		verdict.Errors = append(verdict.Errors, fmt.Sprintf(msgUntrustedIssuer, credential.Issuer.DisplayName))
	}
	if !verdict.NotExpired {
		verdict.Errors = append(verdict.Errors, msgExpired)
	}
	if !verdict.SignatureValid {
		verdict.Errors = append(verdict.Errors, msgInvalidSignature)
	}
	if credential.ExpiresAt == nil {
		verdict.Warnings = append(verdict.Warnings, msgNoExpiry)
	}

	verdict.Valid = len(verdict.Errors) == 0
	if verdict.Valid {
		verdict.Explanation = fmt.Sprintf("Credential '%s' issued by '%s' is valid. All checks passed.",
			credential.ID, credential.Issuer.DisplayName)
	} else {
		verdict.Explanation = fmt.Sprintf("Credential '%s' verification failed. Issues: %s",
			credential.ID, strings.Join(verdict.Errors, ", "))
	}
	return verdict
}

// signatureRevoked treats a "signature" claim of "invalid" as a failed signature check.
func signatureRevoked(claims models.Claims) bool {
	sig, ok := claims["signature"].(string)
	return ok && strings.EqualFold(sig, "invalid")
}

func toCredential(req models.VerificationRequest) (models.Credential, error) {
	if req.Issuer == nil {
		return models.Credential{}, errors.New("issuer: must not be null")
	}
	issuedAt, err := time.Parse(time.RFC3339, req.IssuedAt)
	if err != nil {
		return models.Credential{}, fmt.Errorf("issuedAt: %w", err)
	}
	credential := models.Credential{
		ID:   req.ID,
		Type: req.Type,
		Issuer: models.Issuer{
			ID:          req.Issuer.ID,
			DisplayName: req.Issuer.DisplayName,
			Trusted:     req.Issuer.Trusted,
		},
		Subject:  req.Subject,
		IssuedAt: issuedAt,
		Claims:   req.Claims,
	}
	if req.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return models.Credential{}, fmt.Errorf("expiresAt: %w", err)
		}
		credential.ExpiresAt = &expiresAt
	}
	return credential, nil
}
