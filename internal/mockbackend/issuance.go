package mockbackend

import (
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"credguard/internal/audit"
	"credguard/internal/models"
	"credguard/internal/platform/privacy"
	dErrors "credguard/pkg/domain-errors"
	"credguard/pkg/platform/httputil"
	"credguard/pkg/validation"
)

// Exchange statuses the mock backend ends on.
const (
	statusAcked     = "credential_acked"
	statusAbandoned = "abandoned"
	statusFailed    = "failed"
)

const credentialsContext = "https://www.w3.org/2018/credentials/v1"

// issueForm is the parsed multipart body of both issuance endpoints.
type issueForm struct {
	fileName     string
	documentType models.DocumentType
	walletDID    string
	previewOnly  bool
}

func (f issueForm) unreadable() bool {
	return strings.Contains(strings.ToLower(f.fileName), "unreadable")
}

func (f issueForm) declined() bool {
	return strings.Contains(strings.ToLower(f.fileName), "decline")
}

func parseIssueForm(r *http.Request) (issueForm, error) {
	if err := r.ParseMultipartForm(validation.MaxUploadMemory); err != nil {
		return issueForm{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed multipart body")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return issueForm{}, dErrors.New(dErrors.CodeMissingInput, "File is required and cannot be empty")
	}
	_ = file.Close()
	if header.Size == 0 {
		return issueForm{}, dErrors.New(dErrors.CodeMissingInput, "File is required and cannot be empty")
	}

	docType, err := models.ParseDocumentType(r.FormValue("documentType"))
	if err != nil {
		return issueForm{}, err
	}
	wallet := strings.TrimSpace(r.FormValue("walletDid"))
	if wallet == "" {
		return issueForm{}, dErrors.New(dErrors.CodeMissingWalletID, "walletDid must not be blank")
	}
	if err := validation.CheckStringLength("walletDid", wallet, validation.MaxWalletDIDLength); err != nil {
		return issueForm{}, err
	}

	form := issueForm{fileName: header.Filename, documentType: docType, walletDID: wallet}
	if raw := r.FormValue("previewOnly"); raw != "" {
		form.previewOnly, err = strconv.ParseBool(raw)
		if err != nil {
			return issueForm{}, dErrors.New(dErrors.CodeInvalidInput, "previewOnly must be true or false")
		}
	}
	return form, nil
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := s.now()
	form, err := parseIssueForm(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if form.unreadable() {
		s.logger.InfoContext(ctx, "extraction failed", "file", form.fileName)
		s.record(r, audit.Event{
			Action:   audit.ActionIssuanceFailed,
			Subject:  form.fileName,
			Wallet:   privacy.MaskDID(form.walletDID),
			Decision: "rejected",
			Reason:   "no attributes extracted",
		})
		httputil.WriteJSON(w, http.StatusInternalServerError, models.IssuanceOutcome{
			Success: false,
			Message: fmt.Sprintf("Failed to process document: no attributes could be extracted from %s", form.fileName),
		})
		return
	}

	document, credential := s.extract(form, start)
	if form.previewOnly {
		s.record(r, audit.Event{
			Action:   audit.ActionCredentialPreviewed,
			Subject:  credential.ID,
			Wallet:   privacy.MaskDID(form.walletDID),
			Decision: "preview",
		})
		httputil.WriteJSON(w, http.StatusOK, models.IssuanceOutcome{
			Success:    true,
			Message:    "Attributes extracted successfully. Preview only, no credential issued.",
			Document:   document,
			Credential: credential,
		})
		return
	}

	e := s.store.open(uuid.NewString(), 0, statusAcked)
	credential.ID = e.credentialID
	credential.Status = models.CredentialStatusIssued
	document.Status = models.DocumentStatusCredentialIssued
	offer := fmt.Sprintf("didcomm://credguard/offers/%s", e.id)
	processedAt := s.now()

	s.logger.InfoContext(ctx, "credential issued",
		"exchange_id", e.id,
		"document_type", form.documentType,
	)
	s.record(r, audit.Event{
		Action:   audit.ActionCredentialIssued,
		Subject:  credential.ID,
		Wallet:   privacy.MaskDID(form.walletDID),
		Decision: "issued",
	})
	httputil.WriteJSON(w, http.StatusOK, models.IssuanceOutcome{
		Success:    true,
		Message:    "Credential issued successfully",
		Document:   document,
		Credential: credential,
		Issuance: &models.IssuanceInfo{
			CredentialExchangeID: e.id,
			OfferURL:             &offer,
			ConnectionID:         e.connectionID,
			WalletDID:            form.walletDID,
			ProcessingTimeMs:     processedAt.Sub(start).Milliseconds(),
			ProcessedAt:          processedAt,
		},
	})
}

// extract builds the document and the unissued credential for a form.
func (s *Server) extract(form issueForm, at time.Time) (*models.DocumentInfo, *models.IssuedCredentialInfo) {
	id := newDocumentID()
	attributes := extractAttributes(form.documentType, id)
	subject := map[string]any{"id": form.walletDID}
	maps.Copy(subject, attributes)
	expires := at.AddDate(1, 0, 0)

	document := &models.DocumentInfo{
		ID:                  id,
		DocumentType:        form.documentType.DisplayName(),
		FileName:            form.fileName,
		Status:              models.DocumentStatusExtracted,
		ExtractedAttributes: attributes,
		UploadedAt:          at,
	}
	credential := &models.IssuedCredentialInfo{
		ID:                "urn:uuid:" + uuid.NewString(),
		Context:           []string{credentialsContext},
		Type:              []string{"VerifiableCredential", credentialTypes[form.documentType]},
		Issuer:            IssuerDID,
		CredentialSubject: subject,
		IssuanceDate:      at,
		ExpirationDate:    &expires,
		Status:            models.CredentialStatusCreated,
	}
	return document, credential
}

func (s *Server) handleIssueAsync(w http.ResponseWriter, r *http.Request) {
	form, err := parseIssueForm(r)
	if err != nil {
		httputil.WriteText(w, httputil.DomainCodeToHTTPStatus(dErrors.CodeOf(err)), dErrors.Message(err))
		return
	}
	if form.previewOnly {
		httputil.WriteText(w, http.StatusBadRequest, "Preview mode is not supported for async operations")
		return
	}

	final := statusAcked
	switch {
	case form.unreadable():
		final = statusFailed
	case form.declined():
		final = statusAbandoned
	}
	jobID := "job-" + uuid.NewString()
	s.store.open(jobID, s.pollsToIssue, final)

	s.logger.InfoContext(r.Context(), "async issuance started", "job_id", jobID, "final_status", final)
	s.record(r, audit.Event{
		Action:   audit.ActionIssuanceStarted,
		Subject:  jobID,
		Wallet:   privacy.MaskDID(form.walletDID),
		Decision: "accepted",
	})
	httputil.WriteText(w, http.StatusAccepted, "Credential issuance started. Job ID: "+jobID)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "exchangeId")
	status, credentialID, ok := s.store.poll(id)
	if !ok {
		httputil.WriteJSON(w, http.StatusInternalServerError, models.CredentialStatus{
			ExchangeID: id,
			Status:     "error",
			Message:    "Failed to retrieve status: exchange not found",
		})
		return
	}
	response := models.CredentialStatus{
		ExchangeID: id,
		Status:     status,
		Message:    "Status retrieved successfully",
		Active:     models.IsActiveStatus(status),
	}
	if credentialID != "" {
		response.CredentialID = &credentialID
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "credentialId")
	if !s.store.revoke(id) {
		httputil.WriteText(w, http.StatusInternalServerError, "Failed to revoke credential: credential not found")
		return
	}
	s.logger.InfoContext(r.Context(), "credential revoked", "credential_id", id)
	s.record(r, audit.Event{Action: audit.ActionCredentialRevoked, Subject: id, Decision: "revoked"})
	httputil.WriteText(w, http.StatusOK, "Credential revoked successfully")
}

func (s *Server) handleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := s.store.connection(chi.URLParam(r, "connectionId"))
	if !ok {
		httputil.WriteText(w, http.StatusInternalServerError, "Failed to get connection status: connection not found")
		return
	}
	httputil.WriteText(w, http.StatusOK, "Connection status: "+status)
}
