package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credguard/internal/models"
	"credguard/internal/upload"
	dErrors "credguard/pkg/domain-errors"
)

type ClientSuite struct {
	suite.Suite
	mux    *http.ServeMux
	server *httptest.Server
	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(s.mux)
	c, err := New(Config{BaseURL: s.server.URL + "/", Timeout: 5 * time.Second, HTTPClient: s.server.Client()})
	s.Require().NoError(err)
	s.client = c
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func validRequest() models.VerificationRequest {
	return models.VerificationRequest{
		ID:       "cred-1",
		Type:     "IdentityCredential",
		Issuer:   &models.IssuerRequest{ID: "did:example:issuer", DisplayName: "Issuer"},
		Subject:  "did:example:alice",
		IssuedAt: "2024-01-01T00:00:00Z",
		Claims:   models.Claims{"name": "Alice"},
	}
}

func passportRequest() IssueRequest {
	return IssueRequest{
		File:         &upload.Bytes{FileName: "passport.pdf", Data: []byte("%PDF-1.4")},
		DocumentType: models.DocumentTypePassport,
		WalletDID:    "did:example:123",
	}
}

func (s *ClientSuite) TestNew() {
	s.Run("rejects relative url", func() {
		_, err := New(Config{BaseURL: "localhost:8080"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("trims trailing slash", func() {
		c, err := New(Config{BaseURL: "http://localhost:8080/"})
		s.Require().NoError(err)
		s.Equal("http://localhost:8080", c.BaseURL())
	})
}

func (s *ClientSuite) TestVerifyCredential() {
	s.mux.HandleFunc("POST "+PathVerify, func(w http.ResponseWriter, r *http.Request) {
		s.Equal("application/json", r.Header.Get("Accept"))
		s.Equal("application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		s.Contains(string(body), `"issuedAt":"2024-01-01T00:00:00Z"`)
		writeJSON(w, http.StatusOK, `{"valid":true,"issuerTrusted":true,"signatureValid":true,"notExpired":true,"errors":[],"warnings":["self-signed"],"explanation":"ok","credential":null}`)
	})

	s.Run("decodes verdict", func() {
		verdict, err := s.client.VerifyCredential(context.Background(), validRequest())
		s.Require().NoError(err)
		s.True(verdict.Valid)
		s.Equal([]string{"self-signed"}, verdict.Warnings)
		s.Nil(verdict.Credential)
	})

	s.Run("invalid request never reaches the network", func() {
		req := validRequest()
		req.Issuer = nil
		_, err := s.client.VerifyCredential(context.Background(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal("issuer must not be null", err.Error())
	})
}

func (s *ClientSuite) TestRemoteErrorsAreNormalized() {
	s.mux.HandleFunc("POST "+PathVerify, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"errors":["Signature invalid","Issuer not trusted"]}`)
	})
	s.mux.HandleFunc("POST "+PathUpload, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := s.client.VerifyCredential(context.Background(), validRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeRemote))
	s.Equal("Signature invalid; Issuer not trusted", err.Error())
	s.Equal(http.StatusBadRequest, StatusCode(err))

	_, err = s.client.UploadAndVerify(context.Background(), &upload.Bytes{FileName: "c.json", Data: []byte("{}")})
	s.True(dErrors.HasCode(err, dErrors.CodeRemote))
	s.Equal("HTTP error! status: 503", err.Error())
}

func (s *ClientSuite) TestMalformedResponse() {
	s.mux.HandleFunc("POST "+PathVerify, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"valid":"yes"}`)
	})
	s.mux.HandleFunc("GET "+PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `<html>`)
	})

	_, err := s.client.VerifyCredential(context.Background(), validRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeMalformedResponse))

	_, err = s.client.Health(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeMalformedResponse))
}

func (s *ClientSuite) TestTransportError() {
	s.server.Close()
	_, err := s.client.Health(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeTransport))
	s.NotEmpty(err.Error())
}

func (s *ClientSuite) TestUploadAndVerifySendsFileField() {
	s.mux.HandleFunc("POST "+PathUpload, func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(r.ParseMultipartForm(1 << 20))
		f, header, err := r.FormFile("file")
		s.Require().NoError(err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		s.Equal("cred.json", header.Filename)
		s.Equal(`{"id":"x"}`, string(data))
		writeJSON(w, http.StatusOK, `{"valid":false,"errors":["expired"]}`)
	})

	verdict, err := s.client.UploadAndVerify(context.Background(), &upload.Bytes{FileName: "cred.json", Data: []byte(`{"id":"x"}`)})
	s.Require().NoError(err)
	s.False(verdict.Valid)
	s.Equal([]string{"expired"}, verdict.Errors)
}

func (s *ClientSuite) TestIssueFromDocument() {
	var fields map[string][]string
	s.mux.HandleFunc("POST "+PathIssue, func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(r.ParseMultipartForm(1 << 20))
		fields = r.MultipartForm.Value
		writeJSON(w, http.StatusOK, `{
			"success": true,
			"message": "Credential issued successfully",
			"document": {"id":"doc-1","documentType":"Passport","fileName":"passport.pdf","status":"Credential Issued","extractedAttributes":{"name":"Alice"},"uploadedAt":"2024-01-01T00:00:00Z"},
			"credential": {"id":"vc-1","context":["https://www.w3.org/2018/credentials/v1"],"type":["VerifiableCredential"],"issuer":"did:example:issuer","credentialSubject":{"name":"Alice"},"issuanceDate":"2024-01-01T00:00:00Z","expirationDate":null,"status":"Issued"},
			"issuance": {"credentialExchangeId":"ex-1","offerUrl":"didcomm://offer","connectionId":"conn-1","walletDid":"did:example:123","processingTimeMs":42,"processedAt":"2024-01-01T00:00:01Z"}
		}`)
	})

	s.Run("omits previewOnly when unset", func() {
		uploaded := false
		req := passportRequest()
		req.OnUploaded = func() { uploaded = true }

		outcome, err := s.client.IssueFromDocument(context.Background(), req)
		s.Require().NoError(err)
		s.True(uploaded)
		s.Equal([]string{"PASSPORT"}, fields["documentType"])
		s.Equal([]string{"did:example:123"}, fields["walletDid"])
		s.NotContains(fields, "previewOnly")
		s.Require().NotNil(outcome.Issuance)
		s.Equal("ex-1", outcome.Issuance.CredentialExchangeID)
		s.Equal(models.DocumentStatusCredentialIssued, outcome.Document.Status)
	})

	s.Run("sends stringified previewOnly", func() {
		preview := false
		req := passportRequest()
		req.PreviewOnly = &preview
		_, err := s.client.IssueFromDocument(context.Background(), req)
		s.Require().NoError(err)
		s.Equal([]string{"false"}, fields["previewOnly"])
	})

	s.Run("blank wallet is rejected locally", func() {
		req := passportRequest()
		req.WalletDID = "  "
		_, err := s.client.IssueFromDocument(context.Background(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingWalletID))
	})

	s.Run("unknown document type is rejected locally", func() {
		req := passportRequest()
		req.DocumentType = "VISA"
		_, err := s.client.IssueFromDocument(context.Background(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ClientSuite) TestIssueFromDocumentAsync() {
	var sawPreview atomic.Bool
	body := "Credential issuance started. Job ID: job-123"
	s.mux.HandleFunc("POST "+PathIssueAsync, func(w http.ResponseWriter, r *http.Request) {
		s.Require().NoError(r.ParseMultipartForm(1 << 20))
		if _, ok := r.MultipartForm.Value["previewOnly"]; ok {
			sawPreview.Store(true)
		}
		// Declared JSON, but the body is read as text regardless.
		writeJSON(w, http.StatusAccepted, body)
	})

	preview := true
	req := passportRequest()
	req.PreviewOnly = &preview
	jobID, err := s.client.IssueFromDocumentAsync(context.Background(), req)
	s.Require().NoError(err)
	s.Equal("job-123", jobID)
	s.False(sawPreview.Load())

	for _, blank := range []string{"", "   ", "\r\n\t"} {
		body = blank
		_, err = s.client.IssueFromDocumentAsync(context.Background(), passportRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeMalformedResponse), "body %q", blank)
	}
}

func (s *ClientSuite) TestExtractJobID() {
	s.Equal("job-123", ExtractJobID("Credential issuance started. Job ID: job-123"))
	s.Equal("abc def", ExtractJobID("Job ID: abc def"))
	s.Equal("job-1", ExtractJobID("Credential issuance started. Job ID: job-1\r\n"))
	s.Equal("job-2", ExtractJobID("Job ID: job-2\nqueued"))
	s.Equal("job-9\n", ExtractJobID("job-9\n"))
	s.Equal("queued", ExtractJobID("queued"))
}

func (s *ClientSuite) TestCredentialStatus() {
	var calls atomic.Int32
	release := make(chan struct{})
	s.mux.HandleFunc("GET "+PathStatusPrefix+"{id}", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		writeJSON(w, http.StatusOK, `{"credentialId":null,"exchangeId":"`+r.PathValue("id")+`","status":"offer_sent","message":"Offer sent","active":false}`)
	})

	s.Run("concurrent callers share one request", func() {
		var wg sync.WaitGroup
		results := make([]*models.CredentialStatus, 3)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				st, err := s.client.CredentialStatus(context.Background(), "ex-1")
				s.NoError(err)
				results[i] = st
			}(i)
		}
		s.Eventually(func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		s.Equal(int32(1), calls.Load())
		for _, st := range results {
			s.Require().NotNil(st)
			s.Equal("ex-1", st.ExchangeID)
			s.False(st.Terminal())
		}
	})

	s.Run("repeated calls see the same status", func() {
		first, err := s.client.CredentialStatus(context.Background(), "ex-3")
		s.Require().NoError(err)
		second, err := s.client.CredentialStatus(context.Background(), "ex-3")
		s.Require().NoError(err)
		s.Equal(first, second)
		s.NotSame(first, second)
	})

	s.Run("cancelled caller returns immediately", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.client.CredentialStatus(ctx, "ex-2")
		s.True(dErrors.HasCode(err, dErrors.CodeCancelled))
	})

	s.Run("blank id is rejected", func() {
		_, err := s.client.CredentialStatus(context.Background(), "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ClientSuite) TestRevokeAndConnectionStatus() {
	s.mux.HandleFunc("POST "+PathRevokePrefix+"{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			http.Error(w, "Credential not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "Credential revoked successfully")
	})
	s.mux.HandleFunc("GET /api/credentials/issuance/connection/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Connection status: active ")
	})

	s.NoError(s.client.Revoke(context.Background(), "vc-1"))

	err := s.client.Revoke(context.Background(), "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeRemote))
	s.Equal("Credential not found\n", err.Error())
	s.Equal(http.StatusNotFound, StatusCode(err))

	text, err := s.client.ConnectionStatus(context.Background(), "conn-1")
	s.Require().NoError(err)
	s.Equal("Connection status: active ", text)
}

func (s *ClientSuite) TestHealth() {
	s.mux.HandleFunc("GET "+PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"OK","service":"credguard-backend","version":"1.0.0"}`)
	})
	h, err := s.client.Health(context.Background())
	s.Require().NoError(err)
	s.Equal(models.Health{Status: "OK", Service: "credguard-backend", Version: "1.0.0"}, *h)
}

type failingDoer struct{ err error }

func (f failingDoer) Do(*http.Request) (*http.Response, error) { return nil, f.err }

func (s *ClientSuite) TestCancelledContextIsNotATransportFailure() {
	c, err := New(Config{BaseURL: "http://backend.invalid", HTTPClient: failingDoer{err: context.Canceled}})
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Health(ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeCancelled))

	c, err = New(Config{BaseURL: "http://backend.invalid", HTTPClient: failingDoer{err: errors.New("connection reset")}})
	s.Require().NoError(err)
	_, err = c.Health(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeTransport))
	s.True(strings.HasPrefix(err.Error(), "network error"))
}
