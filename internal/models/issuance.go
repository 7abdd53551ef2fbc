package models

import (
	"strings"
	"time"
)

// Credential issuance statuses as reported on IssuedCredentialInfo.
const (
	CredentialStatusCreated   = "Created"
	CredentialStatusOfferSent = "Offer Sent"
	CredentialStatusAccepted  = "Accepted"
	CredentialStatusIssued    = "Issued"
	CredentialStatusRevoked   = "Revoked"
	CredentialStatusFailed    = "Failed"
)

// IssuedCredentialInfo is the verifiable credential minted (or previewed) from a document.
type IssuedCredentialInfo struct {
	ID                string         `json:"id"`
	Context           []string       `json:"context"`
	Type              []string       `json:"type"`
	Issuer            string         `json:"issuer"`
	CredentialSubject map[string]any `json:"credentialSubject"`
	IssuanceDate      time.Time      `json:"issuanceDate"`
	ExpirationDate    *time.Time     `json:"expirationDate"`
	Status            string         `json:"status"`
}

// IssuanceInfo is present only when a credential was actually issued.
type IssuanceInfo struct {
	CredentialExchangeID string    `json:"credentialExchangeId"`
	OfferURL             *string   `json:"offerUrl"`
	ConnectionID         string    `json:"connectionId"`
	WalletDID            string    `json:"walletDid"`
	ProcessingTimeMs     int64     `json:"processingTimeMs"`
	ProcessedAt          time.Time `json:"processedAt"`
}

// IssuanceOutcome is the terminal result of one synchronous issuance attempt.
type IssuanceOutcome struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message"`
	Document   *DocumentInfo         `json:"document"`
	Credential *IssuedCredentialInfo `json:"credential"`
	Issuance   *IssuanceInfo         `json:"issuance"`
}

// Issued reports whether the outcome claims a minted credential.
func (o IssuanceOutcome) Issued() bool {
	if o.Document != nil && o.Document.Status == DocumentStatusCredentialIssued {
		return true
	}
	return o.Credential != nil && o.Credential.Status == CredentialStatusIssued
}

// JobState tracks an asynchronous issuance job.
type JobState string

const (
	JobStateSubmitted JobState = "Submitted"
	JobStatePolling   JobState = "Polling"
	JobStateCompleted JobState = "Completed"
	JobStateFailed    JobState = "Failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// AsyncJob is the handle of an asynchronous issuance.
type AsyncJob struct {
	JobID string   `json:"jobId"`
	State JobState `json:"state"`
}

// ExchangeStatus classifies a backend exchange status string.
type ExchangeStatus int

const (
	ExchangeInProgress ExchangeStatus = iota
	ExchangeIssued
	ExchangeFailed
	ExchangeRevoked
)

// CredentialStatus is the body of GET /api/credentials/issuance/status/{exchangeId}.
type CredentialStatus struct {
	CredentialID *string `json:"credentialId"`
	ExchangeID   string  `json:"exchangeId"`
	Status       string  `json:"status"`
	Message      string  `json:"message"`
	Active       bool    `json:"active"`
}

// Classify maps the wallet-exchange status onto the poller's terminal set.
func (s CredentialStatus) Classify() ExchangeStatus {
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case "issued", "credential_issued", "credential_acked", "done":
		return ExchangeIssued
	case "failed", "abandoned", "error":
		return ExchangeFailed
	case "revoked":
		return ExchangeRevoked
	default:
		return ExchangeInProgress
	}
}

// Terminal reports whether polling should stop on this status.
func (s CredentialStatus) Terminal() bool {
	return s.Classify() != ExchangeInProgress
}

// IsActiveStatus mirrors the backend's notion of an active credential.
func IsActiveStatus(status string) bool {
	switch status {
	case "credential_acked", "issued", "active":
		return true
	default:
		return false
	}
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
