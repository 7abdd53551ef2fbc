package models

import (
	"time"
)

// Issuer identifies who signed a credential and whether the verification
// engine trusts them.
type Issuer struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Trusted     bool   `json:"trusted"`
}

// Claims represents a set of credential claims.
type Claims map[string]any

// Credential is the structured credential echoed back by the verification
// engine. It is never mutated after decoding.
type Credential struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Issuer    Issuer     `json:"issuer"`
	Subject   string     `json:"subject"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt *time.Time `json:"expiresAt"`
	Claims    Claims     `json:"claims"`
}

// Expired reports whether the credential has an expiry at or before now.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// IssuerRequest is the issuer block of a VerificationRequest.
type IssuerRequest struct {
	ID          string `json:"id" validate:"notblank"`
	DisplayName string `json:"displayName" validate:"notblank"`
	Trusted     bool   `json:"trusted"`
}

// VerificationRequest is the JSON body of POST /api/credentials/verify.
// Timestamps travel as ISO-8601 strings.
type VerificationRequest struct {
	ID        string         `json:"id" validate:"notblank"`
	Type      string         `json:"type" validate:"notblank"`
	Issuer    *IssuerRequest `json:"issuer" validate:"required"`
	Subject   string         `json:"subject" validate:"notblank"`
	IssuedAt  string         `json:"issuedAt" validate:"notblank,datetime=2006-01-02T15:04:05Z07:00"`
	ExpiresAt *string        `json:"expiresAt" validate:"omitnil,datetime=2006-01-02T15:04:05Z07:00"`
	Claims    Claims         `json:"claims" validate:"required"`
}

// NewVerificationRequest builds the wire request for an already-structured credential.
func NewVerificationRequest(c Credential) VerificationRequest {
	req := VerificationRequest{
		ID:   c.ID,
		Type: c.Type,
		Issuer: &IssuerRequest{
			ID:          c.Issuer.ID,
			DisplayName: c.Issuer.DisplayName,
			Trusted:     c.Issuer.Trusted,
		},
		Subject:  c.Subject,
		IssuedAt: formatInstant(c.IssuedAt),
		Claims:   c.Claims,
	}
	if c.ExpiresAt != nil {
		expires := formatInstant(*c.ExpiresAt)
		req.ExpiresAt = &expires
	}
	if req.Claims == nil {
		req.Claims = Claims{}
	}
	return req
}

// formatInstant renders t in UTC with a Z suffix, which every ISO-8601
// instant parser accepts.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// VerificationVerdict is the engine's answer to one verification request.
// Produced once per request and never mutated afterwards.
type VerificationVerdict struct {
	Valid          bool        `json:"valid"`
	IssuerTrusted  bool        `json:"issuerTrusted"`
	SignatureValid bool        `json:"signatureValid"`
	NotExpired     bool        `json:"notExpired"`
	Errors         []string    `json:"errors"`
	Warnings       []string    `json:"warnings"`
	Explanation    string      `json:"explanation"`
	Credential     *Credential `json:"credential"`
}
