package testutil

import (
	"bytes"

	"credguard/internal/models"
	"credguard/internal/upload"
)

// TestWallets provides fixed wallet DIDs for tests.
var TestWallets = struct {
	Holder  string
	Another string
}{
	Holder:  "did:example:123",
	Another: "did:example:456",
}

// CredentialBuilder provides a fluent interface for building verification requests.
type CredentialBuilder struct {
	req models.VerificationRequest
}

// NewCredentialBuilder creates a CredentialBuilder for a valid, trusted, unexpired credential.
func NewCredentialBuilder() *CredentialBuilder {
	expires := "2030-01-01T00:00:00Z"
	return &CredentialBuilder{
		req: models.VerificationRequest{
			ID:   "cred-1",
			Type: "UniversityDegree",
			Issuer: &models.IssuerRequest{
				ID:          "did:example:uni",
				DisplayName: "Example University",
				Trusted:     true,
			},
			Subject:   "did:example:alice",
			IssuedAt:  "2024-01-01T00:00:00Z",
			ExpiresAt: &expires,
			Claims:    models.Claims{"degree": "BSc"},
		},
	}
}

func (b *CredentialBuilder) WithID(id string) *CredentialBuilder {
	b.req.ID = id
	return b
}

func (b *CredentialBuilder) Untrusted() *CredentialBuilder {
	b.req.Issuer.Trusted = false
	return b
}

func (b *CredentialBuilder) ExpiresAt(ts string) *CredentialBuilder {
	b.req.ExpiresAt = &ts
	return b
}

func (b *CredentialBuilder) WithoutExpiry() *CredentialBuilder {
	b.req.ExpiresAt = nil
	return b
}

func (b *CredentialBuilder) WithClaim(key string, value any) *CredentialBuilder {
	b.req.Claims[key] = value
	return b
}

func (b *CredentialBuilder) Build() models.VerificationRequest {
	return b.req
}

// PDF returns an in-memory upload of size bytes starting with a PDF header.
func PDF(name string, size int) *upload.Bytes {
	header := []byte("%PDF-1.7\n")
	if size <= len(header) {
		return upload.FromBytes(name, header[:max(size, 0)])
	}
	return upload.FromBytes(name, append(header, bytes.Repeat([]byte{' '}, size-len(header))...))
}
