package models

import (
	"strings"
	"time"

	dErrors "credguard/pkg/domain-errors"
)

// DocumentType enumerates the physical documents the extraction service understands.
type DocumentType string

const (
	DocumentTypePassport          DocumentType = "PASSPORT"
	DocumentTypeDriversLicense    DocumentType = "DRIVERS_LICENSE"
	DocumentTypeDegreeCertificate DocumentType = "DEGREE_CERTIFICATE"
	DocumentTypeBirthCertificate  DocumentType = "BIRTH_CERTIFICATE"
	DocumentTypeOther             DocumentType = "OTHER"
)

var documentTypeNames = map[DocumentType]string{
	DocumentTypePassport:          "Passport",
	DocumentTypeDriversLicense:    "Driver's License",
	DocumentTypeDegreeCertificate: "Degree Certificate",
	DocumentTypeBirthCertificate:  "Birth Certificate",
	DocumentTypeOther:             "Other Document",
}

// DocumentTypes lists every document type in declaration order.
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypePassport,
		DocumentTypeDriversLicense,
		DocumentTypeDegreeCertificate,
		DocumentTypeBirthCertificate,
		DocumentTypeOther,
	}
}

// ParseDocumentType accepts either the enum constant or its display name.
func ParseDocumentType(value string) (DocumentType, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "documentType must not be null")
	}
	for t, name := range documentTypeNames {
		if strings.EqualFold(v, string(t)) || strings.EqualFold(v, name) {
			return t, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported documentType: "+value)
}

// IsValid reports whether t is one of the known document types.
func (t DocumentType) IsValid() bool {
	_, ok := documentTypeNames[t]
	return ok
}

// DisplayName returns the human-readable name the backend reports.
func (t DocumentType) DisplayName() string {
	if name, ok := documentTypeNames[t]; ok {
		return name
	}
	return string(t)
}

func (t DocumentType) String() string { return string(t) }

// DocumentStatus is the pipeline progress of an uploaded document, carried
// on the wire as its display name.
type DocumentStatus string

const (
	DocumentStatusUploaded         DocumentStatus = "Uploaded"
	DocumentStatusProcessing       DocumentStatus = "Processing"
	DocumentStatusExtracted        DocumentStatus = "Attributes Extracted"
	DocumentStatusCredentialIssued DocumentStatus = "Credential Issued"
	DocumentStatusFailed           DocumentStatus = "Processing Failed"
)

// Rank orders statuses by pipeline progress. Failed and unknown statuses rank -1.
func (s DocumentStatus) Rank() int {
	switch s {
	case DocumentStatusUploaded:
		return 0
	case DocumentStatusProcessing:
		return 1
	case DocumentStatusExtracted:
		return 2
	case DocumentStatusCredentialIssued:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether s has progressed to other or beyond.
func (s DocumentStatus) AtLeast(other DocumentStatus) bool {
	return s.Rank() >= 0 && s.Rank() >= other.Rank()
}

// DocumentInfo describes the processed document.
// DocumentType holds the display name as sent by the backend.
type DocumentInfo struct {
	ID                  string         `json:"id"`
	DocumentType        string         `json:"documentType"`
	FileName            string         `json:"fileName"`
	Status              DocumentStatus `json:"status"`
	ExtractedAttributes map[string]any `json:"extractedAttributes"`
	UploadedAt          time.Time      `json:"uploadedAt"`
}
