package mockbackend

import (
	"strings"

	"github.com/google/uuid"

	"credguard/internal/models"
)

// credentialTypes names the credential minted for each document type.
var credentialTypes = map[models.DocumentType]string{
	models.DocumentTypePassport:          "PassportCredential",
	models.DocumentTypeDriversLicense:    "DriversLicenseCredential",
	models.DocumentTypeDegreeCertificate: "DegreeCredential",
	models.DocumentTypeBirthCertificate:  "BirthCertificateCredential",
	models.DocumentTypeOther:             "IdentityDocumentCredential",
}

// extractAttributes returns deterministic attributes for a document type.
// The document number is derived from id so each upload differs.
func extractAttributes(docType models.DocumentType, id string) map[string]any {
	number := strings.ToUpper(strings.ReplaceAll(id, "-", "")[:9])
	switch docType {
	case models.DocumentTypePassport:
		return map[string]any{
			"fullName":       "Jane Doe",
			"dateOfBirth":    "1990-04-12",
			"nationality":    "Utopia",
			"passportNumber": number,
			"expiryDate":     "2032-04-11",
		}
	case models.DocumentTypeDriversLicense:
		return map[string]any{
			"fullName":      "Jane Doe",
			"dateOfBirth":   "1990-04-12",
			"licenseNumber": number,
			"categories":    []string{"B"},
		}
	case models.DocumentTypeDegreeCertificate:
		return map[string]any{
			"fullName":    "Jane Doe",
			"institution": "University of Utopia",
			"degree":      "Bachelor of Science",
			"awardedOn":   "2012-06-30",
		}
	case models.DocumentTypeBirthCertificate:
		return map[string]any{
			"fullName":          "Jane Doe",
			"dateOfBirth":       "1990-04-12",
			"placeOfBirth":      "Utopia City",
			"certificateNumber": number,
		}
	default:
		return map[string]any{
			"fullName":       "Jane Doe",
			"documentNumber": number,
		}
	}
}

func newDocumentID() string {
	return uuid.NewString()
}
