package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "credguard/pkg/domain-errors"
)

// ValidationSuite covers the trust-boundary checks run before any request
// leaves the client. The invariants "max+1 must fail" and "max must pass"
// keep path identifiers bounded.
type ValidationSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationSuite))
}

type issuer struct {
	ID          string `json:"id" validate:"notblank"`
	DisplayName string `json:"displayName" validate:"notblank"`
}

type sample struct {
	ID       string  `json:"id" validate:"notblank"`
	Kind     string  `json:"kind" validate:"oneof=A B"`
	Issuer   *issuer `json:"issuer" validate:"required"`
	Internal string  `json:"-"`
}

func (s *ValidationSuite) TestValidate() {
	s.Run("passes valid struct", func() {
		err := Validate(sample{ID: "1", Kind: "A", Issuer: &issuer{ID: "i", DisplayName: "d"}})
		s.NoError(err)
	})

	s.Run("reports blank field by wire name", func() {
		err := Validate(sample{ID: "  ", Kind: "A", Issuer: &issuer{ID: "i", DisplayName: "d"}})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal("id must not be blank", err.Error())
	})

	s.Run("reports missing nested struct", func() {
		err := Validate(sample{ID: "1", Kind: "A"})
		s.Require().Error(err)
		s.Equal("issuer must not be null", err.Error())
	})

	s.Run("reports nested blank field", func() {
		err := Validate(sample{ID: "1", Kind: "A", Issuer: &issuer{ID: "i"}})
		s.Require().Error(err)
		s.Equal("displayName must not be blank", err.Error())
	})

	s.Run("reports oneof violation", func() {
		err := Validate(sample{ID: "1", Kind: "C", Issuer: &issuer{ID: "i", DisplayName: "d"}})
		s.Require().Error(err)
		s.Equal("kind must be one of [A B]", err.Error())
	})
}

func (s *ValidationSuite) TestViolations() {
	s.Nil(Violations(sample{ID: "1", Kind: "A", Issuer: &issuer{ID: "i", DisplayName: "d"}}))

	got := Violations(sample{ID: "", Kind: "Z"})
	s.Equal([]string{
		"id must not be blank",
		"kind must be one of [A B]",
		"issuer must not be null",
	}, got)
}

func (s *ValidationSuite) TestCheckStringLength() {
	s.Run("passes when length equals max", func() {
		s.NoError(CheckStringLength("exchangeId", strings.Repeat("a", 10), 10))
	})

	s.Run("fails when length exceeds max", func() {
		err := CheckStringLength("exchangeId", strings.Repeat("a", 11), 10)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Contains(err.Error(), "exchangeId exceeds max length of 10")
	})
}

func (s *ValidationSuite) TestCheckIdentifier() {
	s.Error(CheckIdentifier("credentialId", ""))
	s.NoError(CheckIdentifier("credentialId", "cred-1"))
	s.Error(CheckIdentifier("credentialId", strings.Repeat("x", MaxIdentifierLength+1)))
}
