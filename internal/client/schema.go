package client

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	dErrors "credguard/pkg/domain-errors"
)

// Response shapes accepted from the backend. Optional fields may be null;
// anything that contradicts a declared type is a malformed response.
const (
	verdictSchema = `{
  "type": "object",
  "required": ["valid"],
  "properties": {
    "valid":          {"type": "boolean"},
    "issuerTrusted":  {"type": ["boolean", "null"]},
    "signatureValid": {"type": ["boolean", "null"]},
    "notExpired":     {"type": ["boolean", "null"]},
    "errors":         {"type": ["array", "null"], "items": {"type": "string"}},
    "warnings":       {"type": ["array", "null"], "items": {"type": "string"}},
    "explanation":    {"type": ["string", "null"]},
    "credential": {
      "type": ["object", "null"],
      "properties": {
        "id":        {"type": "string"},
        "issuedAt":  {"type": ["string", "null"], "format": "date-time"},
        "expiresAt": {"type": ["string", "null"], "format": "date-time"},
        "issuer":    {"type": ["object", "null"]},
        "claims":    {"type": ["object", "null"]}
      }
    }
  }
}`

	outcomeSchema = `{
  "type": "object",
  "required": ["success"],
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": ["string", "null"]},
    "document": {
      "type": ["object", "null"],
      "properties": {
        "id":                  {"type": ["string", "null"]},
        "documentType":        {"type": ["string", "null"]},
        "status":              {"type": ["string", "null"]},
        "extractedAttributes": {"type": ["object", "null"]},
        "uploadedAt":          {"type": ["string", "null"], "format": "date-time"}
      }
    },
    "credential": {
      "type": ["object", "null"],
      "properties": {
        "context":           {"type": ["array", "null"], "items": {"type": "string"}},
        "type":              {"type": ["array", "null"], "items": {"type": "string"}},
        "credentialSubject": {"type": ["object", "null"]},
        "issuanceDate":      {"type": ["string", "null"], "format": "date-time"},
        "expirationDate":    {"type": ["string", "null"], "format": "date-time"},
        "status":            {"type": ["string", "null"]}
      }
    },
    "issuance": {
      "type": ["object", "null"],
      "required": ["credentialExchangeId"],
      "properties": {
        "credentialExchangeId": {"type": "string"},
        "offerUrl":             {"type": ["string", "null"]},
        "connectionId":         {"type": ["string", "null"]},
        "walletDid":            {"type": ["string", "null"]},
        "processingTimeMs":     {"type": ["integer", "null"]},
        "processedAt":          {"type": ["string", "null"], "format": "date-time"}
      }
    }
  }
}`

	statusSchema = `{
  "type": "object",
  "required": ["exchangeId", "status"],
  "properties": {
    "credentialId": {"type": ["string", "null"]},
    "exchangeId":   {"type": "string"},
    "status":       {"type": "string"},
    "message":      {"type": ["string", "null"]},
    "active":       {"type": ["boolean", "null"]}
  }
}`

	healthSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "status":  {"type": "string"},
    "service": {"type": ["string", "null"]},
    "version": {"type": ["string", "null"]}
  }
}`
)

var (
	verdictShape = mustSchema("verdict", verdictSchema)
	outcomeShape = mustSchema("issuance outcome", outcomeSchema)
	statusShape  = mustSchema("credential status", statusSchema)
	healthShape  = mustSchema("health", healthSchema)
)

// shape is a compiled response schema.
type shape struct {
	name   string
	schema *gojsonschema.Schema
}

func mustSchema(name, source string) shape {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("client: invalid %s schema: %v", name, err))
	}
	return shape{name: name, schema: schema}
}

// check returns a malformed_response error when body does not match the shape.
func (s shape) check(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedResponse,
			fmt.Sprintf("malformed %s response: body is not valid JSON", s.name))
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return dErrors.New(dErrors.CodeMalformedResponse,
		fmt.Sprintf("malformed %s response: %s", s.name, strings.Join(problems, "; ")))
}
