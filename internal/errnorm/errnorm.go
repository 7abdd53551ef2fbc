// Package errnorm turns heterogeneous failure payloads into one
// human-readable message. Nothing in this package returns an error or
// panics: every inspection failure falls through to the next rule and
// ultimately to the generic status message.
package errnorm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"credguard/pkg/validation"
)

// Generic returns the fallback message for a status code.
func Generic(statusCode int) string {
	return fmt.Sprintf("HTTP error! status: %d", statusCode)
}

// Normalize applies the message policy, in priority order:
//  1. JSON object with a non-empty "errors" array: elements joined with "; "
//  2. JSON object with a non-empty string "message"
//  3. any other truthy JSON value, stringified
//  4. non-JSON content type: the raw text when non-empty
//  5. "HTTP error! status: <code>"
func Normalize(statusCode int, contentType string, body []byte) (msg string) {
	defer func() {
		if recover() != nil {
			msg = Generic(statusCode)
		}
	}()

	if isJSON(contentType) {
		if m, ok := fromJSON(body); ok {
			return m
		}
		return Generic(statusCode)
	}
	if len(body) > 0 {
		return string(body)
	}
	return Generic(statusCode)
}

// FromResponse reads at most validation.MaxErrorBodySize bytes of resp and
// normalizes them. The body is consumed but not closed.
func FromResponse(resp *http.Response) string {
	if resp == nil {
		return "no response received"
	}
	var body []byte
	if resp.Body != nil {
		// A truncated or failed read still yields whatever arrived.
		body, _ = io.ReadAll(io.LimitReader(resp.Body, validation.MaxErrorBodySize))
	}
	return Normalize(resp.StatusCode, resp.Header.Get("Content-Type"), body)
}

// FromTransportError describes a failure where no response was received.
func FromTransportError(err error) string {
	switch {
	case err == nil:
		return "network error"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("could not reach server: %v", opErr.Err)
	}
	return fmt.Sprintf("network error: %v", err)
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// fromJSON applies rules 1-3. ok is false when the body does not parse or
// parses to a falsy value (null, false, 0, "").
func fromJSON(body []byte) (string, bool) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}

	switch v := doc.(type) {
	case nil:
		return "", false
	case bool:
		if !v {
			return "", false
		}
		return "true", true
	case float64:
		if v == 0 {
			return "", false
		}
		return compact(body), true
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case []any:
		// Arrays are objects for the purpose of the rules; they carry no fields.
		return compact(body), true
	case map[string]any:
		if msg, ok := joinedErrors(v); ok {
			return msg, true
		}
		if msg, ok := message(v); ok {
			return msg, true
		}
		return compact(body), true
	}
	return "", false
}

func joinedErrors(doc map[string]any) (string, bool) {
	raw, err := jsonpath.Get("$.errors", doc)
	if err != nil {
		return "", false
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, stringify(item))
	}
	return strings.Join(parts, "; "), true
}

func message(doc map[string]any) (string, bool) {
	raw, err := jsonpath.Get("$.message", doc)
	if err != nil {
		return "", false
	}
	msg, ok := raw.(string)
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// compact re-emits body without insignificant whitespace, keeping the
// original key order.
func compact(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(body)); err != nil {
		return string(body)
	}
	return buf.String()
}
