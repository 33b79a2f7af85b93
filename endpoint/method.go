// Package endpoint defines the values exchanged between the request builder, the HTTP
// transport, and test code.
package endpoint

import (
	"fmt"
	"strings"
)

// Method is an HTTP method supported by the transport.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// AllMethods lists the supported methods.
var AllMethods = []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete} //nolint:gochecknoglobals

// ParseMethod accepts a method name in any case. An empty name means GET. Anything else that
// is not supported is an UnsupportedMethodError.
func ParseMethod(s string) (Method, error) {
	if strings.TrimSpace(s) == "" {
		return MethodGet, nil
	}
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllMethods {
		if m == known {
			return m, nil
		}
	}
	return "", UnsupportedMethodError{Method: s}
}

func (m Method) String() string { return string(m) }

// Lower is the lower-cased method name, as it appears in test reports.
func (m Method) Lower() string { return strings.ToLower(string(m)) }

// UnsupportedMethodError means an endpoint or caller named a method with no transport handler.
type UnsupportedMethodError struct {
	Method string
}

func (e UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported HTTP method %q", e.Method)
}
