package session

import (
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/overlay"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/require"
)

// RequireStatus fails the test immediately unless resp has the given status. The failure
// message includes the response description.
func RequireStatus(t *taftest.T, resp endpoint.Response, status int) {
	t.Helper()
	require.Equal(t, status, resp.Status, resp.Describe("Test Failed! Unexpected response status"))
}

// ExpectedResponse returns the named expected_response entry from o, failing the test if o is
// empty or has no such entry.
func ExpectedResponse(t *taftest.T, o *overlay.Overlay, key string) interface{} {
	t.Helper()
	expected, err := o.ExpectedResponse(key)
	require.NoError(t, err)
	require.NotNil(t, expected, "no expected_response %q in test data", key)
	return expected
}

// AssertBodyEquals compares resp's body to expected as JSON, ignoring key order.
func AssertBodyEquals(t *taftest.T, resp endpoint.Response, expected interface{}) {
	t.Helper()
	if !AssertValueEquals(t, resp.Body, expected) {
		t.Debug(resp.Describe("Test Failed! Unexpected Response."))
	}
}

// AssertValueEquals compares a value, typically a trimmed response body, to expected as JSON.
func AssertValueEquals(t *taftest.T, actual ldvalue.Value, expected interface{}) bool {
	t.Helper()
	want := ldvalue.CopyArbitraryValue(expected)
	m.In(t).Assert(actual.JSONString(), m.JSONStrEqual(want.JSONString()))
	return actual.Equal(want)
}

// RequireWebServiceResponse checks the envelope every service returns: a non-null body with
// "id" and "timestamp" properties. It returns the body.
func RequireWebServiceResponse(t *taftest.T, resp endpoint.Response) ldvalue.Value {
	t.Helper()
	body := resp.Body
	require.False(t, body.IsNull(), resp.Describe("response has no body"))
	require.False(t, body.GetByKey("id").IsNull(), resp.Describe("response has no id"))
	require.False(t, body.GetByKey("timestamp").IsNull(), resp.Describe("response has no timestamp"))
	return body
}

// ServiceError describes the fields of a service error to check. Empty fields are not checked.
type ServiceError struct {
	Code        string
	EventType   string
	Description string
	Resolution  string
}

// RequireWebServiceError checks that resp is a service envelope with exactly one error and that
// the error has the expected fields. It returns the error object.
func RequireWebServiceError(t *taftest.T, resp endpoint.Response, expected ServiceError) ldvalue.Value {
	t.Helper()
	body := RequireWebServiceResponse(t, resp)
	errs := body.GetByKey("errors")
	require.Equal(t, 1, errs.Count(), resp.Describe("expected exactly one error"))
	e := errs.GetByIndex(0)
	require.False(t, e.IsNull())
	for _, check := range []struct{ field, want string }{
		{"code", expected.Code},
		{"eventType", expected.EventType},
		{"description", expected.Description},
		{"resolution", expected.Resolution},
	} {
		if check.want != "" {
			require.Equal(t, check.want, e.GetByKey(check.field).StringValue(), "error %s", check.field)
		}
	}
	return e
}
