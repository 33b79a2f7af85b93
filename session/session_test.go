package session

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/data"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/request"
	"github.com/apitaf/apitaf/suite"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var getClients = endpoint.Ref{Suite: "kyc_svc", Endpoint: "getClients"}

func newTestSession(env string, respond func(endpoint.Request) endpoint.Response) (*Session, *[]endpoint.Request) {
	return newTestSessionWithArgs(map[string]string{config.KeyEnvironment: env}, respond)
}

func newTestSessionWithArgs(values map[string]string, respond func(endpoint.Request) endpoint.Response) (*Session, *[]endpoint.Request) {
	fsys := fstest.MapFS{
		"config/resource_config.json": {Data: []byte(`{"suites": ["kyc_svc"]}`)},
		"config/kyc_svc.json": {Data: []byte(`{
			"kyc_svc": {
				"baseurl": "https://kyc-{environment}.example.com",
				"endpoints": {"getClients": {"path": "/clients/{clientid}"}}
			}
		}`)},
		"test_data/kyc_svc/get_clients.yaml": {Data: []byte(`
args:
  clientid: C1
expected_response:
  ok: {name: Alice}
qa:
  args:
    clientid: Q1
`)},
	}
	args := config.NewCommandArgs(values)
	loader := data.NewLoader(fsys)
	configs := suite.NewResolver(loader, config.DefaultLayout(), args, nil)
	var sent []endpoint.Request
	sender := endpoint.SenderFunc(func(_ context.Context, req endpoint.Request) endpoint.Response {
		sent = append(sent, req)
		return respond(req)
	})
	builder := request.NewBuilder(configs, nil, sender, nil)
	s := New(context.Background(), args, configs, overlay.NewResolver(loader, config.DefaultLayout(), nil), builder, nil)
	return s, &sent
}

func okResponse(req endpoint.Request) endpoint.Response {
	return endpoint.Response{
		Environment: req.Environment,
		URL:         req.URI,
		Status:      200,
		Body:        ldvalue.Parse([]byte(`{"id":"1","timestamp":"now","name":"Alice"}`)),
	}
}

func runWithSession(s *Session, action func(*taftest.T)) taftest.Results {
	return taftest.Run(taftest.TestConfiguration{Context: s}, func(t *taftest.T) {
		t.Run("test", action)
	})
}

func TestSessionCallsEndpointWithTestData(t *testing.T) {
	s, sent := newTestSession("QA", okResponse)
	results := runWithSession(s, func(tt *taftest.T) {
		sess := FromT(tt)
		o := sess.TestData(tt, "kyc_svc/get_clients.yaml")
		resp := sess.Call(tt, getClients, o)
		RequireStatus(tt, resp, 200)
		RequireWebServiceResponse(tt, resp)
		AssertBodyEquals(tt, resp, map[string]interface{}{"id": "1", "timestamp": "now", "name": "Alice"})
	})
	require.True(t, results.OK(), "%+v", results.Failures)
	require.Len(t, *sent, 1)
	assert.Equal(t, "https://kyc-qa.example.com/clients/Q1", (*sent)[0].URI)
	assert.Equal(t, "qa", s.Environment())
}

func TestSessionCallOptions(t *testing.T) {
	s, sent := newTestSession("dev", okResponse)
	results := runWithSession(s, func(tt *taftest.T) {
		o := FromT(tt).TestData(tt, "kyc_svc/get_clients.yaml")
		FromT(tt).Call(tt, getClients, o,
			WithMethod(endpoint.MethodDelete),
			WithInputArgs(map[string]interface{}{"clientid": "IN"}))
	})
	require.True(t, results.OK())
	assert.Equal(t, "https://kyc-dev.example.com/clients/IN", (*sent)[0].URI)
	assert.Equal(t, endpoint.MethodDelete, (*sent)[0].Method)
}

func TestSessionCommandArgsOverrideTestData(t *testing.T) {
	s, sent := newTestSessionWithArgs(map[string]string{
		config.KeyEnvironment: "dev",
		"clientid":            "FROM-CLI",
	}, okResponse)
	results := runWithSession(s, func(tt *taftest.T) {
		o := FromT(tt).TestData(tt, "kyc_svc/get_clients.yaml")
		FromT(tt).Call(tt, getClients, o, WithInputArgs(map[string]interface{}{"clientid": "IN"}))
		FromT(tt).Call(tt, getClients, o,
			WithCommandArgs(config.NewCommandArgs(map[string]string{config.KeyEnvironment: "dev"})))
	})
	require.True(t, results.OK(), "%+v", results.Failures)
	require.Len(t, *sent, 2)
	assert.Equal(t, "https://kyc-dev.example.com/clients/FROM-CLI", (*sent)[0].URI)
	assert.Equal(t, "https://kyc-dev.example.com/clients/C1", (*sent)[1].URI)
}

func TestSessionFailsTestOnMissingTestData(t *testing.T) {
	s, _ := newTestSession("dev", okResponse)
	results := runWithSession(s, func(tt *taftest.T) {
		FromT(tt).TestData(tt, "kyc_svc/nope.json")
	})
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "loading test data kyc_svc/nope.json")
}

func TestSessionFailsTestOnTemplateError(t *testing.T) {
	s, sent := newTestSession("dev", okResponse)
	results := runWithSession(s, func(tt *taftest.T) {
		FromT(tt).Call(tt, getClients, nil)
	})
	require.Len(t, results.Failures, 1)
	assert.Empty(t, *sent)
}

func TestFromTWithoutSessionFails(t *testing.T) {
	results := taftest.Run(taftest.TestConfiguration{}, func(t *taftest.T) {
		t.Run("test", func(tt *taftest.T) { FromT(tt) })
	})
	require.Len(t, results.Failures, 1)
}

func TestExpectedResponseAndAssertions(t *testing.T) {
	s, _ := newTestSession("dev", func(req endpoint.Request) endpoint.Response {
		return endpoint.Response{URL: req.URI, Status: 400, Body: ldvalue.Parse([]byte(
			`{"id":"1","timestamp":"t","errors":[{"code":"400","eventType":"VALIDATION","description":"bad"}]}`))}
	})
	results := runWithSession(s, func(tt *taftest.T) {
		sess := FromT(tt)
		o := sess.TestData(tt, "kyc_svc/get_clients.yaml")
		assert.Equal(t, map[string]interface{}{"name": "Alice"}, ExpectedResponse(tt, o, "ok"))

		resp := sess.Call(tt, getClients, o)
		RequireStatus(tt, resp, 400)
		e := RequireWebServiceError(tt, resp, ServiceError{Code: "400", EventType: "VALIDATION"})
		assert.Equal(t, "bad", e.GetByKey("description").StringValue())
	})
	require.True(t, results.OK(), "%+v", results.Failures)
}

func TestRequireStatusFailureDescribesResponse(t *testing.T) {
	s, _ := newTestSession("dev", okResponse)
	results := runWithSession(s, func(tt *taftest.T) {
		sess := FromT(tt)
		resp := sess.Call(tt, getClients, sess.TestData(tt, "kyc_svc/get_clients.yaml"))
		RequireStatus(tt, resp, 201)
	})
	require.Len(t, results.Failures, 1)
	msg := results.Failures[0].Errors[0].Error()
	assert.Contains(t, msg, "Unexpected response status")
	assert.Contains(t, msg, "https://kyc-dev.example.com/clients/C1")
}
