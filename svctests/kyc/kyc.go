// Package kyc holds the KYC service tests.
package kyc

import (
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/session"
)

const suiteName = "kyc_svc"

// Only the first clients in the list are stable enough to compare.
const comparedClients = 20

//nolint:gochecknoglobals
var (
	getClientsEndpoint = endpoint.Ref{Suite: suiteName, Endpoint: "getkycclients"}
	getClientEndpoint  = endpoint.Ref{Suite: suiteName, Endpoint: "getkycclient"}
	addEndpoint        = endpoint.Ref{Suite: suiteName, Endpoint: "addskyc"}
)

func init() {
	taftest.Register("test.kyc_svc.kyc.get_clients_test", func(m *taftest.Module) {
		m.Class("TestGetClients").Method("test_get_clients", testGetClients)
	})
	taftest.Register("test.kyc_svc.kyc.get_kyc_datafeed", func(m *taftest.Module) {
		m.Class("TestkycDataFeed").Method("test_getkycdatafeed_success", testGetDataFeedSuccess)
	})
	taftest.Register("test.kyc_svc.kyc.post_test", func(m *taftest.Module) {
		m.Class("TestPost").Method("test_post", testPost)
	})
}

func testGetClients(t *taftest.T) {
	s := session.FromT(t)
	o := s.TestData(t, "kyc_svc/kyc/get_clients.json")

	resp := s.Call(t, getClientsEndpoint, o)
	t.Debug("response: %s", resp.Content)
	session.RequireStatus(t, resp, 200)

	actual := session.Slice(resp.Body, 0, comparedClients)
	session.AssertValueEquals(t, actual, session.ExpectedResponse(t, o, "expected_content"))
}

func testGetDataFeedSuccess(t *taftest.T) {
	s := session.FromT(t)
	o := s.TestData(t, "kyc_svc/kyc/get_kyc_datafeed.json")

	resp := s.Call(t, getClientEndpoint, o)
	t.Debug("response: %s", resp.Content)
	session.RequireStatus(t, resp, 200)
	session.AssertBodyEquals(t, resp, session.ExpectedResponse(t, o, "expected_content"))
}

func testPost(t *taftest.T) {
	s := session.FromT(t)
	o := s.TestData(t, "kyc_svc/kyc/post.json")

	resp := s.Call(t, addEndpoint, o)
	t.Debug("response: %s", resp.Content)
	session.RequireStatus(t, resp, 200)

	// the service assigns the id
	actual := session.WithoutPath(resp.Body, "id")
	session.AssertValueEquals(t, actual, session.ExpectedResponse(t, o, "expected_content"))
}
