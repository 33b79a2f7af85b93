// Package sfdc holds the SFDC service tests.
package sfdc

import (
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/session"
)

const suiteName = "sfdc_svc"

//nolint:gochecknoglobals
var (
	versionsEndpoint = endpoint.Ref{Suite: suiteName, Endpoint: "sfdcversions"}
	getFeedEndpoint  = endpoint.Ref{Suite: suiteName, Endpoint: "getsfdcdatafeed"}
	patchFeedEndpoint = endpoint.Ref{Suite: suiteName, Endpoint: "patchsfdcdatafeed"}
)

func init() {
	taftest.Register("test.sfdc_svc.sfdc_versions.test_sfdc_versions", func(m *taftest.Module) {
		m.Class("TestSFDCVersions").
			Method("test_sfdc_versions_success", testVersionsSuccess)
	})
	taftest.Register("test.sfdc_svc.sfdc_datafeed.test_getsfdc_datafeed", func(m *taftest.Module) {
		m.Class("TestSfdcDataFeed").
			Method("test_get_sfdc_datafeed_success", testGetDataFeedSuccess)
	})
	taftest.Register("test.sfdc_svc.sfdc_datafeed.test_patch_sfdc_datafeed", func(m *taftest.Module) {
		m.Class("TestPatchSFDCDataFeed").
			Method("test_patch_sfdc_datafeed_success", testPatchDataFeedSuccess)
	})
}

func testVersionsSuccess(t *taftest.T) {
	s := session.FromT(t)
	resp := s.Call(t, versionsEndpoint, nil)
	session.RequireStatus(t, resp, 200)
}

func testGetDataFeedSuccess(t *taftest.T) {
	s := session.FromT(t)
	o := s.TestData(t, "sfdc_svc/sfdc_datafeed/get_sfdc_datafeed.json")

	resp := s.Call(t, getFeedEndpoint, o)
	session.RequireStatus(t, resp, 200)

	// SFDC stamps these on every read
	actual := session.WithoutPath(resp.Body, "LastViewedDate")
	actual = session.WithoutPath(actual, "LastReferencedDate")
	session.AssertValueEquals(t, actual, session.ExpectedResponse(t, o, "expected_content"))
}

func testPatchDataFeedSuccess(t *taftest.T) {
	s := session.FromT(t)
	o := s.TestData(t, "sfdc_svc/sfdc_datafeed/patch_sfdc_datafeed.json")

	resp := s.Call(t, patchFeedEndpoint, o)
	session.RequireStatus(t, resp, 204)
}
