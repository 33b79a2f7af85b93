package sfdc

import (
	"testing"

	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/svctests/internal/svctesting"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sfdcSuite = `{
	"sfdc_svc": {
		"baseurl": "https://sfdc-{environment}.example.com",
		"endpoints": {
			"sfdcversions": {"path": "/services/data"},
			"getsfdcdatafeed": {"path": "/sobjects/Account/{accountid}"},
			"patchsfdcdatafeed": {"path": "/sobjects/Account/{accountid}", "method": "PATCH"}
		}
	}
}`

func newWorkspace(handler svctesting.Handler) *svctesting.Workspace {
	w := svctesting.NewWorkspace("dev", map[string]string{"sfdc_svc": sfdcSuite})
	w.AddTestData("sfdc_svc/sfdc_datafeed/get_sfdc_datafeed.json", `{
		"args": {"accountid": "A1"},
		"expected_response": {"expected_content": {"Name": "Acme"}}
	}`)
	w.AddTestData("sfdc_svc/sfdc_datafeed/patch_sfdc_datafeed.json", `{
		"args": {"accountid": "A1"},
		"json": {"Name": "Acme Corp"}
	}`)
	w.Handler = handler
	return w
}

func TestVersions(t *testing.T) {
	w := newWorkspace(func(endpoint.Request) endpoint.Response {
		return endpoint.Response{Status: 200, Body: ldvalue.ArrayOf()}
	})
	results, err := w.Run("test.sfdc_svc.sfdc_versions.test_sfdc_versions")
	require.NoError(t, err)
	assert.True(t, results.OK(), "%+v", results.Failures)
	assert.Equal(t, "https://sfdc-dev.example.com/services/data", w.Sent()[0].URI)
}

func TestGetDataFeedDropsViewDates(t *testing.T) {
	w := newWorkspace(func(endpoint.Request) endpoint.Response {
		return endpoint.Response{Status: 200, Body: ldvalue.ObjectBuild().
			Set("Name", ldvalue.String("Acme")).
			Set("LastViewedDate", ldvalue.String("2026-01-01")).
			Set("LastReferencedDate", ldvalue.String("2026-01-02")).Build()}
	})
	results, err := w.Run("test.sfdc_svc.sfdc_datafeed.test_getsfdc_datafeed")
	require.NoError(t, err)
	assert.True(t, results.OK(), "%+v", results.Failures)
	assert.Equal(t, "https://sfdc-dev.example.com/sobjects/Account/A1", w.Sent()[0].URI)
}

func TestPatchDataFeedExpectsNoContent(t *testing.T) {
	status := 204
	w := newWorkspace(func(endpoint.Request) endpoint.Response {
		return endpoint.Response{Status: status, Body: ldvalue.Null()}
	})
	results, err := w.Run("test.sfdc_svc.sfdc_datafeed.test_patch_sfdc_datafeed")
	require.NoError(t, err)
	assert.True(t, results.OK(), "%+v", results.Failures)
	assert.Equal(t, endpoint.MethodPatch, w.Sent()[0].Method)

	status = 200
	results, err = w.Run("test.sfdc_svc.sfdc_datafeed.test_patch_sfdc_datafeed")
	require.NoError(t, err)
	assert.False(t, results.OK())
}
