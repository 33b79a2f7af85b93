package companytasks

import (
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/session"
)

func init() {
	taftest.Register("test.company_tasks_svc.test_health_check", func(m *taftest.Module) {
		m.Class("TestCompanyTasksSvcHealth").
			Method("test_health_check_success", testHealthCheckSuccess)
	})
}

// The health endpoint reports disk and mongo details that change from call to call, so only the
// statuses are compared.
func testHealthCheckSuccess(t *taftest.T) {
	s, client := requireClient(t)
	o := s.TestData(t, "company_tasks_svc/company_tasks_health_check.json")

	resp, err := client.Health(s.Context(), o)
	requireNoError(t, err)
	session.RequireStatus(t, resp, 200)

	actual := session.WithoutPath(resp.Body, "details", "diskSpace", "details")
	actual = session.WithoutPath(actual, "details", "mongo", "details")
	expected := session.ExpectedResponse(t, o, "expected_status")
	session.AssertValueEquals(t, actual, expected)
}
