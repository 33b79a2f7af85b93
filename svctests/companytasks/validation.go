package companytasks

import (
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const otherCompanyID = "SOMEOTHEREcompanyid"

func init() {
	taftest.Register("test.company_tasks_svc.test_validation_create_company_tasks", defineCreateValidation)
	taftest.Register("test.company_tasks_svc.test_validation_get_company_tasks", defineGetValidation)
	taftest.Register("test.company_tasks_svc.test_validation_delete_company_tasks", defineDeleteValidation)
	taftest.Register("test.company_tasks_svc.test_validation_update_company_tasks", defineUpdateValidation)
}

// verifyError checks a rejected call against a named expected_response entry.
func verifyError(t *taftest.T, o *overlay.Overlay, resp endpoint.Response, expectedKey string, status int) {
	t.Helper()
	session.RequireStatus(t, resp, status)
	session.AssertBodyEquals(t, resp, session.ExpectedResponse(t, o, expectedKey))
}

func defineCreateValidation(m *taftest.Module) {
	const file = "company_tasks_svc/validation_create_company_tasks.json"
	c := m.Class("TestValidationCreateCompanyTasksSvc")

	createAndVerify := func(t *taftest.T, o *overlay.Overlay, expectedKey string) {
		s, client := requireClient(t)
		resp, err := client.Create(s.Context(), o)
		requireNoError(t, err)
		verifyError(t, o, resp, expectedKey, 400)
	}

	c.Method("test_company_tasks_error_when_companyid_not_match", func(t *taftest.T) {
		o := session.FromT(t).TestData(t, file)
		o = EditFirstTask(t, o, func(task map[string]interface{}) { task["companyid"] = otherCompanyID })
		createAndVerify(t, o, "invalid_companyid_response")
	})
	c.Method("test_company_tasks_error_when_companyid_missing", func(t *taftest.T) {
		o := session.FromT(t).TestData(t, file)
		o = EditFirstTask(t, o, func(task map[string]interface{}) { delete(task, "companyid") })
		createAndVerify(t, o, "invalid_companyid_response")
	})
	c.Method("test_company_tasks_error_when_missing_required_field", func(t *taftest.T) {
		o := session.FromT(t).TestData(t, file)
		for _, field := range []string{"category", "type", "assignees"} {
			t.Debug("Removing %s", field)
			edited := EditFirstTask(t, o, func(task map[string]interface{}) { delete(task, field) })
			createAndVerify(t, edited, "missing_required_field_response")
		}
	})
	c.Method("test_company_tasks_error_when_empty_assignees", func(t *taftest.T) {
		o := session.FromT(t).TestData(t, file)
		o = EditFirstTask(t, o, func(task map[string]interface{}) {
			assignees, _ := task["assignees"].([]interface{})
			task["assignees"] = append(assignees, map[string]interface{}{})
		})
		createAndVerify(t, o, "empty_assignees_response")
	})
	c.Method("test_company_tasks_error_when_id_in_input", func(t *taftest.T) {
		o := session.FromT(t).TestData(t, file)
		o = EditFirstTask(t, o, func(task map[string]interface{}) { task["id"] = "when-id-is-present-in-input" })
		createAndVerify(t, o, "id_present_in_input")
	})
	c.Method("test_company_tasks_error_when_invalid_status", func(t *taftest.T) {
		s, client := requireClient(t)
		o := EditFirstTask(t, s.TestData(t, file), func(task map[string]interface{}) { task["status"] = "DONE" })
		resp, err := client.Create(s.Context(), o)
		requireNoError(t, err)
		session.RequireStatus(t, resp, 400)
		expected, _ := session.ExpectedResponse(t, o, "invalid_status_response").(map[string]interface{})
		message, _ := expected["message"].(string)
		assert.Contains(t, resp.Body.GetByKey("message").StringValue(), message,
			resp.Describe("Test Failed! Unexpected response data"))
	})
	c.Method("test_prevent_create_duplicate_task", func(t *taftest.T) {
		s, client := requireClient(t)
		o := s.TestData(t, file)
		companyID, _ := o.Args()["companyid"].(string)
		ctx := s.Context()
		_, _ = client.DeleteAll(ctx, o, companyID)
		t.Defer(func() { _, _ = client.DeleteAll(ctx, o, companyID) })

		first, err := client.CreateChecked(ctx, o)
		requireNoError(t, err)
		ids := TaskIDs(first.Body.GetByKey("content"))
		require.NotEmpty(t, ids)

		resp, err := client.Create(ctx, o)
		requireNoError(t, err)
		session.RequireStatus(t, resp, 400)

		// the service names the existing task at the end of the description
		expected, _ := session.ExpectedResponse(t, o, "duplicate_not_allowed").(map[string]interface{})
		if errs, ok := expected["errors"].([]interface{}); ok && len(errs) > 0 {
			if e, ok := errs[0].(map[string]interface{}); ok {
				description, _ := e["description"].(string)
				e["description"] = description + ids[0]
			}
		}
		session.AssertBodyEquals(t, resp, expected)
	})
}

func defineGetValidation(m *taftest.Module) {
	m.Class("TestValidationGetCompanyTasksSvc").
		Method("test_company_tasks_error_when_companyid_not_match", func(t *taftest.T) {
			s, client := requireClient(t)
			o := s.TestData(t, "company_tasks_svc/validation_get_company_tasks.json")
			resp, err := client.Search(s.Context(), o, map[string]interface{}{"companyid": otherCompanyID})
			requireNoError(t, err)
			verifyError(t, o, resp, "invalid_companyid_response", 400)
		})
}

// fixture holds the task created by a validation class's SetUp.
type fixture struct {
	data    *overlay.Overlay
	created endpoint.Response
	id      string
}

func (f *fixture) setUp(file string, checked bool) func(*taftest.T) {
	return func(t *taftest.T) {
		s, client := requireClient(t)
		f.data = s.TestData(t, file)
		var err error
		if checked {
			f.created, err = client.CreateChecked(s.Context(), f.data)
		} else {
			f.created, err = client.Create(s.Context(), f.data)
		}
		requireNoError(t, err)
		ids := TaskIDs(f.created.Body.GetByKey("content"))
		require.NotEmpty(t, ids, f.created.Describe("SetUp could not create a task"))
		f.id = ids[0]
	}
}

func (f *fixture) tearDown(t *taftest.T) {
	s, client := requireClient(t)
	_, err := client.DeleteChecked(s.Context(), f.data, []string{f.id})
	requireNoError(t, err)
}

// createdTasks returns a fresh copy of the tasks created by SetUp, with the first one edited.
func (f *fixture) createdTasks(edit func(task map[string]interface{})) []interface{} {
	tasks := Content(f.created.Body)
	if len(tasks) > 0 && edit != nil {
		edit(tasks[0])
	}
	return TaskList(tasks)
}

func defineDeleteValidation(m *taftest.Module) {
	f := &fixture{}
	m.Class("TestValidationDeleteCompanyTasksSvc").
		SetUp(f.setUp("company_tasks_svc/validation_delete_company_tasks.json", true)).
		TearDown(f.tearDown).
		Method("test_company_tasks_error_when_companyid_not_match", func(t *taftest.T) {
			s, client := requireClient(t)
			o := f.data.WithArg("companyid", otherCompanyID)
			resp, err := client.Delete(s.Context(), o, []string{f.id})
			requireNoError(t, err)
			verifyError(t, f.data, resp, "invalid_companyid_response", 400)
		})
}

func defineUpdateValidation(m *taftest.Module) {
	f := &fixture{}
	updateAndVerify := func(t *taftest.T, o *overlay.Overlay, tasks []interface{}, expectedKey string, status int) {
		s, client := requireClient(t)
		resp, err := client.Update(s.Context(), o, "", tasks)
		requireNoError(t, err)
		verifyError(t, f.data, resp, expectedKey, status)
	}
	set := func(key string, value interface{}) func(map[string]interface{}) {
		return func(task map[string]interface{}) { task[key] = value }
	}
	remove := func(key string) func(map[string]interface{}) {
		return func(task map[string]interface{}) { delete(task, key) }
	}

	m.Class("TestValidationUpdateCompanyTasksSvc").
		SetUp(f.setUp("company_tasks_svc/validation_update_company_tasks.json", false)).
		TearDown(f.tearDown).
		Method("test_company_tasks_error_when_companyid_not_match", func(t *taftest.T) {
			updateAndVerify(t, f.data, f.createdTasks(set("companyid", otherCompanyID)), "invalid_companyid_response", 400)
		}).
		Method("test_company_tasks_error_when_required_field_missing", func(t *taftest.T) {
			updateAndVerify(t, f.data, f.createdTasks(remove("companyid")), "invalid_companyid_response", 400)
			updateAndVerify(t, f.data, f.createdTasks(remove("id")), "missing_companyid_response", 400)
		}).
		Method("test_company_tasks_error_when_invalid_id", func(t *taftest.T) {
			updateAndVerify(t, f.data, f.createdTasks(set("id", "INVALID-ID")), "invalid_id_response", 404)
		}).
		Method("test_company_tasks_error_when_empty_assignees", func(t *taftest.T) {
			tasks := f.createdTasks(func(task map[string]interface{}) {
				assignees, _ := task["assignees"].([]interface{})
				task["assignees"] = append(assignees, map[string]interface{}{})
			})
			updateAndVerify(t, f.data, tasks, "empty_assignees_response", 400)
		}).
		Method("test_company_tasks_error_when_update_type", func(t *taftest.T) {
			updateAndVerify(t, f.data, f.createdTasks(set("type", "SOMEOTHERETYPE")), "update_type_response", 400)
		}).
		Method("test_company_tasks_error_when_update_category", func(t *taftest.T) {
			updateAndVerify(t, f.data, f.createdTasks(set("category", "SOMEOTHERECAT")), "update_category_response", 400)
		}).
		Method("test_company_tasks_error_when_update_companyid", func(t *taftest.T) {
			updateAndVerify(t, f.data, f.createdTasks(set("companyid", otherCompanyID)), "update_companyid_response", 400)
		})
}
