package companytasks

import (
	"strings"

	"github.com/apitaf/apitaf/framework/helpers"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/merge"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	taftest.Register("test.company_tasks_svc.test_update_company_tasks", func(m *taftest.Module) {
		m.Class("TestCompanyTasksSvcUpdate").
			Method("test_update_company_tasks_valid", testUpdateCompanyTasksValid)
	})
}

const updatedSuffix = "_NEW"

var nextStatus = map[string]string{ //nolint:gochecknoglobals
	"CREATED":     "IN_PROGRESS",
	"IN_PROGRESS": "COMPLETED",
	"COMPLETED":   "CREATED",
}

// Fields the service does not allow to change on update.
var immutableFields = []string{"id", "companyid", "dependencies", "category", "type"} //nolint:gochecknoglobals

// Creates tasks for one company, updates every mutable field as a different user, and checks
// that a search returns the updated tasks with the updater recorded in trackingData.
func testUpdateCompanyTasksValid(t *taftest.T) {
	s, client := requireClient(t)
	td := s.TestData(t, "company_tasks_svc/update_company_tasks.json")
	inputs, _ := merge.AsMap(td.Get("endpoint_inputs"))
	o := overlay.New(inputs, s.Environment())
	companyID, _ := o.Args()["companyid"].(string)
	ueid, _ := o.Args()["ueid"].(string)
	require.NotEmpty(t, companyID)
	ctx := s.Context()

	_, err := client.DeleteAll(ctx, o, companyID)
	requireNoError(t, err)
	t.Defer(func() { _, _ = client.DeleteAll(ctx, o, companyID) })

	created, err := client.CreateChecked(ctx, o)
	requireNoError(t, err)

	updates := Content(created.Body)
	for _, task := range updates {
		delete(task, "trackingData")
		updateTask(task)
	}
	updater := ueid + "_UPDATE"
	_, err = client.UpdateChecked(ctx, o, updater, TaskList(updates))
	requireNoError(t, err)

	found, err := client.SearchChecked(ctx, o, map[string]interface{}{"companyid": companyID})
	requireNoError(t, err)
	actual := Content(found.Body)
	require.Len(t, actual, len(updates), found.Describe("Test Failed! Unexpected Response Data."))
	for i, task := range actual {
		tracking, _ := task["trackingData"].(map[string]interface{})
		assert.Equal(t, ueid, tracking["createdByUeid"])
		assert.Equal(t, updater, tracking["updatedByUeid"])
		delete(task, "trackingData")
		session.AssertValueEquals(t, valueOf(task), updates[i])
	}
}

func updateTask(task map[string]interface{}) {
	for key, value := range task {
		switch {
		case key == "assignees":
			list, _ := value.([]interface{})
			for _, a := range list {
				assignee, _ := a.(map[string]interface{})
				appendSuffix(assignee)
			}
		case key == "details":
			details, _ := value.(map[string]interface{})
			appendSuffix(details)
		case key == "status":
			status, _ := value.(string)
			if next, ok := nextStatus[status]; ok {
				task[key] = next
			}
		case !helpers.SliceContains(key, immutableFields):
			if s, ok := value.(string); ok {
				task[key] = s + updatedSuffix
			}
		}
	}
}

func appendSuffix(m map[string]interface{}) {
	for k, v := range m {
		if s, ok := v.(string); ok && s != "" && !strings.HasSuffix(s, updatedSuffix) {
			m[k] = s + updatedSuffix
		}
	}
}
