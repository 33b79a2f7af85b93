package companytasks

import (
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/overlay"
)

func init() {
	taftest.Register("test.company_tasks_svc.test_add_company_tasks", func(m *taftest.Module) {
		m.Class("TestCompanyTasksSvcUpdate").
			Method("test_add_company_tasks_valid", testAddCompanyTasksValid)
	})
}

// Each client record supplies a companyid and ueid, and optionally assignees. Every proto-task is
// created for that company and assigned to the given assignees, or to the ueid if there are none.
func testAddCompanyTasksValid(t *taftest.T) {
	s, client := requireClient(t)
	o := s.TestData(t, "company_tasks_svc/add_company_tasks.json")

	records, _ := o.Get("client_records").([]interface{})
	for _, r := range records {
		record, _ := r.(map[string]interface{})
		args := overlay.New(record, s.Environment()).Args()
		companyID, _ := args["companyid"].(string)
		ueid, _ := args["ueid"].(string)
		assignees, ok := args["assignees"].([]interface{})
		if !ok || len(assignees) == 0 {
			assignees = []interface{}{map[string]interface{}{"ueid": ueid}}
		}

		tasks := ProtoTasks(o)
		for _, task := range tasks {
			task["assignees"] = assignees
			task["companyid"] = companyID
		}
		inputs := overlay.New(map[string]interface{}{
			overlay.SectionHeaders: o.Headers(),
			overlay.SectionArgs:    map[string]interface{}{"companyid": companyID, "ueid": ueid},
			overlay.SectionJSON:    TaskList(tasks),
		}, s.Environment())

		t.Debug("Creating %d tasks for company %s", len(tasks), companyID)
		_, err := client.CreateChecked(s.Context(), inputs)
		requireNoError(t, err)
	}
}
