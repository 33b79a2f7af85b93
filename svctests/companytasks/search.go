package companytasks

import (
	"github.com/apitaf/apitaf/framework/helpers"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/merge"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/session"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/require"
)

func init() {
	taftest.Register("test.company_tasks_svc.test_search_company_tasks", func(m *taftest.Module) {
		m.Class("TestCompanyTasksSvcSearch").
			Method("test_search_company_tasks_valid", testSearchCompanyTasksValid)
	})
}

const defaultPageSize = 10

func testSearchCompanyTasksValid(t *taftest.T) {
	s, client := requireClient(t)
	td := s.TestData(t, "company_tasks_svc/search_company_tasks.json")
	inputs, _ := merge.AsMap(td.Get("endpoint_inputs"))
	o := overlay.New(inputs, s.Environment())
	companyID, _ := o.Args()["companyid"].(string)
	require.NotEmpty(t, companyID, "endpoint_inputs.args.companyid is required")
	ctx := s.Context()

	_, err := client.DeleteAll(ctx, o, companyID)
	requireNoError(t, err)
	t.Defer(func() {
		if _, err := client.DeleteAll(ctx, o, companyID); err != nil {
			t.Debug("cleanup failed: %s", err)
		}
	})

	created, err := client.CreateChecked(ctx, o)
	requireNoError(t, err)
	all := stripTracking(created.Body.GetByKey("content"))
	t.Debug("Created %d tasks", all.Count())

	search := func(extra map[string]interface{}) ldvalue.Value {
		args := merge.Maps(map[string]interface{}{"companyid": companyID}, extra)
		resp, err := client.SearchChecked(ctx, o, args)
		requireNoError(t, err)
		return stripTracking(resp.Body.GetByKey("content"))
	}

	// first page, default size
	session.AssertValueEquals(t, search(nil), session.Slice(all, 0, defaultPageSize).AsArbitraryValue())

	// second page
	session.AssertValueEquals(t,
		search(map[string]interface{}{"pageRequest": map[string]interface{}{"page": 1}}),
		session.Slice(all, defaultPageSize, 2*defaultPageSize).AsArbitraryValue())

	// everything in one page
	session.AssertValueEquals(t,
		search(map[string]interface{}{"pageRequest": map[string]interface{}{"size": all.Count()}}),
		all.AsArbitraryValue())

	// by id, all but the last two
	ids := TaskIDs(all)
	if len(ids) > 2 {
		wanted := ids[:len(ids)-2]
		expected := filterTasks(all, func(task ldvalue.Value) bool {
			return helpers.SliceContains(task.GetByKey("id").StringValue(), wanted)
		})
		session.AssertValueEquals(t,
			search(map[string]interface{}{"ids": stringList(wanted)}),
			session.Slice(expected, 0, defaultPageSize).AsArbitraryValue())
	}

	// by category
	categories := uniqueStrings(all, "category")
	if len(categories) > 0 {
		expected := filterTasks(all, func(task ldvalue.Value) bool {
			return task.GetByKey("category").StringValue() == categories[0]
		})
		session.AssertValueEquals(t,
			search(map[string]interface{}{"categories": stringList(categories[:1])}),
			session.Slice(expected, 0, defaultPageSize).AsArbitraryValue())
	}

	// by status
	statuses := uniqueStrings(all, "status")
	if len(statuses) > 2 {
		statuses = statuses[:2]
	}
	expected := filterTasks(all, func(task ldvalue.Value) bool {
		return helpers.SliceContains(task.GetByKey("status").StringValue(), statuses)
	})
	session.AssertValueEquals(t,
		search(map[string]interface{}{"statuses": stringList(statuses)}),
		session.Slice(expected, 0, defaultPageSize).AsArbitraryValue())
}

func filterTasks(list ldvalue.Value, keep func(ldvalue.Value) bool) ldvalue.Value {
	b := ldvalue.ArrayBuild()
	for i := 0; i < list.Count(); i++ {
		if item := list.GetByIndex(i); keep(item) {
			b.Add(item)
		}
	}
	return b.Build()
}

// uniqueStrings returns the distinct values of a string property in first-seen order.
func uniqueStrings(list ldvalue.Value, key string) []string {
	var ret []string
	for i := 0; i < list.Count(); i++ {
		v := list.GetByIndex(i).GetByKey(key).StringValue()
		if v != "" && !helpers.SliceContains(v, ret) {
			ret = append(ret, v)
		}
	}
	return ret
}

func stringList(ss []string) []interface{} {
	ret := make([]interface{}, 0, len(ss))
	for _, s := range ss {
		ret = append(ret, s)
	}
	return ret
}
