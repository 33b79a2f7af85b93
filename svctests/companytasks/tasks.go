package companytasks

import (
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/session"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/require"
)

// ProtoTasks returns a copy of the overlay's json payload as a list of task objects. Entries
// that are not objects are dropped.
func ProtoTasks(o *overlay.Overlay) []map[string]interface{} {
	list, _ := o.Get(overlay.SectionJSON).([]interface{})
	ret := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			ret = append(ret, m)
		}
	}
	return ret
}

// TaskList converts tasks back into a json payload.
func TaskList(tasks []map[string]interface{}) []interface{} {
	ret := make([]interface{}, 0, len(tasks))
	for _, t := range tasks {
		ret = append(ret, t)
	}
	return ret
}

// EditFirstTask returns a copy of o whose first proto-task has been changed by edit.
func EditFirstTask(t *taftest.T, o *overlay.Overlay, edit func(task map[string]interface{})) *overlay.Overlay {
	t.Helper()
	tasks := ProtoTasks(o)
	require.NotEmpty(t, tasks, "test data has no proto-tasks in json")
	edit(tasks[0])
	return o.WithJSON(TaskList(tasks))
}

// Content returns the "content" list of a response body as task objects.
func Content(body ldvalue.Value) []map[string]interface{} {
	list, _ := body.GetByKey("content").AsArbitraryValue().([]interface{})
	ret := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			ret = append(ret, m)
		}
	}
	return ret
}

func stripTracking(list ldvalue.Value) ldvalue.Value {
	return session.EachItem(list, func(v ldvalue.Value) ldvalue.Value {
		return session.WithoutPath(v, "trackingData")
	})
}

func requireClient(t *taftest.T) (*session.Session, *Client) {
	s := session.FromT(t)
	return s, NewClient(s.Caller())
}

func requireNoError(t *taftest.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

func valueOf(v interface{}) ldvalue.Value {
	return ldvalue.CopyArbitraryValue(v)
}
