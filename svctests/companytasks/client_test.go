package companytasks

import (
	"context"
	"errors"
	"testing"

	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/request"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	endpoint string
	args     map[string]interface{}
	body     interface{}
}

// fakeCaller serves a tiny in-memory task store.
type fakeCaller struct {
	tasks      []string
	calls      []recordedCall
	failDelete bool
}

func (f *fakeCaller) Call(_ context.Context, ref endpoint.Ref, opts request.Options) (endpoint.Response, error) {
	payload, err := opts.Overlay.Payload()
	if err != nil {
		return endpoint.Response{}, err
	}
	f.calls = append(f.calls, recordedCall{endpoint: ref.Endpoint, args: opts.Overlay.Args(), body: payload.JSON})

	switch ref.Endpoint {
	case countEndpoint.Endpoint:
		return ok(ldvalue.ObjectBuild().Set("content", ldvalue.Int(len(f.tasks))).Build()), nil
	case searchEndpoint.Endpoint:
		list := ldvalue.ArrayBuild()
		for _, id := range f.tasks {
			list.Add(ldvalue.ObjectBuild().Set("id", ldvalue.String(id)).Build())
		}
		return ok(ldvalue.ObjectBuild().Set("content", list.Build()).Build()), nil
	case deleteEndpoint.Endpoint:
		if f.failDelete {
			return endpoint.Response{Status: 500, Body: ldvalue.Null()}, nil
		}
		f.tasks = nil
		return ok(ldvalue.Null()), nil
	}
	return endpoint.Response{}, errors.New("unexpected endpoint " + ref.Endpoint)
}

func ok(body ldvalue.Value) endpoint.Response {
	return endpoint.Response{Status: 200, Body: body}
}

func baseOverlay() *overlay.Overlay {
	return overlay.New(map[string]interface{}{
		"args": map[string]interface{}{"companyid": "ignored"},
	}, "qa")
}

func TestDeleteAllRemovesEveryTask(t *testing.T) {
	caller := &fakeCaller{tasks: []string{"t1", "t2", "t3"}}
	client := NewClient(caller)

	count, err := client.DeleteAll(context.Background(), baseOverlay(), "C1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	var endpoints []string
	for _, c := range caller.calls {
		endpoints = append(endpoints, c.endpoint)
		assert.Equal(t, "C1", c.args["companyid"])
	}
	assert.Equal(t, []string{"countCompanyTasks", "getCompanyTasks", "deleteCompanyTasks", "countCompanyTasks"}, endpoints)
	assert.Equal(t, map[string]interface{}{
		"companyid":   "C1",
		"pageRequest": map[string]interface{}{"size": 3},
	}, caller.calls[1].body)
	assert.Equal(t, []interface{}{"t1", "t2", "t3"}, caller.calls[2].body)
	assert.Empty(t, caller.tasks)
}

func TestDeleteAllWithNoTasksOnlyCounts(t *testing.T) {
	caller := &fakeCaller{}
	count, err := NewClient(caller).DeleteAll(context.Background(), baseOverlay(), "C1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.Len(t, caller.calls, 1)
	assert.Equal(t, "countCompanyTasks", caller.calls[0].endpoint)
}

func TestDeleteAllReportsUnexpectedStatus(t *testing.T) {
	caller := &fakeCaller{tasks: []string{"t1"}, failDelete: true}
	_, err := NewClient(caller).DeleteAll(context.Background(), baseOverlay(), "C1")

	var statusErr UnexpectedStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 200, statusErr.Expected)
	assert.Equal(t, 500, statusErr.Response.Status)
}

func TestUpdateReplacesUEID(t *testing.T) {
	caller := &fakeCaller{}
	_, _ = NewClient(caller).Update(context.Background(), baseOverlay(), "U9", []interface{}{"x"})

	require.Len(t, caller.calls, 1)
	assert.Equal(t, "U9", caller.calls[0].args["ueid"])
	assert.Equal(t, []interface{}{"x"}, caller.calls[0].body)
}

func TestWithOptionsKeepsCallOverlay(t *testing.T) {
	var seen request.Options
	caller := callerFunc(func(opts request.Options) { seen = opts })
	o := baseOverlay()

	client := NewClient(caller).WithOptions(request.Options{InputArgs: map[string]interface{}{"ueid": "U1"}})
	_, _ = client.Health(context.Background(), o)

	assert.Equal(t, map[string]interface{}{"ueid": "U1"}, seen.InputArgs)
	assert.Same(t, o, seen.Overlay)
}

func TestTaskIDs(t *testing.T) {
	list := ldvalue.ArrayOf(
		ldvalue.ObjectBuild().Set("id", ldvalue.String("a")).Build(),
		ldvalue.ObjectBuild().Set("name", ldvalue.String("no id")).Build(),
		ldvalue.ObjectBuild().Set("id", ldvalue.String("b")).Build(),
	)
	assert.Equal(t, []string{"a", "b"}, TaskIDs(list))
}

type callerFunc func(opts request.Options)

func (f callerFunc) Call(_ context.Context, _ endpoint.Ref, opts request.Options) (endpoint.Response, error) {
	f(opts)
	return ok(ldvalue.Null()), nil
}
