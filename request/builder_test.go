package request

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/data"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework/opt"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/suite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type obj = map[string]interface{}

var (
	updateTask = endpoint.Ref{Suite: "company_tasks_svc", Endpoint: "updateCompanyTasks"}
	searchTask = endpoint.Ref{Suite: "company_tasks_svc", Endpoint: "getCompanyTasks"}
)

type staticAuth map[string]string

func (s staticAuth) AuthHeaders(context.Context) (map[string]string, error) { return s, nil }

type failingAuth struct{}

func (failingAuth) AuthHeaders(context.Context) (map[string]string, error) {
	return nil, errors.New("no credentials")
}

type recordingSender struct {
	requests []endpoint.Request
}

func (r *recordingSender) Send(_ context.Context, req endpoint.Request) endpoint.Response {
	r.requests = append(r.requests, req)
	return endpoint.Response{Environment: req.Environment, URL: req.URI, Status: 200}
}

func newTestBuilder(auth AuthSource) (*Builder, *recordingSender) {
	fs := fstest.MapFS{
		"config/resource_config.json": {Data: []byte(`{"suites": ["company_tasks_svc"]}`)},
		"config/company_tasks_svc.json": {Data: []byte(`{
			"company_tasks_svc": {
				"baseurl": "https://tasks-{environment}.example.com",
				"prod_baseurl": "https://tasks.example.com",
				"endpoints": {
					"updateCompanyTasks": {
						"path": "/companies/{companyid}/tasks/{ueid}",
						"method": "PUT",
						"args": {"companyid": "SUITE"},
						"params": {"page": 1, "size": 10},
						"headers": {"Accept": "application/json", "Authorization": "from-suite"}
					},
					"getCompanyTasks": {"path": "/tasks/search", "method": "POST"}
				}
			}
		}`)},
	}
	configs := suite.NewResolver(data.NewLoader(fs), config.DefaultLayout(), nil, nil)
	sender := &recordingSender{}
	return NewBuilder(configs, auth, sender, nil), sender
}

func TestPathTemplateResolution(t *testing.T) {
	p, err := ExpandPath("/companies/{companyid}/tasks/{ueid}", obj{"companyid": "C1", "ueid": "U1"})
	require.NoError(t, err)
	assert.Equal(t, "/companies/C1/tasks/U1", p)

	_, err = ExpandPath("/companies/{companyid}/tasks/{ueid}", obj{"companyid": "C1"})
	var tre endpoint.TemplateResolutionError
	require.ErrorAs(t, err, &tre)
	assert.Equal(t, "/companies/{companyid}/tasks/{ueid}", tre.Template)
}

func TestExpandPathEdgeCases(t *testing.T) {
	p, err := ExpandPath("/health", nil)
	require.NoError(t, err)
	assert.Equal(t, "/health", p)

	p, err = ExpandPath("v1/{id}", obj{"id": float64(42), "unused": "x"})
	require.NoError(t, err)
	assert.Equal(t, "v1/42", p)

	_, err = ExpandPath("/broken/{id", obj{"id": "1"})
	assert.ErrorAs(t, err, &endpoint.TemplateResolutionError{})
}

func TestExpandPathUsesEmptyAndSlashValues(t *testing.T) {
	p, err := ExpandPath("/companies/{companyid}/tasks/{ueid}", obj{"companyid": "C1", "ueid": ""})
	require.NoError(t, err)
	assert.Equal(t, "/companies/C1/tasks/", p)

	p, err = ExpandPath("/companies/{companyid}/tasks", obj{"companyid": "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/companies/a/b/tasks", p)

	p, err = ExpandPath("/items/{id:[0-9]+}", obj{"id": "12"})
	require.NoError(t, err)
	assert.Equal(t, "/items/12", p)
}

func TestArgumentPrecedence(t *testing.T) {
	b, _ := newTestBuilder(nil)
	ov := overlay.New(obj{"args": obj{"companyid": "OVERLAY", "ueid": "U-OVERLAY"}}, "dev")

	req, err := b.Build(context.Background(), updateTask, Options{Overlay: ov})
	require.NoError(t, err)
	assert.Equal(t, "https://tasks-dev.example.com/companies/OVERLAY/tasks/U-OVERLAY", req.URI)

	req, err = b.Build(context.Background(), updateTask, Options{Overlay: ov, InputArgs: obj{"ueid": "U-INPUT"}})
	require.NoError(t, err)
	assert.Equal(t, "https://tasks-dev.example.com/companies/OVERLAY/tasks/U-INPUT", req.URI)

	req, err = b.Build(context.Background(), updateTask, Options{
		Overlay:     ov,
		InputArgs:   obj{"ueid": "U-INPUT"},
		CommandArgs: config.NewCommandArgs(map[string]string{"ueid": "U-CLI", "environment": "prod"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com/companies/OVERLAY/tasks/U-CLI", req.URI)
	assert.Equal(t, "prod", req.Environment)
}

func TestSuiteDefaultArgsApplyWithoutOverlay(t *testing.T) {
	b, _ := newTestBuilder(nil)
	req, err := b.Build(context.Background(), updateTask, Options{InputArgs: obj{"ueid": "U1"}})
	require.NoError(t, err)
	assert.Equal(t, "https://tasks-dev.example.com/companies/SUITE/tasks/U1", req.URI)

	_, err = b.Build(context.Background(), updateTask, Options{})
	assert.ErrorAs(t, err, &endpoint.TemplateResolutionError{})
}

func TestParamsAndHeaders(t *testing.T) {
	b, _ := newTestBuilder(staticAuth{"authorization": "Basic abc"})
	ov := overlay.New(obj{
		"args":        obj{"ueid": "U1"},
		"params":      obj{"size": 50},
		"headers":     obj{"Accept": "text/plain", "x-trace": "t1"},
		"add_headers": obj{"x-trace": "t2"},
	}, "dev")

	req, err := b.Build(context.Background(), updateTask, Options{Overlay: ov})
	require.NoError(t, err)
	assert.Equal(t, obj{"page": float64(1), "size": 50}, req.Params)
	assert.Equal(t, map[string]string{
		"Accept":        "text/plain",
		"x-trace":       "t2",
		"authorization": "Basic abc",
	}, req.Headers, "auth header replaces a differently-cased suite header")
}

func TestMethodSelection(t *testing.T) {
	b, _ := newTestBuilder(nil)
	ov := overlay.New(obj{"args": obj{"ueid": "U1"}}, "dev")

	req, err := b.Build(context.Background(), updateTask, Options{Overlay: ov})
	require.NoError(t, err)
	assert.Equal(t, endpoint.MethodPut, req.Method)

	req, err = b.Build(context.Background(), updateTask, Options{Overlay: ov, Method: opt.Some(endpoint.MethodPatch)})
	require.NoError(t, err)
	assert.Equal(t, endpoint.MethodPatch, req.Method)
}

func TestPayloadFromOverlay(t *testing.T) {
	b, _ := newTestBuilder(nil)
	ov := overlay.New(obj{
		"json": obj{"companyid": "C1", "pageRequest": obj{"size": 10}},
		"data": obj{"ignored": true},
		"dev":  obj{"json": obj{"pageRequest": obj{"page": 2}}},
	}, "dev")

	req, err := b.Build(context.Background(), searchTask, Options{Overlay: ov})
	require.NoError(t, err)
	assert.Nil(t, req.Data)
	assert.Equal(t, obj{"companyid": "C1", "pageRequest": obj{"size": 10, "page": 2}}, req.JSON)
}

func TestCallSendsBuiltRequest(t *testing.T) {
	b, sender := newTestBuilder(staticAuth{"Authorization": "Basic abc"})
	resp, err := b.Call(context.Background(), searchTask, Options{})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	require.Len(t, sender.requests, 1)
	assert.Equal(t, "https://tasks-dev.example.com/tasks/search", sender.requests[0].URI)
	assert.Equal(t, endpoint.MethodPost, sender.requests[0].Method)
}

func TestCallErrors(t *testing.T) {
	b, sender := newTestBuilder(failingAuth{})
	_, err := b.Call(context.Background(), searchTask, Options{})
	assert.EqualError(t, err, "no credentials")

	_, err = b.Call(context.Background(), endpoint.Ref{Suite: "company_tasks_svc", Endpoint: "nope"}, Options{})
	assert.Error(t, err)

	_, err = b.Call(context.Background(), endpoint.Ref{Suite: "nope", Endpoint: "x"}, Options{})
	assert.Error(t, err)

	assert.Empty(t, sender.requests)
}

func TestHeaderLayersOverrideRegardlessOfCase(t *testing.T) {
	b, _ := newTestBuilder(nil)
	ov := overlay.New(obj{
		"args":        obj{"ueid": "U1"},
		"headers":     obj{"accept": "text/plain", "Content-Type": "application/xml"},
		"add_headers": obj{"content-type": "application/json"},
	}, "dev")

	for i := 0; i < 20; i++ {
		req, err := b.Build(context.Background(), updateTask, Options{Overlay: ov})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"accept":        "text/plain",
			"content-type":  "application/json",
			"Authorization": "from-suite",
		}, req.Headers)
	}
}
