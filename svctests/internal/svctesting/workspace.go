// Package svctesting runs registered service tests against a fake service, so that the test
// code itself can be checked without a deployed environment.
package svctesting

import (
	"context"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/data"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/plan"
	"github.com/apitaf/apitaf/request"
	"github.com/apitaf/apitaf/session"
	"github.com/apitaf/apitaf/suite"
)

// Handler answers one request sent by a service test.
type Handler func(req endpoint.Request) endpoint.Response

// Workspace is an in-memory test workspace whose endpoints are served by a Handler.
type Workspace struct {
	Files       fstest.MapFS
	Environment string
	Handler     Handler

	lock sync.Mutex
	sent []endpoint.Request
}

// NewWorkspace creates a workspace with the given catalog and suite definition files. Each
// suite file is registered in config/resource_config.json.
func NewWorkspace(env string, suiteFiles map[string]string) *Workspace {
	files := fstest.MapFS{}
	var names []string
	for name, content := range suiteFiles {
		names = append(names, `"`+name+`"`)
		files["config/"+name+".json"] = &fstest.MapFile{Data: []byte(content)}
	}
	catalog := `{"suites": [` + strings.Join(names, ",") + `]}`
	files["config/resource_config.json"] = &fstest.MapFile{Data: []byte(catalog)}
	return &Workspace{Files: files, Environment: env}
}

// AddTestData adds a test data file under test_data/.
func (w *Workspace) AddTestData(name, content string) *Workspace {
	w.Files["test_data/"+name] = &fstest.MapFile{Data: []byte(content)}
	return w
}

// Sent returns the requests received so far.
func (w *Workspace) Sent() []endpoint.Request {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]endpoint.Request(nil), w.sent...)
}

// Session builds a session over the workspace.
func (w *Workspace) Session() *session.Session {
	args := config.NewCommandArgs(map[string]string{config.KeyEnvironment: w.Environment})
	loader := data.NewLoader(w.Files)
	layout := config.DefaultLayout()
	configs := suite.NewResolver(loader, layout, args, nil)
	sender := endpoint.SenderFunc(func(_ context.Context, req endpoint.Request) endpoint.Response {
		w.lock.Lock()
		w.sent = append(w.sent, req)
		w.lock.Unlock()
		resp := w.Handler(req)
		resp.Environment, resp.URL = req.Environment, req.URI
		return resp
	})
	builder := request.NewBuilder(configs, nil, sender, nil)
	return session.New(context.Background(), args, configs, overlay.NewResolver(loader, layout, nil), builder, nil)
}

// Run runs the named tests from the default registry. Names may be modules, classes, or methods.
func (w *Workspace) Run(names ...string) (taftest.Results, error) {
	p, err := plan.FromNames(taftest.DefaultRegistry, names)
	if err != nil {
		return taftest.Results{}, err
	}
	return taftest.Run(taftest.TestConfiguration{Context: w.Session()}, p.Run), nil
}
