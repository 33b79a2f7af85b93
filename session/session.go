// Package session carries the per-run collaborators that service tests need: the resolved
// command-line arguments, the suite configuration, the test-data resolver, and the request
// builder. The launcher puts a Session into the test scope's context.
package session

import (
	"context"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework"
	"github.com/apitaf/apitaf/framework/opt"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/request"
	"github.com/apitaf/apitaf/suite"
)

type Session struct {
	ctx      context.Context
	args     config.CommandArgs
	configs  *suite.Resolver
	testData *overlay.Resolver
	builder  *request.Builder
	logger   framework.Logger
}

// New creates a Session. ctx bounds every request made through it.
func New(
	ctx context.Context,
	args config.CommandArgs,
	configs *suite.Resolver,
	testData *overlay.Resolver,
	builder *request.Builder,
	logger framework.Logger,
) *Session {
	return &Session{
		ctx:      ctx,
		args:     args,
		configs:  configs,
		testData: testData,
		builder:  builder,
		logger:   framework.OrNull(logger),
	}
}

// FromT returns the Session attached to the test run. It fails the test if there is none.
func FromT(t *taftest.T) *Session {
	s, ok := t.Context().(*Session)
	if !ok || s == nil {
		t.Errorf("test run has no session")
		t.FailNow()
	}
	return s
}

func (s *Session) Context() context.Context { return s.ctx }

// Args returns a copy of the run's command-line arguments.
func (s *Session) Args() config.CommandArgs { return config.NewCommandArgs(s.args) }

func (s *Session) Environment() string { return s.args.Environment() }

// Caller returns the request builder, for helpers that report errors instead of failing a test.
func (s *Session) Caller() request.Caller { return s.builder }

// Config returns the run's suite configuration, failing the test if it cannot be resolved.
func (s *Session) Config(t *taftest.T) *suite.Config {
	t.Helper()
	cfg, err := s.configs.Resolve(s.args)
	if err != nil {
		t.Errorf("resolving suite configuration: %s", err)
		t.FailNow()
	}
	return cfg
}

// TestData loads and folds a test-data file for the run's environment. A test_data override
// on the command line replaces fileName.
func (s *Session) TestData(t *taftest.T, fileName string) *overlay.Overlay {
	t.Helper()
	o, err := s.testData.Resolve(s.ctx, fileName, s.args)
	if err != nil {
		t.Errorf("loading test data %s: %s", fileName, err)
		t.FailNow()
	}
	t.Debug("Loaded test data %s for environment %s", fileName, o.Environment())
	return o
}

// Call sends the request for ref with the given overlay. The run's command arguments are the
// highest-precedence path arguments unless WithCommandArgs replaces them. Configuration and
// template errors fail the test immediately; transport failures come back in the response with
// status 555.
func (s *Session) Call(t *taftest.T, ref endpoint.Ref, o *overlay.Overlay, opts ...CallOption) endpoint.Response {
	t.Helper()
	options := request.Options{Overlay: o, CommandArgs: config.NewCommandArgs(s.args)}
	for _, apply := range opts {
		apply(&options)
	}
	resp, err := s.builder.Call(s.ctx, ref, options)
	if err != nil {
		t.Errorf("calling %s: %s", ref, err)
		t.FailNow()
	}
	logger := t.DebugLogger()
	logger.Printf("%s %s -> %d", ref, resp.URL, resp.Status)
	if resp.Failed() {
		logger.Printf("transport error: %s", resp.Error)
	}
	return resp
}

// CallOption adjusts the request options for one Call.
type CallOption func(*request.Options)

// WithMethod overrides the endpoint's declared method.
func WithMethod(m endpoint.Method) CallOption {
	return func(o *request.Options) { o.Method = opt.Some(m) }
}

// WithInputArgs sets explicit path arguments, which override the overlay's args.
func WithInputArgs(args map[string]interface{}) CallOption {
	return func(o *request.Options) { o.InputArgs = args }
}

// WithCommandArgs makes the given arguments the highest-precedence path arguments and uses
// them to select the configuration.
func WithCommandArgs(args config.CommandArgs) CallOption {
	return func(o *request.Options) { o.CommandArgs = args }
}
