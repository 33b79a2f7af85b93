// Package request composes suite defaults, test-data overlays, call-site arguments, and
// command-line arguments into endpoint requests.
package request

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework"
	"github.com/apitaf/apitaf/framework/opt"
	"github.com/apitaf/apitaf/merge"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/suite"

	"github.com/gorilla/mux"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AuthSource supplies the authentication headers added to every request.
type AuthSource interface {
	AuthHeaders(ctx context.Context) (map[string]string, error)
}

// Caller sends endpoint requests. *Builder is the implementation; service helpers accept the
// interface so they can be tested against a fake.
type Caller interface {
	Call(ctx context.Context, ref endpoint.Ref, opts Options) (endpoint.Response, error)
}

// Options are the per-call inputs to Build and Call.
type Options struct {
	// Method overrides the endpoint's declared method.
	Method opt.Maybe[endpoint.Method]
	// CommandArgs selects the configuration and are the highest-precedence path arguments. If
	// empty, the resolver's default arguments are used for the configuration.
	CommandArgs config.CommandArgs
	// InputArgs are explicit path arguments, overriding the overlay's args.
	InputArgs map[string]interface{}
	// Overlay is the environment-resolved test data. It may be nil.
	Overlay *overlay.Overlay
}

// Builder builds and sends endpoint requests.
type Builder struct {
	configs *suite.Resolver
	auth    AuthSource
	sender  endpoint.Sender
	logger  framework.Logger
}

// NewBuilder creates a Builder. auth may be nil if no authentication headers are wanted.
func NewBuilder(configs *suite.Resolver, auth AuthSource, sender endpoint.Sender, logger framework.Logger) *Builder {
	return &Builder{configs: configs, auth: auth, sender: sender, logger: framework.OrNull(logger)}
}

// Build resolves the request for ref.
//
// Path arguments are merged in ascending precedence: endpoint defaults, overlay args,
// opts.InputArgs, opts.CommandArgs. Query parameters are the endpoint defaults merged with the
// overlay params. Headers are the endpoint defaults, then overlay headers, then the overlay's
// add_headers, then authentication headers, which always win.
func (b *Builder) Build(ctx context.Context, ref endpoint.Ref, opts Options) (endpoint.Request, error) {
	cfg, err := b.configs.Resolve(opts.CommandArgs)
	if err != nil {
		return endpoint.Request{}, err
	}
	env := cfg.Environment()
	s, ok := cfg.Suite(ref.Suite)
	if !ok {
		return endpoint.Request{}, fmt.Errorf("suite %q is not in the endpoint catalog", ref.Suite)
	}
	def, err := cfg.Endpoint(ref)
	if err != nil {
		return endpoint.Request{}, err
	}

	var commandArgs map[string]interface{}
	if len(opts.CommandArgs) != 0 {
		commandArgs = opts.CommandArgs.Values()
	}
	args := merge.All(def.Args, opts.Overlay.Args(), opts.InputArgs, commandArgs)
	params := merge.Maps(def.Params, opts.Overlay.Params())

	path, err := ExpandPath(def.Path, args)
	if err != nil {
		return endpoint.Request{}, err
	}

	headers := map[string]string{}
	setHeaders(headers, stringValues(def.Headers))
	setHeaders(headers, stringValues(opts.Overlay.Headers()))
	setHeaders(headers, stringValues(opts.Overlay.AddHeaders()))
	if b.auth != nil {
		auth, err := b.auth.AuthHeaders(ctx)
		if err != nil {
			return endpoint.Request{}, err
		}
		setHeaders(headers, auth)
	}

	payload, err := opts.Overlay.Payload()
	if err != nil {
		return endpoint.Request{}, err
	}

	method := opts.Method.OrElse(def.Method)
	req := endpoint.Request{
		URI:         s.BaseURL(env) + path,
		Method:      method,
		Environment: env,
		Headers:     headers,
		Params:      params,
		Data:        payload.Data,
		JSON:        payload.JSON,
	}
	b.logger.Printf("Built %s %s for %s", method, req.URI, ref)
	return req, nil
}

// Call builds the request for ref and sends it. Transport failures are reported in the
// response, not as an error; the error result is only for configuration and template problems.
func (b *Builder) Call(ctx context.Context, ref endpoint.Ref, opts Options) (endpoint.Response, error) {
	req, err := b.Build(ctx, ref, opts)
	if err != nil {
		return endpoint.Response{}, err
	}
	return b.sender.Send(ctx, req), nil
}

// ExpandPath substitutes {name} placeholders in template with values from args. A placeholder
// with no value is a TemplateResolutionError; any supplied value is used as is, including an
// empty string or one containing "/".
func ExpandPath(template string, args map[string]interface{}) (string, error) {
	if !strings.Contains(template, "{") {
		return template, nil
	}
	routeTemplate := anyValuePlaceholder.ReplaceAllString(template, "{${1}:.*}")
	if !strings.HasPrefix(routeTemplate, "/") {
		routeTemplate = "/" + routeTemplate
	}
	route := mux.NewRouter().NewRoute().Path(routeTemplate)
	if err := route.GetError(); err != nil {
		return "", endpoint.TemplateResolutionError{Template: template, Err: err}
	}
	pairs := make([]string, 0, 2*len(args))
	for k, v := range args {
		pairs = append(pairs, k, endpoint.FormatValue(v))
	}
	u, err := route.URLPath(pairs...)
	if err != nil {
		return "", endpoint.TemplateResolutionError{Template: template, Err: err}
	}
	if !strings.HasPrefix(template, "/") {
		return strings.TrimPrefix(u.Path, "/"), nil
	}
	return u.Path, nil
}

// anyValuePlaceholder matches a {name} placeholder that declares no pattern of its own.
var anyValuePlaceholder = regexp.MustCompile(`\{([^{}:]+)\}`)

// setHeaders copies layer into headers. A key from layer replaces any existing key that differs
// only in case. Keys within a layer are applied in sorted order.
func setHeaders(headers, layer map[string]string) {
	keys := maps.Keys(layer)
	slices.Sort(keys)
	for _, k := range keys {
		for existing := range headers {
			if existing != k && strings.EqualFold(existing, k) {
				delete(headers, existing)
			}
		}
		headers[k] = layer[k]
	}
}

func stringValues(m map[string]interface{}) map[string]string {
	ret := make(map[string]string, len(m))
	for k, v := range m {
		ret[k] = endpoint.FormatValue(v)
	}
	return ret
}
