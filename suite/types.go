package suite

import (
	"fmt"
	"strings"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/merge"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// EnvironmentPlaceholder is substituted into a suite's baseurl template.
const EnvironmentPlaceholder = "{environment}"

// Config is the resolved configuration for one argument tuple. It is never modified after
// construction; accessors return copies of anything mutable.
type Config struct {
	args        config.CommandArgs
	environment string
	suites      map[string]*Suite
	runTests    []RunTestEntry
}

// Args returns the command arguments the configuration was resolved from.
func (c *Config) Args() config.CommandArgs { return config.NewCommandArgs(c.args) }

func (c *Config) Environment() string { return c.environment }

// SuiteNames returns the names of all suites in the endpoint catalog, sorted.
func (c *Config) SuiteNames() []string {
	names := maps.Keys(c.suites)
	slices.Sort(names)
	return names
}

func (c *Config) Suite(name string) (*Suite, bool) {
	s, ok := c.suites[name]
	return s, ok
}

// Endpoint looks up an endpoint definition.
func (c *Config) Endpoint(ref endpoint.Ref) (EndpointDefinition, error) {
	s, ok := c.suites[ref.Suite]
	if !ok {
		return EndpointDefinition{}, fmt.Errorf("suite %q is not in the endpoint catalog", ref.Suite)
	}
	def, ok := s.Endpoint(ref.Endpoint)
	if !ok {
		return EndpointDefinition{}, fmt.Errorf("endpoint %q is not defined in suite %q", ref.Endpoint, ref.Suite)
	}
	return def, nil
}

// RunTests returns the accumulated run_tests entries of all requested run suites, in order.
func (c *Config) RunTests() []RunTestEntry {
	ret := make([]RunTestEntry, 0, len(c.runTests))
	for _, e := range c.runTests {
		ret = append(ret, e.clone())
	}
	return ret
}

// Suite is one entry of the endpoint catalog, with its per-environment defaults merged in.
type Suite struct {
	name      string
	raw       map[string]interface{}
	endpoints map[string]EndpointDefinition
}

func (s *Suite) Name() string { return s.name }

// BaseURL returns the suite's "<env>_baseurl" value if there is one, otherwise its "baseurl"
// template with EnvironmentPlaceholder replaced by env.
func (s *Suite) BaseURL(env string) string {
	if u, ok := s.raw[env+"_baseurl"].(string); ok && u != "" {
		return u
	}
	template, _ := s.raw["baseurl"].(string)
	return strings.ReplaceAll(template, EnvironmentPlaceholder, env)
}

func (s *Suite) Endpoint(key string) (EndpointDefinition, bool) {
	def, ok := s.endpoints[key]
	if !ok {
		return EndpointDefinition{}, false
	}
	return def.clone(), true
}

// EndpointKeys returns the endpoint keys, sorted.
func (s *Suite) EndpointKeys() []string {
	keys := maps.Keys(s.endpoints)
	slices.Sort(keys)
	return keys
}

// Raw returns a copy of the suite's merged catalog data.
func (s *Suite) Raw() map[string]interface{} { return merge.Clone(s.raw) }

// EndpointDefinition is one endpoint of a suite. Args, Params, and Headers are the endpoint's
// defaults: those declared on the endpoint in the catalog, overridden by a section named after
// the endpoint key at the suite level (usually supplied by the per-environment defaults file).
type EndpointDefinition struct {
	Suite   string
	Key     string
	Path    string
	Method  endpoint.Method
	Args    map[string]interface{}
	Params  map[string]interface{}
	Headers map[string]interface{}
}

func (d EndpointDefinition) Ref() endpoint.Ref { return endpoint.Ref{Suite: d.Suite, Endpoint: d.Key} }

func (d EndpointDefinition) clone() EndpointDefinition {
	d.Args = merge.Clone(d.Args)
	d.Params = merge.Clone(d.Params)
	d.Headers = merge.Clone(d.Headers)
	return d
}

// RunTestEntry selects tests from one module. No classes means every test in the module.
type RunTestEntry struct {
	Module  string        `mapstructure:"module"`
	Classes []ClassFilter `mapstructure:"classes"`
}

// ClassFilter selects methods of one class. No methods means every method of the class.
type ClassFilter struct {
	TestClass   string   `mapstructure:"test_class"`
	TestMethods []string `mapstructure:"test_methods"`
}

func (e RunTestEntry) clone() RunTestEntry {
	if e.Classes == nil {
		return e
	}
	classes := make([]ClassFilter, 0, len(e.Classes))
	for _, c := range e.Classes {
		if c.TestMethods != nil {
			c.TestMethods = append([]string(nil), c.TestMethods...)
		}
		classes = append(classes, c)
	}
	e.Classes = classes
	return e
}
