// Package suite resolves the endpoint catalog and run suites into an immutable Config.
package suite

import (
	"fmt"
	"sync"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/data"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework"
	"github.com/apitaf/apitaf/merge"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Resolver builds Configs. Results are memoized per distinct argument tuple, including errors:
// for a given tuple the resolution runs at most once for the lifetime of the Resolver. A
// Resolver is safe for concurrent use.
type Resolver struct {
	loader   *data.Loader
	layout   config.Layout
	defaults config.CommandArgs
	logger   framework.Logger

	catalogOnce sync.Once
	catalog     map[string]interface{}
	catalogErr  error

	lock    sync.Mutex
	entries map[string]*resolution
}

type resolution struct {
	once sync.Once
	cfg  *Config
	err  error
}

// NewResolver creates a Resolver. defaults are the arguments used when Resolve is called with
// none, normally the parsed command line of the process.
func NewResolver(loader *data.Loader, layout config.Layout, defaults config.CommandArgs, logger framework.Logger) *Resolver {
	return &Resolver{
		loader:   loader,
		layout:   layout,
		defaults: config.NewCommandArgs(defaults),
		logger:   framework.OrNull(logger),
		entries:  make(map[string]*resolution),
	}
}

// Defaults returns the arguments used when Resolve is called with none.
func (r *Resolver) Defaults() config.CommandArgs { return config.NewCommandArgs(r.defaults) }

// Resolve returns the Config for args, or for the default arguments if args is empty.
func (r *Resolver) Resolve(args config.CommandArgs) (*Config, error) {
	if len(args) == 0 {
		args = r.defaults
	}
	args = config.NewCommandArgs(args)
	key := args.Key()

	r.lock.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &resolution{}
		r.entries[key] = e
	}
	r.lock.Unlock()

	e.once.Do(func() {
		e.cfg, e.err = r.build(args)
	})
	return e.cfg, e.err
}

// Catalog returns a copy of the endpoint catalog as loaded from the workspace, before any
// per-environment defaults are applied: suite name to suite data.
func (r *Resolver) Catalog() (map[string]interface{}, error) {
	c, err := r.loadCatalog()
	if err != nil {
		return nil, err
	}
	return merge.Clone(c), nil
}

func (r *Resolver) loadCatalog() (map[string]interface{}, error) {
	r.catalogOnce.Do(func() {
		r.catalog, r.catalogErr = r.readCatalog()
	})
	return r.catalog, r.catalogErr
}

func (r *Resolver) readCatalog() (map[string]interface{}, error) {
	registry, err := r.loader.Load(r.layout.CatalogFile, data.Required)
	if err != nil {
		return nil, err
	}
	var files []string
	if err := mapstructure.Decode(registry["suites"], &files); err != nil {
		return nil, data.ConfigurationError{Path: r.layout.CatalogFile, Reason: `"suites" must be a list of file names`, Err: err}
	}
	ret := map[string]interface{}{}
	for _, f := range files {
		suites, err := r.loader.Load(r.layout.SuiteDefinitionFile(f), data.Required)
		if err != nil {
			return nil, err
		}
		for name, def := range suites {
			ret[name] = def
		}
	}
	return ret, nil
}

func (r *Resolver) build(args config.CommandArgs) (*Config, error) {
	env := args.Environment()
	catalog, err := r.loadCatalog()
	if err != nil {
		return nil, err
	}

	runTests, err := r.loadRunTests(args.Suites())
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		args:        args,
		environment: env,
		suites:      make(map[string]*Suite, len(catalog)),
		runTests:    runTests,
	}
	names := maps.Keys(catalog)
	slices.Sort(names)
	for _, name := range names {
		raw, ok := merge.AsMap(catalog[name])
		if !ok {
			return nil, data.ConfigurationError{Path: r.layout.CatalogFile, Reason: fmt.Sprintf("suite %q is not an object", name)}
		}
		defaults, err := r.loadSuiteDefaults(name, env)
		if err != nil {
			return nil, err
		}
		s, err := newSuite(name, merge.Maps(raw, defaults))
		if err != nil {
			return nil, err
		}
		cfg.suites[name] = s
	}
	return cfg, nil
}

func (r *Resolver) loadRunTests(suiteNames []string) ([]RunTestEntry, error) {
	var ret []RunTestEntry
	for _, name := range suiteNames {
		file := r.layout.RunSuiteFile(name)
		doc, err := r.loader.Load(file, data.Fatal)
		if err != nil {
			return nil, err
		}
		var entries []RunTestEntry
		if err := mapstructure.Decode(doc["run_tests"], &entries); err != nil {
			return nil, data.ConfigurationError{Path: file, Reason: "malformed run_tests", Err: err, Fatal: true}
		}
		for i, e := range entries {
			if e.Module == "" {
				return nil, data.ConfigurationError{Path: file, Reason: fmt.Sprintf("run_tests entry %d has no module", i), Fatal: true}
			}
			for j, c := range e.Classes {
				if c.TestClass == "" {
					return nil, data.ConfigurationError{
						Path:   file,
						Reason: fmt.Sprintf("run_tests entry %d, class %d has no test_class", i, j),
						Fatal:  true,
					}
				}
			}
		}
		ret = append(ret, entries...)
	}
	return ret, nil
}

func (r *Resolver) loadSuiteDefaults(suiteName, env string) (map[string]interface{}, error) {
	stem := config.DefaultDataStem(suiteName, env)
	file, ok := r.loader.Find(r.layout.DefaultDataDir, stem)
	if !ok {
		r.logger.Printf("No default data file %s for suite %q", stem, suiteName)
		return nil, nil
	}
	r.logger.Printf("Loading default data for suite %q from %s", suiteName, file)
	return r.loader.Load(file, data.Required)
}

type endpointFields struct {
	Path    string                 `mapstructure:"path"`
	Method  string                 `mapstructure:"method"`
	Args    map[string]interface{} `mapstructure:"args"`
	Params  map[string]interface{} `mapstructure:"params"`
	Headers map[string]interface{} `mapstructure:"headers"`
}

func newSuite(name string, raw map[string]interface{}) (*Suite, error) {
	s := &Suite{name: name, raw: raw, endpoints: map[string]EndpointDefinition{}}
	if _, ok := raw["baseurl"].(string); !ok {
		return nil, data.ConfigurationError{Path: name, Reason: "suite has no baseurl"}
	}
	endpoints, _ := merge.AsMap(raw["endpoints"])
	for key, v := range endpoints {
		var f endpointFields
		if err := mapstructure.Decode(v, &f); err != nil {
			return nil, data.ConfigurationError{Path: name, Reason: fmt.Sprintf("malformed endpoint %q", key), Err: err}
		}
		method, err := endpoint.ParseMethod(f.Method)
		if err != nil {
			return nil, data.ConfigurationError{Path: name, Reason: fmt.Sprintf("endpoint %q", key), Err: err}
		}
		def := EndpointDefinition{
			Suite:   name,
			Key:     key,
			Path:    f.Path,
			Method:  method,
			Args:    f.Args,
			Params:  f.Params,
			Headers: f.Headers,
		}
		if suiteLevel, ok := merge.AsMap(raw[key]); ok {
			def.Args = mergeSection(def.Args, suiteLevel, "args")
			def.Params = mergeSection(def.Params, suiteLevel, "params")
			def.Headers = mergeSection(def.Headers, suiteLevel, "headers")
		}
		for _, m := range []*map[string]interface{}{&def.Args, &def.Params, &def.Headers} {
			if *m == nil {
				*m = map[string]interface{}{}
			}
		}
		s.endpoints[key] = def
	}
	return s, nil
}

func mergeSection(base map[string]interface{}, suiteLevel map[string]interface{}, section string) map[string]interface{} {
	override, _ := merge.AsMap(suiteLevel[section])
	return merge.Maps(base, override)
}
