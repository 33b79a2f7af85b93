// Package plan selects which registered test methods a run executes.
//
// A plan comes from one of two sources: the run_tests list of a suite configuration, or an
// explicit list of fully qualified "module.Class.method" names. Search lists matching names
// without producing a plan.
package plan

import (
	"fmt"
	"strings"

	"github.com/apitaf/apitaf/framework"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/suite"
)

// Entry is one runnable test method.
type Entry struct {
	Module string
	Class  string
	Method string
}

func (e Entry) ID() taftest.TestID {
	return taftest.TestID{e.Module, e.Class, e.Method}
}

// String returns the fully qualified name.
func (e Entry) String() string {
	return e.ID().String()
}

// Plan is an ordered, duplicate-free list of entries bound to the registry they came from.
type Plan struct {
	registry *taftest.Registry
	entries  []Entry
	seen     map[Entry]bool
}

func newPlan(registry *taftest.Registry) *Plan {
	return &Plan{registry: registry, seen: make(map[Entry]bool)}
}

func (p *Plan) add(e Entry) {
	if p.seen[e] {
		return
	}
	p.seen[e] = true
	p.entries = append(p.entries, e)
}

func (p *Plan) addClass(module string, c *taftest.Class) {
	for _, m := range c.MethodNames() {
		p.add(Entry{Module: module, Class: c.Name(), Method: m})
	}
}

func (p *Plan) addModule(m *taftest.Module) {
	for _, c := range m.Classes() {
		p.addClass(m.Name(), c)
	}
}

// Entries returns a copy of the plan's entries in run order.
func (p *Plan) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Names returns the fully qualified names in run order.
func (p *Plan) Names() []string {
	ret := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		ret = append(ret, e.String())
	}
	return ret
}

func (p *Plan) Len() int {
	return len(p.entries)
}

// FromSuite builds a plan from a suite's run_tests list. An empty list selects every registered
// module. A module listed without classes contributes all of its methods; a class listed without
// methods contributes all of that class's methods. Names that do not exist in the registry are
// logged and skipped, so that a suite file which has fallen behind the code still runs.
func FromSuite(registry *taftest.Registry, runTests []suite.RunTestEntry, logger framework.Logger) *Plan {
	logger = framework.OrNull(logger)
	p := newPlan(registry)

	if len(runTests) == 0 {
		for _, name := range registry.ModuleNames() {
			m, _ := registry.Module(name)
			p.addModule(m)
		}
		return p
	}

	for _, entry := range runTests {
		m, ok := registry.Module(entry.Module)
		if !ok {
			logger.Printf("Skipping unknown test module %q", entry.Module)
			continue
		}
		if len(entry.Classes) == 0 {
			p.addModule(m)
			continue
		}
		for _, filter := range entry.Classes {
			c, ok := m.LookupClass(filter.TestClass)
			if !ok {
				logger.Printf("Skipping unknown test class %q in module %q", filter.TestClass, entry.Module)
				continue
			}
			if len(filter.TestMethods) == 0 {
				p.addClass(m.Name(), c)
				continue
			}
			for _, method := range filter.TestMethods {
				if !c.HasMethod(method) {
					logger.Printf("Skipping unknown test method %q in %s.%s", method, entry.Module, filter.TestClass)
					continue
				}
				p.add(Entry{Module: m.Name(), Class: c.Name(), Method: method})
			}
		}
	}
	return p
}

// FromNames builds a plan from fully qualified names, in the given order. A name may also stop
// at the module or the class, selecting everything beneath it. Unlike FromSuite, a name that
// cannot be resolved is an error, since it was typed on the command line.
func FromNames(registry *taftest.Registry, names []string) (*Plan, error) {
	p := newPlan(registry)
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if err := p.addName(name); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Plan) addName(name string) error {
	moduleName, rest, ok := p.splitModule(name)
	if !ok {
		return fmt.Errorf("no test module matches %q", name)
	}
	m, _ := p.registry.Module(moduleName)
	if rest == "" {
		p.addModule(m)
		return nil
	}
	className, method, _ := strings.Cut(rest, ".")
	c, ok := m.LookupClass(className)
	if !ok {
		return fmt.Errorf("no test class %q in module %q", className, moduleName)
	}
	if method == "" {
		p.addClass(moduleName, c)
		return nil
	}
	if !c.HasMethod(method) {
		return fmt.Errorf("no test method %q in %s.%s", method, moduleName, className)
	}
	p.add(Entry{Module: moduleName, Class: className, Method: method})
	return nil
}

// Module names contain dots, so the module is the longest registered name that is a dotted
// prefix of the full name.
func (p *Plan) splitModule(name string) (string, string, bool) {
	best := ""
	for _, m := range p.registry.ModuleNames() {
		if (name == m || strings.HasPrefix(name, m+".")) && len(m) > len(best) {
			best = m
		}
	}
	if best == "" {
		return "", "", false
	}
	return best, strings.TrimPrefix(strings.TrimPrefix(name, best), "."), true
}

// Search returns every registered test name containing term, case-insensitively. The term "*"
// matches everything.
func Search(registry *taftest.Registry, term string) []string {
	needle := strings.ToLower(term)
	var ret []string
	for _, name := range registry.TestNames() {
		if term == "*" || strings.Contains(strings.ToLower(name), needle) {
			ret = append(ret, name)
		}
	}
	return ret
}

// Run executes the plan inside t, nesting a scope for each module, then each class, then each
// method. Consecutive entries that share a module and class share their scopes.
func (p *Plan) Run(t *taftest.T) {
	for i := 0; i < len(p.entries); {
		module := p.entries[i].Module
		j := i
		for j < len(p.entries) && p.entries[j].Module == module {
			j++
		}
		group := p.entries[i:j]
		t.Run(module, func(t *taftest.T) {
			p.runModule(t, module, group)
		})
		i = j
	}
}

func (p *Plan) runModule(t *taftest.T, module string, entries []Entry) {
	m, ok := p.registry.Module(module)
	if !ok {
		t.Fatalf("test module %q is not registered", module)
	}
	for i := 0; i < len(entries); {
		className := entries[i].Class
		j := i
		for j < len(entries) && entries[j].Class == className {
			j++
		}
		group := entries[i:j]
		c, _ := m.LookupClass(className)
		t.Run(className, func(t *taftest.T) {
			for _, e := range group {
				method := e.Method
				t.Run(method, func(t *taftest.T) {
					c.RunMethod(t, method)
				})
			}
		})
		i = j
	}
}
