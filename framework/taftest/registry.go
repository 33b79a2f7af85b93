package taftest

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry holds the test modules known to a launcher. A module is registered with a definition
// function that is invoked the first time the module is looked up, at most once.
type Registry struct {
	lock    sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	once   sync.Once
	define func(*Module)
	module *Module
}

// DefaultRegistry is where service test packages register themselves from init functions.
var DefaultRegistry = NewRegistry() //nolint:gochecknoglobals

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register adds a module. Registering the same name twice panics, since that can only be a
// programming error in a test package.
func (r *Registry) Register(name string, define func(*Module)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("test module %q registered twice", name))
	}
	r.entries[name] = &registryEntry{define: define}
}

// Register adds a module to DefaultRegistry.
func Register(name string, define func(*Module)) {
	DefaultRegistry.Register(name, define)
}

// ModuleNames returns all registered module names in sorted order.
func (r *Registry) ModuleNames() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	names := maps.Keys(r.entries)
	slices.Sort(names)
	return names
}

// Module returns the named module, running its definition function if this is the first lookup.
func (r *Registry) Module(name string) (*Module, bool) {
	r.lock.Lock()
	e, ok := r.entries[name]
	r.lock.Unlock()
	if !ok {
		return nil, false
	}
	e.once.Do(func() {
		m := &Module{name: name, classes: make(map[string]*Class)}
		e.define(m)
		e.module = m
	})
	return e.module, true
}

// TestNames returns the fully qualified name of every test method in every module, sorted.
func (r *Registry) TestNames() []string {
	var ret []string
	for _, name := range r.ModuleNames() {
		m, _ := r.Module(name)
		for _, c := range m.Classes() {
			for _, method := range c.MethodNames() {
				ret = append(ret, TestID{name, c.Name(), method}.String())
			}
		}
	}
	return ret
}

// Module is a named group of test classes.
type Module struct {
	name    string
	classes map[string]*Class
}

func (m *Module) Name() string { return m.name }

// Class returns the class with the given name, creating it if necessary.
func (m *Module) Class(name string) *Class {
	if c, ok := m.classes[name]; ok {
		return c
	}
	c := &Class{module: m.name, name: name, methods: make(map[string]func(*T))}
	m.classes[name] = c
	return c
}

// LookupClass returns an existing class without creating one.
func (m *Module) LookupClass(name string) (*Class, bool) {
	c, ok := m.classes[name]
	return c, ok
}

// Classes returns the module's classes sorted by name.
func (m *Module) Classes() []*Class {
	names := maps.Keys(m.classes)
	slices.Sort(names)
	ret := make([]*Class, 0, len(names))
	for _, n := range names {
		ret = append(ret, m.classes[n])
	}
	return ret
}

// Class is a named group of test methods sharing a per-method SetUp and TearDown.
type Class struct {
	module   string
	name     string
	setUp    func(*T)
	tearDown func(*T)
	methods  map[string]func(*T)
}

func (c *Class) Name() string { return c.name }

// SetUp sets a function that runs in each method's scope before the method.
func (c *Class) SetUp(fn func(*T)) *Class {
	c.setUp = fn
	return c
}

// TearDown sets a function that runs after each method whose SetUp completed, even if the
// method itself failed.
func (c *Class) TearDown(fn func(*T)) *Class {
	c.tearDown = fn
	return c
}

// Method adds a test method.
func (c *Class) Method(name string, fn func(*T)) *Class {
	c.methods[name] = fn
	return c
}

func (c *Class) HasMethod(name string) bool {
	_, ok := c.methods[name]
	return ok
}

// MethodNames returns the method names sorted.
func (c *Class) MethodNames() []string {
	names := maps.Keys(c.methods)
	slices.Sort(names)
	return names
}

// RunMethod runs one method with the class's SetUp and TearDown in the current scope.
func (c *Class) RunMethod(t *T, name string) {
	fn, ok := c.methods[name]
	if !ok {
		t.Errorf("no test method %q in %s.%s", name, c.module, c.name)
		t.FailNow()
	}
	if c.setUp != nil {
		c.setUp(t)
	}
	if c.tearDown != nil {
		t.Defer(func() { c.tearDown(t) })
	}
	fn(t)
}
