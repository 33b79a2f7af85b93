package taftest

import (
	"fmt"
	"strings"
	"time"
)

// TestID identifies a test scope. For service tests the components are the module name, the
// class name, and the method name; the module name may itself contain dots.
type TestID []string

// String returns the fully qualified dotted name, e.g. "test.tasks.test_health.HealthCheck.test_ok".
func (t TestID) String() string {
	return strings.Join(t, ".")
}

// Path returns the components separated by "/", the form that -run and -skip patterns and the
// failure record file use.
func (t TestID) Path() string {
	return strings.Join(t, "/")
}

func (t TestID) Plus(name string) TestID {
	return append(append(TestID(nil), t...), name)
}

// ParseTestIDPath is the inverse of Path.
func ParseTestIDPath(s string) TestID {
	if s == "" {
		return nil
	}
	return TestID(strings.Split(s, "/"))
}

type Results struct {
	Tests    []TestResult
	Failures []TestResult
	Skipped  []TestResult
}

type TestResult struct {
	TestID   TestID
	Errors   []error
	Duration time.Duration
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Passed counts the leaf scopes that ran without failing. Scopes that have subtests are not counted.
func (r Results) Passed() int {
	failed := make(map[string]bool, len(r.Failures))
	for _, f := range r.Failures {
		failed[f.TestID.Path()] = true
	}
	n := 0
	for _, t := range r.leaves() {
		if !failed[t.TestID.Path()] {
			n++
		}
	}
	return n
}

func (r Results) leaves() []TestResult {
	parents := make(map[string]bool)
	for _, t := range r.Tests {
		if len(t.TestID) > 0 {
			parents[t.TestID[:len(t.TestID)-1].Path()] = true
		}
	}
	var ret []TestResult
	for _, t := range r.Tests {
		if len(t.TestID) > 0 && !parents[t.TestID.Path()] {
			ret = append(ret, t)
		}
	}
	return ret
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}
