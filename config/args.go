// Package config holds the already-parsed command-line surface and the workspace layout.
package config

import (
	"sort"
	"strings"
)

// Keys consumed by the resolution engine.
const (
	KeyEnvironment = "environment"
	KeySuite       = "suite"
	KeyAddTests    = "add_tests"
	KeyTestSearch  = "test_search"
	KeyTestData    = "test_data"
	KeyLogLevel    = "log_level"
)

// DefaultEnvironment is used when no environment is given.
const DefaultEnvironment = "dev"

// CommandArgs is a set of parsed command-line values. Keys other than the well-known ones are
// also used as the highest-precedence layer of path arguments when building requests.
//
// CommandArgs values should be treated as immutable once constructed; use With to derive a
// modified copy.
type CommandArgs map[string]string

// NewCommandArgs copies values and normalizes the environment.
func NewCommandArgs(values map[string]string) CommandArgs {
	ret := make(CommandArgs, len(values)+1)
	for k, v := range values {
		ret[k] = v
	}
	ret[KeyEnvironment] = NormalizeEnvironment(ret[KeyEnvironment])
	return ret
}

// With returns a copy with one value replaced.
func (a CommandArgs) With(key, value string) CommandArgs {
	ret := make(map[string]string, len(a)+1)
	for k, v := range a {
		ret[k] = v
	}
	ret[key] = value
	return NewCommandArgs(ret)
}

// Environment returns the normalized environment name.
func (a CommandArgs) Environment() string {
	return NormalizeEnvironment(a[KeyEnvironment])
}

// Suites returns the requested run suite names in order. An empty result means no suite filter.
func (a CommandArgs) Suites() []string { return SplitList(a[KeySuite]) }

// AddTests returns the explicitly requested fully qualified test names.
func (a CommandArgs) AddTests() []string { return SplitList(a[KeyAddTests]) }

// TestSearch returns the search term and whether search mode was requested.
func (a CommandArgs) TestSearch() (string, bool) {
	term, ok := a[KeyTestSearch]
	return term, ok
}

// TestData returns the test data override, or "" if there is none.
func (a CommandArgs) TestData() string { return a[KeyTestData] }

// Values returns a copy as a generic map, suitable for use as a merge layer.
func (a CommandArgs) Values() map[string]interface{} {
	ret := make(map[string]interface{}, len(a))
	for k, v := range a {
		ret[k] = v
	}
	return ret
}

// Key is a canonical encoding of the argument tuple. Two CommandArgs have the same Key if and
// only if they hold the same values after normalization.
func (a CommandArgs) Key() string {
	n := NewCommandArgs(a)
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(escapeKeyPart(k))
		b.WriteByte('=')
		b.WriteString(escapeKeyPart(n[k]))
		b.WriteByte('\x00')
	}
	return b.String()
}

// NormalizeEnvironment strips "+", lower-cases, and maps the bare name "n" to "n0". An empty
// name becomes DefaultEnvironment.
func NormalizeEnvironment(env string) string {
	e := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(env, "+", "")))
	switch e {
	case "":
		return DefaultEnvironment
	case "n":
		return "n0"
	default:
		return e
	}
}

// SplitList splits a comma-separated value, trimming spaces and dropping empty items.
func SplitList(s string) []string {
	var ret []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}

func escapeKeyPart(s string) string {
	return strings.NewReplacer("\\", "\\\\", "=", "\\=", "\x00", "\\0").Replace(s)
}
