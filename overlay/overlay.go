// Package overlay resolves per-test data files into environment-specific overlays that override
// suite defaults for a single test.
package overlay

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/apitaf/apitaf/merge"
)

// Section names within an overlay document.
const (
	SectionArgs             = "args"
	SectionParams           = "params"
	SectionHeaders          = "headers"
	SectionData             = "data"
	SectionJSON             = "json"
	SectionExpectedResponse = "expected_response"
	SectionAddHeaders       = "add_headers"
)

// ErrNoTestData is returned by ExpectedResponse when no overlay content was supplied at all.
var ErrNoTestData = errors.New("test data is missing, pass valid test data")

// Overlay is a test-data document with its environment section already folded into the top
// level. An Overlay is immutable; the With methods return modified copies.
//
// The zero value and nil are both valid empty overlays.
type Overlay struct {
	doc map[string]interface{}
	env string
}

// Payload is the request body resolved from an overlay. At most one of Data and JSON is set.
// Data is either a map of form fields or a string holding a JSON-serialized value.
type Payload struct {
	Data interface{}
	JSON interface{}
}

// New folds the environment section of doc into its top level. The section is read from both
// doc[env] and doc[upper(env)], the latter taking precedence. For each key in the section, a
// map value is merged into the top-level map of the same name; any other value, including an
// explicit null, replaces it.
//
// doc is not modified.
func New(doc map[string]interface{}, env string) *Overlay {
	folded := merge.Clone(doc)
	if folded == nil {
		folded = map[string]interface{}{}
	}
	o := &Overlay{doc: folded, env: env}
	for k, v := range o.envSection() {
		if v == nil {
			o.doc[k] = nil
			continue
		}
		o.doc[k] = merge.Values(o.doc[k], v)
	}
	return o
}

// Environment returns the environment the overlay was folded for.
func (o *Overlay) Environment() string {
	if o == nil {
		return ""
	}
	return o.env
}

// IsEmpty is true if the overlay has no content.
func (o *Overlay) IsEmpty() bool {
	return o == nil || len(o.doc) == 0
}

// Raw returns a copy of the whole folded document, including the original environment sections.
func (o *Overlay) Raw() map[string]interface{} {
	if o == nil {
		return map[string]interface{}{}
	}
	return merge.Clone(o.doc)
}

// Get returns a copy of one top-level value.
func (o *Overlay) Get(key string) interface{} {
	if o == nil {
		return nil
	}
	return merge.Values(nil, o.doc[key])
}

// Map returns a top-level section as a map, merged with the same section of the environment
// view. Non-map sections yield an empty map.
func (o *Overlay) Map(section string) map[string]interface{} {
	if o == nil {
		return map[string]interface{}{}
	}
	base, _ := merge.AsMap(o.doc[section])
	env, _ := merge.AsMap(o.envSection()[section])
	return merge.Maps(base, env)
}

// Args returns the path arguments.
func (o *Overlay) Args() map[string]interface{} { return o.Map(SectionArgs) }

// Params returns the query parameters.
func (o *Overlay) Params() map[string]interface{} { return o.Map(SectionParams) }

// Headers returns the request headers.
func (o *Overlay) Headers() map[string]interface{} { return o.Map(SectionHeaders) }

// AddHeaders returns headers that the caller asked to add on top of the other header layers.
func (o *Overlay) AddHeaders() map[string]interface{} { return o.Map(SectionAddHeaders) }

// Payload resolves the data and json sections.
//
// For data: if the base value is a map it is merged with a map environment value. Otherwise a
// non-empty environment value, or else a non-empty base value, is serialized to a JSON string.
// For json: if the base value is a map it is merged with a map environment value, otherwise a
// non-empty environment value wins over the base value.
//
// If both resolve to non-empty values, JSON is kept and Data is dropped.
func (o *Overlay) Payload() (Payload, error) {
	if o == nil {
		return Payload{}, nil
	}
	env := o.envSection()
	var p Payload

	baseData, envData := o.doc[SectionData], env[SectionData]
	if bm, ok := merge.AsMap(baseData); ok {
		if em, ok := merge.AsMap(envData); ok {
			p.Data = merge.Maps(bm, em)
		} else {
			p.Data = merge.Clone(bm)
		}
	} else {
		chosen := baseData
		if !IsEmptyValue(envData) {
			chosen = envData
		}
		if !IsEmptyValue(chosen) {
			s, err := json.Marshal(chosen)
			if err != nil {
				return Payload{}, fmt.Errorf("cannot serialize data section: %w", err)
			}
			p.Data = string(s)
		}
	}

	baseJSON, envJSON := o.doc[SectionJSON], env[SectionJSON]
	if bm, ok := merge.AsMap(baseJSON); ok {
		if em, ok := merge.AsMap(envJSON); ok {
			p.JSON = merge.Maps(bm, em)
		} else {
			p.JSON = merge.Clone(bm)
		}
	} else if !IsEmptyValue(envJSON) {
		p.JSON = merge.Values(nil, envJSON)
	} else {
		p.JSON = merge.Values(nil, baseJSON)
	}

	if IsEmptyValue(p.JSON) {
		p.JSON = nil
	}
	if IsEmptyValue(p.Data) {
		p.Data = nil
	}
	if p.JSON != nil && p.Data != nil {
		p.Data = nil
	}
	return p, nil
}

// With returns a copy in which the top-level key is replaced by value. The key is also removed
// from the environment sections so that the new value is not overridden again.
func (o *Overlay) With(key string, value interface{}) *Overlay {
	c := &Overlay{doc: o.Raw(), env: o.Environment()}
	c.doc[key] = merge.Values(nil, value)
	for _, ek := range c.envKeys() {
		if m, ok := merge.AsMap(c.doc[ek]); ok {
			delete(m, key)
			c.doc[ek] = m
		}
	}
	return c
}

// WithArg returns a copy with one path argument set.
func (o *Overlay) WithArg(name string, value interface{}) *Overlay {
	args := o.Args()
	args[name] = value
	return o.With(SectionArgs, args)
}

// WithJSON returns a copy whose json section is value and whose data section is cleared.
func (o *Overlay) WithJSON(value interface{}) *Overlay {
	return o.With(SectionJSON, value).With(SectionData, nil)
}

// WithData returns a copy whose data section is value and whose json section is cleared.
func (o *Overlay) WithData(value interface{}) *Overlay {
	return o.With(SectionData, value).With(SectionJSON, nil)
}

// WithAddHeaders returns a copy that will add the given headers after the other header layers.
func (o *Overlay) WithAddHeaders(headers map[string]interface{}) *Overlay {
	return o.With(SectionAddHeaders, headers)
}

// ExpectedResponse is the method form of the package-level ExpectedResponse, using the
// overlay's own environment.
func (o *Overlay) ExpectedResponse(key string) (interface{}, error) {
	return ExpectedResponse(key, o.Environment(), o)
}

// ExpectedResponse looks up expected_response[key] at the top level and in the environment
// section of o. Two maps are merged, environment winning; otherwise the non-empty environment
// value wins over the non-empty top-level value. The result is nil if neither is present.
//
// It returns ErrNoTestData if o has no content at all.
func ExpectedResponse(key, env string, o *Overlay) (interface{}, error) {
	if o.IsEmpty() {
		return nil, ErrNoTestData
	}
	common := lookup(o.doc, SectionExpectedResponse, key)
	envRes := lookup(sectionFor(o.doc, env), SectionExpectedResponse, key)
	cm, commonIsMap := merge.AsMap(common)
	em, envIsMap := merge.AsMap(envRes)
	switch {
	case commonIsMap && envIsMap:
		return merge.Maps(cm, em), nil
	case !IsEmptyValue(envRes):
		return merge.Values(nil, envRes), nil
	case !IsEmptyValue(common):
		return merge.Values(nil, common), nil
	default:
		return nil, nil
	}
}

func (o *Overlay) envKeys() []string {
	if o.env == "" {
		return nil
	}
	upper := strings.ToUpper(o.env)
	if upper == o.env {
		return []string{o.env}
	}
	return []string{o.env, upper}
}

func (o *Overlay) envSection() map[string]interface{} {
	if o == nil {
		return map[string]interface{}{}
	}
	return sectionFor(o.doc, o.env)
}

func sectionFor(doc map[string]interface{}, env string) map[string]interface{} {
	ret := map[string]interface{}{}
	if env == "" {
		return ret
	}
	for _, k := range []string{env, strings.ToUpper(env)} {
		if m, ok := merge.AsMap(doc[k]); ok {
			for sk, sv := range m {
				ret[sk] = sv
			}
		}
	}
	return ret
}

func lookup(doc map[string]interface{}, section, key string) interface{} {
	m, ok := merge.AsMap(doc[section])
	if !ok {
		return nil
	}
	return m[key]
}

// IsEmptyValue reports whether a decoded value counts as absent: nil, false, zero, or an empty
// string, map, or slice.
func IsEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.String, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
