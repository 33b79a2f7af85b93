// Package merge implements the override merge used by every configuration layer.
package merge

import (
	"github.com/mitchellh/copystructure"
)

// Maps returns a new map containing all keys of base and override. Where both sides hold a
// map for the same key the values are merged recursively; otherwise the override's value wins.
// Neither input is modified, and the result shares no nested maps or slices with them.
//
// A nil override yields a copy of base, and a nil base yields a copy of override.
func Maps(base, override map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		ret[k] = clone(v)
	}
	for k, ov := range override {
		bv, exists := ret[k]
		if exists {
			bm, baseIsMap := AsMap(bv)
			om, overrideIsMap := AsMap(ov)
			if baseIsMap && overrideIsMap {
				ret[k] = Maps(bm, om)
				continue
			}
		}
		ret[k] = clone(ov)
	}
	return ret
}

// Values merges two arbitrary values. Two maps are merged as in Maps; in every other case the
// override replaces base entirely, unless override is nil.
func Values(base, override interface{}) interface{} {
	if override == nil {
		return clone(base)
	}
	bm, baseIsMap := AsMap(base)
	om, overrideIsMap := AsMap(override)
	if baseIsMap && overrideIsMap {
		return Maps(bm, om)
	}
	return clone(override)
}

// All merges any number of maps in ascending precedence.
func All(layers ...map[string]interface{}) map[string]interface{} {
	ret := map[string]interface{}{}
	for _, l := range layers {
		ret = Maps(ret, l)
	}
	return ret
}

// AsMap reports whether value is a string-keyed map, converting the map[interface{}]interface{}
// form that some decoders produce.
func AsMap(value interface{}) (map[string]interface{}, bool) {
	switch m := value.(type) {
	case map[string]interface{}:
		return m, true
	case map[string]string:
		ret := make(map[string]interface{}, len(m))
		for k, v := range m {
			ret[k] = v
		}
		return ret, true
	case map[interface{}]interface{}:
		ret := make(map[string]interface{}, len(m))
		for k, v := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			ret[s] = v
		}
		return ret, true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of a map.
func Clone(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	c, _ := clone(m).(map[string]interface{})
	return c
}

func clone(value interface{}) interface{} {
	switch value.(type) {
	case nil, string, bool, float64, int, int64:
		return value
	}
	c, err := copystructure.Copy(value)
	if err != nil {
		// copystructure only fails on types that never come out of a JSON or YAML decoder
		return value
	}
	return c
}
