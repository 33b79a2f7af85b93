package session

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// WithoutPath returns a copy of v with the property at path removed, for dropping fields whose
// values cannot be predicted (timestamps, generated ids). A path that does not exist leaves v
// unchanged. Arrays are not traversed; use EachItem for those.
func WithoutPath(v ldvalue.Value, path ...string) ldvalue.Value {
	if len(path) == 0 || v.Type() != ldvalue.ObjectType {
		return v
	}
	b := ldvalue.ObjectBuildWithCapacity(v.Count())
	for _, k := range v.Keys(nil) {
		child := v.GetByKey(k)
		switch {
		case k != path[0]:
			b.Set(k, child)
		case len(path) > 1:
			b.Set(k, WithoutPath(child, path[1:]...))
		}
	}
	return b.Build()
}

// EachItem applies fn to every element of an array value.
func EachItem(list ldvalue.Value, fn func(ldvalue.Value) ldvalue.Value) ldvalue.Value {
	if list.Type() != ldvalue.ArrayType {
		return list
	}
	b := ldvalue.ArrayBuildWithCapacity(list.Count())
	for i := 0; i < list.Count(); i++ {
		b.Add(fn(list.GetByIndex(i)))
	}
	return b.Build()
}

// Slice returns elements [from, to) of an array value, clamped to its bounds like a Python slice.
func Slice(list ldvalue.Value, from, to int) ldvalue.Value {
	n := list.Count()
	if to > n {
		to = n
	}
	if from > to {
		from = to
	}
	b := ldvalue.ArrayBuild()
	for i := from; i < to; i++ {
		b.Add(list.GetByIndex(i))
	}
	return b.Build()
}
