package session

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
)

func TestWithoutPath(t *testing.T) {
	v := ldvalue.Parse([]byte(`{"status":"UP","details":{"diskSpace":{"status":"UP","details":{"free":1}},"mongo":{"status":"UP"}}}`))

	out := WithoutPath(v, "details", "diskSpace", "details")
	m.In(t).Assert(out.JSONString(), m.JSONStrEqual(
		`{"status":"UP","details":{"diskSpace":{"status":"UP"},"mongo":{"status":"UP"}}}`))

	assert.True(t, v.Equal(WithoutPath(v, "nope", "x")))
	assert.True(t, v.Equal(WithoutPath(v)))
	assert.Equal(t, ldvalue.String("x"), WithoutPath(ldvalue.String("x"), "a"))
}

func TestEachItemAndSlice(t *testing.T) {
	list := ldvalue.Parse([]byte(`[{"id":"1","trackingData":{}},{"id":"2","trackingData":{}},{"id":"3"}]`))
	stripped := EachItem(list, func(v ldvalue.Value) ldvalue.Value { return WithoutPath(v, "trackingData") })
	m.In(t).Assert(stripped.JSONString(), m.JSONStrEqual(`[{"id":"1"},{"id":"2"},{"id":"3"}]`))

	assert.Equal(t, `[{"id":"2"},{"id":"3"}]`, Slice(stripped, 1, 10).JSONString())
	assert.Equal(t, `[]`, Slice(stripped, 5, 10).JSONString())
	assert.Equal(t, ldvalue.Null(), EachItem(ldvalue.Null(), nil))
}
