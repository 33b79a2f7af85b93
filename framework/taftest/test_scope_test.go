package taftest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestScopeInheritsContext(t *testing.T) {
	myContextValue := "hi"
	_ = Run(TestConfiguration{Context: myContextValue}, func(tt *T) {
		assert.Equal(t, myContextValue, tt.Context())

		tt.Run("subtest", func(tt1 *T) {
			assert.Equal(t, myContextValue, tt1.Context())
		})
	})
}

func TestTestScopeWithContext(t *testing.T) {
	_ = Run(TestConfiguration{Context: "a"}, func(tt *T) {
		tt.WithContext("b").Run("subtest", func(tt1 *T) {
			assert.Equal(t, "b", tt1.Context())
		})
		assert.Equal(t, "a", tt.Context())
	})
}

func TestTestScopeExitsImmediatelyOnFailNow(t *testing.T) {
	executed1 := false
	executed2 := false
	executed3 := false
	_ = Run(TestConfiguration{}, func(tt *T) {
		tt.Run("", func(tt *T) {
			executed1 = true
			tt.FailNow()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestTestScopeExitsImmediatelyOnSkip(t *testing.T) {
	executed1 := false
	executed2 := false
	executed3 := false
	_ = Run(TestConfiguration{}, func(tt *T) {
		tt.Run("", func(tt *T) {
			executed1 = true
			tt.Skip()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestTestScopePassedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(tt *T) {
		tt.Run("parent", func(tt0 *T) {
			tt0.Run("subtest1", func(tt1 *T) {})
			tt0.Run("subtest2", func(tt2 *T) {})
		})
	})

	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 0)
	assert.Equal(t, 2, result.Passed())

	assert.Equal(t, TestID{"parent", "subtest1"}, result.Tests[0].TestID)
	assert.Equal(t, TestID{"parent", "subtest2"}, result.Tests[1].TestID)
	assert.Equal(t, TestID{"parent"}, result.Tests[2].TestID)
	assert.Nil(t, result.Tests[3].TestID)
	for _, r := range result.Tests {
		assert.Len(t, r.Errors, 0)
	}
}

func TestTestScopeFailedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(tt *T) {
		tt.Run("parent", func(tt0 *T) {
			tt0.Run("subtest1", func(tt1 *T) {})
			tt0.Run("subtest2", func(tt2 *T) {
				tt2.Errorf("failed because %s", "reasons")
				tt2.Errorf("and failed some more")
			})
			tt0.Errorf("and parent failed")
		})
	})

	assert.False(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 2)
	assert.Equal(t, 1, result.Passed())

	assert.Equal(t, TestID{"parent", "subtest2"}, result.Tests[1].TestID)
	require.Len(t, result.Tests[1].Errors, 2)
	assert.Equal(t, "failed because reasons", result.Tests[1].Errors[0].Error())
	assert.Equal(t, "and failed some more", result.Tests[1].Errors[1].Error())

	assert.Equal(t, TestID{"parent"}, result.Tests[2].TestID)
	require.Len(t, result.Tests[2].Errors, 1)
	assert.Equal(t, "and parent failed", result.Tests[2].Errors[0].Error())
}

func TestTestScopeSkippedResult(t *testing.T) {
	var skipped []string
	logger := &recordingTestLogger{onSkipped: func(id TestID, reason string) {
		skipped = append(skipped, id.Path()+":"+reason)
	}}
	result := Run(TestConfiguration{TestLogger: logger}, func(tt *T) {
		tt.Run("parent", func(tt0 *T) {
			tt0.Run("subtest1", func(tt1 *T) {
				tt1.Skip()
			})
			tt0.Run("subtest2", func(tt2 *T) {
				tt2.SkipWithReason("why not")
			})
		})
	})

	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 2)
	assert.Len(t, result.Skipped, 2)
	assert.Equal(t, []string{"parent/subtest1:", "parent/subtest2:why not"}, skipped)
}

func TestTestScopeFilter(t *testing.T) {
	filter := func(id TestID) bool {
		return len(id) == 0 || id[0] == "b"
	}

	result := Run(TestConfiguration{Filter: filter}, func(tt *T) {
		tt.Run("a", func(tt0 *T) {
			tt0.Run("sub1a", func(tt1 *T) {})
			tt0.Run("sub2a", func(tt1 *T) {})
		})
		tt.Run("b", func(tt0 *T) {
			tt0.Run("sub1b", func(tt1 *T) {})
			tt0.Run("sub2b", func(tt1 *T) {})
		})
	})

	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Equal(t, TestID{"b", "sub1b"}, result.Tests[0].TestID)
	assert.Equal(t, TestID{"b", "sub2b"}, result.Tests[1].TestID)
	assert.Equal(t, TestID{"b"}, result.Tests[2].TestID)
	assert.Equal(t, TestID(nil), result.Tests[3].TestID)
}

func TestTestScopeUnexpectedPanicFailsTest(t *testing.T) {
	result := Run(TestConfiguration{}, func(tt *T) {
		tt.Run("x", func(tt1 *T) {
			panic(errors.New("boom"))
		})
	})
	require.Len(t, result.Failures, 1)
	assert.Equal(t, TestID{"x"}, result.Failures[0].TestID)
	assert.Contains(t, result.Failures[0].Errors[0].Error(), "unexpected panic in test: boom")
}

func TestTestScopeDeferredCleanupsRunInReverseOrder(t *testing.T) {
	var calls []string
	result := Run(TestConfiguration{}, func(tt *T) {
		tt.Run("x", func(tt1 *T) {
			tt1.Defer(func() { calls = append(calls, "first") })
			tt1.Defer(func() { calls = append(calls, "second") })
			tt1.FailNow()
		})
	})
	assert.Equal(t, []string{"second", "first"}, calls)
	assert.False(t, result.OK())
}

func TestTestScopeFailingCleanupFailsTest(t *testing.T) {
	result := Run(TestConfiguration{}, func(tt *T) {
		tt.Run("x", func(tt1 *T) {
			tt1.Defer(func() {
				tt1.Errorf("cleanup failed")
				tt1.FailNow()
			})
		})
	})
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "cleanup failed", result.Failures[0].Errors[0].Error())
}

func TestTestScopeDebugOutputIsPassedToLogger(t *testing.T) {
	var output []string
	logger := &recordingTestLogger{onFinished: func(id TestID, _ TestResult, out []string) {
		output = append(output, id.Path()+"="+joinLines(out))
	}}
	_ = Run(TestConfiguration{TestLogger: logger}, func(tt *T) {
		tt.Run("parent", func(tt0 *T) {
			tt0.Debug("before")
			tt0.Run("child", func(tt1 *T) {
				tt0.Debug("routed to child")
				tt1.Debug("own")
			})
		})
	})
	assert.Equal(t, []string{
		"parent/child=before|routed to child|own",
		"parent=before",
	}, output)
}
