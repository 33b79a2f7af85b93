package taftest

import (
	"errors"
	"testing"

	"github.com/apitaf/apitaf/framework/taftest/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStacktrace(t *testing.T) {
	_ = Run(TestConfiguration{}, func(tt *T) {
		tt.Run("without filtering", func(tt *T) {
			stack := getStacktrace(true, nil)
			assert.Greater(t, len(stack), 1)
			assert.Equal(t, thisPackage(), stack[0].Package)
			assert.Contains(t, stack[0].Function, "TestStacktrace.")
			assert.Equal(t, thisPackage(), stack[1].Package)
			assert.Equal(t, "(*T).run", stack[1].Function)
		})

		tt.Run("auto-filtering removes runner methods", func(tt *T) {
			internal.RunAction(func() {
				stack := getStacktrace(false, nil)
				require.Len(t, stack, 1)
				assert.Equal(t, thisPackage()+"/internal", stack[0].Package)
				assert.Equal(t, "RunAction", stack[0].Function)
			})
		})

		tt.Run("filter out designated helpers", func(tt *T) {
			helperFunc1(func() {
				helperFunc2(func() {
					stack := getStacktrace(true, []string{thisPackage() + ".helperFunc2"})
					foundFunc1 := false
					for _, s := range stack {
						if s.Package == thisPackage() && s.Function == "helperFunc1" {
							foundFunc1 = true
						} else if s.Package == thisPackage() && s.Function == "helperFunc2" {
							require.Fail(t, "helperFunc2 should not have been in stacktrace", "stacktrace: %+v", stack)
						}
					}
					assert.True(t, foundFunc1, "helperFunc1 should have been in stacktrace but wasn't")
				})
			})
		})
	})
}

func TestTransformErrorStripsTestifyTrace(t *testing.T) {
	err := transformError(errors.New("\n\tError Trace:\tfoo.go:12\n\tError:      \tNot equal: 1 != 2"), nil)
	assert.Equal(t, "Not equal: 1 != 2", err.Error())
}

func TestDescribeIncludesStacktrace(t *testing.T) {
	err := ErrorWithStacktrace{
		Message:    "bad status",
		Stacktrace: []StacktraceInfo{{FileName: "x.go", Package: modulePath() + "/svctests/kyc", Function: "define.func1", Line: 7}},
	}
	assert.Equal(t, "bad status\n  Stacktrace:\n    svctests/kyc.define.func1 (x.go:7)", Describe(err))
	assert.Equal(t, "plain", Describe(errors.New("plain")))
}

func TestModulePath(t *testing.T) {
	assert.Equal(t, "github.com/apitaf/apitaf", modulePath())
}

func helperFunc1(action func()) {
	action()
}

func helperFunc2(action func()) {
	action()
}
