package taftest

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// ErrorWithStacktrace is a test failure annotated with the call sites that led to it, excluding
// frames inside this package and functions marked with T.Helper.
type ErrorWithStacktrace struct {
	Message    string
	Stacktrace []StacktraceInfo
}

type StacktraceInfo struct {
	FileName string
	Package  string
	Function string
	Line     int
}

func (e ErrorWithStacktrace) Error() string { return e.Message }

func (s StacktraceInfo) String() string {
	return fmt.Sprintf("%s.%s (%s:%d)", strings.TrimPrefix(s.Package, modulePath()+"/"), s.Function, s.FileName, s.Line)
}

// Describe formats an error for display, appending its stacktrace if it has one.
func Describe(err error) string {
	var es ErrorWithStacktrace
	if !errors.As(err, &es) {
		return err.Error()
	}
	lines := []string{es.Message, "  Stacktrace:"}
	for _, s := range es.Stacktrace {
		lines = append(lines, "    "+s.String())
	}
	return strings.Join(lines, "\n")
}

// testify prefixes its own "Error Trace:" block; we report our own stacktrace instead.
var testifyTracePrefix = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)

func transformError(err error, stacktrace []StacktraceInfo) error {
	message := err.Error()
	if strings.Contains(message, "Error Trace:") {
		message = strings.TrimSpace(testifyTracePrefix.ReplaceAllLiteralString(message, ""))
	}
	if len(stacktrace) == 0 {
		return errors.New(message)
	}
	return ErrorWithStacktrace{Message: message, Stacktrace: stacktrace}
}

func thisPackage() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return "?"
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "?"
	}
	pkg, _ := splitFunctionName(f.Name())
	return pkg
}

func modulePath() string {
	parts := strings.Split(thisPackage(), "/")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, "/")
}

func getStacktrace(includeRunnerCode bool, helperFns []string) []StacktraceInfo {
	var callers []StacktraceInfo
	self := thisPackage()
	helpers := make(map[string]bool, len(helperFns))
	for _, h := range helperFns {
		helpers[h] = true
	}
	for skip := 1; ; skip++ { // 0 is getStacktrace
		pc, file, line, ok := runtime.Caller(skip)
		if !ok {
			break
		}
		f := runtime.FuncForPC(pc)
		if f == nil {
			break
		}
		pkg, fn := splitFunctionName(f.Name())
		if pkg == self && fn == "Run" {
			break // the top-level Run is the root of every test stack
		}
		if (!includeRunnerCode && pkg == self) || helpers[f.Name()] {
			continue
		}
		callers = append(callers, StacktraceInfo{
			FileName: file[strings.LastIndex(file, "/")+1:],
			Package:  pkg,
			Function: fn,
			Line:     line,
		})
	}
	return callers
}

func splitFunctionName(fullName string) (pkg string, fn string) {
	lastSlash := strings.LastIndex(fullName, "/")
	dot := strings.Index(fullName[lastSlash+1:], ".")
	if dot < 0 {
		return fullName, ""
	}
	pkg = fullName[:lastSlash+1+dot]
	return pkg, fullName[len(pkg)+1:]
}
