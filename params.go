package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/framework/taftest"
)

// searchFlag is a string flag that may also be given bare, meaning "*".
type searchFlag struct {
	value string
	set   bool
}

func (s *searchFlag) String() string   { return s.value }
func (s *searchFlag) IsBoolFlag() bool { return true }

func (s *searchFlag) Set(value string) error {
	s.set = true
	if value == "true" {
		value = "*"
	}
	s.value = value
	return nil
}

type commandParams struct {
	environment        string
	suites             string
	addTests           string
	testSearch         searchFlag
	testData           string
	logLevel           string
	root               string
	auth               string
	filters            taftest.RegexFilters
	skipFile           string
	recordFailures     string
	jUnitFile          string
	pushGateway        string
	debug              bool
	debugAll           bool
	timeout            time.Duration
	waitTimeout        time.Duration
	insecureSkipVerify bool
	extraArgs          map[string]string
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	for _, name := range []string{"e", "environment"} {
		fs.StringVar(&c.environment, name, config.DefaultEnvironment, "environment (default dev)")
	}
	for _, name := range []string{"s", "suite"} {
		fs.StringVar(&c.suites, name, "", "single or multiple comma separated test suites")
	}
	for _, name := range []string{"a", "add_tests"} {
		fs.StringVar(&c.addTests, name, "", "single or multiple comma separated list of tests")
	}
	for _, name := range []string{"ts", "test_search"} {
		fs.Var(&c.testSearch, name, `search tests by text; given alone, "*" lists all tests`)
	}
	for _, name := range []string{"td", "test_data"} {
		fs.StringVar(&c.testData, name, "", "test data file name or fully qualified file path")
	}
	for _, name := range []string{"l", "log_level"} {
		fs.StringVar(&c.logLevel, name, "INFO", "log level")
	}
	fs.StringVar(&c.root, "root", ".", "workspace directory")
	fs.StringVar(&c.auth, "auth", "", "credential store location (default file:config/auth.json)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-file", "", "file listing tests not to run, one per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the failed tests to the specified file")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.pushGateway, "pushgateway", "", "push run metrics to this Prometheus Pushgateway URL")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.DurationVar(&c.timeout, "timeout", 60*time.Second, "timeout for each endpoint call")
	fs.DurationVar(&c.waitTimeout, "wait", 0, "wait up to this long for each suite's health endpoint before running")
	fs.BoolVar(&c.insecureSkipVerify, "insecure-skip-verify", true, "do not verify TLS certificates")
	fs.Func("arg", "name=value path argument overriding test data (repeatable)", func(s string) error {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return fmt.Errorf("expected name=value, got %q", s)
		}
		if c.extraArgs == nil {
			c.extraArgs = map[string]string{}
		}
		c.extraArgs[name] = value
		return nil
	})

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	// "-ts term" leaves the term as the first positional argument, and parsing stops there
	rest := fs.Args()
	if c.testSearch.set && c.testSearch.value == "*" && len(rest) > 0 {
		c.testSearch.value, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v (put flags before the -ts search term)\n", rest)
		fs.Usage()
		return false
	}
	return true
}

// CommandArgs returns the values the resolution engine consumes.
func (c *commandParams) CommandArgs() config.CommandArgs {
	values := map[string]string{}
	for k, v := range c.extraArgs {
		values[k] = v
	}
	values[config.KeyEnvironment] = c.environment
	values[config.KeyLogLevel] = c.logLevel
	if c.suites != "" {
		values[config.KeySuite] = c.suites
	}
	if c.addTests != "" {
		values[config.KeyAddTests] = c.addTests
	}
	if c.testSearch.set {
		values[config.KeyTestSearch] = c.testSearch.value
	}
	if c.testData != "" {
		values[config.KeyTestData] = c.testData
	}
	return config.NewCommandArgs(values)
}
