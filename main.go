package main

import (
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/framework"
	"github.com/apitaf/apitaf/framework/harness"
	"github.com/apitaf/apitaf/framework/taftest"
	"github.com/apitaf/apitaf/plan"

	_ "github.com/apitaf/apitaf/svctests/companytasks"
	_ "github.com/apitaf/apitaf/svctests/kyc"
	_ "github.com/apitaf/apitaf/svctests/sfdc"
)

const metricsJob = "taf"

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("apitaf v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	results, err := run(ctx, params)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if results != nil && !results.OK() {
		os.Exit(1)
	}
}

// run returns nil results if nothing was run, as in search mode.
func run(ctx context.Context, params commandParams) (*taftest.Results, error) {
	args := params.CommandArgs()

	if term, ok := args.TestSearch(); ok {
		for _, name := range plan.Search(taftest.DefaultRegistry, term) {
			fmt.Println(name)
		}
		return nil, nil
	}

	level, err := framework.ParseLevel(params.logLevel)
	if err != nil {
		return nil, err
	}
	mainLogger := framework.DiagnosticLogger(os.Stdout, level)
	if params.debugAll {
		mainLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	h, err := harness.New(ctx, harness.Options{
		Root:               params.root,
		AuthLocation:       params.auth,
		Args:               args,
		Timeout:            params.timeout,
		InsecureSkipVerify: params.insecureSkipVerify,
		Logger:             mainLogger,
	})
	if err != nil {
		return nil, err
	}
	if err := h.VerifyCredentials(ctx); err != nil {
		return nil, err
	}

	p, err := buildPlan(h, args, mainLogger)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Running %d tests in environment %s\n", p.Len(), args.Environment())

	if params.waitTimeout > 0 {
		if err := h.WaitForSuites(ctx, suitesOf(p), params.waitTimeout, os.Stdout); err != nil {
			return nil, err
		}
	}

	testLogger := newTestLogger(params, args)
	taftest.PrintFilterDescription(os.Stdout, params.filters)

	results := taftest.Run(
		taftest.TestConfiguration{
			Filter:     params.filters.Match,
			TestLogger: testLogger,
			Context:    h.NewSession(ctx),
		},
		p.Run,
	)

	fmt.Println()
	if err := testLogger.EndLog(results); err != nil {
		return nil, fmt.Errorf("error writing log: %v", err)
	}

	if params.recordFailures != "" {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return nil, fmt.Errorf("cannot create failure record file: %v", err)
		}
		err = taftest.WriteFailures(f, results)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot write failure record file: %v", err)
		}
	}

	return &results, nil
}

// buildPlan selects the tests. Explicitly named tests take priority over the suite files.
func buildPlan(h *harness.Harness, args config.CommandArgs, logger framework.Logger) (*plan.Plan, error) {
	if names := args.AddTests(); len(names) > 0 {
		return plan.FromNames(taftest.DefaultRegistry, names)
	}
	cfg, err := h.Configs.Resolve(args)
	if err != nil {
		return nil, err
	}
	return plan.FromSuite(taftest.DefaultRegistry, cfg.RunTests(), logger), nil
}

func newTestLogger(params commandParams, args config.CommandArgs) taftest.TestLogger {
	loggers := []taftest.TestLogger{
		taftest.ConsoleTestLogger{
			DebugOutputOnFailure: params.debug || params.debugAll,
			DebugOutputOnSuccess: params.debugAll,
		},
	}
	if params.jUnitFile != "" {
		props := map[string]string{"environment": args.Environment()}
		if suites := args.Suites(); len(suites) > 0 {
			props["suite"] = strings.Join(suites, ",")
		}
		loggers = append(loggers, taftest.NewJUnitTestLogger(params.jUnitFile, props, params.filters))
	}
	if params.pushGateway != "" {
		loggers = append(loggers, taftest.NewMetricsTestLogger(params.pushGateway, metricsJob, args.Environment()))
	}
	if len(loggers) == 1 {
		return loggers[0]
	}
	return &taftest.MultiTestLogger{Loggers: loggers}
}

// suitesOf returns the suite names of the planned modules, whose names have the form
// test.<suite>.<...>.
func suitesOf(p *plan.Plan) []string {
	seen := map[string]bool{}
	var ret []string
	for _, e := range p.Entries() {
		parts := strings.Split(e.Module, ".")
		if len(parts) < 2 || seen[parts[1]] {
			continue
		}
		seen[parts[1]] = true
		ret = append(ret, parts[1])
	}
	return ret
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	if err := taftest.LoadSuppressions(file, &params.filters); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
