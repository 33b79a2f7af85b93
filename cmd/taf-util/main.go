// Command taf-util runs one-off maintenance utilities against the services under test, using
// the same workspace, credentials, and endpoint catalog as the test launcher.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/framework"
	"github.com/apitaf/apitaf/framework/harness"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	environment string
	root        string
	auth        string
	logLevel    string
	timeout     time.Duration
}

var globals globalFlags //nolint:gochecknoglobals

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "taf-util",
		Short:         "Service maintenance utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	pf := root.PersistentFlags()
	pf.StringVarP(&globals.environment, "environment", "e", config.DefaultEnvironment, "environment (local, dev, qa, preprod, prod)")
	pf.StringVar(&globals.root, "root", ".", "workspace directory")
	pf.StringVar(&globals.auth, "auth", "", "credential store location (default file:config/auth.json)")
	pf.StringVarP(&globals.logLevel, "log_level", "l", "INFO", "log level")
	pf.DurationVar(&globals.timeout, "timeout", 60*time.Second, "timeout for each endpoint call")

	root.AddCommand(
		deleteAllCompanyTasksCmd(),
		nachaTokenizeCmd(),
		nachaDetokenizeCmd(),
		kafkaProducerCmd(),
		updateAuthCmd(),
	)
	return root
}

// traced prints START and END banners around a utility.
func traced(text string, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		headline(cmd.OutOrStdout(), "START "+text)
		err := run(cmd, args)
		headline(cmd.OutOrStdout(), "END "+text)
		return err
	}
}

func headline(w io.Writer, text string) {
	line := strings.Repeat("=", len(text)+8)
	fmt.Fprintf(w, "%s\n=== %s ===\n%s\n", line, text, line)
}

// commandArgs turns the global flags plus utility-specific values into command args. The
// utility values become the highest-precedence path arguments.
func commandArgs(values map[string]string) config.CommandArgs {
	all := map[string]string{config.KeyEnvironment: globals.environment, config.KeyLogLevel: globals.logLevel}
	for k, v := range values {
		if v != "" {
			all[k] = v
		}
	}
	return config.NewCommandArgs(all)
}

func logger() framework.Logger {
	level, err := framework.ParseLevel(globals.logLevel)
	if err != nil {
		level = framework.LevelInfo
	}
	return framework.DiagnosticLogger(os.Stderr, level)
}

// openHarness wires the workspace and checks that credentials are present.
func openHarness(ctx context.Context, args config.CommandArgs) (*harness.Harness, error) {
	h, err := harness.New(ctx, harness.Options{
		Root:               globals.root,
		AuthLocation:       globals.auth,
		Args:               args,
		Timeout:            globals.timeout,
		InsecureSkipVerify: true,
		Logger:             logger(),
	})
	if err != nil {
		return nil, err
	}
	if err := h.VerifyCredentials(ctx); err != nil {
		return nil, err
	}
	return h, nil
}
