// Package harness wires a workspace into the components a test run or a utility needs: the
// data loader, the suite and test-data resolvers, the credential store, the HTTP transport, and
// the request builder.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/credentials"
	"github.com/apitaf/apitaf/data"
	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/framework"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/request"
	"github.com/apitaf/apitaf/session"
	"github.com/apitaf/apitaf/suite"
	"github.com/apitaf/apitaf/transport"
)

// HealthEndpoint is the endpoint key polled by WaitForSuites.
const HealthEndpoint = "health"

// Options configures New.
type Options struct {
	// Root is the workspace directory. Empty means the current directory.
	Root string
	// AuthLocation is a credentials.Open location. Empty means the layout's auth file.
	AuthLocation string
	// Args are the run's command args. Their environment selects the default data.
	Args config.CommandArgs

	Timeout            time.Duration
	InsecureSkipVerify bool

	// Logger receives resolver and transport diagnostics.
	Logger framework.Logger
	// Sender replaces the HTTP transport, mainly for tests.
	Sender endpoint.Sender
}

// Harness holds the wired components for one workspace.
type Harness struct {
	Args        config.CommandArgs
	Layout      config.Layout
	Loader      *data.Loader
	Configs     *suite.Resolver
	TestData    *overlay.Resolver
	Credentials *credentials.Provider
	Store       credentials.Store
	Builder     *request.Builder

	logger framework.Logger
}

// New wires a workspace. It does not read any workspace file yet; resolution happens on demand.
func New(ctx context.Context, opts Options) (*Harness, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	logger := framework.OrNull(opts.Logger)
	layout := config.DefaultLayout()
	args := opts.Args
	if args == nil {
		args = config.NewCommandArgs(nil)
	}

	loader := data.NewLoader(os.DirFS(root))
	if strings.HasPrefix(args.TestData(), "s3://") {
		s3Source, err := data.NewS3Source(ctx, data.S3OptionsFromEnvironment())
		if err != nil {
			return nil, err
		}
		loader.External = data.SchemeSource{Local: data.LocalSource{}, S3: s3Source}
	}

	authLocation := opts.AuthLocation
	if authLocation == "" {
		authLocation = "file:" + layout.AuthFile
	}
	store, err := credentials.Open(ctx, authLocation, root)
	if err != nil {
		return nil, err
	}
	logger.Printf("Using credential store %s", store.Location())

	sender := opts.Sender
	if sender == nil {
		client, err := transport.NewClient(
			transport.WithTimeout(opts.Timeout),
			transport.WithInsecureSkipVerify(opts.InsecureSkipVerify),
			transport.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		sender = client
	}

	configs := suite.NewResolver(loader, layout, args, logger)
	provider := credentials.NewProvider(store, logger)
	return &Harness{
		Args:        args,
		Layout:      layout,
		Loader:      loader,
		Configs:     configs,
		TestData:    overlay.NewResolver(loader, layout, logger),
		Credentials: provider,
		Store:       store,
		Builder:     request.NewBuilder(configs, provider, sender, logger),
		logger:      logger,
	}, nil
}

// VerifyCredentials loads the credentials now, so that a missing store stops the run before any
// test starts.
func (h *Harness) VerifyCredentials(ctx context.Context) error {
	_, err := h.Credentials.AuthHeaders(ctx)
	return err
}

// NewSession creates the session handed to test code.
func (h *Harness) NewSession(ctx context.Context) *session.Session {
	return session.New(ctx, h.Args, h.Configs, h.TestData, h.Builder, h.logger)
}

// WaitForSuites polls the health endpoint of each named suite until it gets any HTTP response or
// the timeout passes. Suites without a health endpoint are not polled.
func (h *Harness) WaitForSuites(ctx context.Context, suites []string, timeout time.Duration, output io.Writer) error {
	cfg, err := h.Configs.Resolve(nil)
	if err != nil {
		return err
	}
	for _, name := range suites {
		ref := endpoint.Ref{Suite: name, Endpoint: HealthEndpoint}
		if _, err := cfg.Endpoint(ref); err != nil {
			continue
		}
		if err := h.waitFor(ctx, ref, timeout, output); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) waitFor(ctx context.Context, ref endpoint.Ref, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to %s", ref.Suite)
	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprint(output, ".")
		resp, err := h.Builder.Call(ctx, ref, request.Options{})
		if err != nil {
			fmt.Fprintln(output)
			return err
		}
		if !resp.Failed() {
			fmt.Fprintf(output, " status %d\n", resp.Status)
			return nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return fmt.Errorf("timed out waiting for %s, result of last query was: %w", ref.Suite, resp.Error)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
