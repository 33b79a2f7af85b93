package overlay

import (
	"context"

	"github.com/apitaf/apitaf/config"
	"github.com/apitaf/apitaf/data"
	"github.com/apitaf/apitaf/framework"
)

// Resolver loads test-data files and folds them for an environment.
type Resolver struct {
	loader *data.Loader
	layout config.Layout
	logger framework.Logger
}

func NewResolver(loader *data.Loader, layout config.Layout, logger framework.Logger) *Resolver {
	return &Resolver{loader: loader, layout: layout, logger: framework.OrNull(logger)}
}

// Resolve loads the named test-data file and folds it for args' environment.
//
// If args carries a test_data override, that location replaces fileName. The name must end in a
// recognized data extension. It is looked up under the test-data directory first; if it is not
// there it is treated as an external location (absolute path or s3:// URL). If neither exists
// the result is a ConfigurationError.
func (r *Resolver) Resolve(ctx context.Context, fileName string, args config.CommandArgs) (*Overlay, error) {
	name := fileName
	if override := args.TestData(); override != "" {
		r.logger.Printf("Using test data override %q instead of %q", override, fileName)
		name = override
	}
	if !data.IsDataFile(name) {
		return nil, data.ConfigurationError{Path: name, Reason: "invalid test data file name, provide a JSON or YAML file"}
	}
	doc, err := r.loader.Load(r.layout.TestDataFile(name), data.Optional)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		if doc, err = r.loader.LoadExternal(ctx, name, data.Required); err != nil {
			return nil, err
		}
	}
	return New(doc, args.Environment()), nil
}
