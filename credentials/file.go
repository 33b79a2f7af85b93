package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apitaf/apitaf/data"
)

const missingCredentialsReason = "authentication config is not available; run the update_auth utility to create it"

// FileStore keeps headers in a JSON or YAML file. A missing file is a fatal ConfigurationError.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) Location() string { return "file:" + f.path }

func (f *FileStore) Load(context.Context) (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, data.ConfigurationError{Path: f.path, Reason: missingCredentialsReason, Err: err, Fatal: true}
	}
	var headers map[string]string
	if err := data.ParseJSONOrYAML(raw, &headers); err != nil {
		return nil, data.ConfigurationError{Path: f.path, Reason: "malformed credentials", Err: err, Fatal: true}
	}
	return headers, nil
}

func (f *FileStore) Save(_ context.Context, headers map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	raw, err := json.MarshalIndent(headers, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, append(raw, '\n'), 0o600)
}
