package data

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Policy says what happens when a file the loader is asked for does not exist.
type Policy int

const (
	// Required files that are missing produce a ConfigurationError.
	Required Policy = iota
	// Optional files that are missing produce a nil map and no error. A file that exists but cannot
	// be parsed is still an error.
	Optional
	// Fatal is like Required, but the ConfigurationError has Fatal set.
	Fatal
)

// Loader reads structured-data files from a workspace. Paths given to Load are slash-separated
// and relative to the root of FS.
type Loader struct {
	FS fs.FS
	// External resolves locations that are not inside FS: absolute paths, s3:// URLs. It may be nil,
	// in which case only FS is used.
	External Source
}

// NewLoader creates a Loader for the given file system, with external locations resolved by
// the local file system.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{FS: fsys, External: LocalSource{}}
}

// Load reads and parses one file, whose top level must be an object.
func (l *Loader) Load(name string, policy Policy) (map[string]interface{}, error) {
	raw, err := fs.ReadFile(l.FS, cleanPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && policy == Optional {
			return nil, nil
		}
		return nil, ConfigurationError{Path: name, Reason: "cannot read file", Err: err, Fatal: policy == Fatal}
	}
	return parseFile(name, raw, policy)
}

// Exists reports whether name is present in FS.
func (l *Loader) Exists(name string) bool {
	_, err := fs.Stat(l.FS, cleanPath(name))
	return err == nil
}

// LoadExternal reads a file from outside the workspace through the External source.
func (l *Loader) LoadExternal(ctx context.Context, location string, policy Policy) (map[string]interface{}, error) {
	if l.External == nil {
		return nil, ConfigurationError{Path: location, Reason: "no external source configured", Fatal: policy == Fatal}
	}
	raw, err := l.External.Read(ctx, location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && policy == Optional {
			return nil, nil
		}
		return nil, ConfigurationError{Path: location, Reason: "cannot read file", Err: err, Fatal: policy == Fatal}
	}
	return parseFile(location, raw, policy)
}

// Find walks dir in lexical order and returns the path of the first data file whose base name,
// minus its extension, equals stem. The boolean result is false if there is none, or if dir
// does not exist.
func (l *Loader) Find(dir, stem string) (string, bool) {
	var found string
	_ = fs.WalkDir(l.FS, cleanPath(dir), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fs.SkipDir
		}
		if d.IsDir() || !IsDataFile(p) {
			return nil
		}
		base := path.Base(p)
		if strings.TrimSuffix(base, path.Ext(base)) == stem {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}

func parseFile(name string, raw []byte, policy Policy) (map[string]interface{}, error) {
	ret, err := ParseMap(raw)
	if err != nil {
		return nil, ConfigurationError{
			Path:   name,
			Reason: fmt.Sprintf("malformed %s", formatName(name)),
			Err:    err,
			Fatal:  policy == Fatal,
		}
	}
	return ret, nil
}

func formatName(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return "YAML"
	default:
		return "JSON"
	}
}

func cleanPath(name string) string {
	p := path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "./"))
	if p == "" {
		return "."
	}
	return p
}
