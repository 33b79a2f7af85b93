// Package data loads the structured-data files that make up a test workspace: the endpoint
// catalog, run suites, per-environment defaults, test-data overlays, and credentials. Files may
// be JSON or YAML. Files outside the workspace can be read from the local file system or from S3.
package data
