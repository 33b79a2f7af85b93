// Package taftest runs service tests. It is similar to Go's testing package, but runs as regular
// application code: test scopes are created from a plan at run time rather than discovered by
// the go tool, and results are reported through pluggable TestLoggers (console, JUnit XML,
// Prometheus Pushgateway).
//
// Test code is organized the way suite files address it: a Module holds Classes, and a Class
// holds named Methods, with optional per-method SetUp and TearDown. Modules are registered in a
// Registry and defined lazily, the first time something asks for their contents.
package taftest
