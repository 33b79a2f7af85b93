// Package framework contains infrastructure shared by the launcher, the utilities, and the
// service test modules. The base package holds the Logger abstraction; the runner that executes
// test plans is in the subpackage taftest.
//
// The general model is:
//
// 1. Configuration for a run is resolved once from the workspace (endpoint catalog, run suites,
// per-environment defaults) and is read-only afterwards.
//
// 2. Test modules register themselves in a taftest.Registry. A plan selects module/class/method
// triples from the registry and hands them to taftest.Run.
//
// 3. Each test scope has its own captured debug output, which the console and JUnit loggers
// print or store depending on command-line options.
package framework
