package config

import "path"

// Layout names the directories and files of a test workspace, relative to its root.
type Layout struct {
	ConfigDir      string
	SuiteDir       string
	TestDataDir    string
	DefaultDataDir string
	// CatalogFile lists the suite names in the endpoint catalog.
	CatalogFile string
	AuthFile    string
}

// DefaultLayout is the conventional workspace layout.
func DefaultLayout() Layout {
	return Layout{
		ConfigDir:      "config",
		SuiteDir:       "suite",
		TestDataDir:    "test_data",
		DefaultDataDir: "test_data/default",
		CatalogFile:    "config/resource_config.json",
		AuthFile:       "config/auth.json",
	}
}

// SuiteDefinitionFile is the catalog file for one suite, e.g. config/company_tasks_svc.json.
func (l Layout) SuiteDefinitionFile(suiteName string) string {
	return path.Join(l.ConfigDir, withExtension(suiteName))
}

// RunSuiteFile is the file holding the run_tests list of a named run suite.
func (l Layout) RunSuiteFile(name string) string {
	return path.Join(l.SuiteDir, withExtension(name))
}

// TestDataFile is a test-data overlay file.
func (l Layout) TestDataFile(name string) string {
	return path.Join(l.TestDataDir, name)
}

// DefaultDataStem is the base name, without extension, of the per-environment defaults for a suite.
func DefaultDataStem(suiteName, environment string) string {
	return suiteName + "_" + environment
}

func withExtension(name string) string {
	if path.Ext(name) == "" {
		return name + ".json"
	}
	return name
}
