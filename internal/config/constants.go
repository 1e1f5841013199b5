package config

const (
	// DefaultDatabasePath is the default path for the document store and run history
	DefaultDatabasePath = "./docconv.db"

	// DefaultOutputDir is where JSON collections are written
	DefaultOutputDir = "./output"
)
