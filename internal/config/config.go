// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Store backend selectors.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the regatta store: memory or sqlite.
	StoreBackend string `koanf:"store_backend"`

	// SQLitePath locates the sqlite database file when store_backend=sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// SeedDemo loads a demonstration regatta into the store at startup.
	SeedDemo bool `koanf:"seed_demo"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		StoreBackend: StoreMemory,
		SQLitePath:   "regatta.db",
		SeedDemo:     false,
	}
}
