package main

import (
	"os"
	"path/filepath"

	"github.com/mscrnt/mcadecode/pkg/config"
)

// getDBPath returns the path to the mcadecode database file, preferring
// (in order) the MCADECODE_DB_PATH environment variable, the configured
// database.path in ~/.mcadecode/config.toml, and finally the built-in
// default. It creates the database's parent directory if needed.
func getDBPath() string {
	path := os.Getenv("MCADECODE_DB_PATH")
	if path == "" {
		cfg, err := config.Load(config.Path())
		if err != nil || cfg.Database.Path == "" {
			path = config.Default().Database.Path
		} else {
			path = cfg.Database.Path
		}
	}

	if path == "" {
		return "mcadecode.db"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "mcadecode.db"
	}
	return path
}
