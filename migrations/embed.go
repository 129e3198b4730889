package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS

// For returns the migrations for a database driver
func For(driver string) (fs.FS, error) {
	switch driver {
	case "sqlite", "postgres":
		return fs.Sub(Files, driver)
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}
