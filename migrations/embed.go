// Package migrations embeds the SQL schema so the binaries can migrate
// without the files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
