package auth

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the users-table migration files so embedding
// applications can run them with their own migration tooling.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
