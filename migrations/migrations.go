package migrations

import "embed"

// FS holds the postgres schema migrations applied by cmd/migrate and AUTO_MIGRATE.
//
//go:embed postgres/*.sql
var FS embed.FS

const Dir = "postgres"
