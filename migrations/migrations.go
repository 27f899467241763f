package migrations

import "embed"

// Migration files embedded at compile time so a single binary can
// provision its own schema.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
