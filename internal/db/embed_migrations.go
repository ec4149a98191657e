package db

import "embed"

// MigrationFS embeds the numbered SQL migrations (identities, profiles, role profiles, audit logs)
// applied by cmd/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
