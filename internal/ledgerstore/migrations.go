package ledgerstore

import "embed"

// migrationFiles embeds the ledgerstore schema migrations so the binary
// carries them rather than depending on a path relative to the working
// directory, matching golang-migrate's recommended iofs source for
// embedded migrations.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS
