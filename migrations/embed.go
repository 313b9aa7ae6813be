// Package migrations holds the versioned SQL schema of the ledger database.
package migrations

import "embed"

// FS contains every NNNNNN_name.{up,down}.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
