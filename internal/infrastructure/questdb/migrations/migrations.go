// Package migrations embeds the QuestDB schema of a symbol. Table names are
// templated on ${SYMBOL} and ${BAR_TABLE}.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
