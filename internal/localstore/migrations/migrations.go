// Package migrations embeds the on-device schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
