// Package migrations registers every schema migration. Importing it for side
// effects is enough: cmd/perennia and the test harness both do.
package migrations
