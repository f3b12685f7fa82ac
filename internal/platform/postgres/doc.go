// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package, along with the
// embedded goose migrations that create their schema.
//
// Task listings are rendered by a small query builder that only ever emits
// column names from a fixed allow-list; all client-supplied values travel as
// bind parameters.
package postgres
