// Package postgres provides the PostgreSQL implementations of the record
// stores defined in internal/store and the task store used by the
// background runner. It also owns the embedded goose migrations that
// create the schema.
package postgres
