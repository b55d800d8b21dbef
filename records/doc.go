// Package records defines the Record Store collaborator: account and section
// persistence addressed only through structured equality filters.
//
// Two implementations ship with the package. [MemoryStore] is a mutex-guarded
// in-process store used by tests and demos. [PostgresStore] runs parameterized
// queries over a pgx pool; its schema is managed by embedded goose migrations
// applied with [Migrate].
//
// # What this package must NOT do
//
//   - Build SQL from caller-supplied strings; every value travels as a parameter.
//   - Hash passwords or mint sessions.
//   - Import blogauth (no upward imports).
package records
