// Package userstore persists user accounts.
//
// [MemoryStore] serves tests and single-process deployments. [PostgresStore]
// keeps users in PostgreSQL through database/sql and the pgx driver; its
// schema ships as embedded goose migrations applied by [RunMigrations].
//
// Identities are normalized with [NormalizeIdentity] on every write and
// lookup, so "Alice" and " alice " name the same account.
package userstore
