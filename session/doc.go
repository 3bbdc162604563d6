// Package session issues and tracks opaque bearer tokens.
//
// A token is 32 random bytes, base64url encoded. Only its SHA-256 is stored,
// as the record key; the public session ID is a short prefix of that hash.
//
// # Lifecycle
//
// A record is ACTIVE from [Service.Issue] until it expires or
// [Service.Revoke] marks it revoked. Neither transition can be undone.
// Revoked records stay in the backend until their expiry so a replayed token
// keeps failing; expired records are deleted on lookup and, for the Redis
// backend, by key TTL.
//
// # Backends
//
// [RedisStore] keeps one string key per record plus a per-user index set.
// Creation and revocation run as Lua scripts, so each is atomic. Records use
// a small versioned binary encoding (see [Encode]).
//
// [MemoryStore] keeps everything behind one mutex and can run a reaper
// goroutine. It suits tests and single-process deployments.
//
// # What this package must NOT do
//
//   - Import authcore or userstore (no upward imports).
//   - Persist or log raw tokens.
//   - Tell callers why a token is not valid.
package session
