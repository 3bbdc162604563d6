// Package password hashes and verifies passwords with Argon2id and checks new
// passwords against a strength [Policy].
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters than the
// live configuration so the caller can re-hash after a successful login.
// [Argon2.DecoyHash] gives callers a hash to verify against when the account
// does not exist, keeping both login paths equally expensive.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords.
package password
