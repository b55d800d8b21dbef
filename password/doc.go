// Package password implements salted password encoding and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The salt is generated once per account by [Encoder.NewSalt] and stored next
// to the hash. [Encoder.Encode] is deterministic for a given password, salt,
// and parameter set, so verification recomputes and compares in constant time.
// [Encoder.NeedsUpgrade] reports hashes produced with weaker parameters so the
// caller can re-salt and re-hash on the next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other blogauth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
