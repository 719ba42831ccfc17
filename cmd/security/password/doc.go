// Package password hashes account passwords with Argon2id.
//
// Hashes are self-describing ($argon2id$v=19$m=...,t=...,p=...$salt$key), so
// verification works across cost changes; new hashes always use the caller's
// current Params. Cost defaults are tuned for interactive login latency.
package password
