// Package account owns the account entity and the Registry, the single
// source of truth for account existence and verification-state
// transitions.
//
// Key invariants the registry upholds:
//   - at most one verified account exists per email and per phone;
//     unverified duplicates may coexist transiently and are reconciled to
//     one the moment any of them verifies
//   - verification code and expiry are set and cleared together
//   - a verified account never reverts to unverified
//
// Two implementations are provided: MemoryStore (process-local, fully
// serialized) and MongoStore (durable, conditional updates for the
// verify-vs-sweep race).
package account
