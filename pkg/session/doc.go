// Package session mints and validates the signed bearer credentials that
// identify an authenticated account. Tokens are stateless JWTs (HS256);
// there is no server-side revocation, so logout is client-side credential
// disposal. This is a deliberate simplification: stronger logout semantics
// would require a revocation set keyed by token id.
package session
