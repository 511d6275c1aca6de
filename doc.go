// Package auth is the authentication and session-lifecycle core: it issues
// and verifies short-lived access tokens and long-lived refresh tokens,
// revokes sessions, and enforces brute-force lockout policy over a narrow
// identity-store interface.
//
// Token lifecycle:
//   - TokenService signs two independent claim sets (access, refresh), each
//     with its own secret, issuer, audience, and TTL. A token minted for one
//     context never validates under the other, and every verification
//     failure collapses into the single ErrInvalidToken kind.
//   - TokenVersions is the revocation registry: a per-identity generation
//     counter stamped into refresh tokens. Logout bumps the generation,
//     which invalidates every outstanding refresh token at once. The
//     in-process registry is the default; RedisTokenVersions shares the
//     counters across instances and restarts.
//
// Lockout:
//   - LockoutPolicy counts consecutive failed password checks per identity
//     and trips a timed lock at the threshold. Unlocking is lazy: the next
//     login evaluation after the window elapses resets the counters, with no
//     background sweep.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Authenticator for
//     security events (failed logins, lockout trips, token rejections), each
//     tagged with a severity. Sinks run best-effort (errors are logged) so
//     forwarding to a database or queue never blocks authentication.
package auth
