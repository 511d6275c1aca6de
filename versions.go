package auth

import (
	"context"
	"sync"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// TokenVersions is the revocation registry: identity -> current token
// generation. A refresh token is acceptable iff its embedded version equals
// the current generation for that identity.
type TokenVersions interface {
	// Current returns the generation for the identity, 0 if never bumped.
	Current(ctx context.Context, userID string) (int64, error)
	// Bump atomically increments and returns the new generation. Called
	// once per logout; every previously issued refresh token becomes
	// permanently unacceptable.
	Bump(ctx context.Context, userID string) (int64, error)
}

// MemoryTokenVersions keeps generations in process memory. Bumps for the
// same identity serialize on an atomic counter; different identities never
// block each other. State is lost on restart, which is why deployments with
// more than one instance should prefer RedisTokenVersions.
type MemoryTokenVersions struct {
	versions sync.Map // userID -> *atomic.Int64
}

// NewMemoryTokenVersions returns an empty in-process registry.
func NewMemoryTokenVersions() *MemoryTokenVersions {
	return &MemoryTokenVersions{}
}

func (m *MemoryTokenVersions) counter(userID string) *atomic.Int64 {
	if v, ok := m.versions.Load(userID); ok {
		return v.(*atomic.Int64)
	}
	v, _ := m.versions.LoadOrStore(userID, &atomic.Int64{})
	return v.(*atomic.Int64)
}

// Current implements TokenVersions.
func (m *MemoryTokenVersions) Current(ctx context.Context, userID string) (int64, error) {
	if v, ok := m.versions.Load(userID); ok {
		return v.(*atomic.Int64).Load(), nil
	}
	return 0, nil
}

// Bump implements TokenVersions.
func (m *MemoryTokenVersions) Bump(ctx context.Context, userID string) (int64, error) {
	return m.counter(userID).Add(1), nil
}

// DefaultVersionKeyPrefix namespaces registry keys in Redis.
const DefaultVersionKeyPrefix = "auth:tokenversion:"

// RedisTokenVersions externalizes the registry into a shared, atomically
// incrementable keyed counter store so revocations survive restarts and are
// visible across instances. The orchestrator contract is unchanged.
type RedisTokenVersions struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisTokenVersions wraps a Redis client. An empty prefix selects
// DefaultVersionKeyPrefix.
func NewRedisTokenVersions(client redis.UniversalClient, prefix string) *RedisTokenVersions {
	if prefix == "" {
		prefix = DefaultVersionKeyPrefix
	}
	return &RedisTokenVersions{client: client, prefix: prefix}
}

func (r *RedisTokenVersions) key(userID string) string {
	return r.prefix + userID
}

// Current implements TokenVersions. A missing key reads as generation 0.
func (r *RedisTokenVersions) Current(ctx context.Context, userID string) (int64, error) {
	val, err := r.client.Get(ctx, r.key(userID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read token generation")
	}
	return val, nil
}

// Bump implements TokenVersions via INCR, which is atomic server-side.
func (r *RedisTokenVersions) Bump(ctx context.Context, userID string) (int64, error) {
	val, err := r.client.Incr(ctx, r.key(userID)).Result()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to bump token generation")
	}
	return val, nil
}

var (
	_ TokenVersions = (*MemoryTokenVersions)(nil)
	_ TokenVersions = (*RedisTokenVersions)(nil)
)
