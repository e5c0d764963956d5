package redis

import "strings"

const defaultKeyPrefix = "pos"

const (
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
	lockPrefix        = "lock"
)

// keyspace namespaces every key under one prefix so several environments can
// share a Redis database.
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	return keyspace{prefix: strings.Trim(strings.TrimSpace(prefix), ":")}
}

func (k keyspace) IdempotencyKey(scope, id string) string {
	return k.build(idempotencyPrefix, scope, id)
}

func (k keyspace) RateLimitKey(scope string) string {
	return k.build(rateLimitPrefix, scope)
}

// SessionKey holds the refresh session bound to an access token jti.
func (k keyspace) SessionKey(accessID string) string {
	return k.build(sessionPrefix, accessID)
}

func (k keyspace) LockKey(name string) string {
	return k.build(lockPrefix, name)
}

func (k keyspace) build(parts ...string) string {
	prefix := k.prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
