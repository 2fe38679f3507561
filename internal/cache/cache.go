// Package cache provides TTL-bound storage for upstream API responses,
// keyed by endpoint and parameters, with a memory and a Redis backend.
package cache

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Category classifies a response by how quickly it goes stale. Each
// category maps to one TTL; finished fixtures never change and are kept
// without expiry.
type Category string

const (
	CategoryLive     Category = "live"
	CategoryUpcoming Category = "upcoming"
	CategoryFinished Category = "finished"
	CategoryLeague   Category = "league"
	CategoryTeam     Category = "team"
)

// TTL values of zero mean the entry never expires.
const TTLForever time.Duration = 0

// Policy maps categories to their TTLs.
type Policy struct {
	ttls map[Category]time.Duration
}

// NewPolicy builds the TTL table. Finished data is always permanent
// regardless of configuration.
func NewPolicy(live, upcoming, league, team time.Duration) *Policy {
	return &Policy{
		ttls: map[Category]time.Duration{
			CategoryLive:     live,
			CategoryUpcoming: upcoming,
			CategoryFinished: TTLForever,
			CategoryLeague:   league,
			CategoryTeam:     team,
		},
	}
}

// TTLFor returns the TTL for a category. Unknown categories fall back
// to the live TTL, the shortest one, so a bad classification can only
// make the cache too fresh.
func (p *Policy) TTLFor(category Category) time.Duration {
	if ttl, ok := p.ttls[category]; ok {
		return ttl
	}
	return p.ttls[CategoryLive]
}

// Cache stores serialized upstream responses. A zero TTL on Set means
// the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key builds a deterministic cache key from an endpoint path and its
// query parameters. Parameters are sorted by name so equivalent
// requests always share an entry.
func Key(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[name]))
	}
	return b.String()
}
