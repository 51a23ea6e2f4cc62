package webcache

import "time"

// DefaultTTL is how long a fetched page stays cached.
const DefaultTTL = 10 * time.Second

// Policy configures how long pages are cached.
type Policy struct {
	// TTL is the lifetime of a cached page. Zero disables caching; every
	// Get fetches.
	TTL time.Duration `yaml:"ttl"`

	// MaxTTL clamps TTL. Zero means no clamp.
	MaxTTL time.Duration `yaml:"max_ttl"`
}

// DefaultPolicy caches pages for DefaultTTL.
func DefaultPolicy() Policy {
	return Policy{TTL: DefaultTTL}
}

// ShouldCache reports whether fetched pages are stored at all.
func (p Policy) ShouldCache() bool {
	return p.EffectiveTTL() > 0
}

// EffectiveTTL returns TTL clamped to MaxTTL. Negative TTLs yield zero.
func (p Policy) EffectiveTTL() time.Duration {
	ttl := max(p.TTL, 0)
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
