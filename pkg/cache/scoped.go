package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-booth isolation.
// This is useful when several kiosks share one Redis instance but must not
// serve each other's composites, for example booths with different branding
// overlays at the same venue.
//
// Example usage:
//
//	// Booth-specific keys
//	boothKeyer := NewScopedKeyer(NewDefaultKeyer(), "booth:lobby-1:")
//
//	// Shared keys for identical booths
//	sharedKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// PlanKey generates a prefixed key for layout plan caching.
func (k *ScopedKeyer) PlanKey(requestHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(requestHash, opts)
}

// ArtifactKey generates a prefixed key for encoded composite caching.
func (k *ScopedKeyer) ArtifactKey(requestHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(requestHash, opts)
}
