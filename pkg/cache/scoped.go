package cache

// ScopedKeyer wraps a Keyer with a prefix so several tenants (or several
// servers sharing one Redis) keep separate namespaces.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "linkroute:")
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

// ResultKey generates a prefixed key for routing results.
func (k *ScopedKeyer) ResultKey(scenarioHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(scenarioHash, opts)
}

// RenderKey generates a prefixed key for renderings.
func (k *ScopedKeyer) RenderKey(resultHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(resultHash, opts)
}
