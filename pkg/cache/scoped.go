package cache

// ScopedKeyer wraps a Keyer with a prefix so several datasets or users can
// share one Redis database without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "team-a:")
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

func (k *ScopedKeyer) QuarterKey(fingerprint, quarter string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.QuarterKey(fingerprint, quarter, opts)
}

func (k *ScopedKeyer) DayKey(fingerprint, day string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.DayKey(fingerprint, day, opts)
}
